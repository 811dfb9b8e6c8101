package port

import (
	"context"
	"encoding/json"

	"github.com/fhuszti/digimedia-ms-go/internal/model"
)

// Publisher is the outbound side of the bus gateway.
type Publisher interface {
	// PublishCreated announces a freshly committed media on the
	// create/update topic.
	PublishCreated(ctx context.Context, rec model.MediaRecord) error
	// PublishUpdated announces a superseding version, with the JSON patch
	// between the old and new attributes.
	PublishUpdated(ctx context.Context, rec model.MediaRecord, patch json.RawMessage) error
	// PublishIdentifierUpdate notifies that externally-visible identifier
	// metadata changed for a media.
	PublishIdentifierUpdate(ctx context.Context, rec model.MediaRecord) error
	// PublishEnrichment fans out one downstream processing request.
	PublishEnrichment(ctx context.Context, name string, rec model.MediaRecord) error
	// PublishAnnotation emits a provenance/annotation event.
	PublishAnnotation(ctx context.Context, ann model.AnnotationEvent) error
	// RequeueEvent puts an in-batch duplicate back onto the inbound topic.
	RequeueEvent(ctx context.Context, ev model.MediaEvent) error
	// DeadLetterEvent parks a structured event that could not be processed.
	DeadLetterEvent(ctx context.Context, ev model.MediaEvent) error
	// DeadLetterRaw parks an unparsable payload as-is.
	DeadLetterRaw(ctx context.Context, payload []byte) error
}
