package bus

import (
	"context"
	"encoding/json"

	"github.com/fhuszti/digimedia-ms-go/internal/model"
	"github.com/fhuszti/digimedia-ms-go/internal/port"
)

// NoopPublisher swallows every publish. Used when the bus is not wired,
// e.g. in tests.
type NoopPublisher struct{}

var _ port.Publisher = (*NoopPublisher)(nil)

func NewNoopPublisher() *NoopPublisher { return &NoopPublisher{} }

func (p *NoopPublisher) PublishCreated(ctx context.Context, rec model.MediaRecord) error {
	return nil
}
func (p *NoopPublisher) PublishUpdated(ctx context.Context, rec model.MediaRecord, patch json.RawMessage) error {
	return nil
}
func (p *NoopPublisher) PublishIdentifierUpdate(ctx context.Context, rec model.MediaRecord) error {
	return nil
}
func (p *NoopPublisher) PublishEnrichment(ctx context.Context, name string, rec model.MediaRecord) error {
	return nil
}
func (p *NoopPublisher) PublishAnnotation(ctx context.Context, ann model.AnnotationEvent) error {
	return nil
}
func (p *NoopPublisher) RequeueEvent(ctx context.Context, ev model.MediaEvent) error {
	return nil
}
func (p *NoopPublisher) DeadLetterEvent(ctx context.Context, ev model.MediaEvent) error {
	return nil
}
func (p *NoopPublisher) DeadLetterRaw(ctx context.Context, payload []byte) error {
	return nil
}
