package mock

import (
	"context"
	"encoding/json"

	"github.com/fhuszti/digimedia-ms-go/internal/model"
)

// MockPublisher implements the bus gateway for tests.
type MockPublisher struct {
	CreatedErr    error
	UpdatedErr    error
	EnrichmentErr error
	AnnotationErr error
	RequeueErr    error
	DeadLetterErr error

	Created           []model.MediaRecord
	Updated           []model.MediaRecord
	Patches           []json.RawMessage
	IdentifierUpdates []model.MediaRecord
	Enrichments       map[string][]model.MediaRecord
	Annotations       []model.AnnotationEvent
	Requeued          []model.MediaEvent
	DeadLettered      []model.MediaEvent
	DeadLetteredRaw   [][]byte
}

func (m *MockPublisher) PublishCreated(ctx context.Context, rec model.MediaRecord) error {
	if m.CreatedErr != nil {
		return m.CreatedErr
	}
	m.Created = append(m.Created, rec)
	return nil
}

func (m *MockPublisher) PublishUpdated(ctx context.Context, rec model.MediaRecord, patch json.RawMessage) error {
	if m.UpdatedErr != nil {
		return m.UpdatedErr
	}
	m.Updated = append(m.Updated, rec)
	m.Patches = append(m.Patches, patch)
	return nil
}

func (m *MockPublisher) PublishIdentifierUpdate(ctx context.Context, rec model.MediaRecord) error {
	m.IdentifierUpdates = append(m.IdentifierUpdates, rec)
	return nil
}

func (m *MockPublisher) PublishEnrichment(ctx context.Context, name string, rec model.MediaRecord) error {
	if m.EnrichmentErr != nil {
		return m.EnrichmentErr
	}
	if m.Enrichments == nil {
		m.Enrichments = make(map[string][]model.MediaRecord)
	}
	m.Enrichments[name] = append(m.Enrichments[name], rec)
	return nil
}

func (m *MockPublisher) PublishAnnotation(ctx context.Context, ann model.AnnotationEvent) error {
	if m.AnnotationErr != nil {
		return m.AnnotationErr
	}
	m.Annotations = append(m.Annotations, ann)
	return nil
}

func (m *MockPublisher) RequeueEvent(ctx context.Context, ev model.MediaEvent) error {
	if m.RequeueErr != nil {
		return m.RequeueErr
	}
	m.Requeued = append(m.Requeued, ev)
	return nil
}

func (m *MockPublisher) DeadLetterEvent(ctx context.Context, ev model.MediaEvent) error {
	if m.DeadLetterErr != nil {
		return m.DeadLetterErr
	}
	m.DeadLettered = append(m.DeadLettered, ev)
	return nil
}

func (m *MockPublisher) DeadLetterRaw(ctx context.Context, payload []byte) error {
	if m.DeadLetterErr != nil {
		return m.DeadLetterErr
	}
	m.DeadLetteredRaw = append(m.DeadLetteredRaw, payload)
	return nil
}
