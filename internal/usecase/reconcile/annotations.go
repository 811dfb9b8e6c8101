package reconcile

import (
	"context"
	"encoding/json"

	"github.com/fhuszti/digimedia-ms-go/internal/logger"
	"github.com/fhuszti/digimedia-ms-go/internal/model"
	"github.com/wI2L/jsondiff"
)

const (
	serviceAgentID   = "digimedia-ms"
	serviceAgentName = "digital media processing service"
)

// attributesPatch builds the RFC 6902 diff between the old and new
// attribute documents, with the modification timestamp pruned: it is a
// generated field and has no place in a field-level change description.
func attributesPatch(old, new model.Attributes) (json.RawMessage, error) {
	patch, err := jsondiff.Compare(old, new)
	if err != nil {
		return nil, err
	}
	filtered := make(jsondiff.Patch, 0, len(patch))
	for _, op := range patch {
		if op.Path == "/modified" {
			continue
		}
		filtered = append(filtered, op)
	}
	if len(filtered) == 0 {
		return json.RawMessage("[]"), nil
	}
	return json.Marshal(filtered)
}

// emitCreateAnnotations fires one new-media annotation per committed
// record. Triggered only after the record reached Published; a failure
// here never reverses the commit.
func (p *Processor) emitCreateAnnotations(ctx context.Context, records []model.MediaRecord) {
	for _, rec := range records {
		ann := model.AnnotationEvent{
			CorrelationID: p.newID(),
			Action:        model.AnnotationActionCreate,
			MediaID:       rec.ID,
			Version:       rec.Version,
			Provenance:    p.provenanceFor(rec),
		}
		if err := p.publisher.PublishAnnotation(ctx, ann); err != nil {
			logger.Errorf(ctx, "create annotation failed for media %s: %v", rec.ID, err)
		}
	}
}

func (p *Processor) emitUpdateAnnotation(ctx context.Context, rec model.MediaRecord, patch json.RawMessage) {
	ann := model.AnnotationEvent{
		CorrelationID: p.newID(),
		Action:        model.AnnotationActionUpdate,
		MediaID:       rec.ID,
		Version:       rec.Version,
		Patch:         patch,
		Provenance:    p.provenanceFor(rec),
	}
	if err := p.publisher.PublishAnnotation(ctx, ann); err != nil {
		logger.Errorf(ctx, "update annotation failed for media %s: %v", rec.ID, err)
	}
}

// provenanceFor names the acting agents: this service, plus the source
// system the wrapper originated from when known.
func (p *Processor) provenanceFor(rec model.MediaRecord) model.Provenance {
	agents := []model.Agent{
		{ID: serviceAgentID, Name: serviceAgentName, Type: model.AgentTypeService},
	}
	if src := rec.Wrapper.Attributes.SourceSystemID; src != "" {
		agents = append(agents, model.Agent{
			ID:   src,
			Name: rec.Wrapper.Attributes.SourceSystemName,
			Type: model.AgentTypeSourceSystem,
		})
	}
	return model.Provenance{Created: p.now(), Agents: agents}
}
