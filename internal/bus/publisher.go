package bus

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/fhuszti/digimedia-ms-go/internal/model"
	"github.com/fhuszti/digimedia-ms-go/internal/port"
	"github.com/hibiken/asynq"
)

type Publisher struct {
	client *asynq.Client
}

// compile-time check: *Publisher must satisfy port.Publisher
var _ port.Publisher = (*Publisher)(nil)

func NewPublisher(addr, password string) *Publisher {
	c := asynq.NewClient(asynq.RedisClientOpt{Addr: addr, Password: password})
	return &Publisher{client: c}
}

// NotificationPayload is the body of create/update notifications.
type NotificationPayload struct {
	Record model.MediaRecord `json:"record"`
	Patch  json.RawMessage   `json:"patch,omitempty"`
}

func (p *Publisher) PublishCreated(ctx context.Context, rec model.MediaRecord) error {
	return p.enqueueJSON(ctx, TypeMediaCreated, QueueNotifications,
		NotificationPayload{Record: rec})
}

func (p *Publisher) PublishUpdated(ctx context.Context, rec model.MediaRecord, patch json.RawMessage) error {
	return p.enqueueJSON(ctx, TypeMediaUpdated, QueueNotifications,
		NotificationPayload{Record: rec, Patch: patch})
}

func (p *Publisher) PublishIdentifierUpdate(ctx context.Context, rec model.MediaRecord) error {
	return p.enqueueJSON(ctx, TypeIdentifierUpdate, QueueNotifications,
		NotificationPayload{Record: rec})
}

func (p *Publisher) PublishEnrichment(ctx context.Context, name string, rec model.MediaRecord) error {
	return p.enqueueJSON(ctx, enrichmentType(name), QueueEnrichment, rec)
}

func (p *Publisher) PublishAnnotation(ctx context.Context, ann model.AnnotationEvent) error {
	return p.enqueueJSON(ctx, TypeAnnotation, QueueNotifications, ann)
}

func (p *Publisher) RequeueEvent(ctx context.Context, ev model.MediaEvent) error {
	ev.Requeued++
	log.Printf("re-queuing duplicate event for specimen %q, media %q (attempt %d)...",
		ev.Wrapper.SpecimenID, ev.Wrapper.Attributes.AccessURI, ev.Requeued)

	t, err := NewInboundMediaTask(ev)
	if err != nil {
		return err
	}
	if _, err := p.client.EnqueueContext(ctx, t,
		asynq.Queue(QueueMedia), asynq.Group(GroupInboundMedia)); err != nil {
		return err
	}
	return nil
}

func (p *Publisher) DeadLetterEvent(ctx context.Context, ev model.MediaEvent) error {
	log.Printf("dead-lettering event for specimen %q, media %q...",
		ev.Wrapper.SpecimenID, ev.Wrapper.Attributes.AccessURI)

	return p.enqueueJSON(ctx, TypeDeadLetter, QueueDeadLetter, ev)
}

func (p *Publisher) DeadLetterRaw(ctx context.Context, payload []byte) error {
	log.Printf("dead-lettering unparsable payload of %d bytes...", len(payload))

	t := asynq.NewTask(TypeDeadLetterRaw, payload)
	if _, err := p.client.EnqueueContext(ctx, t, asynq.Queue(QueueDeadLetter)); err != nil {
		return err
	}
	return nil
}

func (p *Publisher) enqueueJSON(ctx context.Context, taskType, queue string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("could not marshal %s payload: %w", taskType, err)
	}
	t := asynq.NewTask(taskType, data)
	if _, err := p.client.EnqueueContext(ctx, t, asynq.Queue(queue)); err != nil {
		return err
	}
	return nil
}
