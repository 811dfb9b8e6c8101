package worker

import (
	"context"
	"encoding/json"
	"log"

	"github.com/fhuszti/digimedia-ms-go/internal/bus"
	"github.com/fhuszti/digimedia-ms-go/internal/model"
	"github.com/fhuszti/digimedia-ms-go/internal/port"
	"github.com/hibiken/asynq"
)

// requeueWarnThreshold is when a duplicate that keeps coming back gets
// called out in the logs. Delivery itself stays unconditional.
const requeueWarnThreshold = 5

// ProcessBatchHandler handles one aggregated inbound batch. Malformed
// elements are dead-lettered raw and never fail the batch; a pipeline
// error fails the task so the bus redelivers the whole batch.
func ProcessBatchHandler(ctx context.Context, t *asynq.Task, svc port.BatchProcessor, pub port.Publisher) error {
	raws, err := bus.ParseProcessBatchPayload(t)
	if err != nil {
		log.Printf("❌  Unparsable batch payload, dead-lettering whole: %v", err)
		if dlqErr := pub.DeadLetterRaw(ctx, t.Payload()); dlqErr != nil {
			log.Printf("❌  Dead-lettering failed, payload is lost: %v", dlqErr)
		}
		return nil
	}

	events := make([]model.MediaEvent, 0, len(raws))
	for _, raw := range raws {
		var ev model.MediaEvent
		if err := json.Unmarshal(raw, &ev); err != nil || ev.Wrapper.SpecimenID == "" || ev.Wrapper.Attributes.AccessURI == "" {
			log.Printf("❌  Malformed inbound element, dead-lettering raw: %v", err)
			if dlqErr := pub.DeadLetterRaw(ctx, raw); dlqErr != nil {
				log.Printf("❌  Dead-lettering failed, payload is lost: %v", dlqErr)
			}
			continue
		}
		if ev.Requeued > requeueWarnThreshold {
			log.Printf("⚠️  Event for specimen %q, media %q re-queued %d times, possible poison event",
				ev.Wrapper.SpecimenID, ev.Wrapper.Attributes.AccessURI, ev.Requeued)
		}
		events = append(events, ev)
	}
	if len(events) == 0 {
		return nil
	}

	records, err := svc.ProcessBatch(ctx, events)
	if err != nil {
		log.Printf("❌  Batch of %d failed before any commit: %v", len(events), err)
		return err
	}

	log.Printf("✅  Batch done: %d of %d events committed", len(records), len(events))
	return nil
}
