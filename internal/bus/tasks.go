package bus

import (
	"encoding/json"
	"fmt"

	"github.com/fhuszti/digimedia-ms-go/internal/model"
	"github.com/hibiken/asynq"
)

// Task types. One type per topic of the contract; enrichment topics are
// derived from the requested enrichment name.
const (
	TypeInboundMedia     = "digital-media-object"
	TypeProcessBatch     = "digital-media:process-batch"
	TypeMediaCreated     = "media:created"
	TypeMediaUpdated     = "media:updated"
	TypeIdentifierUpdate = "media-update"
	TypeAnnotation       = "media:annotation"
	TypeDeadLetter       = "media:dead-letter"
	TypeDeadLetterRaw    = "media:dead-letter-raw"
)

// Queues. The worker only consumes QueueMedia; the rest are outbound
// topics read by other services.
const (
	QueueMedia         = "media"
	QueueNotifications = "notifications"
	QueueEnrichment    = "enrichment"
	QueueDeadLetter    = "digital-media-object-dlq"

	// GroupInboundMedia is the aggregation group inbound events join so
	// the server folds them into bounded batches.
	GroupInboundMedia = "digital-media-object"
)

func enrichmentType(name string) string {
	return "enrichment:" + name
}

// NewInboundMediaTask wraps one media event for the inbound topic.
func NewInboundMediaTask(ev model.MediaEvent) (*asynq.Task, error) {
	data, err := json.Marshal(ev)
	if err != nil {
		return nil, fmt.Errorf("could not marshal media event: %w", err)
	}
	return asynq.NewTask(TypeInboundMedia, data), nil
}

// AggregateInboundMedia folds the accumulated inbound tasks into one
// process-batch task. Payloads are kept as raw elements so the consumer
// can dead-letter a malformed element without losing its siblings.
func AggregateInboundMedia(group string, tasks []*asynq.Task) *asynq.Task {
	payloads := make([]json.RawMessage, len(tasks))
	for i, t := range tasks {
		if json.Valid(t.Payload()) {
			payloads[i] = t.Payload()
			continue
		}
		// Non-JSON garbage from a foreign producer: carry it through as a
		// JSON string so the consumer can dead-letter it individually.
		quoted, _ := json.Marshal(string(t.Payload()))
		payloads[i] = quoted
	}
	data, _ := json.Marshal(payloads)
	return asynq.NewTask(TypeProcessBatch, data)
}

// ParseProcessBatchPayload splits an aggregated batch back into its raw
// elements.
func ParseProcessBatchPayload(t *asynq.Task) ([]json.RawMessage, error) {
	var payloads []json.RawMessage
	if err := json.Unmarshal(t.Payload(), &payloads); err != nil {
		return nil, fmt.Errorf("could not unmarshal batch payload: %w", err)
	}
	return payloads, nil
}
