package worker

import (
	"context"
	"errors"
	"testing"

	"github.com/hibiken/asynq"

	"github.com/fhuszti/digimedia-ms-go/internal/bus"
	"github.com/fhuszti/digimedia-ms-go/internal/mock"
	"github.com/fhuszti/digimedia-ms-go/internal/model"
)

type mockBatchProcessor struct {
	err     error
	batches [][]model.MediaEvent
}

func (m *mockBatchProcessor) ProcessBatch(ctx context.Context, events []model.MediaEvent) ([]model.MediaRecord, error) {
	m.batches = append(m.batches, events)
	if m.err != nil {
		return nil, m.err
	}
	records := make([]model.MediaRecord, len(events))
	for i := range events {
		records[i] = model.MediaRecord{ID: events[i].Wrapper.ID, Version: 1}
	}
	return records, nil
}

func inboundTask(t *testing.T, ev model.MediaEvent) *asynq.Task {
	t.Helper()
	task, err := bus.NewInboundMediaTask(ev)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return task
}

func mediaEvent(specimenID, mediaURL string) model.MediaEvent {
	return model.MediaEvent{Wrapper: model.MediaWrapper{
		Type:       "StillImage",
		SpecimenID: specimenID,
		Attributes: model.Attributes{AccessURI: mediaURL},
	}}
}

func batchTask(t *testing.T, events ...model.MediaEvent) *asynq.Task {
	t.Helper()
	tasks := make([]*asynq.Task, len(events))
	for i, ev := range events {
		tasks[i] = inboundTask(t, ev)
	}
	return bus.AggregateInboundMedia(bus.GroupInboundMedia, tasks)
}

func TestProcessBatchHandler_HappyPath(t *testing.T) {
	svc := &mockBatchProcessor{}
	pub := &mock.MockPublisher{}

	task := batchTask(t,
		mediaEvent("S1", "https://img.example.org/L1"),
		mediaEvent("S2", "https://img.example.org/L2"),
	)
	if err := ProcessBatchHandler(context.Background(), task, svc, pub); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(svc.batches) != 1 || len(svc.batches[0]) != 2 {
		t.Fatalf("expected one batch of 2 events, got %v", svc.batches)
	}
	if len(pub.DeadLetteredRaw) != 0 {
		t.Errorf("nothing should be dead-lettered, got %d", len(pub.DeadLetteredRaw))
	}
}

func TestProcessBatchHandler_MalformedElementDeadLetteredRaw(t *testing.T) {
	svc := &mockBatchProcessor{}
	pub := &mock.MockPublisher{}

	good := inboundTask(t, mediaEvent("S1", "https://img.example.org/L1"))
	garbage := asynq.NewTask(bus.TypeInboundMedia, []byte("not json at all"))
	task := bus.AggregateInboundMedia(bus.GroupInboundMedia, []*asynq.Task{good, garbage})

	if err := ProcessBatchHandler(context.Background(), task, svc, pub); err != nil {
		t.Fatalf("a malformed element must not fail the batch: %v", err)
	}
	if len(svc.batches) != 1 || len(svc.batches[0]) != 1 {
		t.Fatalf("the well-formed sibling should still be processed, got %v", svc.batches)
	}
	if len(pub.DeadLetteredRaw) != 1 {
		t.Errorf("expected the garbage element dead-lettered raw, got %d", len(pub.DeadLetteredRaw))
	}
}

func TestProcessBatchHandler_MissingIdentityDeadLetteredRaw(t *testing.T) {
	svc := &mockBatchProcessor{}
	pub := &mock.MockPublisher{}

	// decodes fine but has no media url, so no identity key
	task := batchTask(t, model.MediaEvent{Wrapper: model.MediaWrapper{Type: "StillImage", SpecimenID: "S1"}})

	if err := ProcessBatchHandler(context.Background(), task, svc, pub); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(svc.batches) != 0 {
		t.Errorf("an event without an identity key must not reach the pipeline, got %v", svc.batches)
	}
	if len(pub.DeadLetteredRaw) != 1 {
		t.Errorf("expected the element dead-lettered raw, got %d", len(pub.DeadLetteredRaw))
	}
}

func TestProcessBatchHandler_UnparsablePayloadDeadLetteredWhole(t *testing.T) {
	svc := &mockBatchProcessor{}
	pub := &mock.MockPublisher{}

	task := asynq.NewTask(bus.TypeProcessBatch, []byte(`{"not":"an array"}`))
	if err := ProcessBatchHandler(context.Background(), task, svc, pub); err != nil {
		t.Fatalf("an unparsable payload is dead-lettered, not retried: %v", err)
	}
	if len(pub.DeadLetteredRaw) != 1 {
		t.Errorf("expected the whole payload dead-lettered, got %d", len(pub.DeadLetteredRaw))
	}
	if len(svc.batches) != 0 {
		t.Error("nothing should reach the pipeline")
	}
}

func TestProcessBatchHandler_PipelineErrorFailsTask(t *testing.T) {
	svc := &mockBatchProcessor{err: errors.New("store unreachable")}
	pub := &mock.MockPublisher{}

	task := batchTask(t, mediaEvent("S1", "https://img.example.org/L1"))
	if err := ProcessBatchHandler(context.Background(), task, svc, pub); err == nil {
		t.Fatal("a pipeline error must fail the task so the batch is redelivered")
	}
}
