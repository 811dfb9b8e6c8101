package bus

import (
	"encoding/json"
	"testing"

	"github.com/hibiken/asynq"

	"github.com/fhuszti/digimedia-ms-go/internal/model"
)

func inboundTask(t *testing.T, ev model.MediaEvent) *asynq.Task {
	t.Helper()
	task, err := NewInboundMediaTask(ev)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return task
}

func TestNewInboundMediaTask_RoundTrip(t *testing.T) {
	ev := model.MediaEvent{
		EnrichmentList: []string{"ocr"},
		Wrapper: model.MediaWrapper{
			Type:       "StillImage",
			SpecimenID: "S1",
			Attributes: model.Attributes{AccessURI: "https://img.example.org/L1"},
		},
	}

	task := inboundTask(t, ev)
	if task.Type() != TypeInboundMedia {
		t.Errorf("expected task type %q, got %q", TypeInboundMedia, task.Type())
	}

	var decoded model.MediaEvent
	if err := json.Unmarshal(task.Payload(), &decoded); err != nil {
		t.Fatalf("payload does not decode: %v", err)
	}
	if decoded.Wrapper.SpecimenID != "S1" || decoded.EnrichmentList[0] != "ocr" {
		t.Errorf("round trip lost data: %+v", decoded)
	}
}

func TestAggregateInboundMedia_FoldsTasksInOrder(t *testing.T) {
	t1 := inboundTask(t, model.MediaEvent{Wrapper: model.MediaWrapper{SpecimenID: "S1"}})
	t2 := inboundTask(t, model.MediaEvent{Wrapper: model.MediaWrapper{SpecimenID: "S2"}})

	batch := AggregateInboundMedia(GroupInboundMedia, []*asynq.Task{t1, t2})
	if batch.Type() != TypeProcessBatch {
		t.Fatalf("expected task type %q, got %q", TypeProcessBatch, batch.Type())
	}

	raws, err := ParseProcessBatchPayload(batch)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(raws) != 2 {
		t.Fatalf("expected 2 elements, got %d", len(raws))
	}

	var first model.MediaEvent
	if err := json.Unmarshal(raws[0], &first); err != nil {
		t.Fatalf("first element does not decode: %v", err)
	}
	if first.Wrapper.SpecimenID != "S1" {
		t.Errorf("arrival order lost, first element is %+v", first)
	}
}

func TestAggregateInboundMedia_CarriesGarbageAsString(t *testing.T) {
	good := inboundTask(t, model.MediaEvent{Wrapper: model.MediaWrapper{SpecimenID: "S1"}})
	garbage := asynq.NewTask(TypeInboundMedia, []byte("not json at all"))

	batch := AggregateInboundMedia(GroupInboundMedia, []*asynq.Task{good, garbage})
	raws, err := ParseProcessBatchPayload(batch)
	if err != nil {
		t.Fatalf("a garbage element must not break the whole batch: %v", err)
	}
	if len(raws) != 2 {
		t.Fatalf("expected both elements carried, got %d", len(raws))
	}

	var carried string
	if err := json.Unmarshal(raws[1], &carried); err != nil {
		t.Fatalf("the garbage element should be carried as a JSON string: %v", err)
	}
	if carried != "not json at all" {
		t.Errorf("garbage payload mangled: %q", carried)
	}
}

func TestParseProcessBatchPayload_RejectsNonArray(t *testing.T) {
	task := asynq.NewTask(TypeProcessBatch, []byte(`{"not":"an array"}`))
	if _, err := ParseProcessBatchPayload(task); err == nil {
		t.Error("expected an error for a non-array payload")
	}
}

func TestEnrichmentType(t *testing.T) {
	if got := enrichmentType("ocr"); got != "enrichment:ocr" {
		t.Errorf("expected enrichment:ocr, got %q", got)
	}
}
