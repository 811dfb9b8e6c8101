package port

import (
	"context"

	"github.com/fhuszti/digimedia-ms-go/internal/model"
)

// BatchProcessor reconciles one inbound batch against stored state and
// commits the outcome across store, index and bus. The returned records
// are the ones that reached the terminal Published state; events that
// failed partway were dead-lettered with their side effects compensated.
type BatchProcessor interface {
	ProcessBatch(ctx context.Context, events []model.MediaEvent) ([]model.MediaRecord, error)
}

type SingleStatus string

const (
	StatusCreated   SingleStatus = "created"
	StatusUpdated   SingleStatus = "updated"
	StatusUnchanged SingleStatus = "no changes"
)

type SingleResult struct {
	Status SingleStatus       `json:"status"`
	Record *model.MediaRecord `json:"record,omitempty"`
}

// SingleProcessor is the synchronous, single-event flavour of the
// pipeline. Unlike batch mode it verifies that the referenced specimen
// exists before committing anything.
type SingleProcessor interface {
	ProcessSingle(ctx context.Context, ev model.MediaEvent) (SingleResult, error)
}
