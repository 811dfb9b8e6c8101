package reconcile

import (
	"context"
	"fmt"

	"github.com/fhuszti/digimedia-ms-go/internal/logger"
	"github.com/fhuszti/digimedia-ms-go/internal/model"
	"github.com/fhuszti/digimedia-ms-go/internal/port"
)

// SingleService runs the pipeline synchronously for one event. Unlike
// batch mode it refuses events whose specimen is unknown instead of
// re-queuing them.
type SingleService struct {
	proc *Processor
}

// compile-time check: *SingleService must satisfy port.SingleProcessor
var _ port.SingleProcessor = (*SingleService)(nil)

func NewSingleService(proc *Processor) *SingleService {
	return &SingleService{proc: proc}
}

func (s *SingleService) ProcessSingle(ctx context.Context, ev model.MediaEvent) (port.SingleResult, error) {
	ok, err := s.proc.repo.SpecimenExists(ctx, ev.Wrapper.SpecimenID)
	if err != nil {
		return port.SingleResult{}, fmt.Errorf("specimen lookup: %w", err)
	}
	if !ok {
		return port.SingleResult{}, ErrSpecimenNotFound
	}

	res, err := s.proc.partition(ctx, []model.MediaEvent{ev})
	if err != nil {
		return port.SingleResult{}, err
	}

	switch {
	case len(res.Unchanged) == 1:
		cur := res.Unchanged[0].Current
		if err := s.proc.repo.UpdateLastChecked(ctx, []string{cur.ID}); err != nil {
			logger.Errorf(ctx, "watermark update failed for media %s: %v", cur.ID, err)
		}
		return port.SingleResult{Status: port.StatusUnchanged, Record: &cur}, nil

	case len(res.New) == 1:
		recs := s.proc.processNew(ctx, res.New)
		if len(recs) == 0 {
			return port.SingleResult{}, ErrProcessingFailed
		}
		return port.SingleResult{Status: port.StatusCreated, Record: &recs[0]}, nil

	default:
		recs := s.proc.processChanged(ctx, res.Changed)
		if len(recs) == 0 {
			return port.SingleResult{}, ErrProcessingFailed
		}
		return port.SingleResult{Status: port.StatusUpdated, Record: &recs[0]}, nil
	}
}
