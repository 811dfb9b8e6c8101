package reconcile

import (
	"context"
	"fmt"
	"time"

	"github.com/fhuszti/digimedia-ms-go/internal/logger"
	"github.com/fhuszti/digimedia-ms-go/internal/model"
	"github.com/fhuszti/digimedia-ms-go/internal/port"
	"github.com/fhuszti/digimedia-ms-go/internal/uuid"
)

// Processor runs the reconciliation pipeline for one batch: dedup,
// classify, allocate handles, commit store, commit index, publish, and
// compensate whatever failed partway. All per-batch state lives in local
// scope; nothing is shared between batches.
type Processor struct {
	repo      port.MediaRepository
	indexer   port.Indexer
	publisher port.Publisher
	pid       port.PidClient

	now   func() time.Time
	newID func() string
}

// compile-time check: *Processor must satisfy port.BatchProcessor
var _ port.BatchProcessor = (*Processor)(nil)

func NewProcessor(repo port.MediaRepository, indexer port.Indexer, publisher port.Publisher, pid port.PidClient) *Processor {
	return &Processor{
		repo:      repo,
		indexer:   indexer,
		publisher: publisher,
		pid:       pid,
		now:       time.Now,
		newID:     uuid.NewString,
	}
}

func (p *Processor) ProcessBatch(ctx context.Context, events []model.MediaEvent) ([]model.MediaRecord, error) {
	unique := p.dedupe(ctx, events)
	if len(unique) == 0 {
		return nil, nil
	}

	res, err := p.partition(ctx, unique)
	if err != nil {
		// Nothing was written yet; failing the batch here lets the bus
		// redeliver it whole.
		return nil, err
	}
	logger.Infof(ctx, "batch of %d: %d unchanged, %d changed, %d new",
		len(unique), len(res.Unchanged), len(res.Changed), len(res.New))

	p.touchUnchanged(ctx, res.Unchanged)

	committed := p.processNew(ctx, res.New)
	committed = append(committed, p.processChanged(ctx, res.Changed)...)
	return committed, nil
}

// dedupe keeps the first event per identity key, in arrival order, and
// re-publishes every later duplicate back onto the inbound topic so a
// later batch picks it up.
func (p *Processor) dedupe(ctx context.Context, events []model.MediaEvent) []model.MediaEvent {
	seen := make(map[model.IdentityKey]bool, len(events))
	unique := make([]model.MediaEvent, 0, len(events))
	for _, ev := range events {
		key := ev.Key()
		if seen[key] {
			if err := p.publisher.RequeueEvent(ctx, ev); err != nil {
				logger.Errorf(ctx, "failed to re-queue duplicate for specimen %q, media %q: %v",
					key.SpecimenID, key.MediaURL, err)
			}
			continue
		}
		seen[key] = true
		unique = append(unique, ev)
	}
	return unique
}

// partition looks up the current record for every key and classifies
// each event against it.
func (p *Processor) partition(ctx context.Context, events []model.MediaEvent) (model.ProcessResult, error) {
	keys := make([]model.IdentityKey, len(events))
	for i, ev := range events {
		keys[i] = ev.Key()
	}

	currents, err := p.repo.GetByIdentityKeys(ctx, keys)
	if err != nil {
		return model.ProcessResult{}, fmt.Errorf("load current records: %w", err)
	}
	byKey := make(map[model.IdentityKey]model.MediaRecord, len(currents))
	for _, rec := range currents {
		byKey[rec.Key()] = rec
	}

	var res model.ProcessResult
	now := p.now()
	for _, ev := range events {
		cur, ok := byKey[ev.Key()]
		var curPtr *model.MediaRecord
		if ok {
			c := cur
			curPtr = &c
		}

		verdict, wrapper := Classify(curPtr, ev.Wrapper, now)
		switch verdict {
		case VerdictNew:
			res.New = append(res.New, ev)
		case VerdictUnchanged:
			res.Unchanged = append(res.Unchanged, model.UpdatedMediaTuple{Current: cur, Event: ev})
		case VerdictChanged:
			changed := ev
			changed.Wrapper = wrapper
			res.Changed = append(res.Changed, model.UpdatedMediaTuple{Current: cur, Event: changed})
		}
	}
	return res, nil
}

// touchUnchanged bumps the last-checked watermark for re-delivered
// records. No index or bus activity, so a failure only delays the
// watermark and is not compensated.
func (p *Processor) touchUnchanged(ctx context.Context, tuples []model.UpdatedMediaTuple) {
	if len(tuples) == 0 {
		return
	}
	ids := make([]string, len(tuples))
	for i, t := range tuples {
		ids[i] = t.Current.ID
	}
	if err := p.repo.UpdateLastChecked(ctx, ids); err != nil {
		logger.Errorf(ctx, "watermark update failed for %d unchanged media: %v", len(ids), err)
	}
}

func (p *Processor) deadLetter(ctx context.Context, ev model.MediaEvent) {
	if err := p.publisher.DeadLetterEvent(ctx, ev); err != nil {
		logger.Errorf(ctx, "dead-lettering failed for specimen %q, media %q, event is lost: %v",
			ev.Wrapper.SpecimenID, ev.Wrapper.Attributes.AccessURI, err)
	}
}

func (p *Processor) deadLetterAll(ctx context.Context, events []model.MediaEvent) {
	for _, ev := range events {
		p.deadLetter(ctx, ev)
	}
}

func (p *Processor) fanOutEnrichments(ctx context.Context, ev model.MediaEvent, rec model.MediaRecord) {
	for _, name := range ev.EnrichmentList {
		if err := p.publisher.PublishEnrichment(ctx, name, rec); err != nil {
			// Advisory fan-out, not part of the consistency contract.
			logger.Errorf(ctx, "enrichment %q request failed for media %s: %v", name, rec.ID, err)
		}
	}
}
