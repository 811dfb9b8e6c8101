package reconcile

import (
	"context"

	"github.com/fhuszti/digimedia-ms-go/internal/logger"
	"github.com/fhuszti/digimedia-ms-go/internal/model"
)

// changedPair carries everything needed to commit one accepted update
// and to walk it back if a later stage fails.
type changedPair struct {
	old        model.MediaRecord
	new        model.MediaRecord
	event      model.MediaEvent
	pidUpdated bool
}

// processChanged commits a batch of accepted updates. Identifier
// metadata and the store are committed batch-wide; index and bus are
// evaluated per item so one failing item never blocks its siblings.
func (p *Processor) processChanged(ctx context.Context, tuples []model.UpdatedMediaTuple) []model.MediaRecord {
	if len(tuples) == 0 {
		return nil
	}

	pairs := make([]changedPair, len(tuples))
	var pidNew, pidOld []model.MediaRecord
	for i, t := range tuples {
		rec := t.Current.NextVersion(t.Event.Wrapper.WithID(t.Current.ID))
		pairs[i] = changedPair{old: t.Current, new: rec, event: t.Event}
		if identifierFieldsChanged(t.Current.Wrapper, rec.Wrapper) {
			pairs[i].pidUpdated = true
			pidNew = append(pidNew, rec)
			pidOld = append(pidOld, t.Current)
		}
	}

	// No partial store writes without resolved identifiers: a registry
	// failure dead-letters the whole changed sub-batch.
	if len(pidNew) > 0 {
		if err := p.pid.UpdateBatch(ctx, pidNew); err != nil {
			logger.Errorf(ctx, "identifier update failed, dead-lettering %d changed events: %v", len(pairs), err)
			for _, pair := range pairs {
				p.deadLetter(ctx, pair.event)
			}
			return nil
		}
	}

	newRecords := make([]model.MediaRecord, len(pairs))
	for i, pair := range pairs {
		newRecords[i] = pair.new
	}
	if err := p.repo.UpsertBatch(ctx, newRecords); err != nil {
		logger.Errorf(ctx, "store commit failed for %d changed media: %v", len(newRecords), err)
		if err := p.pid.RollbackUpdate(ctx, pidOld); err != nil {
			logger.Errorf(ctx, "compensation: identifier metadata not restored: %v", err)
		}
		for _, pair := range pairs {
			p.deadLetter(ctx, pair.event)
		}
		return nil
	}

	results, err := p.indexer.BulkUpsert(ctx, newRecords)
	if err != nil {
		logger.Errorf(ctx, "index bulk call failed for %d changed media: %v", len(newRecords), err)
		for _, pair := range pairs {
			p.compensateUpdate(ctx, pair)
		}
		return nil
	}

	var committed []model.MediaRecord
	for i, res := range results {
		pair := pairs[i]
		if res.Err != nil {
			logger.Errorf(ctx, "indexing failed for media %s v%d: %v", pair.new.ID, pair.new.Version, res.Err)
			p.compensateUpdate(ctx, pair)
			continue
		}
		patch, err := attributesPatch(pair.old.Wrapper.Attributes, pair.new.Wrapper.Attributes)
		if err != nil {
			// The patch is part of the published contract, so failing to
			// build it fails the item like a publish would.
			logger.Errorf(ctx, "could not build patch for media %s: %v", pair.new.ID, err)
			p.compensateUpdate(ctx, pair)
			continue
		}
		if err := p.publisher.PublishUpdated(ctx, pair.new, patch); err != nil {
			logger.Errorf(ctx, "update notification failed for media %s: %v", pair.new.ID, err)
			p.compensateUpdate(ctx, pair)
			continue
		}
		if pair.pidUpdated {
			if err := p.publisher.PublishIdentifierUpdate(ctx, pair.new); err != nil {
				logger.Errorf(ctx, "identifier-update notification failed for media %s: %v", pair.new.ID, err)
			}
		}
		p.emitUpdateAnnotation(ctx, pair.new, patch)
		committed = append(committed, pair.new)
	}
	return committed
}

// compensateUpdate walks one item back in reverse commit order: index
// back to the prior version, store row back, identifier metadata back,
// then dead-letter the event. Best-effort throughout.
func (p *Processor) compensateUpdate(ctx context.Context, pair changedPair) {
	if results, err := p.indexer.BulkUpsert(ctx, []model.MediaRecord{pair.old}); err != nil {
		logger.Errorf(ctx, "compensation: index not restored for %s v%d: %v", pair.old.ID, pair.old.Version, err)
	} else if len(results) == 1 && results[0].Err != nil {
		logger.Errorf(ctx, "compensation: index not restored for %s v%d: %v", pair.old.ID, pair.old.Version, results[0].Err)
	}
	if err := p.repo.UpsertBatch(ctx, []model.MediaRecord{pair.old}); err != nil {
		logger.Errorf(ctx, "compensation: store row not restored for %s v%d, manual cleanup needed: %v",
			pair.old.ID, pair.old.Version, err)
	}
	if pair.pidUpdated {
		if err := p.pid.RollbackUpdate(ctx, []model.MediaRecord{pair.old}); err != nil {
			logger.Errorf(ctx, "compensation: identifier metadata not restored for %s: %v", pair.old.ID, err)
		}
	}
	p.deadLetter(ctx, pair.event)
}
