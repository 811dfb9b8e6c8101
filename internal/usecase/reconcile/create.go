package reconcile

import (
	"context"

	"github.com/fhuszti/digimedia-ms-go/internal/logger"
	"github.com/fhuszti/digimedia-ms-go/internal/model"
)

// processNew commits a batch of first-seen media: mint handles for the
// ones without a pre-assigned identifier, build version-1 records, write
// the store in one bulk call, then index and publish per item.
func (p *Processor) processNew(ctx context.Context, events []model.MediaEvent) []model.MediaRecord {
	if len(events) == 0 {
		return nil
	}

	// Some producers mint upstream; only the rest goes to the registry.
	var toMint []model.MediaEvent
	for _, ev := range events {
		if ev.Wrapper.ID == "" {
			toMint = append(toMint, ev)
		}
	}
	minted, err := p.pid.Mint(ctx, toMint)
	mintFailed := err != nil
	if mintFailed {
		// Pre-assigned events don't depend on the registry; only the
		// unminted ones are lost.
		logger.Errorf(ctx, "minting failed, dead-lettering %d unminted events: %v", len(toMint), err)
		p.deadLetterAll(ctx, toMint)
	}

	now := p.now()
	records := make([]model.MediaRecord, 0, len(events))
	kept := make([]model.MediaEvent, 0, len(events))
	wasMinted := make(map[string]bool, len(minted))
	for _, ev := range events {
		id := ev.Wrapper.ID
		if id == "" {
			if mintFailed {
				continue
			}
			var ok bool
			id, ok = minted[ev.Key()]
			if !ok || id == "" {
				logger.Errorf(ctx, "registry returned no handle for specimen %q, media %q; dead-lettering",
					ev.Wrapper.SpecimenID, ev.Wrapper.Attributes.AccessURI)
				p.deadLetter(ctx, ev)
				continue
			}
			wasMinted[id] = true
		}
		records = append(records, model.MediaRecord{
			ID:      id,
			Version: 1,
			Created: now,
			Wrapper: ev.Wrapper.WithID(id),
		})
		kept = append(kept, ev)
	}
	if len(records) == 0 {
		return nil
	}

	if err := p.repo.UpsertBatch(ctx, records); err != nil {
		logger.Errorf(ctx, "store commit failed for %d new media: %v", len(records), err)
		p.rollbackMinted(ctx, records, wasMinted)
		p.deadLetterAll(ctx, kept)
		return nil
	}

	results, err := p.indexer.BulkUpsert(ctx, records)
	if err != nil {
		logger.Errorf(ctx, "index bulk call failed for %d new media: %v", len(records), err)
		for i := range records {
			p.compensateCreate(ctx, records[i], kept[i], wasMinted, false)
		}
		return nil
	}

	var committed []model.MediaRecord
	var activate []string
	for i, res := range results {
		if res.Err != nil {
			logger.Errorf(ctx, "indexing failed for new media %s: %v", records[i].ID, res.Err)
			p.compensateCreate(ctx, records[i], kept[i], wasMinted, false)
			continue
		}
		if err := p.publisher.PublishCreated(ctx, records[i]); err != nil {
			logger.Errorf(ctx, "create notification failed for media %s: %v", records[i].ID, err)
			p.compensateCreate(ctx, records[i], kept[i], wasMinted, true)
			continue
		}
		p.fanOutEnrichments(ctx, kept[i], records[i])
		if wasMinted[records[i].ID] {
			activate = append(activate, records[i].ID)
		}
		committed = append(committed, records[i])
	}

	if err := p.pid.Activate(ctx, activate); err != nil {
		logger.Errorf(ctx, "handle activation failed for %v, handles stay unresolvable until retried: %v", activate, err)
	}
	p.emitCreateAnnotations(ctx, committed)
	return committed
}

func (p *Processor) rollbackMinted(ctx context.Context, records []model.MediaRecord, wasMinted map[string]bool) {
	var ids []string
	for _, rec := range records {
		if wasMinted[rec.ID] {
			ids = append(ids, rec.ID)
		}
	}
	if len(ids) == 0 {
		return
	}
	if err := p.pid.RollbackCreate(ctx, ids); err != nil {
		logger.Errorf(ctx, "compensation: handles %v still registered: %v", ids, err)
	}
}

// compensateCreate unwinds a failed creation in reverse commit order:
// index document, store row, minted handle, then dead-letter the event.
// Each step is attempted even if the previous one failed.
func (p *Processor) compensateCreate(ctx context.Context, rec model.MediaRecord, ev model.MediaEvent, wasMinted map[string]bool, indexed bool) {
	if indexed {
		if results, err := p.indexer.BulkDelete(ctx, []string{rec.ID}); err != nil {
			logger.Errorf(ctx, "compensation: index document %s not removed: %v", rec.ID, err)
		} else if len(results) == 1 && results[0].Err != nil {
			logger.Errorf(ctx, "compensation: index document %s not removed: %v", rec.ID, results[0].Err)
		}
	}
	if err := p.repo.DeleteByIDs(ctx, []string{rec.ID}); err != nil {
		logger.Errorf(ctx, "compensation: store row %s not deleted, manual cleanup needed: %v", rec.ID, err)
	}
	if wasMinted[rec.ID] {
		if err := p.pid.RollbackCreate(ctx, []string{rec.ID}); err != nil {
			logger.Errorf(ctx, "compensation: handle %s still registered: %v", rec.ID, err)
		}
	}
	p.deadLetter(ctx, ev)
}
