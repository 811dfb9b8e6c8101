package port

import (
	"context"

	"github.com/fhuszti/digimedia-ms-go/internal/model"
)

// MediaRepository defines persistence operations against the store of
// record. Bulk calls succeed or fail as a whole; per-item granularity
// starts at the index and bus stages.
type MediaRepository interface {
	// GetByIdentityKeys returns the current record for every key that has
	// one. Keys without a live record are simply absent from the result.
	GetByIdentityKeys(ctx context.Context, keys []model.IdentityKey) ([]model.MediaRecord, error)
	// UpsertBatch inserts or replaces the current version of each record.
	UpsertBatch(ctx context.Context, records []model.MediaRecord) error
	// UpdateLastChecked bumps the last-checked watermark for the given handles.
	UpdateLastChecked(ctx context.Context, ids []string) error
	// DeleteByIDs removes rows outright. Only used to roll back a failed creation.
	DeleteByIDs(ctx context.Context, ids []string) error
	// SpecimenExists reports whether the referenced specimen is known.
	SpecimenExists(ctx context.Context, specimenID string) (bool, error)
}
