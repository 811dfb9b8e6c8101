package port

import (
	"context"

	"github.com/fhuszti/digimedia-ms-go/internal/model"
)

// PidClient wraps the external handle-issuing registry. All calls are
// pure gateways: no local state is mutated, so retrying with the same
// payload is always safe.
type PidClient interface {
	// Mint requests one handle per event and maps them back to their
	// source events by identity key.
	Mint(ctx context.Context, events []model.MediaEvent) (map[model.IdentityKey]string, error)
	// UpdateBatch pushes changed identifier metadata for existing handles.
	UpdateBatch(ctx context.Context, records []model.MediaRecord) error
	// RollbackCreate deletes just-minted handles. Best-effort.
	RollbackCreate(ctx context.Context, ids []string) error
	// RollbackUpdate restores the identifier metadata of the given
	// (previous-version) records. Best-effort.
	RollbackUpdate(ctx context.Context, records []model.MediaRecord) error
	// Activate marks newly minted handles resolvable. Empty input is a no-op.
	Activate(ctx context.Context, ids []string) error
}
