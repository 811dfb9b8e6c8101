package port

import (
	"context"

	"github.com/fhuszti/digimedia-ms-go/internal/model"
)

// ItemResult reports the outcome of one item within a bulk index call.
type ItemResult struct {
	ID  string
	Err error
}

// Indexer is the search-index gateway. Every commit replaces the whole
// document for a handle; there is no partial patching. A non-nil error
// means the bulk call itself could not be executed, in which case the
// per-item results are nil.
type Indexer interface {
	BulkUpsert(ctx context.Context, records []model.MediaRecord) ([]ItemResult, error)
	BulkDelete(ctx context.Context, ids []string) ([]ItemResult, error)
}
