package mock

import (
	"context"

	"github.com/fhuszti/digimedia-ms-go/internal/model"
	"github.com/fhuszti/digimedia-ms-go/internal/port"
)

// MockIndexer implements the search-index gateway for tests.
type MockIndexer struct {
	// UpsertErr fails the whole bulk call; ItemErrs fails single items by id.
	UpsertErr error
	DeleteErr error
	ItemErrs  map[string]error

	Upserted [][]model.MediaRecord
	Deleted  [][]string
}

func (m *MockIndexer) BulkUpsert(ctx context.Context, records []model.MediaRecord) ([]port.ItemResult, error) {
	m.Upserted = append(m.Upserted, records)
	if m.UpsertErr != nil {
		return nil, m.UpsertErr
	}
	results := make([]port.ItemResult, len(records))
	for i, rec := range records {
		results[i] = port.ItemResult{ID: rec.ID, Err: m.ItemErrs[rec.ID]}
	}
	return results, nil
}

func (m *MockIndexer) BulkDelete(ctx context.Context, ids []string) ([]port.ItemResult, error) {
	m.Deleted = append(m.Deleted, ids)
	if m.DeleteErr != nil {
		return nil, m.DeleteErr
	}
	results := make([]port.ItemResult, len(ids))
	for i, id := range ids {
		results[i] = port.ItemResult{ID: id, Err: m.ItemErrs[id]}
	}
	return results, nil
}
