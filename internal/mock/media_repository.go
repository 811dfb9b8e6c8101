package mock

import (
	"context"

	"github.com/fhuszti/digimedia-ms-go/internal/model"
)

// MockMediaRepo implements store-gateway operations for tests.
type MockMediaRepo struct {
	Records      []model.MediaRecord
	GetErr       error
	UpsertErr    error
	TouchErr     error
	DeleteErr    error
	ExistsErr    error
	SpecimenOK   bool

	GetKeys      [][]model.IdentityKey
	Upserted     [][]model.MediaRecord
	TouchedIDs   [][]string
	DeletedIDs   [][]string
	ExistsCalled bool
}

func (m *MockMediaRepo) GetByIdentityKeys(ctx context.Context, keys []model.IdentityKey) ([]model.MediaRecord, error) {
	m.GetKeys = append(m.GetKeys, keys)
	if m.GetErr != nil {
		return nil, m.GetErr
	}
	var out []model.MediaRecord
	for _, rec := range m.Records {
		for _, k := range keys {
			if rec.Key() == k {
				out = append(out, rec)
				break
			}
		}
	}
	return out, nil
}

func (m *MockMediaRepo) UpsertBatch(ctx context.Context, records []model.MediaRecord) error {
	m.Upserted = append(m.Upserted, records)
	return m.UpsertErr
}

func (m *MockMediaRepo) UpdateLastChecked(ctx context.Context, ids []string) error {
	m.TouchedIDs = append(m.TouchedIDs, ids)
	return m.TouchErr
}

func (m *MockMediaRepo) DeleteByIDs(ctx context.Context, ids []string) error {
	m.DeletedIDs = append(m.DeletedIDs, ids)
	return m.DeleteErr
}

func (m *MockMediaRepo) SpecimenExists(ctx context.Context, specimenID string) (bool, error) {
	m.ExistsCalled = true
	if m.ExistsErr != nil {
		return false, m.ExistsErr
	}
	return m.SpecimenOK, nil
}
