package mock

import (
	"context"
	"fmt"

	"github.com/fhuszti/digimedia-ms-go/internal/model"
)

// MockPidClient implements the handle-registry gateway for tests. When
// MintedIDs is nil, Mint assigns sequential handles ("H1", "H2", ...).
type MockPidClient struct {
	MintedIDs map[model.IdentityKey]string

	MintErr           error
	UpdateErr         error
	RollbackCreateErr error
	RollbackUpdateErr error
	ActivateErr       error

	MintCalls       [][]model.MediaEvent
	Updated         [][]model.MediaRecord
	RolledBackIDs   [][]string
	RolledBack      [][]model.MediaRecord
	Activated       [][]string
	nextMintCounter int
}

func (m *MockPidClient) Mint(ctx context.Context, events []model.MediaEvent) (map[model.IdentityKey]string, error) {
	m.MintCalls = append(m.MintCalls, events)
	if m.MintErr != nil {
		return nil, m.MintErr
	}
	ids := make(map[model.IdentityKey]string, len(events))
	for _, ev := range events {
		if m.MintedIDs != nil {
			ids[ev.Key()] = m.MintedIDs[ev.Key()]
			continue
		}
		m.nextMintCounter++
		ids[ev.Key()] = fmt.Sprintf("H%d", m.nextMintCounter)
	}
	return ids, nil
}

func (m *MockPidClient) UpdateBatch(ctx context.Context, records []model.MediaRecord) error {
	m.Updated = append(m.Updated, records)
	return m.UpdateErr
}

func (m *MockPidClient) RollbackCreate(ctx context.Context, ids []string) error {
	m.RolledBackIDs = append(m.RolledBackIDs, ids)
	return m.RollbackCreateErr
}

func (m *MockPidClient) RollbackUpdate(ctx context.Context, records []model.MediaRecord) error {
	m.RolledBack = append(m.RolledBack, records)
	return m.RollbackUpdateErr
}

func (m *MockPidClient) Activate(ctx context.Context, ids []string) error {
	m.Activated = append(m.Activated, ids)
	return m.ActivateErr
}
