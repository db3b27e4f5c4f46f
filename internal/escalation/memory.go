package escalation

import (
	"context"
	"sync"

	"resilience-alerting/internal/models"
)

// MemoryStore is an in-process Store used in tests and local development.
type MemoryStore struct {
	mu   sync.Mutex
	rows map[string]models.EscalationExecution
	ids  []string // insertion order
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{rows: map[string]models.EscalationExecution{}}
}

func (m *MemoryStore) Insert(_ context.Context, ex models.EscalationExecution) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rows[ex.ID] = ex
	m.ids = append(m.ids, ex.ID)
	return nil
}

func (m *MemoryStore) Get(_ context.Context, id string) (models.EscalationExecution, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ex, ok := m.rows[id]
	if !ok {
		return models.EscalationExecution{}, ErrNotFound
	}
	return ex, nil
}

func (m *MemoryStore) Update(_ context.Context, ex models.EscalationExecution) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.rows[ex.ID]; !ok {
		return ErrNotFound
	}
	m.rows[ex.ID] = ex
	return nil
}

func (m *MemoryStore) List(_ context.Context, orgID string) ([]models.EscalationExecution, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.EscalationExecution
	for _, id := range m.ids {
		ex := m.rows[id]
		if orgID == "" || ex.OrgID == orgID {
			out = append(out, ex)
		}
	}
	return out, nil
}
