package memory

import (
	"sync"

	"github.com/google/uuid"

	"github.com/havenlabs/haven-agent/internal/domain"
)

// EscalationStore is a simple in-memory implementation of
// domain.EscalationStore. It is NOT persistent and is only suitable for
// development / local mode.
type EscalationStore struct {
	mu       sync.RWMutex
	records  map[domain.EscalationID]*domain.EscalationRecord
	byUserID map[domain.UserID][]domain.EscalationID
}

// NewEscalationStore creates a new in-memory EscalationStore.
func NewEscalationStore() *EscalationStore {
	return &EscalationStore{
		records:  make(map[domain.EscalationID]*domain.EscalationRecord),
		byUserID: make(map[domain.UserID][]domain.EscalationID),
	}
}

// AppendEscalation saves a new escalation record.
func (s *EscalationStore) AppendEscalation(rec *domain.EscalationRecord) error {
	if rec == nil {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if rec.ID == "" {
		rec.ID = domain.EscalationID(uuid.NewString())
	}

	s.records[rec.ID] = rec
	s.byUserID[rec.UserID] = append(s.byUserID[rec.UserID], rec.ID)

	return nil
}

// ListEscalationsByUser returns the last `limit` records for a user.
// If limit <= 0, returns all.
func (s *EscalationStore) ListEscalationsByUser(
	userID domain.UserID,
	limit int,
) ([]*domain.EscalationRecord, error) {

	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := s.byUserID[userID]
	if len(ids) == 0 {
		return []*domain.EscalationRecord{}, nil
	}

	if limit <= 0 || limit > len(ids) {
		limit = len(ids)
	}

	start := len(ids) - limit
	selected := ids[start:]

	out := make([]*domain.EscalationRecord, 0, len(selected))
	for _, id := range selected {
		if r, ok := s.records[id]; ok {
			out = append(out, r)
		}
	}

	return out, nil
}
