package escalation

import (
	"context"

	"github.com/havenlabs/haven-agent/internal/domain"
)

// Service holds the read side of escalation records
type Service struct {
	store domain.EscalationStore
}

// NewService creates an escalation service from an EscalationStore
func NewService(store domain.EscalationStore) *Service {
	return &Service{
		store: store,
	}
}

// ListUserEscalations returns the last `limit` escalation records for a user.
// If limit <= 0, a reasonable default value is used.
func (s *Service) ListUserEscalations(
	ctx context.Context,
	userID domain.UserID,
	limit int,
) ([]*domain.EscalationRecord, error) {

	if s.store == nil {
		// Escalation recording can be disabled; an empty list is the
		// honest answer, not an error.
		return []*domain.EscalationRecord{}, nil
	}

	if limit <= 0 {
		limit = 20
	}

	return s.store.ListEscalationsByUser(userID, limit)
}
