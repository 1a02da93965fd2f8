package notifications

import (
	"context"

	"riftmarket-backend/internal/domain"

	"github.com/google/uuid"
)

// Service is the read and acknowledge side of match notifications. It never
// recomputes matches; callers reconcile first when they want fresh data.
type Service struct {
	Matches domain.MatchRepository
}

// UnreadCount is the bell badge value.
func (s *Service) UnreadCount(ctx context.Context, ownerID uuid.UUID) (int64, error) {
	return s.Matches.CountUnread(ctx, ownerID)
}

// ListMatches returns the owner's stored records, newest first, counterpart attached.
func (s *Service) ListMatches(ctx context.Context, ownerID uuid.UUID) ([]domain.MatchRecord, error) {
	records, err := s.Matches.ListWithCounterpart(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	if records == nil {
		records = []domain.MatchRecord{}
	}
	return records, nil
}

// MarkRead acknowledges one record and stamps updated_at, also when it was already read.
// Only the record's owner may do this.
func (s *Service) MarkRead(ctx context.Context, matchID, ownerID uuid.UUID) error {
	rec, err := s.Matches.GetByID(ctx, matchID)
	if err != nil {
		return err
	}
	if rec.OwnerID != ownerID {
		return domain.ErrUnauthorizedMutation
	}
	return s.Matches.MarkRead(ctx, matchID)
}

// MarkAllRead acknowledges every unread record of the owner and returns how many changed.
func (s *Service) MarkAllRead(ctx context.Context, ownerID uuid.UUID) (int64, error) {
	return s.Matches.MarkAllRead(ctx, ownerID)
}
