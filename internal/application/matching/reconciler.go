package matching

import (
	"context"

	"riftmarket-backend/internal/domain"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// recordUpdate is a stored record whose count changed.
type recordUpdate struct {
	MatchID       uuid.UUID
	CounterpartID uuid.UUID
	MatchCount    int
	IsNew         bool
	// Surfaced is true when the record goes from read to unread in this run.
	Surfaced bool
}

// reconcilePlan is the difference between fresh matches and stored records.
type reconcilePlan struct {
	Inserts []domain.MatchRecord
	Updates []recordUpdate
	Deletes []uuid.UUID
}

// diff compares fresh matches with the owner's stored records. Unchanged counts
// produce no work, and a record already unread is not surfaced a second time.
func diff(ownerID uuid.UUID, fresh []domain.Match, existing []domain.MatchRecord) reconcilePlan {
	stored := make(map[uuid.UUID]domain.MatchRecord, len(existing))
	for _, r := range existing {
		stored[r.CounterpartID] = r
	}

	var plan reconcilePlan
	seen := make(map[uuid.UUID]struct{}, len(fresh))
	for _, m := range fresh {
		seen[m.CounterpartID] = struct{}{}
		rec, ok := stored[m.CounterpartID]
		if !ok {
			plan.Inserts = append(plan.Inserts, domain.MatchRecord{
				OwnerID:       ownerID,
				CounterpartID: m.CounterpartID,
				MatchCount:    m.MatchCount,
				IsNew:         true,
			})
			continue
		}
		if rec.MatchCount == m.MatchCount {
			continue
		}
		plan.Updates = append(plan.Updates, recordUpdate{
			MatchID:       rec.MatchID,
			CounterpartID: rec.CounterpartID,
			MatchCount:    m.MatchCount,
			IsNew:         true,
			Surfaced:      !rec.IsNew,
		})
	}

	for _, r := range existing {
		if _, ok := seen[r.CounterpartID]; !ok {
			plan.Deletes = append(plan.Deletes, r.MatchID)
		}
	}
	return plan
}

// Reconcile recomputes the owner's matches and brings the stored records in line.
// It returns how many records became unread in this run. Individual write failures
// are logged and skipped so one bad row does not block the rest; the next run
// retries whatever was missed.
func (s *Service) Reconcile(ctx context.Context, ownerID uuid.UUID) int {
	logger := log.With().Str("owner_id", ownerID.String()).Logger()

	fresh, err := s.computeMatches(ctx, ownerID)
	if err != nil {
		// Diffing against an empty list here would delete every record.
		logger.Error().Err(err).Msg("reconcile: holdings unavailable, keeping stored matches")
		return 0
	}
	existing, err := s.Matches.GetMatchRecords(ctx, ownerID)
	if err != nil {
		logger.Error().Err(err).Msg("reconcile: stored matches unavailable")
		return 0
	}

	plan := diff(ownerID, fresh, existing)
	newCount := s.applyInserts(ctx, logger, plan.Inserts)
	newCount += s.applyUpdates(ctx, logger, plan.Updates)
	deleted := s.applyDeletes(ctx, logger, plan.Deletes)

	if err := s.Profiles.TouchLastMatchCheck(ctx, ownerID, s.now()); err != nil {
		logger.Warn().Err(err).Msg("reconcile: failed to record last match check")
	}

	if len(plan.Inserts)+len(plan.Updates)+len(plan.Deletes) > 0 {
		logger.Info().
			Int("inserted", len(plan.Inserts)).
			Int("updated", len(plan.Updates)).
			Int("deleted", deleted).
			Int("new", newCount).
			Msg("reconcile: matches updated")
	}
	return newCount
}

func (s *Service) applyInserts(ctx context.Context, logger zerolog.Logger, records []domain.MatchRecord) int {
	if len(records) == 0 {
		return 0
	}
	written, err := s.Matches.InsertMatchRecords(ctx, records)
	if err == nil {
		return int(written)
	}
	logger.Warn().Err(err).Int("records", len(records)).Msg("reconcile: batch insert failed, retrying one by one")

	n := 0
	for _, rec := range records {
		written, err := s.Matches.InsertMatchRecords(ctx, []domain.MatchRecord{rec})
		if err != nil {
			logger.Error().Err(err).Str("counterpart_id", rec.CounterpartID.String()).Msg("reconcile: insert failed, skipping")
			continue
		}
		n += int(written)
	}
	return n
}

func (s *Service) applyUpdates(ctx context.Context, logger zerolog.Logger, updates []recordUpdate) int {
	n := 0
	for _, u := range updates {
		if err := s.Matches.UpdateMatchRecord(ctx, u.MatchID, u.MatchCount, u.IsNew); err != nil {
			logger.Error().Err(err).Str("counterpart_id", u.CounterpartID.String()).Msg("reconcile: update failed, skipping")
			continue
		}
		if u.Surfaced {
			n++
		}
	}
	return n
}

func (s *Service) applyDeletes(ctx context.Context, logger zerolog.Logger, ids []uuid.UUID) int {
	if len(ids) == 0 {
		return 0
	}
	err := s.Matches.DeleteMatchRecords(ctx, ids)
	if err == nil {
		return len(ids)
	}
	logger.Warn().Err(err).Int("records", len(ids)).Msg("reconcile: batch delete failed, retrying one by one")

	n := 0
	for _, id := range ids {
		if err := s.Matches.DeleteMatchRecords(ctx, []uuid.UUID{id}); err != nil {
			logger.Error().Err(err).Str("match_id", id.String()).Msg("reconcile: delete failed, skipping")
			continue
		}
		n++
	}
	return n
}
