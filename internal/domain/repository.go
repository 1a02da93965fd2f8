package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// HoldingsRepository gives read-only access to have/want lists.
type HoldingsRepository interface {
	// GetHoldings loads one profile's snapshot.
	GetHoldings(ctx context.Context, profileID uuid.UUID) (Holdings, error)

	// ListAllProfilesWithHoldings loads up to limit other profiles with every holding they have.
	ListAllProfilesWithHoldings(ctx context.Context, excludeProfileID uuid.UUID, limit int) ([]ProfileHoldings, error)

	// ListHoldingsForCards loads, for every other profile, only the holdings on the given cards.
	// Profiles with no such holding are absent from the result.
	ListHoldingsForCards(ctx context.Context, excludeProfileID uuid.UUID, cardIDs []string) ([]ProfileHoldings, error)
}

// MatchRepository persists match records.
type MatchRepository interface {
	GetMatchRecords(ctx context.Context, ownerID uuid.UUID) ([]MatchRecord, error)

	// InsertMatchRecords upserts on (owner_id, counterpart_id) so concurrent runs cannot duplicate rows.
	// An existing row is only rewritten when its count differs; the result is the number of rows written.
	InsertMatchRecords(ctx context.Context, records []MatchRecord) (int64, error)

	UpdateMatchRecord(ctx context.Context, matchID uuid.UUID, matchCount int, isNew bool) error
	DeleteMatchRecords(ctx context.Context, matchIDs []uuid.UUID) error

	GetByID(ctx context.Context, matchID uuid.UUID) (*MatchRecord, error)
	CountUnread(ctx context.Context, ownerID uuid.UUID) (int64, error)

	// ListWithCounterpart returns the owner's records newest first with the counterpart profile loaded.
	ListWithCounterpart(ctx context.Context, ownerID uuid.UUID) ([]MatchRecord, error)

	MarkRead(ctx context.Context, matchID uuid.UUID) error
	MarkAllRead(ctx context.Context, ownerID uuid.UUID) (int64, error)
}

// ProfileRepository covers profile reads, self-service edits and the matching timestamp.
type ProfileRepository interface {
	GetByID(ctx context.Context, profileID uuid.UUID) (*Profile, error)
	TouchLastMatchCheck(ctx context.Context, profileID uuid.UUID, at time.Time) error
	Update(ctx context.Context, profileID uuid.UUID, fields map[string]interface{}) (*Profile, error)

	// ListStale returns profiles never checked or last checked before the cutoff, oldest first.
	ListStale(ctx context.Context, before time.Time, limit int) ([]Profile, error)

	// Delete removes the profile, its holdings and every match record naming it.
	Delete(ctx context.Context, profileID uuid.UUID) error
}

// CardCatalog resolves card ids to display payloads. Unknown ids are left out of the result.
type CardCatalog interface {
	Lookup(ctx context.Context, cardIDs []string) (map[string]Card, error)
}
