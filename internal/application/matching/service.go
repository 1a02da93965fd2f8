package matching

import (
	"context"
	"errors"
	"time"

	"riftmarket-backend/internal/domain"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

const (
	// StrategyIndex loads only holdings on the owner's cards (card_id index).
	StrategyIndex = "index"
	// StrategyScan loads up to PopulationLimit whole profiles.
	StrategyScan = "scan"

	DefaultPopulationLimit = 1000
)

// Service computes matches for an owner and keeps the owner's match records in sync.
// Every operation takes the owner id explicitly.
type Service struct {
	Holdings        domain.HoldingsRepository
	Matches         domain.MatchRepository
	Profiles        domain.ProfileRepository
	Cards           domain.CardCatalog // optional; used for overlap display only
	Strategy        string
	PopulationLimit int
	Now             func() time.Time
}

// ComputeMatches returns the owner's current matches. If holdings cannot be read the
// failure is logged and the owner simply sees no matches.
func (s *Service) ComputeMatches(ctx context.Context, ownerID uuid.UUID) []domain.Match {
	matches, err := s.computeMatches(ctx, ownerID)
	if err != nil {
		log.Error().Err(err).Str("owner_id", ownerID.String()).Msg("matching: holdings fetch failed")
		return []domain.Match{}
	}
	return matches
}

func (s *Service) computeMatches(ctx context.Context, ownerID uuid.UUID) ([]domain.Match, error) {
	owner, err := s.Holdings.GetHoldings(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	if owner.Empty() {
		return []domain.Match{}, nil
	}
	population, err := s.population(ctx, ownerID, owner)
	if err != nil {
		return nil, err
	}
	return Calculate(ownerID, owner, population), nil
}

func (s *Service) population(ctx context.Context, ownerID uuid.UUID, owner domain.Holdings) ([]domain.ProfileHoldings, error) {
	if s.Strategy == StrategyScan {
		limit := s.PopulationLimit
		if limit <= 0 {
			limit = DefaultPopulationLimit
		}
		return s.Holdings.ListAllProfilesWithHoldings(ctx, ownerID, limit)
	}
	return s.Holdings.ListHoldingsForCards(ctx, ownerID, owner.CardIDs())
}

// ComputeOverlap is the profile-view lookup: the owner's overlap with one counterpart,
// with card payloads attached. Nothing is persisted.
func (s *Service) ComputeOverlap(ctx context.Context, ownerID, counterpartID uuid.UUID) (domain.Match, error) {
	empty := domain.Match{CounterpartID: counterpartID, MatchedCards: []domain.MatchedCardDetail{}}
	if s.Profiles != nil {
		if _, err := s.Profiles.GetByID(ctx, counterpartID); err != nil {
			return empty, err
		}
	}

	owner, err := s.Holdings.GetHoldings(ctx, ownerID)
	if err != nil {
		log.Error().Err(err).Str("owner_id", ownerID.String()).Msg("overlap: owner holdings fetch failed")
		return empty, nil
	}
	if owner.Empty() {
		return empty, nil
	}
	other, err := s.Holdings.GetHoldings(ctx, counterpartID)
	if err != nil {
		log.Error().Err(err).Str("counterpart_id", counterpartID.String()).Msg("overlap: counterpart holdings fetch failed")
		return empty, nil
	}

	matches := Calculate(ownerID, owner, []domain.ProfileHoldings{{ProfileID: counterpartID, Holdings: other}})
	if len(matches) == 0 {
		return empty, nil
	}
	m := matches[0]
	s.attachCards(ctx, m.MatchedCards)
	return m, nil
}

func (s *Service) attachCards(ctx context.Context, details []domain.MatchedCardDetail) {
	if s.Cards == nil || len(details) == 0 {
		return
	}
	ids := make([]string, len(details))
	for i, d := range details {
		ids[i] = d.CardID
	}
	cards, err := s.Cards.Lookup(ctx, ids)
	if err != nil {
		log.Warn().Err(err).Int("cards", len(ids)).Msg("overlap: card lookup failed, returning ids only")
		return
	}
	for i := range details {
		if card, ok := cards[details[i].CardID]; ok {
			details[i].Card = &card
		}
	}
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// IsNotFound reports whether err means the requested profile does not exist.
func IsNotFound(err error) bool {
	return errors.Is(err, domain.ErrProfileNotFound)
}
