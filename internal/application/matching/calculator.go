package matching

import (
	"sort"

	"riftmarket-backend/internal/domain"

	"github.com/google/uuid"
)

// Calculate scores the owner's snapshot against every counterpart snapshot.
//
// Per counterpart, a card counts at most once: cards the owner wants and the
// counterpart has are taken first, then cards the owner has and the counterpart
// wants. Each contributes the smaller of the two quantities. Counterparts scoring
// zero are dropped. Results are ordered by score, highest first, then by
// counterpart id so equal scores come back in a stable order.
func Calculate(ownerID uuid.UUID, owner domain.Holdings, population []domain.ProfileHoldings) []domain.Match {
	matches := make([]domain.Match, 0)
	if owner.Empty() {
		return matches
	}
	wantIDs := owner.Want.SortedIDs()
	haveIDs := owner.Have.SortedIDs()

	for _, c := range population {
		if c.ProfileID == ownerID {
			continue
		}
		if m, ok := score(owner, wantIDs, haveIDs, c); ok {
			matches = append(matches, m)
		}
	}

	sort.SliceStable(matches, func(i, j int) bool {
		if matches[i].MatchCount != matches[j].MatchCount {
			return matches[i].MatchCount > matches[j].MatchCount
		}
		return matches[i].CounterpartID.String() < matches[j].CounterpartID.String()
	})
	return matches
}

func score(owner domain.Holdings, wantIDs, haveIDs []string, c domain.ProfileHoldings) (domain.Match, bool) {
	matched := make(map[string]struct{})
	m := domain.Match{CounterpartID: c.ProfileID, MatchedCards: []domain.MatchedCardDetail{}}

	for _, id := range wantIDs {
		theirHave, ok := c.Have[id]
		if !ok {
			continue
		}
		if _, done := matched[id]; done {
			continue
		}
		ourWant := owner.Want[id]
		m.MatchCount += min(ourWant, theirHave)
		m.MatchedCards = append(m.MatchedCards, domain.MatchedCardDetail{
			CardID:       id,
			HaveQuantity: theirHave,
			WantQuantity: ourWant,
		})
		matched[id] = struct{}{}
	}

	for _, id := range haveIDs {
		theirWant, ok := c.Want[id]
		if !ok {
			continue
		}
		if _, done := matched[id]; done {
			continue
		}
		ourHave := owner.Have[id]
		m.MatchCount += min(ourHave, theirWant)
		m.MatchedCards = append(m.MatchedCards, domain.MatchedCardDetail{
			CardID:       id,
			HaveQuantity: ourHave,
			WantQuantity: theirWant,
		})
		matched[id] = struct{}{}
	}

	return m, m.MatchCount > 0
}
