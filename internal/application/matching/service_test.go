package matching

import (
	"context"
	"errors"
	"testing"
	"time"

	"riftmarket-backend/internal/domain"
	"riftmarket-backend/internal/infrastructure/repository"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func setupMatchingTest(t *testing.T) (*Service, *gorm.DB) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	// every pooled connection would otherwise get its own empty in-memory database
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, db.AutoMigrate(
		&domain.Profile{}, &domain.Card{}, &domain.CardHolding{}, &domain.MatchRecord{},
	))
	svc := &Service{
		Holdings: &repository.HoldingsRepository{DB: db},
		Matches:  &repository.MatchRepository{DB: db},
		Profiles: &repository.ProfileRepository{DB: db},
		Strategy: StrategyIndex,
	}
	return svc, db
}

func seedProfile(t *testing.T, db *gorm.DB, name string) uuid.UUID {
	p := domain.Profile{DisplayName: name, ContactInfo: name + "@example.com"}
	require.NoError(t, db.Create(&p).Error)
	return p.ProfileID
}

func seedHolding(t *testing.T, db *gorm.DB, profileID uuid.UUID, cardID string, role domain.HoldingRole, qty int) {
	require.NoError(t, db.Create(&domain.CardHolding{
		ProfileID: profileID, CardID: cardID, Role: role, Quantity: qty,
	}).Error)
}

func seedCard(t *testing.T, db *gorm.DB, cardID, name string) {
	require.NoError(t, db.Create(&domain.Card{CardID: cardID, Name: name, SetName: "Origins"}).Error)
}

// countingHoldings records how often the population is loaded.
type countingHoldings struct {
	domain.HoldingsRepository
	populationCalls int
	failGet         bool
}

func (c *countingHoldings) GetHoldings(ctx context.Context, id uuid.UUID) (domain.Holdings, error) {
	if c.failGet {
		return domain.Holdings{}, domain.ErrHoldingsFetch
	}
	return c.HoldingsRepository.GetHoldings(ctx, id)
}

func (c *countingHoldings) ListAllProfilesWithHoldings(ctx context.Context, exclude uuid.UUID, limit int) ([]domain.ProfileHoldings, error) {
	c.populationCalls++
	return c.HoldingsRepository.ListAllProfilesWithHoldings(ctx, exclude, limit)
}

func (c *countingHoldings) ListHoldingsForCards(ctx context.Context, exclude uuid.UUID, cardIDs []string) ([]domain.ProfileHoldings, error) {
	c.populationCalls++
	return c.HoldingsRepository.ListHoldingsForCards(ctx, exclude, cardIDs)
}

type stubCards struct {
	cards map[string]domain.Card
	err   error
}

func (s *stubCards) Lookup(ctx context.Context, ids []string) (map[string]domain.Card, error) {
	if s.err != nil {
		return nil, s.err
	}
	out := make(map[string]domain.Card)
	for _, id := range ids {
		if c, ok := s.cards[id]; ok {
			out[id] = c
		}
	}
	return out, nil
}

func TestComputeMatches_EmptyOwnerSkipsPopulation(t *testing.T) {
	svc, db := setupMatchingTest(t)
	p1 := seedProfile(t, db, "p1")
	p2 := seedProfile(t, db, "p2")
	seedHolding(t, db, p2, "OGN-001", domain.RoleHave, 3)

	counter := &countingHoldings{HoldingsRepository: svc.Holdings}
	svc.Holdings = counter

	for _, strategy := range []string{StrategyIndex, StrategyScan} {
		svc.Strategy = strategy
		got := svc.ComputeMatches(context.Background(), p1)
		assert.NotNil(t, got)
		assert.Empty(t, got)
	}
	assert.Equal(t, 0, counter.populationCalls)
}

func TestComputeMatches_HoldingsFetchFailureYieldsEmpty(t *testing.T) {
	svc, db := setupMatchingTest(t)
	p1 := seedProfile(t, db, "p1")
	svc.Holdings = &countingHoldings{HoldingsRepository: svc.Holdings, failGet: true}

	got := svc.ComputeMatches(context.Background(), p1)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestComputeMatches_IndexAndScanAgree(t *testing.T) {
	svc, db := setupMatchingTest(t)
	p1 := seedProfile(t, db, "p1")
	p2 := seedProfile(t, db, "p2")
	p3 := seedProfile(t, db, "p3")
	p4 := seedProfile(t, db, "p4")
	seedHolding(t, db, p1, "OGN-001", domain.RoleWant, 2)
	seedHolding(t, db, p1, "OGN-002", domain.RoleHave, 3)
	seedHolding(t, db, p2, "OGN-001", domain.RoleHave, 5)
	seedHolding(t, db, p2, "OGN-099", domain.RoleHave, 5)
	seedHolding(t, db, p3, "OGN-002", domain.RoleWant, 1)
	seedHolding(t, db, p3, "OGN-001", domain.RoleHave, 1)
	seedHolding(t, db, p4, "OGN-050", domain.RoleWant, 1)

	svc.Strategy = StrategyIndex
	indexed := svc.ComputeMatches(context.Background(), p1)
	svc.Strategy = StrategyScan
	scanned := svc.ComputeMatches(context.Background(), p1)

	require.Len(t, indexed, 2)
	assert.Equal(t, indexed, scanned)
	assert.Equal(t, 2, indexed[0].MatchCount)
	assert.Equal(t, 2, indexed[1].MatchCount)
	byID := map[uuid.UUID]domain.Match{}
	for _, m := range indexed {
		byID[m.CounterpartID] = m
	}
	assert.Len(t, byID[p2].MatchedCards, 1)
	assert.Len(t, byID[p3].MatchedCards, 2)
}

func TestComputeOverlap_AttachesCards(t *testing.T) {
	svc, db := setupMatchingTest(t)
	p1 := seedProfile(t, db, "p1")
	p2 := seedProfile(t, db, "p2")
	seedHolding(t, db, p1, "OGN-001", domain.RoleWant, 2)
	seedHolding(t, db, p2, "OGN-001", domain.RoleHave, 5)
	svc.Cards = &stubCards{cards: map[string]domain.Card{"OGN-001": {CardID: "OGN-001", Name: "Jinx"}}}

	got, err := svc.ComputeOverlap(context.Background(), p1, p2)
	require.NoError(t, err)
	assert.Equal(t, 2, got.MatchCount)
	require.Len(t, got.MatchedCards, 1)
	require.NotNil(t, got.MatchedCards[0].Card)
	assert.Equal(t, "Jinx", got.MatchedCards[0].Card.Name)

	var n int64
	require.NoError(t, db.Model(&domain.MatchRecord{}).Count(&n).Error)
	assert.Equal(t, int64(0), n)
}

func TestComputeOverlap_CardLookupFailureKeepsIDs(t *testing.T) {
	svc, db := setupMatchingTest(t)
	p1 := seedProfile(t, db, "p1")
	p2 := seedProfile(t, db, "p2")
	seedHolding(t, db, p1, "OGN-001", domain.RoleHave, 1)
	seedHolding(t, db, p2, "OGN-001", domain.RoleWant, 1)
	svc.Cards = &stubCards{err: errors.New("redis down")}

	got, err := svc.ComputeOverlap(context.Background(), p1, p2)
	require.NoError(t, err)
	require.Len(t, got.MatchedCards, 1)
	assert.Equal(t, "OGN-001", got.MatchedCards[0].CardID)
	assert.Nil(t, got.MatchedCards[0].Card)
}

func TestComputeOverlap_UnknownCounterpart(t *testing.T) {
	svc, db := setupMatchingTest(t)
	p1 := seedProfile(t, db, "p1")

	_, err := svc.ComputeOverlap(context.Background(), p1, uuid.New())
	assert.True(t, IsNotFound(err))
}

func TestComputeOverlap_NoOverlap(t *testing.T) {
	svc, db := setupMatchingTest(t)
	p1 := seedProfile(t, db, "p1")
	p2 := seedProfile(t, db, "p2")
	seedHolding(t, db, p1, "OGN-001", domain.RoleHave, 1)

	got, err := svc.ComputeOverlap(context.Background(), p1, p2)
	require.NoError(t, err)
	assert.Equal(t, p2, got.CounterpartID)
	assert.Equal(t, 0, got.MatchCount)
	assert.Empty(t, got.MatchedCards)
}

func fixedClock(at time.Time) func() time.Time {
	return func() time.Time { return at }
}
