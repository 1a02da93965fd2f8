package repository

import (
	"context"
	"testing"
	"time"

	"riftmarket-backend/internal/domain"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func setupRepoTest(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, db.AutoMigrate(
		&domain.Profile{}, &domain.Card{}, &domain.CardHolding{}, &domain.MatchRecord{},
	))
	return db
}

func newProfile(t *testing.T, db *gorm.DB, name string) uuid.UUID {
	p := domain.Profile{DisplayName: name}
	require.NoError(t, db.Create(&p).Error)
	return p.ProfileID
}

func insertRecords(t *testing.T, repo *MatchRepository, records []domain.MatchRecord) {
	_, err := repo.InsertMatchRecords(context.Background(), records)
	require.NoError(t, err)
}

func addHolding(t *testing.T, db *gorm.DB, profileID uuid.UUID, cardID string, role domain.HoldingRole, qty int) {
	require.NoError(t, db.Create(&domain.CardHolding{ProfileID: profileID, CardID: cardID, Role: role, Quantity: qty}).Error)
}

func TestGetHoldings_SplitsRolesNormalizesQuantitySkipsUnknownRole(t *testing.T) {
	db := setupRepoTest(t)
	repo := &HoldingsRepository{DB: db}
	p := newProfile(t, db, "p")
	addHolding(t, db, p, "OGN-001", domain.RoleHave, 3)
	addHolding(t, db, p, "OGN-002", domain.RoleWant, 0)
	addHolding(t, db, p, "OGN-001", domain.RoleWant, 2)
	addHolding(t, db, p, "OGN-003", domain.HoldingRole("trade"), 4)

	h, err := repo.GetHoldings(context.Background(), p)
	require.NoError(t, err)
	assert.Equal(t, domain.Quantities{"OGN-001": 3}, h.Have)
	assert.Equal(t, domain.Quantities{"OGN-002": 1, "OGN-001": 2}, h.Want)
}

func TestGetHoldings_UnknownProfileIsEmpty(t *testing.T) {
	db := setupRepoTest(t)
	h, err := (&HoldingsRepository{DB: db}).GetHoldings(context.Background(), uuid.New())
	require.NoError(t, err)
	assert.True(t, h.Empty())
}

func TestListHoldingsForCards_OnlyTouchingProfiles(t *testing.T) {
	db := setupRepoTest(t)
	repo := &HoldingsRepository{DB: db}
	owner := newProfile(t, db, "owner")
	a := newProfile(t, db, "a")
	b := newProfile(t, db, "b")
	addHolding(t, db, owner, "OGN-001", domain.RoleWant, 1)
	addHolding(t, db, a, "OGN-001", domain.RoleHave, 2)
	addHolding(t, db, a, "OGN-777", domain.RoleHave, 2)
	addHolding(t, db, b, "OGN-500", domain.RoleWant, 1)

	got, err := repo.ListHoldingsForCards(context.Background(), owner, []string{"OGN-001"})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, a, got[0].ProfileID)
	assert.Equal(t, domain.Quantities{"OGN-001": 2}, got[0].Have)

	got, err = repo.ListHoldingsForCards(context.Background(), owner, nil)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestListAllProfilesWithHoldings_ExcludesOwnerAndHonorsLimit(t *testing.T) {
	db := setupRepoTest(t)
	repo := &HoldingsRepository{DB: db}
	owner := newProfile(t, db, "owner")
	addHolding(t, db, owner, "OGN-001", domain.RoleWant, 1)
	for i := 0; i < 3; i++ {
		p := newProfile(t, db, "other")
		addHolding(t, db, p, "OGN-001", domain.RoleHave, 1)
		addHolding(t, db, p, "OGN-002", domain.RoleWant, 1)
	}

	all, err := repo.ListAllProfilesWithHoldings(context.Background(), owner, 0)
	require.NoError(t, err)
	require.Len(t, all, 3)
	for _, ph := range all {
		assert.NotEqual(t, owner, ph.ProfileID)
		assert.Len(t, ph.Have, 1)
		assert.Len(t, ph.Want, 1)
	}

	limited, err := repo.ListAllProfilesWithHoldings(context.Background(), owner, 2)
	require.NoError(t, err)
	assert.Len(t, limited, 2)
}

func TestInsertMatchRecords_UpsertKeepsOneRow(t *testing.T) {
	db := setupRepoTest(t)
	repo := &MatchRepository{DB: db}
	ctx := context.Background()
	owner := newProfile(t, db, "owner")
	other := newProfile(t, db, "other")

	insertRecords(t, repo, []domain.MatchRecord{{OwnerID: owner, CounterpartID: other, MatchCount: 1, IsNew: true}})
	insertRecords(t, repo, []domain.MatchRecord{{OwnerID: owner, CounterpartID: other, MatchCount: 4, IsNew: true}})

	records, err := repo.GetMatchRecords(ctx, owner)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, 4, records[0].MatchCount)
}

func TestInsertMatchRecords_ConflictRewritesOnlyChangedCounts(t *testing.T) {
	db := setupRepoTest(t)
	repo := &MatchRepository{DB: db}
	ctx := context.Background()
	owner := newProfile(t, db, "owner")
	other := newProfile(t, db, "other")

	written, err := repo.InsertMatchRecords(ctx, []domain.MatchRecord{{OwnerID: owner, CounterpartID: other, MatchCount: 2, IsNew: true}})
	require.NoError(t, err)
	assert.Equal(t, int64(1), written)
	records, err := repo.GetMatchRecords(ctx, owner)
	require.NoError(t, err)
	require.NoError(t, repo.MarkRead(ctx, records[0].MatchID))

	written, err = repo.InsertMatchRecords(ctx, []domain.MatchRecord{{OwnerID: owner, CounterpartID: other, MatchCount: 2, IsNew: true}})
	require.NoError(t, err)
	assert.Equal(t, int64(0), written)
	records, err = repo.GetMatchRecords(ctx, owner)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.False(t, records[0].IsNew)

	written, err = repo.InsertMatchRecords(ctx, []domain.MatchRecord{{OwnerID: owner, CounterpartID: other, MatchCount: 3, IsNew: true}})
	require.NoError(t, err)
	assert.Equal(t, int64(1), written)
	records, err = repo.GetMatchRecords(ctx, owner)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.True(t, records[0].IsNew)
	assert.Equal(t, 3, records[0].MatchCount)
}

func TestMatchRepository_ReadFlags(t *testing.T) {
	db := setupRepoTest(t)
	repo := &MatchRepository{DB: db}
	ctx := context.Background()
	owner := newProfile(t, db, "owner")
	a := newProfile(t, db, "a")
	b := newProfile(t, db, "b")
	insertRecords(t, repo, []domain.MatchRecord{
		{OwnerID: owner, CounterpartID: a, MatchCount: 1, IsNew: true},
		{OwnerID: owner, CounterpartID: b, MatchCount: 2, IsNew: false},
	})

	n, err := repo.CountUnread(ctx, owner)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	list, err := repo.ListWithCounterpart(ctx, owner)
	require.NoError(t, err)
	require.Len(t, list, 2)
	// same created_at batch: higher count first
	assert.Equal(t, b, list[0].CounterpartID)
	require.NotNil(t, list[0].Counterpart)
	assert.Equal(t, "b", list[0].Counterpart.DisplayName)

	changed, err := repo.MarkAllRead(ctx, owner)
	require.NoError(t, err)
	assert.Equal(t, int64(1), changed)
	n, err = repo.CountUnread(ctx, owner)
	require.NoError(t, err)
	assert.Equal(t, int64(0), n)

	assert.ErrorIs(t, repo.MarkRead(ctx, uuid.New()), domain.ErrMatchNotFound)
	assert.ErrorIs(t, repo.UpdateMatchRecord(ctx, uuid.New(), 1, true), domain.ErrMatchNotFound)
	_, err = repo.GetByID(ctx, uuid.New())
	assert.ErrorIs(t, err, domain.ErrMatchNotFound)
}

func TestUpdateAndDeleteMatchRecords(t *testing.T) {
	db := setupRepoTest(t)
	repo := &MatchRepository{DB: db}
	ctx := context.Background()
	owner := newProfile(t, db, "owner")
	a := newProfile(t, db, "a")
	insertRecords(t, repo, []domain.MatchRecord{{OwnerID: owner, CounterpartID: a, MatchCount: 1, IsNew: false}})
	records, err := repo.GetMatchRecords(ctx, owner)
	require.NoError(t, err)
	id := records[0].MatchID

	require.NoError(t, repo.UpdateMatchRecord(ctx, id, 3, true))
	rec, err := repo.GetByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, 3, rec.MatchCount)
	assert.True(t, rec.IsNew)

	require.NoError(t, repo.DeleteMatchRecords(ctx, []uuid.UUID{id}))
	records, err = repo.GetMatchRecords(ctx, owner)
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestProfileDelete_Cascades(t *testing.T) {
	db := setupRepoTest(t)
	profiles := &ProfileRepository{DB: db}
	matches := &MatchRepository{DB: db}
	ctx := context.Background()
	gone := newProfile(t, db, "gone")
	stays := newProfile(t, db, "stays")
	third := newProfile(t, db, "third")
	addHolding(t, db, gone, "OGN-001", domain.RoleHave, 1)
	insertRecords(t, matches, []domain.MatchRecord{
		{OwnerID: gone, CounterpartID: stays, MatchCount: 1, IsNew: true},
		{OwnerID: stays, CounterpartID: gone, MatchCount: 1, IsNew: true},
		{OwnerID: stays, CounterpartID: third, MatchCount: 1, IsNew: true},
	})

	require.NoError(t, profiles.Delete(ctx, gone))

	var holdings, records int64
	require.NoError(t, db.Model(&domain.CardHolding{}).Where("profile_id = ?", gone).Count(&holdings).Error)
	require.NoError(t, db.Model(&domain.MatchRecord{}).Count(&records).Error)
	assert.Equal(t, int64(0), holdings)
	assert.Equal(t, int64(1), records)

	_, err := profiles.GetByID(ctx, gone)
	assert.ErrorIs(t, err, domain.ErrProfileNotFound)
	assert.ErrorIs(t, profiles.Delete(ctx, gone), domain.ErrProfileNotFound)
}

func TestListStale_NeverCheckedFirst(t *testing.T) {
	db := setupRepoTest(t)
	repo := &ProfileRepository{DB: db}
	ctx := context.Background()
	now := time.Date(2026, 1, 2, 3, 0, 0, 0, time.UTC)
	never := newProfile(t, db, "never")
	old := newProfile(t, db, "old")
	recent := newProfile(t, db, "recent")
	require.NoError(t, repo.TouchLastMatchCheck(ctx, old, now.Add(-time.Hour)))
	require.NoError(t, repo.TouchLastMatchCheck(ctx, recent, now.Add(-time.Minute)))

	stale, err := repo.ListStale(ctx, now.Add(-10*time.Minute), 10)
	require.NoError(t, err)
	require.Len(t, stale, 2)
	assert.Equal(t, never, stale[0].ProfileID)
	assert.Equal(t, old, stale[1].ProfileID)

	assert.ErrorIs(t, repo.TouchLastMatchCheck(ctx, uuid.New(), now), domain.ErrProfileNotFound)
}
