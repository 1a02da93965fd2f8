package notifications

import (
	"context"
	"encoding/json"
	"io"
	"net/http/httptest"
	"testing"

	matchsvc "riftmarket-backend/internal/application/matching"
	notifsvc "riftmarket-backend/internal/application/notifications"
	"riftmarket-backend/internal/domain"
	"riftmarket-backend/internal/infrastructure/repository"

	"github.com/glebarez/sqlite"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func setupNotificationsTest(t *testing.T) (*Handlers, *gorm.DB) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, db.AutoMigrate(
		&domain.Profile{}, &domain.Card{}, &domain.CardHolding{}, &domain.MatchRecord{},
	))
	matches := &repository.MatchRepository{DB: db}
	return &Handlers{
		Service: &notifsvc.Service{Matches: matches},
		Matching: &matchsvc.Service{
			Holdings: &repository.HoldingsRepository{DB: db},
			Matches:  matches,
			Profiles: &repository.ProfileRepository{DB: db},
		},
	}, db
}

func newApp(h *Handlers, profileID uuid.UUID) *fiber.App {
	app := fiber.New()
	app.Use(func(c *fiber.Ctx) error {
		c.Locals("user", map[string]interface{}{"profile_id": profileID.String()})
		return c.Next()
	})
	app.Get("/notifications/unread-count", h.UnreadCount)
	app.Get("/notifications", h.List)
	app.Patch("/notifications/read-all", h.MarkAllRead)
	app.Patch("/notifications/:match_id/read", h.MarkRead)
	return app
}

func seedPair(t *testing.T, db *gorm.DB) (uuid.UUID, uuid.UUID) {
	p1 := domain.Profile{DisplayName: "p1"}
	p2 := domain.Profile{DisplayName: "p2"}
	require.NoError(t, db.Create(&p1).Error)
	require.NoError(t, db.Create(&p2).Error)
	require.NoError(t, db.Create(&domain.CardHolding{ProfileID: p1.ProfileID, CardID: "OGN-001", Role: domain.RoleWant, Quantity: 1}).Error)
	require.NoError(t, db.Create(&domain.CardHolding{ProfileID: p2.ProfileID, CardID: "OGN-001", Role: domain.RoleHave, Quantity: 1}).Error)
	return p1.ProfileID, p2.ProfileID
}

func body(t *testing.T, r io.Reader) map[string]interface{} {
	var out map[string]interface{}
	require.NoError(t, json.NewDecoder(r).Decode(&out))
	return out
}

func TestBellFlow(t *testing.T) {
	h, db := setupNotificationsTest(t)
	p1, p2 := seedPair(t, db)
	app := newApp(h, p1)

	// without refresh nothing has been reconciled yet
	resp, err := app.Test(httptest.NewRequest("GET", "/notifications", nil))
	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)
	assert.Empty(t, body(t, resp.Body)["data"].(map[string]interface{})["matches"])

	resp, err = app.Test(httptest.NewRequest("GET", "/notifications?refresh=true", nil))
	require.NoError(t, err)
	out := body(t, resp.Body)
	list := out["data"].(map[string]interface{})["matches"].([]interface{})
	require.Len(t, list, 1)
	rec := list[0].(map[string]interface{})
	assert.Equal(t, true, rec["is_new"])
	assert.Equal(t, "p2", rec["counterpart"].(map[string]interface{})["display_name"])
	assert.Equal(t, p2.String(), rec["counterpart_id"])
	assert.Equal(t, float64(1), out["metadata"].(map[string]interface{})["new_count"])

	resp, err = app.Test(httptest.NewRequest("GET", "/notifications/unread-count", nil))
	require.NoError(t, err)
	assert.Equal(t, float64(1), body(t, resp.Body)["data"].(map[string]interface{})["unread_count"])

	matchID := rec["match_id"].(string)
	resp, err = app.Test(httptest.NewRequest("PATCH", "/notifications/"+matchID+"/read", nil))
	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)

	resp, err = app.Test(httptest.NewRequest("GET", "/notifications/unread-count", nil))
	require.NoError(t, err)
	assert.Equal(t, float64(0), body(t, resp.Body)["data"].(map[string]interface{})["unread_count"])
}

func TestMarkRead_OtherOwnersMatchIsForbidden(t *testing.T) {
	h, db := setupNotificationsTest(t)
	p1, p2 := seedPair(t, db)
	require.Equal(t, 1, h.Matching.Reconcile(context.Background(), p1))
	var rec domain.MatchRecord
	require.NoError(t, db.Where("owner_id = ?", p1).First(&rec).Error)

	resp, err := newApp(h, p2).Test(httptest.NewRequest("PATCH", "/notifications/"+rec.MatchID.String()+"/read", nil))
	require.NoError(t, err)
	assert.Equal(t, 403, resp.StatusCode)
	out := body(t, resp.Body)
	assert.Equal(t, "Match does not belong to this profile", out["error"].(map[string]interface{})["message"])
}

func TestMarkRead_BadAndMissingIDs(t *testing.T) {
	h, db := setupNotificationsTest(t)
	p1, _ := seedPair(t, db)
	app := newApp(h, p1)

	resp, err := app.Test(httptest.NewRequest("PATCH", "/notifications/nope/read", nil))
	require.NoError(t, err)
	assert.Equal(t, 400, resp.StatusCode)

	resp, err = app.Test(httptest.NewRequest("PATCH", "/notifications/"+uuid.New().String()+"/read", nil))
	require.NoError(t, err)
	assert.Equal(t, 404, resp.StatusCode)
}

func TestMarkAllRead(t *testing.T) {
	h, db := setupNotificationsTest(t)
	p1, _ := seedPair(t, db)
	require.Equal(t, 1, h.Matching.Reconcile(context.Background(), p1))
	app := newApp(h, p1)

	resp, err := app.Test(httptest.NewRequest("PATCH", "/notifications/read-all", nil))
	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)
	assert.Equal(t, float64(1), body(t, resp.Body)["data"].(map[string]interface{})["updated"])

	resp, err = app.Test(httptest.NewRequest("GET", "/notifications", nil))
	require.NoError(t, err)
	out := body(t, resp.Body)
	list := out["data"].(map[string]interface{})["matches"].([]interface{})
	require.Len(t, list, 1)
	assert.Equal(t, false, list[0].(map[string]interface{})["is_new"])
	assert.Equal(t, float64(0), out["metadata"].(map[string]interface{})["unread_count"])
}
