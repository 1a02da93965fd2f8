package router

import (
	"net/http"

	wiring "riftmarket-backend/internal/app"
	"riftmarket-backend/internal/config"
	"riftmarket-backend/internal/infrastructure/database"
	healthhandler "riftmarket-backend/internal/interfaces/handlers/health"
	matchhandler "riftmarket-backend/internal/interfaces/handlers/matches"
	notifhandler "riftmarket-backend/internal/interfaces/handlers/notifications"
	profilehandler "riftmarket-backend/internal/interfaces/handlers/profiles"
	"riftmarket-backend/internal/middleware"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

type gormDBPinger struct {
	db *gorm.DB
}

func (g *gormDBPinger) Ping() error {
	if g == nil || g.db == nil {
		return nil
	}
	sqlDB, err := g.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Ping()
}

// CreateApp connects Redis (sessions) and the database, then builds the app.
func CreateApp(cfg *config.Config) (*fiber.App, *gorm.DB, *redis.Client, error) {
	sessionHandler, rdb, err := middleware.Session(sessionConfig(cfg))
	if err != nil {
		return nil, nil, nil, err
	}

	var db *gorm.DB
	if cfg.DatabaseURL != "" {
		db, err = database.Open(cfg.DatabaseURL)
		if err != nil {
			return nil, nil, nil, err
		}
	}
	return NewApp(cfg, db, rdb, sessionHandler), db, rdb, nil
}

// NewApp registers middleware and routes over already-open connections.
// Matching routes are only mounted when db is set.
func NewApp(cfg *config.Config, db *gorm.DB, rdb *redis.Client, session fiber.Handler) *fiber.App {
	app := fiber.New(fiber.Config{
		DisableStartupMessage:   true,
		ErrorHandler:            middleware.ErrorHandler,
		EnableTrustedProxyCheck: true,
	})

	app.Use(middleware.CORS(middleware.CORSConfig{
		AllowedSuffix: cfg.FrontendURLEndsWith,
		DevPassword:   cfg.DevPassword,
	}))
	app.Use(session)
	app.Use(middleware.Tracing())
	app.Use(middleware.HealthMarker(rdb))
	app.Use(middleware.RouteLogger())

	hh := &healthhandler.Handlers{
		Rdb:            rdb,
		HealthAdminKey: cfg.HealthAdminKey,
	}
	if db != nil {
		hh.DB = &gormDBPinger{db: db}
	}
	app.Get("/", hh.Dashboard)
	app.Get("/reset", hh.Reset)
	app.Get("/health/json", hh.JSON)
	app.Get("/health/errors", hh.Errors)

	if db == nil {
		return app
	}
	svc := wiring.NewServices(cfg, db, rdb)

	mh := &matchhandler.Handlers{Matching: svc.Matching, Notifications: svc.Notifications}
	mg := app.Group("/api/v1/matches", middleware.RequireAuth())
	mg.Get("/", mh.List)
	mg.Post("/reconcile", mh.Reconcile)
	mg.Get("/overlap/:profile_id", mh.Overlap)

	nh := &notifhandler.Handlers{Service: svc.Notifications, Matching: svc.Matching}
	ng := app.Group("/api/v1/notifications", middleware.RequireAuth())
	ng.Get("/", nh.List)
	ng.Get("/unread-count", nh.UnreadCount)
	ng.Patch("/read-all", nh.MarkAllRead)
	ng.Patch("/:match_id/read", nh.MarkRead)

	ph := &profilehandler.Handlers{Service: svc.Profiles, Rdb: rdb, Config: sessionConfig(cfg)}
	pg := app.Group("/api/v1/profiles", middleware.RequireAuth())
	pg.Get("/me", ph.ViewProfile)
	pg.Patch("/me", ph.UpdateProfile)
	pg.Delete("/me", ph.DeleteProfile)

	return app
}

func sessionConfig(cfg *config.Config) middleware.SessionConfig {
	return middleware.SessionConfig{
		Secret:            cfg.SessionSecret,
		RedisURL:          cfg.RedisURL,
		AllowCrossSiteDev: cfg.AllowCrossSiteDev,
		IsProduction:      cfg.Env == "production",
	}
}

func Handler(app *fiber.App) http.Handler {
	return adaptor.FiberApp(app)
}
