package app

import (
	"time"

	matchsvc "riftmarket-backend/internal/application/matching"
	notifsvc "riftmarket-backend/internal/application/notifications"
	profilesvc "riftmarket-backend/internal/application/profiles"
	"riftmarket-backend/internal/config"
	"riftmarket-backend/internal/infrastructure/cache"
	"riftmarket-backend/internal/infrastructure/repository"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Services is everything the HTTP layer and the batch command share.
type Services struct {
	Matching      *matchsvc.Service
	Notifications *notifsvc.Service
	Profiles      *profilesvc.Service
	Batch         *matchsvc.BatchReconciler
}

// NewServices wires repositories and services over db. rdb may be nil; the card
// catalog then reads straight from the database.
func NewServices(cfg *config.Config, db *gorm.DB, rdb *redis.Client) *Services {
	holdings := &repository.HoldingsRepository{DB: db}
	matches := &repository.MatchRepository{DB: db}
	profiles := &repository.ProfileRepository{DB: db}

	matching := &matchsvc.Service{
		Holdings:        holdings,
		Matches:         matches,
		Profiles:        profiles,
		Cards:           cache.NewCardCatalog(db, rdb, cfg.CardCacheTTL),
		Strategy:        cfg.MatchStrategy,
		PopulationLimit: cfg.MatchPopulationLimit,
		Now:             time.Now,
	}
	return &Services{
		Matching:      matching,
		Notifications: &notifsvc.Service{Matches: matches},
		Profiles:      &profilesvc.Service{Profiles: profiles, Holdings: holdings},
		Batch: &matchsvc.BatchReconciler{
			Service:     matching,
			StaleAfter:  cfg.ReconcileStaleAfter,
			BatchSize:   cfg.ReconcileBatchSize,
			Concurrency: cfg.ReconcileConcurrency,
		},
	}
}
