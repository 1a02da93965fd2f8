package config

import (
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds application configuration (env + Viper).
type Config struct {
	Env                 string
	Port                string
	LogLevel            string
	SessionSecret       string
	DatabaseURL         string
	RedisURL            string
	FrontendURLEndsWith string
	DevPassword         string
	AllowCrossSiteDev   bool
	HealthAdminKey      string

	MatchStrategy        string // "index" (card_id lookup) or "scan"
	MatchPopulationLimit int    // only used by the scan strategy
	CardCacheTTL         time.Duration

	ReconcileSchedule    string // cron spec for cmd/reconciler
	ReconcileStaleAfter  time.Duration
	ReconcileBatchSize   int
	ReconcileConcurrency int
}

// Load loads config from env and optional .env file.
func Load() (*Config, error) {
	viper.SetConfigFile(".env")
	_ = viper.ReadInConfig()

	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	viper.SetDefault("PORT", "8080")
	viper.SetDefault("LOG_LEVEL", "info")
	viper.SetDefault("MATCH_STRATEGY", "index")
	viper.SetDefault("MATCH_POPULATION_LIMIT", 1000)
	viper.SetDefault("CARD_CACHE_TTL", "24h")
	viper.SetDefault("RECONCILE_SCHEDULE", "@every 15m")
	viper.SetDefault("RECONCILE_STALE_AFTER", "15m")
	viper.SetDefault("RECONCILE_BATCH_SIZE", 200)
	viper.SetDefault("RECONCILE_CONCURRENCY", 4)

	env := viper.GetString("NODE_ENV")
	if env == "" {
		env = viper.GetString("APP_ENV")
	}
	if env == "" {
		env = "development"
	}

	dbURL := viper.GetString("DATABASE_URL_DEV")
	if env == "production" {
		dbURL = viper.GetString("DATABASE_URL_PROD")
	} else if env == "test" {
		dbURL = viper.GetString("DATABASE_URL_TEST")
	}
	if dbURL == "" {
		dbURL = os.Getenv("DATABASE_URL_DEV")
	}

	return &Config{
		Env:                  env,
		Port:                 viper.GetString("PORT"),
		LogLevel:             viper.GetString("LOG_LEVEL"),
		SessionSecret:        viper.GetString("SESSION_SECRET"),
		DatabaseURL:          dbURL,
		RedisURL:             viper.GetString("REDIS_URL"),
		FrontendURLEndsWith:  viper.GetString("FRONTEND_URL_ENDS_WITH"),
		DevPassword:          viper.GetString("DEV_PASSWORD"),
		AllowCrossSiteDev:    strings.EqualFold(viper.GetString("ALLOW_CROSS_SITE_DEV"), "true"),
		HealthAdminKey:       viper.GetString("HEALTH_ADMIN_KEY"),
		MatchStrategy:        matchStrategy(viper.GetString("MATCH_STRATEGY")),
		MatchPopulationLimit: viper.GetInt("MATCH_POPULATION_LIMIT"),
		CardCacheTTL:         viper.GetDuration("CARD_CACHE_TTL"),
		ReconcileSchedule:    viper.GetString("RECONCILE_SCHEDULE"),
		ReconcileStaleAfter:  viper.GetDuration("RECONCILE_STALE_AFTER"),
		ReconcileBatchSize:   viper.GetInt("RECONCILE_BATCH_SIZE"),
		ReconcileConcurrency: viper.GetInt("RECONCILE_CONCURRENCY"),
	}, nil
}

func matchStrategy(s string) string {
	if strings.EqualFold(strings.TrimSpace(s), "scan") {
		return "scan"
	}
	return "index"
}
