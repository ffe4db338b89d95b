package config

import (
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	log "github.com/sirupsen/logrus"
)

var conf = mustLoad()

type Config struct {
	Configuration struct {
		// Rate limiting: quota per window per client key
		RateLimitWindowInSeconds int `envconfig:"RATE_LIMIT_WINDOW_IN_SECONDS" default:"900"`
		RateLimitMaxRequests     int `envconfig:"RATE_LIMIT_MAX_REQUESTS" default:"100"`

		// Cache TTLs
		CaptionsCacheTTLInSeconds          int `envconfig:"CAPTIONS_CACHE_TTL_IN_SECONDS" default:"86400"`
		FailureCacheTTLInSeconds           int `envconfig:"FAILURE_CACHE_TTL_IN_SECONDS" default:"300"`
		FailureRetryAfterSeconds           int `envconfig:"FAILURE_RETRY_AFTER_SECONDS" default:"300"`
		CacheInvalidationIntervalInSeconds int `envconfig:"CACHE_INVALIDATION_INTERVAL_IN_SECONDS" default:"3600"`

		// Admin endpoints are gated by this token (empty disables them)
		CacheAccessToken string `envconfig:"CACHE_ACCESS_TOKEN" default:""`

		// Upstream video platform
		UpstreamBaseURL       string `envconfig:"UPSTREAM_BASE_URL" default:"https://www.youtube.com"`
		UpstreamClientName    string `envconfig:"UPSTREAM_CLIENT_NAME" default:"ANDROID"`
		UpstreamClientVersion string `envconfig:"UPSTREAM_CLIENT_VERSION" default:"20.10.38"`

		// Circuit breaker for the upstream transcript API
		CircuitBreakerThreshold    int `envconfig:"CIRCUIT_BREAKER_THRESHOLD" default:"5"`
		CircuitBreakerCooldownSecs int `envconfig:"CIRCUIT_BREAKER_COOLDOWN_SECS" default:"300"`

		// Stats persistence
		StatsDBPath                    string `envconfig:"STATS_DB_PATH" default:"./data/stats.db"`
		StatsAutoSaveIntervalInSeconds int    `envconfig:"STATS_AUTO_SAVE_INTERVAL_IN_SECONDS" default:"300"`
	}
}

// load loads the configuration from the environment.
func load() (Config, error) {
	err := godotenv.Load()
	if err != nil {
		log.Warnf("Error loading env config: %v", err)
	}

	cfg := Config{}
	err = envconfig.Process("", &cfg)
	return cfg, err
}

func mustLoad() Config {
	c, err := load()
	if err != nil {
		log.WithError(err).Warnf("Unable to load configuration")
	}

	return c
}

func Get() Config {
	return conf
}
