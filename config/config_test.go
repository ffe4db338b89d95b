package config

import (
	"os"
	"testing"
)

var configEnvVars = []string{
	"RATE_LIMIT_WINDOW_IN_SECONDS",
	"RATE_LIMIT_MAX_REQUESTS",
	"CAPTIONS_CACHE_TTL_IN_SECONDS",
	"FAILURE_CACHE_TTL_IN_SECONDS",
	"FAILURE_RETRY_AFTER_SECONDS",
	"CACHE_INVALIDATION_INTERVAL_IN_SECONDS",
	"CACHE_ACCESS_TOKEN",
	"UPSTREAM_BASE_URL",
	"UPSTREAM_CLIENT_NAME",
	"UPSTREAM_CLIENT_VERSION",
	"CIRCUIT_BREAKER_THRESHOLD",
	"CIRCUIT_BREAKER_COOLDOWN_SECS",
	"STATS_DB_PATH",
	"STATS_AUTO_SAVE_INTERVAL_IN_SECONDS",
}

// clearConfigEnv unsets every config variable and restores the previous
// values when the test finishes.
func clearConfigEnv(t *testing.T) {
	t.Helper()
	saved := make(map[string]string)
	for _, key := range configEnvVars {
		if value, ok := os.LookupEnv(key); ok {
			saved[key] = value
			os.Unsetenv(key)
		}
	}
	t.Cleanup(func() {
		for key, value := range saved {
			os.Setenv(key, value)
		}
	})
}

func TestLoadDefaults(t *testing.T) {
	clearConfigEnv(t)

	cfg, err := load()
	if err != nil {
		t.Fatalf("Unexpected error loading config: %v", err)
	}

	c := cfg.Configuration
	tests := []struct {
		name     string
		got      interface{}
		expected interface{}
	}{
		{"RateLimitWindowInSeconds", c.RateLimitWindowInSeconds, 900},
		{"RateLimitMaxRequests", c.RateLimitMaxRequests, 100},
		{"CaptionsCacheTTLInSeconds", c.CaptionsCacheTTLInSeconds, 86400},
		{"FailureCacheTTLInSeconds", c.FailureCacheTTLInSeconds, 300},
		{"FailureRetryAfterSeconds", c.FailureRetryAfterSeconds, 300},
		{"CacheInvalidationIntervalInSeconds", c.CacheInvalidationIntervalInSeconds, 3600},
		{"CacheAccessToken", c.CacheAccessToken, ""},
		{"UpstreamBaseURL", c.UpstreamBaseURL, "https://www.youtube.com"},
		{"UpstreamClientName", c.UpstreamClientName, "ANDROID"},
		{"CircuitBreakerThreshold", c.CircuitBreakerThreshold, 5},
		{"CircuitBreakerCooldownSecs", c.CircuitBreakerCooldownSecs, 300},
		{"StatsDBPath", c.StatsDBPath, "./data/stats.db"},
		{"StatsAutoSaveIntervalInSeconds", c.StatsAutoSaveIntervalInSeconds, 300},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.expected {
				t.Errorf("Expected %s to default to %v, got %v", tt.name, tt.expected, tt.got)
			}
		})
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	clearConfigEnv(t)

	os.Setenv("RATE_LIMIT_MAX_REQUESTS", "10")
	os.Setenv("CAPTIONS_CACHE_TTL_IN_SECONDS", "60")
	os.Setenv("CACHE_ACCESS_TOKEN", "secret")
	os.Setenv("UPSTREAM_BASE_URL", "http://localhost:9999")
	defer func() {
		os.Unsetenv("RATE_LIMIT_MAX_REQUESTS")
		os.Unsetenv("CAPTIONS_CACHE_TTL_IN_SECONDS")
		os.Unsetenv("CACHE_ACCESS_TOKEN")
		os.Unsetenv("UPSTREAM_BASE_URL")
	}()

	cfg, err := load()
	if err != nil {
		t.Fatalf("Unexpected error loading config: %v", err)
	}

	c := cfg.Configuration
	if c.RateLimitMaxRequests != 10 {
		t.Errorf("Expected RateLimitMaxRequests 10, got %d", c.RateLimitMaxRequests)
	}
	if c.CaptionsCacheTTLInSeconds != 60 {
		t.Errorf("Expected CaptionsCacheTTLInSeconds 60, got %d", c.CaptionsCacheTTLInSeconds)
	}
	if c.CacheAccessToken != "secret" {
		t.Errorf("Expected CacheAccessToken secret, got %q", c.CacheAccessToken)
	}
	if c.UpstreamBaseURL != "http://localhost:9999" {
		t.Errorf("Expected UpstreamBaseURL override, got %q", c.UpstreamBaseURL)
	}
}
