package main

import (
	"net/http"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"

	"captions-api-go/circuitbreaker"
	"captions-api-go/logcolors"
	"captions-api-go/middleware"
	"captions-api-go/stats"
)

// upstreamBreaker gates all traffic to the upstream transcript API.
var upstreamBreaker *circuitbreaker.CircuitBreaker

func initCircuitBreaker() {
	upstreamBreaker = circuitbreaker.New(circuitbreaker.Config{
		Name:      "upstream",
		Threshold: conf.Configuration.CircuitBreakerThreshold,
		Cooldown:  time.Duration(conf.Configuration.CircuitBreakerCooldownSecs) * time.Second,
	})
}

// limitMiddleware enforces the per-client request quota for everything
// under the API path prefix. Health checks and CORS preflights bypass
// the limit entirely; rejected requests are never queued.
func limitMiddleware(next http.Handler, limiter *middleware.ClientRateLimiter) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasPrefix(r.URL.Path, "/api/") {
			next.ServeHTTP(w, r)
			return
		}
		if r.Method == http.MethodOptions || r.URL.Path == "/api/health" {
			next.ServeHTTP(w, r)
			return
		}

		key := middleware.ClientKey(r)
		clientLimiter := limiter.GetLimiter(key)

		if clientLimiter.Allow() {
			stats.Get().RecordRateLimit(true)
			next.ServeHTTP(w, r)
			return
		}

		stats.Get().RecordRateLimit(false)
		retryAfter := middleware.RetryAfter(clientLimiter)
		log.Warnf("%s Client %s exceeded quota, retry in %ds", logcolors.LogRateLimit, key, retryAfter)

		Respond(w, r).Throttled("Rate limit exceeded. Please try again later.", retryAfter)
	})
}

// statsMiddleware records per-request counters, status classes and
// response times.
func statsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		recorder := middleware.NewResponseRecorder(w)

		stats.Get().RecordRequest(r.URL.Path)
		next.ServeHTTP(recorder, r)

		stats.Get().RecordStatusCode(recorder.StatusCode)
		stats.Get().RecordResponseTime(time.Since(start), r.URL.Path)
	})
}
