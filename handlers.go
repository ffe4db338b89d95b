package main

import (
	"context"
	"math"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"

	"captions-api-go/logcolors"
	"captions-api-go/services/youtube"
	"captions-api-go/stats"
	"captions-api-go/utils"
)

// transcriptFetcher is the upstream surface the captions handler needs.
// The real implementation is the shared youtube client; tests swap in a
// counting fake.
type transcriptFetcher interface {
	Fetch(ctx context.Context, videoID, lang string) (*youtube.Transcript, error)
}

var (
	upstream     transcriptFetcher
	upstreamOnce sync.Once
)

// getUpstream returns the shared upstream fetcher, constructing the
// real client on first use. Requests served entirely from cache never
// trigger construction.
func getUpstream() transcriptFetcher {
	upstreamOnce.Do(func() {
		if upstream == nil {
			upstream = youtube.Default()
		}
	})
	return upstream
}

func getCaptions(w http.ResponseWriter, r *http.Request) {
	resp := Respond(w, r)

	videoID := mux.Vars(r)["videoId"]
	if videoID == "" {
		resp.BadRequest("Video identifier not provided")
		return
	}
	if !utils.ValidVideoID(videoID) {
		extracted := utils.ExtractVideoID(videoID)
		if extracted == "" {
			resp.BadRequest("Invalid video identifier")
			return
		}
		videoID = extracted
	}

	lang := r.URL.Query().Get("lang")

	// Success cache first: a hit never touches upstream
	if cues, ok := getCachedCaptions(videoID); ok {
		stats.Get().RecordCacheHit()
		log.Infof("%s Found cached cues for video %s", logcolors.LogCacheCaptions, videoID)
		resp.SetCacheStatus("HIT").JSON(cues)
		return
	}

	// Failure cache: known-bad videos short-circuit with a back-off hint
	if failureCached(videoID) {
		stats.Get().RecordFailureCacheHit()
		log.Infof("%s Short-circuiting known transcript-less video %s", logcolors.LogCacheFailure, videoID)
		resp.SetCacheStatus("FAILURE_HIT").Throttled(
			"Captions are disabled for this video",
			conf.Configuration.FailureRetryAfterSeconds,
		)
		return
	}

	stats.Get().RecordCacheMiss()

	if !upstreamBreaker.Allow() {
		retryAfter := int(math.Ceil(upstreamBreaker.TimeUntilRetry().Seconds()))
		if retryAfter < 1 {
			retryAfter = 1
		}
		log.Warnf("%s Circuit open, rejecting fetch for video %s", logcolors.LogCaptions, videoID)
		resp.SetCacheStatus("MISS").Throttled("Upstream temporarily unavailable", retryAfter)
		return
	}

	stats.Get().RecordUpstreamCall()
	transcript, err := getUpstream().Fetch(r.Context(), videoID, lang)
	if err != nil {
		if err == youtube.ErrNoTranscript {
			// Upstream answered; a missing transcript is not an outage
			upstreamBreaker.RecordSuccess()
			markFailure(videoID)
			resp.SetCacheStatus("MISS").NotFound("Captions are disabled for this video")
			return
		}

		stats.Get().RecordUpstreamError()
		upstreamBreaker.RecordFailure()
		log.Errorf("%s Error fetching transcript for video %s: %v", logcolors.LogCaptions, videoID, err)
		resp.SetCacheStatus("MISS").Internal()
		return
	}
	upstreamBreaker.RecordSuccess()

	cues := normalizeCues(transcript)
	setCachedCaptions(videoID, cues)

	resp.SetCacheStatus("MISS").JSON(cues)
}

func getHealthStatus(w http.ResponseWriter, r *http.Request) {
	Respond(w, r).JSON(HealthResponse{
		Status:    "ok",
		Timestamp: time.Now().Format(time.RFC3339),
		Uptime:    stats.Get().Uptime().String(),
	})
}

// authorized gates admin endpoints on the configured access token.
// An unset token disables the endpoints entirely.
func authorized(r *http.Request) bool {
	token := conf.Configuration.CacheAccessToken
	return token != "" && r.Header.Get("Authorization") == token
}

func getStats(w http.ResponseWriter, r *http.Request) {
	if !authorized(r) {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	snapshot := stats.Get().Snapshot()

	snapshot["cache_storage"] = map[string]interface{}{
		"captions_keys": captionsCache.Len(),
		"failure_keys":  failureCache.Len(),
	}

	cbState, cbFailures, _ := upstreamBreaker.Stats()
	snapshot["circuit_breaker"] = map[string]interface{}{
		"state":              cbState.String(),
		"failures":           cbFailures,
		"cooldown_remaining": upstreamBreaker.TimeUntilRetry().String(),
	}

	Respond(w, r).JSON(snapshot)
}

func getCacheDump(w http.ResponseWriter, r *http.Request) {
	if !authorized(r) {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	Respond(w, r).JSON(CacheDumpResponse{
		Captions: dumpNamespace(captionsCache),
		Failures: dumpNamespace(failureCache),
	})
}

func clearCache(w http.ResponseWriter, r *http.Request) {
	if !authorized(r) {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	captionsCache.Clear()
	failureCache.Clear()
	log.Infof("%s Cleared both cache namespaces", logcolors.LogCacheClear)

	Respond(w, r).JSON(map[string]interface{}{
		"message": "Cache cleared successfully",
	})
}

func getCircuitBreakerStatus(w http.ResponseWriter, r *http.Request) {
	if !authorized(r) {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	state, failures, _ := upstreamBreaker.Stats()

	Respond(w, r).JSON(map[string]interface{}{
		"state":            state.String(),
		"failures":         failures,
		"time_until_retry": upstreamBreaker.TimeUntilRetry().String(),
		"config": map[string]interface{}{
			"threshold":    conf.Configuration.CircuitBreakerThreshold,
			"cooldown_sec": conf.Configuration.CircuitBreakerCooldownSecs,
		},
	})
}

func resetCircuitBreaker(w http.ResponseWriter, r *http.Request) {
	if !authorized(r) {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	upstreamBreaker.Reset()

	Respond(w, r).JSON(map[string]interface{}{
		"message": "Circuit breaker reset to CLOSED state",
	})
}
