package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gorilla/mux"

	"captions-api-go/middleware"
	"captions-api-go/services/youtube"
)

// fakeFetcher counts upstream calls so tests can assert which paths
// short-circuit before reaching upstream.
type fakeFetcher struct {
	calls      atomic.Int64
	transcript *youtube.Transcript
	err        error
}

func (f *fakeFetcher) Fetch(ctx context.Context, videoID, lang string) (*youtube.Transcript, error) {
	f.calls.Add(1)
	if f.err != nil {
		return nil, f.err
	}
	return f.transcript, nil
}

// setupTestEnvironment resets the caches, breaker and upstream fake
func setupTestEnvironment(t *testing.T, fake *fakeFetcher) *mux.Router {
	t.Helper()

	initCaches()
	initCircuitBreaker()
	upstream = fake

	router := mux.NewRouter()
	setupRoutes(router)
	return router
}

func doRequest(router *mux.Router, method, path string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

const testVideoID = "dQw4w9WgXcQ"

func TestGetCaptionsMissingID(t *testing.T) {
	fake := &fakeFetcher{}
	router := setupTestEnvironment(t, fake)

	for _, path := range []string{"/api/captions", "/api/captions/"} {
		rec := doRequest(router, "GET", path)

		if rec.Code != http.StatusBadRequest {
			t.Errorf("Expected status 400 for %s, got %d", path, rec.Code)
		}
	}

	if fake.calls.Load() != 0 {
		t.Errorf("Expected no upstream calls, got %d", fake.calls.Load())
	}
	if captionsCache.Len() != 0 || failureCache.Len() != 0 {
		t.Error("Expected both caches to remain untouched")
	}
}

func TestGetCaptionsInvalidID(t *testing.T) {
	fake := &fakeFetcher{}
	router := setupTestEnvironment(t, fake)

	rec := doRequest(router, "GET", "/api/captions/not-a-video")

	if rec.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400, got %d", rec.Code)
	}

	var body ErrorBody
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("Failed to parse error body: %v", err)
	}
	if body.Code != CodeValidation {
		t.Errorf("Expected code %s, got %s", CodeValidation, body.Code)
	}
	if fake.calls.Load() != 0 {
		t.Errorf("Expected no upstream calls, got %d", fake.calls.Load())
	}
}

func TestGetCaptionsNormalization(t *testing.T) {
	fake := &fakeFetcher{
		transcript: &youtube.Transcript{
			VideoID:  testVideoID,
			Language: "en",
			Segments: []youtube.Segment{
				{StartMs: 0, DurationMs: 1000, Snippet: youtube.Snippet{Text: "Hi"}},
			},
		},
	}
	router := setupTestEnvironment(t, fake)

	rec := doRequest(router, "GET", "/api/captions/"+testVideoID)

	if rec.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var cues []CaptionCue
	if err := json.Unmarshal(rec.Body.Bytes(), &cues); err != nil {
		t.Fatalf("Failed to parse response: %v", err)
	}

	expected := []CaptionCue{{Start: 0, End: 1, Text: "Hi", Lang: "en"}}
	if len(cues) != len(expected) {
		t.Fatalf("Expected %d cues, got %d", len(expected), len(cues))
	}
	if cues[0] != expected[0] {
		t.Errorf("Expected cue %+v, got %+v", expected[0], cues[0])
	}

	if fake.calls.Load() != 1 {
		t.Errorf("Expected 1 upstream call, got %d", fake.calls.Load())
	}
}

func TestGetCaptionsCachedSuccess(t *testing.T) {
	fake := &fakeFetcher{}
	router := setupTestEnvironment(t, fake)

	cached := []CaptionCue{{Start: 1.5, End: 3.25, Text: "Hello", Lang: "en"}}
	setCachedCaptions(testVideoID, cached)

	rec := doRequest(router, "GET", "/api/captions/"+testVideoID)

	if rec.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", rec.Code)
	}
	if rec.Header().Get("X-Cache-Status") != "HIT" {
		t.Errorf("Expected X-Cache-Status HIT, got %q", rec.Header().Get("X-Cache-Status"))
	}

	var cues []CaptionCue
	if err := json.Unmarshal(rec.Body.Bytes(), &cues); err != nil {
		t.Fatalf("Failed to parse response: %v", err)
	}
	if len(cues) != 1 || cues[0] != cached[0] {
		t.Errorf("Expected cached cues %+v, got %+v", cached, cues)
	}

	if fake.calls.Load() != 0 {
		t.Errorf("Expected no upstream calls on cache hit, got %d", fake.calls.Load())
	}
}

func TestGetCaptionsCachedFailure(t *testing.T) {
	fake := &fakeFetcher{}
	router := setupTestEnvironment(t, fake)

	markFailure(testVideoID)

	rec := doRequest(router, "GET", "/api/captions/"+testVideoID)

	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("Expected status 429, got %d", rec.Code)
	}

	var body ErrorBody
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("Failed to parse error body: %v", err)
	}
	if body.RetryAfter != 300 {
		t.Errorf("Expected retryAfter 300, got %d", body.RetryAfter)
	}
	if body.Code != CodeThrottled {
		t.Errorf("Expected code %s, got %s", CodeThrottled, body.Code)
	}
	if rec.Header().Get("Retry-After") != "300" {
		t.Errorf("Expected Retry-After header 300, got %q", rec.Header().Get("Retry-After"))
	}

	if fake.calls.Load() != 0 {
		t.Errorf("Expected no upstream calls on failure-cache hit, got %d", fake.calls.Load())
	}
}

func TestGetCaptionsNoTranscript(t *testing.T) {
	fake := &fakeFetcher{err: youtube.ErrNoTranscript}
	router := setupTestEnvironment(t, fake)

	// First request reaches upstream and gets the structured 404
	rec := doRequest(router, "GET", "/api/captions/"+testVideoID)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("Expected status 404, got %d", rec.Code)
	}

	var body ErrorBody
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("Failed to parse error body: %v", err)
	}
	if body.Code != CodeNotFound {
		t.Errorf("Expected code %s, got %s", CodeNotFound, body.Code)
	}
	if fake.calls.Load() != 1 {
		t.Fatalf("Expected 1 upstream call, got %d", fake.calls.Load())
	}

	// Second request short-circuits on the failure cache
	rec = doRequest(router, "GET", "/api/captions/"+testVideoID)

	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("Expected status 429 on second request, got %d", rec.Code)
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("Failed to parse error body: %v", err)
	}
	if body.RetryAfter != 300 {
		t.Errorf("Expected retryAfter 300, got %d", body.RetryAfter)
	}
	if fake.calls.Load() != 1 {
		t.Errorf("Expected upstream to not be called again, got %d calls", fake.calls.Load())
	}
}

func TestGetCaptionsUpstreamError(t *testing.T) {
	fake := &fakeFetcher{err: errors.New("connection refused")}
	router := setupTestEnvironment(t, fake)

	rec := doRequest(router, "GET", "/api/captions/"+testVideoID)

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("Expected status 500, got %d", rec.Code)
	}

	var body ErrorBody
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("Failed to parse error body: %v", err)
	}
	if body.Code != CodeInternal {
		t.Errorf("Expected code %s, got %s", CodeInternal, body.Code)
	}
	if body.Error == "connection refused" {
		t.Error("Expected upstream error detail to not leak to callers")
	}

	// Transient failures are never cached; a retry reaches upstream again
	doRequest(router, "GET", "/api/captions/"+testVideoID)
	if fake.calls.Load() != 2 {
		t.Errorf("Expected 2 upstream calls, got %d", fake.calls.Load())
	}
}

func TestGetCaptionsCircuitOpen(t *testing.T) {
	fake := &fakeFetcher{err: errors.New("connection refused")}
	router := setupTestEnvironment(t, fake)

	// Trip the breaker
	for i := 0; i < conf.Configuration.CircuitBreakerThreshold; i++ {
		doRequest(router, "GET", "/api/captions/"+testVideoID)
	}
	callsWhenOpen := fake.calls.Load()

	rec := doRequest(router, "GET", "/api/captions/"+testVideoID)

	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("Expected status 429 with open circuit, got %d", rec.Code)
	}

	var body ErrorBody
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("Failed to parse error body: %v", err)
	}
	if body.RetryAfter <= 0 {
		t.Errorf("Expected positive retryAfter, got %d", body.RetryAfter)
	}
	if fake.calls.Load() != callsWhenOpen {
		t.Errorf("Expected no upstream calls while circuit open, got %d extra",
			fake.calls.Load()-callsWhenOpen)
	}
}

func TestHealthEndpoint(t *testing.T) {
	router := setupTestEnvironment(t, &fakeFetcher{})

	rec := doRequest(router, "GET", "/api/health")

	if rec.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", rec.Code)
	}

	var health HealthResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &health); err != nil {
		t.Fatalf("Failed to parse health response: %v", err)
	}
	if health.Status != "ok" {
		t.Errorf("Expected status ok, got %q", health.Status)
	}
	if _, err := time.Parse(time.RFC3339, health.Timestamp); err != nil {
		t.Errorf("Expected RFC3339 timestamp, got %q: %v", health.Timestamp, err)
	}
}

func TestAdminEndpointsUnauthorized(t *testing.T) {
	router := setupTestEnvironment(t, &fakeFetcher{})

	paths := []string{"/api/stats", "/api/cache", "/api/cache/clear", "/api/circuit-breaker", "/api/circuit-breaker/reset"}
	for _, path := range paths {
		rec := doRequest(router, "GET", path)
		if rec.Code != http.StatusUnauthorized {
			t.Errorf("Expected status 401 for %s without token, got %d", path, rec.Code)
		}
	}
}

func TestLimitMiddlewareQuota(t *testing.T) {
	fake := &fakeFetcher{}
	router := setupTestEnvironment(t, fake)

	// Serve everything from cache so only the limiter is exercised
	setCachedCaptions(testVideoID, []CaptionCue{{Start: 0, End: 1, Text: "Hi", Lang: "en"}})

	limiter := middleware.NewClientRateLimiter(100, 15*time.Minute)
	handler := limitMiddleware(router, limiter)

	do := func(path string) *httptest.ResponseRecorder {
		req := httptest.NewRequest("GET", path, nil)
		req.RemoteAddr = "192.168.1.1:54321"
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		return rec
	}

	for i := 0; i < 100; i++ {
		rec := do("/api/captions/" + testVideoID)
		if rec.Code != http.StatusOK {
			t.Fatalf("Expected request %d to pass, got %d", i+1, rec.Code)
		}
	}

	rec := do("/api/captions/" + testVideoID)
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("Expected request 101 to be throttled, got %d", rec.Code)
	}

	var body ErrorBody
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("Failed to parse error body: %v", err)
	}
	if body.RetryAfter <= 0 {
		t.Errorf("Expected positive integer retryAfter, got %d", body.RetryAfter)
	}
	if rec.Header().Get("Retry-After") == "" {
		t.Error("Expected Retry-After header on throttled response")
	}

	// Health stays reachable for the same client
	if rec := do("/api/health"); rec.Code != http.StatusOK {
		t.Errorf("Expected /api/health to bypass the limiter, got %d", rec.Code)
	}

	// Preflight bypasses too
	if rec := do2(handler, "OPTIONS", "/api/captions/"+testVideoID, "192.168.1.1:54321"); rec.Code == http.StatusTooManyRequests {
		t.Error("Expected OPTIONS preflight to bypass the limiter")
	}

	// A different client key still has quota
	req := httptest.NewRequest("GET", "/api/captions/"+testVideoID, nil)
	req.RemoteAddr = "192.168.1.1:54321"
	req.Header.Set("X-Forwarded-For", "10.0.0.9, 192.168.1.1")
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Errorf("Expected forwarded client to have its own quota, got %d", rec.Code)
	}
}

func do2(handler http.Handler, method, path, remoteAddr string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	req.RemoteAddr = remoteAddr
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestLimitMiddlewareSkipsNonAPIPaths(t *testing.T) {
	router := setupTestEnvironment(t, &fakeFetcher{})

	limiter := middleware.NewClientRateLimiter(1, time.Minute)
	handler := limitMiddleware(router, limiter)

	// Exhaust the quota under /api
	do2(handler, "GET", "/api/captions/"+testVideoID, "10.1.1.1:1000")

	// Root help endpoint is outside the limited prefix
	for i := 0; i < 5; i++ {
		rec := do2(handler, "GET", "/", "10.1.1.1:1000")
		if rec.Code != http.StatusOK {
			t.Fatalf("Expected / to bypass the limiter, got %d", rec.Code)
		}
	}
}

func TestNormalizeCues(t *testing.T) {
	tests := []struct {
		name       string
		transcript youtube.Transcript
		expected   []CaptionCue
	}{
		{
			name: "millisecond offsets become seconds",
			transcript: youtube.Transcript{
				Language: "en",
				Segments: []youtube.Segment{
					{StartMs: 0, DurationMs: 1000, Snippet: youtube.Snippet{Text: "Hi"}},
					{StartMs: 1500, DurationMs: 2250, Snippet: youtube.Snippet{Text: "there"}},
				},
			},
			expected: []CaptionCue{
				{Start: 0, End: 1, Text: "Hi", Lang: "en"},
				{Start: 1.5, End: 3.75, Text: "there", Lang: "en"},
			},
		},
		{
			name: "empty transcript yields empty cue list",
			transcript: youtube.Transcript{
				Language: "ja",
			},
			expected: []CaptionCue{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cues := normalizeCues(&tt.transcript)
			if len(cues) != len(tt.expected) {
				t.Fatalf("Expected %d cues, got %d", len(tt.expected), len(cues))
			}
			for i := range cues {
				if cues[i] != tt.expected[i] {
					t.Errorf("Cue %d: expected %+v, got %+v", i, tt.expected[i], cues[i])
				}
			}
		})
	}
}

func TestGetCaptionsOrderPreserved(t *testing.T) {
	segments := make([]youtube.Segment, 20)
	for i := range segments {
		segments[i] = youtube.Segment{
			StartMs:    i * 1000,
			DurationMs: 1000,
			Snippet:    youtube.Snippet{Text: fmt.Sprintf("line %d", i)},
		}
	}
	fake := &fakeFetcher{
		transcript: &youtube.Transcript{VideoID: testVideoID, Language: "en", Segments: segments},
	}
	router := setupTestEnvironment(t, fake)

	rec := doRequest(router, "GET", "/api/captions/"+testVideoID)
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", rec.Code)
	}

	var cues []CaptionCue
	if err := json.Unmarshal(rec.Body.Bytes(), &cues); err != nil {
		t.Fatalf("Failed to parse response: %v", err)
	}
	for i := 1; i < len(cues); i++ {
		if cues[i].Start < cues[i-1].Start {
			t.Fatalf("Expected cues in order, cue %d starts before cue %d", i, i-1)
		}
	}
}
