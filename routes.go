package main

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"
)

// setupRoutes configures all HTTP routes for the API
func setupRoutes(router *mux.Router) {
	// Captions endpoint; the bare form exists so a missing identifier
	// reports a validation error instead of a routing 404
	router.HandleFunc("/api/captions/{videoId}", getCaptions)
	router.HandleFunc("/api/captions", getCaptions)
	router.HandleFunc("/api/captions/", getCaptions)

	// Health and stats endpoints
	router.HandleFunc("/api/health", getHealthStatus)
	router.HandleFunc("/api/stats", getStats)

	// Cache management endpoints
	router.HandleFunc("/api/cache", getCacheDump)
	router.HandleFunc("/api/cache/clear", clearCache)

	// Circuit breaker endpoints
	router.HandleFunc("/api/circuit-breaker", getCircuitBreakerStatus)
	router.HandleFunc("/api/circuit-breaker/reset", resetCircuitBreaker)

	// Help endpoint
	router.HandleFunc("/", helpHandler)
}

func helpHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"help": "Use /api/captions/{videoId} to fetch normalized caption cues for a video. Example: /api/captions/dQw4w9WgXcQ",
	})
}
