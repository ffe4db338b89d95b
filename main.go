package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/joho/godotenv"
	"github.com/rs/cors"
	log "github.com/sirupsen/logrus"

	"captions-api-go/config"
	"captions-api-go/logcolors"
	"captions-api-go/middleware"
	"captions-api-go/stats"
)

var conf = config.Get()

func init() {
	log.SetFormatter(&log.JSONFormatter{})
	log.SetOutput(os.Stdout)
	log.SetLevel(log.InfoLevel)

	err := godotenv.Load()
	if err != nil {
		log.Warn("Error loading .env file, using environment variables")
	}
}

func main() {
	initCaches()
	initCircuitBreaker()

	// Janitors reclaim memory for keys that are never read again
	stopJanitors := make(chan struct{})
	janitorInterval := time.Duration(conf.Configuration.CacheInvalidationIntervalInSeconds) * time.Second
	captionsCache.StartJanitor(janitorInterval, stopJanitors)
	failureCache.StartJanitor(janitorInterval, stopJanitors)

	statsStore, err := stats.NewStore(conf.Configuration.StatsDBPath)
	if err != nil {
		log.Fatalf("%s Failed to initialize stats store: %v", logcolors.LogStats, err)
	}
	if err := statsStore.Load(); err != nil {
		log.Warnf("%s Failed to load persisted stats: %v", logcolors.LogStats, err)
	}
	statsStore.StartAutoSave(time.Duration(conf.Configuration.StatsAutoSaveIntervalInSeconds) * time.Second)

	router := mux.NewRouter()
	setupRoutes(router)

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	c := cors.New(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodOptions},
		ExposedHeaders: []string{"Retry-After"},
	})

	limiter := middleware.NewClientRateLimiter(
		conf.Configuration.RateLimitMaxRequests,
		time.Duration(conf.Configuration.RateLimitWindowInSeconds)*time.Second,
	)

	// Chain: CORS outermost so even throttled responses carry the
	// permissive headers, then the limiter, then stats and logging
	loggedRouter := middleware.LoggingMiddleware(router)
	statsHandler := statsMiddleware(loggedRouter)
	limitedHandler := limitMiddleware(statsHandler, limiter)
	handler := c.Handler(limitedHandler)

	srv := &http.Server{
		Addr:    ":" + port,
		Handler: handler,
	}

	go func() {
		log.Infof("%s Server listening on port %s", logcolors.LogServer, port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("%s Server error: %v", logcolors.LogServer, err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Infof("%s Shutting down...", logcolors.LogServer)
	close(stopJanitors)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Errorf("%s Shutdown error: %v", logcolors.LogServer, err)
	}

	if err := statsStore.Close(); err != nil {
		log.Errorf("%s Failed to close stats store: %v", logcolors.LogStats, err)
	}
}
