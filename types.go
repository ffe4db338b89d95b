package main

import "captions-api-go/cache"

// CaptionCue is one timed subtitle line. Start and End are offsets in
// seconds from the beginning of the video.
type CaptionCue struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Text  string  `json:"text"`
	Lang  string  `json:"lang"`
}

// HealthResponse is the response format for /api/health
type HealthResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
	Uptime    string `json:"uptime"`
}

// CacheNamespaceDump describes one cache namespace in the /api/cache dump
type CacheNamespaceDump struct {
	NumberOfKeys int      `json:"number_of_keys"`
	TTLSeconds   int      `json:"ttl_seconds"`
	Keys         []string `json:"keys"`
}

// CacheDumpResponse is the response format for /api/cache
type CacheDumpResponse struct {
	Captions CacheNamespaceDump `json:"captions"`
	Failures CacheNamespaceDump `json:"failures"`
}

// dumpNamespace snapshots one store for the cache dump endpoint.
func dumpNamespace(s *cache.Store) CacheNamespaceDump {
	dump := CacheNamespaceDump{
		TTLSeconds: int(s.TTL().Seconds()),
		Keys:       []string{},
	}
	s.Range(func(key string, _ cache.Entry) bool {
		dump.Keys = append(dump.Keys, key)
		return true
	})
	dump.NumberOfKeys = len(dump.Keys)
	return dump
}
