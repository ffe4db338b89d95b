package main

import (
	"time"

	log "github.com/sirupsen/logrus"

	"captions-api-go/cache"
	"captions-api-go/logcolors"
	"captions-api-go/services/youtube"
)

// The two TTL namespaces: cached cue sequences for videos that
// resolved, and short-lived markers for videos known to have no
// transcript.
var (
	captionsCache *cache.Store
	failureCache  *cache.Store
)

// initCaches builds both stores from configuration.
func initCaches() {
	captionsCache = cache.New("captions", time.Duration(conf.Configuration.CaptionsCacheTTLInSeconds)*time.Second)
	failureCache = cache.New("failures", time.Duration(conf.Configuration.FailureCacheTTLInSeconds)*time.Second)
	log.Infof("%s Initialized caches (captions TTL: %v, failure TTL: %v)",
		logcolors.LogCache, captionsCache.TTL(), failureCache.TTL())
}

// getCachedCaptions returns the cached cues for a video, if any.
func getCachedCaptions(videoID string) ([]CaptionCue, bool) {
	v, ok := captionsCache.Get(videoID)
	if !ok {
		return nil, false
	}
	cues, ok := v.([]CaptionCue)
	return cues, ok
}

// setCachedCaptions stores the cue sequence for a video.
func setCachedCaptions(videoID string, cues []CaptionCue) {
	captionsCache.Set(videoID, cues)
	log.Infof("%s Cached %d cues for video %s", logcolors.LogCacheCaptions, len(cues), videoID)
}

// failureCached reports whether a video is marked as having no
// transcript. Presence means "do not retry upstream yet".
func failureCached(videoID string) bool {
	_, ok := failureCache.Get(videoID)
	return ok
}

// markFailure records that upstream has no transcript for a video.
func markFailure(videoID string) {
	failureCache.Set(videoID, true)
	log.Infof("%s Marked video %s as having no transcript", logcolors.LogCacheFailure, videoID)
}

// normalizeCues converts upstream millisecond segments into
// second-offset cues carrying the transcript language.
func normalizeCues(t *youtube.Transcript) []CaptionCue {
	cues := make([]CaptionCue, 0, len(t.Segments))
	for _, seg := range t.Segments {
		start := float64(seg.StartMs) / 1000.0
		cues = append(cues, CaptionCue{
			Start: start,
			End:   start + float64(seg.DurationMs)/1000.0,
			Text:  seg.Snippet.Text,
			Lang:  t.Language,
		})
	}
	return cues
}
