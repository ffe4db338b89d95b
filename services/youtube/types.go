package youtube

import "errors"

// ErrNoTranscript is returned when the upstream platform has no
// transcript for a video (captions disabled or never generated).
var ErrNoTranscript = errors.New("transcript not found")

// Snippet holds the text of one transcript segment.
type Snippet struct {
	Text string `json:"text"`
}

// Segment is one timed transcript segment as the upstream reports it,
// with millisecond offsets.
type Segment struct {
	StartMs    int     `json:"start_ms"`
	DurationMs int     `json:"duration_ms"`
	Snippet    Snippet `json:"snippet"`
}

// Transcript is the normalized result of an upstream fetch.
type Transcript struct {
	VideoID  string    `json:"videoId"`
	Language string    `json:"language"`
	Segments []Segment `json:"segments"`
}

// =============================================================================
// API RESPONSE STRUCTURES
// =============================================================================

type playerResponse struct {
	PlayabilityStatus struct {
		Status string `json:"status"`
		Reason string `json:"reason"`
	} `json:"playabilityStatus"`
	Captions struct {
		PlayerCaptionsTracklistRenderer struct {
			CaptionTracks []CaptionTrack `json:"captionTracks"`
		} `json:"playerCaptionsTracklistRenderer"`
	} `json:"captions"`
}

// CaptionTrack is one caption track advertised by the player response.
// Kind is "asr" for auto-generated tracks.
type CaptionTrack struct {
	BaseURL      string `json:"baseUrl"`
	LanguageCode string `json:"languageCode"`
	Kind         string `json:"kind"`
	Name         struct {
		SimpleText string `json:"simpleText"`
	} `json:"name"`
}

// timedTextResponse is the json3 timedtext payload behind a track's
// base URL. Events without segs are styling/window markers.
type timedTextResponse struct {
	Events []timedTextEvent `json:"events"`
}

type timedTextEvent struct {
	StartMs    int            `json:"tStartMs"`
	DurationMs int            `json:"dDurationMs"`
	Append     int            `json:"aAppend"`
	Segs       []timedTextSeg `json:"segs"`
}

type timedTextSeg struct {
	UTF8 string `json:"utf8"`
}
