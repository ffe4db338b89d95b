package youtube

import (
	"encoding/json"
	"fmt"
	"strings"

	log "github.com/sirupsen/logrus"

	"captions-api-go/logcolors"
)

// selectTrack picks the caption track to fetch. An exact language match
// wins; otherwise manually-authored tracks are preferred over
// auto-generated ("asr") ones; otherwise the first advertised track.
func selectTrack(tracks []CaptionTrack, lang string) *CaptionTrack {
	if len(tracks) == 0 {
		return nil
	}

	if lang != "" {
		for i := range tracks {
			if strings.EqualFold(tracks[i].LanguageCode, lang) {
				return &tracks[i]
			}
		}
	}

	for i := range tracks {
		if tracks[i].Kind != "asr" {
			return &tracks[i]
		}
	}

	return &tracks[0]
}

// parseTimedText converts a json3 timedtext payload into millisecond
// segments, dropping events that carry no renderable text.
func parseTimedText(data []byte) ([]Segment, error) {
	var resp timedTextResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, fmt.Errorf("failed to parse timedtext response: %v", err)
	}

	segments := make([]Segment, 0, len(resp.Events))
	for _, event := range resp.Events {
		if len(event.Segs) == 0 {
			continue
		}
		// Append events re-emit text already covered by a previous event
		if event.Append == 1 {
			continue
		}

		var sb strings.Builder
		for _, seg := range event.Segs {
			sb.WriteString(seg.UTF8)
		}
		text := strings.TrimSpace(sb.String())
		if text == "" {
			continue
		}

		segments = append(segments, Segment{
			StartMs:    event.StartMs,
			DurationMs: event.DurationMs,
			Snippet:    Snippet{Text: text},
		})
	}

	log.Debugf("%s Parsed %d segments from %d timedtext events", logcolors.LogParser, len(segments), len(resp.Events))

	return segments, nil
}
