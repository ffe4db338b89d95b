package youtube

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"

	log "github.com/sirupsen/logrus"

	"captions-api-go/config"
	"captions-api-go/logcolors"
)

const playerPath = "/youtubei/v1/player"

// Client talks to the upstream platform's internal transcript API.
// No explicit timeout is set; only the transport defaults apply.
type Client struct {
	httpClient    *http.Client
	baseURL       string
	clientName    string
	clientVersion string
}

var (
	defaultClient *Client
	clientOnce    sync.Once
)

// Default returns the process-wide shared client, constructing it on
// first use. The guard keeps concurrent first requests from building
// more than one upstream session.
func Default() *Client {
	clientOnce.Do(func() {
		defaultClient = NewClient()
		log.Infof("%s Initialized shared upstream client (%s %s)",
			logcolors.LogUpstream, defaultClient.clientName, defaultClient.clientVersion)
	})
	return defaultClient
}

// NewClient creates a client from configuration.
func NewClient() *Client {
	conf := config.Get()
	return &Client{
		httpClient:    &http.Client{},
		baseURL:       strings.TrimSuffix(conf.Configuration.UpstreamBaseURL, "/"),
		clientName:    conf.Configuration.UpstreamClientName,
		clientVersion: conf.Configuration.UpstreamClientVersion,
	}
}

type playerRequest struct {
	VideoID string `json:"videoId"`
	Context struct {
		Client struct {
			ClientName    string `json:"clientName"`
			ClientVersion string `json:"clientVersion"`
		} `json:"client"`
	} `json:"context"`
}

// Fetch retrieves video metadata and the transcript for videoID.
// lang is optional; empty selects the default caption track. Returns
// ErrNoTranscript when the video has no captions at all.
func (c *Client) Fetch(ctx context.Context, videoID, lang string) (*Transcript, error) {
	tracks, err := c.fetchCaptionTracks(ctx, videoID)
	if err != nil {
		return nil, err
	}

	track := selectTrack(tracks, lang)
	if track == nil {
		log.Warnf("%s No caption tracks for video %s", logcolors.LogUpstream, videoID)
		return nil, ErrNoTranscript
	}

	segments, err := c.fetchSegments(ctx, track)
	if err != nil {
		return nil, err
	}

	if len(segments) == 0 {
		return nil, ErrNoTranscript
	}

	log.Infof("%s Fetched %d segments for video %s (lang: %s)",
		logcolors.LogUpstream, len(segments), videoID, track.LanguageCode)

	return &Transcript{
		VideoID:  videoID,
		Language: track.LanguageCode,
		Segments: segments,
	}, nil
}

// fetchCaptionTracks asks the player endpoint which caption tracks the
// video advertises.
func (c *Client) fetchCaptionTracks(ctx context.Context, videoID string) ([]CaptionTrack, error) {
	payload := playerRequest{VideoID: videoID}
	payload.Context.Client.ClientName = c.clientName
	payload.Context.Client.ClientVersion = c.clientVersion

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal player request: %v", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+playerPath, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", fmt.Sprintf("com.google.android.youtube/%s (Linux; U; Android 14) gzip", c.clientVersion))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("player request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("player endpoint returned status %d: %s", resp.StatusCode, string(respBody))
	}

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read player response: %v", err)
	}

	var player playerResponse
	if err := json.Unmarshal(respBody, &player); err != nil {
		return nil, fmt.Errorf("failed to parse player response: %v", err)
	}

	if player.PlayabilityStatus.Status != "" && player.PlayabilityStatus.Status != "OK" {
		return nil, fmt.Errorf("video %s is not playable: %s (%s)",
			videoID, player.PlayabilityStatus.Status, player.PlayabilityStatus.Reason)
	}

	return player.Captions.PlayerCaptionsTracklistRenderer.CaptionTracks, nil
}

// fetchSegments downloads a caption track in json3 form and parses it.
func (c *Client) fetchSegments(ctx context.Context, track *CaptionTrack) ([]Segment, error) {
	trackURL := track.BaseURL
	if !strings.Contains(trackURL, "fmt=") {
		sep := "?"
		if strings.Contains(trackURL, "?") {
			sep = "&"
		}
		trackURL += sep + "fmt=json3"
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, trackURL, nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("timedtext request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("timedtext endpoint returned status %d: %s", resp.StatusCode, string(respBody))
	}

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read timedtext response: %v", err)
	}

	return parseTimedText(respBody)
}
