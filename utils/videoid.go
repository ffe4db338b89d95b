package utils

import (
	"net/url"
	"regexp"
	"strings"
)

// videoIDRegex matches an 11-character upstream video identifier.
var videoIDRegex = regexp.MustCompile(`^[A-Za-z0-9_-]{11}$`)

// ValidVideoID reports whether id is a well-formed video identifier.
func ValidVideoID(id string) bool {
	return videoIDRegex.MatchString(id)
}

// ExtractVideoID returns the video identifier from raw, which may be a
// bare identifier or a pasted watch/short/embed URL. Returns "" when no
// identifier can be found.
func ExtractVideoID(raw string) string {
	raw = strings.TrimSpace(raw)
	if ValidVideoID(raw) {
		return raw
	}

	u, err := url.Parse(raw)
	if err != nil {
		return ""
	}

	// watch?v=ID
	if v := u.Query().Get("v"); ValidVideoID(v) {
		return v
	}

	// youtu.be/ID, /shorts/ID, /embed/ID
	parts := strings.Split(strings.Trim(u.Path, "/"), "/")
	if len(parts) > 0 {
		if last := parts[len(parts)-1]; ValidVideoID(last) {
			return last
		}
	}

	return ""
}
