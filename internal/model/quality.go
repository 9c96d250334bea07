package model

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidQuality is returned for a selector outside the supported set
var ErrInvalidQuality = errors.New("invalid quality selector")

// Quality is a user-chosen constraint on fetched media resolution
type Quality string

const (
	Quality360  Quality = "360"
	Quality480  Quality = "480"
	Quality720  Quality = "720"
	Quality1080 Quality = "1080"
	QualityBest Quality = "best"
)

// DefaultQuality is used when a request does not name one
const DefaultQuality = Quality720

// QualityOptions returns the supported selectors in display order
func QualityOptions() []Quality {
	return []Quality{Quality360, Quality480, Quality720, Quality1080, QualityBest}
}

// ParseQuality validates a raw selector. Empty input yields fallback.
func ParseQuality(raw string, fallback Quality) (Quality, error) {
	raw = strings.ToLower(strings.TrimSpace(raw))
	raw = strings.TrimSuffix(raw, "p")
	if raw == "" {
		return fallback, nil
	}
	for _, q := range QualityOptions() {
		if string(q) == raw {
			return q, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidQuality, raw)
}

// FormatSelector returns the yt-dlp format expression for q
func (q Quality) FormatSelector() string {
	if q == QualityBest || q == "" {
		return "best"
	}
	return fmt.Sprintf("best[height<=%s]", q)
}
