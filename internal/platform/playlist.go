package platform

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/ytget/ytdlp/v2"
)

// Timeout constants
const (
	DefaultPlaylistTimeout = 60 * time.Second
)

// URL parameters and separators
const (
	PlaylistParam  = "list="
	ParamSeparator = "&"
)

// URL templates
const (
	YouTubeVideoURLTemplate = "https://www.youtube.com/watch?v=%s"
)

// playlistLister returns the video IDs of a playlist
type playlistLister func(ctx context.Context, playlistID string) ([]string, error)

// PlaylistExpander turns playlist URLs into the URLs of their videos
type PlaylistExpander struct {
	timeout time.Duration
	list    playlistLister
}

// NewPlaylistExpander creates an expander backed by the ytdlp library
func NewPlaylistExpander() *PlaylistExpander {
	return &PlaylistExpander{
		timeout: DefaultPlaylistTimeout,
		list:    listPlaylistItems,
	}
}

// SetTimeout sets the timeout for a single playlist lookup
func (p *PlaylistExpander) SetTimeout(timeout time.Duration) {
	if timeout > 0 {
		p.timeout = timeout
	}
}

// Expand replaces each playlist URL with its video URLs, preserving order.
// A playlist that cannot be listed is kept as-is so the fetcher can still try it.
func (p *PlaylistExpander) Expand(ctx context.Context, urls []string) []string {
	out := make([]string, 0, len(urls))
	for _, u := range urls {
		if !isPlaylistURL(u) {
			out = append(out, u)
			continue
		}
		videos, err := p.expandOne(ctx, u)
		if err != nil || len(videos) == 0 {
			log.Warn().Err(err).Str("url", u).Msg("playlist expansion failed, keeping url")
			out = append(out, u)
			continue
		}
		out = append(out, videos...)
	}
	return out
}

func (p *PlaylistExpander) expandOne(ctx context.Context, url string) ([]string, error) {
	playlistID := extractPlaylistID(url)
	if playlistID == "" {
		return nil, fmt.Errorf("could not extract playlist ID from URL: %s", url)
	}

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	ids, err := p.list(ctx, playlistID)
	if err != nil {
		return nil, fmt.Errorf("failed to get playlist items: %w", err)
	}

	videos := make([]string, 0, len(ids))
	for _, id := range ids {
		if id == "" {
			continue
		}
		videos = append(videos, fmt.Sprintf(YouTubeVideoURLTemplate, id))
	}
	return videos, nil
}

func listPlaylistItems(ctx context.Context, playlistID string) ([]string, error) {
	items, err := ytdlp.New().GetPlaylistItemsAll(ctx, playlistID, 0)
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(items))
	for _, it := range items {
		ids = append(ids, it.VideoID)
	}
	return ids, nil
}

// isPlaylistURL checks if the URL carries a playlist parameter
func isPlaylistURL(url string) bool {
	return strings.Contains(url, PlaylistParam)
}

// extractPlaylistID extracts the playlist ID from various URL formats
func extractPlaylistID(url string) string {
	if !strings.Contains(url, PlaylistParam) {
		return ""
	}
	parts := strings.SplitN(url, PlaylistParam, 2)
	playlistPart := parts[1]
	if strings.Contains(playlistPart, ParamSeparator) {
		playlistPart = strings.Split(playlistPart, ParamSeparator)[0]
	}
	return playlistPart
}
