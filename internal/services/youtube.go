// YouTube Data API v3 video search.
//
// Response types based on https://developers.google.com/youtube/v3/docs/search/list
package services

import (
	"context"
	"fmt"
	"html"
	"net/url"
	"strconv"

	"github.com/desertthunder/storysounds/internal/models"
	"github.com/desertthunder/storysounds/internal/shared"
)

const maxYouTubeResults = 50

type youtubeSnippet struct {
	Title        string `json:"title"`
	ChannelTitle string `json:"channelTitle"`
	Description  string `json:"description"`
}

// YouTubeSearchItem is one search.list result.
type YouTubeSearchItem struct {
	ID struct {
		Kind    string `json:"kind"`
		VideoID string `json:"videoId"`
	} `json:"id"`
	Snippet youtubeSnippet `json:"snippet"`
}

type youtubeSearchResponse struct {
	Items []YouTubeSearchItem `json:"items"`
}

// Video converts the API item to the pipeline's video model. Titles arrive HTML-escaped.
func (i YouTubeSearchItem) Video() models.Video {
	return models.Video{
		VideoID:      i.ID.VideoID,
		Title:        html.UnescapeString(i.Snippet.Title),
		ChannelTitle: html.UnescapeString(i.Snippet.ChannelTitle),
		Description:  html.UnescapeString(i.Snippet.Description),
	}
}

// YouTubeSearcher implements [VideoSearcher] with an API key.
type YouTubeSearcher struct {
	api *apiClient
	key string
}

func NewYouTubeSearcher(cfg shared.YouTubeConfig, opts ...Option) (*YouTubeSearcher, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("%w: youtube api_key", shared.ErrMissingCredentials)
	}
	base := []Option{WithRateLimit(cfg.RequestsPerSecond)}
	return &YouTubeSearcher{
		api: newAPIClient(providerYouTube, cfg.BaseURL, append(base, opts...)...),
		key: cfg.APIKey,
	}, nil
}

// Search returns up to maxResults videos for query.
func (y *YouTubeSearcher) Search(ctx context.Context, query string, maxResults int) ([]models.Video, error) {
	if query == "" {
		return nil, fmt.Errorf("%w: empty search query", shared.ErrInvalidInput)
	}
	maxResults = min(max(maxResults, 1), maxYouTubeResults)

	params := url.Values{}
	params.Set("part", "snippet")
	params.Set("type", "video")
	params.Set("q", query)
	params.Set("maxResults", strconv.Itoa(maxResults))
	params.Set("key", y.key)

	var resp youtubeSearchResponse
	if err := y.api.getJSON(ctx, "/search", params, &resp); err != nil {
		return nil, err
	}

	videos := make([]models.Video, 0, len(resp.Items))
	for _, item := range resp.Items {
		if item.ID.VideoID == "" {
			continue
		}
		videos = append(videos, item.Video())
	}
	return videos, nil
}
