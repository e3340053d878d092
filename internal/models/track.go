package models

import "strings"

// SearchMethod names the resolution strategy that produced a match.
type SearchMethod string

const (
	SearchCombined    SearchMethod = "combined"
	SearchArtistFirst SearchMethod = "artist-first"
	SearchExact       SearchMethod = "exact"
	SearchFallback    SearchMethod = "fallback"
)

// Artist is a credited artist on a catalog track.
type Artist struct {
	ID   string `json:"id,omitempty"`
	Name string `json:"name"`
}

// Image is album artwork.
type Image struct {
	URL    string `json:"url"`
	Width  int    `json:"width,omitempty"`
	Height int    `json:"height,omitempty"`
}

// Album is the release a catalog track belongs to.
type Album struct {
	ID     string  `json:"id,omitempty"`
	Name   string  `json:"name"`
	Images []Image `json:"images,omitempty"`
}

// CandidateTrack is a read-only catalog search result.
type CandidateTrack struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Artists     []Artist `json:"artists"`
	Album       Album    `json:"album"`
	PreviewURL  string   `json:"previewUrl,omitempty"`
	ExternalURL string   `json:"externalUrl,omitempty"`
	Popularity  int      `json:"popularity"`
	URI         string   `json:"uri,omitempty"`
}

// PrimaryArtist returns the first credited artist name, or "".
func (t CandidateTrack) PrimaryArtist() string {
	if len(t.Artists) == 0 {
		return ""
	}
	return t.Artists[0].Name
}

// ArtistNames joins all credited artist names with ", ".
func (t CandidateTrack) ArtistNames() string {
	names := make([]string, 0, len(t.Artists))
	for _, a := range t.Artists {
		names = append(names, a.Name)
	}
	return strings.Join(names, ", ")
}

// ImageURL returns the first (largest) album image URL, or "".
func (t CandidateTrack) ImageURL() string {
	if len(t.Album.Images) == 0 {
		return ""
	}
	return t.Album.Images[0].URL
}

// ResolvedTrack is a candidate accepted as the match for one recommendation.
//
// Failed resolutions carry SearchSuccess=false and a human-readable Error.
type ResolvedTrack struct {
	CandidateTrack
	Recommendation Recommendation `json:"recommendation"`
	SearchMethod   SearchMethod   `json:"searchMethod,omitempty"`
	SearchSuccess  bool           `json:"searchSuccess"`
	Error          string         `json:"error,omitempty"`
}

// YouTubePreview is a backfilled video preview.
type YouTubePreview struct {
	VideoID      string  `json:"videoId"`
	Title        string  `json:"title"`
	ChannelTitle string  `json:"channelTitle"`
	YouTubeURL   string  `json:"youtubeUrl"`
	EmbedURL     string  `json:"embedUrl"`
	Score        float64 `json:"score"`
}

// NewYouTubePreview builds watch and embed links for a scored video.
func NewYouTubePreview(v Video, score float64) *YouTubePreview {
	return &YouTubePreview{
		VideoID:      v.VideoID,
		Title:        v.Title,
		ChannelTitle: v.ChannelTitle,
		YouTubeURL:   "https://www.youtube.com/watch?v=" + v.VideoID,
		EmbedURL:     "https://www.youtube.com/embed/" + v.VideoID,
		Score:        score,
	}
}

// EnrichedTrack is the terminal representation of a track.
type EnrichedTrack struct {
	ResolvedTrack
	YouTubePreview *YouTubePreview `json:"youtubePreview,omitempty"`
}

// HasPreview reports whether the track has a native or backfilled preview.
func (t EnrichedTrack) HasPreview() bool {
	return t.PreviewURL != "" || t.YouTubePreview != nil
}

// Video is a raw video search result.
type Video struct {
	VideoID      string `json:"videoId"`
	Title        string `json:"title"`
	ChannelTitle string `json:"channelTitle"`
	Description  string `json:"description,omitempty"`
}
