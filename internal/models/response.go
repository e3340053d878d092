package models

// TrackView is the flattened track shape returned to clients.
type TrackView struct {
	ID             string          `json:"id"`
	Name           string          `json:"name"`
	Artist         string          `json:"artist"`
	Album          string          `json:"album"`
	PreviewURL     *string         `json:"previewUrl"`
	YouTubePreview *YouTubePreview `json:"youtubePreview"`
	ExternalURL    string          `json:"externalUrl"`
	Image          string          `json:"image"`
	Recommendation Recommendation  `json:"recommendation"`
}

// NewTrackView flattens an enriched track.
func NewTrackView(t EnrichedTrack) TrackView {
	view := TrackView{
		ID:             t.ID,
		Name:           t.Name,
		Artist:         t.ArtistNames(),
		Album:          t.Album.Name,
		YouTubePreview: t.YouTubePreview,
		ExternalURL:    t.ExternalURL,
		Image:          t.ImageURL(),
		Recommendation: t.Recommendation,
	}
	if t.PreviewURL != "" {
		preview := t.PreviewURL
		view.PreviewURL = &preview
	}
	return view
}

// PlaylistSummary aggregates counts over the assembled playlist.
type PlaylistSummary struct {
	TotalRecommended int  `json:"totalRecommended"`
	FoundOnSpotify   int  `json:"foundOnSpotify"`
	SpotifyPreviews  int  `json:"spotifyPreviews"`
	YouTubePreviews  int  `json:"youtubePreviews"`
	TotalPreviews    int  `json:"totalPreviews"`
	Success          bool `json:"success"`
}

// PlaylistResponse is the final pipeline output.
type PlaylistResponse struct {
	RunID             string           `json:"runId,omitempty"`
	Transcription     string           `json:"transcription"`
	AIRecommendations []Recommendation `json:"aiRecommendations"`
	SpotifyTracks     []TrackView      `json:"spotifyTracks"`
	PlaylistSummary   PlaylistSummary  `json:"playlistSummary"`
}

// NewPlaylistResponse assembles the response and its summary.
func NewPlaylistResponse(text string, recs []Recommendation, tracks []EnrichedTrack) *PlaylistResponse {
	resp := &PlaylistResponse{
		Transcription:     text,
		AIRecommendations: recs,
		SpotifyTracks:     make([]TrackView, 0, len(tracks)),
		PlaylistSummary: PlaylistSummary{
			TotalRecommended: len(recs),
			FoundOnSpotify:   len(tracks),
			Success:          true,
		},
	}
	if resp.AIRecommendations == nil {
		resp.AIRecommendations = []Recommendation{}
	}

	for _, t := range tracks {
		resp.SpotifyTracks = append(resp.SpotifyTracks, NewTrackView(t))
		if t.PreviewURL != "" {
			resp.PlaylistSummary.SpotifyPreviews++
		}
		if t.YouTubePreview != nil {
			resp.PlaylistSummary.YouTubePreviews++
		}
		if t.HasPreview() {
			resp.PlaylistSummary.TotalPreviews++
		}
	}
	return resp
}
