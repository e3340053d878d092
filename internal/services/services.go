package services

import (
	"context"
	"io"

	"github.com/desertthunder/storysounds/internal/models"
)

// Catalog searches the music catalog for tracks.
type Catalog interface {
	// Authorize verifies that catalog credentials can be obtained.
	Authorize(ctx context.Context) error

	// Search returns at most limit tracks matching query.
	Search(ctx context.Context, query string, limit int) ([]models.CandidateTrack, error)
}

// VideoSearcher searches a video platform.
type VideoSearcher interface {
	Search(ctx context.Context, query string, maxResults int) ([]models.Video, error)
}

// Completer returns the text completion for a prompt.
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// Transcriber converts recorded audio to text.
type Transcriber interface {
	Transcribe(ctx context.Context, filename string, audio io.Reader) (string, error)
}

const (
	providerSpotify = "spotify"
	providerYouTube = "youtube"
	providerOpenAI  = "openai"
	providerOllama  = "ollama"
)
