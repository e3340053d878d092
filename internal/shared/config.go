package shared

import (
	_ "embed"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/go-playground/validator/v10"
)

//go:embed config.example.toml
var exampleConf []byte

var validate = validator.New()

// Config represents the application configuration loaded from a TOML file.
type Config struct {
	Credentials CredentialsConfig `toml:"credentials"`
	Database    DatabaseConfig    `toml:"database"`
	Server      ServerConfig      `toml:"server"`
	Pipeline    PipelineConfig    `toml:"pipeline"`
	Matching    MatchingConfig    `toml:"matching"`
}

// CredentialsConfig contains provider-specific credentials.
type CredentialsConfig struct {
	Spotify SpotifyConfig `toml:"spotify"`
	YouTube YouTubeConfig `toml:"youtube"`
	OpenAI  OpenAIConfig  `toml:"openai"`
	Ollama  OllamaConfig  `toml:"ollama"`
}

// SpotifyConfig contains Spotify client-credential settings for catalog search.
type SpotifyConfig struct {
	ClientID          string  `toml:"client_id"`
	ClientSecret      string  `toml:"client_secret"`
	TokenURL          string  `toml:"token_url"`
	BaseURL           string  `toml:"base_url"`
	Market            string  `toml:"market"`
	RequestsPerSecond float64 `toml:"requests_per_second" validate:"gte=0"`
	MaxRetries        int     `toml:"max_retries" validate:"gte=0,lte=10"`
}

// YouTubeConfig contains YouTube Data API settings.
type YouTubeConfig struct {
	APIKey            string  `toml:"api_key"`
	BaseURL           string  `toml:"base_url"`
	RequestsPerSecond float64 `toml:"requests_per_second" validate:"gte=0"`
}

// OpenAIConfig contains chat completion and transcription settings.
type OpenAIConfig struct {
	APIKey             string  `toml:"api_key"`
	BaseURL            string  `toml:"base_url"`
	Model              string  `toml:"model"`
	TranscriptionModel string  `toml:"transcription_model"`
	Temperature        float64 `toml:"temperature" validate:"gte=0,lte=2"`
}

// OllamaConfig points at a local Ollama server.
type OllamaConfig struct {
	BaseURL string `toml:"base_url"`
	Model   string `toml:"model"`
}

// DatabaseConfig contains database connection settings.
type DatabaseConfig struct {
	Path         string `toml:"path"`
	MaxOpenConns int    `toml:"max_open_conns"`
	MaxIdleConns int    `toml:"max_idle_conns"`
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	Host              string        `toml:"host"`
	Port              int           `toml:"port" validate:"gte=1,lte=65535"`
	AllowedOrigins    []string      `toml:"allowed_origins"`
	RateLimitRequests int           `toml:"rate_limit_requests" validate:"gte=0"`
	RateLimitWindow   time.Duration `toml:"rate_limit_window"`
	MaxUploadMB       int           `toml:"max_upload_mb" validate:"gte=1"`
	ShutdownTimeout   time.Duration `toml:"shutdown_timeout"`
}

// PipelineConfig tunes the recommendation pipeline.
type PipelineConfig struct {
	Provider              string        `toml:"provider" validate:"oneof=openai ollama"`
	RecommendationCount   int           `toml:"recommendation_count" validate:"gte=1,lte=50"`
	RecommendationRetries int           `toml:"recommendation_retries" validate:"gte=0,lte=5"`
	Strategies            []string      `toml:"strategies" validate:"min=1,dive,oneof=combined artist-first exact fallback"`
	ResolveConcurrency    int           `toml:"resolve_concurrency" validate:"gte=0"`
	CulturalFilter        bool          `toml:"cultural_filter"`
	CulturalFloor         int           `toml:"cultural_floor" validate:"gte=0"`
	PreviewEnabled        bool          `toml:"preview_enabled"`
	PreviewConcurrency    int           `toml:"preview_concurrency" validate:"gte=1"`
	PreviewChunkDelay     time.Duration `toml:"preview_chunk_delay"`
	PreviewMaxResults     int           `toml:"preview_max_results" validate:"gte=1,lte=50"`
	PreflightSong         string        `toml:"preflight_song"`
	PreflightArtist       string        `toml:"preflight_artist"`
	RequestTimeout        time.Duration `toml:"request_timeout"`
	RunTimeout            time.Duration `toml:"run_timeout"`
	SaveRuns              bool          `toml:"save_runs"`
}

// MatchingConfig holds the tunable thresholds of the match and video scorers.
type MatchingConfig struct {
	SongGate        float64  `toml:"song_gate" validate:"gte=0,lte=1"`
	ArtistGate      float64  `toml:"artist_gate" validate:"gte=0,lte=1"`
	ExcellentArtist float64  `toml:"excellent_artist" validate:"gte=0,lte=1"`
	ExcellentSong   float64  `toml:"excellent_song" validate:"gte=0,lte=1"`
	GoodArtist      float64  `toml:"good_artist" validate:"gte=0,lte=1"`
	GoodSong        float64  `toml:"good_song" validate:"gte=0,lte=1"`
	ArtistOnly      float64  `toml:"artist_only" validate:"gte=0,lte=1"`
	PreviewMinScore float64  `toml:"preview_min_score"`
	PartyKeywords   []string `toml:"party_keywords"`
	ChildKeywords   []string `toml:"child_keywords"`
}

// LoadConfig reads and parses a TOML configuration file from the specified path.
//
// Keys missing from the file keep the embedded defaults.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := toml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	return config, nil
}

// DefaultConfig returns a Config with sensible defaults loaded from the embedded example config.
func DefaultConfig() *Config {
	var config Config
	if err := toml.Unmarshal(exampleConf, &config); err != nil {
		panic(fmt.Sprintf("failed to parse embedded default config: %v", err))
	}
	return &config
}

// CreateConfigFile creates a config.toml file at the specified path using the embedded example config.
func CreateConfigFile(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}

	if err := os.WriteFile(path, exampleConf, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// ApplyEnv overrides credentials with values from the environment when set.
func (c *Config) ApplyEnv() {
	for env, target := range map[string]*string{
		"SPOTIFY_CLIENT_ID":     &c.Credentials.Spotify.ClientID,
		"SPOTIFY_CLIENT_SECRET": &c.Credentials.Spotify.ClientSecret,
		"YOUTUBE_API_KEY":       &c.Credentials.YouTube.APIKey,
		"OPENAI_API_KEY":        &c.Credentials.OpenAI.APIKey,
		"OLLAMA_HOST":           &c.Credentials.Ollama.BaseURL,
		"STORYSOUNDS_DB":        &c.Database.Path,
	} {
		if v := strings.TrimSpace(os.Getenv(env)); v != "" {
			*target = v
		}
	}
}

// Validate checks ranges and enumerations.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	if c.Matching.ExcellentArtist < c.Matching.GoodArtist {
		return fmt.Errorf("%w: excellent_artist must not be below good_artist", ErrInvalidConfig)
	}
	return nil
}

// HasSpotify reports whether catalog credentials look usable.
func (c *Config) HasSpotify() bool {
	return isSet(c.Credentials.Spotify.ClientID) && isSet(c.Credentials.Spotify.ClientSecret)
}

// HasYouTube reports whether a video search key looks usable.
func (c *Config) HasYouTube() bool {
	return isSet(c.Credentials.YouTube.APIKey)
}

// isSet rejects empty values and the placeholders shipped in the example config.
func isSet(v string) bool {
	return v != "" && !strings.HasPrefix(v, "your_")
}
