// package formatter exports generated playlists to JSON, CSV, Markdown and plain text
package formatter

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/desertthunder/storysounds/internal/models"
	"github.com/desertthunder/storysounds/internal/shared"
)

// Format names an export format.
type Format string

const (
	JSON     Format = "json"
	CSV      Format = "csv"
	Markdown Format = "markdown"
	Text     Format = "text"
)

// ParseFormat accepts the format names and their common aliases.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "json":
		return JSON, nil
	case "csv":
		return CSV, nil
	case "markdown", "md":
		return Markdown, nil
	case "text", "txt", "":
		return Text, nil
	default:
		return "", fmt.Errorf("%w: unknown format %q (want json, csv, markdown or text)", shared.ErrInvalidFlag, s)
	}
}

// Extension returns the file extension for f.
func (f Format) Extension() string {
	switch f {
	case JSON:
		return ".json"
	case CSV:
		return ".csv"
	case Markdown:
		return ".md"
	default:
		return ".txt"
	}
}

// Title derives a display title from the mood text.
func Title(resp *models.PlaylistResponse) string {
	line, _, _ := strings.Cut(strings.TrimSpace(resp.Transcription), "\n")
	if line == "" {
		return "Untitled playlist"
	}
	return shared.Truncate(line, 60)
}

// Export renders resp in the given format.
func Export(resp *models.PlaylistResponse, format Format) ([]byte, error) {
	switch format {
	case JSON:
		return ExportToJSON(resp)
	case CSV:
		return ExportToCSV(resp)
	case Markdown:
		return ExportToMarkdown(resp, "")
	case Text:
		return ExportToText(resp)
	default:
		return nil, fmt.Errorf("%w: unknown format %q", shared.ErrInvalidFlag, format)
	}
}

// Write renders resp and writes it to w.
func Write(w io.Writer, resp *models.PlaylistResponse, format Format) error {
	data, err := Export(resp, format)
	if err != nil {
		return err
	}
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("failed to write %s export: %w", format, err)
	}
	return nil
}

// ExportToJSON returns the response exactly as the API serves it, indented.
func ExportToJSON(resp *models.PlaylistResponse) ([]byte, error) {
	data, err := json.MarshalIndent(resp, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode JSON: %w", err)
	}
	return append(data, '\n'), nil
}

// ExportToCSV converts the playlist to CSV with one row per track.
func ExportToCSV(resp *models.PlaylistResponse) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	headers := []string{"Position", "Title", "Artist", "Album", "Spotify URL", "Preview URL", "YouTube URL", "Reason"}
	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for i, track := range resp.SpotifyTracks {
		record := []string{
			strconv.Itoa(i + 1),
			track.Name,
			track.Artist,
			track.Album,
			track.ExternalURL,
			deref(track.PreviewURL),
			youTubeURL(track),
			track.Recommendation.Reason,
		}
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}

	return buf.Bytes(), nil
}

// ExportToMarkdown converts the playlist to Markdown with an optional cover image
func ExportToMarkdown(resp *models.PlaylistResponse, imageFilename string) ([]byte, error) {
	var buf bytes.Buffer
	s := resp.PlaylistSummary

	fmt.Fprintf(&buf, "# %s\n\n", Title(resp))

	if imageFilename != "" {
		fmt.Fprintf(&buf, "![Cover](%s)\n\n", imageFilename)
	}

	fmt.Fprintf(&buf, "> %s\n\n", strings.ReplaceAll(strings.TrimSpace(resp.Transcription), "\n", "\n> "))
	fmt.Fprintf(&buf, "**Tracks**: %d of %d recommended\n", s.FoundOnSpotify, s.TotalRecommended)
	fmt.Fprintf(&buf, "**Previews**: %d (%d Spotify, %d YouTube)\n\n", s.TotalPreviews, s.SpotifyPreviews, s.YouTubePreviews)

	buf.WriteString("## Tracks\n\n")
	for i, track := range resp.SpotifyTracks {
		albumPart := ""
		if track.Album != "" {
			albumPart = fmt.Sprintf(" (%s)", track.Album)
		}
		title := track.Name
		if track.ExternalURL != "" {
			title = fmt.Sprintf("[%s](%s)", track.Name, track.ExternalURL)
		}
		fmt.Fprintf(&buf, "%d. %s - %s%s", i+1, track.Artist, title, albumPart)
		if u := youTubeURL(track); u != "" {
			fmt.Fprintf(&buf, " [▶](%s)", u)
		}
		buf.WriteString("\n")
		if reason := strings.TrimSpace(track.Recommendation.Reason); reason != "" {
			fmt.Fprintf(&buf, "   - _%s_\n", reason)
		}
	}

	if missing := unresolved(resp); len(missing) > 0 {
		buf.WriteString("\n## Not found\n\n")
		for _, r := range missing {
			fmt.Fprintf(&buf, "- %s\n", r)
		}
	}

	return buf.Bytes(), nil
}

// ExportToText converts the playlist to plain text format
func ExportToText(resp *models.PlaylistResponse) ([]byte, error) {
	var buf bytes.Buffer
	s := resp.PlaylistSummary

	fmt.Fprintf(&buf, "Playlist: %s\n", Title(resp))
	fmt.Fprintf(&buf, "Tracks: %d of %d recommended, %d with previews\n\n", s.FoundOnSpotify, s.TotalRecommended, s.TotalPreviews)

	for i, track := range resp.SpotifyTracks {
		marker := ""
		if track.PreviewURL != nil || track.YouTubePreview != nil {
			marker = " ♪"
		}
		fmt.Fprintf(&buf, "%d. %s - %s%s\n", i+1, track.Artist, track.Name, marker)
	}

	return buf.Bytes(), nil
}

// unresolved lists recommendations that did not produce a track.
func unresolved(resp *models.PlaylistResponse) []models.Recommendation {
	found := make(map[models.Recommendation]bool, len(resp.SpotifyTracks))
	for _, t := range resp.SpotifyTracks {
		found[t.Recommendation] = true
	}
	var out []models.Recommendation
	for _, r := range resp.AIRecommendations {
		if !found[r] {
			out = append(out, r)
		}
	}
	return out
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func youTubeURL(t models.TrackView) string {
	if t.YouTubePreview == nil {
		return ""
	}
	return t.YouTubePreview.YouTubeURL
}

// DownloadImage downloads an image from the given URL and returns the raw bytes
func DownloadImage(url string) ([]byte, error) {
	if url == "" {
		return nil, fmt.Errorf("empty URL provided")
	}

	client := &http.Client{
		Timeout: 30 * time.Second,
	}

	resp, err := client.Get(url)
	if err != nil {
		return nil, fmt.Errorf("failed to download image: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("failed to download image: status %d", resp.StatusCode)
	}

	imageData, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read image data: %w", err)
	}

	return imageData, nil
}

// WriteExport writes resp to path in the given format, defaulting to playlist{ext} in the working directory.
func WriteExport(resp *models.PlaylistResponse, format Format, path string) (string, error) {
	if path == "" {
		path = "playlist" + format.Extension()
	}

	data, err := Export(resp, format)
	if err != nil {
		return "", err
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write %s file: %w", format, err)
	}

	return path, nil
}

// MarkdownExportResult contains information about files created by WriteMarkdownExport
type MarkdownExportResult struct {
	Directory  string
	Files      []string
	CoverImage string
}

// WriteMarkdownExport exports a playlist to Markdown format in a dedicated directory.
//
// The cover is the first track's album art; a failed download only drops the image.
// Creates a directory structure: {dir}/README.md and optionally {dir}/cover.jpg
func WriteMarkdownExport(resp *models.PlaylistResponse, outputDir string) (*MarkdownExportResult, error) {
	if outputDir == "" {
		outputDir = "playlist"
	}

	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	result := &MarkdownExportResult{
		Directory: outputDir,
		Files:     []string{},
	}

	var coverImageFilename string
	if len(resp.SpotifyTracks) > 0 && resp.SpotifyTracks[0].Image != "" {
		imageData, err := DownloadImage(resp.SpotifyTracks[0].Image)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Warning: failed to download cover image: %v\n", err)
		} else {
			coverImageFilename = "cover.jpg"
			coverImagePath := filepath.Join(outputDir, coverImageFilename)
			if err := os.WriteFile(coverImagePath, imageData, 0644); err != nil {
				fmt.Fprintf(os.Stderr, "Warning: failed to save cover image: %v\n", err)
				coverImageFilename = ""
			} else {
				result.CoverImage = coverImagePath
				result.Files = append(result.Files, coverImagePath)
			}
		}
	}

	mdData, err := ExportToMarkdown(resp, coverImageFilename)
	if err != nil {
		return nil, fmt.Errorf("failed to generate Markdown: %w", err)
	}

	mdFile := filepath.Join(outputDir, "README.md")
	if err := os.WriteFile(mdFile, mdData, 0644); err != nil {
		return nil, fmt.Errorf("failed to write Markdown file: %w", err)
	}

	result.Files = append(result.Files, mdFile)

	return result, nil
}
