package formatter

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/desertthunder/storysounds/internal/models"
	"github.com/desertthunder/storysounds/internal/shared"
	th "github.com/desertthunder/storysounds/internal/testing"
)

func sampleResponse(imageURL string) *models.PlaylistResponse {
	recs := []models.Recommendation{
		{Song: "Blinding Lights", Artist: "The Weeknd", Reason: "night drive energy"},
		{Song: "Halo", Artist: "Beyonce", Reason: "warm, bright"},
		{Song: "Imaginary Song", Artist: "Nobody", Reason: "never found"},
	}

	first := models.EnrichedTrack{ResolvedTrack: models.ResolvedTrack{
		CandidateTrack: th.Track("t1", "Blinding Lights", 90, "The Weeknd"),
		Recommendation: recs[0],
		SearchSuccess:  true,
	}}
	first.Album = models.Album{Name: "After Hours", Images: []models.Image{{URL: imageURL}}}
	first.PreviewURL = "https://p.scdn.co/mp3-preview/t1"

	second := models.EnrichedTrack{ResolvedTrack: models.ResolvedTrack{
		CandidateTrack: th.Track("t2", "Halo", 80, "Beyonce"),
		Recommendation: recs[1],
		SearchSuccess:  true,
	}}
	second.YouTubePreview = models.NewYouTubePreview(models.Video{VideoID: "bnVUHWCynig", Title: "Beyoncé - Halo"}, 90)

	return models.NewPlaylistResponse("a late night drive\nthrough the city", recs, []models.EnrichedTrack{first, second})
}

func TestParseFormat(t *testing.T) {
	tests := map[string]Format{"json": JSON, "CSV": CSV, "md": Markdown, "markdown": Markdown, "txt": Text, "": Text}
	for in, want := range tests {
		if got, err := ParseFormat(in); err != nil || got != want {
			t.Errorf("ParseFormat(%q) = %q, %v; want %q", in, got, err, want)
		}
	}

	if _, err := ParseFormat("xml"); !errors.Is(err, shared.ErrInvalidFlag) {
		t.Errorf("expected ErrInvalidFlag, got %v", err)
	}
}

func TestExporters(t *testing.T) {
	resp := sampleResponse("")

	t.Run("Title", func(t *testing.T) {
		if got := Title(resp); got != "a late night drive" {
			t.Errorf("unexpected title %q", got)
		}
		if got := Title(&models.PlaylistResponse{}); got != "Untitled playlist" {
			t.Errorf("unexpected empty title %q", got)
		}
	})

	t.Run("ExportToJSON", func(t *testing.T) {
		data, err := ExportToJSON(resp)
		if err != nil {
			t.Fatalf("ExportToJSON failed: %v", err)
		}

		var decoded map[string]any
		if err := json.Unmarshal(data, &decoded); err != nil {
			t.Fatalf("invalid JSON: %v", err)
		}
		for _, key := range []string{"transcription", "aiRecommendations", "spotifyTracks", "playlistSummary"} {
			if _, ok := decoded[key]; !ok {
				t.Errorf("JSON missing %q", key)
			}
		}
		if !strings.Contains(string(data), `"previewUrl": null`) {
			t.Error("expected explicit null preview for the YouTube-only track")
		}
	})

	t.Run("ExportToCSV", func(t *testing.T) {
		data, err := ExportToCSV(resp)
		if err != nil {
			t.Fatalf("ExportToCSV failed: %v", err)
		}

		lines := strings.Split(strings.TrimSpace(string(data)), "\n")
		if len(lines) != 3 {
			t.Fatalf("expected header + 2 rows, got %d", len(lines))
		}
		if lines[0] != "Position,Title,Artist,Album,Spotify URL,Preview URL,YouTube URL,Reason" {
			t.Errorf("CSV missing headers, got: %s", lines[0])
		}
		if !strings.Contains(lines[1], "https://p.scdn.co/mp3-preview/t1") || !strings.Contains(lines[1], "After Hours") {
			t.Errorf("unexpected first row %s", lines[1])
		}
		if !strings.Contains(lines[2], "https://www.youtube.com/watch?v=bnVUHWCynig") || !strings.Contains(lines[2], `"warm, bright"`) {
			t.Errorf("unexpected second row %s", lines[2])
		}
	})

	t.Run("ExportToMarkdown", func(t *testing.T) {
		t.Run("without cover image", func(t *testing.T) {
			data, err := ExportToMarkdown(resp, "")
			if err != nil {
				t.Fatalf("ExportToMarkdown failed: %v", err)
			}
			output := string(data)

			for _, want := range []string{
				"# a late night drive",
				"> a late night drive\n> through the city",
				"**Tracks**: 2 of 3 recommended",
				"**Previews**: 2 (1 Spotify, 1 YouTube)",
				"1. The Weeknd - [Blinding Lights](https://open.spotify.com/track/t1) (After Hours)",
				"   - _night drive energy_",
				"## Not found",
				"- Nobody - Imaginary Song",
			} {
				if !strings.Contains(output, want) {
					t.Errorf("Markdown missing %q\n%s", want, output)
				}
			}
			if strings.Contains(output, "![Cover]") {
				t.Error("unexpected cover image")
			}
		})

		t.Run("with cover image", func(t *testing.T) {
			data, _ := ExportToMarkdown(resp, "cover.jpg")
			if !strings.Contains(string(data), "![Cover](cover.jpg)") {
				t.Error("Markdown missing cover image")
			}
		})
	})

	t.Run("ExportToText", func(t *testing.T) {
		data, err := ExportToText(resp)
		if err != nil {
			t.Fatalf("ExportToText failed: %v", err)
		}
		output := string(data)

		if !strings.Contains(output, "Playlist: a late night drive\n") || !strings.Contains(output, "Tracks: 2 of 3 recommended, 2 with previews") {
			t.Errorf("unexpected header\n%s", output)
		}
		if !strings.Contains(output, "1. The Weeknd - Blinding Lights ♪\n2. Beyonce - Halo ♪") {
			t.Errorf("unexpected track list\n%s", output)
		}
	})

	t.Run("empty playlist", func(t *testing.T) {
		empty := models.NewPlaylistResponse("quiet", []models.Recommendation{{Song: "A", Artist: "B"}}, nil)
		for _, f := range []Format{JSON, CSV, Markdown, Text} {
			if _, err := Export(empty, f); err != nil {
				t.Errorf("%s export failed: %v", f, err)
			}
		}
	})
}

func TestWrite(t *testing.T) {
	resp := sampleResponse("")

	t.Run("failing writer", func(t *testing.T) {
		if err := Write(&th.FWriter{}, resp, Text); err == nil {
			t.Error("expected write error")
		}
	})

	t.Run("limited writer", func(t *testing.T) {
		var sb strings.Builder
		w := th.NewLimitedWriter(1, &sb)
		if err := Write(w, resp, CSV); err != nil {
			t.Fatalf("single write should succeed: %v", err)
		}
		if err := Write(w, resp, CSV); err == nil {
			t.Error("expected second write to fail")
		}
	})

	t.Run("unknown format", func(t *testing.T) {
		if err := Write(&strings.Builder{}, resp, Format("xml")); !errors.Is(err, shared.ErrInvalidFlag) {
			t.Errorf("expected ErrInvalidFlag, got %v", err)
		}
	})
}

func TestDownloadImage(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/missing.jpg" {
			http.NotFound(w, r)
			return
		}
		w.Write([]byte("jpeg bytes"))
	}))
	defer server.Close()

	t.Run("Success", func(t *testing.T) {
		data, err := DownloadImage(server.URL + "/cover.jpg")
		if err != nil || string(data) != "jpeg bytes" {
			t.Errorf("unexpected result %q %v", data, err)
		}
	})

	t.Run("NotFound", func(t *testing.T) {
		if _, err := DownloadImage(server.URL + "/missing.jpg"); err == nil {
			t.Error("expected error for 404")
		}
	})

	t.Run("EmptyURL", func(t *testing.T) {
		if _, err := DownloadImage(""); err == nil {
			t.Error("expected error for empty URL")
		}
	})
}

func TestFileExports(t *testing.T) {
	t.Run("WriteExport", func(t *testing.T) {
		t.Run("WithDefaultPath", func(t *testing.T) {
			t.Chdir(t.TempDir())

			path, err := WriteExport(sampleResponse(""), CSV, "")
			if err != nil {
				t.Fatalf("WriteExport failed: %v", err)
			}
			if path != "playlist.csv" {
				t.Errorf("unexpected default path %q", path)
			}
			th.AssertFileExists(t, path)
		})

		t.Run("WithCustomPath", func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "drive.json")
			if _, err := WriteExport(sampleResponse(""), JSON, path); err != nil {
				t.Fatalf("WriteExport failed: %v", err)
			}
			if !strings.Contains(th.MustReadFile(t, path), `"foundOnSpotify": 2`) {
				t.Error("expected JSON summary in file")
			}
		})

		t.Run("UnwritableDirectory", func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "missing", "out.txt")
			if _, err := WriteExport(sampleResponse(""), Text, path); err == nil {
				t.Error("expected error for missing directory")
			}
		})
	})

	t.Run("WriteMarkdownExport", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != "/cover.jpg" {
				http.NotFound(w, r)
				return
			}
			w.Write([]byte("jpeg bytes"))
		}))
		defer server.Close()

		t.Run("WithCover", func(t *testing.T) {
			dir := filepath.Join(t.TempDir(), "drive")
			result, err := WriteMarkdownExport(sampleResponse(server.URL+"/cover.jpg"), dir)
			if err != nil {
				t.Fatalf("WriteMarkdownExport failed: %v", err)
			}
			if len(result.Files) != 2 || result.CoverImage != filepath.Join(dir, "cover.jpg") {
				t.Errorf("unexpected result %+v", result)
			}
			if !strings.Contains(th.MustReadFile(t, filepath.Join(dir, "README.md")), "![Cover](cover.jpg)") {
				t.Error("README missing cover reference")
			}
		})

		t.Run("CoverDownloadFails", func(t *testing.T) {
			dir := filepath.Join(t.TempDir(), "drive")
			result, err := WriteMarkdownExport(sampleResponse(server.URL+"/gone.jpg"), dir)
			if err != nil {
				t.Fatalf("WriteMarkdownExport failed: %v", err)
			}
			if result.CoverImage != "" || len(result.Files) != 1 {
				t.Errorf("expected README only, got %+v", result)
			}
		})

		t.Run("WithDefaultDirectory", func(t *testing.T) {
			t.Chdir(t.TempDir())
			result, err := WriteMarkdownExport(sampleResponse(""), "")
			if err != nil {
				t.Fatalf("WriteMarkdownExport failed: %v", err)
			}
			if result.Directory != "playlist" {
				t.Errorf("unexpected directory %q", result.Directory)
			}
			if _, err := os.Stat(filepath.Join("playlist", "README.md")); err != nil {
				t.Errorf("README not written: %v", err)
			}
		})
	})
}
