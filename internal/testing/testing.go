// package testing contains shared test doubles for the provider interfaces and writer helpers
package testing

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"testing"

	"github.com/desertthunder/storysounds/internal/models"
)

// FakeCatalog is a test double for [services.Catalog].
//
// Results are keyed by exact query. Errors and panics take precedence over results.
type FakeCatalog struct {
	Results   map[string][]models.CandidateTrack
	Errors    map[string]error
	Panics    map[string]bool
	AuthErr   error
	mu        sync.Mutex
	queries   []string
	authCalls int
}

func NewFakeCatalog() *FakeCatalog {
	return &FakeCatalog{
		Results: map[string][]models.CandidateTrack{},
		Errors:  map[string]error{},
		Panics:  map[string]bool{},
	}
}

func (f *FakeCatalog) Authorize(context.Context) error {
	f.mu.Lock()
	f.authCalls++
	f.mu.Unlock()
	return f.AuthErr
}

func (f *FakeCatalog) Search(ctx context.Context, query string, limit int) ([]models.CandidateTrack, error) {
	f.mu.Lock()
	f.queries = append(f.queries, query)
	f.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if f.Panics[query] {
		panic(fmt.Sprintf("fake catalog panic for %q", query))
	}
	if err, ok := f.Errors[query]; ok {
		return nil, err
	}
	results := f.Results[query]
	if limit > 0 && len(results) > limit {
		results = results[:limit]
	}
	return results, nil
}

// Queries returns every query seen, in call order.
func (f *FakeCatalog) Queries() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.queries...)
}

func (f *FakeCatalog) AuthCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.authCalls
}

// FakeVideoSearcher is a test double for [services.VideoSearcher].
type FakeVideoSearcher struct {
	Results map[string][]models.Video
	Errors  map[string]error
	Err     error // returned for every query when set
	mu      sync.Mutex
	queries []string
}

func NewFakeVideoSearcher() *FakeVideoSearcher {
	return &FakeVideoSearcher{Results: map[string][]models.Video{}, Errors: map[string]error{}}
}

func (f *FakeVideoSearcher) Search(ctx context.Context, query string, maxResults int) ([]models.Video, error) {
	f.mu.Lock()
	f.queries = append(f.queries, query)
	f.mu.Unlock()

	if f.Err != nil {
		return nil, f.Err
	}
	if err, ok := f.Errors[query]; ok {
		return nil, err
	}
	return f.Results[query], nil
}

func (f *FakeVideoSearcher) Queries() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.queries...)
}

// ScriptedCompleter is a test double for [services.Completer] that answers by prompt content.
//
// The first rule whose Contains is a substring of the prompt wins; with no match the next Default reply is used.
type ScriptedCompleter struct {
	Rules    []CompletionRule
	Defaults []Completion
	mu       sync.Mutex
	prompts  []string
	next     int
}

// CompletionRule maps a prompt substring to a reply.
type CompletionRule struct {
	Contains string
	Reply    Completion
}

// Completion is one scripted reply.
type Completion struct {
	Text string
	Err  error
}

func (s *ScriptedCompleter) Complete(ctx context.Context, prompt string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.prompts = append(s.prompts, prompt)

	if err := ctx.Err(); err != nil {
		return "", err
	}
	for _, r := range s.Rules {
		if strings.Contains(prompt, r.Contains) {
			return r.Reply.Text, r.Reply.Err
		}
	}
	if len(s.Defaults) == 0 {
		return "", errors.New("scripted completer: no reply")
	}
	reply := s.Defaults[min(s.next, len(s.Defaults)-1)]
	s.next++
	return reply.Text, reply.Err
}

func (s *ScriptedCompleter) Prompts() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.prompts...)
}

// FakeTranscriber returns Text, or Err when set.
type FakeTranscriber struct {
	Text     string
	Err      error
	Received []byte
}

func (f *FakeTranscriber) Transcribe(_ context.Context, _ string, audio io.Reader) (string, error) {
	data, err := io.ReadAll(audio)
	if err != nil {
		return "", err
	}
	f.Received = data
	return f.Text, f.Err
}

// FWriter always returns an error on Write
type FWriter struct{}

func (f *FWriter) Write(p []byte) (n int, err error) {
	return 0, errors.New("write failed")
}

// LimitedWriter fails after a certain number of writes
type LimitedWriter struct {
	maxWrites int
	written   int
	target    io.Writer
}

func (l *LimitedWriter) Write(p []byte) (n int, err error) {
	if l.written >= l.maxWrites {
		return 0, errors.New("write limit exceeded")
	}
	l.written++
	return l.target.Write(p)
}

func NewLimitedWriter(maxWrites int, target io.Writer) *LimitedWriter {
	return &LimitedWriter{maxWrites: maxWrites, target: target}
}

func AssertFileExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Errorf("File does not exist: %s", path)
	}
}

func MustReadFile(t *testing.T, path string) string {
	t.Helper()
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read file %s: %v", path, err)
	}
	return string(content)
}

// Track builds a catalog track for tests.
func Track(id, name string, popularity int, artists ...string) models.CandidateTrack {
	t := models.CandidateTrack{ID: id, Name: name, Popularity: popularity, ExternalURL: "https://open.spotify.com/track/" + id}
	for _, a := range artists {
		t.Artists = append(t.Artists, models.Artist{Name: a})
	}
	return t
}
