package matching

import (
	"reflect"
	"testing"

	"github.com/desertthunder/storysounds/internal/models"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"lower case", "Blinding Lights", "blinding lights"},
		{"parenthetical qualifier", "Blinding Lights (Remix)", "blinding lights"},
		{"bracketed qualifier", "Halo [Live at Wembley]", "halo"},
		{"punctuation", "Don't Stop Me Now - Remastered 2011", "don t stop me now remastered 2011"},
		{"diacritics", "Beyoncé", "beyonce"},
		{"cyrillic kept", "Кино", "кино"},
		{"whitespace", "  Blinding   Lights ", "blinding lights"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Normalize(tt.in); got != tt.want {
				t.Errorf("Normalize(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}

	t.Run("Idempotent", func(t *testing.T) {
		for _, tt := range tests {
			once := Normalize(tt.in)
			if twice := Normalize(once); twice != once {
				t.Errorf("Normalize not idempotent for %q: %q then %q", tt.in, once, twice)
			}
		}
	})
}

func TestStripFeaturing(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"The Weeknd", "The Weeknd"},
		{"Calvin Harris feat. Dua Lipa", "Calvin Harris"},
		{"Drake ft. Rihanna", "Drake"},
		{"Simon & Garfunkel", "Simon"},
		{"Marina and the Diamonds", "Marina"},
		{"Sia featuring Sean Paul", "Sia"},
		{"  ", ""},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := StripFeaturing(tt.in); got != tt.want {
				t.Errorf("StripFeaturing(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestTokensAndOverlap(t *testing.T) {
	if got := Tokens("blinding lights of my heart", 2); !reflect.DeepEqual(got, []string{"blinding", "lights", "heart"}) {
		t.Errorf("unexpected song tokens %v", got)
	}
	if got := Tokens("up", 2); !reflect.DeepEqual(got, []string{" up "}) {
		t.Errorf("short titles should fall back to the whole string, got %v", got)
	}
	if got := Tokens("", 2); got != nil {
		t.Errorf("empty input should have no tokens, got %v", got)
	}

	if got := Overlap([]string{"blinding", "lights"}, "blinding lights"); got != 1 {
		t.Errorf("expected full overlap, got %v", got)
	}
	if got := Overlap([]string{"blinding", "lights"}, "city lights"); got != 0.5 {
		t.Errorf("expected half overlap, got %v", got)
	}
	if got := Overlap(nil, "anything"); got != 0 {
		t.Errorf("no tokens should overlap 0, got %v", got)
	}

	t.Run("short title matches whole words only", func(t *testing.T) {
		up := Tokens("up", 2)
		if got := Overlap(up, "supermarket flowers"); got != 0 {
			t.Errorf("expected no overlap inside a longer word, got %v", got)
		}
		for _, field := range []string{"up", "up remastered", "never gonna give you up"} {
			if got := Overlap(up, field); got != 1 {
				t.Errorf("expected %q to contain the whole word, got %v", field, got)
			}
		}
		if got := Overlap(Tokens("i m ok", 2), "i m ok live"); got != 1 {
			t.Errorf("expected multi-word fallback to match, got %v", got)
		}
	})

	t.Run("plain tokens still match as substrings", func(t *testing.T) {
		if got := Overlap([]string{"light"}, "blinding lights"); got != 1 {
			t.Errorf("expected substring overlap, got %v", got)
		}
	})
}

func TestNormalizeQuery(t *testing.T) {
	q := NormalizeQuery(models.Recommendation{Song: ` "Blinding   Lights" `, Artist: "artist:The Weeknd\n"})
	if q.Song != "Blinding Lights" {
		t.Errorf("unexpected song %q", q.Song)
	}
	if q.Artist != "artist The Weeknd" {
		t.Errorf("unexpected artist %q", q.Artist)
	}
}

func TestKey(t *testing.T) {
	a := Key("Blinding Lights ", "The Weeknd")
	b := Key("blinding   lights", " THE WEEKND")
	if a != b {
		t.Errorf("keys should match across casing and whitespace: %q vs %q", a, b)
	}
	if a != "blinding lights___the weeknd" {
		t.Errorf("unexpected key %q", a)
	}
	if Key(a, "") != Key(Key("Blinding Lights", "The Weeknd"), "") {
		t.Error("key normalization should be idempotent")
	}
}
