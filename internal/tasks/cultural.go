package tasks

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/storysounds/internal/matching"
	"github.com/desertthunder/storysounds/internal/metrics"
	"github.com/desertthunder/storysounds/internal/models"
	"github.com/desertthunder/storysounds/internal/services"
	"github.com/desertthunder/storysounds/internal/shared"
)

// Culture is a family of keywords that marks a request as culture-specific.
type Culture struct {
	Name        string
	Description string
	Keywords    []string // whole words or phrases; a trailing "*" matches a word prefix
}

// Cultures is checked in order; the first match wins.
var Cultures = []Culture{
	{Name: "russian", Description: "Russian-language or from Russia", Keywords: []string{"russia", "russian", "moscow", "soviet", "ussr", "st petersburg", "русск*", "росси*"}},
	{Name: "israeli", Description: "Israeli or Hebrew-language", Keywords: []string{"israel", "israeli", "hebrew", "tel aviv", "jerusalem", "עברית", "ישראל*"}},
	{Name: "arabic", Description: "Arabic-language or from the Arab world", Keywords: []string{"arab", "arabs", "arabic", "egypt", "egyptian", "lebanon", "lebanese", "morocc*", "cairo", "beirut", "عرب*"}},
	{Name: "french", Description: "French-language or from France", Keywords: []string{"france", "french", "paris", "parisian", "chanson", "chansons", "francais"}},
	{Name: "spanish", Description: "Spanish-language, from Spain or Latin America", Keywords: []string{"spain", "spanish", "latin", "latino", "latina", "mexic*", "madrid", "espanol", "reggaeton", "flamenco"}},
	{Name: "japanese", Description: "Japanese-language or from Japan", Keywords: []string{"japan", "japanese", "tokyo", "j pop", "jpop", "anime", "日本*"}},
	{Name: "korean", Description: "Korean-language or from Korea", Keywords: []string{"korea", "korean", "seoul", "k pop", "kpop", "한국*"}},
	{Name: "indian", Description: "Indian, including Bollywood and regional Indian music", Keywords: []string{"india", "indian", "bollywood", "hindi", "punjabi", "tamil", "mumbai"}},
	{Name: "brazilian", Description: "Brazilian or Portuguese-language from Brazil", Keywords: []string{"brazil", "brazilian", "brasil", "samba", "bossa nova", "rio de janeiro"}},
	{Name: "italian", Description: "Italian-language or from Italy", Keywords: []string{"italy", "italian", "naples", "italiano", "italiana"}},
	{Name: "greek", Description: "Greek-language or from Greece", Keywords: []string{"greece", "greek", "athens", "rebetiko"}},
	{Name: "turkish", Description: "Turkish-language or from Turkey", Keywords: []string{"turkish", "istanbul", "turkiye"}},
}

// DetectCulture returns the first culture with a keyword in text.
func DetectCulture(text string) (Culture, bool) {
	folded := " " + matching.NormalizeLoose(text) + " "
	for _, c := range Cultures {
		for _, kw := range c.Keywords {
			if strings.Contains(folded, keywordNeedle(kw)) {
				return c, true
			}
		}
	}
	return Culture{}, false
}

func keywordNeedle(kw string) string {
	if stem, ok := strings.CutSuffix(kw, "*"); ok {
		return " " + matching.NormalizeLoose(stem)
	}
	return " " + matching.NormalizeLoose(kw) + " "
}

var labelLine = regexp.MustCompile(`(?im)^\W*(\d+)\s*[.):\-]?\s*\**\s*(VALID|INVALID)\b`)

// ParseLabels reads "N. VALID" / "N. INVALID" lines into a 0-based index map.
//
// Out-of-range numbers are ignored. No usable label is [shared.ErrParseFailure].
func ParseLabels(raw string, n int) (map[int]bool, error) {
	labels := map[int]bool{}
	for _, m := range labelLine.FindAllStringSubmatch(raw, -1) {
		idx, err := strconv.Atoi(m[1])
		if err != nil || idx < 1 || idx > n {
			continue
		}
		labels[idx-1] = strings.EqualFold(m[2], "VALID")
	}
	if len(labels) == 0 {
		return nil, fmt.Errorf("%w: no validation labels", shared.ErrParseFailure)
	}
	return labels, nil
}

// CulturalFilter removes recommendations that do not belong to the culture named in the request and tops the list back up.
type CulturalFilter struct {
	completer services.Completer
	floor     int
	logger    *log.Logger
}

// NewCulturalFilter backfills when fewer than floor recommendations survive.
func NewCulturalFilter(completer services.Completer, floor int, logger *log.Logger) *CulturalFilter {
	return &CulturalFilter{completer: completer, floor: floor, logger: shared.WithLogger(logger, "component", "cultural")}
}

// Validate never fails. Any provider or parse error returns recs unchanged.
func (f *CulturalFilter) Validate(ctx context.Context, text string, recs []models.Recommendation, progress chan<- ProgressUpdate) []models.Recommendation {
	culture, ok := DetectCulture(text)
	if !ok || len(recs) == 0 {
		return recs
	}

	kept, rejected, err := f.judge(ctx, culture, text, recs)
	if err != nil {
		f.logger.Warn("cultural validation failed, keeping original list", "culture", culture.Name, "err", err)
		metrics.RecordCulturalValidation(culture.Name, "fail_open")
		return recs
	}
	sendProgress(progress, validateUpdate(culture.Name, len(kept), len(recs)))

	if len(kept) >= f.floor || len(kept) >= len(recs) {
		metrics.RecordCulturalValidation(culture.Name, "validated")
		return kept
	}

	filled, err := f.backfill(ctx, culture, text, kept, rejected, len(recs))
	if err != nil {
		f.logger.Warn("cultural backfill failed, keeping original list", "culture", culture.Name, "err", err)
		metrics.RecordCulturalValidation(culture.Name, "fail_open")
		return recs
	}

	metrics.RecordCulturalValidation(culture.Name, "backfilled")
	f.logger.Info("backfilled recommendations", "culture", culture.Name, "kept", len(kept), "total", len(filled))
	return filled
}

// judge splits recs into kept and rejected. Unlabelled items are kept.
func (f *CulturalFilter) judge(ctx context.Context, c Culture, text string, recs []models.Recommendation) (kept, rejected []models.Recommendation, err error) {
	raw, err := f.completer.Complete(ctx, culturalJudgePrompt(c, text, recs))
	if err != nil {
		return nil, nil, err
	}
	labels, err := ParseLabels(raw, len(recs))
	if err != nil {
		return nil, nil, err
	}

	for i, r := range recs {
		if valid, labelled := labels[i]; labelled && !valid {
			rejected = append(rejected, r)
			continue
		}
		kept = append(kept, r)
	}
	return kept, rejected, nil
}

func (f *CulturalFilter) backfill(ctx context.Context, c Culture, text string, kept, rejected []models.Recommendation, target int) ([]models.Recommendation, error) {
	need := target - len(kept)
	raw, err := f.completer.Complete(ctx, culturalBackfillPrompt(c, text, need, append(append([]models.Recommendation{}, kept...), rejected...)))
	if err != nil {
		return nil, err
	}
	extra, err := ParseRecommendations(raw)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]struct{}, target+len(rejected))
	for _, r := range kept {
		seen[matching.RecommendationKey(r)] = struct{}{}
	}
	for _, r := range rejected {
		seen[matching.RecommendationKey(r)] = struct{}{}
	}

	out := append([]models.Recommendation{}, kept...)
	for _, r := range extra {
		if len(out) >= target {
			break
		}
		key := matching.RecommendationKey(r)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, r)
	}
	return out, nil
}
