package tasks

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/storysounds/internal/matching"
	"github.com/desertthunder/storysounds/internal/models"
	th "github.com/desertthunder/storysounds/internal/testing"
)

func quietLogger() *log.Logger {
	return log.New(io.Discard)
}

func numberedRecs(n int) []models.Recommendation {
	recs := make([]models.Recommendation, n)
	for i := range recs {
		recs[i] = models.Recommendation{
			Song:   fmt.Sprintf("Melody Number%d", i+1),
			Artist: fmt.Sprintf("Band%d", i+1),
			Reason: "fits the mood",
		}
	}
	return recs
}

// stockCatalog answers the combined query of every rec with an exact match.
func stockCatalog(recs []models.Recommendation) *th.FakeCatalog {
	catalog := th.NewFakeCatalog()
	for i, r := range recs {
		q := matching.NormalizeQuery(r)
		catalog.Results[q.Artist+" "+q.Song] = []models.CandidateTrack{
			th.Track(fmt.Sprintf("trk%d", i+1), r.Song, 50, r.Artist),
		}
	}
	return catalog
}

func newResolver(catalog *th.FakeCatalog) *TrackResolver {
	return NewTrackResolver(NewCandidateSearcher(catalog, quietLogger()), matching.NewScorer(), DefaultStrategies(), quietLogger())
}

func recsJSON(recs []models.Recommendation) string {
	data, err := json.Marshal(recs)
	if err != nil {
		panic(err)
	}
	return string(data)
}

func officialVideo(id string, r models.Recommendation) models.Video {
	return models.Video{
		VideoID:      id,
		Title:        r.Artist + " - " + r.Song + " (Official Music Video)",
		ChannelTitle: r.Artist + "VEVO",
	}
}
