package timeline

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/desertthunder/moodfit/internal/services"
	"github.com/desertthunder/moodfit/internal/shared"
)

const (
	TrackLimit    = 10 // top tracks fetched per window
	SampleSize    = 5  // leading tracks used for genres and the display list
	TopGenreCount = 5
)

// Source is the subset of a provider session the timeline needs.
type Source interface {
	TopTracks(ctx context.Context, limit int, timeRange services.TimeRange) (*services.SpotifyPaging[services.SpotifyTrack], error)
	AudioFeatures(ctx context.Context, trackID string) (*services.AudioFeatures, error)
	Artist(ctx context.Context, artistID string) (*services.SpotifyArtist, error)
}

// Window is one listening period with its display label.
type Window struct {
	Range services.TimeRange
	Label string
}

// Windows are built in this order.
var Windows = []Window{
	{Range: services.ShortTerm, Label: "Poslednji mesec"},
	{Range: services.MediumTerm, Label: "Poslednjih 6 meseci"},
	{Range: services.LongTerm, Label: "Sve vreme"},
}

// Features are averaged audio features. Zero when no vector could be fetched.
type Features struct {
	Valence      float64 `json:"valence"`
	Energy       float64 `json:"energy"`
	Danceability float64 `json:"danceability"`
}

// GenreCount is a genre and how many sampled artists carry it. It encodes as a [genre, count] pair.
type GenreCount struct {
	Genre string
	Count int
}

func (g GenreCount) MarshalJSON() ([]byte, error) {
	return json.Marshal([]any{g.Genre, g.Count})
}

func (g *GenreCount) UnmarshalJSON(data []byte) error {
	var pair []json.RawMessage
	if err := json.Unmarshal(data, &pair); err != nil {
		return err
	}
	if len(pair) != 2 {
		return fmt.Errorf("%w: genre pair has %d elements", shared.ErrInvalidInput, len(pair))
	}
	if err := json.Unmarshal(pair[0], &g.Genre); err != nil {
		return err
	}
	return json.Unmarshal(pair[1], &g.Count)
}

// TrackSummary is the display form of a track. Image is the first album image, or null.
type TrackSummary struct {
	Name    string   `json:"name"`
	Artists []string `json:"artists"`
	Image   *string  `json:"image"`
}

// WindowResult summarizes one window.
type WindowResult struct {
	Label     string         `json:"label"`
	Features  Features       `json:"features"`
	TopGenres []GenreCount   `json:"top_genres"`
	Tracks    []TrackSummary `json:"tracks"`
}

// Timeline maps window ranges to their summaries; failed windows are absent.
type Timeline map[services.TimeRange]WindowResult

// Build fetches and summarizes every window in [Windows] sequentially.
func Build(ctx context.Context, src Source) *Report {
	report := &Report{Timeline: Timeline{}}

	for _, w := range Windows {
		if result, ok := buildWindow(ctx, src, w, report); ok {
			report.Timeline[w.Range] = result
		}
	}

	return report
}

func buildWindow(ctx context.Context, src Source, w Window, report *Report) (WindowResult, bool) {
	page := Attempt(src.TopTracks(ctx, TrackLimit, w.Range))
	if !page.OK() {
		report.fail(w.Range, StageTopTracks, "", page.Err)
		return WindowResult{}, false
	}
	if page.Value == nil || len(page.Value.Items) == 0 {
		report.fail(w.Range, StageTopTracks, "", fmt.Errorf("%w: no tracks returned", shared.ErrEmptyResponse))
		return WindowResult{}, false
	}
	tracks := page.Value.Items

	var vectors []services.AudioFeatures
	for _, track := range tracks {
		f := Attempt(src.AudioFeatures(ctx, track.ID))
		if f.OK() && f.Value == nil {
			f.Err = shared.ErrEmptyResponse
		}
		if !f.OK() {
			report.fail(w.Range, StageAudioFeatures, track.ID, f.Err)
			continue
		}
		vectors = append(vectors, *f.Value)
	}

	sample := tracks[:min(SampleSize, len(tracks))]

	var genreLists [][]string
	for _, track := range sample {
		for _, artist := range track.Artists {
			a := Attempt(src.Artist(ctx, artist.ID))
			if a.OK() && a.Value == nil {
				a.Err = shared.ErrEmptyResponse
			}
			if !a.OK() {
				report.fail(w.Range, StageArtist, artist.ID, a.Err)
				continue
			}
			genreLists = append(genreLists, a.Value.Genres)
		}
	}

	return WindowResult{
		Label:     w.Label,
		Features:  Average(vectors),
		TopGenres: RankGenres(genreLists, TopGenreCount),
		Tracks:    Summarize(sample),
	}, true
}

// Average returns the arithmetic mean of valence, energy and danceability. An empty input yields zeros.
func Average(vectors []services.AudioFeatures) Features {
	var sum Features
	if len(vectors) == 0 {
		return sum
	}

	for _, v := range vectors {
		sum.Valence += v.Valence
		sum.Energy += v.Energy
		sum.Danceability += v.Danceability
	}

	n := float64(len(vectors))
	return Features{
		Valence:      sum.Valence / n,
		Energy:       sum.Energy / n,
		Danceability: sum.Danceability / n,
	}
}

// RankGenres counts genre occurrences across the given per-artist genre lists and returns
// the n most frequent, by descending count. Ties keep first-encounter order.
func RankGenres(genreLists [][]string, n int) []GenreCount {
	index := map[string]int{}
	counts := []GenreCount{}

	for _, genres := range genreLists {
		for _, genre := range genres {
			if i, ok := index[genre]; ok {
				counts[i].Count++
				continue
			}
			index[genre] = len(counts)
			counts = append(counts, GenreCount{Genre: genre, Count: 1})
		}
	}

	sort.SliceStable(counts, func(i, j int) bool {
		return counts[i].Count > counts[j].Count
	})

	return counts[:min(n, len(counts))]
}

// Summarize converts tracks to their display form.
func Summarize(tracks []services.SpotifyTrack) []TrackSummary {
	summaries := make([]TrackSummary, 0, len(tracks))

	for _, track := range tracks {
		artists := make([]string, 0, len(track.Artists))
		for _, a := range track.Artists {
			artists = append(artists, a.Name)
		}

		var image *string
		if len(track.Album.Images) > 0 {
			url := track.Album.Images[0].URL
			image = &url
		}

		summaries = append(summaries, TrackSummary{Name: track.Name, Artists: artists, Image: image})
	}

	return summaries
}
