package timeline

import (
	"fmt"

	"github.com/desertthunder/moodfit/internal/services"
)

// Outcome is the tagged result of one provider call: either Value or Err is meaningful.
type Outcome[T any] struct {
	Value T
	Err   error
}

// Attempt wraps a (value, error) return pair.
func Attempt[T any](v T, err error) Outcome[T] {
	return Outcome[T]{Value: v, Err: err}
}

// OK reports whether the call succeeded.
func (o Outcome[T]) OK() bool {
	return o.Err == nil
}

// Stage names the kind of provider call that failed.
type Stage string

const (
	StageTopTracks     Stage = "top_tracks"
	StageAudioFeatures Stage = "audio_features"
	StageArtist        Stage = "artist"
)

// Failure records one provider call that was skipped.
type Failure struct {
	Window services.TimeRange
	Stage  Stage
	Item   string // track or artist id; empty for window-level failures
	Err    error
}

func (f Failure) Error() string {
	if f.Item == "" {
		return fmt.Sprintf("%s/%s: %v", f.Window, f.Stage, f.Err)
	}
	return fmt.Sprintf("%s/%s %s: %v", f.Window, f.Stage, f.Item, f.Err)
}

func (f Failure) Unwrap() error {
	return f.Err
}

// Report is the result of a timeline build: the windows that succeeded and every skipped call.
type Report struct {
	Timeline Timeline
	Failures []Failure
}

// Empty reports whether no window succeeded.
func (r *Report) Empty() bool {
	return len(r.Timeline) == 0
}

func (r *Report) fail(window services.TimeRange, stage Stage, item string, err error) {
	r.Failures = append(r.Failures, Failure{Window: window, Stage: stage, Item: item, Err: err})
}
