// Package timeline derives per-scene durations and fits them under the
// maximum program length.
package timeline

import (
	"github.com/ivlev/scenecast/internal/script"
)

// Words per second assumed for narration without a recording, and the
// floor below which an estimated scene never falls.
const (
	WordsPerSecond = 3.0
	MinSceneSecs   = 3.0
)

// AudioProbe measures per-scene narration recordings. The ok result is
// false when no recording exists for the scene.
type AudioProbe interface {
	SceneAudioDuration(sceneID int) (duration float64, ok bool, err error)
}

// Timing is the one timing map of a run. It is produced once and never
// mutated; a rescale builds a new map.
type Timing struct {
	// Durations maps scene_id to seconds. Always > 0.
	Durations map[int]float64
	// Total is the sum of all durations after budget fitting.
	Total float64
	// RescaleFactor is 1.0 when the script fit the budget, otherwise
	// the uniform factor every duration was multiplied by.
	RescaleFactor float64
	// Estimated lists scenes whose duration came from word count
	// rather than a measured recording.
	Estimated []int
}

// Estimate converts a narration word count to seconds at the assumed
// speaking rate, floored so no scene degenerates to zero length.
func Estimate(wordCount int) float64 {
	d := float64(wordCount) / WordsPerSecond
	if d < MinSceneSecs {
		return MinSceneSecs
	}
	return d
}

// Plan derives a duration for every scene and uniformly rescales the
// set when the total exceeds maxDuration.
//
// A measured recording is authoritative; scenes without one (or whose
// recording cannot be measured) use the word-count estimate. The floor
// is not re-applied after rescaling: very long scripts can legally
// produce sub-3s scenes, and the factor is surfaced so the caller can
// report the pacing change.
func Plan(doc *script.Document, probe AudioProbe, maxDuration float64) *Timing {
	t := &Timing{
		Durations:     make(map[int]float64, len(doc.Scenes)),
		RescaleFactor: 1.0,
	}

	for _, s := range doc.Scenes {
		d, ok, err := probe.SceneAudioDuration(s.ID)
		if !ok || err != nil || d <= 0 {
			d = Estimate(s.WordCount())
			t.Estimated = append(t.Estimated, s.ID)
		}
		t.Durations[s.ID] = d
		t.Total += d
	}

	if maxDuration > 0 && t.Total > maxDuration {
		factor := maxDuration / t.Total
		scaled := make(map[int]float64, len(t.Durations))
		total := 0.0
		for id, d := range t.Durations {
			scaled[id] = d * factor
			total += scaled[id]
		}
		t.Durations = scaled
		t.Total = total
		t.RescaleFactor = factor
	}

	return t
}
