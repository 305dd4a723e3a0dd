package timeline

import (
	"math"
	"testing"

	"github.com/ivlev/scenecast/internal/script"
)

type fakeProbe struct {
	durations map[int]float64
	errs      map[int]error
}

func (f fakeProbe) SceneAudioDuration(id int) (float64, bool, error) {
	if err, bad := f.errs[id]; bad {
		return 0, true, err
	}
	d, ok := f.durations[id]
	return d, ok, nil
}

func doc(scenes ...script.Scene) *script.Document {
	return &script.Document{Title: "t", Scenes: scenes}
}

func TestEstimateFloor(t *testing.T) {
	// "Peter swings through the city at dawn." — 7 words
	s := script.Scene{ID: 1, Narration: "Peter swings through the city at dawn."}
	got := Estimate(s.WordCount())
	if got != 3.0 {
		t.Errorf("7 words should hit the 3s floor, got %f", got)
	}

	if got := Estimate(30); math.Abs(got-10.0) > 1e-9 {
		t.Errorf("30 words = 10s, got %f", got)
	}
}

func TestMeasuredAudioIsAuthoritative(t *testing.T) {
	d := doc(
		script.Scene{ID: 1, Narration: "one two three four five six seven eight nine"},
		script.Scene{ID: 2, Narration: "short"},
	)
	probe := fakeProbe{durations: map[int]float64{1: 12.5}}

	tm := Plan(d, probe, 120)

	if tm.Durations[1] != 12.5 {
		t.Errorf("scene 1 should use measured 12.5s, got %f", tm.Durations[1])
	}
	if tm.Durations[2] != 3.0 {
		t.Errorf("scene 2 should use floored estimate, got %f", tm.Durations[2])
	}
	if tm.RescaleFactor != 1.0 {
		t.Errorf("no rescale expected, factor %f", tm.RescaleFactor)
	}
	if len(tm.Estimated) != 1 || tm.Estimated[0] != 2 {
		t.Errorf("only scene 2 should be estimated, got %v", tm.Estimated)
	}
}

func TestBudgetRescale(t *testing.T) {
	d := doc(
		script.Scene{ID: 1, Narration: "a"},
		script.Scene{ID: 2, Narration: "b"},
	)
	probe := fakeProbe{durations: map[int]float64{1: 80, 2: 80}}

	tm := Plan(d, probe, 120)

	if math.Abs(tm.RescaleFactor-0.75) > 1e-9 {
		t.Fatalf("expected factor 0.75, got %f", tm.RescaleFactor)
	}
	if math.Abs(tm.Durations[1]-60) > 1e-9 || math.Abs(tm.Durations[2]-60) > 1e-9 {
		t.Errorf("expected 60/60, got %f/%f", tm.Durations[1], tm.Durations[2])
	}
	if tm.Total > 120+1e-9 {
		t.Errorf("total %f exceeds budget", tm.Total)
	}
}

func TestRescalePreservesProportions(t *testing.T) {
	d := doc(
		script.Scene{ID: 1, Narration: "a"},
		script.Scene{ID: 2, Narration: "b"},
		script.Scene{ID: 3, Narration: "c"},
	)
	probe := fakeProbe{durations: map[int]float64{1: 30, 2: 60, 3: 90}}

	tm := Plan(d, probe, 120)

	// 180s total against 120s budget: every ratio must survive.
	ratio12 := tm.Durations[1] / tm.Durations[2]
	ratio23 := tm.Durations[2] / tm.Durations[3]
	if math.Abs(ratio12-0.5) > 1e-9 || math.Abs(ratio23-(60.0/90.0)) > 1e-9 {
		t.Errorf("proportions changed: %f %f", ratio12, ratio23)
	}
}

func TestRescaleMayDropBelowFloor(t *testing.T) {
	// Twenty 10s scenes against a 30s budget: scenes end up at 1.5s.
	var scenes []script.Scene
	durations := map[int]float64{}
	for i := 1; i <= 20; i++ {
		scenes = append(scenes, script.Scene{ID: i, Narration: "x"})
		durations[i] = 10
	}
	tm := Plan(doc(scenes...), fakeProbe{durations: durations}, 30)

	for id, dur := range tm.Durations {
		if math.Abs(dur-1.5) > 1e-9 {
			t.Errorf("scene %d: expected 1.5s after rescale, got %f", id, dur)
		}
	}
}

func TestProbeErrorFallsBackToEstimate(t *testing.T) {
	d := doc(script.Scene{ID: 1, Narration: "one two three four five six seven eight nine ten eleven twelve"})
	probe := fakeProbe{errs: map[int]error{1: errFake}}

	tm := Plan(d, probe, 120)

	if math.Abs(tm.Durations[1]-4.0) > 1e-9 {
		t.Errorf("12 words = 4s estimate, got %f", tm.Durations[1])
	}
	if len(tm.Estimated) != 1 {
		t.Errorf("scene should be marked estimated")
	}
}

var errFake = errProbe("unreadable audio")

type errProbe string

func (e errProbe) Error() string { return string(e) }
