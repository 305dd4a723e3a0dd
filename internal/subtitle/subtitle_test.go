package subtitle

import (
	"math"
	"strings"
	"testing"

	"github.com/ivlev/scenecast/internal/script"
)

func TestWrapTextNeverSplitsWords(t *testing.T) {
	text := "Peter swings through the city at dawn while the rooftops glow"
	wrapped := WrapText(text, 20)

	for _, line := range strings.Split(wrapped, "\n") {
		if len(line) > 20 {
			t.Errorf("line %q exceeds 20 chars", line)
		}
	}
	if strings.ReplaceAll(wrapped, "\n", " ") != text {
		t.Errorf("wrapping lost or reordered words: %q", wrapped)
	}
}

func TestWrapTextLongWordGetsOwnLine(t *testing.T) {
	wrapped := WrapText("a Supercalifragilistic b", 10)
	lines := strings.Split(wrapped, "\n")
	if len(lines) != 3 {
		t.Fatalf("expected 3 lines, got %v", lines)
	}
	if lines[1] != "Supercalifragilistic" {
		t.Errorf("oversized word should stand alone, got %q", lines[1])
	}
}

func TestFormatTime(t *testing.T) {
	tests := []struct {
		seconds float64
		want    string
	}{
		{0, "00:00:00,000"},
		{3.5, "00:00:03,500"},
		{61.25, "00:01:01,250"},
		{3725.25, "01:02:05,250"},
	}
	for _, tt := range tests {
		if got := FormatTime(tt.seconds); got != tt.want {
			t.Errorf("FormatTime(%f) = %q, want %q", tt.seconds, got, tt.want)
		}
	}
}

func TestBuildCuesInsetsAndOrder(t *testing.T) {
	doc := &script.Document{Scenes: []script.Scene{
		{ID: 1, Narration: "First scene narration."},
		{ID: 2, Narration: "Second scene narration."},
	}}
	durations := map[int]float64{1: 4.0, 2: 6.0}

	cues, skipped := BuildCues(doc, durations)
	if len(skipped) != 0 {
		t.Fatalf("nothing should be skipped: %v", skipped)
	}
	if len(cues) != 2 {
		t.Fatalf("expected 2 cues, got %d", len(cues))
	}

	if math.Abs(cues[0].Start-0.1) > 1e-9 || math.Abs(cues[0].End-3.9) > 1e-9 {
		t.Errorf("cue 0 window wrong: %f..%f", cues[0].Start, cues[0].End)
	}
	if math.Abs(cues[1].Start-4.1) > 1e-9 || math.Abs(cues[1].End-9.9) > 1e-9 {
		t.Errorf("cue 1 window wrong: %f..%f", cues[1].Start, cues[1].End)
	}

	// Displayed duration is the scene duration minus 0.2s.
	if math.Abs((cues[0].End-cues[0].Start)-3.8) > 1e-9 {
		t.Errorf("cue 0 display duration wrong: %f", cues[0].End-cues[0].Start)
	}
}

func TestBuildCuesNeverOverlap(t *testing.T) {
	doc := &script.Document{Scenes: []script.Scene{
		{ID: 1, Narration: "one"},
		{ID: 2, Narration: "two"},
		{ID: 3, Narration: "three"},
	}}
	durations := map[int]float64{1: 3, 2: 3, 3: 3}

	cues, _ := BuildCues(doc, durations)
	for i := 1; i < len(cues); i++ {
		if cues[i-1].End > cues[i].Start {
			t.Errorf("cues %d and %d overlap: %f > %f", i-1, i, cues[i-1].End, cues[i].Start)
		}
		if cues[i].Start <= cues[i-1].Start {
			t.Errorf("cue starts not increasing")
		}
	}
}

func TestBuildCuesSkipsUnrenderableCueOnly(t *testing.T) {
	doc := &script.Document{Scenes: []script.Scene{
		{ID: 1, Narration: "Readable narration."},
		{ID: 2, Narration: "\x00\x01\x02"}, // nothing displayable
		{ID: 3, Narration: "Also readable."},
	}}
	durations := map[int]float64{1: 3, 2: 3, 3: 3}

	cues, skipped := BuildCues(doc, durations)
	if len(cues) != 2 {
		t.Fatalf("expected 2 surviving cues, got %d", len(cues))
	}
	if len(skipped) != 1 || skipped[0] != 2 {
		t.Fatalf("scene 2 should be the only skip, got %v", skipped)
	}

	// The skipped scene still occupies its slot on the timeline.
	if math.Abs(cues[1].Start-6.1) > 1e-9 {
		t.Errorf("cue after a skip misplaced: %f", cues[1].Start)
	}
}

func TestGenerateSRTUsesSceneIDsAndWraps(t *testing.T) {
	doc := &script.Document{Scenes: []script.Scene{
		{ID: 1, Narration: "Peter swings through the city at dawn."},
		{ID: 2, Narration: strings.Repeat("word ", 20)},
	}}
	durations := map[int]float64{1: 3.0, 2: 7.0}

	srt := GenerateSRT(doc, durations)

	if !strings.Contains(srt, "1\n00:00:00,000 --> 00:00:02,900\n") {
		t.Errorf("first cue header wrong:\n%s", srt)
	}
	if !strings.Contains(srt, "2\n00:00:03,000 --> 00:00:09,900\n") {
		t.Errorf("second cue header wrong:\n%s", srt)
	}
	for _, line := range strings.Split(srt, "\n") {
		if len(line) > SidecarWrapChars && !strings.Contains(line, "-->") {
			t.Errorf("sidecar line too long: %q", line)
		}
	}
}

func TestEstimateDurationsIndependentOfBudget(t *testing.T) {
	doc := &script.Document{Scenes: []script.Scene{
		{ID: 1, Narration: "Peter swings through the city at dawn."}, // 7 words
		{ID: 2, Narration: strings.Repeat("w ", 30)},                 // 30 words
	}}

	durations := EstimateDurations(doc)
	if durations[1] != 3.0 {
		t.Errorf("7 words should floor to 3s, got %f", durations[1])
	}
	if math.Abs(durations[2]-10.0) > 1e-9 {
		t.Errorf("30 words should be 10s, got %f", durations[2])
	}
}
