package audio

import (
	"strings"
	"testing"
)

func testMix() *Mix {
	return &Mix{
		VideoDuration: 90,
		Volume:        0.15,
		FadeIn:        1.0,
		FadeOut:       2.0,
	}
}

func TestNarrationFilterTruncatesToVideoDuration(t *testing.T) {
	m := testMix()
	m.NarrationPath = "narration.mp3"

	got := m.NarrationFilter("[1:a]", "[aout]")
	if !strings.Contains(got, "atrim=0:90.000") {
		t.Errorf("narration must be cut at the video length: %q", got)
	}
	if strings.Contains(got, "atempo") || strings.Contains(got, "apad") {
		t.Errorf("narration must never be stretched or padded: %q", got)
	}
}

func TestBGMFilterEnvelopeAfterTruncation(t *testing.T) {
	m := testMix()
	m.BGMPath = "bgm.mp3"

	got := m.BGMFilter("[2:a]", "[bg]")

	// Order matters: trim to length, then gain, then fades.
	trimIdx := strings.Index(got, "atrim=0:90.000")
	volIdx := strings.Index(got, "volume=0.150")
	fadeInIdx := strings.Index(got, "afade=t=in:st=0:d=1.000")
	fadeOutIdx := strings.Index(got, "afade=t=out:st=88.000:d=2.000")

	if trimIdx < 0 || volIdx < 0 || fadeInIdx < 0 || fadeOutIdx < 0 {
		t.Fatalf("missing filter stage: %q", got)
	}
	if !(trimIdx < volIdx && volIdx < fadeInIdx && fadeInIdx < fadeOutIdx) {
		t.Errorf("envelope must follow truncation: %q", got)
	}
}

func TestFilterGraphBothTracksMixAdditively(t *testing.T) {
	m := testMix()
	m.NarrationPath = "narration.mp3"
	m.BGMPath = "bgm.mp3"

	graph, out := m.FilterGraph("[1:a]", "[2:a]")
	if out != "[aout]" {
		t.Fatalf("expected [aout] label, got %q", out)
	}
	if !strings.Contains(graph, "amix=inputs=2:duration=longest:normalize=0") {
		t.Errorf("both tracks must mix additively without normalization: %q", graph)
	}
}

func TestFilterGraphOutlastsShortNarration(t *testing.T) {
	// Scene 1 has a 10s recording, scene 2 only an estimate: the
	// program is 13s but the concatenated narration is 10s. The mix
	// must still span the full program, not end with the narration.
	m := &Mix{
		NarrationPath: "narration_combined.mp3",
		BGMPath:       "bgm.mp3",
		VideoDuration: 13,
		Volume:        0.15,
		FadeIn:        1.0,
		FadeOut:       2.0,
	}

	graph, _ := m.FilterGraph("[1:a]", "[2:a]")
	if strings.Contains(graph, "duration=first") {
		t.Errorf("mix would end at the narration's length: %q", graph)
	}
	if !strings.Contains(graph, "duration=longest") {
		t.Errorf("mix must be pinned by the full-length music bed: %q", graph)
	}
	// The bed itself spans exactly the program, so its fade-out stays
	// intact even when the narration runs short.
	if !strings.Contains(graph, "atrim=0:13.000") {
		t.Errorf("music bed must be cut at the video length: %q", graph)
	}
	if !strings.Contains(graph, "afade=t=out:st=11.000:d=2.000") {
		t.Errorf("fade-out must land at the end of the program: %q", graph)
	}
}

func TestFilterGraphSingleTrackPassesThrough(t *testing.T) {
	m := testMix()
	m.NarrationPath = "narration.mp3"

	graph, out := m.FilterGraph("[1:a]", "")
	if out != "[aout]" || strings.Contains(graph, "amix") {
		t.Errorf("single track should not be mixed: %q", graph)
	}

	m = testMix()
	m.BGMPath = "bgm.mp3"
	graph, out = m.FilterGraph("", "[1:a]")
	if out != "[aout]" || !strings.Contains(graph, "afade") {
		t.Errorf("bgm-only graph should carry the envelope: %q", graph)
	}
}

func TestFilterGraphSilentProgram(t *testing.T) {
	m := testMix()
	graph, out := m.FilterGraph("", "")
	if graph != "" || out != "" {
		t.Errorf("no audio should yield an empty graph, got %q / %q", graph, out)
	}
	if m.HasAudio() {
		t.Error("HasAudio should be false for a silent mix")
	}
}

func TestShortProgramShrinksFades(t *testing.T) {
	// Mirrors Compose's envelope guard for programs shorter than the
	// combined fades.
	m := &Mix{VideoDuration: 2, Volume: 0.15, FadeIn: 1.0, FadeOut: 2.0}
	if m.VideoDuration < m.FadeIn+m.FadeOut {
		m.FadeIn = m.VideoDuration * 0.1
		m.FadeOut = m.VideoDuration * 0.1
	}
	m.BGMPath = "bgm.mp3"

	got := m.BGMFilter("[1:a]", "[aout]")
	if !strings.Contains(got, "afade=t=in:st=0:d=0.200") {
		t.Errorf("fade-in should shrink to 10%% of a short program: %q", got)
	}
	if !strings.Contains(got, "afade=t=out:st=1.800:d=0.200") {
		t.Errorf("fade-out window wrong for short program: %q", got)
	}
}
