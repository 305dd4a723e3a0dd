// Package subtitle builds the caption track: time-boxed cues aligned
// to scene boundaries, burned-in overlay styling, and the sidecar SRT.
package subtitle

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"unicode"

	"github.com/pkg/errors"

	"github.com/ivlev/scenecast/internal/config"
	"github.com/ivlev/scenecast/internal/script"
	"github.com/ivlev/scenecast/internal/timeline"
)

// Line-wrap widths: burned-in overlays get slightly more room than the
// sidecar file.
const (
	OverlayWrapChars = 50
	SidecarWrapChars = 45
)

// Insets keeping consecutive cues from touching at a hard scene cut:
// each cue starts 0.1s late and ends 0.1s early.
const cueInset = 0.1

// Cue is one immutable caption: text shown between Start and End
// seconds. Cues never overlap and Start is monotonically increasing.
type Cue struct {
	Index int
	Start float64
	End   float64
	Text  string
}

// BuildCues produces the overlay caption track from scene timings.
//
// A cue that cannot be rendered is logged and skipped; one bad caption
// must not abort the remaining composition. The returned skipped list
// carries the affected scene ids for the run report.
func BuildCues(doc *script.Document, durations map[int]float64) (cues []Cue, skipped []int) {
	current := 0.0

	for _, s := range doc.Scenes {
		duration, ok := durations[s.ID]
		if !ok {
			duration = 5.0
		}

		text, err := renderText(s.Narration, OverlayWrapChars)
		if err != nil {
			log.Printf("[!] Subtitle skipped for scene %d: %v", s.ID, err)
			skipped = append(skipped, s.ID)
			current += duration
			continue
		}

		cues = append(cues, Cue{
			Index: s.ID,
			Start: current + cueInset,
			End:   current + duration - cueInset,
			Text:  text,
		})
		current += duration
	}

	return cues, skipped
}

// renderText wraps and sanitizes narration for display. It fails when
// nothing displayable remains, which is the per-cue render failure the
// pipeline recovers from by skipping.
func renderText(narration string, width int) (string, error) {
	cleaned := strings.Map(func(r rune) rune {
		if unicode.IsControl(r) {
			return -1
		}
		return r
	}, narration)

	wrapped := WrapText(cleaned, width)
	if strings.TrimSpace(wrapped) == "" {
		return "", errors.New("no renderable text")
	}
	return wrapped, nil
}

// WrapText greedily wraps text at the given character width, never
// splitting a word. Words longer than the width get a line to
// themselves.
func WrapText(text string, maxChars int) string {
	words := strings.Fields(text)

	var lines []string
	var current []string
	length := 0

	for _, w := range words {
		if length+len(w)+1 > maxChars && len(current) > 0 {
			lines = append(lines, strings.Join(current, " "))
			current = []string{w}
			length = len(w)
		} else {
			current = append(current, w)
			length += len(w) + 1
		}
	}
	if len(current) > 0 {
		lines = append(lines, strings.Join(current, " "))
	}

	return strings.Join(lines, "\n")
}

// FormatTime renders seconds as an SRT timestamp: HH:MM:SS,mmm.
func FormatTime(seconds float64) string {
	hours := int(seconds / 3600)
	minutes := int(seconds/60) % 60
	secs := int(seconds) % 60
	millis := int((seconds - float64(int(seconds))) * 1000)
	return fmt.Sprintf("%02d:%02d:%02d,%03d", hours, minutes, secs, millis)
}

// GenerateSRT renders the sidecar subtitle file from per-scene
// durations. Cue numbering follows scene ids and each cue ends one
// inset before the next scene starts.
func GenerateSRT(doc *script.Document, durations map[int]float64) string {
	var b strings.Builder
	current := 0.0

	for _, s := range doc.Scenes {
		duration, ok := durations[s.ID]
		if !ok {
			duration = 8.0
		}

		start := FormatTime(current)
		end := FormatTime(current + duration - cueInset)
		wrapped := WrapText(s.Narration, SidecarWrapChars)

		fmt.Fprintf(&b, "%d\n%s --> %s\n%s\n\n", s.ID, start, end, wrapped)
		current += duration
	}

	return strings.TrimSuffix(b.String(), "\n")
}

// EstimateDurations derives sidecar timing from narration word counts
// alone. The sidecar file does not go through budget scaling, so this
// is computed independently of the planner.
func EstimateDurations(doc *script.Document) map[int]float64 {
	durations := make(map[int]float64, len(doc.Scenes))
	for _, s := range doc.Scenes {
		durations[s.ID] = timeline.Estimate(s.WordCount())
	}
	return durations
}

// WriteSRT saves SRT content, creating parent directories as needed.
func WriteSRT(content, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return errors.Wrapf(err, "create srt dir for %s", path)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		return errors.Wrapf(err, "write srt %s", path)
	}
	return nil
}

// WriteOverlaySRT writes the burned-in caption track as a temporary SRT
// consumed by the ffmpeg subtitles filter.
func WriteOverlaySRT(cues []Cue, path string) error {
	var b strings.Builder
	for i, c := range cues {
		fmt.Fprintf(&b, "%d\n%s --> %s\n%s\n\n", i+1, FormatTime(c.Start), FormatTime(c.End), c.Text)
	}
	return WriteSRT(b.String(), path)
}

// BurnStyle renders the configured subtitle style as an ASS force_style
// string for the ffmpeg subtitles filter.
func BurnStyle(cfg *config.Config) string {
	return strings.Join([]string{
		fmt.Sprintf("FontSize=%d", cfg.SubFontSize),
		fmt.Sprintf("PrimaryColour=%s", assColor(cfg.SubFontColor)),
		fmt.Sprintf("OutlineColour=%s", assColor(cfg.SubStrokeColor)),
		fmt.Sprintf("Outline=%d", cfg.SubStrokeWidth),
		"BorderStyle=1",
		"Alignment=2",
		fmt.Sprintf("MarginV=%d", cfg.SubMarginBottom),
	}, ",")
}

// assColor maps the small set of config color names onto ASS &HBBGGRR
// values; unknown names fall back to white.
func assColor(name string) string {
	switch strings.ToLower(name) {
	case "black":
		return "&H000000"
	case "white":
		return "&HFFFFFF"
	case "yellow":
		return "&H00FFFF"
	default:
		return "&HFFFFFF"
	}
}
