// Package audio assembles the program's audio: the narration track
// (pre-made or concatenated per scene) and an optional looped, faded
// background-music bed, mixed additively.
package audio

import (
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/pkg/errors"
	ffmpeg "github.com/u2takey/ffmpeg-go"

	"github.com/ivlev/scenecast/internal/assets"
	"github.com/ivlev/scenecast/internal/config"
	"github.com/ivlev/scenecast/internal/script"
)

// Mix describes the composed audio of one run. Paths may be empty:
// a silent program is a legal outcome, not an error.
type Mix struct {
	NarrationPath string
	BGMPath       string

	// VideoDuration bounds both tracks: narration is truncated (never
	// stretched) and the music bed is looped then cut to exactly this
	// length.
	VideoDuration float64

	Volume  float64
	FadeIn  float64
	FadeOut float64
}

// Compose resolves the narration and music inputs for a project.
//
// Narration preference order: a pre-made full track, else the ordered
// concatenation of per-scene recordings. Missing audio is silence and
// the render continues. When bgmPath is empty the project-local
// default music file is used if it exists.
func Compose(doc *script.Document, lib *assets.Library, videoDuration float64, bgmPath string, cfg *config.Config) (*Mix, error) {
	mix := &Mix{
		VideoDuration: videoDuration,
		Volume:        cfg.BGMVolume,
		FadeIn:        cfg.AudioFadeIn,
		FadeOut:       cfg.AudioFadeOut,
	}

	// The envelope cannot be longer than the program itself.
	if videoDuration < mix.FadeIn+mix.FadeOut {
		mix.FadeIn = videoDuration * 0.1
		mix.FadeOut = videoDuration * 0.1
	}

	if premade, ok := lib.NarrationPath(); ok {
		log.Printf("[*] Using existing narration: %s", premade)
		mix.NarrationPath = premade
	} else {
		combined, err := concatSceneAudio(doc, lib)
		if err != nil {
			return nil, err
		}
		mix.NarrationPath = combined
		if combined == "" {
			log.Printf("[!] No narration audio found, rendering silent narration")
		}
	}

	switch {
	case bgmPath != "":
		if _, err := os.Stat(bgmPath); err != nil {
			log.Printf("[!] Background music %s not found, skipping", bgmPath)
		} else {
			mix.BGMPath = bgmPath
		}
	default:
		if p, ok := lib.DefaultBGMPath(); ok {
			log.Printf("[*] Found default background music: %s", assets.DefaultBGMName)
			mix.BGMPath = p
		}
	}

	return mix, nil
}

// concatSceneAudio joins all available per-scene recordings in scene
// order into one track. Returns "" when no recording exists at all.
func concatSceneAudio(doc *script.Document, lib *assets.Library) (string, error) {
	var streams []*ffmpeg.Stream
	for _, s := range doc.Scenes {
		if path, ok := lib.SceneAudioPath(s.ID); ok {
			streams = append(streams, ffmpeg.Input(path))
		}
	}
	if len(streams) == 0 {
		return "", nil
	}

	out := lib.CombinedNarrationPath()
	err := ffmpeg.Concat(streams, ffmpeg.KwArgs{"v": 0, "a": 1}).
		Output(out, ffmpeg.KwArgs{"acodec": "libmp3lame"}).
		OverWriteOutput().
		Silent(true).
		Run()
	if err != nil {
		return "", errors.Wrap(err, "concatenate scene audio")
	}

	log.Printf("[*] Concatenated narration: %s", out)
	return out, nil
}

// HasAudio reports whether the final program carries any audio stream.
func (m *Mix) HasAudio() bool {
	return m.NarrationPath != "" || m.BGMPath != ""
}

// NarrationFilter builds the filter chain for the narration input:
// truncate to the video length, never stretch.
func (m *Mix) NarrationFilter(inLabel, outLabel string) string {
	return fmt.Sprintf("%satrim=0:%.3f,asetpts=PTS-STARTPTS%s",
		inLabel, m.VideoDuration, outLabel)
}

// BGMFilter builds the filter chain for the looped music input: cut
// the infinite loop to exactly the video length, apply the configured
// gain, then the fade-in/out envelope. Envelope operations come after
// looping and truncation.
func (m *Mix) BGMFilter(inLabel, outLabel string) string {
	return fmt.Sprintf("%satrim=0:%.3f,asetpts=PTS-STARTPTS,volume=%.3f,afade=t=in:st=0:d=%.3f,afade=t=out:st=%.3f:d=%.3f%s",
		inLabel, m.VideoDuration, m.Volume,
		m.FadeIn, m.VideoDuration-m.FadeOut, m.FadeOut, outLabel)
}

// FilterGraph assembles the audio part of the final filter_complex.
// outLabel is always "[aout]" when a graph is produced; an empty graph
// means the program has no audio.
func (m *Mix) FilterGraph(narLabel, bgmLabel string) (graph string, outLabel string) {
	var parts []string

	switch {
	case m.NarrationPath != "" && m.BGMPath != "":
		parts = append(parts,
			m.NarrationFilter(narLabel, "[nar]"),
			m.BGMFilter(bgmLabel, "[bg]"),
			// Additive composite, no ducking. duration=longest: both
			// inputs are already trimmed to at most the video length,
			// and the looped music bed spans exactly that length, so
			// the mix ends with the video even when the narration runs
			// short (scenes without recordings).
			"[nar][bg]amix=inputs=2:duration=longest:normalize=0[aout]",
		)
	case m.NarrationPath != "":
		parts = append(parts, m.NarrationFilter(narLabel, "[aout]"))
	case m.BGMPath != "":
		parts = append(parts, m.BGMFilter(bgmLabel, "[aout]"))
	default:
		return "", ""
	}

	return strings.Join(parts, ";"), "[aout]"
}
