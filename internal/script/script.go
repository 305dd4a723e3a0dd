package script

import (
	"encoding/json"
	"os"
	"strings"

	"github.com/pkg/errors"
)

// Effect names one of the fixed virtual-camera moves applied to a
// scene's still image.
type Effect string

const (
	EffectSlowZoomIn  Effect = "slow_zoom_in"
	EffectSlowZoomOut Effect = "slow_zoom_out"
	EffectPanLeft     Effect = "pan_left"
	EffectPanRight    Effect = "pan_right"
	EffectPanUp       Effect = "pan_up"
	EffectPanDown     Effect = "pan_down"
	EffectStatic      Effect = "static"
)

// DefaultEffect is used when a scene names no effect (or an unknown
// one — a producer typo should not kill the render).
const DefaultEffect = EffectSlowZoomIn

var knownEffects = map[Effect]bool{
	EffectSlowZoomIn:  true,
	EffectSlowZoomOut: true,
	EffectPanLeft:     true,
	EffectPanRight:    true,
	EffectPanUp:       true,
	EffectPanDown:     true,
	EffectStatic:      true,
}

// Normalize maps an arbitrary effect string from the script onto the
// closed enumeration.
func Normalize(raw string) Effect {
	e := Effect(strings.TrimSpace(strings.ToLower(raw)))
	if knownEffects[e] {
		return e
	}
	return DefaultEffect
}

// Scene is one narrative beat. Image and audio assets are located by
// convention from ID, never stored inline.
type Scene struct {
	ID        int    `json:"scene_id"`
	Narration string `json:"narration"`
	Effect    string `json:"effect,omitempty"`
	Mood      string `json:"mood,omitempty"`
}

// CameraEffect returns the scene's effect resolved against the
// enumeration.
func (s Scene) CameraEffect() Effect {
	return Normalize(s.Effect)
}

// WordCount counts whitespace-separated narration words.
func (s Scene) WordCount() int {
	return len(strings.Fields(s.Narration))
}

// Document is the loaded script. Scene order is narrative order and is
// preserved everywhere downstream. Immutable after load.
type Document struct {
	Title  string  `json:"title"`
	Scenes []Scene `json:"scenes"`
}

// Load reads and validates a script document.
//
// A missing file or malformed content is fatal for the run: the
// pipeline produces no output without a valid script.
func Load(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Errorf("script not found: %s", path)
		}
		return nil, errors.Wrapf(err, "read script %s", path)
	}

	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, errors.Wrapf(err, "malformed script %s", path)
	}

	if len(doc.Scenes) == 0 {
		return nil, errors.Errorf("script %s contains no scenes", path)
	}

	seen := make(map[int]bool, len(doc.Scenes))
	for _, s := range doc.Scenes {
		if seen[s.ID] {
			return nil, errors.Errorf("script %s: duplicate scene_id %d", path, s.ID)
		}
		seen[s.ID] = true
	}

	return &doc, nil
}
