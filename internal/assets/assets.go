// Package assets locates per-scene media inside a project folder.
//
// Everything is keyed by scene id, zero-padded to two digits:
// images/scene_01.jpg, audio/scene_01.wav and so on. Files on disk are
// read-only inputs; a missing file is an expected condition, not an
// error, and callers substitute locally (black frame, silence).
package assets

import (
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"path/filepath"
	"strings"

	"github.com/gen2brain/go-fitz"
	"github.com/pkg/errors"

	"github.com/ivlev/scenecast/internal/config"
	"github.com/ivlev/scenecast/internal/system"
)

// Accepted extensions, tried in priority order.
var (
	imageExts = []string{".jpg", ".jpeg", ".png", ".pdf"}
	audioExts = []string{".wav", ".mp3", ".ogg"}
)

// Narration track conventions at the audio folder root.
var narrationNames = []string{"narration.mp3", "narration.wav"}

// DefaultBGMName is picked up from the project root when no explicit
// background music path is supplied.
const DefaultBGMName = "bgm.mp3"

// CombinedNarrationName is where the per-scene concatenation is cached.
const CombinedNarrationName = "narration_combined.mp3"

// Library resolves media assets for one project.
type Library struct {
	dirs config.ProjectDirs
}

func NewLibrary(dirs config.ProjectDirs) *Library {
	return &Library{dirs: dirs}
}

func sceneFile(dir, stem string, id int, ext string) string {
	return filepath.Join(dir, fmt.Sprintf("%s_%02d%s", stem, id, ext))
}

// ImagePath returns the scene's still image, if present.
func (l *Library) ImagePath(sceneID int) (string, bool) {
	for _, ext := range imageExts {
		p := sceneFile(l.dirs.Images, "scene", sceneID, ext)
		if _, err := os.Stat(p); err == nil {
			return p, true
		}
	}
	return "", false
}

// LoadImage decodes the scene's still. PDF assets (single-page comic
// scans) are rasterized via go-fitz; everything else goes through the
// registered stdlib decoders.
func (l *Library) LoadImage(sceneID int) (image.Image, error) {
	path, ok := l.ImagePath(sceneID)
	if !ok {
		return nil, errors.Errorf("no image asset for scene %d", sceneID)
	}

	if strings.EqualFold(filepath.Ext(path), ".pdf") {
		doc, err := fitz.New(path)
		if err != nil {
			return nil, errors.Wrapf(err, "open pdf asset %s", path)
		}
		defer doc.Close()
		img, err := doc.Image(0)
		if err != nil {
			return nil, errors.Wrapf(err, "rasterize pdf asset %s", path)
		}
		return img, nil
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "open image asset %s", path)
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, errors.Wrapf(err, "decode image asset %s", path)
	}
	return img, nil
}

// SceneAudioPath returns the scene's narration recording, if present.
func (l *Library) SceneAudioPath(sceneID int) (string, bool) {
	for _, ext := range audioExts {
		p := sceneFile(l.dirs.Audio, "scene", sceneID, ext)
		if _, err := os.Stat(p); err == nil {
			return p, true
		}
	}
	return "", false
}

// SceneAudioDuration measures the scene recording's length in seconds.
func (l *Library) SceneAudioDuration(sceneID int) (float64, bool, error) {
	path, ok := l.SceneAudioPath(sceneID)
	if !ok {
		return 0, false, nil
	}
	d, err := system.GetAudioDuration(path)
	if err != nil {
		return 0, true, errors.Wrapf(err, "measure %s", path)
	}
	return d, true, nil
}

// HasAnySceneAudio reports whether at least one of the given scenes has
// a per-scene recording on disk.
func (l *Library) HasAnySceneAudio(sceneIDs []int) bool {
	for _, id := range sceneIDs {
		if _, ok := l.SceneAudioPath(id); ok {
			return true
		}
	}
	return false
}

// NarrationPath returns a pre-made full narration track, if present.
func (l *Library) NarrationPath() (string, bool) {
	for _, name := range narrationNames {
		p := filepath.Join(l.dirs.Audio, name)
		if _, err := os.Stat(p); err == nil {
			return p, true
		}
	}
	return "", false
}

// CombinedNarrationPath is where a per-scene concatenation is written.
func (l *Library) CombinedNarrationPath() string {
	return filepath.Join(l.dirs.Audio, CombinedNarrationName)
}

// DefaultBGMPath returns the project-local default music file, if
// present.
func (l *Library) DefaultBGMPath() (string, bool) {
	p := filepath.Join(l.dirs.Root, DefaultBGMName)
	if _, err := os.Stat(p); err == nil {
		return p, true
	}
	return "", false
}

// OutputVideoPath is the final media file location.
func (l *Library) OutputVideoPath() string {
	return filepath.Join(l.dirs.Output, "final_video.mp4")
}

// OutputSRTPath is the sidecar subtitle file location.
func (l *Library) OutputSRTPath() string {
	return filepath.Join(l.dirs.Output, "subtitles.srt")
}
