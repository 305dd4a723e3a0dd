package config

import (
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Config holds every knob of an assembly run. It is resolved once at
// process start and never re-read mid-run.
type Config struct {
	// Output
	Width  int `yaml:"width"`
	Height int `yaml:"height"`
	FPS    int `yaml:"fps"`

	// Hard ceiling on the final program length in seconds. Scene
	// durations are uniformly rescaled to fit under it.
	MaxDuration float64 `yaml:"max_duration"`

	// Ken Burns virtual camera
	ZoomStart float64 `yaml:"zoom_start"`
	ZoomEnd   float64 `yaml:"zoom_end"`

	// Background music envelope
	BGMVolume    float64 `yaml:"bgm_volume"`
	AudioFadeIn  float64 `yaml:"audio_fade_in"`
	AudioFadeOut float64 `yaml:"audio_fade_out"`

	// Burned-in subtitle style
	SubFontSize     int    `yaml:"sub_font_size"`
	SubFontColor    string `yaml:"sub_font_color"`
	SubStrokeColor  string `yaml:"sub_stroke_color"`
	SubStrokeWidth  int    `yaml:"sub_stroke_width"`
	SubMarginBottom int    `yaml:"sub_margin_bottom"`

	// Reserved for soft transitions between scenes. Assembly is a hard
	// cut; the constant is carried so a scripted override survives.
	CrossfadeDuration float64 `yaml:"crossfade_duration"`

	// Candidate cap for the upstream image-selection step. Not consumed
	// by the assembly core.
	ImageSearchMaxResults int `yaml:"image_search_max_results"`

	// Base directory holding one folder per project.
	ProjectsBase string `yaml:"projects_base"`
}

// Default returns the stock configuration of the pipeline.
func Default() *Config {
	return &Config{
		Width:                 1920,
		Height:                1080,
		FPS:                   30,
		MaxDuration:           120,
		ZoomStart:             1.0,
		ZoomEnd:               1.15,
		BGMVolume:             0.15,
		AudioFadeIn:           1.0,
		AudioFadeOut:          2.0,
		SubFontSize:           42,
		SubFontColor:          "white",
		SubStrokeColor:        "black",
		SubStrokeWidth:        2,
		SubMarginBottom:       60,
		CrossfadeDuration:     0.3,
		ImageSearchMaxResults: 12,
		ProjectsBase:          "projects",
	}
}

// Load resolves the effective configuration: defaults, then an optional
// scenecast.yaml in the working directory, then the SCENECAST_PROJECTS
// environment variable.
func Load() (*Config, error) {
	cfg := Default()

	if data, err := os.ReadFile("scenecast.yaml"); err == nil {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, errors.Wrap(err, "parse scenecast.yaml")
		}
	}

	if base := os.Getenv("SCENECAST_PROJECTS"); base != "" {
		cfg.ProjectsBase = base
	}

	return cfg, nil
}

// ProjectDirs is the fixed folder layout inside one project.
type ProjectDirs struct {
	Root   string
	Images string
	Audio  string
	Output string
}

// ProjectPath returns the folder of a named project under the base.
func (c *Config) ProjectPath(project string) string {
	return filepath.Join(c.ProjectsBase, project)
}

// ProjectDirs creates (if needed) and returns the project subfolders.
func (c *Config) ProjectDirs(project string) (ProjectDirs, error) {
	root := c.ProjectPath(project)
	dirs := ProjectDirs{
		Root:   root,
		Images: filepath.Join(root, "images"),
		Audio:  filepath.Join(root, "audio"),
		Output: filepath.Join(root, "output"),
	}
	for _, d := range []string{dirs.Root, dirs.Images, dirs.Audio, dirs.Output} {
		if err := os.MkdirAll(d, 0755); err != nil {
			return ProjectDirs{}, errors.Wrapf(err, "create project dir %s", d)
		}
	}
	return dirs, nil
}

// ScriptPath returns the script document location for a project.
func (c *Config) ScriptPath(project string) string {
	return filepath.Join(c.ProjectPath(project), "script.json")
}

// ListProjects enumerates project folders that contain a script
// document, sorted by directory order (os.ReadDir sorts by name).
func (c *Config) ListProjects() ([]string, error) {
	entries, err := os.ReadDir(c.ProjectsBase)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, errors.Wrapf(err, "read projects base %s", c.ProjectsBase)
	}

	var projects []string
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		if _, err := os.Stat(c.ScriptPath(e.Name())); err == nil {
			projects = append(projects, e.Name())
		}
	}
	return projects, nil
}
