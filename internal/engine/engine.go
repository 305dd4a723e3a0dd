// Package engine runs the assembly pipeline end to end: plan scene
// durations, render Ken Burns clips, concatenate the track, compose
// audio, overlay captions, export.
package engine

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"github.com/ivlev/scenecast/internal/assets"
	"github.com/ivlev/scenecast/internal/audio"
	"github.com/ivlev/scenecast/internal/config"
	"github.com/ivlev/scenecast/internal/kenburns"
	"github.com/ivlev/scenecast/internal/script"
	"github.com/ivlev/scenecast/internal/subtitle"
	"github.com/ivlev/scenecast/internal/system"
	"github.com/ivlev/scenecast/internal/timeline"
	"github.com/ivlev/scenecast/internal/video"
)

// Options selects per-run behavior of Assemble.
type Options struct {
	// BGMPath overrides the project-local default music file.
	BGMPath string
	// IncludeSubtitles burns the caption track into the frame.
	IncludeSubtitles bool
	// Preview renders at lower frame rate and bitrate.
	Preview bool
}

// Report collects the facts of one run that a user needs to fix inputs
// and re-run: what was substituted, skipped, or rescaled.
type Report struct {
	Project string
	Title   string
	Scenes  int

	// Duration is the program length actually rendered.
	Duration float64
	// RescaleFactor is 1.0 unless the script exceeded the budget.
	RescaleFactor float64

	EstimatedScenes []int
	MissingImages   []int
	SkippedCues     []int

	OutputPath string
	SRTPath    string
	Elapsed    time.Duration
}

// Pipeline assembles projects. All state is per-run; a Pipeline can be
// reused across projects.
type Pipeline struct {
	Config  *config.Config
	Encoder *video.FFmpegEncoder
}

func New(cfg *config.Config) *Pipeline {
	return &Pipeline{
		Config:  cfg,
		Encoder: &video.FFmpegEncoder{},
	}
}

// Assemble builds the final video and sidecar subtitle file for one
// project and returns the run report. A missing or malformed script is
// fatal; missing media assets are substituted and reported.
func (p *Pipeline) Assemble(project string, opts Options) (*Report, error) {
	startTime := time.Now()
	cfg := p.Config

	dirs, err := cfg.ProjectDirs(project)
	if err != nil {
		return nil, err
	}
	lib := assets.NewLibrary(dirs)

	doc, err := script.Load(cfg.ScriptPath(project))
	if err != nil {
		return nil, err
	}

	report := &Report{
		Project:       project,
		Title:         doc.Title,
		Scenes:        len(doc.Scenes),
		RescaleFactor: 1.0,
		OutputPath:    lib.OutputVideoPath(),
		SRTPath:       lib.OutputSRTPath(),
	}

	log.Printf("[*] Assembling %q: %d scenes", doc.Title, len(doc.Scenes))

	// 1. Scene durations under the budget
	timing := timeline.Plan(doc, lib, cfg.MaxDuration)
	if len(timing.Durations) == 0 {
		return nil, errors.Errorf("project %s: no scenes to assemble", project)
	}
	report.Duration = timing.Total
	report.RescaleFactor = timing.RescaleFactor
	report.EstimatedScenes = timing.Estimated

	if timing.RescaleFactor < 1.0 {
		log.Printf("[!] Script exceeds %.0fs budget, durations rescaled by %.3f",
			cfg.MaxDuration, timing.RescaleFactor)
	}

	tmpDir, err := os.MkdirTemp("", "scenecast_")
	if err != nil {
		return nil, errors.Wrap(err, "create temp dir")
	}
	defer os.RemoveAll(tmpDir)

	encoderName := system.GetBestH264Encoder()
	if encoderName != "libx264" {
		log.Printf("[*] Hardware encoder detected: %s", encoderName)
	}

	// 2. Ken Burns clips, scene by scene. Renders are independent, so
	// they run in parallel; output order is fixed by the results slice.
	segments, missing, err := p.renderScenes(doc, timing, lib, tmpDir, encoderName, opts.Preview)
	if err != nil {
		return nil, err
	}
	report.MissingImages = missing

	// 3. One continuous video track, hard cuts only
	log.Printf("[*] Concatenating %d scenes", len(segments))
	trackPath := filepath.Join(tmpDir, "track.mp4")
	if err := p.Encoder.Concatenate(segments, trackPath, tmpDir); err != nil {
		return nil, err
	}

	// 4. Narration and background music
	mix, err := audio.Compose(doc, lib, timing.Total, opts.BGMPath, cfg)
	if err != nil {
		return nil, err
	}

	// 5. Burned-in caption track
	burnSRT := ""
	if opts.IncludeSubtitles {
		cues, skipped := subtitle.BuildCues(doc, timing.Durations)
		report.SkippedCues = skipped
		if len(cues) > 0 {
			burnSRT = filepath.Join(tmpDir, "overlay.srt")
			if err := subtitle.WriteOverlaySRT(cues, burnSRT); err != nil {
				// lose the overlay, not the render
				log.Printf("[!] Subtitle overlay failed: %v", err)
				burnSRT = ""
			}
		}
	}

	// 6. Sidecar subtitle file, timed from measured audio when any
	// recording exists, otherwise from word-count estimates.
	srt := subtitle.GenerateSRT(doc, p.sidecarDurations(doc, lib))
	if err := subtitle.WriteSRT(srt, report.SRTPath); err != nil {
		return nil, err
	}

	// 7. Final mux
	log.Printf("[*] Exporting %s (%.1fs @ %dx%d)", report.OutputPath, timing.Total, cfg.Width, cfg.Height)
	err = p.Encoder.Export(trackPath, report.OutputPath, video.ExportParams{
		FPS:         cfg.FPS,
		Encoder:     encoderName,
		Preview:     opts.Preview,
		Mix:         mix,
		BurnSRTPath: burnSRT,
		BurnStyle:   subtitle.BurnStyle(cfg),
	})
	if err != nil {
		return nil, err
	}

	report.Elapsed = time.Since(startTime)
	return report, nil
}

// renderScenes encodes one segment per scene in scene order. A missing
// or undecodable image falls back to black frames; the render never
// aborts for a missing asset.
func (p *Pipeline) renderScenes(doc *script.Document, timing *timeline.Timing, lib *assets.Library, tmpDir, encoderName string, preview bool) ([]string, []int, error) {
	cfg := p.Config
	opts := kenburns.Options{
		Width:     cfg.Width,
		Height:    cfg.Height,
		FPS:       cfg.FPS,
		ZoomStart: cfg.ZoomStart,
		ZoomEnd:   cfg.ZoomEnd,
	}

	segments := make([]string, len(doc.Scenes))
	missing := make([]bool, len(doc.Scenes))

	var g errgroup.Group
	g.SetLimit(system.RenderWorkers(cfg.Width, cfg.Height))

	for i, s := range doc.Scenes {
		i, s := i, s
		g.Go(func() error {
			duration := timing.Durations[s.ID]

			img, err := lib.LoadImage(s.ID)
			if err != nil {
				log.Printf("[!] Missing image for scene %d, using black frame", s.ID)
				img = nil
				missing[i] = true
			}

			clip := kenburns.NewClip(img, s.CameraEffect(), duration, opts)
			segPath := filepath.Join(tmpDir, fmt.Sprintf("s%02d.mp4", i))

			err = p.Encoder.EncodeSegment(clip, segPath, video.SegmentParams{
				Width:   cfg.Width,
				Height:  cfg.Height,
				FPS:     cfg.FPS,
				Encoder: encoderName,
				Preview: preview,
			})
			if err != nil {
				return errors.Wrapf(err, "scene %d", s.ID)
			}

			log.Printf("[>] Scene %d ready: %s (%.1fs)", s.ID, s.CameraEffect(), duration)
			segments[i] = segPath
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, nil, err
	}

	var missingIDs []int
	for i, m := range missing {
		if m {
			missingIDs = append(missingIDs, doc.Scenes[i].ID)
		}
	}
	return segments, missingIDs, nil
}

// audioSource is the slice of the asset library the sidecar timing
// needs.
type audioSource interface {
	timeline.AudioProbe
	HasAnySceneAudio(sceneIDs []int) bool
}

// sidecarDurations times the sidecar file: when any scene recording
// exists, measured durations with word-count estimates filling the
// gaps; with no recordings at all, pure estimates. No budget scaling —
// the sidecar follows the narration, not the trimmed program.
func (p *Pipeline) sidecarDurations(doc *script.Document, src audioSource) map[int]float64 {
	ids := make([]int, len(doc.Scenes))
	for i, s := range doc.Scenes {
		ids[i] = s.ID
	}
	if !src.HasAnySceneAudio(ids) {
		return subtitle.EstimateDurations(doc)
	}

	durations := make(map[int]float64, len(doc.Scenes))
	for _, s := range doc.Scenes {
		d, ok, err := src.SceneAudioDuration(s.ID)
		if !ok || err != nil || d <= 0 {
			d = timeline.Estimate(s.WordCount())
		}
		durations[s.ID] = d
	}
	return durations
}

// Print writes the run summary the way a user reads it after a render.
func (r *Report) Print() {
	fmt.Println("-----------------------------")
	fmt.Printf("[+] Assembled %q: %d scenes, %.1fs in %.1fs\n",
		r.Title, r.Scenes, r.Duration, r.Elapsed.Seconds())
	if r.RescaleFactor < 1.0 {
		fmt.Printf("[!] Durations rescaled by %.3f to fit the budget\n", r.RescaleFactor)
	}
	if len(r.EstimatedScenes) > 0 {
		fmt.Printf("[!] Estimated timing (no audio) for scenes %v\n", r.EstimatedScenes)
	}
	if len(r.MissingImages) > 0 {
		fmt.Printf("[!] Black frames substituted for scenes %v\n", r.MissingImages)
	}
	if len(r.SkippedCues) > 0 {
		fmt.Printf("[!] Captions skipped for scenes %v\n", r.SkippedCues)
	}
	fmt.Printf("    Video: %s\n", r.OutputPath)
	fmt.Printf("    SRT:   %s\n", r.SRTPath)
}
