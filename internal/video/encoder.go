// Package video drives ffmpeg: per-scene segment encoding from raw
// RGBA frames, hard-cut track concatenation, and the final mux.
package video

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	ffmpeg "github.com/u2takey/ffmpeg-go"

	"github.com/ivlev/scenecast/internal/audio"
	"github.com/ivlev/scenecast/internal/kenburns"
)

// SegmentParams fixes one scene segment's geometry and encoder.
type SegmentParams struct {
	Width   int
	Height  int
	FPS     int
	Encoder string
	Preview bool
}

// ExportParams fixes the final mux: optional audio mix, optional
// burned-in captions, and the preview/full quality split.
type ExportParams struct {
	FPS     int
	Encoder string
	Preview bool

	// Mix may be nil or empty; the program then carries no audio.
	Mix *audio.Mix

	// BurnSRTPath, when set, is an SRT burned into the frame with
	// BurnStyle as its force_style.
	BurnSRTPath string
	BurnStyle   string
}

// FFmpegEncoder shells out to ffmpeg for all encoding work.
type FFmpegEncoder struct {
	Verbose bool
}

// EncodeSegment renders a clip into an H.264 segment by streaming its
// raw RGBA frames through a pipe. The segment's duration is pinned to
// the clip's requested duration.
func (e *FFmpegEncoder) EncodeSegment(clip *kenburns.Clip, outPath string, p SegmentParams) error {
	pr, pw := io.Pipe()
	go func() {
		_, err := clip.WriteTo(pw)
		pw.CloseWithError(err)
	}()

	outputKwargs := ffmpeg.KwArgs{
		"t":       fmt.Sprintf("%.6f", clip.Duration()),
		"r":       p.FPS,
		"pix_fmt": "yuv420p",
		"c:v":     p.Encoder,
	}
	for k, v := range qualityArgs(p.Encoder, p.Preview) {
		outputKwargs[k] = v
	}

	err := ffmpeg.Input("pipe:", ffmpeg.KwArgs{
		"format":       "rawvideo",
		"pixel_format": "rgba",
		"video_size":   fmt.Sprintf("%dx%d", p.Width, p.Height),
		"framerate":    p.FPS,
	}).
		Output(outPath, outputKwargs).
		OverWriteOutput().
		WithInput(pr).
		Silent(!e.Verbose).
		Run()
	if err != nil {
		return errors.Wrapf(err, "encode segment %s", outPath)
	}
	return nil
}

// Concatenate joins ordered segments into one continuous track with
// hard cuts. Segments share codec and geometry, so the concat demuxer
// stream-copies without re-encoding.
func (e *FFmpegEncoder) Concatenate(segmentPaths []string, outPath, tmpDir string) error {
	listPath := filepath.Join(tmpDir, "inputs.txt")
	f, err := os.Create(listPath)
	if err != nil {
		return errors.Wrap(err, "create concat list")
	}
	for _, p := range segmentPaths {
		absPath, _ := filepath.Abs(p)
		fmt.Fprintf(f, "file '%s'\n", absPath)
	}
	f.Close()

	err = ffmpeg.Input(listPath, ffmpeg.KwArgs{"f": "concat", "safe": "0"}).
		Output(outPath, ffmpeg.KwArgs{"c": "copy"}).
		OverWriteOutput().
		Silent(!e.Verbose).
		Run()
	if err != nil {
		return errors.Wrap(err, "concatenate segments")
	}
	return nil
}

// Export muxes the video track, the composed audio, and the caption
// overlay into the final file. On failure the partial output is
// removed so it can never be mistaken for a finished render.
func (e *FFmpegEncoder) Export(videoPath, outPath string, p ExportParams) error {
	inputs := []*ffmpeg.Stream{ffmpeg.Input(videoPath)}

	narLabel, bgmLabel := "", ""
	if p.Mix != nil && p.Mix.NarrationPath != "" {
		narLabel = fmt.Sprintf("[%d:a]", len(inputs))
		inputs = append(inputs, ffmpeg.Input(p.Mix.NarrationPath))
	}
	if p.Mix != nil && p.Mix.BGMPath != "" {
		bgmLabel = fmt.Sprintf("[%d:a]", len(inputs))
		// loop the whole track; the filter graph cuts it to length
		inputs = append(inputs, ffmpeg.Input(p.Mix.BGMPath, ffmpeg.KwArgs{"stream_loop": -1}))
	}

	filterGraph, videoMap := "", "0:v"
	if p.BurnSRTPath != "" {
		filterGraph = fmt.Sprintf("[0:v]subtitles='%s':force_style='%s'[vout]",
			filepath.ToSlash(p.BurnSRTPath), p.BurnStyle)
		videoMap = "[vout]"
	}

	audioMap := ""
	if p.Mix != nil {
		audioGraph, audioOut := p.Mix.FilterGraph(narLabel, bgmLabel)
		if audioGraph != "" {
			if filterGraph != "" {
				filterGraph += ";"
			}
			filterGraph += audioGraph
			audioMap = audioOut
		}
	}

	mapTargets := []string{videoMap}
	if audioMap != "" {
		mapTargets = append(mapTargets, audioMap)
	}

	outputKwargs := ffmpeg.KwArgs{
		"map":     mapTargets,
		"r":       exportFPS(p),
		"pix_fmt": "yuv420p",
		"c:v":     p.Encoder,
		"b:v":     exportBitrate(p),
	}
	if p.Encoder == "libx264" {
		if p.Preview {
			outputKwargs["preset"] = "ultrafast"
		} else {
			outputKwargs["preset"] = "medium"
		}
	}
	if filterGraph != "" {
		outputKwargs["filter_complex"] = filterGraph
	}
	// No -shortest: a narration shorter than the program must not cut
	// the video, which always defines the output length here.
	if audioMap != "" {
		outputKwargs["c:a"] = "aac"
		outputKwargs["b:a"] = "192k"
	}

	err := ffmpeg.Output(inputs, outPath, outputKwargs).
		OverWriteOutput().
		Silent(!e.Verbose).
		Run()
	if err != nil {
		// never leave a half-written file that looks finished
		os.Remove(outPath)
		return errors.Wrapf(err, "export %s", outPath)
	}
	return nil
}

func exportFPS(p ExportParams) int {
	if p.Preview {
		return 15
	}
	return p.FPS
}

func exportBitrate(p ExportParams) string {
	if p.Preview {
		return "2000k"
	}
	return "5000k"
}

// qualityArgs picks encoder-appropriate quality flags for segment
// encoding.
func qualityArgs(encoder string, preview bool) ffmpeg.KwArgs {
	switch encoder {
	case "h264_videotoolbox":
		return ffmpeg.KwArgs{"b:v": "7500k"}
	case "h264_nvenc":
		return ffmpeg.KwArgs{"cq": 28}
	default: // libx264
		preset := "medium"
		if preview {
			preset = "ultrafast"
		}
		return ffmpeg.KwArgs{"crf": 23, "preset": preset}
	}
}
