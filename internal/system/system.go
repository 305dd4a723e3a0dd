package system

import (
	"fmt"
	"log"
	"os/exec"
	"runtime"
	"strings"
	"syscall"

	"github.com/shirou/gopsutil/v3/mem"
)

// InitResourceLimits raises the open-file limit; long scripts stream
// many segment files through ffmpeg at concat time.
func InitResourceLimits() {
	var rLimit syscall.Rlimit
	if err := syscall.Getrlimit(syscall.RLIMIT_NOFILE, &rLimit); err != nil {
		log.Printf("[!] Could not read file limit: %v", err)
		return
	}

	rLimit.Cur = 2048
	if rLimit.Cur > rLimit.Max {
		rLimit.Cur = rLimit.Max
	}

	if err := syscall.Setrlimit(syscall.RLIMIT_NOFILE, &rLimit); err != nil {
		log.Printf("[!] Could not raise file limit: %v", err)
	}
}

// GetAudioDuration measures a media file's duration via ffprobe.
func GetAudioDuration(path string) (float64, error) {
	cmd := exec.Command("ffprobe", "-v", "error", "-show_entries", "format=duration", "-of", "default=noprint_wrappers=1:nokey=1", path)
	out, err := cmd.CombinedOutput()
	if err != nil {
		return 0, fmt.Errorf("ffprobe %s: %v", path, err)
	}

	var duration float64
	if _, err := fmt.Sscanf(strings.TrimSpace(string(out)), "%f", &duration); err != nil {
		return 0, err
	}
	return duration, nil
}

// GetBestH264Encoder probes for hardware H.264 encoders and falls back
// to libx264.
func GetBestH264Encoder() string {
	candidates := []string{"h264_videotoolbox", "h264_nvenc"}

	cmd := exec.Command("ffmpeg", "-encoders")
	out, err := cmd.CombinedOutput()
	if err != nil {
		return "libx264"
	}
	for _, name := range candidates {
		if strings.Contains(string(out), name) {
			return name
		}
	}
	return "libx264"
}

// RenderWorkers picks how many scene renders may run at once. Each
// in-flight render holds an oversampled RGBA source plus an output
// frame (~14 MB at 1080p), so the count is capped by available memory
// as well as by CPU.
func RenderWorkers(width, height int) int {
	workers := runtime.NumCPU()
	perWorker := renderWorkerBytes(width, height)

	if vm, err := mem.VirtualMemory(); err == nil && perWorker > 0 {
		// leave half of available memory to ffmpeg child processes
		byMem := int(vm.Available / 2 / perWorker)
		if byMem < 1 {
			byMem = 1
		}
		if byMem < workers {
			workers = byMem
		}
	}

	if workers < 1 {
		workers = 1
	}
	return workers
}

// renderWorkerBytes estimates one render's peak footprint: the source
// image scaled to 1.3x the output in each dimension, the pooled output
// frame, and one frame in flight in the encoder pipe. RGBA, 4 bytes
// per pixel.
func renderWorkerBytes(width, height int) uint64 {
	const oversample = 1.3
	frame := uint64(width) * uint64(height) * 4
	source := uint64(float64(frame) * oversample * oversample)
	return source + 2*frame
}
