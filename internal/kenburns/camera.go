package kenburns

import (
	"github.com/ivlev/scenecast/internal/script"
)

// CameraState is the virtual camera at one instant: a zoom factor and
// the crop-window center in oversampled-image pixels.
type CameraState struct {
	Zoom float64
	CX   float64
	CY   float64
}

// How far the pan effects travel, as a fraction of the oversampled
// dimension along the panned axis.
const panTravel = 0.08

// Zoom held by the static effect so the frame is not visually dead.
const staticZoom = 1.05

// EaseInOutCubic maps linear progress onto a smooth
// accelerate/decelerate curve. ease(0)=0, ease(1)=1, symmetric around
// 0.5 and monotonic on [0,1].
func EaseInOutCubic(t float64) float64 {
	if t < 0.5 {
		return 4 * t * t * t
	}
	return 1 - pow(-2*t+2, 3)/2
}

// pow calculates x^n for small integer n
func pow(x float64, n int) float64 {
	result := 1.0
	for i := 0; i < n; i++ {
		result *= x
	}
	return result
}

// CameraAt computes the camera for eased progress p in [0,1] over an
// oversampled image of ow×oh pixels. One pure branch per effect; pans
// hold the midpoint zoom and ease the crop center back toward the
// image center.
func CameraAt(effect script.Effect, p float64, ow, oh, zoomStart, zoomEnd float64) CameraState {
	midZoom := (zoomStart + zoomEnd) / 2

	switch effect {
	case script.EffectSlowZoomIn:
		return CameraState{
			Zoom: zoomStart + (zoomEnd-zoomStart)*p,
			CX:   ow / 2,
			CY:   oh / 2,
		}
	case script.EffectSlowZoomOut:
		return CameraState{
			Zoom: zoomEnd - (zoomEnd-zoomStart)*p,
			CX:   ow / 2,
			CY:   oh / 2,
		}
	case script.EffectPanLeft:
		return CameraState{
			Zoom: midZoom,
			CX:   ow/2 + ow*panTravel*(1-p),
			CY:   oh / 2,
		}
	case script.EffectPanRight:
		return CameraState{
			Zoom: midZoom,
			CX:   ow/2 - ow*panTravel*(1-p),
			CY:   oh / 2,
		}
	case script.EffectPanUp:
		return CameraState{
			Zoom: midZoom,
			CX:   ow / 2,
			CY:   oh/2 + oh*panTravel*(1-p),
		}
	case script.EffectPanDown:
		return CameraState{
			Zoom: midZoom,
			CX:   ow / 2,
			CY:   oh/2 - oh*panTravel*(1-p),
		}
	default: // static
		return CameraState{Zoom: staticZoom, CX: ow / 2, CY: oh / 2}
	}
}

// CropWindow turns a camera state into the integer crop rectangle
// inside the oversampled image. The window is sized outW/zoom ×
// outH/zoom and its corner is clamped so it never leaves the source.
func CropWindow(cam CameraState, ow, oh, outW, outH int) (x1, y1, w, h int) {
	w = int(float64(outW) / cam.Zoom)
	h = int(float64(outH) / cam.Zoom)
	if w > ow {
		w = ow
	}
	if h > oh {
		h = oh
	}

	x1 = clamp(int(cam.CX-float64(w)/2), 0, ow-w)
	y1 = clamp(int(cam.CY-float64(h)/2), 0, oh-h)
	return x1, y1, w, h
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
