// Package kenburns renders a still image into a moving-camera clip:
// fixed output size, fixed fps, duration-exact frame count.
package kenburns

import (
	"image"
	"io"
	"math"

	xdraw "golang.org/x/image/draw"

	"github.com/ivlev/scenecast/internal/script"
	"github.com/ivlev/scenecast/internal/system"
)

// Oversampling headroom beyond the output resolution. This margin is
// what lets the camera pan and zoom without ever sampling outside the
// source.
const oversample = 1.3

// Options fixes the output geometry and zoom range of a clip.
type Options struct {
	Width     int
	Height    int
	FPS       int
	ZoomStart float64
	ZoomEnd   float64
}

// Clip is one scene's rendered video buffer: an oversampled source plus
// the parameters to derive every frame. A nil source renders solid
// black frames (the missing-image substitute).
type Clip struct {
	src      *image.RGBA
	effect   script.Effect
	duration float64
	opts     Options
}

// NewClip prepares a clip from a decoded still. img may be nil: the
// render never fails outright on a missing image.
func NewClip(img image.Image, effect script.Effect, duration float64, opts Options) *Clip {
	c := &Clip{
		effect:   effect,
		duration: duration,
		opts:     opts,
	}
	if img != nil {
		c.src = prepare(img, opts.Width, opts.Height)
	}
	return c
}

// Duration returns the requested clip length in seconds.
func (c *Clip) Duration() float64 { return c.duration }

// FrameCount returns the exact number of output frames.
func (c *Clip) FrameCount() int {
	n := int(math.Round(c.duration * float64(c.opts.FPS)))
	if n < 1 {
		n = 1
	}
	return n
}

// Frame renders output frame i into a pooled buffer. The caller
// releases it with Release once written out.
func (c *Clip) Frame(i int) *image.RGBA {
	out := system.GetImage(image.Rect(0, 0, c.opts.Width, c.opts.Height))

	if c.src == nil {
		for p := range out.Pix {
			if p%4 == 3 {
				out.Pix[p] = 0xff
			} else {
				out.Pix[p] = 0
			}
		}
		return out
	}

	t := float64(i) / float64(c.opts.FPS)
	progress := t / math.Max(c.duration, 0.001)
	if progress > 1 {
		progress = 1
	}
	progress = EaseInOutCubic(progress)

	ob := c.src.Bounds()
	ow, oh := ob.Dx(), ob.Dy()

	cam := CameraAt(c.effect, progress, float64(ow), float64(oh), c.opts.ZoomStart, c.opts.ZoomEnd)
	x1, y1, w, h := CropWindow(cam, ow, oh, c.opts.Width, c.opts.Height)

	crop := c.src.SubImage(image.Rect(x1, y1, x1+w, y1+h))
	xdraw.CatmullRom.Scale(out, out.Bounds(), crop, crop.Bounds(), xdraw.Src, nil)
	return out
}

// Release returns a frame buffer to the pool.
func (c *Clip) Release(frame *image.RGBA) {
	system.PutImage(frame)
}

// WriteTo streams every frame as raw RGBA bytes, the wire format the
// segment encoder feeds to ffmpeg.
func (c *Clip) WriteTo(w io.Writer) (int64, error) {
	var written int64
	for i := 0; i < c.FrameCount(); i++ {
		frame := c.Frame(i)
		n, err := w.Write(frame.Pix)
		c.Release(frame)
		written += int64(n)
		if err != nil {
			return written, err
		}
	}
	return written, nil
}

// prepare center-crops the still to the output aspect ratio and scales
// it up by the oversampling factor.
func prepare(img image.Image, outW, outH int) *image.RGBA {
	cropped := cropToAspect(img, outW, outH)

	ow := int(float64(outW) * oversample)
	oh := int(float64(outH) * oversample)

	dst := image.NewRGBA(image.Rect(0, 0, ow, oh))
	xdraw.CatmullRom.Scale(dst, dst.Bounds(), cropped, cropped.Bounds(), xdraw.Src, nil)
	return dst
}

// cropToAspect returns the centered sub-rectangle of img matching the
// target aspect ratio.
func cropToAspect(img image.Image, targetW, targetH int) image.Image {
	b := img.Bounds()
	imgW, imgH := b.Dx(), b.Dy()

	targetRatio := float64(targetW) / float64(targetH)
	imgRatio := float64(imgW) / float64(imgH)

	rect := b
	if imgRatio > targetRatio {
		newW := int(float64(imgH) * targetRatio)
		left := b.Min.X + (imgW-newW)/2
		rect = image.Rect(left, b.Min.Y, left+newW, b.Max.Y)
	} else if imgRatio < targetRatio {
		newH := int(float64(imgW) / targetRatio)
		top := b.Min.Y + (imgH-newH)/2
		rect = image.Rect(b.Min.X, top, b.Max.X, top+newH)
	}

	type subImager interface {
		SubImage(image.Rectangle) image.Image
	}
	if si, ok := img.(subImager); ok {
		return si.SubImage(rect)
	}

	// Decoder returned an unsliceable type: copy the window out.
	out := image.NewRGBA(image.Rect(0, 0, rect.Dx(), rect.Dy()))
	for y := 0; y < rect.Dy(); y++ {
		for x := 0; x < rect.Dx(); x++ {
			out.Set(x, y, img.At(rect.Min.X+x, rect.Min.Y+y))
		}
	}
	return out
}
