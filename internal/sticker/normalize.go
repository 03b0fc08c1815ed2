package sticker

import (
	"image"
	"image/color"

	"github.com/disintegration/imaging"
)

// Normalize fits frame inside a targetSize square, preserving its aspect
// ratio, and centers it on a fully transparent canvas. Sources smaller than
// the canvas are scaled up. The result always measures exactly
// targetSize x targetSize.
func Normalize(frame image.Image, targetSize int) *CanvasFrame {
	canvas := imaging.New(targetSize, targetSize, color.NRGBA{})

	b := frame.Bounds()
	if b.Empty() || targetSize <= 0 {
		return &CanvasFrame{img: canvas}
	}

	w, h := fitWithin(b.Dx(), b.Dy(), targetSize)

	var resized *image.NRGBA
	if w == b.Dx() && h == b.Dy() {
		resized = imaging.Clone(frame)
	} else {
		resized = imaging.Resize(frame, w, h, imaging.Lanczos)
	}

	offset := image.Pt((targetSize-w)/2, (targetSize-h)/2)

	// The canvas is fully transparent, so copying the pixels is the same as
	// compositing the frame over it with its own alpha.
	return &CanvasFrame{img: imaging.Paste(canvas, resized, offset)}
}

// fitWithin scales (w, h) by min(target/w, target/h). The longer edge lands
// exactly on target and the shorter one is rounded, never below one pixel.
func fitWithin(w, h, target int) (int, int) {
	if w >= h {
		return target, clampEdge((h*target*2+w)/(2*w), target)
	}
	return clampEdge((w*target*2+h)/(2*h), target), target
}

func clampEdge(v, target int) int {
	if v < 1 {
		return 1
	}
	if v > target {
		return target
	}
	return v
}
