package sticker

import (
	"bytes"
	"encoding/binary"
	"errors"
	"image"
	"image/draw"
	"image/gif"
	_ "image/jpeg" // register JPEG decoder
	_ "image/png"  // register PNG decoder
	"math"

	"github.com/disintegration/imaging"
	"github.com/gabriel-vasile/mimetype"
	"github.com/gen2brain/webp"
	"github.com/kettek/apng"
	_ "golang.org/x/image/bmp"  // register BMP decoder
	_ "golang.org/x/image/tiff" // register TIFF decoder
	_ "golang.org/x/image/webp" // register still WebP decoder
)

var (
	errEmptySource = errors.New("empty source")
	errNoFrames    = errors.New("no frames")
)

// RawFrame is one native frame of a decoded source.
type RawFrame struct {
	Image image.Image
	// DelayMs is the declared display time. It is meaningful only when
	// HasDelay is true.
	DelayMs  int
	HasDelay bool
}

// Asset is a decoded source image.
type Asset struct {
	// Format is the sniffed MIME type of the source.
	Format string
	Frames []RawFrame
}

// Animated reports whether the asset has more than one native frame.
func (a *Asset) Animated() bool {
	return len(a.Frames) > 1
}

// Decode turns source bytes into an Asset. GIF and APNG sources are decoded
// frame by frame and composited with their disposal methods so that every
// frame is a full picture. Animated WebP frames come back fully composited
// from libwebp. All other formats yield a single frame.
func Decode(data []byte) (*Asset, error) {
	if len(data) == 0 {
		return nil, &DecodeError{Err: errEmptySource}
	}

	mime := mimetype.Detect(data)
	asset := &Asset{Format: mime.String()}

	switch {
	case mime.Is("image/gif"):
		g, err := gif.DecodeAll(bytes.NewReader(data))
		if err != nil {
			return nil, &DecodeError{Format: asset.Format, Err: err}
		}
		asset.Frames = gifFrames(g)
	case mime.Is("image/vnd.mozilla.apng"):
		a, err := apng.DecodeAll(bytes.NewReader(data))
		if err != nil {
			return nil, &DecodeError{Format: asset.Format, Err: err}
		}
		asset.Frames = apngFrames(a)
	case mime.Is("image/webp") && isAnimatedWebP(data):
		w, err := webp.DecodeAll(bytes.NewReader(data))
		if err != nil {
			return nil, &DecodeError{Format: asset.Format, Err: err}
		}
		asset.Frames = webpFrames(w)
	default:
		img, _, err := image.Decode(bytes.NewReader(data))
		if err != nil {
			return nil, &DecodeError{Format: asset.Format, Err: err}
		}
		asset.Frames = []RawFrame{{Image: img}}
	}

	if len(asset.Frames) == 0 {
		return nil, &DecodeError{Format: asset.Format, Err: errNoFrames}
	}
	return asset, nil
}

// gifFrames renders each GIF frame onto the logical screen, honouring the
// per-frame disposal method before moving to the next one.
func gifFrames(g *gif.GIF) []RawFrame {
	screen := image.Rect(0, 0, g.Config.Width, g.Config.Height)
	if screen.Empty() {
		for _, p := range g.Image {
			screen.Max.X = max(screen.Max.X, p.Bounds().Max.X)
			screen.Max.Y = max(screen.Max.Y, p.Bounds().Max.Y)
		}
	}

	canvas := image.NewNRGBA(screen)
	frames := make([]RawFrame, 0, len(g.Image))

	for i, p := range g.Image {
		var disposal byte
		if i < len(g.Disposal) {
			disposal = g.Disposal[i]
		}

		var previous *image.NRGBA
		if disposal == gif.DisposalPrevious {
			previous = imaging.Clone(canvas)
		}

		draw.Draw(canvas, p.Bounds(), p, p.Bounds().Min, draw.Over)

		frame := RawFrame{Image: imaging.Clone(canvas)}
		if i < len(g.Delay) {
			// GIF delays are in hundredths of a second.
			frame.DelayMs = g.Delay[i] * 10
			frame.HasDelay = true
		}
		frames = append(frames, frame)

		switch disposal {
		case gif.DisposalBackground:
			draw.Draw(canvas, p.Bounds(), image.Transparent, image.Point{}, draw.Src)
		case gif.DisposalPrevious:
			canvas = previous
		}
	}

	return frames
}

// apngFrames renders the animation frames of an APNG onto its canvas. A
// default image that is not part of the animation is skipped.
func apngFrames(a apng.APNG) []RawFrame {
	var screen image.Rectangle
	for _, f := range a.Frames {
		screen = screen.Union(apngRect(f))
	}

	canvas := image.NewNRGBA(screen)
	frames := make([]RawFrame, 0, len(a.Frames))

	for _, f := range a.Frames {
		if f.IsDefault {
			continue
		}
		r := apngRect(f)

		var previous *image.NRGBA
		if f.DisposeOp == apng.DISPOSE_OP_PREVIOUS {
			previous = imaging.Clone(canvas)
		}

		op := draw.Over
		if f.BlendOp == apng.BLEND_OP_SOURCE {
			op = draw.Src
		}
		draw.Draw(canvas, r, f.Image, f.Image.Bounds().Min, op)

		frames = append(frames, RawFrame{
			Image:    imaging.Clone(canvas),
			DelayMs:  int(math.Round(f.GetDelay() * 1000)),
			HasDelay: true,
		})

		switch f.DisposeOp {
		case apng.DISPOSE_OP_BACKGROUND:
			draw.Draw(canvas, r, image.Transparent, image.Point{}, draw.Src)
		case apng.DISPOSE_OP_PREVIOUS:
			canvas = previous
		}
	}

	return frames
}

// apngRect is the canvas region a frame covers.
func apngRect(f apng.Frame) image.Rectangle {
	b := f.Image.Bounds()
	return b.Sub(b.Min).Add(image.Pt(f.XOffset, f.YOffset))
}

// webpFrames pairs each decoded WebP frame with its delay in milliseconds.
func webpFrames(w *webp.WEBP) []RawFrame {
	frames := make([]RawFrame, 0, len(w.Image))
	for i, img := range w.Image {
		frame := RawFrame{Image: img}
		if i < len(w.Delay) {
			frame.DelayMs = w.Delay[i]
			frame.HasDelay = true
		}
		frames = append(frames, frame)
	}
	return frames
}

// isAnimatedWebP reports whether an extended (VP8X) WebP header carries the
// animation flag.
func isAnimatedWebP(data []byte) bool {
	if len(data) < 21 || string(data[0:4]) != "RIFF" || string(data[8:12]) != "WEBP" {
		return false
	}
	if string(data[12:16]) != "VP8X" || binary.LittleEndian.Uint32(data[16:20]) < 10 {
		return false
	}
	return data[20]&0x02 != 0
}
