// Package codec converts images to the NCHW float32 tensors a translation
// network consumes and converts network output back into images.
//
// A Codec is bound to exactly one normalization convention. Encode and Decode
// of the same Codec are inverses of each other; mixing conventions across a
// network's input and output is not supported.
package codec

import (
	"image"
	"image/draw"
	"math"
	"strings"

	"github.com/nfnt/resize"
	"github.com/pkg/errors"
)

// CanonicalSize is the square resolution the translation network was trained on.
const CanonicalSize = 256

// Normalization selects how 8-bit channel values map to floats.
type Normalization int

const (
	// Symmetric maps [0,255] to [-1,1] via (x/255-0.5)/0.5. This is what the
	// sar2rgb generator was exported with, so it is the zero value.
	Symmetric Normalization = iota
	// ZeroOne maps [0,255] to [0,1].
	ZeroOne
)

func (n Normalization) String() string {
	switch n {
	case Symmetric:
		return "symmetric"
	case ZeroOne:
		return "zero_one"
	default:
		return "unknown"
	}
}

// ParseNormalization accepts the names produced by String.
func ParseNormalization(s string) (Normalization, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "symmetric", "minus_one_one", "":
		return Symmetric, nil
	case "zero_one", "unit":
		return ZeroOne, nil
	}
	return 0, errors.Errorf("unknown normalization %q", s)
}

func (n Normalization) MarshalText() ([]byte, error) {
	return []byte(n.String()), nil
}

func (n *Normalization) UnmarshalText(b []byte) error {
	v, err := ParseNormalization(string(b))
	if err != nil {
		return err
	}
	*n = v
	return nil
}

func (n Normalization) forward(v uint8) float32 {
	x := float32(v) / 255.0
	if n == Symmetric {
		x = (x - 0.5) / 0.5
	}
	return x
}

func (n Normalization) inverse(x float32) uint8 {
	v := float64(x)
	if n == Symmetric {
		v = (v + 1) / 2
	}
	v *= 255
	if v < 0 {
		v = 0
	}
	if v > 255 {
		v = 255
	}
	return uint8(math.Round(v))
}

// Codec encodes images into (1,3,Size,Size) tensors and decodes them back.
type Codec struct {
	Size int
	Norm Normalization
}

// New returns a codec at the canonical resolution.
func New(norm Normalization) Codec {
	return Codec{Size: CanonicalSize, Norm: norm}
}

func (c Codec) size() int {
	if c.Size <= 0 {
		return CanonicalSize
	}
	return c.Size
}

// Shape is the tensor shape Encode produces.
func (c Codec) Shape() []int64 {
	s := int64(c.size())
	return []int64{1, 3, s, s}
}

// Encode resizes img to Size x Size with Lanczos3 resampling, reorders pixels
// channel-first and scales them per the codec's normalization. Images that
// already have the target size are not resampled.
func (c Codec) Encode(img image.Image) (*Tensor, error) {
	if img == nil || img.Bounds().Empty() {
		return nil, &InputError{Reason: "empty image"}
	}

	size := c.size()
	if b := img.Bounds(); b.Dx() != size || b.Dy() != size {
		img = resize.Resize(uint(size), uint(size), img, resize.Lanczos3)
	}
	rgb := ToNRGBA(img)

	plane := size * size
	data := make([]float32, 3*plane)
	origin := rgb.Rect.Min
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			off := rgb.PixOffset(origin.X+x, origin.Y+y)
			p := y*size + x
			data[p] = c.Norm.forward(rgb.Pix[off])
			data[plane+p] = c.Norm.forward(rgb.Pix[off+1])
			data[2*plane+p] = c.Norm.forward(rgb.Pix[off+2])
		}
	}

	return &Tensor{shape: []int64{1, 3, int64(size), int64(size)}, data: data}, nil
}

// Decode inverts Encode: it undoes the normalization, clips to [0,255], rounds
// and reorders channel-last. The tensor must have shape (1,3,H,W).
func (c Codec) Decode(t *Tensor) (*image.NRGBA, error) {
	if t == nil {
		return nil, &ShapeError{Op: "decode", Reason: "nil tensor"}
	}
	if len(t.shape) != 4 || t.shape[0] != 1 || t.shape[1] != 3 {
		return nil, &ShapeError{Op: "decode", Shape: t.Shape(), Reason: "want (1,3,H,W)"}
	}

	h, w := int(t.shape[2]), int(t.shape[3])
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	plane := h * w
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			p := y*w + x
			off := img.PixOffset(x, y)
			img.Pix[off] = c.Norm.inverse(t.data[p])
			img.Pix[off+1] = c.Norm.inverse(t.data[plane+p])
			img.Pix[off+2] = c.Norm.inverse(t.data[2*plane+p])
			img.Pix[off+3] = 0xff
		}
	}
	return img, nil
}

// ToNRGBA converts img to an NRGBA buffer with the same bounds. NRGBA inputs
// are returned as is.
func ToNRGBA(img image.Image) *image.NRGBA {
	if n, ok := img.(*image.NRGBA); ok {
		return n
	}
	b := img.Bounds()
	dst := image.NewNRGBA(b)
	draw.Draw(dst, b, img, b.Min, draw.Src)
	return dst
}
