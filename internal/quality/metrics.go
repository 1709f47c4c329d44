// Package quality scores produced images against references with pixel
// error, peak signal-to-noise ratio and structural similarity.
package quality

import (
	"image"
	"math"

	"github.com/pkg/errors"
)

// Metric names a per-pair score.
type Metric string

const (
	MetricPixelError Metric = "pixel_error"
	MetricPSNR       Metric = "psnr"
	MetricSSIM       Metric = "ssim"
)

// Metrics lists every metric in report order.
var Metrics = []Metric{MetricPixelError, MetricPSNR, MetricSSIM}

const (
	dataRange  = 255.0
	ssimWindow = 7
	ssimK1     = 0.01
	ssimK2     = 0.03
)

// ErrSizeMismatch is returned when two images do not have the same dimensions.
var ErrSizeMismatch = errors.New("images have different dimensions")

// PixelError is the mean squared difference over the R, G and B channels of
// every pixel.
func PixelError(a, b *image.NRGBA) (float64, error) {
	size := a.Bounds().Size()
	if size != b.Bounds().Size() {
		return 0, errors.Wrapf(ErrSizeMismatch, "%v vs %v", size, b.Bounds().Size())
	}
	if size.X == 0 || size.Y == 0 {
		return 0, errors.New("empty image")
	}

	var sum float64
	for y := 0; y < size.Y; y++ {
		ao := a.PixOffset(a.Rect.Min.X, a.Rect.Min.Y+y)
		bo := b.PixOffset(b.Rect.Min.X, b.Rect.Min.Y+y)
		for x := 0; x < size.X; x++ {
			for ch := 0; ch < 3; ch++ {
				d := float64(a.Pix[ao+ch]) - float64(b.Pix[bo+ch])
				sum += d * d
			}
			ao += 4
			bo += 4
		}
	}
	return sum / float64(size.X*size.Y*3), nil
}

// PSNR converts a pixel error into decibels for 8-bit data. Identical images
// (mse == 0) yield +Inf.
func PSNR(mse float64) float64 {
	if mse <= 0 {
		return math.Inf(1)
	}
	return 10 * math.Log10(dataRange*dataRange/mse)
}

// SSIM computes the mean structural similarity of two RGB images using a 7x7
// uniform window, K1=0.01, K2=0.03, data range 255 and sample covariances.
// Each channel is scored over the windows that lie fully inside the image and
// the three channel scores are averaged. The result lies in [-1, 1].
func SSIM(a, b *image.NRGBA) (float64, error) {
	size := a.Bounds().Size()
	if size != b.Bounds().Size() {
		return 0, errors.Wrapf(ErrSizeMismatch, "%v vs %v", size, b.Bounds().Size())
	}
	if size.X < ssimWindow || size.Y < ssimWindow {
		return 0, errors.Errorf("image %dx%d is smaller than the %dx%d window",
			size.X, size.Y, ssimWindow, ssimWindow)
	}

	var total float64
	for ch := 0; ch < 3; ch++ {
		total += channelSSIM(a, b, ch)
	}
	return total / 3, nil
}

// channelSSIM uses summed-area tables so each window mean costs four lookups.
func channelSSIM(a, b *image.NRGBA, ch int) float64 {
	w, h := a.Rect.Dx(), a.Rect.Dy()
	stride := w + 1
	sx := make([]float64, stride*(h+1))
	sy := make([]float64, len(sx))
	sxx := make([]float64, len(sx))
	syy := make([]float64, len(sx))
	sxy := make([]float64, len(sx))

	for y := 0; y < h; y++ {
		ao := a.PixOffset(a.Rect.Min.X, a.Rect.Min.Y+y) + ch
		bo := b.PixOffset(b.Rect.Min.X, b.Rect.Min.Y+y) + ch
		for x := 0; x < w; x++ {
			xv := float64(a.Pix[ao+4*x])
			yv := float64(b.Pix[bo+4*x])
			i := (y+1)*stride + x + 1
			sx[i] = xv + sx[i-1] + sx[i-stride] - sx[i-stride-1]
			sy[i] = yv + sy[i-1] + sy[i-stride] - sy[i-stride-1]
			sxx[i] = xv*xv + sxx[i-1] + sxx[i-stride] - sxx[i-stride-1]
			syy[i] = yv*yv + syy[i-1] + syy[i-stride] - syy[i-stride-1]
			sxy[i] = xv*yv + sxy[i-1] + sxy[i-stride] - sxy[i-stride-1]
		}
	}

	n := float64(ssimWindow * ssimWindow)
	covNorm := n / (n - 1)
	c1 := (ssimK1 * dataRange) * (ssimK1 * dataRange)
	c2 := (ssimK2 * dataRange) * (ssimK2 * dataRange)

	var sum float64
	var count int
	for y0 := 0; y0+ssimWindow <= h; y0++ {
		top := y0 * stride
		bottom := (y0 + ssimWindow) * stride
		for x0 := 0; x0+ssimWindow <= w; x0++ {
			x1 := x0 + ssimWindow
			box := func(t []float64) float64 {
				return t[bottom+x1] - t[top+x1] - t[bottom+x0] + t[top+x0]
			}
			ux := box(sx) / n
			uy := box(sy) / n
			vx := covNorm * (box(sxx)/n - ux*ux)
			vy := covNorm * (box(syy)/n - uy*uy)
			vxy := covNorm * (box(sxy)/n - ux*uy)

			num := (2*ux*uy + c1) * (2*vxy + c2)
			den := (ux*ux + uy*uy + c1) * (vx + vy + c2)
			sum += num / den
			count++
		}
	}
	return sum / float64(count)
}
