package similarity

import (
	"bytes"
	"image"
	"image/color"
	"image/draw"
	"math"
	"path/filepath"
	"sync"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Brownie44l1/sar2rgb/internal/codec"
)

// patchDisc is a stand-in PatchGAN: every output patch holds the mean of the
// candidate channels, so brighter candidates look "more real".
type patchDisc struct {
	channels int64
	size     int64

	mu     sync.Mutex
	inputs []*codec.Tensor
	logits func(candidateMean float64) float32
}

func (d *patchDisc) InputShape() []int64 {
	return []int64{1, d.channels, d.size, d.size}
}

func (d *patchDisc) Forward(in *codec.Tensor) (*codec.Tensor, error) {
	d.mu.Lock()
	d.inputs = append(d.inputs, in)
	d.mu.Unlock()

	data := in.Data()
	plane := int(d.size * d.size)
	candidate := data[len(data)-3*plane:]
	var sum float64
	for _, v := range candidate {
		sum += float64(v)
	}
	mean := sum / float64(len(candidate))

	logit := float32(mean)
	if d.logits != nil {
		logit = d.logits(mean)
	}
	out := make([]float32, 4)
	for i := range out {
		out[i] = logit
	}
	return codec.NewTensor([]int64{1, 1, 2, 2}, out)
}

type failingDisc struct{ patchDisc }

func (d *failingDisc) Forward(*codec.Tensor) (*codec.Tensor, error) {
	return nil, errors.New("runtime exploded")
}

func fill(size int, c color.NRGBA) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, size, size))
	draw.Draw(img, img.Bounds(), &image.Uniform{C: c}, image.Point{}, draw.Src)
	return img
}

func TestNewComparer(t *testing.T) {
	c, err := NewComparer(&patchDisc{channels: 6, size: 8}, codec.Symmetric)
	require.NoError(t, err)
	assert.True(t, c.Conditional)
	assert.Equal(t, codec.Codec{Size: 8, Norm: codec.Symmetric}, c.Codec)

	c, err = NewComparer(&patchDisc{channels: 3, size: 8}, codec.ZeroOne)
	require.NoError(t, err)
	assert.False(t, c.Conditional)

	_, err = NewComparer(&patchDisc{channels: 4, size: 8}, codec.Symmetric)
	assert.Error(t, err)
}

func TestCompare_Identical(t *testing.T) {
	disc := &patchDisc{channels: 6, size: 8}
	c, err := NewComparer(disc, codec.Symmetric)
	require.NoError(t, err)

	img := fill(8, color.NRGBA{R: 30, G: 140, B: 200, A: 0xff})
	report, err := c.Compare(img, img)
	require.NoError(t, err)

	assert.Equal(t, 1.0, report.SimilarityRatio)
	assert.Equal(t, 0.0, report.DiscriminatorDifference)
	assert.Equal(t, report.RealScore, report.GeneratedScore)
	assert.Equal(t, report.GeneratedScore, report.RealismScore)
}

func TestCompare_ConditionsOnReference(t *testing.T) {
	disc := &patchDisc{channels: 6, size: 4}
	c, err := NewComparer(disc, codec.ZeroOne)
	require.NoError(t, err)

	reference := fill(4, color.NRGBA{R: 255, G: 255, B: 255, A: 0xff})
	produced := fill(4, color.NRGBA{A: 0xff})
	_, err = c.Compare(reference, produced)
	require.NoError(t, err)

	require.Len(t, disc.inputs, 2)
	plane := 16
	for i, in := range disc.inputs {
		assert.Equal(t, []int64{1, 6, 4, 4}, in.Shape())
		for _, v := range in.Data()[:3*plane] {
			require.Equal(t, float32(1), v, "pair %d: conditioning channels must hold the reference", i)
		}
	}
	for _, v := range disc.inputs[0].Data()[3*plane:] {
		require.Equal(t, float32(1), v)
	}
	for _, v := range disc.inputs[1].Data()[3*plane:] {
		require.Equal(t, float32(0), v)
	}
}

func TestCompare_Scores(t *testing.T) {
	disc := &patchDisc{channels: 6, size: 4}
	c, err := NewComparer(disc, codec.ZeroOne)
	require.NoError(t, err)

	report, err := c.Compare(
		fill(4, color.NRGBA{R: 255, G: 255, B: 255, A: 0xff}),
		fill(4, color.NRGBA{A: 0xff}),
	)
	require.NoError(t, err)

	realProb := 1 / (1 + math.Exp(-1))
	generatedProb := 0.5
	assert.InDelta(t, realProb, report.RealScore, 1e-9)
	assert.InDelta(t, generatedProb, report.GeneratedScore, 1e-9)
	assert.InDelta(t, generatedProb, report.RealismScore, 1e-9)
	assert.InDelta(t, generatedProb/realProb, report.SimilarityRatio, 1e-9)
	assert.InDelta(t, realProb-generatedProb, report.DiscriminatorDifference, 1e-9)
}

func TestCompare_Unconditional(t *testing.T) {
	disc := &patchDisc{channels: 3, size: 4}
	c, err := NewComparer(disc, codec.Symmetric)
	require.NoError(t, err)

	img := fill(4, color.NRGBA{R: 10, G: 20, B: 30, A: 0xff})
	report, err := c.Compare(img, img)
	require.NoError(t, err)
	assert.Equal(t, 1.0, report.SimilarityRatio)
	require.Len(t, disc.inputs, 2)
	assert.Equal(t, []int64{1, 3, 4, 4}, disc.inputs[0].Shape())
}

func TestCompare_ZeroReferenceProbability(t *testing.T) {
	disc := &patchDisc{
		channels: 6,
		size:     4,
		logits: func(mean float64) float32 {
			if mean > 0.5 {
				return float32(math.Inf(-1))
			}
			return 0
		},
	}
	c, err := NewComparer(disc, codec.ZeroOne)
	require.NoError(t, err)

	report, err := c.Compare(
		fill(4, color.NRGBA{R: 255, G: 255, B: 255, A: 0xff}),
		fill(4, color.NRGBA{A: 0xff}),
	)
	require.NoError(t, err)
	assert.Equal(t, 0.0, report.RealScore)
	assert.Equal(t, 0.0, report.SimilarityRatio)
	assert.InDelta(t, 0.5, report.DiscriminatorDifference, 1e-12)
}

func TestCompare_DiscriminatorFailure(t *testing.T) {
	disc := &failingDisc{patchDisc{channels: 6, size: 4}}
	c, err := NewComparer(disc, codec.Symmetric)
	require.NoError(t, err)

	img := fill(4, color.NRGBA{A: 0xff})
	_, err = c.Compare(img, img)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "runtime exploded")
}

func TestCompareFiles_MissingImage(t *testing.T) {
	c, err := NewComparer(&patchDisc{channels: 6, size: 4}, codec.Symmetric)
	require.NoError(t, err)

	dir := t.TempDir()
	present := filepath.Join(dir, "real.png")
	require.NoError(t, codec.WriteImage(present, fill(4, color.NRGBA{A: 0xff})))
	missing := filepath.Join(dir, "generated.png")

	_, err = c.CompareFiles(present, missing)
	require.Error(t, err)
	assert.Contains(t, err.Error(), missing)
}

func TestNewReport(t *testing.T) {
	r := NewReport(0, 0.3)
	assert.Equal(t, 0.0, r.SimilarityRatio)
	assert.InDelta(t, 0.3, r.DiscriminatorDifference, 1e-12)

	r = NewReport(0.4, 0.8)
	assert.InDelta(t, 2.0, r.SimilarityRatio, 1e-12)
	assert.InDelta(t, 0.8, r.RealismScore, 1e-12)
}

func TestInterpret(t *testing.T) {
	tests := []struct {
		realism, ratio          float64
		wantRealism, wantSimilar string
	}{
		{0.8, 0.95, "highly realistic", "very similar"},
		{0.7, 0.9, "moderately realistic", "good similarity"},
		{0.6, 0.75, "moderately realistic", "good similarity"},
		{0.5, 0.7, "does not appear realistic", "differs significantly"},
		{0.1, 1.5, "does not appear realistic", "very similar"},
	}
	for _, tt := range tests {
		in := (&Report{RealismScore: tt.realism, SimilarityRatio: tt.ratio}).Interpret()
		assert.Contains(t, in.Realism, tt.wantRealism, "realism %v", tt.realism)
		assert.Contains(t, in.Similarity, tt.wantSimilar, "ratio %v", tt.ratio)
	}
}

func TestRender(t *testing.T) {
	var buf bytes.Buffer
	NewReport(0.8, 0.76).Render(&buf)
	out := buf.String()
	assert.Contains(t, out, "Real image score: 0.8000")
	assert.Contains(t, out, "Generated image score: 0.7600")
	assert.Contains(t, out, "Similarity ratio: 0.9500")
	assert.Contains(t, out, "Discriminator difference: 0.0400")
	assert.Contains(t, out, "highly realistic")
	assert.Contains(t, out, "very similar")
}
