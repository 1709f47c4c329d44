// Package similarity scores how real a produced image looks to a trained
// Pix2Pix discriminator, relative to the reference image.
//
// A conditional discriminator judges (conditioning, candidate) pairs. The
// conditioning input that produced an image is not known at comparison time,
// so the reference image stands in for it. Scores are therefore biased
// towards the reference and are only comparable between runs that use the
// same substitution.
package similarity

import (
	"fmt"
	"image"
	"io"
	"math"

	"github.com/pkg/errors"

	"github.com/Brownie44l1/sar2rgb/internal/codec"
	"github.com/Brownie44l1/sar2rgb/internal/model"
)

// Report holds the discriminator's view of a reference/produced pair.
type Report struct {
	RealScore               float64 `json:"real_score"`
	GeneratedScore          float64 `json:"generated_score"`
	RealismScore            float64 `json:"realism_score"`
	SimilarityRatio         float64 `json:"similarity_ratio"`
	DiscriminatorDifference float64 `json:"discriminator_difference"`
}

// NewReport derives the report from the probabilities the discriminator
// assigned to the reference pair and to the produced pair.
func NewReport(realProb, generatedProb float64) *Report {
	ratio := 0.0
	if realProb > 0 {
		ratio = generatedProb / realProb
	}
	return &Report{
		RealScore:               realProb,
		GeneratedScore:          generatedProb,
		RealismScore:            generatedProb,
		SimilarityRatio:         ratio,
		DiscriminatorDifference: math.Abs(realProb - generatedProb),
	}
}

// Comparer runs a discriminator over reference/produced pairs.
type Comparer struct {
	Disc  model.Network
	Codec codec.Codec
	// Conditional discriminators take a 6-channel (conditioning, candidate)
	// input; unconditional ones take the 3-channel candidate alone.
	Conditional bool
}

// NewComparer configures a Comparer from the discriminator's declared input
// shape: 6 channels means conditional, 3 means unconditional.
func NewComparer(disc model.Network, norm codec.Normalization) (*Comparer, error) {
	shape := disc.InputShape()
	if len(shape) != 4 || shape[2] != shape[3] {
		return nil, errors.Errorf("discriminator input %v is not a square NCHW image", shape)
	}

	var conditional bool
	switch shape[1] {
	case 6:
		conditional = true
	case 3:
	default:
		return nil, errors.Errorf("discriminator input %v: want 3 or 6 channels", shape)
	}
	return &Comparer{
		Disc:        disc,
		Codec:       codec.Codec{Size: int(shape[3]), Norm: norm},
		Conditional: conditional,
	}, nil
}

// Compare scores produced against reference.
func (c *Comparer) Compare(reference, produced image.Image) (*Report, error) {
	realTensor, err := c.Codec.Encode(reference)
	if err != nil {
		return nil, errors.Wrap(err, "failed to encode reference")
	}
	generatedTensor, err := c.Codec.Encode(produced)
	if err != nil {
		return nil, errors.Wrap(err, "failed to encode produced image")
	}

	realInput, generatedInput := realTensor, generatedTensor
	if c.Conditional {
		// The reference approximates the unknown conditioning input.
		condition := realTensor
		if realInput, err = codec.Concat(condition, realTensor); err != nil {
			return nil, err
		}
		if generatedInput, err = codec.Concat(condition, generatedTensor); err != nil {
			return nil, err
		}
	}

	realProb, err := c.probability(realInput)
	if err != nil {
		return nil, errors.Wrap(err, "discriminator failed on reference pair")
	}
	generatedProb, err := c.probability(generatedInput)
	if err != nil {
		return nil, errors.Wrap(err, "discriminator failed on produced pair")
	}
	return NewReport(realProb, generatedProb), nil
}

// CompareFiles reads both images and compares them.
func (c *Comparer) CompareFiles(referencePath, producedPath string) (*Report, error) {
	reference, err := codec.ReadImage(referencePath)
	if err != nil {
		return nil, errors.Wrap(err, "real image")
	}
	produced, err := codec.ReadImage(producedPath)
	if err != nil {
		return nil, errors.Wrap(err, "generated image")
	}
	return c.Compare(reference, produced)
}

// probability squashes the discriminator's raw patch outputs with a sigmoid
// and averages them into one probability.
func (c *Comparer) probability(in *codec.Tensor) (float64, error) {
	out, err := c.Disc.Forward(in)
	if err != nil {
		return 0, err
	}
	data := out.Data()
	if len(data) == 0 {
		return 0, errors.New("discriminator returned an empty tensor")
	}

	var sum float64
	for _, v := range data {
		sum += sigmoid(float64(v))
	}
	return sum / float64(len(data)), nil
}

func sigmoid(x float64) float64 {
	return 1 / (1 + math.Exp(-x))
}

// Interpretation is a plain-language reading of a Report.
type Interpretation struct {
	Realism    string
	Similarity string
}

// Interpret bands the realism score and similarity ratio.
func (r *Report) Interpret() Interpretation {
	var in Interpretation
	switch {
	case r.RealismScore > 0.7:
		in.Realism = "The generated image appears highly realistic to the discriminator."
	case r.RealismScore > 0.5:
		in.Realism = "The generated image appears moderately realistic to the discriminator."
	default:
		in.Realism = "The generated image does not appear realistic to the discriminator."
	}
	switch {
	case r.SimilarityRatio > 0.9:
		in.Similarity = "The generated image is very similar to the real image in style and content."
	case r.SimilarityRatio > 0.7:
		in.Similarity = "The generated image has good similarity to the real image."
	default:
		in.Similarity = "The generated image differs significantly from the real image."
	}
	return in
}

// Render prints the five scores followed by their interpretation.
func (r *Report) Render(w io.Writer) {
	fmt.Fprintln(w, "Similarity Analysis Results:")
	fmt.Fprintf(w, "  Real image score: %.4f (higher is more realistic)\n", r.RealScore)
	fmt.Fprintf(w, "  Generated image score: %.4f (higher is more realistic)\n", r.GeneratedScore)
	fmt.Fprintf(w, "  Realism score: %.4f (0-1, higher is more realistic)\n", r.RealismScore)
	fmt.Fprintf(w, "  Similarity ratio: %.4f (closer to 1 means more similar)\n", r.SimilarityRatio)
	fmt.Fprintf(w, "  Discriminator difference: %.4f (lower means more similar)\n", r.DiscriminatorDifference)

	in := r.Interpret()
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Interpretation:")
	fmt.Fprintf(w, "  %s\n", in.Realism)
	fmt.Fprintf(w, "  %s\n", in.Similarity)
}
