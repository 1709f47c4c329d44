package quality

import (
	"context"
	"image"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"

	"github.com/nfnt/resize"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/Brownie44l1/sar2rgb/internal/codec"
	"github.com/Brownie44l1/sar2rgb/internal/logging"
)

// Scorer compares a directory of reference images with a directory of
// produced images matched by file name.
type Scorer struct {
	// Size is the square resolution both images are resized to.
	Size int
	// Workers bounds the number of pairs scored concurrently.
	Workers int
	Logger  zerolog.Logger
}

// NewScorer returns a Scorer at the canonical resolution using every CPU.
func NewScorer(logger zerolog.Logger) *Scorer {
	return &Scorer{
		Size:    codec.CanonicalSize,
		Workers: runtime.NumCPU(),
		Logger:  logging.Component(logger, "quality"),
	}
}

// PairResult is the outcome of scoring one file name. Exactly one of Err or
// the metric values is meaningful.
type PairResult struct {
	Name       string
	PixelError float64
	PSNR       float64
	SSIM       float64
	Err        error
}

// Score enumerates referenceDir and scores every file that has a counterpart
// in producedDir. A pair that is missing or fails to load or score is
// recorded as a skip and never fails the batch. Score itself fails only when
// referenceDir cannot be listed or ctx ends before all pairs are scored.
func (s *Scorer) Score(ctx context.Context, referenceDir, producedDir string) (*Report, error) {
	entries, err := os.ReadDir(referenceDir)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to list reference directory %s", referenceDir)
	}

	var names []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		names = append(names, entry.Name())
	}
	s.Logger.Info().
		Str("reference", referenceDir).
		Str("produced", producedDir).
		Int("files", len(names)).
		Msg("scoring image pairs")

	results := make([]PairResult, len(names))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers())
	for i, name := range names {
		i, name := i, name
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			results[i] = s.ScorePair(name,
				filepath.Join(referenceDir, name),
				filepath.Join(producedDir, name))
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, errors.Wrap(err, "scoring interrupted")
	}

	for _, r := range results {
		if r.Err != nil {
			s.Logger.Warn().Str("file", r.Name).Err(r.Err).Msg("skipping pair")
			continue
		}
		s.Logger.Debug().
			Str("file", r.Name).
			Float64("pixel_error", r.PixelError).
			Float64("psnr", r.PSNR).
			Float64("ssim", r.SSIM).
			Msg("scored pair")
	}
	return Aggregate(results), nil
}

// ScorePair scores one reference/produced pair. Failures are reported in the
// result, typed as *MissingPairError, *codec.InputError, *codec.DecodeError or
// *MetricComputationError.
func (s *Scorer) ScorePair(name, referencePath, producedPath string) PairResult {
	result := PairResult{Name: name}

	if _, err := os.Stat(producedPath); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			result.Err = &MissingPairError{Name: name}
		} else {
			result.Err = errors.Wrapf(err, "failed to stat %s", producedPath)
		}
		return result
	}

	reference, err := s.load(referencePath)
	if err != nil {
		result.Err = err
		return result
	}
	produced, err := s.load(producedPath)
	if err != nil {
		result.Err = err
		return result
	}

	mse, err := PixelError(reference, produced)
	if err != nil {
		result.Err = &MetricComputationError{Name: name, Metric: MetricPixelError, Err: err}
		return result
	}
	ssim, err := SSIM(reference, produced)
	if err != nil {
		result.Err = &MetricComputationError{Name: name, Metric: MetricSSIM, Err: err}
		return result
	}

	result.PixelError = mse
	result.PSNR = PSNR(mse)
	result.SSIM = ssim
	return result
}

// load decodes path and resamples it to Size x Size with bicubic filtering.
func (s *Scorer) load(path string) (*image.NRGBA, error) {
	img, err := codec.ReadImage(path)
	if err != nil {
		return nil, err
	}
	size := s.size()
	if b := img.Bounds(); b.Dx() == size && b.Dy() == size {
		return img, nil
	}
	return codec.ToNRGBA(resize.Resize(uint(size), uint(size), img, resize.Bicubic)), nil
}

func (s *Scorer) size() int {
	if s.Size <= 0 {
		return codec.CanonicalSize
	}
	return s.Size
}

func (s *Scorer) workers() int {
	if s.Workers <= 0 {
		return 1
	}
	return s.Workers
}
