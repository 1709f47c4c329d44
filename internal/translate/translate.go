// Package translate runs the generator over images, files and directories.
package translate

import (
	"image"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/Brownie44l1/sar2rgb/internal/codec"
	"github.com/Brownie44l1/sar2rgb/internal/logging"
	"github.com/Brownie44l1/sar2rgb/internal/model"
)

// ProcessedSuffix is appended to the file stem of every directory output.
const ProcessedSuffix = "_processed"

// Translator turns SAR images into RGB images with a generator network.
type Translator struct {
	Net    model.Network
	Codec  codec.Codec
	Logger zerolog.Logger
}

// New returns a Translator for net. c must match the network's input
// contract, normally model.Metadata.Codec.
func New(net model.Network, c codec.Codec, logger zerolog.Logger) *Translator {
	return &Translator{
		Net:    net,
		Codec:  c,
		Logger: logging.Component(logger, "translate"),
	}
}

// Translate encodes img, runs the generator and decodes the result.
func (t *Translator) Translate(img image.Image) (*image.NRGBA, error) {
	in, err := t.Codec.Encode(img)
	if err != nil {
		return nil, err
	}
	return t.TranslateTensor(in)
}

// TranslateTensor runs the generator on an already encoded input.
func (t *Translator) TranslateTensor(in *codec.Tensor) (*image.NRGBA, error) {
	out, err := t.Net.Forward(in)
	if err != nil {
		return nil, err
	}
	return t.Codec.Decode(out)
}

// TranslateFile reads in, translates it and writes the result to out. When
// writing fails the partial output is removed and the write error returned.
func (t *Translator) TranslateFile(in, out string) error {
	if err := codec.CheckExtension(out); err != nil {
		return err
	}
	img, err := codec.ReadImage(in)
	if err != nil {
		return err
	}
	rgb, err := t.Translate(img)
	if err != nil {
		return err
	}
	return t.write(out, rgb)
}

// TranslateNpy reads an already encoded tensor from the .npy file at in,
// reshaped to the network's input shape, and writes the decoded result to out.
func (t *Translator) TranslateNpy(in, out string) error {
	if err := codec.CheckExtension(out); err != nil {
		return err
	}
	f, err := os.Open(in)
	if err != nil {
		return errors.Wrap(err, "failed to open tensor")
	}
	defer f.Close()

	tensor, err := codec.ReadNpy(f, t.Net.InputShape())
	if err != nil {
		return err
	}
	rgb, err := t.TranslateTensor(tensor)
	if err != nil {
		return err
	}
	return t.write(out, rgb)
}

func (t *Translator) write(out string, img image.Image) error {
	if err := codec.WriteImage(out, img); err != nil {
		if rmErr := os.Remove(out); rmErr != nil && !os.IsNotExist(rmErr) {
			t.Logger.Debug().Str("file", out).Err(rmErr).Msg("failed to remove partial output")
		}
		return err
	}
	return nil
}

// DirResult counts the outcome of a directory translation.
type DirResult struct {
	Total     int
	Succeeded int
	Failed    []string
}

// OutputName maps an input file name to its directory output name.
func OutputName(name string) string {
	ext := filepath.Ext(name)
	return strings.TrimSuffix(name, ext) + ProcessedSuffix + ext
}

// TranslateDir translates every supported image in inDir into outDir, which
// is created if needed. One failing file never stops the others.
func (t *Translator) TranslateDir(inDir, outDir string) (*DirResult, error) {
	entries, err := os.ReadDir(inDir)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to list input directory %s", inDir)
	}
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return nil, errors.Wrapf(err, "failed to create output directory %s", outDir)
	}

	res := &DirResult{}
	for _, entry := range entries {
		if entry.IsDir() || !codec.Supported(entry.Name()) {
			continue
		}
		res.Total++
		in := filepath.Join(inDir, entry.Name())
		out := filepath.Join(outDir, OutputName(entry.Name()))
		if err := t.TranslateFile(in, out); err != nil {
			t.Logger.Warn().Str("file", entry.Name()).Err(err).Msg("translation failed")
			res.Failed = append(res.Failed, entry.Name())
			continue
		}
		t.Logger.Info().Str("file", entry.Name()).Str("output", out).Msg("translated")
		res.Succeeded++
	}
	return res, nil
}
