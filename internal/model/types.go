package model

import (
	"encoding/json"
	"os"

	"github.com/pkg/errors"

	"github.com/Brownie44l1/sar2rgb/internal/codec"
)

// Metadata declares the tensor contract of an exported network. It is read
// from an optional JSON sidecar next to the ONNX file.
type Metadata struct {
	InputName     string              `json:"input_name"`
	OutputName    string              `json:"output_name"`
	InputShape    []int64             `json:"input_shape"`
	OutputShape   []int64             `json:"output_shape,omitempty"`
	Normalization codec.Normalization `json:"normalization"`
}

// DefaultMetadata describes the sar2rgb generator export.
func DefaultMetadata() Metadata {
	return Metadata{
		InputName:     "input",
		OutputName:    "output",
		InputShape:    []int64{1, 3, codec.CanonicalSize, codec.CanonicalSize},
		Normalization: codec.Symmetric,
	}
}

// LoadMetadata reads a metadata sidecar. Missing fields keep their defaults.
func LoadMetadata(path string) (Metadata, error) {
	metaFile, err := os.ReadFile(path)
	if err != nil {
		return Metadata{}, errors.Wrap(err, "failed to read metadata")
	}

	metadata := DefaultMetadata()
	if err := json.Unmarshal(metaFile, &metadata); err != nil {
		return Metadata{}, errors.Wrap(err, "failed to parse metadata")
	}
	if err := metadata.Validate(); err != nil {
		return Metadata{}, errors.Wrapf(err, "invalid metadata %s", path)
	}
	return metadata, nil
}

// Validate checks that the input is a single NCHW image batch with square,
// fully static spatial dimensions.
func (m Metadata) Validate() error {
	if m.InputName == "" || m.OutputName == "" {
		return errors.New("input and output names are required")
	}
	if len(m.InputShape) != 4 {
		return errors.Errorf("input shape %v is not NCHW", m.InputShape)
	}
	for _, d := range m.InputShape {
		if d <= 0 {
			return errors.Errorf("input shape %v has dynamic or empty dimensions", m.InputShape)
		}
	}
	if m.InputShape[0] != 1 {
		return errors.Errorf("input shape %v: batch must be 1", m.InputShape)
	}
	if m.InputShape[2] != m.InputShape[3] {
		return errors.Errorf("input shape %v is not square", m.InputShape)
	}
	return nil
}

// Codec returns the tensor codec matching this network's input contract.
func (m Metadata) Codec() codec.Codec {
	return codec.Codec{Size: int(m.InputShape[3]), Norm: m.Normalization}
}
