package codec

import (
	"io"

	"github.com/pkg/errors"
	"github.com/sbinet/npyio"
)

// ReadNpy reads a float32 .npy array, such as a tensor dumped by an external
// preprocessing step. When shape is empty the array's own shape is kept,
// otherwise the data is reinterpreted with shape and the element counts must
// agree.
func ReadNpy(r io.Reader, shape []int64) (*Tensor, error) {
	reader, err := npyio.NewReader(r)
	if err != nil {
		return nil, errors.Wrap(err, "could not create npy reader")
	}

	var data []float32
	if err := reader.Read(&data); err != nil {
		return nil, errors.Wrap(err, "could not read npy data")
	}

	if len(shape) == 0 {
		for _, d := range reader.Header.Descr.Shape {
			shape = append(shape, int64(d))
		}
	}
	t, err := NewTensor(shape, data)
	if err != nil {
		return nil, errors.Wrapf(err, "npy array %v", reader.Header.Descr.Shape)
	}
	return t, nil
}
