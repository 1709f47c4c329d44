package codec

import (
	"fmt"
)

// Tensor is a dense float32 array in row-major order. A Tensor is never
// modified after construction.
type Tensor struct {
	shape []int64
	data  []float32
}

// NewTensor copies shape and data into a new Tensor. The number of elements
// must match the product of the shape.
func NewTensor(shape []int64, data []float32) (*Tensor, error) {
	n, err := elements(shape)
	if err != nil {
		return nil, err
	}
	if n != len(data) {
		return nil, &ShapeError{Op: "new tensor", Shape: shape,
			Reason: fmt.Sprintf("shape holds %d elements, got %d values", n, len(data))}
	}
	t := &Tensor{
		shape: append([]int64(nil), shape...),
		data:  make([]float32, len(data)),
	}
	copy(t.data, data)
	return t, nil
}

// Shape returns a copy of the tensor dimensions.
func (t *Tensor) Shape() []int64 {
	return append([]int64(nil), t.shape...)
}

// Data exposes the backing values. Callers must treat it as read-only.
func (t *Tensor) Data() []float32 {
	return t.data
}

// Len is the total number of elements.
func (t *Tensor) Len() int {
	return len(t.data)
}

// ShapeEqual reports whether two shapes have identical dimensions.
func ShapeEqual(a, b []int64) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// Concat joins two NCHW tensors along the channel dimension. Batch and
// spatial dimensions must agree.
func Concat(a, b *Tensor) (*Tensor, error) {
	if len(a.shape) != 4 || len(b.shape) != 4 {
		return nil, &ShapeError{Op: "concat", Shape: a.shape, Reason: "both tensors must be NCHW"}
	}
	if a.shape[0] != b.shape[0] || a.shape[2] != b.shape[2] || a.shape[3] != b.shape[3] {
		return nil, &ShapeError{Op: "concat", Shape: b.shape,
			Reason: fmt.Sprintf("batch/spatial dims differ from %v", a.shape)}
	}

	n := int(a.shape[0])
	blockA := int(a.shape[1] * a.shape[2] * a.shape[3])
	blockB := int(b.shape[1] * b.shape[2] * b.shape[3])
	data := make([]float32, 0, len(a.data)+len(b.data))
	for i := 0; i < n; i++ {
		data = append(data, a.data[i*blockA:(i+1)*blockA]...)
		data = append(data, b.data[i*blockB:(i+1)*blockB]...)
	}

	return &Tensor{
		shape: []int64{a.shape[0], a.shape[1] + b.shape[1], a.shape[2], a.shape[3]},
		data:  data,
	}, nil
}

func elements(shape []int64) (int, error) {
	if len(shape) == 0 {
		return 0, &ShapeError{Op: "new tensor", Shape: shape, Reason: "empty shape"}
	}
	n := 1
	for _, d := range shape {
		if d <= 0 {
			return 0, &ShapeError{Op: "new tensor", Shape: shape, Reason: "dimensions must be positive"}
		}
		n *= int(d)
	}
	return n, nil
}
