package model

import (
	"fmt"
	"io/fs"

	"github.com/pkg/errors"
)

// ErrRuntimeNotInitialized is returned by Load before InitRuntime succeeded.
var ErrRuntimeNotInitialized = errors.New("onnx runtime is not initialized")

// LoadError reports a network that could not be constructed. It is only ever
// returned from Load, never from Forward.
type LoadError struct {
	Path string
	Err  error
}

func (e *LoadError) Error() string {
	if errors.Is(e.Err, fs.ErrNotExist) {
		return fmt.Sprintf("network artifact not found: %s", e.Path)
	}
	return fmt.Sprintf("failed to load network %s: %v", e.Path, e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }

// ShapeMismatchError reports an input tensor that does not match the shape the
// network declares.
type ShapeMismatchError struct {
	Want []int64
	Got  []int64
}

func (e *ShapeMismatchError) Error() string {
	return fmt.Sprintf("shape mismatch: network expects %v, got %v", e.Want, e.Got)
}

// InferenceError reports a failure inside the network runtime during Forward.
type InferenceError struct {
	Err error
}

func (e *InferenceError) Error() string {
	return fmt.Sprintf("inference failed: %v", e.Err)
}

func (e *InferenceError) Unwrap() error { return e.Err }
