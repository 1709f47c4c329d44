package codec

import (
	"fmt"
)

// InputError reports a file the codec refuses before reading pixels, such as an
// unsupported extension or an empty upload.
type InputError struct {
	Path   string
	Reason string
}

func (e *InputError) Error() string {
	if e.Path == "" {
		return "invalid input: " + e.Reason
	}
	return fmt.Sprintf("invalid input %s: %s", e.Path, e.Reason)
}

// DecodeError reports a file whose contents are not a valid image.
type DecodeError struct {
	Path string
	Err  error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode image %s: %v", e.Path, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// ShapeError reports a tensor whose layout does not fit the requested operation.
type ShapeError struct {
	Op     string
	Shape  []int64
	Reason string
}

func (e *ShapeError) Error() string {
	return fmt.Sprintf("%s: shape %v: %s", e.Op, e.Shape, e.Reason)
}
