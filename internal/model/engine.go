package model

import (
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/pkg/errors"
	ort "github.com/yalue/onnxruntime_go"

	"github.com/Brownie44l1/sar2rgb/internal/codec"
)

// Network is a read-only forward computation over NCHW tensors.
type Network interface {
	Forward(in *codec.Tensor) (*codec.Tensor, error)
	InputShape() []int64
}

// Engine owns one ONNX Runtime session. It is built once with Load and is
// safe for concurrent Forward calls: every call allocates its own input and
// output values and the session itself is never reconfigured.
type Engine struct {
	session *ort.DynamicAdvancedSession
	meta    Metadata
	name    string
}

var runtimeMu sync.Mutex

// InitRuntime loads the ONNX Runtime shared library and initializes the
// process-wide environment. It is a no-op when already initialized.
func InitRuntime(libPath string) error {
	runtimeMu.Lock()
	defer runtimeMu.Unlock()

	if ort.IsInitialized() {
		return nil
	}
	if libPath != "" {
		ort.SetSharedLibraryPath(libPath)
	}
	if err := ort.InitializeEnvironment(); err != nil {
		return errors.Wrap(err, "failed to initialize ONNX environment")
	}
	return nil
}

// ShutdownRuntime releases the environment. Engines must be closed first.
func ShutdownRuntime() error {
	runtimeMu.Lock()
	defer runtimeMu.Unlock()

	if !ort.IsInitialized() {
		return nil
	}
	return errors.Wrap(ort.DestroyEnvironment(), "failed to destroy ONNX environment")
}

// Load builds an Engine for the network at modelPath. When metadataPath is
// empty the tensor names are read from the model and the shapes default to
// the canonical (1,3,256,256). Any failure is returned as a *LoadError and no
// engine is returned.
func Load(modelPath, metadataPath string) (*Engine, error) {
	if err := CheckArtifact(modelPath); err != nil {
		return nil, err
	}
	if !ort.IsInitialized() {
		return nil, &LoadError{Path: modelPath, Err: ErrRuntimeNotInitialized}
	}

	var meta Metadata
	if metadataPath != "" {
		m, err := LoadMetadata(metadataPath)
		if err != nil {
			return nil, &LoadError{Path: metadataPath, Err: err}
		}
		meta = m
	} else {
		m, err := discoverMetadata(modelPath)
		if err != nil {
			return nil, &LoadError{Path: modelPath, Err: err}
		}
		meta = m
	}

	session, err := ort.NewDynamicAdvancedSession(modelPath,
		[]string{meta.InputName}, []string{meta.OutputName}, nil)
	if err != nil {
		return nil, &LoadError{Path: modelPath, Err: errors.Wrap(err, "failed to create ONNX session")}
	}

	return &Engine{
		session: session,
		meta:    meta,
		name:    filepath.Base(modelPath),
	}, nil
}

// CheckArtifact reports a *LoadError when the network file at path cannot be
// found. It does not need the runtime, so callers can fail fast before
// InitRuntime.
func CheckArtifact(path string) error {
	if _, err := os.Stat(path); err != nil {
		return &LoadError{Path: path, Err: err}
	}
	return nil
}

// discoverMetadata reads tensor names from the model graph. Static input
// dimensions override the defaults; dynamic ones (<= 0) keep them.
func discoverMetadata(modelPath string) (Metadata, error) {
	meta := DefaultMetadata()

	inputs, outputs, err := ort.GetInputOutputInfo(modelPath)
	if err != nil {
		return meta, errors.Wrap(err, "failed to read model inputs and outputs")
	}
	if len(inputs) != 1 || len(outputs) != 1 {
		return meta, errors.Errorf("expected one input and one output, got %d and %d", len(inputs), len(outputs))
	}

	meta.InputName = inputs[0].Name
	meta.OutputName = outputs[0].Name
	if dims := inputs[0].Dimensions; len(dims) == len(meta.InputShape) {
		for i, d := range dims {
			if d > 0 {
				meta.InputShape[i] = d
			}
		}
	}
	return meta, meta.Validate()
}

// Metadata returns the tensor contract the engine was built with.
func (e *Engine) Metadata() Metadata {
	return e.meta
}

// InputShape is the exact shape Forward accepts.
func (e *Engine) InputShape() []int64 {
	return append([]int64(nil), e.meta.InputShape...)
}

// Forward runs the network on in. The input shape must match InputShape
// exactly; the returned tensor is owned by the caller.
func (e *Engine) Forward(in *codec.Tensor) (*codec.Tensor, error) {
	start := time.Now()
	out, err := e.forward(in)
	observeForward(e.name, start, err)
	return out, err
}

func (e *Engine) forward(in *codec.Tensor) (*codec.Tensor, error) {
	if in == nil {
		return nil, &ShapeMismatchError{Want: e.InputShape()}
	}
	if !codec.ShapeEqual(in.Shape(), e.meta.InputShape) {
		return nil, &ShapeMismatchError{Want: e.InputShape(), Got: in.Shape()}
	}

	data := make([]float32, in.Len())
	copy(data, in.Data())
	inputTensor, err := ort.NewTensor(ort.NewShape(e.meta.InputShape...), data)
	if err != nil {
		return nil, &InferenceError{Err: errors.Wrap(err, "failed to create input tensor")}
	}
	defer inputTensor.Destroy()

	// A nil output is allocated by the runtime with the shape the graph produces.
	outputs := []ort.ArbitraryTensor{nil}
	if err := e.session.Run([]ort.ArbitraryTensor{inputTensor}, outputs); err != nil {
		return nil, &InferenceError{Err: err}
	}
	defer func() {
		if outputs[0] != nil {
			outputs[0].Destroy()
		}
	}()

	outputTensor, ok := outputs[0].(*ort.Tensor[float32])
	if !ok {
		return nil, &InferenceError{Err: errors.Errorf("unexpected output value %T", outputs[0])}
	}
	shape := []int64(outputTensor.GetShape())
	if len(e.meta.OutputShape) > 0 && !codec.ShapeEqual(shape, e.meta.OutputShape) {
		return nil, &InferenceError{Err: errors.Errorf("output shape %v, metadata declares %v", shape, e.meta.OutputShape)}
	}

	out, err := codec.NewTensor(shape, outputTensor.GetData())
	if err != nil {
		return nil, &InferenceError{Err: err}
	}
	return out, nil
}

// Close destroys the session. The engine must not be used afterwards.
func (e *Engine) Close() {
	if e.session != nil {
		e.session.Destroy()
		e.session = nil
	}
}
