package model

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Brownie44l1/sar2rgb/internal/codec"
)

var _ Network = (*Engine)(nil)

func TestCheckArtifact(t *testing.T) {
	dir := t.TempDir()
	present := filepath.Join(dir, "present.onnx")
	require.NoError(t, os.WriteFile(present, []byte("onnx"), 0o644))
	assert.NoError(t, CheckArtifact(present))

	missing := filepath.Join(dir, "missing.onnx")
	err := CheckArtifact(missing)
	var loadErr *LoadError
	require.True(t, errors.As(err, &loadErr))
	assert.EqualError(t, err, "network artifact not found: "+missing)
}

func TestLoad_MissingArtifact(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sar2rgb.onnx")

	engine, err := Load(path, "")
	require.Error(t, err)
	assert.Nil(t, engine)

	var loadErr *LoadError
	require.True(t, errors.As(err, &loadErr))
	assert.Equal(t, path, loadErr.Path)
	assert.True(t, errors.Is(err, os.ErrNotExist))
	assert.Equal(t, "network artifact not found: "+path, err.Error())
}

func TestForward_ShapeMismatch(t *testing.T) {
	engine := &Engine{meta: DefaultMetadata(), name: "test.onnx"}

	in, err := codec.NewTensor([]int64{1, 3, 128, 128}, make([]float32, 3*128*128))
	require.NoError(t, err)

	out, err := engine.Forward(in)
	assert.Nil(t, out)

	var mismatch *ShapeMismatchError
	require.True(t, errors.As(err, &mismatch))
	assert.Equal(t, []int64{1, 3, 256, 256}, mismatch.Want)
	assert.Equal(t, []int64{1, 3, 128, 128}, mismatch.Got)
	assert.Contains(t, err.Error(), "[1 3 256 256]")
	assert.Contains(t, err.Error(), "[1 3 128 128]")
}

func TestInputShape_ReturnsCopy(t *testing.T) {
	engine := &Engine{meta: DefaultMetadata()}
	shape := engine.InputShape()
	shape[1] = 6
	assert.Equal(t, []int64{1, 3, 256, 256}, engine.InputShape())
}

func TestLoadMetadata(t *testing.T) {
	dir := t.TempDir()

	write := func(name, body string) string {
		p := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(p, []byte(body), 0o644))
		return p
	}

	t.Run("discriminator", func(t *testing.T) {
		p := write("disc.json", `{
			"input_name": "pair",
			"output_name": "logits",
			"input_shape": [1, 6, 256, 256],
			"output_shape": [1, 1, 30, 30],
			"normalization": "symmetric"
		}`)
		meta, err := LoadMetadata(p)
		require.NoError(t, err)
		assert.Equal(t, "pair", meta.InputName)
		assert.Equal(t, "logits", meta.OutputName)
		assert.Equal(t, []int64{1, 6, 256, 256}, meta.InputShape)
		assert.Equal(t, []int64{1, 1, 30, 30}, meta.OutputShape)
		assert.Equal(t, codec.Codec{Size: 256, Norm: codec.Symmetric}, meta.Codec())
	})

	t.Run("defaults fill gaps", func(t *testing.T) {
		p := write("partial.json", `{"normalization": "zero_one"}`)
		meta, err := LoadMetadata(p)
		require.NoError(t, err)
		assert.Equal(t, "input", meta.InputName)
		assert.Equal(t, []int64{1, 3, 256, 256}, meta.InputShape)
		assert.Equal(t, codec.ZeroOne, meta.Normalization)
	})

	tests := []struct {
		name string
		body string
	}{
		{"not json", `{`},
		{"dynamic dims", `{"input_shape": [-1, 3, 256, 256]}`},
		{"not square", `{"input_shape": [1, 3, 256, 128]}`},
		{"wrong rank", `{"input_shape": [3, 256, 256]}`},
		{"unknown normalization", `{"normalization": "imagenet"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadMetadata(write(tt.name+".json", tt.body))
			assert.Error(t, err)
		})
	}
}

func TestLoadMetadata_Missing(t *testing.T) {
	_, err := LoadMetadata(filepath.Join(t.TempDir(), "nope.json"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, os.ErrNotExist))
}
