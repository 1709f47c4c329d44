package main

import (
	"bytes"
	"image"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Brownie44l1/sar2rgb/internal/codec"
)

func writeSolid(t *testing.T, path string, v uint8) {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, 16, 16))
	for i := 0; i < len(img.Pix); i += 4 {
		img.Pix[i], img.Pix[i+1], img.Pix[i+2], img.Pix[i+3] = v, v, v, 0xff
	}
	require.NoError(t, codec.WriteImage(path, img))
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := getRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(append([]string{"--log-level", "error"}, args...))
	err := cmd.Execute()
	return out.String(), err
}

func TestScoreCmd(t *testing.T) {
	ref, prod := t.TempDir(), t.TempDir()
	writeSolid(t, filepath.Join(ref, "a.png"), 100)
	writeSolid(t, filepath.Join(prod, "a.png"), 102)
	writeSolid(t, filepath.Join(ref, "b.png"), 50)
	csvPath := filepath.Join(t.TempDir(), "scores.csv")

	out, err := execute(t, "score",
		"--reference", ref,
		"--produced", prod,
		"--size", "16",
		"--workers", "2",
		"--csv", csvPath)
	require.NoError(t, err)
	assert.Contains(t, out, "Pairs scored")
	assert.Contains(t, out, "4.0000")
	assert.Contains(t, out, "skipped b.png")

	data, err := os.ReadFile(csvPath)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	assert.Equal(t, "identifier,metric,value", lines[0])
	assert.Len(t, lines, 4)
}

func TestScoreCmd_NoPairs(t *testing.T) {
	out, err := execute(t, "score", "--reference", t.TempDir(), "--produced", t.TempDir())
	require.NoError(t, err)
	assert.Contains(t, out, "No valid image pairs found")
}

func TestRequiredFlags(t *testing.T) {
	for _, args := range [][]string{
		{"score", "--reference", "x"},
		{"translate", "--model", "m.onnx", "--input", "in.png"},
		{"compare", "--real", "a.png", "--generated", "b.png"},
	} {
		_, err := execute(t, args...)
		assert.Error(t, err, "%v", args)
		assert.Contains(t, err.Error(), "required flag", "%v", args)
	}
}

func TestInvalidLogLevel(t *testing.T) {
	cmd := getRootCmd()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetArgs([]string{"--log-level", "loud", "score", "--reference", "a", "--produced", "b"})
	assert.Error(t, cmd.Execute())
}

func TestMissingArtifact(t *testing.T) {
	dir := t.TempDir()
	missing := filepath.Join(dir, "absent.onnx")
	img := filepath.Join(dir, "a.png")
	writeSolid(t, img, 10)

	for _, args := range [][]string{
		{"translate", "--model", missing, "--input", img, "--output", filepath.Join(dir, "out.png")},
		{"compare", "--real", img, "--generated", img, "--disc-checkpoint", missing},
	} {
		_, err := execute(t, args...)
		require.Error(t, err, "%v", args)
		assert.EqualError(t, err, "network artifact not found: "+missing, "%v", args)
	}
}
