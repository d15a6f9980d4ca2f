package main

import (
	"bytes"
	"encoding/json"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writePNG(t *testing.T, dir, name string, w, h int) string {
	t.Helper()
	path := filepath.Join(dir, name)
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()
	require.NoError(t, png.Encode(f, image.NewRGBA(image.Rect(0, 0, w, h))))
	return path
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestCheckCmd_Accepts(t *testing.T) {
	dir := t.TempDir()
	a := writePNG(t, dir, "a.png", 16, 9)

	out, err := execute(t, "check", a)
	require.NoError(t, err)
	assert.Contains(t, out, "OK")
	assert.Contains(t, out, "image/png")
	assert.Contains(t, out, "16x9")
}

func TestCheckCmd_Rejects(t *testing.T) {
	dir := t.TempDir()
	a := writePNG(t, dir, "a.png", 4, 4)
	b := writePNG(t, dir, "b.png", 4, 4)
	notes := filepath.Join(dir, "notes.txt")
	require.NoError(t, os.WriteFile(notes, []byte("hello"), 0644))

	out, err := execute(t, "check", "--max-files", "1", "--json", a, notes, b)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "2 of 3 files rejected")

	var results []checkResult
	require.NoError(t, json.Unmarshal([]byte(out), &results))
	require.Len(t, results, 3)
	assert.True(t, results[0].Result.IsValid)
	assert.Equal(t, []string{"unsupported type"}, results[1].Result.Errors)
	// the rejected text file does not take a queue slot
	assert.Equal(t, []string{"queue full"}, results[2].Result.Errors)
}

func TestCheckCmd_InvalidPolicy(t *testing.T) {
	a := writePNG(t, t.TempDir(), "a.png", 1, 1)
	_, err := execute(t, "check", "--max-size", "0", a)
	assert.Error(t, err)
}

func TestCheckCmd_MissingConfig(t *testing.T) {
	a := writePNG(t, t.TempDir(), "a.png", 1, 1)
	_, err := execute(t, "--config", filepath.Join(t.TempDir(), "missing.config"), "check", a)
	assert.Error(t, err)
}

func TestModelsCmd(t *testing.T) {
	out, err := execute(t, "models")
	require.NoError(t, err)
	assert.Contains(t, out, "retina-dr-v2")
	assert.Contains(t, out, "cataract-grade")

	out, err = execute(t, "models", "--category", "segmentation")
	require.NoError(t, err)
	assert.Contains(t, out, "vessel-segment")
	assert.NotContains(t, out, "retina-dr-v2")

	_, err = execute(t, "models", "--category", "radiology")
	assert.Error(t, err)
}
