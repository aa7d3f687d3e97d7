package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestFitDefaultCamera(t *testing.T) {
	out, err := execute(t)
	require.NoError(t, err)
	assert.Contains(t, out, "projection: perspective")
	assert.Contains(t, out, "dimensions: 30 x 17 x ")
}

func TestFitStereo(t *testing.T) {
	out, err := execute(t, "--ipd", "0.064", "--width", "1280", "--height", "720")
	require.NoError(t, err)
	assert.Contains(t, out, "clusters:")
}

func TestFitWithLights(t *testing.T) {
	out, err := execute(t, "--width", "256", "--height", "256", "--lights", "12")
	require.NoError(t, err)
	assert.Contains(t, out, "lights:     12 uploaded")
	assert.Contains(t, out, "active:     ")
}

func TestFitFromConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "engine.toml")
	require.NoError(t, os.WriteFile(path, []byte("[cluster]\nprojection = \"orthographic\"\n"), 0o600))

	out, err := execute(t, "--config", path)
	require.NoError(t, err)
	assert.Contains(t, out, "projection: orthographic")
}

func TestFitErrors(t *testing.T) {
	_, err := execute(t, "--config", filepath.Join(t.TempDir(), "missing.toml"))
	assert.Error(t, err)

	path := filepath.Join(t.TempDir(), "bad.toml")
	require.NoError(t, os.WriteFile(path, []byte("[cluster]\nprojection = \"fisheye\"\n"), 0o600))
	_, err = execute(t, "--config", path)
	assert.Error(t, err)
}

func TestRandomLightsAreDeterministic(t *testing.T) {
	a, b := randomLights(5, 7), randomLights(5, 7)
	for i := range a {
		assert.Equal(t, a[i].Position(), b[i].Position())
		assert.Equal(t, a[i].Range(), b[i].Range())
	}
}
