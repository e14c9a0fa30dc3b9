package config

import (
	"context"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
}

func TestDefaults(t *testing.T) {
	for name, setup := range map[string]func(path string){
		"missing file": func(string) {},
		"empty file":   func(p string) { writeConfig(t, p, "  \n") },
		"empty object": func(p string) { writeConfig(t, p, "{}") },
	} {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "config.json")
			setup(path)

			f, err := NewFile(path)
			require.NoError(t, err)

			assert.Equal(t, 50*time.Millisecond, f.PollInterval())
			assert.Equal(t, 1, f.TopologyCheckEvery())
			assert.Equal(t, "total", f.DrawMode())
			assert.Equal(t, BackendAuto, f.Backend())
			assert.Empty(t, f.DevicePaths())
			assert.True(t, f.EnableAPI())
			assert.True(t, f.EnableMetrics())
		})
	}
}

func TestLoadValues(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	writeConfig(t, path, `{
  "pollIntervalMillis": 250,
  "topologyCheckEvery": 20,
  "drawMode": "wear",
  "backend": "portable",
  "devicePaths": ["portable:0"],
  "enableAPI": false,
  "enableMetrics": false
}`)

	f, err := NewFile(path)
	require.NoError(t, err)

	assert.Equal(t, 250*time.Millisecond, f.PollInterval())
	assert.Equal(t, 20, f.TopologyCheckEvery())
	assert.Equal(t, "wear", f.DrawMode())
	assert.Equal(t, BackendPortable, f.Backend())
	assert.Equal(t, []string{"portable:0"}, f.DevicePaths())
	assert.False(t, f.EnableAPI())
	assert.False(t, f.EnableMetrics())
}

func TestLoadInvalid(t *testing.T) {
	tests := map[string]string{
		"malformed json":   `{"pollIntervalMillis": `,
		"zero interval":    `{"pollIntervalMillis": 0}`,
		"negative cadence": `{"topologyCheckEvery": -1}`,
		"unknown mode":     `{"drawMode": "sparkles"}`,
		"unknown backend":  `{"backend": "smc"}`,
	}
	for name, content := range tests {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "config.json")
			writeConfig(t, path, content)

			_, err := NewFile(path)
			assert.Error(t, err)
		})
	}
}

func TestReloadKeepsPreviousOnError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	writeConfig(t, path, `{"drawMode": "rate"}`)

	f, err := NewFile(path)
	require.NoError(t, err)

	writeConfig(t, path, `{"drawMode": 3`)
	assert.Error(t, f.Load())
	assert.Equal(t, "rate", f.DrawMode())
}

func TestSave(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.json")

	f, err := NewFile(path)
	require.NoError(t, err)

	f.SetDrawMode("batteries")
	require.NoError(t, f.Save())

	g, err := NewFile(path)
	require.NoError(t, err)
	assert.Equal(t, "batteries", g.DrawMode())
	assert.Equal(t, 50*time.Millisecond, g.PollInterval())
}

func TestDevicePathsIsCopy(t *testing.T) {
	f := NewFileFromConfig(&RawFileConfig{DevicePaths: []string{"a"}}, "")

	p := f.DevicePaths()
	p[0] = "b"
	assert.Equal(t, []string{"a"}, f.DevicePaths())
}

func TestWatch(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")
	writeConfig(t, path, "{}")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var calls atomic.Int32
	done := make(chan error, 1)
	go func() {
		done <- Watch(ctx, path, func() { calls.Add(1) })
	}()

	// Give the watcher time to register before writing.
	time.Sleep(100 * time.Millisecond)

	writeConfig(t, filepath.Join(dir, "unrelated.json"), "{}")
	writeConfig(t, path, `{"drawMode": "rate"}`)
	writeConfig(t, path, `{"drawMode": "wear"}`)

	assert.Eventually(t, func() bool { return calls.Load() >= 1 }, 3*time.Second, 20*time.Millisecond)

	// Both writes fall into one debounce window.
	time.Sleep(2 * debounceDelay)
	assert.Equal(t, int32(1), calls.Load())

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Watch did not return after cancel")
	}
}
