package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/charlie0129/battray/pkg/config"
	"github.com/charlie0129/battray/pkg/daemon"
)

func TestNewCommandDefaults(t *testing.T) {
	cmd := NewCommand()

	f := cmd.PersistentFlags().Lookup("config")
	require.NotNil(t, f)
	want, err := config.DefaultPath()
	if err != nil {
		want = "battray.json"
	}
	assert.Equal(t, want, f.DefValue)

	f = cmd.PersistentFlags().Lookup("socket")
	require.NotNil(t, f)
	assert.Equal(t, daemon.DefaultSocketPath(), f.DefValue)

	for _, name := range []string{"daemon", "status", "mode", "devices", "version"} {
		sub, _, err := cmd.Find([]string{name})
		require.NoError(t, err)
		assert.Equal(t, name, sub.Name())
	}
}

func TestDefaultConfigPathFallback(t *testing.T) {
	// os.UserConfigDir fails without these.
	t.Setenv("XDG_CONFIG_HOME", "")
	t.Setenv("HOME", "")
	t.Setenv("AppData", "")

	if _, err := config.DefaultPath(); err == nil {
		t.Skip("user config directory still resolvable on this platform")
	}
	assert.Equal(t, "battray.json", defaultConfigPath())
}
