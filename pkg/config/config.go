package config

import (
	"os"
	"path/filepath"
	"time"

	pkgerrors "github.com/pkg/errors"
)

const (
	BackendAuto     = "auto"
	BackendNative   = "native"
	BackendPortable = "portable"
)

type Config interface {
	PollInterval() time.Duration
	TopologyCheckEvery() int
	DrawMode() string
	Backend() string
	DevicePaths() []string
	EnableAPI() bool
	EnableMetrics() bool

	SetDrawMode(string)

	// Load reads the configuration from the source.
	Load() error
	// Save saves the configuration to the source.
	Save() error
}

// DefaultPath returns <user config dir>/battray/config.json.
func DefaultPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", pkgerrors.Wrapf(err, "failed to locate user config directory")
	}
	return filepath.Join(dir, "battray", "config.json"), nil
}
