package config

import (
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	pkgerrors "github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/charlie0129/battray/pkg/display"
	"github.com/charlie0129/battray/pkg/utils/ptr"
)

var (
	defaultFileConfig = &RawFileConfig{
		PollIntervalMillis: ptr.To(50),
		TopologyCheckEvery: ptr.To(1),
		DrawMode:           ptr.To(display.ModeTotal.String()),
		Backend:            ptr.To(BackendAuto),
		DevicePaths:        []string{},
		EnableAPI:          ptr.To(true),
		EnableMetrics:      ptr.To(true),
	}
)

var _ Config = &File{}

type File struct {
	c        *RawFileConfig
	mu       *sync.RWMutex
	filepath string
}

func NewFile(configPath string) (*File, error) {
	f := &File{
		filepath: configPath,
		mu:       &sync.RWMutex{},
	}
	err := f.Load()
	if err != nil {
		return nil, err
	}

	return f, nil
}

func NewFileFromConfig(c *RawFileConfig, configPath string) *File {
	if c == nil {
		c = &RawFileConfig{}
	}

	f := &File{
		c:        c,
		mu:       &sync.RWMutex{},
		filepath: configPath,
	}

	return f
}

type RawFileConfig struct {
	PollIntervalMillis *int     `json:"pollIntervalMillis,omitempty"`
	TopologyCheckEvery *int     `json:"topologyCheckEvery,omitempty"`
	DrawMode           *string  `json:"drawMode,omitempty"`
	Backend            *string  `json:"backend,omitempty"`
	DevicePaths        []string `json:"devicePaths,omitempty"`
	EnableAPI          *bool    `json:"enableAPI,omitempty"`
	EnableMetrics      *bool    `json:"enableMetrics,omitempty"`
}

// Validate rejects values the daemon cannot run with.
func (c *RawFileConfig) Validate() error {
	if c.PollIntervalMillis != nil && *c.PollIntervalMillis <= 0 {
		return pkgerrors.Errorf("pollIntervalMillis must be positive, got %d", *c.PollIntervalMillis)
	}
	if c.TopologyCheckEvery != nil && *c.TopologyCheckEvery < 0 {
		return pkgerrors.Errorf("topologyCheckEvery must not be negative, got %d", *c.TopologyCheckEvery)
	}
	if c.DrawMode != nil {
		if _, err := display.ParseMode(*c.DrawMode); err != nil {
			return pkgerrors.Wrapf(err, "invalid drawMode")
		}
	}
	if c.Backend != nil {
		switch *c.Backend {
		case BackendAuto, BackendNative, BackendPortable:
		default:
			return pkgerrors.Errorf("backend must be one of %s, %s, %s, got %q", BackendAuto, BackendNative, BackendPortable, *c.Backend)
		}
	}
	return nil
}

func (f *File) PollInterval() time.Duration {
	f.mu.RLock()
	defer f.mu.RUnlock()

	ms := ptr.Deref(f.c.PollIntervalMillis, *defaultFileConfig.PollIntervalMillis)
	return time.Duration(ms) * time.Millisecond
}

func (f *File) TopologyCheckEvery() int {
	f.mu.RLock()
	defer f.mu.RUnlock()

	return ptr.Deref(f.c.TopologyCheckEvery, *defaultFileConfig.TopologyCheckEvery)
}

func (f *File) DrawMode() string {
	f.mu.RLock()
	defer f.mu.RUnlock()

	return ptr.Deref(f.c.DrawMode, *defaultFileConfig.DrawMode)
}

func (f *File) Backend() string {
	f.mu.RLock()
	defer f.mu.RUnlock()

	return ptr.Deref(f.c.Backend, *defaultFileConfig.Backend)
}

// DevicePaths returns the configured device paths. A non-empty list replaces
// enumeration.
func (f *File) DevicePaths() []string {
	f.mu.RLock()
	defer f.mu.RUnlock()

	paths := f.c.DevicePaths
	if paths == nil {
		paths = defaultFileConfig.DevicePaths
	}
	out := make([]string, len(paths))
	copy(out, paths)
	return out
}

func (f *File) EnableAPI() bool {
	f.mu.RLock()
	defer f.mu.RUnlock()

	return ptr.Deref(f.c.EnableAPI, *defaultFileConfig.EnableAPI)
}

func (f *File) EnableMetrics() bool {
	f.mu.RLock()
	defer f.mu.RUnlock()

	return ptr.Deref(f.c.EnableMetrics, *defaultFileConfig.EnableMetrics)
}

func (f *File) SetDrawMode(mode string) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.c.DrawMode = &mode
}

// Path returns the file path the config is loaded from.
func (f *File) Path() string {
	return f.filepath
}

func (f *File) Load() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	fp, err := os.Open(f.filepath)
	if err != nil {
		if os.IsNotExist(err) {
			// If the file does not exist, return the empty config.
			// Do not make f.c a nil.
			f.c = &RawFileConfig{}
			return nil
		}
		return pkgerrors.Wrapf(err, "failed to open file %s", f.filepath)
	}
	defer func(fp *os.File) {
		err := fp.Close()
		if err != nil {
			logrus.Warnf("failed to close file %s", f.filepath)
		}
	}(fp)

	// Since we want to tell if the file is empty, using json.Decoder will
	// not work.
	b, err := io.ReadAll(fp)
	if err != nil {
		return pkgerrors.Wrapf(err, "failed to read file %s", f.filepath)
	}

	if strings.TrimSpace(string(b)) == "" {
		f.c = &RawFileConfig{}
		return nil
	}

	conf := RawFileConfig{}
	err = json.Unmarshal(b, &conf)
	if err != nil {
		return pkgerrors.Wrapf(err, "failed to unmarshal config from file %s", f.filepath)
	}
	if err := conf.Validate(); err != nil {
		return pkgerrors.Wrapf(err, "invalid config in file %s", f.filepath)
	}
	f.c = &conf

	return nil
}

func (f *File) Save() error {
	f.mu.RLock()
	defer f.mu.RUnlock()

	if f.c == nil {
		return pkgerrors.New("config is nil")
	}

	if err := os.MkdirAll(filepath.Dir(f.filepath), 0755); err != nil {
		return pkgerrors.Wrapf(err, "failed to create config directory for %s", f.filepath)
	}

	fp, err := os.OpenFile(f.filepath, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		return pkgerrors.Wrapf(err, "failed to open file %s", f.filepath)
	}
	defer func(fp *os.File) {
		err := fp.Close()
		if err != nil {
			logrus.Warnf("failed to close file %s", f.filepath)
		}
	}(fp)

	enc := json.NewEncoder(fp)
	enc.SetIndent("", "  ")
	err = enc.Encode(f.c)
	if err != nil {
		return pkgerrors.Wrapf(err, "failed to encode config to file %s", f.filepath)
	}

	return nil
}

func (f *File) LogrusFields() logrus.Fields {
	return logrus.Fields{
		"pollInterval":       f.PollInterval(),
		"topologyCheckEvery": f.TopologyCheckEvery(),
		"drawMode":           f.DrawMode(),
		"backend":            f.Backend(),
		"devicePaths":        f.DevicePaths(),
		"enableAPI":          f.EnableAPI(),
		"enableMetrics":      f.EnableMetrics(),
	}
}
