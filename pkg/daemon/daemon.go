package daemon

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"slices"
	"syscall"
	"time"

	pkgerrors "github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/charlie0129/battray/pkg/battery"
	"github.com/charlie0129/battray/pkg/config"
	"github.com/charlie0129/battray/pkg/display"
	"github.com/charlie0129/battray/pkg/events"
	"github.com/charlie0129/battray/pkg/metrics"
)

const shutdownTimeout = 5 * time.Second

// DefaultSocketPath is where the daemon listens unless told otherwise.
func DefaultSocketPath() string {
	return filepath.Join(os.TempDir(), "battray.sock")
}

// Options configures Run.
type Options struct {
	ConfigPath     string
	UnixSocketPath string
	// Presenter draws redraws. Nil logs them.
	Presenter Presenter
	// Controls carries draw mode requests ("next", "prev", a mode name)
	// from the presentation surface.
	Controls <-chan string
}

// Run starts the polling loop, the local API and config reloading, and
// blocks until ctx is done. Every device handle is released before it
// returns.
func Run(ctx context.Context, opts Options) error {
	conf, err := config.NewFile(opts.ConfigPath)
	if err != nil {
		return pkgerrors.Wrapf(err, "failed to parse config during startup")
	}
	logrus.WithFields(conf.LogrusFields()).Infof("config loaded")

	mode, err := display.ParseMode(conf.DrawMode())
	if err != nil {
		return err
	}

	backend, err := NewBackend(conf.Backend(), conf.DevicePaths())
	if err != nil {
		return pkgerrors.Wrapf(err, "failed to set up battery backend")
	}
	logrus.WithField("backend", backend.Name).Info("battery backend selected")

	reg := battery.NewRegistry(backend, backend)
	if err := reg.Build(); err != nil {
		logrus.WithError(err).Warn("initial battery enumeration failed, starting without batteries")
	}
	defer func() {
		logrus.Info("releasing battery devices")
		if err := reg.Close(); err != nil {
			logrus.Errorf("failed to release battery devices: %v", err)
		}
	}()

	poller := battery.NewPoller(reg, battery.WithTopologyCheckEvery(conf.TopologyCheckEvery()))

	hub := events.NewHub()
	defer hub.Close()

	var (
		m        *metrics.Metrics
		gatherer prometheus.Gatherer
	)
	if conf.EnableMetrics() {
		promReg := prometheus.NewRegistry()
		promReg.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
		m = metrics.New(promReg)
		gatherer = promReg
	}

	presenter := opts.Presenter
	if presenter == nil {
		presenter = LogPresenter{}
	}

	loop := NewLoop(poller, LoopOptions{
		Interval:  conf.PollInterval(),
		Mode:      mode,
		Presenter: presenter,
		Hub:       hub,
		Metrics:   m,
	})
	loop.OnModeChange = func(mode display.Mode) {
		if conf.DrawMode() == mode.String() {
			return
		}
		conf.SetDrawMode(mode.String())
		if err := conf.Save(); err != nil {
			logrus.Warnf("failed to persist draw mode: %v", err)
		}
	}

	var l net.Listener
	if conf.EnableAPI() {
		l, err = listenUnix(opts.UnixSocketPath)
		if err != nil {
			return err
		}
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return loop.Run(gctx)
	})

	if l != nil {
		srv := &http.Server{
			Handler: setupRoutes(loop, hub, gatherer),
		}

		g.Go(func() error {
			logrus.Infof("http server listening on %s", l.Addr().String())
			if err := srv.Serve(l); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return pkgerrors.Wrapf(err, "http server failed")
			}
			return nil
		})

		g.Go(func() error {
			<-gctx.Done()

			// End SSE streams first, Shutdown waits for them.
			hub.Close()

			logrus.Info("shutting down http server")
			sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			if err := srv.Shutdown(sctx); err != nil {
				logrus.Errorf("failed to shutdown http server: %v", err)
			}
			return nil
		})
	}

	reload := func() {
		prevBackend, prevPaths := conf.Backend(), conf.DevicePaths()

		if err := conf.Load(); err != nil {
			logrus.Errorf("failed to reload config: %v", err)
			return
		}
		logrus.WithFields(conf.LogrusFields()).Infof("config reloaded")

		if conf.Backend() != prevBackend || !slices.Equal(conf.DevicePaths(), prevPaths) {
			logrus.Warn("backend and devicePaths changes take effect after restart")
		}

		loop.Reconfigure(Settings{
			Interval:           conf.PollInterval(),
			TopologyCheckEvery: conf.TopologyCheckEvery(),
		})
		if _, err := loop.RequestMode(gctx, conf.DrawMode()); err != nil {
			logrus.WithError(err).Debug("draw mode from config not applied")
		}
	}

	// Receive SIGHUP to reload config
	g.Go(func() error {
		sigc := make(chan os.Signal, 1)
		signal.Notify(sigc, syscall.SIGHUP)
		defer signal.Stop(sigc)
		for {
			select {
			case <-gctx.Done():
				return nil
			case <-sigc:
				reload()
			}
		}
	})

	g.Go(func() error {
		if err := os.MkdirAll(filepath.Dir(conf.Path()), 0755); err != nil {
			logrus.Warnf("config hot reload disabled: %v", err)
			return nil
		}
		if err := config.Watch(gctx, conf.Path(), reload); err != nil {
			logrus.Warnf("config hot reload disabled: %v", err)
		}
		return nil
	})

	if opts.Controls != nil {
		g.Go(func() error {
			for {
				select {
				case <-gctx.Done():
					return nil
				case req, ok := <-opts.Controls:
					if !ok {
						return nil
					}
					if _, err := loop.RequestMode(gctx, req); err != nil {
						logrus.WithError(err).WithField("request", req).Debug("draw mode request failed")
					}
				}
			}
		})
	}

	err = g.Wait()
	logrus.Info("exiting")
	return err
}

// listenUnix listens on path, replacing a stale socket file left behind by a
// previous run.
func listenUnix(path string) (net.Listener, error) {
	if _, err := os.Stat(path); err == nil {
		if conn, err := net.Dial("unix", path); err == nil {
			_ = conn.Close()
			return nil, pkgerrors.Errorf("another daemon is already listening on %s", path)
		}
		if err := os.Remove(path); err != nil {
			return nil, pkgerrors.Wrapf(err, "failed to remove stale socket %s", path)
		}
	}

	l, err := net.Listen("unix", path)
	if err != nil {
		return nil, pkgerrors.Wrapf(err, "failed to listen on %s", path)
	}
	return l, nil
}
