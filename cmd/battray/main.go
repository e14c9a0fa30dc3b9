package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/charlie0129/battray/pkg/client"
	"github.com/charlie0129/battray/pkg/config"
	"github.com/charlie0129/battray/pkg/daemon"
	"github.com/charlie0129/battray/pkg/gui"
	"github.com/charlie0129/battray/pkg/version"
)

var (
	logLevel       = "info"
	unixSocketPath = daemon.DefaultSocketPath()
	configPath     = ""
)

var (
	gBasic        = "Basic:"
	gAdvanced     = "Advanced:"
	commandGroups = []string{
		gBasic,
		gAdvanced,
	}
)

func setupLogger() error {
	level, err := logrus.ParseLevel(logLevel)
	if err != nil {
		return fmt.Errorf("failed to parse log level: %v", err)
	}
	logrus.SetLevel(level)
	logrus.SetFormatter(&logrus.TextFormatter{})
	if term.IsTerminal(int(os.Stderr.Fd())) {
		logrus.SetFormatter(&logrus.TextFormatter{
			FullTimestamp:   true,
			TimestampFormat: time.Kitchen,
		})
	}

	return nil
}

func handleCmdError(err error) {
	if errors.Is(err, client.ErrDaemonNotRunning) {
		fmt.Fprintln(os.Stderr, "\nError: battray is not running")
		fmt.Fprintln(os.Stderr, "Start it with 'battray' (tray) or 'battray daemon' (headless).")
	} else if errors.Is(err, client.ErrPermissionDenied) {
		fmt.Fprintln(os.Stderr, "\nError: Permission Denied")
		fmt.Fprintln(os.Stderr, "  - The socket belongs to another user. Pass '--socket' to use your own.")
	}
}

func main() {
	// battray does not need to use much.
	if os.Getenv("GOMAXPROCS") == "" {
		runtime.GOMAXPROCS(2)
	}
	// The tray event loop must own the main thread.
	runtime.LockOSThread()

	cmd := NewCommand()
	if err := cmd.Execute(); err != nil {
		handleCmdError(err)
		os.Exit(1)
	}
}

// defaultConfigPath is the per-user config file, or battray.json in the
// working directory when the user config directory is unknown.
func defaultConfigPath() string {
	p, err := config.DefaultPath()
	if err != nil {
		logrus.WithError(err).Warn("using battray.json in the working directory as config")
		return "battray.json"
	}
	return p
}

func NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "battray",
		Short: "battray shows battery charge, wear and charge rate in the system tray",
		Long: `battray shows battery charge, wear and charge rate in the system tray.

Running battray without a subcommand starts the tray together with its
polling daemon. Left-clicking through the menu cycles the view.`,
		SilenceUsage: true,
		PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
			return setupLogger()
		},
		RunE: func(_ *cobra.Command, _ []string) error {
			return runTray()
		},
	}

	globalFlags := cmd.PersistentFlags()
	globalFlags.StringVarP(&logLevel, "log-level", "l", "info", "log level (trace, debug, info, warn, error, fatal, panic)")
	globalFlags.StringVar(&configPath, "config", defaultConfigPath(), "config file path")
	globalFlags.StringVar(&unixSocketPath, "socket", unixSocketPath, "battray unix socket path")

	for _, i := range commandGroups {
		cmd.AddGroup(&cobra.Group{
			ID:    i,
			Title: i,
		})
	}

	cmd.AddCommand(
		NewDaemonCommand(),
		NewVersionCommand(),
		NewStatusCommand(),
		NewModeCommand(),
		NewDevicesCommand(),
	)

	return cmd
}

// debugPresenter mirrors tray redraws into the log at debug level.
func debugPresenter() daemon.Presenter {
	if !logrus.IsLevelEnabled(logrus.DebugLevel) {
		return nil
	}
	logger := logrus.New()
	logger.SetFormatter(logrus.StandardLogger().Formatter)
	logger.SetOutput(logrus.StandardLogger().Out)
	return daemon.LogPresenter{Logger: logger}
}

// runTray runs the daemon in the background and the tray on the calling
// goroutine, which must be the main one.
func runTray() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logrus.WithFields(logrus.Fields{
		"version": version.Version,
		"commit":  version.GitCommit,
	}).Info("battray starting")

	tray := gui.New()

	errCh := make(chan error, 1)
	go func() {
		errCh <- daemon.Run(ctx, daemon.Options{
			ConfigPath:     configPath,
			UnixSocketPath: unixSocketPath,
			Presenter:      daemon.Presenters{tray, debugPresenter()},
			Controls:       tray.Steps(),
		})
		// Take the tray down with the daemon.
		stop()
	}()

	tray.Run(ctx, stop)
	stop()

	return <-errCh
}
