package main

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/fatih/color"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/charlie0129/battray/pkg/client"
	"github.com/charlie0129/battray/pkg/config"
	"github.com/charlie0129/battray/pkg/daemon"
	"github.com/charlie0129/battray/pkg/display"
	"github.com/charlie0129/battray/pkg/events"
	"github.com/charlie0129/battray/pkg/types"
)

// fetchSnapshot asks the running daemon for its latest snapshot. If none is
// running, the configured backend is polled once in-process.
func fetchSnapshot() (*types.Snapshot, bool, error) {
	snap, err := client.NewClient(unixSocketPath).GetSnapshot()
	if err == nil {
		return snap, true, nil
	}
	if !errors.Is(err, client.ErrDaemonNotRunning) {
		return nil, false, err
	}

	logrus.Debug("daemon not running, polling batteries directly")
	backend, err := localBackend()
	if err != nil {
		return nil, false, err
	}
	local, err := daemon.PollLocal(backend)
	if err != nil {
		return nil, false, fmt.Errorf("failed to poll batteries: %w", err)
	}
	return &local, false, nil
}

func localBackend() (*daemon.Backend, error) {
	conf, err := config.NewFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return daemon.NewBackend(conf.Backend(), conf.DevicePaths())
}

func NewStatusCommand() *cobra.Command {
	var (
		asJSON bool
		watch  bool
	)

	cmd := &cobra.Command{
		Use:     "status",
		GroupID: gBasic,
		Short:   "Show battery charge, wear and charge rate",
		Long: `Show the latest battery snapshot.

If battray is not running, the batteries are polled once directly. The charge
rate needs two polls and is therefore only shown by a running daemon.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if watch {
				return watchStatus(cmd, asJSON)
			}

			snap, live, err := fetchSnapshot()
			if err != nil {
				return err
			}
			if asJSON {
				return printJSON(cmd, snap)
			}
			printStatus(cmd, snap, live)
			return nil
		},
	}

	f := cmd.Flags()
	f.BoolVar(&asJSON, "json", false, "print the snapshot as JSON")
	f.BoolVarP(&watch, "watch", "w", false, "keep printing snapshots as the daemon publishes them")

	return cmd
}

func watchStatus(cmd *cobra.Command, asJSON bool) error {
	ch, err := client.NewClient(unixSocketPath).Events(cmd.Context())
	if err != nil {
		return err
	}

	for ev := range ch {
		if ev.Name != events.BatterySnapshot {
			continue
		}
		snap, err := events.DecodeAs[types.Snapshot](ev)
		if err != nil {
			logrus.WithError(err).Warn("skipping malformed snapshot event")
			continue
		}
		if asJSON {
			if err := printJSON(cmd, &snap); err != nil {
				return err
			}
			continue
		}
		cmd.Println(colorize(display.Render(snap, display.ModeBatteries)))
	}
	return nil
}

func printJSON(cmd *cobra.Command, snap *types.Snapshot) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(snap)
}

func printStatus(cmd *cobra.Command, snap *types.Snapshot, live bool) {
	if !live {
		cmd.Println(color.New(color.FgHiBlack).Sprint("(battray is not running, polled once)"))
	}

	cmd.Println(bold("Summary:"))
	cmd.Printf("  Batteries: %s\n", bold("%d", snap.Summary.Count))
	cmd.Printf("  Charge: %s\n", colorize(display.Render(*snap, display.ModeTotal)))
	cmd.Printf("  Charging: %s\n", bool2Text(snap.Summary.AnyCharging))
	if snap.Summary.RatePercentPerSecond != nil {
		cmd.Printf("  Charge rate: %s\n", colorize(display.Render(*snap, display.ModeRate)))
	}
	cmd.Printf("  Capacity: %s\n", bold("%d / %d mWh", snap.Summary.TotalCharge, snap.Summary.TotalCapacity))
	if snap.Summary.DeltaSeconds > 0 {
		cmd.Printf("  Delta charge: %s\n", bold("%+d mWh", snap.Summary.DeltaCharge))
		cmd.Printf("  Delta time: %s\n", bold("%.2f s", snap.Summary.DeltaSeconds))
	}

	for _, b := range snap.Batteries {
		cmd.Println()
		cmd.Println(bold("Battery #%d:", b.Index))
		cmd.Printf("  Path: %s\n", b.Path)
		cmd.Printf("  Type: %s\n", batteryTypeText(b))
		cmd.Printf("  Health: %s\n", healthText(b.Health))
		cmd.Printf("  Charge: %s (%d mWh)\n", bold("%s", percentText(b.Percent)), b.Charge)
		cmd.Printf("  Charging: %s\n", bool2Text(b.Charging))
		cmd.Printf("  Full capacity: %s\n", bold("%d mWh", b.FullChargedCapacity))
		cmd.Printf("  Design capacity: %s\n", bold("%d mWh", b.DesignedCapacity))
		cmd.Printf("  Wear: %s (%d mWh)\n", bold("%s", percentText(b.WearPercent)), b.Wear)
		if b.CycleCount > 0 {
			cmd.Printf("  Cycles: %s\n", bold("%d", b.CycleCount))
		}
		if b.Chemistry != "" {
			cmd.Printf("  Chemistry: %s\n", b.Chemistry)
		}
		cmd.Printf("  Voltage: %s\n", bold("%.2f V", float64(b.VoltageMillivolts)/1e3))
	}
}

func batteryTypeText(b types.BatterySnapshot) string {
	if b.ShortTerm {
		return color.New(color.Bold, color.FgRed).Sprint(display.BatteryType(b))
	}
	return display.BatteryType(b)
}

func healthText(h string) string {
	if h == "healthy" {
		return color.GreenString(h)
	}
	return color.RedString(h)
}

func percentText(p *float64) string {
	if p == nil {
		return "unknown"
	}
	return fmt.Sprintf("%.2f%%", *p)
}

// colorize prints rendered segments with terminal colors.
func colorize(segs []display.Segment) string {
	var s string
	for _, seg := range segs {
		s += color.New(attributes(seg.Color)...).Sprint(seg.Text)
	}
	return s
}

func attributes(c display.Color) []color.Attribute {
	switch c {
	case display.Red:
		return []color.Attribute{color.Bold, color.FgRed}
	case display.Green:
		return []color.Attribute{color.Bold, color.FgGreen}
	case display.Gray:
		return []color.Attribute{color.FgHiBlack}
	default:
		return []color.Attribute{color.Bold}
	}
}

func bool2Text(b bool) string {
	if b {
		return color.New(color.Bold, color.FgGreen).Sprint("✔")
	}
	return color.New(color.Bold, color.FgRed).Sprint("✘")
}

func bold(format string, a ...interface{}) string {
	return color.New(color.Bold).Sprintf(format, a...)
}
