// Package gui is the system tray presentation surface.
package gui

import (
	"context"
	"strings"
	"sync"

	"github.com/getlantern/systray"
	"github.com/sirupsen/logrus"

	"github.com/charlie0129/battray/pkg/display"
	"github.com/charlie0129/battray/pkg/types"
	"github.com/charlie0129/battray/pkg/version"
)

const appName = "battray"

// Tray shows the rendered snapshot as tray title, tooltip and icon, and turns
// menu clicks into draw mode requests.
type Tray struct {
	mu       sync.Mutex
	ready    bool
	view     view
	modeItem *systray.MenuItem

	steps chan string
}

type view struct {
	title   string
	tooltip string
	mode    string
	icon    []byte
}

// New returns a Tray. Call Run on the main goroutine.
func New() *Tray {
	return &Tray{
		view: view{
			title:   "...",
			tooltip: appName,
			mode:    display.ModeTotal.String(),
		},
		steps: make(chan string, 4),
	}
}

// Steps carries "next" and "prev" requests from the menu.
func (t *Tray) Steps() <-chan string {
	return t.steps
}

// Present implements the daemon presenter. It may be called before the tray
// is ready; the latest view is applied once it is.
func (t *Tray) Present(snap types.Snapshot, mode display.Mode) {
	v := render(snap, mode)

	icon, err := Icon(snap.Summary.Percent, snap.Summary.AnyCharging)
	if err != nil {
		logrus.WithError(err).Debug("failed to draw tray icon")
	}
	v.icon = icon

	t.mu.Lock()
	defer t.mu.Unlock()

	t.view = v
	if t.ready {
		t.apply()
	}
}

// Run shows the tray and blocks until quit is clicked or ctx is done. quit
// is called when the user clicks Quit.
func (t *Tray) Run(ctx context.Context, quit func()) {
	go func() {
		<-ctx.Done()
		systray.Quit()
	}()

	systray.Run(func() { t.onReady(quit) }, func() {
		logrus.Info("tray exiting")
	})
}

func (t *Tray) onReady(quit func()) {
	mMode := systray.AddMenuItem("View: -", "Current view")
	mMode.Disable()

	systray.AddSeparator()
	mNext := systray.AddMenuItem("Next view", "Show the next view")
	mPrev := systray.AddMenuItem("Previous view", "Show the previous view")

	systray.AddSeparator()
	mVersion := systray.AddMenuItem(appName+" "+version.Version, "")
	mVersion.Disable()
	mQuit := systray.AddMenuItem("Quit", "Quit "+appName)

	t.mu.Lock()
	t.modeItem = mMode
	t.ready = true
	t.apply()
	t.mu.Unlock()

	go func() {
		for {
			select {
			case <-mNext.ClickedCh:
				t.step("next")
			case <-mPrev.ClickedCh:
				t.step("prev")
			case <-mQuit.ClickedCh:
				logrus.Info("quit clicked")
				if quit != nil {
					quit()
				}
				systray.Quit()
				return
			}
		}
	}()
}

func (t *Tray) step(req string) {
	select {
	case t.steps <- req:
	default:
		logrus.WithField("request", req).Debug("dropping view request, loop is busy")
	}
}

// apply pushes the current view to the tray. t.mu must be held.
func (t *Tray) apply() {
	if len(t.view.icon) > 0 {
		systray.SetIcon(t.view.icon)
	}
	systray.SetTitle(t.view.title)
	systray.SetTooltip(t.view.tooltip)
	if t.modeItem != nil {
		t.modeItem.SetTitle("View: " + t.view.mode)
	}
}

func render(snap types.Snapshot, mode display.Mode) view {
	return view{
		title:   strings.TrimSpace(display.Text(display.Render(snap, mode))),
		tooltip: appName + "\n" + display.Tooltip(snap),
		mode:    mode.String(),
	}
}
