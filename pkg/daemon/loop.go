package daemon

import (
	"context"
	"sync/atomic"
	"time"

	pkgerrors "github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/charlie0129/battray/pkg/battery"
	"github.com/charlie0129/battray/pkg/display"
	"github.com/charlie0129/battray/pkg/events"
	"github.com/charlie0129/battray/pkg/metrics"
	"github.com/charlie0129/battray/pkg/types"
)

// ErrLoopStopped is returned for requests sent after the loop exited.
var ErrLoopStopped = pkgerrors.New("polling loop is not running")

// Presenter draws a snapshot. It is called from the loop goroutine only.
type Presenter interface {
	Present(snap types.Snapshot, mode display.Mode)
}

// PresenterFunc adapts a function to Presenter.
type PresenterFunc func(snap types.Snapshot, mode display.Mode)

func (f PresenterFunc) Present(snap types.Snapshot, mode display.Mode) { f(snap, mode) }

// Settings are the loop parameters that can change at runtime.
type Settings struct {
	Interval           time.Duration
	TopologyCheckEvery int
}

type modeRequest struct {
	req   string
	reply chan modeReply
}

type modeReply struct {
	mode display.Mode
	err  error
}

// Loop owns the poller and drives it on a fixed cadence. Everything that
// touches a device handle runs on the goroutine calling Run; other goroutines
// only read the published snapshot or talk to the loop through channels.
type Loop struct {
	poller    *battery.Poller
	presenter Presenter
	hub       *events.Hub
	metrics   *metrics.Metrics

	interval time.Duration
	mode     display.Mode

	// OnModeChange is called on the loop goroutine after the draw mode
	// changed.
	OnModeChange func(display.Mode)

	current      atomic.Pointer[types.Snapshot]
	currentMode  atomic.Int32
	lastRebuilds int

	modeReqs chan modeRequest
	settings chan Settings
	done     chan struct{}
}

// LoopOptions configures a Loop.
type LoopOptions struct {
	Interval  time.Duration
	Mode      display.Mode
	Presenter Presenter
	Hub       *events.Hub
	Metrics   *metrics.Metrics
}

// NewLoop returns a loop over poller. A nil Presenter only publishes.
func NewLoop(poller *battery.Poller, opts LoopOptions) *Loop {
	if opts.Interval <= 0 {
		opts.Interval = 50 * time.Millisecond
	}
	if opts.Presenter == nil {
		opts.Presenter = PresenterFunc(func(types.Snapshot, display.Mode) {})
	}

	l := &Loop{
		poller:       poller,
		presenter:    opts.Presenter,
		hub:          opts.Hub,
		metrics:      opts.Metrics,
		interval:     opts.Interval,
		mode:         opts.Mode,
		lastRebuilds: poller.Registry().Rebuilds(),
		modeReqs:     make(chan modeRequest),
		settings:     make(chan Settings, 1),
		done:         make(chan struct{}),
	}
	l.currentMode.Store(int32(opts.Mode))
	return l
}

// Run draws once, then polls every interval and redraws only when something
// observable changed or the draw mode was switched. It returns when ctx is
// done.
func (l *Loop) Run(ctx context.Context) error {
	defer close(l.done)

	logrus.WithFields(logrus.Fields{
		"interval":  l.interval,
		"batteries": l.poller.Registry().Len(),
		"mode":      l.mode,
	}).Debug("polling loop starts")

	l.redraw()

	timer := time.NewTimer(l.interval)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			logrus.Debug("polling loop stopped")
			return nil

		case <-timer.C:
			l.tick()
			timer.Reset(l.interval)

		case r := <-l.modeReqs:
			mode, err := l.step(r.req)
			r.reply <- modeReply{mode: mode, err: err}

		case s := <-l.settings:
			l.apply(s)
		}
	}
}

// tick runs one poll step and redraws if needed.
func (l *Loop) tick() {
	changed := l.poller.PollOnce()
	l.metrics.Poll()

	if n := l.poller.Registry().Rebuilds(); n != l.lastRebuilds {
		l.metrics.Rebuilds(n - l.lastRebuilds)
		l.lastRebuilds = n
	}

	if changed {
		l.redraw()
	}
}

func (l *Loop) redraw() {
	snap := l.poller.Snapshot()
	l.current.Store(&snap)

	l.presenter.Present(snap, l.mode)
	l.hub.Publish(events.BatterySnapshot, snap)
	l.metrics.Observe(snap)

	logrus.WithFields(logrus.Fields{
		"seq":   snap.Seq,
		"count": snap.Summary.Count,
		"mode":  l.mode,
	}).Trace("redrawn")
}

func (l *Loop) step(req string) (display.Mode, error) {
	next, err := display.Step(l.mode, req)
	if err != nil {
		return l.mode, err
	}
	if next == l.mode {
		return next, nil
	}

	prev := l.mode
	l.mode = next
	l.currentMode.Store(int32(next))

	logrus.WithFields(logrus.Fields{
		"from": prev,
		"to":   next,
	}).Info("draw mode changed")

	l.hub.Publish(events.DrawModeChanged, events.DrawModeChangedEvent{
		From: prev.String(),
		To:   next.String(),
		Ts:   time.Now().Unix(),
	})
	if l.OnModeChange != nil {
		l.OnModeChange(next)
	}

	l.redraw()
	return next, nil
}

func (l *Loop) apply(s Settings) {
	if s.Interval > 0 {
		l.interval = s.Interval
	}
	if s.TopologyCheckEvery >= 0 {
		l.poller.SetTopologyCheckEvery(s.TopologyCheckEvery)
	}
	logrus.WithFields(logrus.Fields{
		"interval":           l.interval,
		"topologyCheckEvery": s.TopologyCheckEvery,
	}).Info("polling settings applied")
}

// Snapshot returns the last published snapshot. ok is false before the first
// draw.
func (l *Loop) Snapshot() (types.Snapshot, bool) {
	p := l.current.Load()
	if p == nil {
		return types.Snapshot{}, false
	}
	return *p, true
}

// Mode returns the current draw mode.
func (l *Loop) Mode() display.Mode {
	return display.Mode(l.currentMode.Load())
}

// RequestMode asks the loop to switch the draw mode. req is "next", "prev"
// or a mode name. It blocks until the loop handled the request.
func (l *Loop) RequestMode(ctx context.Context, req string) (display.Mode, error) {
	reply := make(chan modeReply, 1)

	select {
	case l.modeReqs <- modeRequest{req: req, reply: reply}:
	case <-l.done:
		return l.Mode(), ErrLoopStopped
	case <-ctx.Done():
		return l.Mode(), ctx.Err()
	}

	select {
	case r := <-reply:
		return r.mode, r.err
	case <-ctx.Done():
		return l.Mode(), ctx.Err()
	}
}

// Reconfigure hands new settings to the loop. Only the latest pending
// settings are kept.
func (l *Loop) Reconfigure(s Settings) {
	for {
		select {
		case l.settings <- s:
			return
		default:
		}
		select {
		case <-l.settings:
		default:
		}
	}
}

// Done is closed when Run returned.
func (l *Loop) Done() <-chan struct{} {
	return l.done
}
