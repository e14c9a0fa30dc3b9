package battery

import (
	"slices"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/charlie0129/battray/pkg/types"
	"github.com/charlie0129/battray/pkg/utils/ptr"
)

// Poller drives one registry. It is not safe for concurrent use: a single
// goroutine owns it together with every handle behind it.
type Poller struct {
	registry      *Registry
	rate          *RateMeter
	now           func() time.Time
	topologyEvery int

	polls uint64
	seq   uint64

	// healthy marks which records fed the rate meter last poll; healthyFull
	// is their summed full-charged capacity.
	healthy     []bool
	healthyFull uint64
}

// PollerOption configures a Poller.
type PollerOption func(*Poller)

// WithTopologyCheckEvery makes the poller enumerate devices every n polls.
// n <= 0 disables topology checks.
func WithTopologyCheckEvery(n int) PollerOption {
	return func(p *Poller) {
		p.topologyEvery = n
	}
}

// WithClock replaces time.Now for rate measurement and snapshot timestamps.
func WithClock(now func() time.Time) PollerOption {
	return func(p *Poller) {
		p.now = now
	}
}

// NewPoller returns a Poller over registry.
func NewPoller(registry *Registry, opts ...PollerOption) *Poller {
	p := &Poller{
		registry:      registry,
		now:           time.Now,
		topologyEvery: 1,
	}
	for _, o := range opts {
		o(p)
	}
	p.rate = NewRateMeter(p.now)
	return p
}

// SetTopologyCheckEvery changes the topology check cadence.
func (p *Poller) SetTopologyCheckEvery(n int) {
	p.topologyEvery = n
}

// Registry returns the underlying registry.
func (p *Poller) Registry() *Registry {
	return p.registry
}

// PollOnce runs one poll step and reports whether anything observable
// changed, i.e. whether a redraw is needed.
func (p *Poller) PollOnce() bool {
	p.polls++
	changed := false

	if p.topologyEvery > 0 && p.polls%uint64(p.topologyEvery) == 0 {
		rebuilt, err := p.registry.RefreshTopology()
		if err != nil {
			logrus.WithError(err).Debug("topology check failed, keeping current batteries")
		}
		if rebuilt {
			p.rate.Reset()
			changed = true
		}
	}

	// Every record is refreshed; no short-circuit.
	for _, rec := range p.registry.Records() {
		if rec.Refresh() {
			changed = true
		}
	}

	p.observeRate()

	return changed
}

// observeRate feeds the rate meter with the charge of healthy records only. A
// record degrading or recovering would otherwise look like a charge jump, so
// the meter starts over whenever the healthy set changes.
func (p *Poller) observeRate() {
	records := p.registry.Records()
	healthy := make([]bool, len(records))
	var charge, full uint64
	for i, rec := range records {
		if rec.Health() == Healthy {
			healthy[i] = true
			charge += uint64(rec.Charge())
			full += uint64(rec.FullChargedCapacity())
		}
	}
	p.healthyFull = full

	if !slices.Equal(healthy, p.healthy) {
		p.rate.Reset()
		p.healthy = healthy
	}
	p.rate.Observe(charge)
}

// Snapshot computes the current view from scratch.
func (p *Poller) Snapshot() types.Snapshot {
	p.seq++

	records := p.registry.Records()
	summary := Summarize(records)

	snap := types.Snapshot{
		Seq:       p.seq,
		TakenAt:   p.now(),
		Batteries: make([]types.BatterySnapshot, 0, len(records)),
	}

	for i, rec := range records {
		snap.Batteries = append(snap.Batteries, types.BatterySnapshot{
			Index:               i,
			Path:                rec.Path(),
			Health:              rec.Health().String(),
			DesignedCapacity:    rec.DesignedCapacity(),
			FullChargedCapacity: rec.FullChargedCapacity(),
			Wear:                rec.Wear(),
			WearPercent:         optional(rec.WearPercent()),
			Charge:              rec.Charge(),
			Charging:            rec.IsCharging(),
			Percent:             optional(rec.Percent()),
			ShortTerm:           rec.ShortTerm(),
			CycleCount:          rec.CycleCount(),
			Chemistry:           rec.Chemistry(),
			VoltageMillivolts:   rec.Voltage(),
			Rate:                rec.Rate(),
		})
	}

	deltaCharge, deltaTime, _ := p.rate.Delta()
	snap.Summary = types.SummarySnapshot{
		Count:                summary.Count,
		TotalCapacity:        summary.TotalCapacity,
		TotalCharge:          summary.TotalCharge,
		AnyCharging:          summary.AnyCharging,
		Percent:              optional(summary.Percent()),
		DeltaCharge:          deltaCharge,
		DeltaSeconds:         deltaTime.Seconds(),
		RatePercentPerSecond: optional(p.rate.Rate(p.healthyFull)),
	}

	return snap
}

func optional(v float64, ok bool) *float64 {
	if !ok {
		return nil
	}
	return ptr.To(v)
}
