// Package metrics exposes the published battery snapshots as prometheus
// metrics.
package metrics

import (
	"math"
	"strconv"

	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/charlie0129/battray/pkg/types"
)

const namespace = "battray"

// Metrics holds every battray collector, registered on one registry.
type Metrics struct {
	charge         *prom.GaugeVec
	fullCapacity   *prom.GaugeVec
	designCapacity *prom.GaugeVec
	charging       *prom.GaugeVec
	healthy        *prom.GaugeVec

	present      prom.Gauge
	totalPercent prom.Gauge
	ratePercent  prom.Gauge

	polls    prom.Counter
	redraws  prom.Counter
	rebuilds prom.Counter
}

// New registers the battray collectors on reg.
func New(reg prom.Registerer) *Metrics {
	f := promauto.With(reg)
	index := []string{"index"}

	return &Metrics{
		charge: f.NewGaugeVec(prom.GaugeOpts{
			Namespace: namespace,
			Name:      "battery_charge",
			Help:      "Current charge of each battery in device units (Gauge).",
		}, index),
		fullCapacity: f.NewGaugeVec(prom.GaugeOpts{
			Namespace: namespace,
			Name:      "battery_full_charged_capacity",
			Help:      "Full charged capacity of each battery in device units (Gauge).",
		}, index),
		designCapacity: f.NewGaugeVec(prom.GaugeOpts{
			Namespace: namespace,
			Name:      "battery_designed_capacity",
			Help:      "Designed capacity of each battery in device units (Gauge).",
		}, index),
		charging: f.NewGaugeVec(prom.GaugeOpts{
			Namespace: namespace,
			Name:      "battery_charging",
			Help:      "1 if the battery reports external power, 0 otherwise (Gauge).",
		}, index),
		healthy: f.NewGaugeVec(prom.GaugeOpts{
			Namespace: namespace,
			Name:      "battery_healthy",
			Help:      "1 if the last queries of the battery succeeded, 0 otherwise (Gauge).",
		}, index),
		present: f.NewGauge(prom.GaugeOpts{
			Namespace: namespace,
			Name:      "batteries_present",
			Help:      "Number of enumerated battery devices (Gauge).",
		}),
		totalPercent: f.NewGauge(prom.GaugeOpts{
			Namespace: namespace,
			Name:      "charge_percent",
			Help:      "Combined charge of all batteries in percent, NaN when unknown (Gauge).",
		}),
		ratePercent: f.NewGauge(prom.GaugeOpts{
			Namespace: namespace,
			Name:      "charge_rate_percent_per_second",
			Help:      "Last measured combined charge rate, NaN when unknown (Gauge).",
		}),
		polls: f.NewCounter(prom.CounterOpts{
			Namespace: namespace,
			Name:      "polls_total",
			Help:      "Poll steps executed (Counter).",
		}),
		redraws: f.NewCounter(prom.CounterOpts{
			Namespace: namespace,
			Name:      "redraws_total",
			Help:      "Snapshots published to the presentation surface (Counter).",
		}),
		rebuilds: f.NewCounter(prom.CounterOpts{
			Namespace: namespace,
			Name:      "registry_rebuilds_total",
			Help:      "Battery registry rebuilds after a topology change (Counter).",
		}),
	}
}

// Observe records one published snapshot.
func (m *Metrics) Observe(snap types.Snapshot) {
	if m == nil {
		return
	}

	// Indices are reassigned on rebuild, so stale series are dropped.
	m.charge.Reset()
	m.fullCapacity.Reset()
	m.designCapacity.Reset()
	m.charging.Reset()
	m.healthy.Reset()

	for _, b := range snap.Batteries {
		idx := strconv.Itoa(b.Index)
		m.charge.WithLabelValues(idx).Set(float64(b.Charge))
		m.fullCapacity.WithLabelValues(idx).Set(float64(b.FullChargedCapacity))
		m.designCapacity.WithLabelValues(idx).Set(float64(b.DesignedCapacity))
		m.charging.WithLabelValues(idx).Set(bool2Float(b.Charging))
		m.healthy.WithLabelValues(idx).Set(bool2Float(b.Health == "healthy"))
	}

	m.present.Set(float64(snap.Summary.Count))
	m.totalPercent.Set(optional(snap.Summary.Percent))
	m.ratePercent.Set(optional(snap.Summary.RatePercentPerSecond))
	m.redraws.Inc()
}

// Poll counts one poll step.
func (m *Metrics) Poll() {
	if m == nil {
		return
	}
	m.polls.Inc()
}

// Rebuilds counts n registry rebuilds.
func (m *Metrics) Rebuilds(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.rebuilds.Add(float64(n))
}

func bool2Float(b bool) float64 {
	if b {
		return 1
	}
	return 0
}

func optional(v *float64) float64 {
	if v == nil {
		return math.NaN()
	}
	return *v
}
