package battery

import "time"

// RateMeter derives a charge rate from the last observed charge change.
type RateMeter struct {
	now func() time.Time

	primed     bool
	lastCharge uint64
	lastTime   time.Time

	measured    bool
	deltaCharge int64
	deltaTime   time.Duration
}

// NewRateMeter returns a RateMeter reading time from now. A nil now uses time.Now.
func NewRateMeter(now func() time.Time) *RateMeter {
	if now == nil {
		now = time.Now
	}
	return &RateMeter{now: now}
}

// Observe records charge. The first call only sets the baseline; later calls
// with a different charge measure the delta since the previous change.
func (m *RateMeter) Observe(charge uint64) {
	t := m.now()

	if !m.primed {
		m.primed = true
		m.lastCharge = charge
		m.lastTime = t
		return
	}

	if charge == m.lastCharge {
		return
	}

	m.deltaCharge = int64(charge) - int64(m.lastCharge)
	m.deltaTime = t.Sub(m.lastTime)
	m.lastCharge = charge
	m.lastTime = t
	m.measured = true
}

// Delta returns the last measured charge delta and the interval it took.
func (m *RateMeter) Delta() (int64, time.Duration, bool) {
	return m.deltaCharge, m.deltaTime, m.measured
}

// Rate returns the last measured rate in percent of full per second.
func (m *RateMeter) Rate(full uint64) (float64, bool) {
	if !m.measured {
		return 0, false
	}
	return Rate(m.deltaCharge, full, m.deltaTime)
}

// Reset forgets the baseline and the last measurement.
func (m *RateMeter) Reset() {
	now := m.now
	*m = RateMeter{now: now}
}

// Rate returns deltaCharge / full * 100 / seconds. ok is false when full or
// the interval is zero.
func Rate(deltaCharge int64, full uint64, interval time.Duration) (float64, bool) {
	if full == 0 || interval <= 0 {
		return 0, false
	}
	return float64(deltaCharge) / float64(full) * 100 / interval.Seconds(), true
}
