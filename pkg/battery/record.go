// Package battery tracks the state of every battery device: it discovers
// devices, keeps one Record per device, detects observable changes and
// aggregates all records into one summary.
package battery

import (
	"github.com/sirupsen/logrus"

	"github.com/charlie0129/battray/pkg/device"
)

// Health tells apart a working battery from one whose queries fail and from
// one whose device could not be opened at all.
type Health int

const (
	// Healthy means the last queries succeeded.
	Healthy Health = iota
	// QueryFailed means the device is open but its last query failed.
	QueryFailed
	// Absent means the device could not be opened.
	Absent
)

var healthNames = [...]string{"healthy", "queryFailed", "absent"}

func (h Health) String() string {
	if h < 0 || int(h) >= len(healthNames) {
		return "unknown"
	}
	return healthNames[h]
}

// Record is the last known state of one battery. It owns its device handle.
type Record struct {
	path   string
	handle device.Handle

	designedCapacity    uint32
	fullChargedCapacity uint32
	wear                int64
	shortTerm           bool
	cycleCount          uint32
	chemistry           string

	charge     uint32
	isCharging bool
	voltage    uint32
	rate       int32
	health     Health

	informationFailed bool
	released          bool
}

// NewRecord opens path and reads the static information once. It never
// fails: an unopenable device yields a zeroed Absent record, a failed query a
// zeroed QueryFailed record.
func NewRecord(opener device.Opener, path string) *Record {
	r := &Record{path: path}

	h, err := opener.Open(path)
	if err != nil {
		logrus.WithFields(logrus.Fields{
			"path":  path,
			"error": err,
		}).Warn("battery device unavailable")
		r.health = Absent
		return r
	}
	r.handle = h

	info, err := queryInformation(h)
	if err != nil {
		logrus.WithFields(logrus.Fields{
			"path":  path,
			"error": err,
		}).Debug("battery information query failed")
		r.health = QueryFailed
		r.informationFailed = true
	}

	r.designedCapacity = info.DesignedCapacity
	r.fullChargedCapacity = info.FullChargedCapacity
	r.wear = int64(info.DesignedCapacity) - int64(info.FullChargedCapacity)
	r.shortTerm = info.ShortTerm()
	r.cycleCount = info.CycleCount
	r.chemistry = info.Chemistry

	r.Refresh()

	logrus.WithFields(logrus.Fields{
		"path":                path,
		"designedCapacity":    r.designedCapacity,
		"fullChargedCapacity": r.fullChargedCapacity,
		"charge":              r.charge,
		"charging":            r.isCharging,
		"health":              r.health,
	}).Debug("battery record initialized")

	return r
}

// Refresh queries the current status and reports whether the observable
// state (charge, charging flag, health) differs from the cached one. The cache
// is only written when something changed.
func (r *Record) Refresh() bool {
	if r.handle == nil || r.released {
		return false
	}

	status, err := queryStatus(r.handle)
	health := Healthy
	if err != nil {
		logrus.WithFields(logrus.Fields{
			"path":  r.path,
			"error": err,
		}).Trace("battery status query failed")
		health = QueryFailed
	}
	// A record without capacities stays degraded even if status works.
	if r.informationFailed {
		health = QueryFailed
	}

	charging := status.OnLine()

	if r.charge == status.Capacity && r.isCharging == charging && r.health == health {
		return false
	}

	r.charge = status.Capacity
	r.isCharging = charging
	r.health = health
	r.voltage = status.Voltage
	r.rate = status.Rate

	return true
}

// Release closes the device handle. Only the first call has an effect.
func (r *Record) Release() error {
	if r.released {
		return nil
	}
	r.released = true

	if r.handle == nil {
		return nil
	}
	return r.handle.Close()
}

// Percent returns charge / fullChargedCapacity * 100. ok is false when the
// full capacity is unknown.
func (r *Record) Percent() (pct float64, ok bool) {
	return Percentage(uint64(r.charge), uint64(r.fullChargedCapacity))
}

// WearPercent returns how much full capacity was lost relative to the
// designed capacity. ok is false when the designed capacity is unknown.
func (r *Record) WearPercent() (pct float64, ok bool) {
	if r.designedCapacity == 0 {
		return 0, false
	}
	return float64(r.wear) / float64(r.designedCapacity) * 100, true
}

func (r *Record) Path() string                { return r.path }
func (r *Record) DesignedCapacity() uint32    { return r.designedCapacity }
func (r *Record) FullChargedCapacity() uint32 { return r.fullChargedCapacity }
func (r *Record) Wear() int64                 { return r.wear }
func (r *Record) ShortTerm() bool             { return r.shortTerm }
func (r *Record) CycleCount() uint32          { return r.cycleCount }
func (r *Record) Chemistry() string           { return r.chemistry }
func (r *Record) Charge() uint32              { return r.charge }
func (r *Record) IsCharging() bool            { return r.isCharging }
func (r *Record) Voltage() uint32             { return r.voltage }
func (r *Record) Rate() int32                 { return r.rate }
func (r *Record) Health() Health              { return r.health }

// Percentage returns part / whole * 100, or ok=false when whole is zero.
func Percentage(part, whole uint64) (pct float64, ok bool) {
	if whole == 0 {
		return 0, false
	}
	return float64(part) / float64(whole) * 100, true
}
