package types

import "time"

// Snapshot is the published view of all batteries at one redraw. It is
// shared between the daemon, the HTTP API and the client.
// Percentages and rates that cannot be computed are null.
type Snapshot struct {
	Seq       uint64            `json:"seq"`
	TakenAt   time.Time         `json:"takenAt"`
	Batteries []BatterySnapshot `json:"batteries"`
	Summary   SummarySnapshot   `json:"summary"`
}

// BatterySnapshot is the state of one battery record.
type BatterySnapshot struct {
	Index               int      `json:"index"`
	Path                string   `json:"path"`
	Health              string   `json:"health"`
	DesignedCapacity    uint32   `json:"designedCapacity"`
	FullChargedCapacity uint32   `json:"fullChargedCapacity"`
	Wear                int64    `json:"wear"`
	WearPercent         *float64 `json:"wearPercent"`
	Charge              uint32   `json:"charge"`
	Charging            bool     `json:"charging"`
	Percent             *float64 `json:"percent"`
	ShortTerm           bool     `json:"shortTerm"`
	CycleCount          uint32   `json:"cycleCount"`
	Chemistry           string   `json:"chemistry,omitempty"`
	VoltageMillivolts   uint32   `json:"voltageMillivolts"`
	Rate                int32    `json:"rate"`
}

// SummarySnapshot aggregates all batteries.
type SummarySnapshot struct {
	Count                int      `json:"count"`
	TotalCapacity        uint64   `json:"totalCapacity"`
	TotalCharge          uint64   `json:"totalCharge"`
	AnyCharging          bool     `json:"anyCharging"`
	Percent              *float64 `json:"percent"`
	DeltaCharge          int64    `json:"deltaCharge"`
	DeltaSeconds         float64  `json:"deltaSeconds"`
	RatePercentPerSecond *float64 `json:"ratePercentPerSecond"`
}
