package battery

// Summary is the aggregate view over all records.
type Summary struct {
	TotalCapacity uint64
	TotalCharge   uint64
	AnyCharging   bool
	Count         int
}

// Summarize folds records into a Summary.
func Summarize(records []*Record) Summary {
	s := Summary{Count: len(records)}
	for _, r := range records {
		s.TotalCapacity += uint64(r.fullChargedCapacity)
		s.TotalCharge += uint64(r.charge)
		s.AnyCharging = s.AnyCharging || r.isCharging
	}
	return s
}

// Percent returns the combined charge percentage, or ok=false when the total
// capacity is zero.
func (s Summary) Percent() (pct float64, ok bool) {
	return Percentage(s.TotalCharge, s.TotalCapacity)
}
