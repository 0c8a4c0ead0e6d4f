package analytics

import "math"

// percent returns part/whole as a whole-number percentage, 0 when whole is 0.
func percent(part, whole int) int {
	if whole <= 0 {
		return 0
	}
	return int(math.Round(float64(part) * 100 / float64(whole)))
}

// mean returns sum/n rounded to one decimal, 0 when n is 0.
func mean(sum float64, n int) float64 {
	if n <= 0 {
		return 0
	}
	return round1(sum / float64(n))
}

func round1(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return math.Round(v*10) / 10
}

// minTracker tracks the smallest value seen; Value is nil until Observe is called.
type minTracker struct {
	min  float64
	seen bool
}

func (m *minTracker) Observe(v float64) {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return
	}
	if !m.seen || v < m.min {
		m.min = v
		m.seen = true
	}
}

func (m *minTracker) Value() *float64 {
	if !m.seen {
		return nil
	}
	v := round1(m.min)
	return &v
}

// finite reports whether an optional measurement can enter an average.
func finite(v *float64) bool {
	return v != nil && !math.IsNaN(*v) && !math.IsInf(*v, 0)
}
