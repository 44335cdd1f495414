package domain

// Saturate clamps v to [lo, hi]. Values inside the range are returned unchanged.
func Saturate(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
