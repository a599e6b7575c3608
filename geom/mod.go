package geom

import (
	"math"
)

// PMod computes the positive modulo x % y, so the result is always in [0, y).
func PMod(x, y float64) float64 {
	m := math.Mod(x, y)
	if m < 0 {
		m += y
	}
	if m >= y {
		// -tiny + y rounds up to y.
		m = 0
	}
	return m
}
