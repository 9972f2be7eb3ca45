package util

import "math"

// Round2 rounds to two decimals.
func Round2(v float64) float64 {
    return math.Round(v*100) / 100
}

// Clamp bounds v to [lo, hi].
func Clamp(v, lo, hi float64) float64 {
    if v < lo {
        return lo
    }
    if v > hi {
        return hi
    }
    return v
}

func IsFinite(v float64) bool {
    return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// Finite reports whether p is set and holds a finite value.
func Finite(p *float64) bool {
    return p != nil && IsFinite(*p)
}
