package domain

import "math"

// MaxAmount is the largest price or total a NUMERIC(12,2) column holds
const MaxAmount = 9_999_999_999.99

// validAmount reports whether v is a finite amount in [0, MaxAmount]
func validAmount(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0) && v >= 0 && v <= MaxAmount
}
