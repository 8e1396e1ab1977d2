package feed

import "math"

// round rounds x to the given number of decimal places, half away from zero.
func round(x float64, places int) float64 {
	shift := math.Pow(10, float64(places))
	return math.Round(x*shift) / shift
}
