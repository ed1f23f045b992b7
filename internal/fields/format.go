package fields

import "strconv"

// FormatCoord renders a coordinate without trailing zeros.
func FormatCoord(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
