package model

import "fmt"

// FormatLapTime renders a millisecond lap time as "m:ss.mmm". Non-positive
// values render as the empty string.
func FormatLapTime(ms int) string {
	if ms <= 0 {
		return ""
	}
	m := ms / 60000
	rest := ms - m*60000
	return fmt.Sprintf("%d:%06.3f", m, float64(rest)/1000.0)
}
