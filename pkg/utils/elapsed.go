package utils

import (
	"fmt"
	"strings"
	"time"
)

// FormatElapsed renders d as "{h}h {m}min {s}s", omitting leading zero hours and minutes.
func FormatElapsed(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	// seconds print with one decimal, so carry into minutes before splitting
	d = d.Round(100 * time.Millisecond)
	h := int64(d / time.Hour)
	m := int64((d % time.Hour) / time.Minute)
	s := (d % time.Minute).Seconds()

	var b strings.Builder
	if h > 0 {
		fmt.Fprintf(&b, "%dh ", h)
	}
	if h > 0 || m > 0 {
		fmt.Fprintf(&b, "%dmin ", m)
	}
	fmt.Fprintf(&b, "%.1fs", s)
	return b.String()
}
