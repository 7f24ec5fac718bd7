package automate

import (
	"fmt"
	"time"
)

// formatDuration renders d as H:MM:SS, truncated to whole seconds.
func formatDuration(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	total := int(d / time.Second)
	return fmt.Sprintf("%d:%02d:%02d", total/3600, total/60%60, total%60)
}

// progressLine describes the done-th of total rows. The remaining time is
// extrapolated from the average so far.
func progressLine(done, total int, elapsed time.Duration, row Row) string {
	var remaining time.Duration
	if done > 0 {
		remaining = elapsed / time.Duration(done) * time.Duration(total-done)
	}
	return fmt.Sprintf(" %d/%d elapsed %s, remaining %s %s",
		done, total, formatDuration(elapsed), formatDuration(remaining), row)
}
