package cli

import "time"

// formatWhen renders a timestamp the way the messaging screen does: clock
// time within the last 24 hours, date otherwise.
func formatWhen(t time.Time) string {
	if time.Since(t) < 24*time.Hour {
		return t.Local().Format("15:04")
	}
	return t.Local().Format("2006-01-02")
}
