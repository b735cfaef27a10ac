package sla

import "time"

const (
	OnTime    = "ON_TIME"
	Warning   = "WARNING"
	Overdue   = "OVERDUE"
	Completed = "COMPLETED"
)

// DefaultWarnPercent is the share of the SLA window after which an open
// complaint is flagged WARNING.
const DefaultWarnPercent = 80.0

// Deadline returns submitted + slaHours. Non-positive hours yield the
// submission time itself, which makes the complaint overdue immediately.
func Deadline(submitted time.Time, slaHours int) time.Time {
	if slaHours < 0 {
		slaHours = 0
	}
	return submitted.Add(time.Duration(slaHours) * time.Hour)
}

// Result is the SLA evaluation of a single complaint.
type Result struct {
	Status   string  `json:"status"`
	Progress float64 `json:"progress"`
	Breached bool    `json:"breached"`
}

// Evaluate classifies a complaint against its deadline. closedAt is the
// resolution time, nil while the complaint is still open.
func Evaluate(submitted, deadline time.Time, closedAt *time.Time, now time.Time, warnPct float64) Result {
	if warnPct <= 0 || warnPct >= 100 {
		warnPct = DefaultWarnPercent
	}
	window := deadline.Sub(submitted)
	if closedAt != nil {
		return Result{
			Status:   Completed,
			Progress: Progress(closedAt.Sub(submitted), window),
			Breached: closedAt.After(deadline),
		}
	}
	p := Progress(now.Sub(submitted), window)
	switch {
	case now.After(deadline):
		return Result{Status: Overdue, Progress: 100, Breached: true}
	case p >= warnPct:
		return Result{Status: Warning, Progress: p}
	default:
		return Result{Status: OnTime, Progress: p}
	}
}

// Progress returns elapsed/window as a 0-100 percentage.
func Progress(elapsed, window time.Duration) float64 {
	if window <= 0 {
		return 100
	}
	if elapsed <= 0 {
		return 0
	}
	p := float64(elapsed) / float64(window) * 100
	if p > 100 {
		return 100
	}
	return p
}

// Label returns a human-readable label for dashboards.
func Label(status string) string {
	switch status {
	case OnTime:
		return "On Time"
	case Warning:
		return "Due Soon"
	case Overdue:
		return "Overdue"
	case Completed:
		return "Completed"
	default:
		return ""
	}
}
