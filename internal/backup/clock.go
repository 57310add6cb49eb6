package backup

import (
	"time"

	"github.com/edvin/dbvault/internal/model"
)

// scheduleHour is the policy-fixed UTC hour for daily, weekly, and monthly
// runs.
const scheduleHour = 2

// NextRun computes the next eligible run time for a schedule frequency,
// relative to ref. Pure function, no I/O.
//
// The custom frequency falls back to ref+24h: the stored cron expression is
// validated at schedule creation but not yet consulted here (see DESIGN.md).
func NextRun(frequency string, ref time.Time) time.Time {
	ref = ref.UTC()
	switch frequency {
	case model.FrequencyHourly:
		return ref.Add(time.Hour)
	case model.FrequencyDaily:
		next := ref.AddDate(0, 0, 1)
		return time.Date(next.Year(), next.Month(), next.Day(), scheduleHour, 0, 0, 0, time.UTC)
	case model.FrequencyWeekly:
		next := ref.AddDate(0, 0, 7)
		return time.Date(next.Year(), next.Month(), next.Day(), scheduleHour, 0, 0, 0, time.UTC)
	case model.FrequencyMonthly:
		next := ref.AddDate(0, 1, 0)
		return time.Date(next.Year(), next.Month(), 1, scheduleHour, 0, 0, 0, time.UTC)
	default:
		return ref.Add(24 * time.Hour)
	}
}
