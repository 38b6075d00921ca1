package leave

import (
	"errors"
	"time"
)

// CalculateDays counts the calendar days covered by a leave request,
// inclusive of both endpoints.
func CalculateDays(start, end time.Time) (int, error) {
	start = start.Truncate(24 * time.Hour)
	end = end.Truncate(24 * time.Hour)
	if end.Before(start) {
		return 0, errors.New("end date must not be before start date")
	}
	return int(end.Sub(start).Hours()/24) + 1, nil
}
