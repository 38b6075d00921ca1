package attendance

import "time"

// Entry is one working day for one user. ClockOut stays nil until the
// user clocks out.
type Entry struct {
	ID       string     `json:"id"`
	UserID   string     `json:"userId"`
	Day      time.Time  `json:"day"`
	ClockIn  time.Time  `json:"clockIn"`
	ClockOut *time.Time `json:"clockOut,omitempty"`
}
