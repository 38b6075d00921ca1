package appraisals

import "time"

// Appraisal is subject-owned by its receiver (the employee being
// appraised); ReviewerID is whoever wrote it.
type Appraisal struct {
	ID           string    `json:"id"`
	ReceiverID   string    `json:"receiverId"`
	ReviewerID   string    `json:"reviewerId"`
	Period       string    `json:"period,omitempty"`
	Rating       float64   `json:"rating"`
	Strengths    string    `json:"strengths,omitempty"`
	Improvements string    `json:"improvements,omitempty"`
	Status       string    `json:"status"`
	CreatedAt    time.Time `json:"createdAt"`
}

const (
	StatusPending   = "Pending"
	StatusCompleted = "Completed"
	StatusArchived  = "Archived"
)

var Statuses = []string{StatusPending, StatusCompleted, StatusArchived}

type Stats struct {
	Total     int `json:"total"`
	Pending   int `json:"pending"`
	Completed int `json:"completed"`
	Archived  int `json:"archived"`
}

func buildStats(byStatus map[string]int) Stats {
	stats := Stats{
		Pending:   byStatus[StatusPending],
		Completed: byStatus[StatusCompleted],
		Archived:  byStatus[StatusArchived],
	}
	for _, count := range byStatus {
		stats.Total += count
	}
	return stats
}
