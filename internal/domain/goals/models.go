package goals

import "time"

// Goal is subject-owned: UserID is the employee the goal belongs to.
type Goal struct {
	ID          string     `json:"id"`
	UserID      string     `json:"userId"`
	Title       string     `json:"title"`
	Description string     `json:"description,omitempty"`
	Category    string     `json:"category,omitempty"`
	Status      string     `json:"status"`
	Progress    float64    `json:"progress"`
	TargetDate  *time.Time `json:"targetDate,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
}

type Comment struct {
	ID        string    `json:"id"`
	GoalID    string    `json:"goalId"`
	AuthorID  string    `json:"authorId"`
	Body      string    `json:"body"`
	CreatedAt time.Time `json:"createdAt"`
}

const (
	StatusNotStarted = "Not Started"
	StatusInProgress = "In Progress"
	StatusCompleted  = "Completed"
)

var Statuses = []string{StatusNotStarted, StatusInProgress, StatusCompleted}

// Stats is the aggregation block returned beside every goal list.
type Stats struct {
	Total      int `json:"total"`
	NotStarted int `json:"notStarted"`
	InProgress int `json:"inProgress"`
	Completed  int `json:"completed"`
}

func buildStats(byStatus map[string]int) Stats {
	stats := Stats{
		NotStarted: byStatus[StatusNotStarted],
		InProgress: byStatus[StatusInProgress],
		Completed:  byStatus[StatusCompleted],
	}
	for _, count := range byStatus {
		stats.Total += count
	}
	return stats
}
