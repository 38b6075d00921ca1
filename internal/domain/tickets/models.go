package tickets

import "time"

// Ticket is subject-owned by its creator. Department is a free-text
// tag (not a department foreign key); the authorization layer compares
// it case-insensitively against the principal's department id.
type Ticket struct {
	ID          string    `json:"id"`
	CreatorID   string    `json:"creatorId"`
	AssignedID  string    `json:"assignedId,omitempty"`
	Department  string    `json:"department,omitempty"`
	Subject     string    `json:"subject"`
	Description string    `json:"description,omitempty"`
	Category    string    `json:"category,omitempty"`
	Priority    string    `json:"priority"`
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"createdAt"`
}

type Message struct {
	ID        string    `json:"id"`
	TicketID  string    `json:"ticketId"`
	AuthorID  string    `json:"authorId"`
	Body      string    `json:"body"`
	CreatedAt time.Time `json:"createdAt"`
}

const (
	StatusOpen       = "Open"
	StatusInProgress = "In Progress"
	StatusResolved   = "Resolved"
	StatusClosed     = "Closed"

	PriorityLow    = "Low"
	PriorityMedium = "Medium"
	PriorityHigh   = "High"
	PriorityUrgent = "Urgent"
)

var (
	Statuses   = []string{StatusOpen, StatusInProgress, StatusResolved, StatusClosed}
	Priorities = []string{PriorityLow, PriorityMedium, PriorityHigh, PriorityUrgent}
)

type Stats struct {
	Total      int `json:"total"`
	Open       int `json:"open"`
	InProgress int `json:"inProgress"`
	Resolved   int `json:"resolved"`
	Closed     int `json:"closed"`
}

func buildStats(byStatus map[string]int) Stats {
	stats := Stats{
		Open:       byStatus[StatusOpen],
		InProgress: byStatus[StatusInProgress],
		Resolved:   byStatus[StatusResolved],
		Closed:     byStatus[StatusClosed],
	}
	for _, count := range byStatus {
		stats.Total += count
	}
	return stats
}
