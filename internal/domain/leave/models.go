package leave

import "time"

// Request is subject-owned by UserID. DeciderID is set when an
// admin/hr/team-lead approves or rejects it.
type Request struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId"`
	Type      string    `json:"type"`
	StartDate time.Time `json:"startDate"`
	EndDate   time.Time `json:"endDate"`
	Days      int       `json:"days"`
	Reason    string    `json:"reason,omitempty"`
	Status    string    `json:"status"`
	DeciderID string    `json:"deciderId,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

const (
	StatusPending  = "Pending"
	StatusApproved = "Approved"
	StatusRejected = "Rejected"

	TypeAnnual = "Annual"
	TypeSick   = "Sick"
	TypeUnpaid = "Unpaid"
)

var (
	Statuses = []string{StatusPending, StatusApproved, StatusRejected}
	Types    = []string{TypeAnnual, TypeSick, TypeUnpaid}
)

type Stats struct {
	Total    int `json:"total"`
	Pending  int `json:"pending"`
	Approved int `json:"approved"`
	Rejected int `json:"rejected"`
}

func buildStats(byStatus map[string]int) Stats {
	stats := Stats{
		Pending:  byStatus[StatusPending],
		Approved: byStatus[StatusApproved],
		Rejected: byStatus[StatusRejected],
	}
	for _, count := range byStatus {
		stats.Total += count
	}
	return stats
}
