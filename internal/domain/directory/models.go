package directory

import "time"

type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	Name         string    `json:"name"`
	Role         string    `json:"role"`
	DepartmentID string    `json:"departmentId,omitempty"`
	Position     string    `json:"position,omitempty"`
	Status       string    `json:"status"`
	CreatedAt    time.Time `json:"createdAt"`
}

type Department struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Headcount int    `json:"headcount"`
}

const (
	UserStatusActive   = "active"
	UserStatusInactive = "inactive"
)
