package notifications

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	TypeTicketAssigned = "ticket_assigned"
	TypeGoalCreated    = "goal_created"
	TypeLeaveApproved  = "leave_approved"
	TypeLeaveRejected  = "leave_rejected"
)

type Notification struct {
	ID        string     `json:"id"`
	UserID    string     `json:"userId"`
	Type      string     `json:"type"`
	Title     string     `json:"title"`
	Body      string     `json:"body"`
	ReadAt    *time.Time `json:"readAt,omitempty"`
	CreatedAt time.Time  `json:"createdAt"`
}

type Service struct {
	DB *pgxpool.Pool
}

func New(db *pgxpool.Pool) *Service {
	return &Service{DB: db}
}

func (s *Service) Create(ctx context.Context, userID, ntype, title, body string) error {
	_, err := s.DB.Exec(ctx, `
    INSERT INTO notifications (user_id, type, title, body)
    VALUES ($1,$2,$3,$4)
  `, userID, ntype, title, body)
	return err
}

func (s *Service) List(ctx context.Context, userID string, limit, offset int) ([]Notification, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT id, user_id, type, title, body, read_at, created_at
    FROM notifications
    WHERE user_id = $1
    ORDER BY created_at DESC
    LIMIT $2 OFFSET $3
  `, userID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Notification
	for rows.Next() {
		var notification Notification
		if err := rows.Scan(&notification.ID, &notification.UserID, &notification.Type, &notification.Title, &notification.Body, &notification.ReadAt, &notification.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, notification)
	}
	return out, rows.Err()
}

func (s *Service) UnreadCount(ctx context.Context, userID string) (int, error) {
	var count int
	err := s.DB.QueryRow(ctx, "SELECT COUNT(1) FROM notifications WHERE user_id = $1 AND read_at IS NULL", userID).Scan(&count)
	return count, err
}

// MarkRead only touches the caller's own rows, so no separate
// authorization pass is needed.
func (s *Service) MarkRead(ctx context.Context, userID, notificationID string) error {
	_, err := s.DB.Exec(ctx, `
    UPDATE notifications SET read_at = now()
    WHERE user_id = $1 AND id = $2
  `, userID, notificationID)
	return err
}
