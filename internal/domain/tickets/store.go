package tickets

import (
	"context"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5/pgxpool"

	"peopledesk/internal/domain/authz"
)

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

type Store struct {
	DB *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{DB: db}
}

type Filters struct {
	Status     string
	Category   string
	Department string
}

func (f Filters) apply(builder sq.SelectBuilder) sq.SelectBuilder {
	if f.Status != "" {
		builder = builder.Where(sq.Eq{"status": f.Status})
	}
	if f.Category != "" {
		builder = builder.Where(sq.Eq{"category": f.Category})
	}
	if f.Department != "" {
		// The tag is free text, so the filter matches it the same
		// case-insensitive way the authorization check does.
		builder = builder.Where(sq.Expr("LOWER(department) = LOWER(?)", f.Department))
	}
	return builder
}

const ticketColumns = "id, creator_id, COALESCE(assigned_id::text, ''), COALESCE(department, ''), subject, COALESCE(description, ''), COALESCE(category, ''), priority, status, created_at"

// scoped applies the creator scope, widened so an assignee always sees
// tickets assigned to them even when the creator is out of scope. An
// explicit subject filter stays a plain equality predicate, so the
// widening only applies to unfiltered lists.
func scoped(builder sq.SelectBuilder, scope authz.Scope, principalID string) sq.SelectBuilder {
	cond, ok := scope.Predicate("creator_id")
	if !ok {
		return builder
	}
	if scope.Subject == "" && principalID != "" {
		return builder.Where(sq.Or{cond, sq.Eq{"assigned_id": principalID}})
	}
	return builder.Where(cond)
}

func (s *Store) List(ctx context.Context, scope authz.Scope, principalID string, filters Filters, limit, offset int) ([]Ticket, int, error) {
	base := scoped(psql.Select().From("tickets"), scope, principalID)
	base = filters.apply(base)

	countQuery, countArgs, err := base.Columns("COUNT(1)").ToSql()
	if err != nil {
		return nil, 0, err
	}
	var total int
	if err := s.DB.QueryRow(ctx, countQuery, countArgs...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query, args, err := base.Columns(ticketColumns).
		OrderBy("created_at DESC").
		Limit(uint64(limit)).Offset(uint64(offset)).
		ToSql()
	if err != nil {
		return nil, 0, err
	}

	rows, err := s.DB.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []Ticket
	for rows.Next() {
		var ticket Ticket
		if err := rows.Scan(&ticket.ID, &ticket.CreatorID, &ticket.AssignedID, &ticket.Department, &ticket.Subject, &ticket.Description, &ticket.Category, &ticket.Priority, &ticket.Status, &ticket.CreatedAt); err != nil {
			return nil, 0, err
		}
		out = append(out, ticket)
	}
	return out, total, rows.Err()
}

func (s *Store) StatsByStatus(ctx context.Context, scope authz.Scope, principalID string) (Stats, error) {
	query, args, err := scoped(psql.Select("status", "COUNT(1)").From("tickets"), scope, principalID).
		GroupBy("status").
		ToSql()
	if err != nil {
		return Stats{}, err
	}

	rows, err := s.DB.Query(ctx, query, args...)
	if err != nil {
		return Stats{}, err
	}
	defer rows.Close()

	byStatus := map[string]int{}
	for rows.Next() {
		var status string
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return Stats{}, err
		}
		byStatus[status] = count
	}
	return buildStats(byStatus), rows.Err()
}

func (s *Store) Get(ctx context.Context, ticketID string) (Ticket, error) {
	var ticket Ticket
	err := s.DB.QueryRow(ctx, `
    SELECT `+ticketColumns+`
    FROM tickets
    WHERE id = $1
  `, ticketID).Scan(&ticket.ID, &ticket.CreatorID, &ticket.AssignedID, &ticket.Department, &ticket.Subject, &ticket.Description, &ticket.Category, &ticket.Priority, &ticket.Status, &ticket.CreatedAt)
	return ticket, err
}

func (s *Store) Create(ctx context.Context, creatorID, department, subject, description, category, priority string) (string, error) {
	var id string
	err := s.DB.QueryRow(ctx, `
    INSERT INTO tickets (creator_id, department, subject, description, category, priority, status)
    VALUES ($1,$2,$3,$4,$5,$6,$7)
    RETURNING id
  `, creatorID, nullIfEmpty(department), subject, description, category, priority, StatusOpen).Scan(&id)
	return id, err
}

// Update writes the full current field set; the handler merges the
// guard-narrowed change-set into the record before calling this, so
// replaying an unchanged update is a no-op.
func (s *Store) Update(ctx context.Context, ticketID string, ticket Ticket) error {
	_, err := s.DB.Exec(ctx, `
    UPDATE tickets
    SET subject = $1, description = $2, category = $3, department = $4,
        priority = $5, status = $6, assigned_id = $7
    WHERE id = $8
  `, ticket.Subject, ticket.Description, ticket.Category, nullIfEmpty(ticket.Department), ticket.Priority, ticket.Status, nullIfEmpty(ticket.AssignedID), ticketID)
	return err
}

func (s *Store) Delete(ctx context.Context, ticketID string) error {
	_, err := s.DB.Exec(ctx, "DELETE FROM tickets WHERE id = $1", ticketID)
	return err
}

func (s *Store) CreateMessage(ctx context.Context, ticketID, authorID, body string) (string, error) {
	var id string
	err := s.DB.QueryRow(ctx, `
    INSERT INTO ticket_messages (ticket_id, author_id, body)
    VALUES ($1,$2,$3)
    RETURNING id
  `, ticketID, authorID, body).Scan(&id)
	return id, err
}

func (s *Store) ListMessages(ctx context.Context, ticketID string) ([]Message, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT id, ticket_id, author_id, body, created_at
    FROM ticket_messages
    WHERE ticket_id = $1
    ORDER BY created_at ASC
  `, ticketID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var messages []Message
	for rows.Next() {
		var message Message
		if err := rows.Scan(&message.ID, &message.TicketID, &message.AuthorID, &message.Body, &message.CreatedAt); err != nil {
			return nil, err
		}
		messages = append(messages, message)
	}
	return messages, rows.Err()
}

func nullIfEmpty(value string) any {
	if value == "" {
		return nil
	}
	return value
}
