package ticketrepo

import (
	"context"
	"errors"

	"github.com/GlebRadaev/delivery/internal/domain"
	"github.com/GlebRadaev/delivery/internal/pg"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

type Repository struct {
	db pg.Database
}

func New(db pg.Database) *Repository {
	return &Repository{
		db: db,
	}
}

func scanTicket(row pgx.Row, t *domain.Ticket) error {
	return row.Scan(&t.ID, &t.Author.Kind, &t.Author.ID, &t.Subject, &t.Status, &t.CreatedAt)
}

func (r *Repository) Create(ctx context.Context, ticket *domain.Ticket) error {
	query := `
		INSERT INTO tickets (author_kind, author_id, subject, status)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at
	`
	err := r.db.QueryRow(ctx, query, ticket.Author.Kind, ticket.Author.ID, ticket.Subject, ticket.Status).
		Scan(&ticket.ID, &ticket.CreatedAt)
	if err != nil {
		zap.L().Error("can't save ticket", zap.Stringer("author", ticket.Author), zap.Error(err))
		return err
	}
	return nil
}

func (r *Repository) FindByID(ctx context.Context, id int) (*domain.Ticket, error) {
	query := `SELECT id, author_kind, author_id, subject, status, created_at FROM tickets WHERE id = $1`

	var ticket domain.Ticket
	if err := scanTicket(r.db.QueryRow(ctx, query, id), &ticket); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		zap.L().Error("can't find ticket", zap.Int("ticket_id", id), zap.Error(err))
		return nil, err
	}
	return &ticket, nil
}

// List returns tickets opened by author, or every ticket when author is zero.
func (r *Repository) List(ctx context.Context, author domain.ActorRef) ([]domain.Ticket, error) {
	query := `
		SELECT id, author_kind, author_id, subject, status, created_at
		FROM tickets
		WHERE ($1::text = '' OR (author_kind = $1 AND author_id = $2))
		ORDER BY created_at DESC
	`
	rows, err := r.db.Query(ctx, query, author.Kind, author.ID)
	if err != nil {
		zap.L().Error("can't list tickets", zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	var tickets []domain.Ticket
	for rows.Next() {
		var ticket domain.Ticket
		if err := scanTicket(rows, &ticket); err != nil {
			zap.L().Error("can't scan ticket row", zap.Error(err))
			return nil, err
		}
		tickets = append(tickets, ticket)
	}
	return tickets, rows.Err()
}

func (r *Repository) UpdateStatus(ctx context.Context, id int, status domain.TicketStatus) error {
	_, err := r.db.Exec(ctx, `UPDATE tickets SET status = $1 WHERE id = $2`, status, id)
	if err != nil {
		zap.L().Error("can't update ticket", zap.Int("ticket_id", id), zap.Error(err))
		return err
	}
	return nil
}
