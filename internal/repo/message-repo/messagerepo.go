package messagerepo

import (
	"context"

	"github.com/GlebRadaev/delivery/internal/domain"
	"github.com/GlebRadaev/delivery/internal/pg"
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

func (r *Repository) Create(ctx context.Context, msg *domain.Message) error {
	query := `
		INSERT INTO messages (ticket_id, sender_kind, sender_id, body)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at
	`
	err := r.db.QueryRow(ctx, query, msg.TicketID, msg.Sender.Kind, msg.Sender.ID, msg.Body).
		Scan(&msg.ID, &msg.CreatedAt)
	if err != nil {
		zap.L().Error("can't save message", zap.Int("ticket_id", msg.TicketID), zap.Error(err))
		return err
	}
	return nil
}

func (r *Repository) ListByTicket(ctx context.Context, ticketID int) ([]domain.Message, error) {
	query := `
		SELECT id, ticket_id, sender_kind, sender_id, body, created_at
		FROM messages
		WHERE ticket_id = $1
		ORDER BY created_at, id
	`
	rows, err := r.db.Query(ctx, query, ticketID)
	if err != nil {
		zap.L().Error("can't get messages", zap.Int("ticket_id", ticketID), zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	var messages []domain.Message
	for rows.Next() {
		var m domain.Message
		if err := rows.Scan(&m.ID, &m.TicketID, &m.Sender.Kind, &m.Sender.ID, &m.Body, &m.CreatedAt); err != nil {
			zap.L().Error("can't scan message row", zap.Error(err))
			return nil, err
		}
		messages = append(messages, m)
	}
	return messages, rows.Err()
}
