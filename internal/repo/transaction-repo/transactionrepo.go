package transactionrepo

import (
	"context"
	"errors"

	"github.com/GlebRadaev/delivery/internal/domain"
	"github.com/GlebRadaev/delivery/internal/pg"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

type Repository struct {
	db        pg.Database
	txManager pg.TXManager
}

func New(db pg.Database, txManager pg.TXManager) *Repository {
	return &Repository{
		db:        db,
		txManager: txManager,
	}
}

func (r *Repository) Create(ctx context.Context, t *domain.Transaction) error {
	query := `
		INSERT INTO transactions (wallet_id, type, amount, paid, description)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at
	`
	err := r.db.QueryRow(ctx, query, t.WalletID, t.Type, t.Amount, t.Paid, t.Description).Scan(&t.ID, &t.CreatedAt)
	if err != nil {
		zap.L().Error("failed to create transaction", zap.Int("wallet_id", t.WalletID), zap.Error(err))
		return err
	}
	return nil
}

func (r *Repository) AddHistory(ctx context.Context, entry *domain.HistoryEntry) error {
	query := `
		INSERT INTO transaction_history (transaction_id, amount, paid)
		VALUES ($1, $2, $3)
		RETURNING id, created_at
	`
	err := r.db.QueryRow(ctx, query, entry.TransactionID, entry.Amount, entry.Paid).Scan(&entry.ID, &entry.CreatedAt)
	if err != nil {
		zap.L().Error("failed to add history entry", zap.Int("transaction_id", entry.TransactionID), zap.Error(err))
		return err
	}
	return nil
}

// FindByID returns the transaction with its history entries.
func (r *Repository) FindByID(ctx context.Context, id int) (*domain.Transaction, error) {
	query := `
		SELECT id, wallet_id, type, amount, paid, description, created_at
		FROM transactions
		WHERE id = $1
	`
	var t domain.Transaction
	err := r.db.QueryRow(ctx, query, id).
		Scan(&t.ID, &t.WalletID, &t.Type, &t.Amount, &t.Paid, &t.Description, &t.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		zap.L().Error("failed to get transaction", zap.Int("transaction_id", id), zap.Error(err))
		return nil, err
	}

	list := []domain.Transaction{t}
	if err := r.attachHistory(ctx, list); err != nil {
		return nil, err
	}
	return &list[0], nil
}

// ListByWallet returns every transaction of the wallet with its history entries.
func (r *Repository) ListByWallet(ctx context.Context, walletID int) ([]domain.Transaction, error) {
	query := `
		SELECT id, wallet_id, type, amount, paid, description, created_at
		FROM transactions
		WHERE wallet_id = $1
		ORDER BY id
	`
	rows, err := r.db.Query(ctx, query, walletID)
	if err != nil {
		zap.L().Error("failed to list transactions", zap.Int("wallet_id", walletID), zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	var list []domain.Transaction
	for rows.Next() {
		var t domain.Transaction
		if err := rows.Scan(&t.ID, &t.WalletID, &t.Type, &t.Amount, &t.Paid, &t.Description, &t.CreatedAt); err != nil {
			zap.L().Error("failed to scan transaction", zap.Error(err))
			return nil, err
		}
		list = append(list, t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	rows.Close()

	if len(list) == 0 {
		return list, nil
	}
	if err := r.attachHistory(ctx, list); err != nil {
		return nil, err
	}
	return list, nil
}

func (r *Repository) attachHistory(ctx context.Context, list []domain.Transaction) error {
	ids := make([]int, len(list))
	index := make(map[int]int, len(list))
	for i, t := range list {
		ids[i] = t.ID
		index[t.ID] = i
	}

	query := `
		SELECT id, transaction_id, amount, paid, created_at
		FROM transaction_history
		WHERE transaction_id = ANY($1)
		ORDER BY id
	`
	rows, err := r.db.Query(ctx, query, ids)
	if err != nil {
		zap.L().Error("failed to get transaction history", zap.Error(err))
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var h domain.HistoryEntry
		if err := rows.Scan(&h.ID, &h.TransactionID, &h.Amount, &h.Paid, &h.CreatedAt); err != nil {
			zap.L().Error("failed to scan history entry", zap.Error(err))
			return err
		}
		i := index[h.TransactionID]
		list[i].History = append(list[i].History, h)
	}
	return rows.Err()
}

func (r *Repository) SetPaid(ctx context.Context, id int, paid bool) error {
	return r.txManager.Begin(ctx, func(ctx context.Context) error {
		_, err := r.db.Exec(ctx, `UPDATE transactions SET paid = $1 WHERE id = $2`, paid, id)
		if err != nil {
			zap.L().Error("failed to update transaction", zap.Int("transaction_id", id), zap.Error(err))
			return err
		}
		return nil
	})
}

func (r *Repository) SetHistoryPaid(ctx context.Context, id int, paid bool) error {
	return r.txManager.Begin(ctx, func(ctx context.Context) error {
		_, err := r.db.Exec(ctx, `UPDATE transaction_history SET paid = $1 WHERE id = $2`, paid, id)
		if err != nil {
			zap.L().Error("failed to update history entry", zap.Int("history_id", id), zap.Error(err))
			return err
		}
		return nil
	})
}
