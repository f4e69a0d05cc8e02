package walletrepo

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

func scanWallet(row pgx.Row) (*domain.Wallet, error) {
	var wallet domain.Wallet
	err := row.Scan(&wallet.ID, &wallet.Owner.Kind, &wallet.Owner.ID, &wallet.Balance, &wallet.Dues, &wallet.Revenues, &wallet.ReconciledAt)
	if err != nil {
		return nil, err
	}
	return &wallet, nil
}

// Create opens a wallet for owner. Creating it twice returns the existing one.
func (r *Repository) Create(ctx context.Context, owner domain.ActorRef) (*domain.Wallet, error) {
	query := `
		INSERT INTO wallets (owner_kind, owner_id)
		VALUES ($1, $2)
		ON CONFLICT (owner_kind, owner_id) DO UPDATE SET owner_id = EXCLUDED.owner_id
		RETURNING id, owner_kind, owner_id, balance, dues, revenues, reconciled_at
	`
	wallet, err := scanWallet(r.db.QueryRow(ctx, query, owner.Kind, owner.ID))
	if err != nil {
		zap.L().Error("failed to create wallet", zap.Stringer("owner", owner), zap.Error(err))
		return nil, err
	}
	return wallet, nil
}

func (r *Repository) FindByID(ctx context.Context, id int) (*domain.Wallet, error) {
	query := `
		SELECT id, owner_kind, owner_id, balance, dues, revenues, reconciled_at
		FROM wallets
		WHERE id = $1
	`
	wallet, err := scanWallet(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		zap.L().Error("failed to get wallet", zap.Int("wallet_id", id), zap.Error(err))
		return nil, err
	}
	return wallet, nil
}

// FindByIDForUpdate reads the wallet and row-locks it until the surrounding
// transaction ends.
func (r *Repository) FindByIDForUpdate(ctx context.Context, id int) (*domain.Wallet, error) {
	query := `
		SELECT id, owner_kind, owner_id, balance, dues, revenues, reconciled_at
		FROM wallets
		WHERE id = $1
		FOR UPDATE
	`
	wallet, err := scanWallet(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		zap.L().Error("failed to lock wallet", zap.Int("wallet_id", id), zap.Error(err))
		return nil, err
	}
	return wallet, nil
}

func (r *Repository) FindByOwner(ctx context.Context, owner domain.ActorRef) (*domain.Wallet, error) {
	query := `
		SELECT id, owner_kind, owner_id, balance, dues, revenues, reconciled_at
		FROM wallets
		WHERE owner_kind = $1 AND owner_id = $2
	`
	wallet, err := scanWallet(r.db.QueryRow(ctx, query, owner.Kind, owner.ID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		zap.L().Error("failed to get wallet", zap.Stringer("owner", owner), zap.Error(err))
		return nil, err
	}
	return wallet, nil
}

func (r *Repository) UpdateBalance(ctx context.Context, wallet *domain.Wallet) error {
	query := `
		UPDATE wallets
		SET balance = $1, dues = $2, revenues = $3, reconciled_at = $4
		WHERE id = $5
	`
	return r.txManager.Begin(ctx, func(ctx context.Context) error {
		_, err := r.db.Exec(ctx, query, wallet.Balance, wallet.Dues, wallet.Revenues, wallet.ReconciledAt, wallet.ID)
		if err != nil {
			zap.L().Error("failed to update wallet balance", zap.Int("wallet_id", wallet.ID), zap.Error(err))
			return err
		}
		return nil
	})
}

// ListIDs returns every wallet id in ascending order.
func (r *Repository) ListIDs(ctx context.Context) ([]int, error) {
	rows, err := r.db.Query(ctx, `SELECT id FROM wallets ORDER BY id`)
	if err != nil {
		zap.L().Error("failed to list wallets", zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	var ids []int
	for rows.Next() {
		var id int
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
