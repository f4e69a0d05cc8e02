package inventoryrepo

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

func (r *Repository) Create(ctx context.Context, item *domain.Item) (*domain.Item, error) {
	query := `
		INSERT INTO items (source, owner_id, name, quantity, price)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at
	`
	err := r.db.QueryRow(ctx, query, item.Source, item.OwnerID, item.Name, item.Quantity, item.Price).
		Scan(&item.ID, &item.CreatedAt)
	if err != nil {
		zap.L().Error("failed to create item", zap.String("source", string(item.Source)), zap.Error(err))
		return nil, err
	}
	return item, nil
}

func (r *Repository) FindByID(ctx context.Context, id int) (*domain.Item, error) {
	query := `
		SELECT id, source, owner_id, name, quantity, price, created_at
		FROM items
		WHERE id = $1
	`
	var item domain.Item
	err := r.db.QueryRow(ctx, query, id).
		Scan(&item.ID, &item.Source, &item.OwnerID, &item.Name, &item.Quantity, &item.Price, &item.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		zap.L().Error("failed to find item", zap.Int("item_id", id), zap.Error(err))
		return nil, err
	}
	return &item, nil
}

// List returns items of the given source. A nil ownerID lists every owner.
func (r *Repository) List(ctx context.Context, source domain.Source, ownerID *int) ([]domain.Item, error) {
	query := `
		SELECT id, source, owner_id, name, quantity, price, created_at
		FROM items
		WHERE source = $1 AND ($2::int IS NULL OR owner_id = $2)
		ORDER BY id
	`
	rows, err := r.db.Query(ctx, query, source, ownerID)
	if err != nil {
		zap.L().Error("failed to list items", zap.String("source", string(source)), zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	var items []domain.Item
	for rows.Next() {
		var item domain.Item
		if err := rows.Scan(&item.ID, &item.Source, &item.OwnerID, &item.Name, &item.Quantity, &item.Price, &item.CreatedAt); err != nil {
			zap.L().Error("failed to scan item", zap.Error(err))
			return nil, err
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

// Decrement subtracts qty only while enough units remain. ok is false when
// the row holds fewer than qty units at the time of the update.
func (r *Repository) Decrement(ctx context.Context, id, qty int) (remaining int, ok bool, err error) {
	query := `
		UPDATE items
		SET quantity = quantity - $1
		WHERE id = $2 AND quantity >= $1
		RETURNING quantity
	`
	err = r.db.QueryRow(ctx, query, qty, id).Scan(&remaining)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, false, nil
		}
		zap.L().Error("failed to decrement item quantity", zap.Int("item_id", id), zap.Error(err))
		return 0, false, err
	}
	return remaining, true, nil
}

func (r *Repository) Increment(ctx context.Context, id, qty int) (*domain.Item, error) {
	query := `
		UPDATE items
		SET quantity = quantity + $1
		WHERE id = $2
		RETURNING id, source, owner_id, name, quantity, price, created_at
	`
	var item domain.Item
	err := r.db.QueryRow(ctx, query, qty, id).
		Scan(&item.ID, &item.Source, &item.OwnerID, &item.Name, &item.Quantity, &item.Price, &item.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		zap.L().Error("failed to increment item quantity", zap.Int("item_id", id), zap.Error(err))
		return nil, err
	}
	return &item, nil
}
