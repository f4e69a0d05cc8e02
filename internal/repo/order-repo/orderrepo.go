package orderrepo

import (
	"context"
	"errors"

	"github.com/GlebRadaev/delivery/internal/domain"
	"github.com/GlebRadaev/delivery/internal/pg"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

const orderColumns = `id, number, user_id, captain_id, status, total_price, city, street, building, phone, notes, created_at, updated_at`

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

func scanOrder(row pgx.Row, order *domain.Order) error {
	return row.Scan(&order.ID, &order.Number, &order.UserID, &order.CaptainID, &order.Status, &order.TotalPrice,
		&order.Address.City, &order.Address.Street, &order.Address.Building, &order.Address.Phone, &order.Address.Notes,
		&order.CreatedAt, &order.UpdatedAt)
}

func (r *Repository) FindByID(ctx context.Context, id int) (*domain.Order, error) {
	return r.findOne(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = $1`, id)
}

// FindByIDForUpdate reads the order and row-locks it until the surrounding
// transaction ends.
func (r *Repository) FindByIDForUpdate(ctx context.Context, id int) (*domain.Order, error) {
	return r.findOne(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = $1 FOR UPDATE`, id)
}

func (r *Repository) FindByNumber(ctx context.Context, number string) (*domain.Order, error) {
	return r.findOne(ctx, `SELECT `+orderColumns+` FROM orders WHERE number = $1`, number)
}

func (r *Repository) FindByUserID(ctx context.Context, userID int) ([]domain.Order, error) {
	return r.findMany(ctx, `SELECT `+orderColumns+` FROM orders WHERE user_id = $1 ORDER BY created_at DESC`, userID)
}

func (r *Repository) FindByCaptainID(ctx context.Context, captainID int) ([]domain.Order, error) {
	return r.findMany(ctx, `SELECT `+orderColumns+` FROM orders WHERE captain_id = $1 ORDER BY created_at DESC`, captainID)
}

func (r *Repository) FindAll(ctx context.Context) ([]domain.Order, error) {
	return r.findMany(ctx, `SELECT `+orderColumns+` FROM orders ORDER BY created_at DESC`)
}

func (r *Repository) findOne(ctx context.Context, query string, args ...any) (*domain.Order, error) {
	var order domain.Order
	if err := scanOrder(r.db.QueryRow(ctx, query, args...), &order); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		zap.L().Error("can't find order", zap.Error(err))
		return nil, err
	}

	orders := []domain.Order{order}
	if err := r.attachLines(ctx, orders); err != nil {
		return nil, err
	}
	return &orders[0], nil
}

func (r *Repository) findMany(ctx context.Context, query string, args ...any) ([]domain.Order, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		zap.L().Error("can't get orders", zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	var orders []domain.Order
	for rows.Next() {
		var order domain.Order
		if err := scanOrder(rows, &order); err != nil {
			zap.L().Error("can't scan order row", zap.Error(err))
			return nil, err
		}
		orders = append(orders, order)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	// the lines query needs the connection back inside a transaction
	rows.Close()

	if len(orders) == 0 {
		return orders, nil
	}
	if err := r.attachLines(ctx, orders); err != nil {
		return nil, err
	}
	return orders, nil
}

func (r *Repository) attachLines(ctx context.Context, orders []domain.Order) error {
	ids := make([]int, len(orders))
	index := make(map[int]int, len(orders))
	for i, o := range orders {
		ids[i] = o.ID
		index[o.ID] = i
	}

	query := `
		SELECT id, order_id, item_id, source, quantity, unit_price
		FROM order_lines
		WHERE order_id = ANY($1)
		ORDER BY id
	`
	rows, err := r.db.Query(ctx, query, ids)
	if err != nil {
		zap.L().Error("can't get order lines", zap.Error(err))
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var line domain.OrderLine
		if err := rows.Scan(&line.ID, &line.OrderID, &line.ItemID, &line.Source, &line.Quantity, &line.UnitPrice); err != nil {
			zap.L().Error("can't scan order line", zap.Error(err))
			return err
		}
		i := index[line.OrderID]
		orders[i].Lines = append(orders[i].Lines, line)
	}
	return rows.Err()
}

func (r *Repository) insertLines(ctx context.Context, order *domain.Order) error {
	query := `
		INSERT INTO order_lines (order_id, item_id, source, quantity, unit_price)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`
	for i := range order.Lines {
		line := &order.Lines[i]
		line.OrderID = order.ID
		err := r.db.QueryRow(ctx, query, order.ID, line.ItemID, line.Source, line.Quantity, line.UnitPrice).Scan(&line.ID)
		if err != nil {
			zap.L().Error("can't save order line", zap.Int("order_id", order.ID), zap.Error(err))
			return err
		}
	}
	return nil
}

// Save inserts the order and its lines, filling generated ids and timestamps.
func (r *Repository) Save(ctx context.Context, order *domain.Order) error {
	query := `
		INSERT INTO orders (number, user_id, captain_id, status, total_price, city, street, building, phone, notes)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id, created_at, updated_at
	`
	return r.txManager.Begin(ctx, func(ctx context.Context) error {
		a := order.Address
		err := r.db.QueryRow(ctx, query, order.Number, order.UserID, order.CaptainID, order.Status, order.TotalPrice,
			a.City, a.Street, a.Building, a.Phone, a.Notes).
			Scan(&order.ID, &order.CreatedAt, &order.UpdatedAt)
		if err != nil {
			zap.L().Error("can't save order", zap.Error(err))
			return err
		}
		return r.insertLines(ctx, order)
	})
}

// Update replaces the lines, total and address of an order.
func (r *Repository) Update(ctx context.Context, order *domain.Order) error {
	query := `
		UPDATE orders
		SET total_price = $1, city = $2, street = $3, building = $4, phone = $5, notes = $6, updated_at = NOW()
		WHERE id = $7
		RETURNING updated_at
	`
	return r.txManager.Begin(ctx, func(ctx context.Context) error {
		a := order.Address
		err := r.db.QueryRow(ctx, query, order.TotalPrice, a.City, a.Street, a.Building, a.Phone, a.Notes, order.ID).
			Scan(&order.UpdatedAt)
		if err != nil {
			zap.L().Error("failed to update order", zap.Int("order_id", order.ID), zap.Error(err))
			return err
		}
		if _, err := r.db.Exec(ctx, `DELETE FROM order_lines WHERE order_id = $1`, order.ID); err != nil {
			zap.L().Error("failed to drop order lines", zap.Int("order_id", order.ID), zap.Error(err))
			return err
		}
		return r.insertLines(ctx, order)
	})
}

// UpdateStatus sets the status and, when captainID is not nil, the assigned captain.
func (r *Repository) UpdateStatus(ctx context.Context, order *domain.Order) error {
	query := `
		UPDATE orders
		SET status = $1, captain_id = COALESCE($2, captain_id), updated_at = NOW()
		WHERE id = $3
		RETURNING updated_at
	`
	return r.txManager.Begin(ctx, func(ctx context.Context) error {
		err := r.db.QueryRow(ctx, query, order.Status, order.CaptainID, order.ID).Scan(&order.UpdatedAt)
		if err != nil {
			zap.L().Error("failed to update order status", zap.Int("order_id", order.ID), zap.Error(err))
			return err
		}
		return nil
	})
}
