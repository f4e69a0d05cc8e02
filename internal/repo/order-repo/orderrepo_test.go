package orderrepo

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/GlebRadaev/delivery/internal/domain"
	"github.com/GlebRadaev/delivery/internal/pg"
	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

var (
	orderCols = []string{"id", "number", "user_id", "captain_id", "status", "total_price", "city", "street", "building", "phone", "notes", "created_at", "updated_at"}
	lineCols  = []string{"id", "order_id", "item_id", "source", "quantity", "unit_price"}
)

func NewMock(t *testing.T) (*Repository, pgxmock.PgxPoolIface, *pg.MockTXManager) {
	ctrl := gomock.NewController(t)
	mockTxManager := pg.NewMockTXManager(ctrl)

	mockDB, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mockDB.Close)

	return New(mockDB, mockTxManager), mockDB, mockTxManager
}

func passThrough(txManager *pg.MockTXManager) {
	txManager.EXPECT().Begin(gomock.Any(), gomock.Any()).
		DoAndReturn(func(ctx context.Context, fn pg.TransactionalFn) error {
			return fn(ctx)
		})
}

func TestRepository_FindByNumber(t *testing.T) {
	repo, mock, _ := NewMock(t)
	now := time.Now()
	total := decimal.RequireFromString("30")

	tests := []struct {
		name      string
		number    string
		mockSetup func()
		expectErr bool
		expectNil bool
	}{
		{
			name:   "Order with lines",
			number: "123456789031",
			mockSetup: func() {
				mock.ExpectQuery(regexp.QuoteMeta(`SELECT id, number, user_id, captain_id, status, total_price, city, street, building, phone, notes, created_at, updated_at FROM orders WHERE number = $1`)).
					WithArgs("123456789031").
					WillReturnRows(pgxmock.NewRows(orderCols).
						AddRow(1, "123456789031", 2, nil, domain.StatusPending, total, "Cairo", "Nile st", "5", "+20", "", now, now))
				mock.ExpectQuery(regexp.QuoteMeta(`SELECT id, order_id, item_id, source, quantity, unit_price FROM order_lines WHERE order_id = ANY($1) ORDER BY id`)).
					WithArgs([]int{1}).
					WillReturnRows(pgxmock.NewRows(lineCols).
						AddRow(10, 1, 3, domain.SourceStock, 2, decimal.RequireFromString("10")).
						AddRow(11, 1, 4, domain.SourceStock, 1, decimal.RequireFromString("10")))
			},
		},
		{
			name:   "Order does not exist",
			number: "0",
			mockSetup: func() {
				mock.ExpectQuery(regexp.QuoteMeta(`FROM orders WHERE number = $1`)).
					WithArgs("0").
					WillReturnError(pgx.ErrNoRows)
			},
			expectNil: true,
		},
		{
			name:   "Database error",
			number: "1",
			mockSetup: func() {
				mock.ExpectQuery(regexp.QuoteMeta(`FROM orders WHERE number = $1`)).
					WithArgs("1").
					WillReturnError(errors.New("database error"))
			},
			expectErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.mockSetup()
			order, err := repo.FindByNumber(context.Background(), tt.number)
			if tt.expectErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			if tt.expectNil {
				assert.Nil(t, order)
				return
			}
			assert.Equal(t, "Cairo", order.Address.City)
			assert.Nil(t, order.CaptainID)
			require.Len(t, order.Lines, 2)
			assert.Equal(t, 4, order.Lines[1].ItemID)
			assert.True(t, order.TotalPrice.Equal(total))
		})
	}
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_FindByIDForUpdate(t *testing.T) {
	repo, mock, _ := NewMock(t)
	now := time.Now()

	mock.ExpectQuery(regexp.QuoteMeta(`FROM orders WHERE id = $1 FOR UPDATE`)).
		WithArgs(7).
		WillReturnRows(pgxmock.NewRows(orderCols).
			AddRow(7, "123456789031", 2, nil, domain.StatusPending, decimal.RequireFromString("4"), "Cairo", "Nile st", "5", "+20", "", now, now))
	mock.ExpectQuery(regexp.QuoteMeta(`FROM order_lines WHERE order_id = ANY($1)`)).
		WithArgs([]int{7}).
		WillReturnRows(pgxmock.NewRows(lineCols).AddRow(10, 7, 3, domain.SourceStock, 2, decimal.RequireFromString("2")))

	order, err := repo.FindByIDForUpdate(context.Background(), 7)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusPending, order.Status)
	require.Len(t, order.Lines, 1)

	mock.ExpectQuery(regexp.QuoteMeta(`FROM orders WHERE id = $1 FOR UPDATE`)).
		WithArgs(8).
		WillReturnError(pgx.ErrNoRows)
	order, err = repo.FindByIDForUpdate(context.Background(), 8)
	require.NoError(t, err)
	assert.Nil(t, order)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_FindByUserID(t *testing.T) {
	repo, mock, _ := NewMock(t)
	now := time.Now()
	captain := 9

	mock.ExpectQuery(regexp.QuoteMeta(`FROM orders WHERE user_id = $1 ORDER BY created_at DESC`)).
		WithArgs(2).
		WillReturnRows(pgxmock.NewRows(orderCols).
			AddRow(5, "n5", 2, &captain, domain.StatusOutToDelivery, decimal.Zero, "A", "B", "", "+1", "", now, now).
			AddRow(4, "n4", 2, nil, domain.StatusPending, decimal.Zero, "A", "B", "", "+1", "", now, now))
	mock.ExpectQuery(regexp.QuoteMeta(`FROM order_lines WHERE order_id = ANY($1)`)).
		WithArgs([]int{5, 4}).
		WillReturnRows(pgxmock.NewRows(lineCols).AddRow(1, 4, 3, domain.SourceInventory, 1, decimal.Zero))

	orders, err := repo.FindByUserID(context.Background(), 2)
	require.NoError(t, err)
	require.Len(t, orders, 2)
	assert.Equal(t, captain, *orders[0].CaptainID)
	assert.Empty(t, orders[0].Lines)
	assert.Len(t, orders[1].Lines, 1)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_FindByCaptainID_Empty(t *testing.T) {
	repo, mock, _ := NewMock(t)

	mock.ExpectQuery(regexp.QuoteMeta(`FROM orders WHERE captain_id = $1`)).
		WithArgs(3).
		WillReturnRows(pgxmock.NewRows(orderCols))

	orders, err := repo.FindByCaptainID(context.Background(), 3)
	assert.NoError(t, err)
	assert.Empty(t, orders)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_FindAll_Error(t *testing.T) {
	repo, mock, _ := NewMock(t)

	mock.ExpectQuery(regexp.QuoteMeta(`FROM orders ORDER BY created_at DESC`)).
		WillReturnError(errors.New("database error"))

	_, err := repo.FindAll(context.Background())
	assert.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_Save(t *testing.T) {
	repo, mock, txManager := NewMock(t)
	now := time.Now()

	order := &domain.Order{
		Number:     "123456789031",
		UserID:     2,
		Status:     domain.StatusPending,
		TotalPrice: decimal.NewFromInt(25),
		Address:    domain.Address{City: "Cairo", Street: "Nile st", Phone: "+20"},
		Lines: []domain.OrderLine{
			{ItemID: 3, Source: domain.SourceStock, Quantity: 5, UnitPrice: decimal.NewFromInt(5)},
		},
	}

	tests := []struct {
		name      string
		mockSetup func()
		expectErr bool
	}{
		{
			name: "Order and lines saved",
			mockSetup: func() {
				passThrough(txManager)
				mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO orders (number, user_id, captain_id, status, total_price, city, street, building, phone, notes) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10) RETURNING id, created_at, updated_at`)).
					WithArgs("123456789031", 2, (*int)(nil), domain.StatusPending, order.TotalPrice, "Cairo", "Nile st", "", "+20", "").
					WillReturnRows(pgxmock.NewRows([]string{"id", "created_at", "updated_at"}).AddRow(7, now, now))
				mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO order_lines (order_id, item_id, source, quantity, unit_price) VALUES ($1, $2, $3, $4, $5) RETURNING id`)).
					WithArgs(7, 3, domain.SourceStock, 5, order.Lines[0].UnitPrice).
					WillReturnRows(pgxmock.NewRows([]string{"id"}).AddRow(70))
			},
		},
		{
			name: "Line insert fails",
			mockSetup: func() {
				passThrough(txManager)
				mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO orders`)).
					WithArgs(pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(),
						pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg()).
					WillReturnRows(pgxmock.NewRows([]string{"id", "created_at", "updated_at"}).AddRow(8, now, now))
				mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO order_lines`)).
					WithArgs(8, 3, domain.SourceStock, 5, pgxmock.AnyArg()).
					WillReturnError(errors.New("fk violation"))
			},
			expectErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.mockSetup()
			err := repo.Save(context.Background(), order)
			if tt.expectErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, 7, order.ID)
			assert.Equal(t, 70, order.Lines[0].ID)
			assert.Equal(t, 7, order.Lines[0].OrderID)
		})
	}
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_Update(t *testing.T) {
	repo, mock, txManager := NewMock(t)
	now := time.Now()

	order := &domain.Order{
		ID:         7,
		TotalPrice: decimal.NewFromInt(10),
		Address:    domain.Address{City: "Giza", Street: "Pyramids rd", Phone: "+20"},
		Lines:      []domain.OrderLine{{ItemID: 4, Source: domain.SourceInventory, Quantity: 1, UnitPrice: decimal.NewFromInt(10)}},
	}

	passThrough(txManager)
	mock.ExpectQuery(regexp.QuoteMeta(`UPDATE orders SET total_price = $1, city = $2, street = $3, building = $4, phone = $5, notes = $6, updated_at = NOW() WHERE id = $7 RETURNING updated_at`)).
		WithArgs(order.TotalPrice, "Giza", "Pyramids rd", "", "+20", "", 7).
		WillReturnRows(pgxmock.NewRows([]string{"updated_at"}).AddRow(now))
	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM order_lines WHERE order_id = $1`)).
		WithArgs(7).
		WillReturnResult(pgxmock.NewResult("DELETE", 2))
	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO order_lines`)).
		WithArgs(7, 4, domain.SourceInventory, 1, order.Lines[0].UnitPrice).
		WillReturnRows(pgxmock.NewRows([]string{"id"}).AddRow(71))

	require.NoError(t, repo.Update(context.Background(), order))
	assert.Equal(t, now, order.UpdatedAt)
	assert.Equal(t, 71, order.Lines[0].ID)

	passThrough(txManager)
	mock.ExpectQuery(regexp.QuoteMeta(`UPDATE orders SET total_price`)).
		WithArgs(pgxmock.AnyArg(), "Giza", "Pyramids rd", "", "+20", "", 7).
		WillReturnError(errors.New("database error"))

	assert.Error(t, repo.Update(context.Background(), order))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_UpdateStatus(t *testing.T) {
	repo, mock, txManager := NewMock(t)
	now := time.Now()
	captain := 3

	passThrough(txManager)
	mock.ExpectQuery(regexp.QuoteMeta(`UPDATE orders SET status = $1, captain_id = COALESCE($2, captain_id), updated_at = NOW() WHERE id = $3 RETURNING updated_at`)).
		WithArgs(domain.StatusOutToDelivery, &captain, 7).
		WillReturnRows(pgxmock.NewRows([]string{"updated_at"}).AddRow(now))

	order := &domain.Order{ID: 7, Status: domain.StatusOutToDelivery, CaptainID: &captain}
	require.NoError(t, repo.UpdateStatus(context.Background(), order))
	assert.Equal(t, now, order.UpdatedAt)

	passThrough(txManager)
	mock.ExpectQuery(regexp.QuoteMeta(`UPDATE orders SET status`)).
		WithArgs(domain.StatusDelivered, (*int)(nil), 8).
		WillReturnError(errors.New("database error"))

	assert.Error(t, repo.UpdateStatus(context.Background(), &domain.Order{ID: 8, Status: domain.StatusDelivered}))
	assert.NoError(t, mock.ExpectationsWereMet())
}
