package orderservice

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/GlebRadaev/delivery/internal/domain"
	"github.com/GlebRadaev/delivery/internal/notify"
	"github.com/GlebRadaev/delivery/internal/pg"
	"github.com/GlebRadaev/delivery/internal/service/inventoryservice"
	"github.com/GlebRadaev/delivery/pkg/validate"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	gomock "go.uber.org/mock/gomock"
)

type mocks struct {
	repo      *MockRepo
	accounts  *MockAccountRepo
	guard     *MockGuard
	txManager *pg.MockTXManager
	notifier  *notify.MockNotifier
}

func NewMock(t *testing.T) (*Service, mocks) {
	ctrl := gomock.NewController(t)
	m := mocks{
		repo:      NewMockRepo(ctrl),
		accounts:  NewMockAccountRepo(ctrl),
		guard:     NewMockGuard(ctrl),
		txManager: pg.NewMockTXManager(ctrl),
		notifier:  notify.NewMockNotifier(ctrl),
	}
	return New(m.repo, m.accounts, m.guard, m.txManager, m.notifier), m
}

func (m mocks) passThrough() {
	m.txManager.EXPECT().Begin(gomock.Any(), gomock.Any()).
		DoAndReturn(func(ctx context.Context, fn pg.TransactionalFn) error { return fn(ctx) })
}

func user(id int, partner bool) *domain.Account {
	return &domain.Account{ID: id, Kind: domain.KindUser, Partner: partner}
}

func intPtr(v int) *int { return &v }

var address = domain.Address{City: "Cairo", Street: "Nile st", Phone: "+20"}

func TestPlaceOrder(t *testing.T) {
	service, m := NewMock(t)
	ctx := context.Background()
	userRef := domain.ActorRef{Kind: domain.KindUser, ID: 1}

	stockLine := domain.LineItem{ItemID: 5, Source: domain.SourceStock, Quantity: 2}
	inventoryLine := domain.LineItem{ItemID: 9, Source: domain.SourceInventory, Quantity: 3}

	tests := []struct {
		name          string
		lines         []domain.LineItem
		prepareMock   func()
		wantTotal     string
		expectedError error
	}{
		{
			name:  "Partner orders from both sources",
			lines: []domain.LineItem{stockLine, inventoryLine},
			prepareMock: func() {
				m.accounts.EXPECT().FindByID(ctx, userRef).Return(user(1, true), nil)
				m.passThrough()
				gomock.InOrder(
					m.guard.EXPECT().Take(ctx, 1, stockLine).Return(decimal.RequireFromString("2.50"), 8, nil),
					m.guard.EXPECT().Take(ctx, 1, inventoryLine).Return(decimal.RequireFromString("10"), 0, nil),
				)
				m.repo.EXPECT().Save(ctx, gomock.Any()).DoAndReturn(func(_ context.Context, order *domain.Order) error {
					order.ID = 1
					return nil
				})
				m.notifier.EXPECT().Notify(ctx, notify.EventOrderCreated, gomock.Any())
			},
			wantTotal: "35",
		},
		{
			name:  "Non-partner is rejected before any stock is touched",
			lines: []domain.LineItem{stockLine, inventoryLine},
			prepareMock: func() {
				m.accounts.EXPECT().FindByID(ctx, userRef).Return(user(1, false), nil)
			},
			expectedError: ErrUnauthorizedSource,
		},
		{
			name:  "Non-partner orders own stock",
			lines: []domain.LineItem{stockLine},
			prepareMock: func() {
				m.accounts.EXPECT().FindByID(ctx, userRef).Return(user(1, false), nil)
				m.passThrough()
				m.guard.EXPECT().Take(ctx, 1, stockLine).Return(decimal.RequireFromString("2.50"), 8, nil)
				m.repo.EXPECT().Save(ctx, gomock.Any()).Return(nil)
				m.notifier.EXPECT().Notify(ctx, notify.EventOrderCreated, gomock.Any())
			},
			wantTotal: "5",
		},
		{
			name:  "Unknown user",
			lines: []domain.LineItem{stockLine},
			prepareMock: func() {
				m.accounts.EXPECT().FindByID(ctx, userRef).Return(nil, nil)
			},
			expectedError: ErrUserNotFound,
		},
		{
			name:          "Empty order",
			lines:         nil,
			prepareMock:   func() {},
			expectedError: ErrEmptyOrder,
		},
		{
			name:  "Second line short of stock aborts the order",
			lines: []domain.LineItem{stockLine, inventoryLine},
			prepareMock: func() {
				m.accounts.EXPECT().FindByID(ctx, userRef).Return(user(1, true), nil)
				m.passThrough()
				m.guard.EXPECT().Take(ctx, 1, stockLine).Return(decimal.RequireFromString("2.50"), 8, nil)
				m.guard.EXPECT().Take(ctx, 1, inventoryLine).Return(decimal.Zero, 0, inventoryservice.ErrInsufficientQuantity)
			},
			expectedError: inventoryservice.ErrInsufficientQuantity,
		},
		{
			name:  "Save fails",
			lines: []domain.LineItem{stockLine},
			prepareMock: func() {
				m.accounts.EXPECT().FindByID(ctx, userRef).Return(user(1, true), nil)
				m.passThrough()
				m.guard.EXPECT().Take(ctx, 1, stockLine).Return(decimal.NewFromInt(1), 8, nil)
				m.repo.EXPECT().Save(ctx, gomock.Any()).Return(errors.New("database error"))
			},
			expectedError: errors.New("database error"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.prepareMock()
			order, err := service.PlaceOrder(ctx, 1, tt.lines, address)
			if tt.expectedError != nil {
				require.Error(t, err)
				if errors.Is(err, tt.expectedError) {
					return
				}
				assert.EqualError(t, err, tt.expectedError.Error())
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantTotal, order.TotalPrice.String())
			assert.Equal(t, domain.StatusPending, order.Status)
			assert.True(t, validate.IsLuna(order.Number))
			assert.Len(t, order.Lines, len(tt.lines))
		})
	}
}

func TestEditOrder(t *testing.T) {
	service, m := NewMock(t)
	ctx := context.Background()
	userRef := domain.ActorRef{Kind: domain.KindUser, ID: 1}

	oldLine := domain.OrderLine{ID: 3, OrderID: 7, ItemID: 5, Source: domain.SourceStock, Quantity: 2, UnitPrice: decimal.NewFromInt(1)}
	newLine := domain.LineItem{ItemID: 5, Source: domain.SourceStock, Quantity: 4}
	newAddress := domain.Address{City: "Giza", Street: "Pyramids rd", Phone: "+20"}

	pending := func() *domain.Order {
		return &domain.Order{ID: 7, UserID: 1, Status: domain.StatusPending, Lines: []domain.OrderLine{oldLine}}
	}

	tests := []struct {
		name          string
		prepareMock   func()
		wantTotal     string
		expectedError error
	}{
		{
			name: "Pending order is repriced after restoring old lines",
			prepareMock: func() {
				m.accounts.EXPECT().FindByID(ctx, userRef).Return(user(1, false), nil)
				m.passThrough()
				m.repo.EXPECT().FindByIDForUpdate(ctx, 7).Return(pending(), nil)
				gomock.InOrder(
					m.guard.EXPECT().Restore(ctx, oldLine).Return(nil),
					m.guard.EXPECT().Take(ctx, 1, newLine).Return(decimal.RequireFromString("1.25"), 0, nil),
				)
				m.repo.EXPECT().Update(ctx, gomock.Any()).DoAndReturn(func(_ context.Context, order *domain.Order) error {
					assert.Equal(t, newAddress, order.Address)
					return nil
				})
				m.notifier.EXPECT().Notify(ctx, notify.EventOrderUpdated, gomock.Any())
			},
			wantTotal: "5",
		},
		{
			name: "Order not pending",
			prepareMock: func() {
				m.accounts.EXPECT().FindByID(ctx, userRef).Return(user(1, false), nil)
				m.passThrough()
				order := pending()
				order.Status = domain.StatusInStore
				m.repo.EXPECT().FindByIDForUpdate(ctx, 7).Return(order, nil)
			},
			expectedError: ErrOrderNotEditable,
		},
		{
			name: "Order of another user",
			prepareMock: func() {
				m.accounts.EXPECT().FindByID(ctx, userRef).Return(user(1, false), nil)
				m.passThrough()
				order := pending()
				order.UserID = 2
				m.repo.EXPECT().FindByIDForUpdate(ctx, 7).Return(order, nil)
			},
			expectedError: ErrOrderNotFound,
		},
		{
			name: "New line short of stock",
			prepareMock: func() {
				m.accounts.EXPECT().FindByID(ctx, userRef).Return(user(1, false), nil)
				m.passThrough()
				m.repo.EXPECT().FindByIDForUpdate(ctx, 7).Return(pending(), nil)
				m.guard.EXPECT().Restore(ctx, oldLine).Return(nil)
				m.guard.EXPECT().Take(ctx, 1, newLine).Return(decimal.Zero, 0, inventoryservice.ErrInsufficientQuantity)
			},
			expectedError: inventoryservice.ErrInsufficientQuantity,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.prepareMock()
			order, err := service.EditOrder(ctx, 1, 7, []domain.LineItem{newLine}, newAddress)
			if tt.expectedError != nil {
				assert.ErrorIs(t, err, tt.expectedError)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantTotal, order.TotalPrice.String())
		})
	}
}

func TestEditOrder_UnauthorizedSource(t *testing.T) {
	service, m := NewMock(t)
	ctx := context.Background()

	m.accounts.EXPECT().FindByID(ctx, domain.ActorRef{Kind: domain.KindUser, ID: 1}).Return(user(1, false), nil)

	_, err := service.EditOrder(ctx, 1, 7, []domain.LineItem{{ItemID: 1, Source: domain.SourceInventory, Quantity: 1}}, address)
	assert.ErrorIs(t, err, ErrUnauthorizedSource)
}

func TestChangeStatus(t *testing.T) {
	service, m := NewMock(t)
	ctx := context.Background()

	admin := domain.ActorRef{Kind: domain.KindAdmin, ID: 1}
	captain := domain.ActorRef{Kind: domain.KindCaptain, ID: 4}
	owner := domain.ActorRef{Kind: domain.KindUser, ID: 2}

	tests := []struct {
		name          string
		actor         domain.ActorRef
		order         *domain.Order
		status        domain.OrderStatus
		expectUpdate  bool
		wantCaptain   *int
		expectedError error
	}{
		{
			name:         "Admin moves pending to store",
			actor:        admin,
			order:        &domain.Order{ID: 1, UserID: 2, Status: domain.StatusPending},
			status:       domain.StatusInStore,
			expectUpdate: true,
		},
		{
			name:         "Captain picks up an unassigned order",
			actor:        captain,
			order:        &domain.Order{ID: 1, UserID: 2, Status: domain.StatusInStore},
			status:       domain.StatusOutToDelivery,
			expectUpdate: true,
			wantCaptain:  intPtr(4),
		},
		{
			name:         "Captain delivers own order",
			actor:        captain,
			order:        &domain.Order{ID: 1, UserID: 2, CaptainID: intPtr(4), Status: domain.StatusOutToDelivery},
			status:       domain.StatusDelivered,
			expectUpdate: true,
			wantCaptain:  intPtr(4),
		},
		{
			name:          "Captain cannot touch another captain's order",
			actor:         captain,
			order:         &domain.Order{ID: 1, UserID: 2, CaptainID: intPtr(5), Status: domain.StatusOutToDelivery},
			status:        domain.StatusDelivered,
			expectedError: ErrForbidden,
		},
		{
			name:         "Owner refuses pending order",
			actor:        owner,
			order:        &domain.Order{ID: 1, UserID: 2, Status: domain.StatusPending},
			status:       domain.StatusRefused,
			expectUpdate: true,
		},
		{
			name:          "Owner cannot deliver",
			actor:         owner,
			order:         &domain.Order{ID: 1, UserID: 2, Status: domain.StatusOutToDelivery},
			status:        domain.StatusDelivered,
			expectedError: ErrForbidden,
		},
		{
			name:          "Owner cannot refuse once out for delivery",
			actor:         owner,
			order:         &domain.Order{ID: 1, UserID: 2, CaptainID: intPtr(4), Status: domain.StatusOutToDelivery},
			status:        domain.StatusRefused,
			expectedError: ErrForbidden,
		},
		{
			name:          "Terminal status cannot change",
			actor:         admin,
			order:         &domain.Order{ID: 1, UserID: 2, Status: domain.StatusDelivered},
			status:        domain.StatusRefused,
			expectedError: ErrInvalidTransition,
		},
		{
			name:          "Store cannot go back to pending",
			actor:         admin,
			order:         &domain.Order{ID: 1, UserID: 2, Status: domain.StatusInStore},
			status:        domain.StatusPending,
			expectedError: ErrInvalidTransition,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m.passThrough()
			m.repo.EXPECT().FindByIDForUpdate(ctx, 1).Return(tt.order, nil)
			if tt.expectUpdate {
				m.repo.EXPECT().UpdateStatus(ctx, tt.order).Return(nil)
				m.notifier.EXPECT().Notify(ctx, notify.EventOrderStatusChanged, tt.order)
			}

			order, err := service.ChangeStatus(ctx, tt.actor, 1, tt.status)
			if tt.expectedError != nil {
				assert.ErrorIs(t, err, tt.expectedError)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.status, order.Status)
			assert.Equal(t, tt.wantCaptain, order.CaptainID)
		})
	}
}

func TestChangeStatus_NotFound(t *testing.T) {
	service, m := NewMock(t)
	ctx := context.Background()

	m.passThrough()
	m.repo.EXPECT().FindByIDForUpdate(ctx, 3).Return(nil, nil)
	_, err := service.ChangeStatus(ctx, domain.ActorRef{Kind: domain.KindAdmin, ID: 1}, 3, domain.StatusInStore)
	assert.ErrorIs(t, err, ErrOrderNotFound)
}

func TestGetOrders(t *testing.T) {
	service, m := NewMock(t)
	ctx := context.Background()
	orders := []domain.Order{{ID: 1}}

	m.repo.EXPECT().FindByUserID(ctx, 2).Return(orders, nil)
	got, err := service.GetOrders(ctx, domain.ActorRef{Kind: domain.KindUser, ID: 2})
	require.NoError(t, err)
	assert.Equal(t, orders, got)

	m.repo.EXPECT().FindByCaptainID(ctx, 4).Return(orders, nil)
	_, err = service.GetOrders(ctx, domain.ActorRef{Kind: domain.KindCaptain, ID: 4})
	require.NoError(t, err)

	m.repo.EXPECT().FindAll(ctx).Return(nil, errors.New("database error"))
	_, err = service.GetOrders(ctx, domain.ActorRef{Kind: domain.KindAdmin, ID: 1})
	assert.Error(t, err)
}

func TestGetOrder(t *testing.T) {
	service, m := NewMock(t)
	ctx := context.Background()
	order := &domain.Order{ID: 1, UserID: 2, CaptainID: intPtr(4)}

	m.repo.EXPECT().FindByID(ctx, 1).Return(order, nil).Times(3)

	got, err := service.GetOrder(ctx, domain.ActorRef{Kind: domain.KindUser, ID: 2}, 1)
	require.NoError(t, err)
	assert.Equal(t, order, got)

	_, err = service.GetOrder(ctx, domain.ActorRef{Kind: domain.KindUser, ID: 3}, 1)
	assert.ErrorIs(t, err, ErrOrderNotFound)

	_, err = service.GetOrder(ctx, domain.ActorRef{Kind: domain.KindCaptain, ID: 5}, 1)
	assert.ErrorIs(t, err, ErrOrderNotFound)
}

func TestTrackOrder(t *testing.T) {
	service, m := NewMock(t)
	ctx := context.Background()
	const number = "79927398713"

	_, err := service.TrackOrder(ctx, "79927398710")
	assert.ErrorIs(t, err, ErrInvalidNumber)

	m.repo.EXPECT().FindByNumber(ctx, number).Return(nil, nil)
	_, err = service.TrackOrder(ctx, number)
	assert.ErrorIs(t, err, ErrOrderNotFound)

	m.repo.EXPECT().FindByNumber(ctx, number).Return(&domain.Order{ID: 1, Number: number}, nil)
	order, err := service.TrackOrder(ctx, number)
	require.NoError(t, err)
	assert.Equal(t, number, order.Number)
}

type txKey struct{}

// lockingTx runs one transaction at a time, standing in for the order row lock.
type lockingTx struct{ mu sync.Mutex }

func (l *lockingTx) Begin(ctx context.Context, fn pg.TransactionalFn) error {
	if ctx.Value(txKey{}) != nil {
		return fn(ctx)
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	return fn(context.WithValue(ctx, txKey{}, true))
}

// orderStore keeps one stored order. Locked reads outside a transaction fail the test.
type orderStore struct {
	t     *testing.T
	mu    sync.Mutex
	order domain.Order
}

func (s *orderStore) snapshot() *domain.Order {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := s.order
	cp.Lines = append([]domain.OrderLine(nil), s.order.Lines...)
	return &cp
}

func (s *orderStore) store(order *domain.Order) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.order = *order
	s.order.Lines = append([]domain.OrderLine(nil), order.Lines...)
}

func (s *orderStore) FindByIDForUpdate(ctx context.Context, _ int) (*domain.Order, error) {
	if ctx.Value(txKey{}) == nil {
		s.t.Error("locked read outside of a transaction")
	}
	return s.snapshot(), nil
}

func (s *orderStore) FindByID(context.Context, int) (*domain.Order, error) { return s.snapshot(), nil }
func (s *orderStore) Save(context.Context, *domain.Order) error           { return nil }
func (s *orderStore) Update(_ context.Context, order *domain.Order) error {
	s.store(order)
	return nil
}
func (s *orderStore) UpdateStatus(_ context.Context, order *domain.Order) error {
	s.store(order)
	return nil
}
func (s *orderStore) FindByNumber(context.Context, string) (*domain.Order, error) { return nil, nil }
func (s *orderStore) FindByUserID(context.Context, int) ([]domain.Order, error)   { return nil, nil }
func (s *orderStore) FindByCaptainID(context.Context, int) ([]domain.Order, error) {
	return nil, nil
}
func (s *orderStore) FindAll(context.Context) ([]domain.Order, error) { return nil, nil }

// countingGuard prices every unit at 1 and records restored lines.
type countingGuard struct {
	mu       sync.Mutex
	restored []domain.OrderLine
}

func (g *countingGuard) Take(context.Context, int, domain.LineItem) (decimal.Decimal, int, error) {
	return decimal.NewFromInt(1), 0, nil
}

func (g *countingGuard) Restore(_ context.Context, line domain.OrderLine) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.restored = append(g.restored, line)
	return nil
}

func newLockedService(t *testing.T, order domain.Order) (*Service, *orderStore, *countingGuard) {
	ctrl := gomock.NewController(t)
	accounts := NewMockAccountRepo(ctrl)
	accounts.EXPECT().FindByID(gomock.Any(), gomock.Any()).Return(user(1, false), nil).AnyTimes()

	store := &orderStore{t: t, order: order}
	guard := &countingGuard{}
	return New(store, accounts, guard, &lockingTx{}, notify.LogNotifier{}), store, guard
}

func TestEditOrder_AfterStatusChangeIsRejected(t *testing.T) {
	original := domain.OrderLine{ID: 1, OrderID: 7, ItemID: 5, Source: domain.SourceStock, Quantity: 2}
	service, store, guard := newLockedService(t, domain.Order{ID: 7, UserID: 1, Status: domain.StatusPending, Lines: []domain.OrderLine{original}})
	ctx := context.Background()

	_, err := service.ChangeStatus(ctx, domain.ActorRef{Kind: domain.KindAdmin, ID: 1}, 7, domain.StatusInStore)
	require.NoError(t, err)

	_, err = service.EditOrder(ctx, 1, 7, []domain.LineItem{{ItemID: 6, Source: domain.SourceStock, Quantity: 4}}, address)
	assert.ErrorIs(t, err, ErrOrderNotEditable)

	stored := store.snapshot()
	assert.Equal(t, domain.StatusInStore, stored.Status)
	assert.Equal(t, []domain.OrderLine{original}, stored.Lines)
	assert.Empty(t, guard.restored)
}

func TestEditOrder_ConcurrentEditsRestoreOnce(t *testing.T) {
	original := domain.OrderLine{ID: 1, OrderID: 7, ItemID: 5, Source: domain.SourceStock, Quantity: 2}
	service, _, guard := newLockedService(t, domain.Order{ID: 7, UserID: 1, Status: domain.StatusPending, Lines: []domain.OrderLine{original}})
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := service.EditOrder(ctx, 1, 7, []domain.LineItem{{ItemID: 6, Source: domain.SourceStock, Quantity: 3}}, address)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	require.Len(t, guard.restored, 2)
	originals := 0
	for _, line := range guard.restored {
		if line.ItemID == original.ItemID {
			originals++
		}
	}
	assert.Equal(t, 1, originals)
}

func TestChangeStatus_ConflictingWritersSerialize(t *testing.T) {
	ctx := context.Background()

	t.Run("Second captain cannot take a claimed order", func(t *testing.T) {
		service, store, _ := newLockedService(t, domain.Order{ID: 7, UserID: 1, Status: domain.StatusInStore})

		_, err := service.ChangeStatus(ctx, domain.ActorRef{Kind: domain.KindCaptain, ID: 4}, 7, domain.StatusOutToDelivery)
		require.NoError(t, err)
		_, err = service.ChangeStatus(ctx, domain.ActorRef{Kind: domain.KindCaptain, ID: 5}, 7, domain.StatusOutToDelivery)
		assert.ErrorIs(t, err, ErrForbidden)

		assert.Equal(t, intPtr(4), store.snapshot().CaptainID)
	})

	t.Run("Only one terminal status wins", func(t *testing.T) {
		service, store, _ := newLockedService(t, domain.Order{ID: 7, UserID: 1, CaptainID: intPtr(4), Status: domain.StatusOutToDelivery})
		admin := domain.ActorRef{Kind: domain.KindAdmin, ID: 1}

		_, err := service.ChangeStatus(ctx, admin, 7, domain.StatusDelivered)
		require.NoError(t, err)
		_, err = service.ChangeStatus(ctx, admin, 7, domain.StatusRefused)
		assert.ErrorIs(t, err, ErrInvalidTransition)

		assert.Equal(t, domain.StatusDelivered, store.snapshot().Status)
	})
}
