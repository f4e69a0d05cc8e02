package orderservice

import (
	"context"
	"errors"
	"fmt"

	"github.com/GlebRadaev/delivery/internal/domain"
	"github.com/GlebRadaev/delivery/internal/notify"
	"github.com/GlebRadaev/delivery/internal/pg"
	"github.com/GlebRadaev/delivery/internal/pricing"
	"github.com/GlebRadaev/delivery/internal/service/inventoryservice"
	"github.com/GlebRadaev/delivery/pkg/metrics"
	"github.com/GlebRadaev/delivery/pkg/validate"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

//go:generate mockgen -source=orderservice.go -destination=mock_orderservice.go -package=orderservice

type Repo interface {
	Save(ctx context.Context, order *domain.Order) error
	Update(ctx context.Context, order *domain.Order) error
	UpdateStatus(ctx context.Context, order *domain.Order) error
	FindByID(ctx context.Context, id int) (*domain.Order, error)
	FindByIDForUpdate(ctx context.Context, id int) (*domain.Order, error)
	FindByNumber(ctx context.Context, number string) (*domain.Order, error)
	FindByUserID(ctx context.Context, userID int) ([]domain.Order, error)
	FindByCaptainID(ctx context.Context, captainID int) ([]domain.Order, error)
	FindAll(ctx context.Context) ([]domain.Order, error)
}

type AccountRepo interface {
	FindByID(ctx context.Context, ref domain.ActorRef) (*domain.Account, error)
}

// Guard validates and decrements stocked quantities.
type Guard interface {
	Take(ctx context.Context, userID int, line domain.LineItem) (decimal.Decimal, int, error)
	Restore(ctx context.Context, line domain.OrderLine) error
}

type Service struct {
	repo      Repo
	accounts  AccountRepo
	guard     Guard
	txManager pg.TXManager
	notifier  notify.Notifier
}

func New(repo Repo, accounts AccountRepo, guard Guard, txManager pg.TXManager, notifier notify.Notifier) *Service {
	return &Service{
		repo:      repo,
		accounts:  accounts,
		guard:     guard,
		txManager: txManager,
		notifier:  notifier,
	}
}

var (
	ErrUserNotFound       = errors.New("user not found")
	ErrUnauthorizedSource = errors.New("inventory items are available to partners only")
	ErrEmptyOrder         = errors.New("order has no line items")
	ErrOrderNotFound      = errors.New("order not found")
	ErrOrderNotEditable   = errors.New("order can be edited only while pending")
	ErrInvalidTransition  = errors.New("invalid status transition")
	ErrInvalidNumber      = errors.New("invalid tracking number")
	ErrForbidden          = errors.New("action not allowed for this actor")
)

// PlaceOrder prices and stores a new pending order. Every line is checked
// against the user's partner status before any stock is taken; lines are
// then taken in request order and the first failure rolls the order back.
func (s *Service) PlaceOrder(ctx context.Context, userID int, lines []domain.LineItem, address domain.Address) (*domain.Order, error) {
	if err := s.authorize(ctx, userID, lines); err != nil {
		rejected(err)
		return nil, err
	}

	order := &domain.Order{
		Number:  validate.TrackingNumber(),
		UserID:  userID,
		Status:  domain.StatusPending,
		Address: address,
	}
	err := s.txManager.Begin(ctx, func(ctx context.Context) error {
		priced, err := s.price(ctx, userID, lines)
		if err != nil {
			return err
		}
		order.Lines = priced
		order.TotalPrice = pricing.Total(priced)
		return s.repo.Save(ctx, order)
	})
	if err != nil {
		rejected(err)
		zap.L().Info("order rejected", zap.Int("user_id", userID), zap.Error(err))
		return nil, err
	}

	metrics.OrdersPlaced.Inc()
	zap.L().Info("order placed", zap.String("number", order.Number), zap.String("total", order.TotalPrice.String()))
	s.notifier.Notify(ctx, notify.EventOrderCreated, order)
	return order, nil
}

// EditOrder replaces the lines and address of a pending order. Units taken
// by the previous lines are returned before the new lines are priced.
func (s *Service) EditOrder(ctx context.Context, userID, orderID int, lines []domain.LineItem, address domain.Address) (*domain.Order, error) {
	if err := s.authorize(ctx, userID, lines); err != nil {
		rejected(err)
		return nil, err
	}

	var order *domain.Order
	err := s.txManager.Begin(ctx, func(ctx context.Context) error {
		var err error
		order, err = s.repo.FindByIDForUpdate(ctx, orderID)
		if err != nil {
			return err
		}
		if order == nil || order.UserID != userID {
			return ErrOrderNotFound
		}
		if !order.Status.Editable() {
			return ErrOrderNotEditable
		}

		for _, line := range order.Lines {
			if err := s.guard.Restore(ctx, line); err != nil {
				return fmt.Errorf("restore item %d: %w", line.ItemID, err)
			}
		}

		priced, err := s.price(ctx, userID, lines)
		if err != nil {
			return err
		}
		order.Lines = priced
		order.TotalPrice = pricing.Total(priced)
		order.Address = address
		return s.repo.Update(ctx, order)
	})
	if err != nil {
		rejected(err)
		return nil, err
	}

	s.notifier.Notify(ctx, notify.EventOrderUpdated, order)
	return order, nil
}

// ChangeStatus moves an order along the status machine. Admins may apply
// any valid transition. Captains work on unassigned or own orders and take
// ownership when sending one out. Users may only refuse their pending orders.
// The order row stays locked from the checks until the new status is stored.
func (s *Service) ChangeStatus(ctx context.Context, actor domain.ActorRef, orderID int, status domain.OrderStatus) (*domain.Order, error) {
	var order *domain.Order
	err := s.txManager.Begin(ctx, func(ctx context.Context) error {
		var err error
		order, err = s.repo.FindByIDForUpdate(ctx, orderID)
		if err != nil {
			return err
		}
		if order == nil {
			return ErrOrderNotFound
		}
		if err := allowed(actor, order, status); err != nil {
			return err
		}
		if !domain.CanTransition(order.Status, status) {
			return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, order.Status, status)
		}

		order.Status = status
		if actor.Kind == domain.KindCaptain && status == domain.StatusOutToDelivery && order.CaptainID == nil {
			id := actor.ID
			order.CaptainID = &id
		}
		if err := s.repo.UpdateStatus(ctx, order); err != nil {
			zap.L().Error("can't update order status", zap.Int("order_id", orderID), zap.Error(err))
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.notifier.Notify(ctx, notify.EventOrderStatusChanged, order)
	return order, nil
}

func allowed(actor domain.ActorRef, order *domain.Order, status domain.OrderStatus) error {
	switch actor.Kind {
	case domain.KindAdmin:
		return nil
	case domain.KindCaptain:
		if order.CaptainID != nil && *order.CaptainID != actor.ID {
			return ErrForbidden
		}
		return nil
	case domain.KindUser:
		if order.UserID != actor.ID {
			return ErrOrderNotFound
		}
		if status != domain.StatusRefused || order.Status != domain.StatusPending {
			return ErrForbidden
		}
		return nil
	}
	return ErrForbidden
}

// GetOrder returns an order visible to actor.
func (s *Service) GetOrder(ctx context.Context, actor domain.ActorRef, orderID int) (*domain.Order, error) {
	order, err := s.repo.FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order == nil || !visible(actor, order) {
		return nil, ErrOrderNotFound
	}
	return order, nil
}

func (s *Service) GetOrders(ctx context.Context, actor domain.ActorRef) ([]domain.Order, error) {
	var (
		orders []domain.Order
		err    error
	)
	switch actor.Kind {
	case domain.KindUser:
		orders, err = s.repo.FindByUserID(ctx, actor.ID)
	case domain.KindCaptain:
		orders, err = s.repo.FindByCaptainID(ctx, actor.ID)
	case domain.KindAdmin:
		orders, err = s.repo.FindAll(ctx)
	default:
		return nil, ErrForbidden
	}
	if err != nil {
		zap.L().Error("failed to get orders", zap.Stringer("actor", actor), zap.Error(err))
		return nil, err
	}
	return orders, nil
}

func (s *Service) TrackOrder(ctx context.Context, number string) (*domain.Order, error) {
	if !validate.IsLuna(number) {
		return nil, ErrInvalidNumber
	}
	order, err := s.repo.FindByNumber(ctx, number)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, ErrOrderNotFound
	}
	return order, nil
}

func (s *Service) authorize(ctx context.Context, userID int, lines []domain.LineItem) error {
	if len(lines) == 0 {
		return ErrEmptyOrder
	}
	user, err := s.accounts.FindByID(ctx, domain.ActorRef{Kind: domain.KindUser, ID: userID})
	if err != nil {
		return err
	}
	if user == nil {
		return ErrUserNotFound
	}
	if user.Partner {
		return nil
	}
	for _, line := range lines {
		if line.Source == domain.SourceInventory {
			return ErrUnauthorizedSource
		}
	}
	return nil
}

func (s *Service) price(ctx context.Context, userID int, lines []domain.LineItem) ([]domain.OrderLine, error) {
	priced := make([]domain.OrderLine, 0, len(lines))
	for i, line := range lines {
		unitPrice, _, err := s.guard.Take(ctx, userID, line)
		if err != nil {
			return nil, fmt.Errorf("line %d (item %d): %w", i+1, line.ItemID, err)
		}
		priced = append(priced, domain.OrderLine{
			ItemID:    line.ItemID,
			Source:    line.Source,
			Quantity:  line.Quantity,
			UnitPrice: unitPrice,
		})
	}
	return priced, nil
}

func visible(actor domain.ActorRef, order *domain.Order) bool {
	switch actor.Kind {
	case domain.KindAdmin:
		return true
	case domain.KindUser:
		return order.UserID == actor.ID
	case domain.KindCaptain:
		return order.CaptainID == nil || *order.CaptainID == actor.ID
	}
	return false
}

func rejected(err error) {
	reason := "error"
	switch {
	case errors.Is(err, ErrUserNotFound):
		reason = "user_not_found"
	case errors.Is(err, ErrUnauthorizedSource):
		reason = "unauthorized_source"
	case errors.Is(err, inventoryservice.ErrItemNotFound):
		reason = "item_not_found"
	case errors.Is(err, inventoryservice.ErrInsufficientQuantity):
		reason = "insufficient_quantity"
	case errors.Is(err, ErrEmptyOrder), errors.Is(err, inventoryservice.ErrInvalidQuantity):
		reason = "invalid"
	case errors.Is(err, ErrOrderNotFound), errors.Is(err, ErrOrderNotEditable):
		reason = "not_editable"
	}
	metrics.OrdersRejected.WithLabelValues(reason).Inc()
}
