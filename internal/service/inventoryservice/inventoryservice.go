package inventoryservice

import (
	"context"
	"errors"

	"github.com/GlebRadaev/delivery/internal/domain"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

//go:generate mockgen -source=inventoryservice.go -destination=mock_inventoryservice.go -package=inventoryservice

type Repo interface {
	Create(ctx context.Context, item *domain.Item) (*domain.Item, error)
	FindByID(ctx context.Context, id int) (*domain.Item, error)
	List(ctx context.Context, source domain.Source, ownerID *int) ([]domain.Item, error)
	Decrement(ctx context.Context, id, qty int) (int, bool, error)
	Increment(ctx context.Context, id, qty int) (*domain.Item, error)
}

type Service struct {
	repo Repo
}

func New(repo Repo) *Service {
	return &Service{
		repo: repo,
	}
}

var (
	ErrItemNotFound         = errors.New("item not found")
	ErrInsufficientQuantity = errors.New("insufficient quantity")
	ErrInvalidQuantity      = errors.New("quantity must be positive")
	ErrInvalidItem          = errors.New("invalid item")
)

// Take checks one line against its source and decrements the stocked
// quantity. It returns the unit price and the quantity left after the take.
// Stock lines resolve only against items owned by userID.
func (s *Service) Take(ctx context.Context, userID int, line domain.LineItem) (decimal.Decimal, int, error) {
	if line.Quantity <= 0 {
		return decimal.Zero, 0, ErrInvalidQuantity
	}

	item, err := s.repo.FindByID(ctx, line.ItemID)
	if err != nil {
		return decimal.Zero, 0, err
	}
	if item == nil || item.Source != line.Source {
		return decimal.Zero, 0, ErrItemNotFound
	}
	if item.Source == domain.SourceStock && (item.OwnerID == nil || *item.OwnerID != userID) {
		return decimal.Zero, 0, ErrItemNotFound
	}
	if line.Quantity > item.Quantity {
		zap.L().Info("insufficient quantity", zap.Int("item_id", item.ID),
			zap.Int("requested", line.Quantity), zap.Int("available", item.Quantity))
		return decimal.Zero, 0, ErrInsufficientQuantity
	}

	remaining, ok, err := s.repo.Decrement(ctx, item.ID, line.Quantity)
	if err != nil {
		return decimal.Zero, 0, err
	}
	if !ok {
		zap.L().Info("quantity taken concurrently", zap.Int("item_id", item.ID), zap.Int("requested", line.Quantity))
		return decimal.Zero, 0, ErrInsufficientQuantity
	}
	return item.Price, remaining, nil
}

// Restore returns the units of a previously taken line.
func (s *Service) Restore(ctx context.Context, line domain.OrderLine) error {
	item, err := s.repo.Increment(ctx, line.ItemID, line.Quantity)
	if err != nil {
		return err
	}
	if item == nil {
		return ErrItemNotFound
	}
	return nil
}

func (s *Service) CreateItem(ctx context.Context, item *domain.Item) (*domain.Item, error) {
	if !item.Source.Valid() || item.Quantity < 0 || item.Price.IsNegative() {
		return nil, ErrInvalidItem
	}
	if item.Source == domain.SourceInventory {
		item.OwnerID = nil
	} else if item.OwnerID == nil {
		return nil, ErrInvalidItem
	}

	created, err := s.repo.Create(ctx, item)
	if err != nil {
		zap.L().Error("can't create item", zap.Error(err))
		return nil, err
	}
	return created, nil
}

// ListItems lists items of a source. A nil ownerID lists every owner.
func (s *Service) ListItems(ctx context.Context, source domain.Source, ownerID *int) ([]domain.Item, error) {
	items, err := s.repo.List(ctx, source, ownerID)
	if err != nil {
		zap.L().Error("can't list items", zap.Error(err))
		return nil, err
	}
	return items, nil
}

func (s *Service) GetItem(ctx context.Context, id int) (*domain.Item, error) {
	item, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, ErrItemNotFound
	}
	return item, nil
}

func (s *Service) Restock(ctx context.Context, id, qty int) (*domain.Item, error) {
	if qty <= 0 {
		return nil, ErrInvalidQuantity
	}
	item, err := s.repo.Increment(ctx, id, qty)
	if err != nil {
		zap.L().Error("can't restock item", zap.Int("item_id", id), zap.Error(err))
		return nil, err
	}
	if item == nil {
		return nil, ErrItemNotFound
	}
	return item, nil
}
