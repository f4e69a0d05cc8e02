package dto

import (
	"time"

	"github.com/GlebRadaev/delivery/internal/domain"
	"github.com/shopspring/decimal"
)

type CreateItemRequestDTO struct {
	Name     string          `json:"name" validate:"required,max=200" example:"Rice 1kg"`
	Quantity int             `json:"quantity" validate:"gte=0" example:"40"`
	Price    decimal.Decimal `json:"price" swaggertype:"string" example:"12.50"`
}

type RestockRequestDTO struct {
	Quantity int `json:"quantity" validate:"required,gt=0" example:"10"`
}

type ItemResponseDTO struct {
	ID        int             `json:"id" example:"1"`
	Source    string          `json:"source" example:"inventory"`
	OwnerID   *int            `json:"owner_id,omitempty"`
	Name      string          `json:"name" example:"Rice 1kg"`
	Quantity  int             `json:"quantity" example:"40"`
	Price     decimal.Decimal `json:"price" swaggertype:"string" example:"12.50"`
	CreatedAt time.Time       `json:"created_at"`
}

func FromItem(item *domain.Item) ItemResponseDTO {
	return ItemResponseDTO{
		ID:        item.ID,
		Source:    string(item.Source),
		OwnerID:   item.OwnerID,
		Name:      item.Name,
		Quantity:  item.Quantity,
		Price:     item.Price,
		CreatedAt: item.CreatedAt,
	}
}

func FromItems(items []domain.Item) []ItemResponseDTO {
	resp := make([]ItemResponseDTO, 0, len(items))
	for i := range items {
		resp = append(resp, FromItem(&items[i]))
	}
	return resp
}
