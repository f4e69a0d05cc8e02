package dto

import (
	"time"

	"github.com/GlebRadaev/delivery/internal/domain"
	"github.com/shopspring/decimal"
)

type LineItemDTO struct {
	ItemID   int    `json:"item_id" validate:"required,gt=0" example:"1"`
	Source   string `json:"source" validate:"required,oneof=inventory stock" example:"inventory"`
	Quantity int    `json:"quantity" validate:"required,gt=0" example:"2"`
}

type AddressDTO struct {
	City     string `json:"city" validate:"required,max=100" example:"Cairo"`
	Street   string `json:"street" validate:"required,max=200" example:"Tahrir st."`
	Building string `json:"building" validate:"max=50" example:"12"`
	Phone    string `json:"phone" validate:"omitempty,e164" example:"+201001234567"`
	Notes    string `json:"notes" validate:"max=500"`
}

type OrderRequestDTO struct {
	Lines   []LineItemDTO `json:"lines" validate:"required,min=1,dive"`
	Address AddressDTO    `json:"address" validate:"required"`
}

func (r OrderRequestDTO) LineItems() []domain.LineItem {
	lines := make([]domain.LineItem, 0, len(r.Lines))
	for _, l := range r.Lines {
		lines = append(lines, domain.LineItem{
			ItemID:   l.ItemID,
			Source:   domain.Source(l.Source),
			Quantity: l.Quantity,
		})
	}
	return lines
}

func (r OrderRequestDTO) DomainAddress() domain.Address {
	return domain.Address(r.Address)
}

type StatusRequestDTO struct {
	Status string `json:"status" validate:"required,oneof=pending in_store out_to_delivery delivered refused" example:"in_store"`
}

type OrderLineDTO struct {
	ItemID    int             `json:"item_id" example:"1"`
	Source    string          `json:"source" example:"inventory"`
	Quantity  int             `json:"quantity" example:"2"`
	UnitPrice decimal.Decimal `json:"unit_price" swaggertype:"string" example:"12.50"`
}

type OrderResponseDTO struct {
	ID         int             `json:"id" example:"1"`
	Number     string          `json:"number" example:"79927398713"`
	UserID     int             `json:"user_id" example:"1"`
	CaptainID  *int            `json:"captain_id,omitempty"`
	Status     string          `json:"status" example:"pending"`
	TotalPrice decimal.Decimal `json:"total_price" swaggertype:"string" example:"25.00"`
	Address    AddressDTO      `json:"address"`
	Lines      []OrderLineDTO  `json:"lines"`
	CreatedAt  time.Time       `json:"created_at"`
	UpdatedAt  time.Time       `json:"updated_at"`
}

// TrackResponseDTO is the public view of an order looked up by number.
type TrackResponseDTO struct {
	Number    string    `json:"number" example:"79927398713"`
	Status    string    `json:"status" example:"out_to_delivery"`
	UpdatedAt time.Time `json:"updated_at"`
}

func FromOrder(order *domain.Order) OrderResponseDTO {
	lines := make([]OrderLineDTO, 0, len(order.Lines))
	for _, l := range order.Lines {
		lines = append(lines, OrderLineDTO{
			ItemID:    l.ItemID,
			Source:    string(l.Source),
			Quantity:  l.Quantity,
			UnitPrice: l.UnitPrice,
		})
	}
	return OrderResponseDTO{
		ID:         order.ID,
		Number:     order.Number,
		UserID:     order.UserID,
		CaptainID:  order.CaptainID,
		Status:     string(order.Status),
		TotalPrice: order.TotalPrice,
		Address:    AddressDTO(order.Address),
		Lines:      lines,
		CreatedAt:  order.CreatedAt,
		UpdatedAt:  order.UpdatedAt,
	}
}

func FromOrders(orders []domain.Order) []OrderResponseDTO {
	resp := make([]OrderResponseDTO, 0, len(orders))
	for i := range orders {
		resp = append(resp, FromOrder(&orders[i]))
	}
	return resp
}
