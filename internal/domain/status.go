package domain

type OrderStatus string

const (
	StatusPending       OrderStatus = "pending"
	StatusInStore       OrderStatus = "in_store"
	StatusOutToDelivery OrderStatus = "out_to_delivery"
	StatusDelivered     OrderStatus = "delivered"
	StatusRefused       OrderStatus = "refused"
)

var validNext = map[OrderStatus]map[OrderStatus]bool{
	StatusPending:       {StatusInStore: true, StatusOutToDelivery: true, StatusRefused: true},
	StatusInStore:       {StatusOutToDelivery: true},
	StatusOutToDelivery: {StatusDelivered: true, StatusRefused: true},
	StatusDelivered:     {},
	StatusRefused:       {},
}

func (s OrderStatus) Valid() bool {
	_, ok := validNext[s]
	return ok
}

func (s OrderStatus) Terminal() bool {
	next, ok := validNext[s]
	return ok && len(next) == 0
}

// Editable reports whether line items and address may still change.
func (s OrderStatus) Editable() bool {
	return s == StatusPending
}

func CanTransition(from, to OrderStatus) bool {
	return validNext[from][to]
}
