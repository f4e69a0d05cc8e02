package orders

import (
	"context"
	"errors"
	"net/http"

	"github.com/GlebRadaev/delivery/internal/domain"
	"github.com/GlebRadaev/delivery/internal/dto"
	"github.com/GlebRadaev/delivery/internal/service/inventoryservice"
	"github.com/GlebRadaev/delivery/internal/service/orderservice"
	"github.com/GlebRadaev/delivery/pkg/auth"
	"github.com/GlebRadaev/delivery/pkg/utils"
	"github.com/go-chi/chi/v5"
)

//go:generate mockgen -source=orders.go -destination=mock_service.go -package=orders

type Service interface {
	PlaceOrder(ctx context.Context, userID int, lines []domain.LineItem, address domain.Address) (*domain.Order, error)
	EditOrder(ctx context.Context, userID, orderID int, lines []domain.LineItem, address domain.Address) (*domain.Order, error)
	ChangeStatus(ctx context.Context, actor domain.ActorRef, orderID int, status domain.OrderStatus) (*domain.Order, error)
	GetOrder(ctx context.Context, actor domain.ActorRef, orderID int) (*domain.Order, error)
	GetOrders(ctx context.Context, actor domain.ActorRef) ([]domain.Order, error)
	TrackOrder(ctx context.Context, number string) (*domain.Order, error)
}

type OrderHandler struct {
	orderService Service
}

func New(orderService Service) *OrderHandler {
	return &OrderHandler{
		orderService: orderService,
	}
}

// AddOrder godoc
//
//	@Summary		Place a new order
//	@Description	Price the line items, take them from inventory or stock and store a pending order.
//	@Tags			Orders
//	@Accept			json
//	@Produce		json
//	@Param			request	body	dto.OrderRequestDTO	true	"Line items and delivery address"
//	@Security		BearerAuth
//	@Success		201	{object}	dto.OrderResponseDTO
//	@Failure		400	{object}	utils.Response	"Invalid request body"
//	@Failure		401	{object}	utils.Response	"Unauthorized"
//	@Failure		403	{object}	utils.Response	"Inventory items need a partner account"
//	@Failure		404	{object}	utils.Response	"Item not found"
//	@Failure		409	{object}	utils.Response	"Insufficient quantity"
//	@Failure		500	{object}	utils.Response	"Internal server error"
//	@Router			/api/orders [post]
func (h *OrderHandler) AddOrder(w http.ResponseWriter, r *http.Request) {
	actor, _ := auth.ActorFromContext(r.Context())

	var req dto.OrderRequestDTO
	if !utils.DecodeJSON(w, r, &req) {
		return
	}

	order, err := h.orderService.PlaceOrder(r.Context(), actor.ID, req.LineItems(), req.DomainAddress())
	if err != nil {
		respondError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusCreated, dto.FromOrder(order))
}

// EditOrder godoc
//
//	@Summary		Edit a pending order
//	@Description	Replace the line items and address of a pending order and re-price it.
//	@Tags			Orders
//	@Accept			json
//	@Produce		json
//	@Param			id		path	int					true	"Order ID"
//	@Param			request	body	dto.OrderRequestDTO	true	"Line items and delivery address"
//	@Security		BearerAuth
//	@Success		200	{object}	dto.OrderResponseDTO
//	@Failure		400	{object}	utils.Response	"Invalid request body"
//	@Failure		404	{object}	utils.Response	"Order not found"
//	@Failure		409	{object}	utils.Response	"Order is no longer pending"
//	@Failure		500	{object}	utils.Response	"Internal server error"
//	@Router			/api/orders/{id} [put]
func (h *OrderHandler) EditOrder(w http.ResponseWriter, r *http.Request) {
	actor, _ := auth.ActorFromContext(r.Context())
	id, err := utils.IntParam(r, "id")
	if err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid order id")
		return
	}

	var req dto.OrderRequestDTO
	if !utils.DecodeJSON(w, r, &req) {
		return
	}

	order, err := h.orderService.EditOrder(r.Context(), actor.ID, id, req.LineItems(), req.DomainAddress())
	if err != nil {
		respondError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, dto.FromOrder(order))
}

// ChangeStatus godoc
//
//	@Summary	Move an order to another status
//	@Tags		Orders
//	@Accept		json
//	@Produce	json
//	@Param		id		path	int						true	"Order ID"
//	@Param		request	body	dto.StatusRequestDTO	true	"Target status"
//	@Security	BearerAuth
//	@Success	200	{object}	dto.OrderResponseDTO
//	@Failure	400	{object}	utils.Response	"Invalid request body"
//	@Failure	403	{object}	utils.Response	"Action not allowed"
//	@Failure	404	{object}	utils.Response	"Order not found"
//	@Failure	409	{object}	utils.Response	"Invalid status transition"
//	@Failure	500	{object}	utils.Response	"Internal server error"
//	@Router		/api/orders/{id}/status [patch]
func (h *OrderHandler) ChangeStatus(w http.ResponseWriter, r *http.Request) {
	actor, _ := auth.ActorFromContext(r.Context())
	id, err := utils.IntParam(r, "id")
	if err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid order id")
		return
	}

	var req dto.StatusRequestDTO
	if !utils.DecodeJSON(w, r, &req) {
		return
	}

	order, err := h.orderService.ChangeStatus(r.Context(), actor, id, domain.OrderStatus(req.Status))
	if err != nil {
		respondError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, dto.FromOrder(order))
}

// GetOrder godoc
//
//	@Summary	Get one order
//	@Tags		Orders
//	@Produce	json
//	@Param		id	path	int	true	"Order ID"
//	@Security	BearerAuth
//	@Success	200	{object}	dto.OrderResponseDTO
//	@Failure	404	{object}	utils.Response	"Order not found"
//	@Failure	500	{object}	utils.Response	"Internal server error"
//	@Router		/api/orders/{id} [get]
func (h *OrderHandler) GetOrder(w http.ResponseWriter, r *http.Request) {
	actor, _ := auth.ActorFromContext(r.Context())
	id, err := utils.IntParam(r, "id")
	if err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid order id")
		return
	}

	order, err := h.orderService.GetOrder(r.Context(), actor, id)
	if err != nil {
		respondError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, dto.FromOrder(order))
}

// GetOrders godoc
//
//	@Summary		List orders
//	@Description	Users see their own orders, captains the orders they deliver, admins every order
//	@Tags			Orders
//	@Produce		json
//	@Security		BearerAuth
//	@Success		200	{array}		dto.OrderResponseDTO
//	@Failure		204	{object}	utils.Response	"No data available"
//	@Failure		401	{object}	utils.Response	"Unauthorized"
//	@Failure		500	{object}	utils.Response	"Internal server error"
//	@Router			/api/orders [get]
func (h *OrderHandler) GetOrders(w http.ResponseWriter, r *http.Request) {
	actor, _ := auth.ActorFromContext(r.Context())

	orders, err := h.orderService.GetOrders(r.Context(), actor)
	if err != nil {
		respondError(w, err)
		return
	}
	if len(orders) == 0 {
		utils.RespondWithError(w, http.StatusNoContent, "No data available")
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, dto.FromOrders(orders))
}

// TrackOrder godoc
//
//	@Summary	Track an order by its number
//	@Tags		Orders
//	@Produce	json
//	@Param		number	path		string	true	"Tracking number"
//	@Success	200		{object}	dto.TrackResponseDTO
//	@Failure	404		{object}	utils.Response	"Order not found"
//	@Failure	422		{object}	utils.Response	"Invalid tracking number"
//	@Failure	500		{object}	utils.Response	"Internal server error"
//	@Router		/api/orders/track/{number} [get]
func (h *OrderHandler) TrackOrder(w http.ResponseWriter, r *http.Request) {
	order, err := h.orderService.TrackOrder(r.Context(), chi.URLParam(r, "number"))
	if err != nil {
		respondError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, dto.TrackResponseDTO{
		Number:    order.Number,
		Status:    string(order.Status),
		UpdatedAt: order.UpdatedAt,
	})
}

func respondError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, orderservice.ErrOrderNotFound),
		errors.Is(err, orderservice.ErrUserNotFound),
		errors.Is(err, inventoryservice.ErrItemNotFound):
		utils.RespondWithError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, orderservice.ErrEmptyOrder),
		errors.Is(err, inventoryservice.ErrInvalidQuantity):
		utils.RespondWithError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, orderservice.ErrInvalidNumber):
		utils.RespondWithError(w, http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, orderservice.ErrUnauthorizedSource),
		errors.Is(err, orderservice.ErrForbidden):
		utils.RespondWithError(w, http.StatusForbidden, err.Error())
	case errors.Is(err, inventoryservice.ErrInsufficientQuantity),
		errors.Is(err, orderservice.ErrOrderNotEditable),
		errors.Is(err, orderservice.ErrInvalidTransition):
		utils.RespondWithError(w, http.StatusConflict, err.Error())
	default:
		utils.RespondWithError(w, http.StatusInternalServerError, "Internal server error")
	}
}
