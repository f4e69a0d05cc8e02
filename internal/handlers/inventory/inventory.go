package inventory

import (
	"context"
	"errors"
	"net/http"

	"github.com/GlebRadaev/delivery/internal/domain"
	"github.com/GlebRadaev/delivery/internal/dto"
	"github.com/GlebRadaev/delivery/internal/service/inventoryservice"
	"github.com/GlebRadaev/delivery/pkg/auth"
	"github.com/GlebRadaev/delivery/pkg/utils"
)

//go:generate mockgen -source=inventory.go -destination=mock_service.go -package=inventory

type Service interface {
	CreateItem(ctx context.Context, item *domain.Item) (*domain.Item, error)
	ListItems(ctx context.Context, source domain.Source, ownerID *int) ([]domain.Item, error)
	GetItem(ctx context.Context, id int) (*domain.Item, error)
	Restock(ctx context.Context, id, qty int) (*domain.Item, error)
}

type InventoryHandler struct {
	inventoryService Service
}

func New(inventoryService Service) *InventoryHandler {
	return &InventoryHandler{
		inventoryService: inventoryService,
	}
}

// ListInventory godoc
//
//	@Summary	List the shared catalog
//	@Tags		Inventory
//	@Produce	json
//	@Security	BearerAuth
//	@Success	200	{array}		dto.ItemResponseDTO
//	@Failure	401	{object}	utils.Response	"Unauthorized"
//	@Failure	500	{object}	utils.Response	"Internal server error"
//	@Router		/api/inventory [get]
func (h *InventoryHandler) ListInventory(w http.ResponseWriter, r *http.Request) {
	h.list(w, r, domain.SourceInventory, nil)
}

// CreateInventoryItem godoc
//
//	@Summary	Add an item to the shared catalog
//	@Tags		Inventory
//	@Accept		json
//	@Produce	json
//	@Security	BearerAuth
//	@Param		request	body		dto.CreateItemRequestDTO	true	"Item"
//	@Success	201		{object}	dto.ItemResponseDTO
//	@Failure	400		{object}	utils.Response	"Invalid request body"
//	@Failure	403		{object}	utils.Response	"Forbidden"
//	@Failure	500		{object}	utils.Response	"Internal server error"
//	@Router		/api/inventory [post]
func (h *InventoryHandler) CreateInventoryItem(w http.ResponseWriter, r *http.Request) {
	h.create(w, r, domain.SourceInventory, nil)
}

// ListStock godoc
//
//	@Summary	List the caller's personal stock
//	@Tags		Stock
//	@Produce	json
//	@Security	BearerAuth
//	@Success	200	{array}		dto.ItemResponseDTO
//	@Failure	401	{object}	utils.Response	"Unauthorized"
//	@Failure	500	{object}	utils.Response	"Internal server error"
//	@Router		/api/stock [get]
func (h *InventoryHandler) ListStock(w http.ResponseWriter, r *http.Request) {
	actor, _ := auth.ActorFromContext(r.Context())
	h.list(w, r, domain.SourceStock, &actor.ID)
}

// CreateStockItem godoc
//
//	@Summary	Add an item to the caller's personal stock
//	@Tags		Stock
//	@Accept		json
//	@Produce	json
//	@Security	BearerAuth
//	@Param		request	body		dto.CreateItemRequestDTO	true	"Item"
//	@Success	201		{object}	dto.ItemResponseDTO
//	@Failure	400		{object}	utils.Response	"Invalid request body"
//	@Failure	500		{object}	utils.Response	"Internal server error"
//	@Router		/api/stock [post]
func (h *InventoryHandler) CreateStockItem(w http.ResponseWriter, r *http.Request) {
	actor, _ := auth.ActorFromContext(r.Context())
	h.create(w, r, domain.SourceStock, &actor.ID)
}

// GetItem godoc
//
//	@Summary		Get one item
//	@Description	Stock items are visible to their owner and to admins only
//	@Tags			Inventory
//	@Produce		json
//	@Security		BearerAuth
//	@Param			id	path		int	true	"Item ID"
//	@Success		200	{object}	dto.ItemResponseDTO
//	@Failure		400	{object}	utils.Response	"Invalid item id"
//	@Failure		404	{object}	utils.Response	"Item not found"
//	@Failure		500	{object}	utils.Response	"Internal server error"
//	@Router			/api/inventory/{id} [get]
func (h *InventoryHandler) GetItem(w http.ResponseWriter, r *http.Request) {
	id, err := utils.IntParam(r, "id")
	if err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid item id")
		return
	}
	actor, _ := auth.ActorFromContext(r.Context())

	item, err := h.inventoryService.GetItem(r.Context(), id)
	if err != nil {
		respondError(w, err)
		return
	}
	if item.Source == domain.SourceStock && actor.Kind != domain.KindAdmin &&
		(actor.Kind != domain.KindUser || item.OwnerID == nil || *item.OwnerID != actor.ID) {
		respondError(w, inventoryservice.ErrItemNotFound)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, dto.FromItem(item))
}

// Restock godoc
//
//	@Summary	Add units to an item
//	@Tags		Inventory
//	@Accept		json
//	@Produce	json
//	@Security	BearerAuth
//	@Param		id		path		int						true	"Item ID"
//	@Param		request	body		dto.RestockRequestDTO	true	"Units to add"
//	@Success	200		{object}	dto.ItemResponseDTO
//	@Failure	400		{object}	utils.Response	"Invalid request body"
//	@Failure	404		{object}	utils.Response	"Item not found"
//	@Failure	500		{object}	utils.Response	"Internal server error"
//	@Router		/api/inventory/{id}/restock [post]
func (h *InventoryHandler) Restock(w http.ResponseWriter, r *http.Request) {
	id, err := utils.IntParam(r, "id")
	if err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid item id")
		return
	}
	var req dto.RestockRequestDTO
	if !utils.DecodeJSON(w, r, &req) {
		return
	}

	item, err := h.inventoryService.Restock(r.Context(), id, req.Quantity)
	if err != nil {
		respondError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, dto.FromItem(item))
}

func (h *InventoryHandler) list(w http.ResponseWriter, r *http.Request, source domain.Source, ownerID *int) {
	items, err := h.inventoryService.ListItems(r.Context(), source, ownerID)
	if err != nil {
		respondError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, dto.FromItems(items))
}

func (h *InventoryHandler) create(w http.ResponseWriter, r *http.Request, source domain.Source, ownerID *int) {
	var req dto.CreateItemRequestDTO
	if !utils.DecodeJSON(w, r, &req) {
		return
	}

	item, err := h.inventoryService.CreateItem(r.Context(), &domain.Item{
		Source:   source,
		OwnerID:  ownerID,
		Name:     req.Name,
		Quantity: req.Quantity,
		Price:    req.Price,
	})
	if err != nil {
		respondError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusCreated, dto.FromItem(item))
}

func respondError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, inventoryservice.ErrItemNotFound):
		utils.RespondWithError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, inventoryservice.ErrInvalidItem), errors.Is(err, inventoryservice.ErrInvalidQuantity):
		utils.RespondWithError(w, http.StatusBadRequest, err.Error())
	default:
		utils.RespondWithError(w, http.StatusInternalServerError, "Internal server error")
	}
}
