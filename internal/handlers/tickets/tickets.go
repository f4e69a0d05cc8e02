package tickets

import (
	"context"
	"errors"
	"net/http"

	"github.com/GlebRadaev/delivery/internal/domain"
	"github.com/GlebRadaev/delivery/internal/dto"
	"github.com/GlebRadaev/delivery/internal/service/messageservice"
	"github.com/GlebRadaev/delivery/internal/service/ticketservice"
	"github.com/GlebRadaev/delivery/pkg/auth"
	"github.com/GlebRadaev/delivery/pkg/utils"
)

//go:generate mockgen -source=tickets.go -destination=mock_service.go -package=tickets

type TicketService interface {
	OpenTicket(ctx context.Context, author domain.ActorRef, subject string) (*domain.Ticket, error)
	GetTickets(ctx context.Context, actor domain.ActorRef) ([]domain.Ticket, error)
	CloseTicket(ctx context.Context, actor domain.ActorRef, id int) (*domain.Ticket, error)
}

type MessageService interface {
	SendMessage(ctx context.Context, sender domain.ActorRef, ticketID int, body string) (*domain.Message, error)
	GetMessages(ctx context.Context, actor domain.ActorRef, ticketID int) ([]domain.Message, error)
}

type TicketHandler struct {
	ticketService  TicketService
	messageService MessageService
}

func New(ticketService TicketService, messageService MessageService) *TicketHandler {
	return &TicketHandler{
		ticketService:  ticketService,
		messageService: messageService,
	}
}

// OpenTicket godoc
//
//	@Summary	Open a support ticket
//	@Tags		Support
//	@Accept		json
//	@Produce	json
//	@Security	BearerAuth
//	@Param		request	body		dto.TicketRequestDTO	true	"Ticket"
//	@Success	201		{object}	dto.TicketResponseDTO
//	@Failure	400		{object}	utils.Response	"Invalid request body"
//	@Failure	500		{object}	utils.Response	"Internal server error"
//	@Router		/api/tickets [post]
func (h *TicketHandler) OpenTicket(w http.ResponseWriter, r *http.Request) {
	actor, _ := auth.ActorFromContext(r.Context())

	var req dto.TicketRequestDTO
	if !utils.DecodeJSON(w, r, &req) {
		return
	}

	ticket, err := h.ticketService.OpenTicket(r.Context(), actor, req.Subject)
	if err != nil {
		respondError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusCreated, dto.FromTicket(ticket))
}

// GetTickets godoc
//
//	@Summary		List support tickets
//	@Description	Admins see every ticket, everyone else their own
//	@Tags			Support
//	@Produce		json
//	@Security		BearerAuth
//	@Success		200	{array}		dto.TicketResponseDTO
//	@Failure		500	{object}	utils.Response	"Internal server error"
//	@Router			/api/tickets [get]
func (h *TicketHandler) GetTickets(w http.ResponseWriter, r *http.Request) {
	actor, _ := auth.ActorFromContext(r.Context())

	tickets, err := h.ticketService.GetTickets(r.Context(), actor)
	if err != nil {
		respondError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, dto.FromTickets(tickets))
}

// CloseTicket godoc
//
//	@Summary	Close a support ticket
//	@Tags		Support
//	@Produce	json
//	@Security	BearerAuth
//	@Param		id	path		int	true	"Ticket ID"
//	@Success	200	{object}	dto.TicketResponseDTO
//	@Failure	404	{object}	utils.Response	"Ticket not found"
//	@Failure	409	{object}	utils.Response	"Ticket already closed"
//	@Failure	500	{object}	utils.Response	"Internal server error"
//	@Router		/api/tickets/{id}/close [patch]
func (h *TicketHandler) CloseTicket(w http.ResponseWriter, r *http.Request) {
	actor, _ := auth.ActorFromContext(r.Context())
	id, err := utils.IntParam(r, "id")
	if err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid ticket id")
		return
	}

	ticket, err := h.ticketService.CloseTicket(r.Context(), actor, id)
	if err != nil {
		respondError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, dto.FromTicket(ticket))
}

// SendMessage godoc
//
//	@Summary	Post a message to a ticket
//	@Tags		Support
//	@Accept		json
//	@Produce	json
//	@Security	BearerAuth
//	@Param		id		path		int						true	"Ticket ID"
//	@Param		request	body		dto.MessageRequestDTO	true	"Message"
//	@Success	201		{object}	dto.MessageResponseDTO
//	@Failure	400		{object}	utils.Response	"Invalid request body"
//	@Failure	404		{object}	utils.Response	"Ticket not found"
//	@Failure	409		{object}	utils.Response	"Ticket is closed"
//	@Failure	500		{object}	utils.Response	"Internal server error"
//	@Router		/api/tickets/{id}/messages [post]
func (h *TicketHandler) SendMessage(w http.ResponseWriter, r *http.Request) {
	actor, _ := auth.ActorFromContext(r.Context())
	id, err := utils.IntParam(r, "id")
	if err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid ticket id")
		return
	}
	var req dto.MessageRequestDTO
	if !utils.DecodeJSON(w, r, &req) {
		return
	}

	msg, err := h.messageService.SendMessage(r.Context(), actor, id, req.Body)
	if err != nil {
		respondError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusCreated, dto.FromMessage(msg))
}

// GetMessages godoc
//
//	@Summary	List the messages of a ticket
//	@Tags		Support
//	@Produce	json
//	@Security	BearerAuth
//	@Param		id	path		int	true	"Ticket ID"
//	@Success	200	{array}		dto.MessageResponseDTO
//	@Failure	404	{object}	utils.Response	"Ticket not found"
//	@Failure	500	{object}	utils.Response	"Internal server error"
//	@Router		/api/tickets/{id}/messages [get]
func (h *TicketHandler) GetMessages(w http.ResponseWriter, r *http.Request) {
	actor, _ := auth.ActorFromContext(r.Context())
	id, err := utils.IntParam(r, "id")
	if err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid ticket id")
		return
	}

	messages, err := h.messageService.GetMessages(r.Context(), actor, id)
	if err != nil {
		respondError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, dto.FromMessages(messages))
}

func respondError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ticketservice.ErrTicketNotFound):
		utils.RespondWithError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, ticketservice.ErrTicketClosed):
		utils.RespondWithError(w, http.StatusConflict, err.Error())
	case errors.Is(err, ticketservice.ErrEmptySubject), errors.Is(err, messageservice.ErrEmptyMessage):
		utils.RespondWithError(w, http.StatusBadRequest, err.Error())
	default:
		utils.RespondWithError(w, http.StatusInternalServerError, "Internal server error")
	}
}
