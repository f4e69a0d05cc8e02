package dto

import (
	"time"

	"github.com/GlebRadaev/delivery/internal/domain"
)

type TicketRequestDTO struct {
	Subject string `json:"subject" validate:"required,max=200" example:"Payout is late"`
}

type TicketResponseDTO struct {
	ID         int       `json:"id" example:"1"`
	AuthorKind string    `json:"author_kind" example:"captain"`
	AuthorID   int       `json:"author_id" example:"3"`
	Subject    string    `json:"subject" example:"Payout is late"`
	Status     string    `json:"status" example:"open"`
	CreatedAt  time.Time `json:"created_at"`
}

type MessageRequestDTO struct {
	Body string `json:"body" validate:"required,max=4000" example:"Any news?"`
}

type MessageResponseDTO struct {
	ID         int       `json:"id" example:"1"`
	TicketID   int       `json:"ticket_id" example:"1"`
	SenderKind string    `json:"sender_kind" example:"admin"`
	SenderID   int       `json:"sender_id" example:"1"`
	Body       string    `json:"body" example:"Any news?"`
	CreatedAt  time.Time `json:"created_at"`
}

func FromTicket(ticket *domain.Ticket) TicketResponseDTO {
	return TicketResponseDTO{
		ID:         ticket.ID,
		AuthorKind: string(ticket.Author.Kind),
		AuthorID:   ticket.Author.ID,
		Subject:    ticket.Subject,
		Status:     string(ticket.Status),
		CreatedAt:  ticket.CreatedAt,
	}
}

func FromTickets(tickets []domain.Ticket) []TicketResponseDTO {
	resp := make([]TicketResponseDTO, 0, len(tickets))
	for i := range tickets {
		resp = append(resp, FromTicket(&tickets[i]))
	}
	return resp
}

func FromMessage(msg *domain.Message) MessageResponseDTO {
	return MessageResponseDTO{
		ID:         msg.ID,
		TicketID:   msg.TicketID,
		SenderKind: string(msg.Sender.Kind),
		SenderID:   msg.Sender.ID,
		Body:       msg.Body,
		CreatedAt:  msg.CreatedAt,
	}
}

func FromMessages(messages []domain.Message) []MessageResponseDTO {
	resp := make([]MessageResponseDTO, 0, len(messages))
	for i := range messages {
		resp = append(resp, FromMessage(&messages[i]))
	}
	return resp
}
