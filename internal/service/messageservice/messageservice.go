package messageservice

import (
	"context"
	"errors"
	"strings"

	"github.com/GlebRadaev/delivery/internal/domain"
	"github.com/GlebRadaev/delivery/internal/notify"
	"github.com/GlebRadaev/delivery/internal/service/ticketservice"
	"go.uber.org/zap"
)

//go:generate mockgen -source=messageservice.go -destination=mock_messageservice.go -package=messageservice

type Repo interface {
	Create(ctx context.Context, msg *domain.Message) error
	ListByTicket(ctx context.Context, ticketID int) ([]domain.Message, error)
}

type TicketService interface {
	GetTicket(ctx context.Context, actor domain.ActorRef, id int) (*domain.Ticket, error)
}

type Service struct {
	repo     Repo
	tickets  TicketService
	notifier notify.Notifier
}

func New(repo Repo, tickets TicketService, notifier notify.Notifier) *Service {
	return &Service{
		repo:     repo,
		tickets:  tickets,
		notifier: notifier,
	}
}

var ErrEmptyMessage = errors.New("message body is required")

func (s *Service) SendMessage(ctx context.Context, sender domain.ActorRef, ticketID int, body string) (*domain.Message, error) {
	if strings.TrimSpace(body) == "" {
		return nil, ErrEmptyMessage
	}
	ticket, err := s.tickets.GetTicket(ctx, sender, ticketID)
	if err != nil {
		return nil, err
	}
	if ticket.Status == domain.TicketClosed {
		return nil, ticketservice.ErrTicketClosed
	}

	msg := &domain.Message{
		TicketID: ticket.ID,
		Sender:   sender,
		Body:     body,
	}
	if err := s.repo.Create(ctx, msg); err != nil {
		zap.L().Error("can't send message", zap.Int("ticket_id", ticketID), zap.Error(err))
		return nil, err
	}

	s.notifier.Notify(ctx, notify.EventMessageCreated, msg)
	return msg, nil
}

func (s *Service) GetMessages(ctx context.Context, actor domain.ActorRef, ticketID int) ([]domain.Message, error) {
	if _, err := s.tickets.GetTicket(ctx, actor, ticketID); err != nil {
		return nil, err
	}
	return s.repo.ListByTicket(ctx, ticketID)
}
