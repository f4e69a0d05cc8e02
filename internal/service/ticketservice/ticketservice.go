package ticketservice

import (
	"context"
	"errors"
	"strings"

	"github.com/GlebRadaev/delivery/internal/domain"
	"github.com/GlebRadaev/delivery/internal/notify"
	"go.uber.org/zap"
)

//go:generate mockgen -source=ticketservice.go -destination=mock_ticketservice.go -package=ticketservice

type Repo interface {
	Create(ctx context.Context, ticket *domain.Ticket) error
	FindByID(ctx context.Context, id int) (*domain.Ticket, error)
	List(ctx context.Context, author domain.ActorRef) ([]domain.Ticket, error)
	UpdateStatus(ctx context.Context, id int, status domain.TicketStatus) error
}

type Service struct {
	repo     Repo
	notifier notify.Notifier
}

func New(repo Repo, notifier notify.Notifier) *Service {
	return &Service{
		repo:     repo,
		notifier: notifier,
	}
}

var (
	ErrTicketNotFound = errors.New("ticket not found")
	ErrTicketClosed   = errors.New("ticket is closed")
	ErrEmptySubject   = errors.New("subject is required")
)

func (s *Service) OpenTicket(ctx context.Context, author domain.ActorRef, subject string) (*domain.Ticket, error) {
	subject = strings.TrimSpace(subject)
	if subject == "" {
		return nil, ErrEmptySubject
	}

	ticket := &domain.Ticket{
		Author:  author,
		Subject: subject,
		Status:  domain.TicketOpen,
	}
	if err := s.repo.Create(ctx, ticket); err != nil {
		zap.L().Error("can't open ticket", zap.Error(err))
		return nil, err
	}

	s.notifier.Notify(ctx, notify.EventTicketCreated, ticket)
	return ticket, nil
}

// GetTickets lists every ticket for admins and own tickets for anyone else.
func (s *Service) GetTickets(ctx context.Context, actor domain.ActorRef) ([]domain.Ticket, error) {
	author := actor
	if actor.Kind == domain.KindAdmin {
		author = domain.ActorRef{}
	}
	return s.repo.List(ctx, author)
}

// GetTicket returns the ticket when actor is its author or an admin.
func (s *Service) GetTicket(ctx context.Context, actor domain.ActorRef, id int) (*domain.Ticket, error) {
	ticket, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if ticket == nil {
		return nil, ErrTicketNotFound
	}
	if actor.Kind != domain.KindAdmin && ticket.Author != actor {
		return nil, ErrTicketNotFound
	}
	return ticket, nil
}

func (s *Service) CloseTicket(ctx context.Context, actor domain.ActorRef, id int) (*domain.Ticket, error) {
	ticket, err := s.GetTicket(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if ticket.Status == domain.TicketClosed {
		return nil, ErrTicketClosed
	}
	if err := s.repo.UpdateStatus(ctx, id, domain.TicketClosed); err != nil {
		return nil, err
	}
	ticket.Status = domain.TicketClosed
	return ticket, nil
}
