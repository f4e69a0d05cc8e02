package reconcile

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/GlebRadaev/delivery/internal/config"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

//go:generate mockgen -source=reconcile.go -destination=mock_reconcile.go -package=reconcile

const workers = 10

// Wallets is the part of the wallet service the sweeper drives.
type Wallets interface {
	WalletIDs(ctx context.Context) ([]int, error)
	Sweep(ctx context.Context, walletID int) error
}

// Service periodically recomputes every wallet balance so that ledger edits
// made without a paid toggle do not leave balances stale.
type Service struct {
	wallets    Wallets
	workerPool WorkerPoolI
	interval   time.Duration
	inFlight   sync.Map
}

func New(cfg *config.Config, wallets Wallets) *Service {
	return &Service{
		wallets:    wallets,
		workerPool: NewWorkerPool(workers),
		interval:   cfg.ReconcileInterval,
	}
}

func (s *Service) Start(ctx context.Context) {
	if s.interval <= 0 {
		zap.L().Info("wallet reconciliation sweeper disabled")
		return
	}
	zap.L().Info("wallet reconciliation sweeper started", zap.Duration("interval", s.interval))
	go s.run(ctx)
}

func (s *Service) run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	defer s.workerPool.Close()

	for {
		select {
		case <-ctx.Done():
			zap.L().Info("context canceled, stopping sweeper")
			return
		case <-ticker.C:
			s.sweep(ctx)
		}
	}
}

// sweep queues one reconciliation per wallet. A wallet still being
// reconciled from the previous tick is skipped.
func (s *Service) sweep(ctx context.Context) {
	ids, err := s.wallets.WalletIDs(ctx)
	if err != nil {
		zap.L().Error("failed to list wallets", zap.Error(err))
		return
	}

	var g errgroup.Group
	for _, id := range ids {
		if _, loaded := s.inFlight.LoadOrStore(id, struct{}{}); loaded {
			continue
		}

		g.Go(func() error {
			err := s.workerPool.AddTask(ctx, func() error {
				defer s.inFlight.Delete(id)
				if err := s.wallets.Sweep(ctx, id); err != nil {
					return fmt.Errorf("reconcile wallet %d: %w", id, err)
				}
				return nil
			})
			if err != nil {
				s.inFlight.Delete(id)
				return err
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		zap.L().Error("error queueing reconciliations", zap.Error(err))
	}
}
