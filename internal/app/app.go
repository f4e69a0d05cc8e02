package app

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/GlebRadaev/delivery/internal/config"
	"github.com/GlebRadaev/delivery/internal/handlers"
	"github.com/GlebRadaev/delivery/internal/notify"
	"github.com/GlebRadaev/delivery/internal/pg"
	"github.com/GlebRadaev/delivery/internal/reconcile"
	"github.com/GlebRadaev/delivery/internal/repo"
	"github.com/GlebRadaev/delivery/internal/service"
	"github.com/GlebRadaev/delivery/pkg/auth"
	"github.com/GlebRadaev/delivery/pkg/logger"
)

type ApplicationI interface {
	Start(ctx context.Context) error
	Wait(ctx context.Context, cancel context.CancelFunc) error
}

type Application struct {
	cfg     *config.Config
	api     *handlers.Handlers
	srv     *service.Services
	repo    *repo.Repositories
	sweeper *reconcile.Service

	pool     *pgxpool.Pool
	notifier io.Closer

	errCh chan error
	wg    sync.WaitGroup
	ready bool
}

func New() *Application {
	return &Application{
		errCh: make(chan error),
	}
}

func (a *Application) Start(ctx context.Context) error {
	cfg := config.New()

	err := logger.InitLogger(cfg)
	if err != nil {
		return fmt.Errorf("can't init logger: %w", err)
	}

	pool, err := getPgxpool(ctx, cfg)
	if err != nil {
		zap.L().Error("build pgx pool failed: ", zap.Error(err))
		return fmt.Errorf("can't build pgx pool: %w", err)
	}
	if err := pg.RunMigrations(ctx, pool); err != nil {
		zap.L().Error("migrations failed: ", zap.Error(err))
		return fmt.Errorf("can't run migrations: %w", err)
	}
	txManager := pg.NewTXManager(pool)

	notifier, closer, err := notify.New(ctx, cfg)
	if err != nil {
		zap.L().Error("notifier setup failed: ", zap.Error(err))
		return fmt.Errorf("can't build notifier: %w", err)
	}

	jwtService := auth.NewJWTService(cfg.JWTSecret)
	conn := pg.New(pool)
	a.cfg = cfg
	a.pool = pool
	a.notifier = closer
	a.repo = repo.New(conn, txManager)
	a.srv = service.New(a.repo, txManager, notifier, jwtService, cfg.TokenTTL)
	a.api = handlers.New(a.srv, jwtService, cfg.CORSOrigins)
	a.sweeper = reconcile.New(cfg, a.srv.WalletService)

	if cfg.AdminLogin != "" {
		if err := a.srv.AuthService.EnsureAdmin(ctx, cfg.AdminLogin, cfg.AdminPassword); err != nil {
			return fmt.Errorf("can't bootstrap admin account: %w", err)
		}
	}

	if err = a.startHTTPServer(ctx); err != nil {
		return fmt.Errorf("can't start http server: %w", err)
	}

	a.sweeper.Start(ctx)

	a.ready = true
	zap.L().Info("all systems started successfully")
	return nil
}

func getPgxpool(ctx context.Context, cfg *config.Config) (*pgxpool.Pool, error) {
	cfgpool, err := pgxpool.ParseConfig(cfg.Database)
	if err != nil {
		return nil, err
	}
	dbpool, err := pgxpool.NewWithConfig(ctx, cfgpool)
	if err != nil {
		return nil, err
	}
	if err = dbpool.Ping(ctx); err != nil {
		return nil, err
	}
	return dbpool, nil
}

func (a *Application) startHTTPServer(ctx context.Context) error {
	router := chi.NewRouter()
	a.api.InitRoutes(router)
	server := http.Server{
		Addr:              a.cfg.Address,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}
	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		<-ctx.Done()

		sCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		server.Shutdown(sCtx)
	}()

	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		zap.L().Info("starting http server on port", zap.String("port", a.cfg.Address))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			a.errCh <- fmt.Errorf("http server exited with error: %w", err)
		}
	}()

	return nil
}

// Wait blocks until ctx is done, then releases the notifier and the pool
// once every server goroutine has returned.
func (a *Application) Wait(ctx context.Context, cancel context.CancelFunc) error {
	var appErr error

	var wg sync.WaitGroup
	wg.Add(1)

	go func() {
		defer wg.Done()

		for err := range a.errCh {
			cancel()
			zap.L().Error(err.Error())
			appErr = err
		}
	}()

	<-ctx.Done()
	a.wg.Wait()
	close(a.errCh)
	wg.Wait()

	if a.notifier != nil {
		if err := a.notifier.Close(); err != nil {
			zap.L().Error("can't close notifier", zap.Error(err))
		}
	}
	if a.pool != nil {
		a.pool.Close()
	}

	return appErr
}
