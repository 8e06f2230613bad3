package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"healthinsure/internal/config"
	"healthinsure/internal/middleware"
	"healthinsure/internal/modules/auth"
	"healthinsure/internal/modules/claim"
	inbox "healthinsure/internal/modules/notification"
	"healthinsure/internal/modules/policy"
	"healthinsure/internal/notification"
	"healthinsure/internal/pkg/jwt"
	"healthinsure/internal/pkg/response"
	"healthinsure/internal/repository"
)

const shutdownTimeout = 10 * time.Second

// App holds the HTTP router and the background workers of the API process.
type App struct {
	cfg    *config.Config
	log    *logrus.Logger
	db     *gorm.DB
	router *gin.Engine
	hub    *notification.Hub
	redis  *redis.Client

	workers []func(ctx context.Context)
}

// New wires repositories, services, handlers and the notification backend selected by
// cfg.Dispatch.Mode. db must already be migrated.
func New(cfg *config.Config, db *gorm.DB, log *logrus.Logger) (*App, error) {
	a := &App{cfg: cfg, log: log, db: db}

	users := repository.NewUserRepository(db)
	hospitals := repository.NewHospitalRepository(db)
	plans := repository.NewPlanRepository(db)
	policies := repository.NewPolicyRepository(db)
	claims := repository.NewClaimRepository(db)
	payments := repository.NewPaymentRepository(db)
	history := repository.NewNotificationRepository(db)
	txm := repository.NewTxManager(db)

	a.hub = notification.NewHub(log, cfg.CORSAllowedOrigins)

	publisher, err := a.dispatch(txm, history)
	if err != nil {
		return nil, err
	}

	tokens := jwt.New(cfg.JWTSecret, cfg.JWTTTL)

	authHandler := auth.NewHandler(auth.NewService(users, tokens, cfg.JWTTTL, log))
	claimHandler := claim.NewHandler(claim.NewService(claims, policies, payments, users, hospitals, txm, publisher, log))
	policyHandler := policy.NewHandler(policy.NewService(policies, plans, payments, users, txm, publisher, log))
	inboxHandler := inbox.NewHandler(inbox.NewService(history), a.hub)

	expiry := policy.NewExpiryWorker(policies, cfg.Policy.ExpiryInterval, log)
	a.workers = append(a.workers, expiry.Run)

	if cfg.AppEnv != "dev" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(middleware.Recovery(log))
	r.Use(middleware.RequestLogger(log))
	r.Use(middleware.CORS(cfg.CORSAllowedOrigins))

	r.GET("/health", a.health)

	v1 := r.Group("/api/v1")
	{
		authHandler.RegisterPublicRoutes(v1)

		protected := v1.Group("")
		protected.Use(middleware.JWTAuth(tokens))
		{
			authHandler.RegisterProtectedRoutes(protected)
			claimHandler.RegisterRoutes(protected)
			policyHandler.RegisterRoutes(protected)
			inboxHandler.RegisterRoutes(protected)
		}
	}
	a.router = r

	return a, nil
}

// dispatch builds the Publisher handed to services and registers the worker that
// turns published events into NotificationHistory rows.
func (a *App) dispatch(txm *repository.TxManager, history *repository.NotificationRepository) (notification.Publisher, error) {
	d := a.cfg.Dispatch
	a.log.WithField("mode", d.Mode).Info("notification dispatch configured")

	switch d.Mode {
	case config.DispatchOutbox:
		outbox := repository.NewOutboxRepository(a.db)
		relay := notification.NewRelay(txm, outbox, history, a.hub, notification.RelayConfig{
			PollInterval: d.PollInterval,
			BatchSize:    d.BatchSize,
			MaxAttempts:  d.MaxAttempts,
		}, a.log)
		a.workers = append(a.workers, relay.Run)
		return notification.NewOutbox(outbox), nil

	case config.DispatchRedis:
		a.redis = redis.NewClient(&redis.Options{Addr: d.RedisAddr})
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := a.redis.Ping(ctx).Err(); err != nil {
			_ = a.redis.Close()
			return nil, fmt.Errorf("redis ping %s: %w", d.RedisAddr, err)
		}
		q := notification.NewRedisQueue(a.redis, d.RedisKey)
		a.workers = append(a.workers, notification.NewDispatcher(q, history, a.hub, a.log).Run)
		return q, nil

	default:
		q := notification.NewQueue()
		a.workers = append(a.workers, notification.NewDispatcher(q, history, a.hub, a.log).Run)
		return q, nil
	}
}

func (a *App) Handler() http.Handler {
	return a.router
}

// Start launches the background workers. They stop when ctx is done; the returned
// function blocks until all of them have returned.
func (a *App) Start(ctx context.Context) (wait func()) {
	var wg sync.WaitGroup
	for _, run := range a.workers {
		wg.Add(1)
		go func(run func(context.Context)) {
			defer wg.Done()
			run(ctx)
		}(run)
	}
	return wg.Wait
}

// Run serves HTTP on cfg.HTTPAddr until ctx is cancelled, then shuts down gracefully.
func (a *App) Run(ctx context.Context) error {
	workerCtx, stopWorkers := context.WithCancel(context.Background())
	defer stopWorkers()
	wait := a.Start(workerCtx)

	srv := &http.Server{
		Addr:              a.cfg.HTTPAddr,
		Handler:           a.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		a.log.WithField("addr", a.cfg.HTTPAddr).Info("http server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	var serveErr error
	select {
	case <-ctx.Done():
		a.log.Info("shutdown requested")
	case serveErr = <-errCh:
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		a.log.WithError(err).Warn("http server shutdown")
	}

	a.hub.Close()
	stopWorkers()
	wait()
	a.close()

	a.log.Info("server stopped")
	return serveErr
}

func (a *App) close() {
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			a.log.WithError(err).Warn("close redis")
		}
	}
	if sqlDB, err := a.db.DB(); err == nil {
		if err := sqlDB.Close(); err != nil {
			a.log.WithError(err).Warn("close database")
		}
	}
}

func (a *App) health(c *gin.Context) {
	sqlDB, err := a.db.DB()
	if err == nil {
		err = sqlDB.PingContext(c.Request.Context())
	}
	if err != nil {
		a.log.WithError(err).Warn("health check failed")
		response.Error(c, http.StatusServiceUnavailable, "UNHEALTHY", "Database unavailable")
		return
	}
	response.Success(c, http.StatusOK, gin.H{
		"status":       "ok",
		"dispatch":     a.cfg.Dispatch.Mode,
		"online_users": a.hub.OnlineCount(),
	})
}
