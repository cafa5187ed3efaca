package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	httptransport "github.com/spec-kit/workticket-service/internal/api/http"
	"github.com/spec-kit/workticket-service/internal/api/http/handlers"
	"github.com/spec-kit/workticket-service/internal/auth"
	"github.com/spec-kit/workticket-service/internal/clock"
	"github.com/spec-kit/workticket-service/internal/config"
	"github.com/spec-kit/workticket-service/internal/events"
	"github.com/spec-kit/workticket-service/internal/observability"
	"github.com/spec-kit/workticket-service/internal/persistence"
	"github.com/spec-kit/workticket-service/internal/policy"
	"github.com/spec-kit/workticket-service/internal/ratecard"
	"github.com/spec-kit/workticket-service/internal/repository"
	"github.com/spec-kit/workticket-service/internal/service"
	"github.com/spec-kit/workticket-service/internal/timemath"
	"github.com/spec-kit/workticket-service/internal/worker"
)

// stores is the set of adapters the engine runs on.
type stores struct {
	tickets   repository.TicketRepository
	directory repository.EmployeeDirectory
	budgets   repository.BudgetSource
	capacity  repository.CapacitySource
	numberer  repository.TicketNumberer
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(observability.OptionsFromConfig(cfg))
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, cfg.App.Name, logger)
	if err != nil {
		logger.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer pg.Close()

	if pg.Enabled() && cfg.Postgres.RunMigrations {
		if err := persistence.RunMigrations(ctx, pg.Pool(), cfg.Postgres.MigrationsDir, logger); err != nil {
			logger.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	readiness := map[string]handlers.Pinger{}
	if pg.Enabled() {
		readiness["postgres"] = pg
	}

	var redis *persistence.Redis
	if cfg.Redis.Enabled {
		redis = persistence.NewRedis(cfg.Redis, logger)
		defer redis.Close()
		readiness["redis"] = redis
	}

	st, err := buildStores(cfg, pg, redis, logger)
	if err != nil {
		logger.Fatal("failed to build stores", zap.Error(err))
	}

	eventPool, err := worker.NewPool("ticket-events", cfg.Worker.EventPoolSize, logger)
	if err != nil {
		logger.Fatal("failed to start event pool", zap.Error(err))
	}
	metrics := observability.NewMetrics()
	dispatcher := events.NewAsyncDispatcher(eventPool, logger)
	service.NewNotificationService(dispatcher, logger)
	for _, eventType := range []events.EventType{events.EventTicketCreated, events.EventTicketApproved, events.EventTicketRejected} {
		dispatcher.Subscribe(eventType, func(_ context.Context, e events.Event) error {
			metrics.RecordEvent(string(e.Type))
			return nil
		})
	}

	clk := clock.Real()
	access := policy.NewAccessPolicy(st.directory)
	ticketService := service.NewTicketService(service.TicketDependencies{
		TicketRepo: st.tickets,
		Directory:  st.directory,
		Numberer:   st.numberer,
		Durations:  timemath.NewCalculator(cfg.Engine.MaxShiftHours),
		Rates:      ratecard.New(st.directory),
		Policy:     access,
		Dispatcher: dispatcher,
		Clock:      clk,
		Logger:     logger,
	})
	aggregationService := service.NewAggregationService(service.AggregationDependencies{
		TicketRepo:           st.tickets,
		Directory:            st.directory,
		Budgets:              st.budgets,
		Capacity:             st.capacity,
		Policy:               access,
		DefaultCapacityHours: decimal.NewFromInt(int64(cfg.Engine.DefaultTeamCapacityHours)),
		Logger:               logger,
	})
	dashboardService := service.NewDashboardService(aggregationService)

	tokens := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenTTLMinutes)
	authService := service.NewAuthService(st.directory, tokens, logger)
	authMiddleware := auth.NewAuthMiddleware(tokens, st.directory)

	app := fiber.New(fiber.Config{AppName: cfg.App.Name, DisableStartupMessage: true})
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())
	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:         handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, metrics, readiness),
		Auth:           handlers.NewAuthHandler(authService),
		Tickets:        handlers.NewTicketsHandler(ticketService),
		Dashboards:     handlers.NewDashboardHandler(aggregationService, dashboardService, clk),
		AuthMiddleware: authMiddleware,
	})

	go func() {
		logger.Info("http server starting", zap.String("addr", cfg.App.Addr()))
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	if err := app.Shutdown(); err != nil {
		logger.Warn("http shutdown", zap.Error(err))
	}
	eventPool.Shutdown(cfg.Worker.ShutdownTimeout())
}

// buildStores picks Postgres adapters when a DSN is configured and in-memory
// ones otherwise. Ticket numbers come from Redis when enabled.
func buildStores(cfg *config.Config, pg *persistence.Postgres, redis *persistence.Redis, logger *zap.Logger) (*stores, error) {
	st := &stores{}
	if pg.Enabled() {
		pool := pg.Pool()
		budgets := repository.NewDepartmentBudgetRepository(pool)
		st.tickets = repository.NewTicketRepository(pool)
		st.directory = repository.NewEmployeeRepository(pool)
		st.budgets = budgets
		st.capacity = budgets
		st.numberer = repository.NewPostgresTicketNumberer(pool, cfg.Engine.TicketPrefix)
	} else {
		directory := repository.NewMemoryDirectory()
		budgets := repository.NewMemoryBudgets()
		if path := cfg.App.SeedFile; path != "" {
			if err := loadSeed(path, directory, budgets, cfg.Auth.BcryptCost); err != nil {
				return nil, err
			}
			logger.Info("seeded in-memory directory", zap.String("file", path))
		}
		st.tickets = repository.NewMemoryTicketRepository()
		st.directory = directory
		st.budgets = budgets
		st.capacity = budgets
		st.numberer = repository.NewMemoryTicketNumberer(cfg.Engine.TicketPrefix)
	}
	if redis != nil {
		st.numberer = repository.NewRedisTicketNumberer(redis.Client, cfg.Engine.TicketPrefix)
	}
	return st, nil
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
