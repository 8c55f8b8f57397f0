package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	httptransport "github.com/spec-kit/support-desk/internal/api/http"
	"github.com/spec-kit/support-desk/internal/api/http/handlers"
	"github.com/spec-kit/support-desk/internal/auth"
	"github.com/spec-kit/support-desk/internal/events"
	"github.com/spec-kit/support-desk/internal/notify"
	"github.com/spec-kit/support-desk/internal/observability"
	"github.com/spec-kit/support-desk/internal/persistence"
	"github.com/spec-kit/support-desk/internal/service"
	"github.com/spec-kit/support-desk/internal/worker"
)

const shutdownTimeout = 10 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API (default)",
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	a, err := bootstrap(ctx)
	if err != nil {
		return err
	}
	defer a.close()
	cfg, logger := a.cfg, a.logger

	if a.pg.Enabled() && cfg.Postgres.RunMigrations {
		if err := persistence.RunMigrations(ctx, a.pg.Pool, logger, persistence.MigrateUp); err != nil {
			logger.Error("failed to run migrations", zap.Error(err))
			return err
		}
	}

	metrics := observability.NewMetrics()
	dispatcher := events.NewInMemoryDispatcher()

	notifier := service.NewNotificationService(service.NotificationDependencies{
		TicketRepo: a.stores.tickets,
		UserRepo:   a.stores.users,
		Mailer:     notify.NewMailer(cfg.Notify, logger),
		Webhook:    notify.NewWebhook(cfg.Notify.WebhookURL, cfg.Notify.Timeout()),
		Logger:     logger,
	})
	deliveries := []events.EventHandler{notifier.Handle}
	if writer := events.NewKafkaWriter(cfg.Kafka.Brokers, cfg.Kafka.Topic); writer != nil {
		sink := events.NewKafkaSink(writer, logger)
		defer sink.Close() //nolint:errcheck
		deliveries = append(deliveries, sink.Handle)
		logger.Info("ticket events forwarded to kafka", zap.String("topic", cfg.Kafka.Topic))
	}
	notifications := worker.StartNotificationWorker(ctx, dispatcher, cfg.Notify.QueueSize, logger, deliveries...)
	defer notifications.Stop()

	authService := service.NewAuthService(cfg.Auth, service.AuthDependencies{
		UserRepo:  a.stores.users,
		Blacklist: a.stores.blacklist,
		Logger:    logger,
	})
	ticketService := service.NewTicketService(service.TicketDependencies{
		TicketRepo:  a.stores.tickets,
		CommentRepo: a.stores.comments,
		UserRepo:    a.stores.users,
		Dispatcher:  dispatcher,
		Metrics:     metrics,
		Logger:      logger,
	})
	userService := service.NewUserService(a.stores.users, logger)

	var limiterClient redis.UniversalClient
	if a.redis.Enabled() {
		limiterClient = a.redis.Client
	}

	server := httptransport.NewApp(cfg.App.Name, logger, metrics)
	httptransport.RegisterMiddlewares(server, logger, metrics, cfg.App.RequestTimeout())
	httptransport.RegisterRoutes(server, httptransport.RouteConfig{
		Health: handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, map[string]handlers.Pinger{
			"postgres": a.pg,
			"redis":    a.redis,
		}),
		Auth:           handlers.NewAuthHandler(authService),
		Users:          handlers.NewUsersHandler(userService),
		Tickets:        handlers.NewTicketsHandler(ticketService, cfg.Pagination),
		AuthMiddleware: auth.NewAuthMiddleware(authService.TokenManager(), a.stores.users),
		AuthLimiter:    httptransport.NewAuthLimiter(cfg.RateLimit, limiterClient, a.redis.Keyspace("throttle")),
		Metrics:        metrics.Handler(),
	})

	errCh := make(chan error, 1)
	go func() {
		logger.Info("http server listening", zap.String("addr", cfg.App.Addr()))
		errCh <- server.Listen(cfg.App.Addr())
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	select {
	case sig := <-sigCh:
		logger.Info("shutting down", zap.String("signal", sig.String()))
	case err := <-errCh:
		if err != nil {
			logger.Error("fiber listen", zap.Error(err))
			return err
		}
	}

	return server.ShutdownWithTimeout(shutdownTimeout)
}
