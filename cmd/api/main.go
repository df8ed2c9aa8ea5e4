package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"go.uber.org/zap"

	httpapi "github.com/Im-Moazzam/Ticketing-System/internal/api/http"
	"github.com/Im-Moazzam/Ticketing-System/internal/api/http/handlers"
	"github.com/Im-Moazzam/Ticketing-System/internal/auth"
	"github.com/Im-Moazzam/Ticketing-System/internal/biztime"
	"github.com/Im-Moazzam/Ticketing-System/internal/config"
	"github.com/Im-Moazzam/Ticketing-System/internal/events"
	"github.com/Im-Moazzam/Ticketing-System/internal/notification"
	"github.com/Im-Moazzam/Ticketing-System/internal/observability"
	"github.com/Im-Moazzam/Ticketing-System/internal/persistence"
	"github.com/Im-Moazzam/Ticketing-System/internal/ratelimit"
	"github.com/Im-Moazzam/Ticketing-System/internal/repository"
	"github.com/Im-Moazzam/Ticketing-System/internal/scheduler"
	"github.com/Im-Moazzam/Ticketing-System/internal/service"
	"github.com/Im-Moazzam/Ticketing-System/internal/storage"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logger, err := observability.NewLogger(cfg.Logger)
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	biztime.MustInit(cfg.App.Timezone)
	metrics := observability.NewMetrics()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		logger.Fatal("postgres connection failed", zap.Error(err))
	}
	defer pg.Close()

	if cfg.Postgres.RunMigrations {
		if err := persistence.RunMigrations(ctx, pg.PoolHandle(), logger); err != nil {
			logger.Fatal("migrations failed", zap.Error(err))
		}
	}

	rdb := persistence.NewRedis(cfg.Redis, logger)
	defer rdb.Close()

	userRepo := repository.NewUserRepository(pg.PoolHandle())
	ticketRepo := repository.NewTicketRepository(pg.PoolHandle())
	commentRepo := repository.NewCommentRepository(pg.PoolHandle())

	blobs, err := newBlobStore(ctx, cfg.Storage, logger)
	if err != nil {
		logger.Fatal("storage init failed", zap.Error(err))
	}

	var sink notification.Sink
	if cfg.Mail.Host != "" {
		sink = notification.NewSMTPSink(cfg.Mail, logger, metrics)
	} else {
		logger.Warn("MAIL_HOST not set; notifications will be logged only")
		sink = notification.NewLogSink(logger)
	}

	dispatcher := events.NewInMemoryDispatcher()
	service.NewNotificationService(sink, logger, cfg.Mail.OpsMailbox, cfg.Mail.SendTimeout()).
		RegisterHandlers(dispatcher)

	tokens := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenTTLMinutes)
	authService := service.NewAuthService(userRepo, tokens, sink, logger, cfg.Auth.BcryptCost)
	if err := authService.SeedAdmin(ctx, cfg.Admin); err != nil {
		logger.Fatal("admin seeding failed", zap.Error(err))
	}

	ticketService := service.NewTicketService(service.TicketDependencies{
		TicketRepo:  ticketRepo,
		CommentRepo: commentRepo,
		UserRepo:    userRepo,
		BlobStore:   blobs,
		Dispatcher:  dispatcher,
	})

	reminder := scheduler.NewReminder(ticketRepo, userRepo, dispatcher, logger, cfg.Scheduler.ReminderInterval())
	reminder.Start(ctx)
	defer reminder.Stop()

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ReadTimeout:  cfg.App.RequestTimeout(),
		WriteTimeout: cfg.App.RequestTimeout(),
		ErrorHandler: httpapi.NewErrorHandler(logger, metrics),
	})
	app.Use(recover.New())

	httpapi.RegisterRoutes(app, httpapi.RouterDeps{
		Logger:      logger,
		Metrics:     metrics,
		AuthMW:      auth.NewAuthMiddleware(tokens, userRepo),
		AuthLimiter: ratelimit.NewLimiter(rdb.Client, cfg.RateLimit.AuthRequestsPerMinute, time.Minute),
		Health:      handlers.NewHealthHandler(cfg.App.Version, pg, rdb),
		Auth:        handlers.NewAuthHandler(authService),
		Tickets:     handlers.NewTicketHandler(ticketService),
		Admin:       handlers.NewAdminHandler(ticketService),
	})

	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Error("server stopped", zap.Error(err))
			stop()
		}
	}()
	logger.Info("server listening",
		zap.String("addr", cfg.App.Addr()),
		zap.String("env", cfg.App.Env),
		zap.String("version", cfg.App.Version),
	)

	<-ctx.Done()
	logger.Info("shutting down")
	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		logger.Error("shutdown error", zap.Error(err))
	}
}

func newBlobStore(ctx context.Context, cfg config.StorageConfig, logger *zap.Logger) (storage.BlobStore, error) {
	switch cfg.Driver {
	case "s3":
		logger.Info("using s3 attachment storage", zap.String("bucket", cfg.S3.Bucket))
		store, err := storage.NewS3Store(ctx, cfg.S3)
		if err != nil {
			return nil, err
		}
		return store, nil
	default:
		logger.Info("using disk attachment storage", zap.String("dir", cfg.UploadDir))
		store, err := storage.NewDiskStore(cfg.UploadDir)
		if err != nil {
			return nil, err
		}
		return store, nil
	}
}
