package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"staynest/internal/app/commands"
	analyticsapp "staynest/internal/app/handlers/analytics"
	cancellationapp "staynest/internal/app/handlers/cancellation"
	checkoutapp "staynest/internal/app/handlers/checkout"
	meapp "staynest/internal/app/handlers/me"
	membershipapp "staynest/internal/app/handlers/membership"
	walletapp "staynest/internal/app/handlers/wallet"
	"staynest/internal/app/middleware"
	appoutbox "staynest/internal/app/outbox"
	"staynest/internal/app/policies"
	"staynest/internal/app/queries"
	"staynest/internal/app/schedule"
	"staynest/internal/app/uow"
	domaincancel "staynest/internal/domain/cancellation"
	"staynest/internal/infra/broker/kafka"
	"staynest/internal/infra/cache"
	"staynest/internal/infra/config"
	mongodb "staynest/internal/infra/db/mongo"
	ginserver "staynest/internal/infra/http/gin"
	"staynest/internal/infra/notify"
	"staynest/internal/infra/obs"
	infraoutbox "staynest/internal/infra/outbox"
	"staynest/internal/infra/payments"
	"staynest/internal/infra/storage/memory"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	env := getenv("APP_ENV", "dev")
	logger := obs.NewLogger(env)

	cfg, err := config.Load()
	if err != nil {
		logger.Warn("using fallback in-memory configuration", "error", err)
		cfg.Env = env
		cfg.HTTPAddr = getenv("HTTP_ADDR", ":8080")
		cfg.GatewayOrderTTL = 30 * time.Minute
		cfg.SweepInterval = time.Minute
	}
	if cfg.HTTPAddr == "" {
		cfg.HTTPAddr = ":8080"
	}

	app, err := buildApplication(cfg, logger)
	if err != nil {
		logger.Error("application wiring failed", "error", err)
		os.Exit(1)
	}

	server := ginserver.NewServer(cfg, obs.Middleware{Logger: logger}, obs.HealthHandlers{
		Ready: app.ready,
	}, app.handlers)

	for _, job := range app.background {
		go func(run func(context.Context) error) {
			if err := run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				logger.Error("background job stopped", "error", err)
			}
		}(job)
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("http shutdown failed", "error", err)
		}
	}()

	logger.Info("HTTP server starting", "addr", cfg.HTTPAddr)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("http server failed", "error", err)
		os.Exit(1)
	}
	logger.Info("HTTP server stopped")
}

type application struct {
	handlers   ginserver.Handlers
	background []func(context.Context) error
	ready      func() error
}

func buildApplication(cfg config.Config, logger *slog.Logger) (application, error) {
	gateway := payments.NewClient(cfg.GatewayBaseURL, cfg.GatewayKeyID, cfg.GatewayKeySecret)

	if cfg.MongoURI == "" {
		logger.Info("no MONGO_URI configured, running on in-memory stores")
		return buildMemoryApplication(cfg, gateway, logger), nil
	}
	return buildMongoApplication(cfg, gateway, logger)
}

func buildMongoApplication(cfg config.Config, gateway policies.PaymentGateway, logger *slog.Logger) (application, error) {
	client, err := mongodb.New(cfg.MongoURI, cfg.MongoDB)
	if err != nil {
		return application{}, err
	}

	uowFactory := mongodb.Factory{
		DB:           client.DB,
		UsersRepo:    mongodb.NewUserRepository(client.DB),
		WalletsRepo:  mongodb.NewWalletRepository(client.DB),
		BookingsRepo: mongodb.NewBookingRepository(client.DB),
		ListingsRepo: mongodb.NewListingRepository(client.DB),
	}
	outboxStore := infraoutbox.NewStore(client.DB)
	idStore := mongodb.NewIdempotencyStore(client.DB)

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	locks := cache.NewWalletLocks(redisClient)

	app := assemble(deps{
		cfg:        cfg,
		uowFactory: uowFactory,
		gateway:    gateway,
		locks:      locks,
		outbox:     outboxStore,
		idStore:    idStore,
		logger:     logger,
	})
	app.ready = func() error {
		pingCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := client.Ping(pingCtx); err != nil {
			return err
		}
		return redisClient.Ping(pingCtx).Err()
	}

	if len(cfg.KafkaBrokers) > 0 {
		producer, err := kafka.NewProducer(cfg.KafkaBrokers, nil)
		if err != nil {
			return application{}, err
		}
		worker := &infraoutbox.Worker{
			Store:       outboxStore,
			Producer:    producer,
			Interval:    cfg.OutboxPollInterval,
			TopicPrefix: cfg.KafkaTopicPrefix,
			Backoff:     cfg.RetryBackoff,
		}
		app.background = append(app.background, worker.Run)

		if cfg.KafkaConsumerGroup != "" {
			relay, err := kafka.NewConsumer(cfg.KafkaBrokers, cfg.KafkaConsumerGroup, nil, &notify.Relay{Logger: logger})
			if err != nil {
				return application{}, err
			}
			topics := notify.Topics(cfg.KafkaTopicPrefix)
			app.background = append(app.background, func(ctx context.Context) error {
				defer relay.Close()
				return relay.Run(ctx, topics)
			})
		}
	}
	return app, nil
}

func buildMemoryApplication(cfg config.Config, gateway policies.PaymentGateway, logger *slog.Logger) application {
	uowFactory := memory.Factory{
		UsersRepo:    memory.NewUserRepository(),
		WalletsRepo:  memory.NewWalletRepository(),
		BookingsRepo: memory.NewBookingRepository(),
		ListingsRepo: memory.NewListingRepository(),
	}
	app := assemble(deps{
		cfg:        cfg,
		uowFactory: uowFactory,
		gateway:    gateway,
		locks:      cache.NewLocalLocks(),
		outbox:     memory.NewOutbox(),
		idStore:    memory.NewIdempotencyStore(),
		logger:     logger,
	})
	app.ready = func() error { return nil }
	return app
}

type deps struct {
	cfg        config.Config
	uowFactory uow.UoWFactory
	gateway    policies.PaymentGateway
	locks      policies.UserLocks
	outbox     appoutbox.Outbox
	idStore    middleware.IdempotencyStore
	logger     *slog.Logger
}

func assemble(d deps) application {
	encoder := appoutbox.JSONEventEncoder{}

	commandBus := commands.NewInMemoryBus()
	commands.RegisterHandler(commandBus, checkoutapp.PlaceBookingCommand{}.Key(), &checkoutapp.PlaceBookingHandler{
		UoWFactory: d.uowFactory,
		Gateway:    d.gateway,
		Locks:      d.locks,
		Outbox:     d.outbox,
		Encoder:    encoder,
	})
	commands.RegisterHandler(commandBus, checkoutapp.ConfirmPaymentCommand{}.Key(), &checkoutapp.ConfirmPaymentHandler{
		UoWFactory:   d.uowFactory,
		Gateway:      d.gateway,
		Locks:        d.locks,
		Outbox:       d.outbox,
		Encoder:      encoder,
		OrderTimeout: d.cfg.GatewayOrderTTL,
	})
	commands.RegisterHandler(commandBus, cancellationapp.CancelBookingCommand{}.Key(), &cancellationapp.CancelBookingHandler{
		UoWFactory: d.uowFactory,
		Engine:     domaincancel.NewEngine(nil),
		Locks:      d.locks,
		Outbox:     d.outbox,
		Encoder:    encoder,
	})
	commands.RegisterHandler(commandBus, walletapp.RedeemPointsCommand{}.Key(), &walletapp.RedeemPointsHandler{
		UoWFactory: d.uowFactory,
		Locks:      d.locks,
		Outbox:     d.outbox,
		Encoder:    encoder,
	})
	commands.RegisterHandler(commandBus, membershipapp.ActivateMembershipCommand{}.Key(), &membershipapp.ActivateMembershipHandler{
		UoWFactory: d.uowFactory,
	})

	queryBus := queries.NewInMemoryBus()
	queries.RegisterHandler(queryBus, checkoutapp.GetQuoteQuery{}.Key(), &checkoutapp.GetQuoteHandler{UoWFactory: d.uowFactory})
	queries.RegisterHandler(queryBus, walletapp.GetStatementQuery{}.Key(), &walletapp.GetStatementHandler{UoWFactory: d.uowFactory})
	queries.RegisterHandler(queryBus, meapp.ListBookingsQuery{}.Key(), &meapp.ListBookingsHandler{UoWFactory: d.uowFactory})
	queries.RegisterHandler(queryBus, analyticsapp.RevenueSeriesQuery{}.Key(), &analyticsapp.RevenueSeriesHandler{UoWFactory: d.uowFactory})
	queries.RegisterHandler(queryBus, analyticsapp.OwnerRollupQuery{}.Key(), &analyticsapp.OwnerRollupHandler{UoWFactory: d.uowFactory})
	queries.RegisterHandler(queryBus, analyticsapp.TopHotelsQuery{}.Key(), &analyticsapp.TopHotelsHandler{UoWFactory: d.uowFactory})

	commandBusWithMiddleware := middleware.ChainCommands(
		commandBus,
		middleware.Idempotency(d.idStore, nil),
		middleware.Transaction(d.uowFactory, nil),
		middleware.OutboxFlush(d.outbox),
	)
	queryBusWithMiddleware := middleware.ChainQueries(queryBus)

	sweeper := &schedule.AbandonedOrderSweeper{
		UoWFactory:   d.uowFactory,
		Outbox:       d.outbox,
		Encoder:      encoder,
		OrderTimeout: d.cfg.GatewayOrderTTL,
		Interval:     d.cfg.SweepInterval,
		Logger:       d.logger,
	}

	return application{
		handlers: ginserver.Handlers{
			Checkout: ginserver.CheckoutHandler{
				Commands: commandBusWithMiddleware,
				Queries:  queryBusWithMiddleware,
			},
			Booking: ginserver.BookingHandler{
				Commands: commandBusWithMiddleware,
			},
			Wallet: ginserver.WalletHandler{
				Commands: commandBusWithMiddleware,
				Queries:  queryBusWithMiddleware,
			},
			Me: ginserver.MeHandler{
				Commands: commandBusWithMiddleware,
				Queries:  queryBusWithMiddleware,
			},
			Analytics: ginserver.AnalyticsHandler{
				Queries: queryBusWithMiddleware,
			},
			IdentityMiddleware: ginserver.IdentityMiddleware{}.Handle,
		},
		background: []func(context.Context) error{sweeper.Run},
	}
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
