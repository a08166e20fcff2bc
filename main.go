package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"

	appcart "github.com/Zhima-Mochi/minishop-storefront/internal/application/cart"
	appcatalog "github.com/Zhima-Mochi/minishop-storefront/internal/application/catalog"
	appinventory "github.com/Zhima-Mochi/minishop-storefront/internal/application/inventory"
	appnotification "github.com/Zhima-Mochi/minishop-storefront/internal/application/notification"
	apporder "github.com/Zhima-Mochi/minishop-storefront/internal/application/order"
	"github.com/Zhima-Mochi/minishop-storefront/internal/config"
	domcatalog "github.com/Zhima-Mochi/minishop-storefront/internal/domain/catalog"
	domnotification "github.com/Zhima-Mochi/minishop-storefront/internal/domain/notification"
	domorder "github.com/Zhima-Mochi/minishop-storefront/internal/domain/order"
	"github.com/Zhima-Mochi/minishop-storefront/internal/infrastructure/memory"
	"github.com/Zhima-Mochi/minishop-storefront/internal/infrastructure/notify"
	obsprovider "github.com/Zhima-Mochi/minishop-storefront/internal/infrastructure/observability"
	"github.com/Zhima-Mochi/minishop-storefront/internal/infrastructure/observability/oteltrace"
	"github.com/Zhima-Mochi/minishop-storefront/internal/infrastructure/observability/prometrics"
	"github.com/Zhima-Mochi/minishop-storefront/internal/infrastructure/observability/zaplogger"
	"github.com/Zhima-Mochi/minishop-storefront/internal/infrastructure/outbox"
	"github.com/Zhima-Mochi/minishop-storefront/internal/infrastructure/redisstore"
	"github.com/Zhima-Mochi/minishop-storefront/internal/observability"
	httppresentation "github.com/Zhima-Mochi/minishop-storefront/internal/presentation/http"
	workerpresentation "github.com/Zhima-Mochi/minishop-storefront/internal/presentation/worker"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/urfave/cli/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	"golang.org/x/sync/errgroup"
)

func main() {
	app := &cli.App{
		Name:   "minishop",
		Usage:  "pickle storefront: catalog, carts with stock reservations, checkout",
		Action: serve,
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "run the HTTP API and background workers",
				Action: serve,
			},
			{
				Name:   "catalog",
				Usage:  "print the seeded catalog",
				Action: printCatalog,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func serve(c *cli.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	baseLogger, err := zaplogger.New(
		zaplogger.Options{Level: cfg.LogLevel, LogFile: cfg.LogFile},
		observability.F("service", cfg.ServiceName),
		observability.F("env", cfg.Env),
	)
	if err != nil {
		return fmt.Errorf("build logger: %w", err)
	}
	defer func() { _ = baseLogger.Sync() }()
	systemLogger := baseLogger.With(observability.F("component", "main"))

	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{}, propagation.Baggage{},
	))
	registry := prometrics.New(prometheus.DefaultRegisterer, "", "")
	tel := obsprovider.NewPrometheus(registry, oteltrace.New(cfg.ServiceName), baseLogger)

	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Stores
	products := domcatalog.DefaultProducts()
	catalogRepo, err := memory.NewCatalogRepository(products...)
	if err != nil {
		return fmt.Errorf("seed catalog: %w", err)
	}
	ledger := memory.NewInventoryLedger()
	for _, p := range products {
		if err := ledger.Stock(p.ID, p.Stock); err != nil {
			return fmt.Errorf("seed stock %s: %w", p.ID, err)
		}
	}
	cartStore := memory.NewCartStore()

	var (
		orderRepo   domorder.Repository = memory.NewOrderRepository()
		redisClient *redis.Client
	)
	if cfg.RedisEnabled() {
		redisClient, err = redisstore.Open(ctx, cfg.RedisURL)
		if err != nil {
			return err
		}
		defer func() { _ = redisClient.Close() }()
		orderRepo = redisstore.NewOrderRepository(redisClient, "")
		systemLogger.Info("redis_connected")
	}

	// Event bus and notification fan-out
	bus := outbox.NewBus(baseLogger)
	senders := []domnotification.Sender{notify.NewLogSender(baseLogger)}
	if cfg.SMTPEnabled() {
		senders = append(senders, notify.NewSMTPSender(notify.SMTPConfig{
			Host:     cfg.SMTP.Host,
			Port:     cfg.SMTP.Port,
			Username: cfg.SMTP.Username,
			Password: cfg.SMTP.Password,
			From:     cfg.SMTP.From,
		}))
	}
	if redisClient != nil {
		senders = append(senders, notify.NewRedisPublisher(redisClient, cfg.RedisChannel))
	}
	notifier := appnotification.NewService(tel, senders...)
	workerpresentation.NewNotificationWorker(notifier, baseLogger).Register(bus)
	systemLogger.Info("notification_senders", observability.F("senders", notifier.Senders()))

	// Use cases
	inventorySvc := appinventory.NewService(ledger, tel)
	catalogSvc := appcatalog.NewService(catalogRepo, inventorySvc)
	cartSvc := appcart.NewService(catalogRepo, inventorySvc, cartStore, tel)
	placeOrder := apporder.NewPlaceOrderUseCase(orderRepo, cartStore, catalogRepo, inventorySvc,
		apporder.NewTokenGenerator(), bus, tel,
		apporder.Options{IDAttempts: cfg.OrderIDAttempts, PublishTimeout: cfg.PublishTimeout},
	)
	getOrder := apporder.NewGetOrderUseCase(orderRepo)
	sweeper := appcart.NewSweeper(cartSvc, cartStore, cfg.CartIdleTTL, cfg.SweepInterval, baseLogger)

	handler := httppresentation.NewHandler(catalogSvc, cartSvc, placeOrder, getOrder, baseLogger, tel)
	router := handler.Router()
	router.Handle("/metrics", promhttp.Handler())

	server := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: router,
	}

	bus.Start(ctx)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		systemLogger.Info("http_server_start", observability.F("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		return sweeper.Run(gctx)
	})
	g.Go(func() error {
		<-gctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(gctx), cfg.ShutdownTimeout)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			systemLogger.Error("http_server_shutdown_error", observability.F("error", err))
		} else {
			systemLogger.Info("http_server_stopped")
		}
		if err := bus.Stop(shutdownCtx); err != nil {
			systemLogger.Warn("event_bus_drain_incomplete", observability.F("error", err))
		}
		return nil
	})

	return g.Wait()
}

func printCatalog(c *cli.Context) error {
	w := tabwriter.NewWriter(c.App.Writer, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tCATEGORY\tPRICE\tSTOCK")
	for _, p := range domcatalog.DefaultProducts() {
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%d\n", p.ID, p.Name, p.Category, p.Price, p.Stock)
	}
	return w.Flush()
}
