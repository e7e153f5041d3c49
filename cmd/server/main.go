package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/kiwari-pos/printer/internal/config"
	"github.com/kiwari-pos/printer/internal/dispatch"
	"github.com/kiwari-pos/printer/internal/document"
	"github.com/kiwari-pos/printer/internal/handler"
	"github.com/kiwari-pos/printer/internal/journal"
	"github.com/kiwari-pos/printer/internal/logging"
	"github.com/kiwari-pos/printer/internal/messaging"
	"github.com/kiwari-pos/printer/internal/orderapi"
	"github.com/kiwari-pos/printer/internal/reconcile"
	"github.com/kiwari-pos/printer/internal/render"
	"github.com/kiwari-pos/printer/internal/router"
	"github.com/kiwari-pos/printer/internal/routing"
	"github.com/kiwari-pos/printer/internal/service"
	"github.com/kiwari-pos/printer/internal/spool"
	"github.com/kiwari-pos/printer/internal/ws"
)

const serviceTokenTTL = time.Minute

func main() {
	logging.Setup()
	if err := run(); err != nil {
		slog.Error("server stopped", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg := config.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Order API
	token := orderapi.StaticToken(cfg.OrdersAPIToken)
	if cfg.OrdersAPIToken == "" && cfg.OrdersAPISecret != "" {
		token = orderapi.SignedToken(cfg.OrdersAPISecret, "printer", serviceTokenTTL)
	}
	orders := orderapi.NewClient(cfg.OrdersAPIURL, token, &http.Client{Timeout: cfg.HTTPTimeout})

	// Print pipeline
	labels := document.DefaultLabels()
	labels.Brand = cfg.BrandName
	labels.Tagline = cfg.BrandTagline

	var spooler spool.Spooler = spool.NewCommand(cfg.SpoolCommand)
	if cfg.SpoolCommand == "none" {
		slog.Warn("spooling disabled, documents are rendered and discarded")
		spooler = spool.Discard{}
	}
	coordinator := dispatch.NewCoordinator(render.NewPDF(cfg.FontPath), spooler, cfg.SpoolDir,
		dispatch.WithConcurrency(cfg.DispatchConcurrency))

	hub := ws.NewHub()
	go hub.Run(ctx)

	opts := []service.Option{service.WithNotifier(hub)}
	if cfg.DatabaseURL != "" {
		pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
		if err != nil {
			return fmt.Errorf("connect database: %w", err)
		}
		defer pool.Close()

		j := journal.NewPostgres(pool)
		if err := j.EnsureSchema(ctx); err != nil {
			return err
		}
		opts = append(opts, service.WithJournal(j))
		slog.Info("print journal enabled")
	}

	svc := service.NewPrintService(
		routing.NewTable(cfg.CategoryPrinters, cfg.DefaultPrinter),
		document.NewComposer(labels),
		coordinator,
		reconcile.NewReconciler(orders, cfg.ReconcileConcurrency),
		cfg.CustomerPrinter,
		opts...,
	)

	if cfg.AMQPURL != "" {
		consumer := messaging.NewConsumer(cfg.AMQPURL, cfg.AMQPQueue, cfg.DispatchConcurrency, messaging.NewHandler(svc))
		go func() {
			if err := consumer.Run(ctx); err != nil {
				slog.Error("print request consumer stopped", "error", err)
			}
		}()
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router.New(cfg, handler.NewPrintHandler(svc, orders), hub),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			slog.Error("shutdown", "error", err)
		}
	}()

	slog.Info("starting server",
		"port", cfg.Port,
		"default_printer", cfg.DefaultPrinter,
		"customer_printer", cfg.CustomerPrinter,
		"category_printers", len(cfg.CategoryPrinters),
		"environment", logging.Environment(os.Getenv))
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
