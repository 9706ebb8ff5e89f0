package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"myfinance/api"
	"myfinance/events"
	"myfinance/handlers"
	"myfinance/middleware"
	"myfinance/services"
)

const shutdownTimeout = 10 * time.Second

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context())
		},
	}
}

func runServe(ctx context.Context) error {
	if cfg.IsDevelopment() {
		logger.Info("Running in development environment")
	}

	dispatcher := events.NewDispatcher(logger)
	engine, db, cleanup, err := openEngine(ctx, cfg)
	if err != nil {
		return err
	}
	defer cleanup()
	engine.OnFiltersChange(dispatcher.FiltersChanged)

	hub := events.NewHub(logger, middleware.OriginChecker(cfg.CORS.AllowedOrigins, cfg.IsDevelopment()))
	dispatcher.Add(hub)

	if cfg.AMQP.URL != "" {
		publisher, err := events.NewAMQPPublisher(cfg.AMQP.URL, cfg.AMQP.Exchange, cfg.AMQP.RoutingKey, logger)
		if err != nil {
			logger.Warn("AMQP disabled, failed to connect", "error", err)
		} else {
			defer publisher.Close()
			dispatcher.Add(publisher)
			logger.Info("Publishing filter events", "exchange", cfg.AMQP.Exchange)
		}
	}

	h := handlers.New(services.NewTransactionStore(db), services.NewCategoryStore(db), engine, hub, logger)
	server := api.NewServer(h, api.Options{
		AllowedOrigins: cfg.CORS.AllowedOrigins,
		Permissive:     cfg.IsDevelopment(),
		Logger:         logger,
	})

	srv := &http.Server{
		Handler:      server.Handler(),
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		WriteTimeout: cfg.Server.WriteTimeout,
		ReadTimeout:  cfg.Server.ReadTimeout,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return hub.Run(gctx)
	})

	g.Go(func() error {
		return services.RunScheduler(gctx, engine, logger)
	})

	g.Go(func() error {
		logger.Info("Starting server", "port", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("Shutting down server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
