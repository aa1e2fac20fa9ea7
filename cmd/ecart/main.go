package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/nikolayk812/ecart-demo/internal/config"
	"github.com/nikolayk812/ecart-demo/internal/dbconn"
	"github.com/nikolayk812/ecart-demo/internal/httpapi"
	"github.com/nikolayk812/ecart-demo/internal/logging"
	"github.com/nikolayk812/ecart-demo/internal/repository"
	"github.com/nikolayk812/ecart-demo/internal/service"
	"github.com/nikolayk812/ecart-demo/internal/tracing"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

func main() {
	configPath := flag.String("c", os.Getenv("ECART_CONFIG"), "path to the YAML config file")
	flag.Parse()

	if err := run(*configPath); err != nil {
		logrus.WithError(err).Fatal("ecart stopped")
	}
}

func run(configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("config.Load: %w", err)
	}

	logger, logCloser, err := logging.New(cfg.Logger)
	if err != nil {
		return fmt.Errorf("logging.New: %w", err)
	}
	defer logCloser.Close()

	log := logrus.NewEntry(logger).WithField("service", cfg.Tracing.ServiceName)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	tp, err := tracing.Init(ctx, cfg.Tracing)
	if err != nil {
		return fmt.Errorf("tracing.Init: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
		defer cancel()
		if err := tp.Shutdown(shutdownCtx); err != nil {
			log.WithError(err).Warn("tracer provider shutdown")
		}
	}()

	mgr, err := dbconn.New(cfg.Database, log, dbconn.WithOnConnect(repository.Migrate))
	if err != nil {
		return fmt.Errorf("dbconn.New: %w", err)
	}

	store := repository.NewStore(mgr, cfg.Database.QueryTimeout)

	e := httpapi.New(httpapi.Deps{
		Catalog:  service.NewCatalog(store),
		Cart:     service.NewCart(store, log),
		Checkout: service.NewCheckout(store, log),
		Database: mgr,
		Instance: cfg.Instance,
		Log:      log,
	})

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return mgr.Run(gctx)
	})

	g.Go(func() error {
		log.WithField("addr", cfg.HTTP.Addr).Info("http server listening")
		if err := e.Start(cfg.HTTP.Addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("e.Start: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
		defer cancel()

		log.Info("shutting down http server")
		return e.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		return err
	}

	log.Info("ecart stopped")
	return nil
}
