package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"github.com/omni/bridge-explorer/config"
	"github.com/omni/bridge-explorer/entity"
	"github.com/omni/bridge-explorer/indexer"
	"github.com/omni/bridge-explorer/logging"
	"github.com/omni/bridge-explorer/monitor"
	"github.com/omni/bridge-explorer/presenter"
	"github.com/omni/bridge-explorer/store"
)

var configPath = flag.String("config", "config.yml", "path to the yaml config file")

func main() {
	flag.Parse()

	logger := logging.New()

	cfg, err := config.ReadConfig(*configPath)
	if err != nil {
		logger.WithError(err).Fatal("can't read config")
	}
	logger.SetLevel(cfg.LogLevel)

	network := cfg.ActiveNetwork()
	netLogger := logger.WithField("network", network.Name)
	client := indexer.NewClient(network.IndexerURL, indexer.Options{
		Timeout:      cfg.Indexer.Timeout,
		MaxAttempts:  cfg.Indexer.MaxAttempts,
		RetryDelay:   cfg.Indexer.RetryDelay,
		RPS:          cfg.Indexer.RPS,
		Burst:        cfg.Indexer.Burst,
		DefaultLimit: cfg.Store.BatchSize,
		Logger:       netLogger.WithField("service", "indexer"),
	})
	s, err := store.New(client, cfg.Store, netLogger.WithField("service", "store"))
	if err != nil {
		logger.WithError(err).Fatal("can't create bridge transactions store")
	}
	refresher := monitor.NewRefresher(s, cfg.Refresh.Interval, netLogger.WithField("service", "refresher"))

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()
	g, ctx := errgroup.WithContext(ctx)

	if cfg.Metrics != nil {
		g.Go(func() error {
			return serveMetrics(ctx, cfg.Metrics.Host)
		})
	}
	if cfg.Presenter.Host != "" {
		pr := presenter.NewPresenter(ctx, netLogger.WithField("service", "presenter"), s, refresher, presenter.Options{
			Network: network.Name,
			Indexer: network.IndexerURL,
			Explorers: presenter.Explorers{
				L1: network.L1Explorer,
				L2: network.L2Explorer,
			},
		})
		g.Go(func() error {
			return pr.Serve(ctx, cfg.Presenter.Host)
		})
	}

	g.Go(func() error {
		diff, err2 := s.Replace(ctx, entity.Filter{})
		if err2 != nil {
			// the refresher retries the initial load on its next tick
			netLogger.WithError(err2).Error("initial load of bridge transactions failed")
		} else {
			netLogger.WithField("count", len(diff.Inserted)).Info("loaded bridge transactions")
		}
		if cfg.Refresh.Enabled {
			refresher.Start(ctx)
		}
		<-ctx.Done()
		refresher.Stop()
		return nil
	})

	if err = g.Wait(); err != nil {
		logger.WithError(err).Fatal("bridge explorer terminated")
	}
	logger.Warn("caught CTRL-C, gracefully terminated")
}

func serveMetrics(ctx context.Context, addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 10 * time.Second}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
