package main

import (
	"context"
	"encoding/json"
	"flag"
	"os"
	"os/signal"

	"github.com/sirupsen/logrus"

	"github.com/omni/bridge-explorer/config"
	"github.com/omni/bridge-explorer/entity"
	"github.com/omni/bridge-explorer/indexer"
	"github.com/omni/bridge-explorer/logging"
	"github.com/omni/bridge-explorer/search"
	"github.com/omni/bridge-explorer/store"
)

var (
	configPath     = flag.String("config", "config.yml", "path to the yaml config file")
	query          = flag.String("q", "", "address, transaction hash, block level or token symbol to search for")
	withdrawalType = flag.String("type", "all", "withdrawal type filter: all, normal or fast")
	hash           = flag.String("hash", "", "transaction hash to look up details for")
	page           = flag.Int("page", 1, "page of the search results to print")
)

func main() {
	flag.Parse()

	logger := logging.New()
	logger.SetOutput(os.Stderr)

	cfg, err := config.ReadConfig(*configPath)
	if err != nil {
		logger.WithError(err).Fatal("can't read config")
	}
	logger.SetLevel(cfg.LogLevel)

	if (*query == "") == (*hash == "") {
		logger.Fatal("exactly one of -q or -hash should be specified")
	}

	network := cfg.ActiveNetwork()
	client := indexer.NewClient(network.IndexerURL, indexer.Options{
		Timeout:     cfg.Indexer.Timeout,
		MaxAttempts: cfg.Indexer.MaxAttempts,
		RetryDelay:  cfg.Indexer.RetryDelay,
		Logger:      logger,
	})
	s, err := store.New(client, cfg.Store, logger)
	if err != nil {
		logger.WithError(err).Fatal("can't create bridge transactions store")
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	var txs []*entity.BridgeTransaction
	if *hash != "" {
		txs, err = s.Lookup(ctx, *hash)
		if err != nil {
			logger.WithError(err).WithField("hash", *hash).Fatal("can't look up bridge transaction")
		}
	} else {
		filter, err2 := search.BuildFilter(*query, *withdrawalType)
		if err2 != nil {
			logger.WithError(err2).Fatal("can't parse search query")
		}
		if _, err2 = s.Replace(ctx, filter); err2 != nil {
			logger.WithError(err2).Fatal("can't search bridge transactions")
		}
		txs = s.Page(*page)
		logger.WithFields(logrus.Fields{
			"total": s.Len(),
			"page":  *page,
			"pages": s.PageCount(),
		}).Info("found bridge transactions")
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	for _, tx := range txs {
		tx.Raw = nil
		if err = enc.Encode(tx); err != nil {
			logger.WithError(err).Fatal("can't encode bridge transaction")
		}
	}
}
