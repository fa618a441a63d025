package main

import (
	"context"
	"fmt"
	"slices"

	"github.com/dailyyoga/coinframe/ch"
	"github.com/dailyyoga/coinframe/coingecko"
	"github.com/dailyyoga/coinframe/cron"
	"github.com/dailyyoga/coinframe/db"
	"github.com/dailyyoga/coinframe/kafka"
	"github.com/dailyyoga/coinframe/kvstore"
	"github.com/dailyyoga/coinframe/logger"
	"github.com/dailyyoga/coinframe/payload"
	"github.com/dailyyoga/coinframe/refresh"
	"github.com/dailyyoga/coinframe/render"
	"github.com/dailyyoga/coinframe/routine"
	"github.com/dailyyoga/coinframe/server"
	"go.uber.org/zap"
)

// app owns every long-lived component; closers run in reverse order
type app struct {
	log     logger.Logger
	server  *server.Server
	cron    cron.Cron
	closers []func()
}

func (a *app) onClose(fn func()) {
	a.closers = append(a.closers, fn)
}

func (a *app) close() {
	for _, fn := range slices.Backward(a.closers) {
		fn()
	}
	a.closers = nil
}

func newApp(ctx context.Context, log logger.Logger, cfg *Config) (a *app, err error) {
	a = &app{log: log}
	cfg.Server.MergeDefaults()
	defer func() {
		if err != nil {
			a.close()
		}
	}()

	store, err := kvstore.New(log, cfg.Store)
	if err != nil {
		return nil, err
	}
	a.onClose(func() { _ = store.Close() })

	client, err := coingecko.NewClient(log, cfg.CoinGecko)
	if err != nil {
		return nil, err
	}

	candidates, err := a.candidateSource(log, client, cfg)
	if err != nil {
		return nil, err
	}
	fetcher := coingecko.NewFetcher(log, client, candidates)

	renderer, err := render.New(cfg.Render)
	if err != nil {
		return nil, err
	}

	observers, history, err := a.sinks(ctx, log, cfg)
	if err != nil {
		return nil, err
	}

	coordinator, err := refresh.New(log, store, fetcher, renderer, cfg.Refresh, refresh.WithObservers(observers...))
	if err != nil {
		return nil, err
	}
	cfg.Server.CacheMaxAge = coordinator.Config().CacheTTL
	var opts []server.Option
	if history != nil {
		opts = append(opts, server.WithHistory(history))
	}
	a.server, err = server.New(log, cfg.Server, coordinator, store, opts...)
	if err != nil {
		return nil, err
	}

	a.cron = cron.NewCron(log)
	a.onClose(a.cron.Close)
	if len(cfg.Warm.Selectors) == 0 {
		cfg.Warm.Selectors = []payload.Selector{cfg.Server.Selector}
	}
	if err := cron.RegisterWarmer(a.cron, log, coordinator, cfg.Warm); err != nil {
		return nil, err
	}

	return a, nil
}

// candidateSource keeps the default random category in a synced pool.
// When the first sync fails the client is queried on every refresh.
func (a *app) candidateSource(log logger.Logger, client *coingecko.Client, cfg *Config) (coingecko.CandidateSource, error) {
	sel := cfg.Server.Selector
	if sel.Mode != payload.ModeRandom {
		return client, nil
	}

	pool, err := coingecko.NewPool(log, client, sel.Category, cfg.Pool)
	if err != nil {
		return nil, err
	}
	if err := pool.Start(); err != nil {
		log.Warn("candidate pool unavailable, listing per refresh",
			zap.String("category", sel.Category),
			zap.Error(err),
		)
		return client, nil
	}
	a.onClose(pool.Stop)
	return pool, nil
}

// sinks builds the configured refresh observers
func (a *app) sinks(ctx context.Context, log logger.Logger, cfg *Config) ([]refresh.Observer, server.History, error) {
	var (
		observers []refresh.Observer
		history   server.History
	)

	if cfg.ClickHouse != nil {
		if cfg.ClickHouse.WriterConfig == nil {
			cfg.ClickHouse.WriterConfig = ch.DefaultWriterConfig()
		}
		client, err := ch.NewClient(cfg.ClickHouse, log)
		if err != nil {
			return nil, nil, err
		}
		a.onClose(func() { _ = client.Close() })

		table := ch.TableName(cfg.ClickHouse.MergeDefaults().EventTable)
		if err := ch.EnsureEventTable(ctx, client, table); err != nil {
			return nil, nil, err
		}
		writer, err := client.Writer()
		if err != nil {
			return nil, nil, err
		}
		if err := writer.Start(); err != nil {
			return nil, nil, err
		}
		observers = append(observers, ch.NewEventSink(log, writer, table))
		log.Info("refresh events recorded in clickhouse", zap.String("table", string(table)))
	}

	if cfg.Kafka != nil {
		producer, err := kafka.NewProducer(log, cfg.Kafka)
		if err != nil {
			return nil, nil, err
		}
		a.onClose(func() { _ = producer.Close() })

		topic := cfg.Kafka.MergeDefaults().Topic
		observers = append(observers, kafka.NewPublisher(log, producer, topic))
		log.Info("payload events published to kafka", zap.String("topic", topic))
	}

	if cfg.MySQL != nil {
		database, err := db.NewMySQL(log, cfg.MySQL)
		if err != nil {
			return nil, nil, err
		}
		a.onClose(func() { _ = database.Close() })

		archive, err := db.NewArchive(log, database, routine.New(log))
		if err != nil {
			return nil, nil, err
		}
		a.onClose(archive.Wait)
		if err := archive.Migrate(ctx); err != nil {
			return nil, nil, fmt.Errorf("archive: %w", err)
		}
		observers = append(observers, archive)
		history = archive
	}

	return observers, history, nil
}

func (a *app) run(ctx context.Context) error {
	a.cron.Start()
	a.log.Info("coinframe started")
	err := a.server.Run(ctx)
	a.log.Info("coinframe stopping")
	return err
}
