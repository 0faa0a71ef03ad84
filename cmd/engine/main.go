package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	_ "net/http/pprof"
	"os/signal"
	"syscall"
	"time"

	"github.com/joripage/matching-engine/config"
	"github.com/joripage/matching-engine/pkg/account"
	"github.com/joripage/matching-engine/pkg/api"
	postgres_wrapper "github.com/joripage/matching-engine/pkg/infra/postgres"
	redis_wrapper "github.com/joripage/matching-engine/pkg/infra/redis"
	kafkawrapper "github.com/joripage/matching-engine/pkg/kafka_wrapper"
	"github.com/joripage/matching-engine/pkg/logging"
	"github.com/joripage/matching-engine/pkg/marketdata"
	"github.com/joripage/matching-engine/pkg/matching"
	"github.com/joripage/matching-engine/pkg/oms"
	"github.com/joripage/matching-engine/pkg/recovery"
	"github.com/joripage/matching-engine/pkg/repo"
	"github.com/joripage/matching-engine/pkg/settlement"
	"go.uber.org/zap"
)

func main() {
	var configFile, pprofAddr string
	flag.StringVar(&configFile, "config-file", "", "Specify config file path")
	flag.StringVar(&pprofAddr, "pprof-addr", "localhost:6060", "pprof listen address, empty to disable")
	flag.Parse()

	cfg, err := config.Load(configFile)
	if err != nil {
		panic(err)
	}

	logger := logging.Init(logging.ParseLevel(cfg.LogLevel)).With(zap.String("service", cfg.ServiceName))
	defer logger.Sync()

	if pprofAddr != "" {
		go func() {
			_ = http.ListenAndServe(pprofAddr, nil)
		}()
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Fatal(ctx, "engine exited", zap.Error(err))
	}
	logger.Info(context.Background(), "exited cleanly")
}

func run(ctx context.Context, cfg *config.AppConfig, logger *logging.Logger) error {
	db, err := postgres_wrapper.InitPostgresWithBackoff(cfg.EngineDB)
	if err != nil {
		return err
	}
	store := repo.NewRepo(db)

	var notifiers matching.Notifiers
	var priceCache marketdata.PriceCache
	var handlerOpts []api.HandlerOption
	if cfg.Redis != nil {
		client, err := redis_wrapper.InitRedis(ctx, cfg.Redis)
		if err != nil {
			return err
		}
		defer client.Close()
		publisher := marketdata.NewRedisPublisher(client, cfg.MarketData)
		notifiers = append(notifiers, publisher)
		priceCache = publisher
		handlerOpts = append(handlerOpts, api.WithPriceStream(publisher))
	}
	if cfg.Kafka.Enabled {
		producer := kafkawrapper.NewProducer(cfg.Kafka.Producer)
		defer producer.Close()
		notifiers = append(notifiers, kafkawrapper.NewTradePublisher(producer, cfg.Kafka.Topic))
	}

	engine := matching.NewEngine(
		matching.Config{Shards: cfg.Engine.Shards, QueueSize: cfg.Engine.QueueSize},
		settlement.NewSettler(db, logger),
		matching.WithNotifier(notifiers),
		matching.WithOrderStore(repo.NewOrderStore(store.Order())),
		matching.WithLogger(logger),
	)
	if err := recovery.NewLoader(store, logger).Recover(ctx, engine); err != nil {
		return err
	}
	// workers outlive the signal so in-flight requests drain during Shutdown
	if err := engine.Start(context.WithoutCancel(ctx)); err != nil {
		return err
	}
	defer engine.Stop()

	orders := oms.NewOMS(store, engine, oms.DefaultRules(store, cfg.Risk.TickSizes), logger)
	prices := marketdata.NewService(priceCache, store.Symbol(), logger)
	handler := api.NewHandler(orders, engine, prices, account.NewService(store), cfg.Engine.DefaultDepth, handlerOpts...)
	router := api.NewRouter(handler, logger)

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}
	srv.RegisterOnShutdown(handler.CloseStreams)
	errCh := make(chan error, 1)
	go func() {
		logger.Info(ctx, "http server listening", zap.String("addr", cfg.HTTPAddr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		logger.Info(context.Background(), "shutting down")
	case err := <-errCh:
		return err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
