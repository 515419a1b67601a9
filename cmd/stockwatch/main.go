package main

import (
	"context"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"github.com/arpitjain111/grocery-orders/internal/config"
	kafkax "github.com/arpitjain111/grocery-orders/internal/kafka"
	"github.com/arpitjain111/grocery-orders/internal/lowstock"
	"github.com/arpitjain111/grocery-orders/internal/orders"
	"github.com/arpitjain111/grocery-orders/internal/postgres"
	"github.com/arpitjain111/grocery-orders/internal/redisx"
)

func mustAtoi(s, def string) int {
	if s == "" {
		s = def
	}
	i, err := strconv.Atoi(s)
	if err != nil {
		return 1
	}
	return i
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func main() {
	_ = godotenv.Load()

	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).
		With().Timestamp().Logger()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("load config")
	}
	if lvl, err := zerolog.ParseLevel(strings.ToLower(cfg.LogLevel)); err == nil {
		log = log.Level(lvl)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// DB
	db, err := postgres.Connect(ctx, cfg.PostgresDSN)
	if err != nil {
		log.Fatal().Err(err).Msg("db")
	}
	defer db.Close()

	// Redis
	rdb := redisx.New(cfg.RedisAddr)
	defer rdb.Close()

	// Producer alert
	prod := kafkax.NewProducer(cfg.KafkaBrokers, orders.TopicStockLow, 1024)
	prod.Start(ctx)

	// Service
	svc := &lowstock.Service{
		Catalog:     &orders.PgStore{DB: db},
		Redis:       rdb,
		Producer:    prod,
		ServiceName: cfg.ServiceName + "-stockwatch",
		Threshold:   cfg.LowStockThreshold,
		Log:         log,
	}

	// Consumer
	group := getenv("STOCKWATCH_GROUP", "stockwatch-svc")
	workers := mustAtoi(os.Getenv("STOCKWATCH_WORKERS"), "4")
	cons := kafkax.NewConsumer(cfg.KafkaBrokers, group, orders.TopicOrderPlaced, workers, log)

	go func() {
		log.Info().
			Str("group", group).
			Str("topic", orders.TopicOrderPlaced).
			Int("workers", workers).
			Msg("stockwatch consumer started")
		if err := cons.Start(ctx, svc.HandleOrderPlaced); err != nil {
			log.Error().Err(err).Msg("consumer exit")
			cancel()
		}
	}()

	// graceful shutdown
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	log.Info().Msg("shutting down consumer...")
	cancel()
	time.Sleep(500 * time.Millisecond)
	prod.Close()
	prod.WaitClosed()
}
