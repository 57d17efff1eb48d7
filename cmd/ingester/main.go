package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/confluentinc/confluent-kafka-go/v2/kafka"

	"github.com/navid-fn/listing-radar/configs"
	"github.com/navid-fn/listing-radar/internal/ingester"
	"github.com/navid-fn/listing-radar/internal/logger"
	"github.com/navid-fn/listing-radar/internal/storage"
)

func main() {
	appConfig := configs.AppLoad()
	log := logger.New(appConfig.LogLevel, appConfig.LogFormat)

	if !appConfig.Kafka.Enabled() || !appConfig.ClickHouse.Enabled() {
		log.Error("KAFKA_BROKER and CLICKHOUSE_HOST are required")
		os.Exit(1)
	}

	alertStorage, err := storage.NewClickHouseStorage(appConfig.ClickHouse.DSN())
	if err != nil {
		log.WithError(err).Error("Failed to connect to DB")
		os.Exit(1)
	}
	defer alertStorage.Close()

	consumer, err := kafka.NewConsumer(&kafka.ConfigMap{
		"bootstrap.servers":  appConfig.Kafka.Broker,
		"group.id":           appConfig.Kafka.GroupID,
		"auto.offset.reset":  "earliest",
		"enable.auto.commit": false, // Important: We handle commits manually in Ingester!
	})
	if err != nil {
		log.WithError(err).Error("Failed to create Kafka consumer")
		os.Exit(1)
	}
	defer consumer.Close()

	if err := consumer.SubscribeTopics([]string{appConfig.Kafka.Topic}, nil); err != nil {
		log.WithError(err).Error("Failed to subscribe")
		os.Exit(1)
	}

	svc := ingester.NewIngester(
		consumer,
		alertStorage,
		log.WithField("topic", appConfig.Kafka.Topic),
		ingester.Config{
			BatchSize:    appConfig.Ingester.BatchSize,
			BatchTimeout: time.Duration(appConfig.Ingester.BatchTimeoutSeconds) * time.Second,
		},
	)

	// Run with Graceful Shutdown
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Info("Ingester started successfully")

	if err := svc.Start(ctx); err != nil {
		log.WithError(err).Error("Ingester stopped with error")
		os.Exit(1)
	}

	log.Info("Ingester shutdown complete")
}
