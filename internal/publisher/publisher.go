// Package publisher emits newly matched alerts to Kafka.
package publisher

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/confluentinc/confluent-kafka-go/v2/kafka"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/navid-fn/listing-radar/configs"
	"github.com/navid-fn/listing-radar/internal/models"
)

// flushTimeoutMs bounds how long Close waits for outstanding deliveries.
const flushTimeoutMs = 5000

// AlertEvent is the JSON value of each Kafka message.
type AlertEvent struct {
	ID           string `json:"id"`
	RunID        string `json:"run_id"`
	Exchange     string `json:"exchange"`
	Coin         string `json:"coin"`
	Ticker       string `json:"ticker"`
	AffiliateURL string `json:"affiliate_url"`
	DateAdded    string `json:"date_added"`
	PublishedAt  string `json:"published_at"`
}

func NewAlertEvent(runID string, a models.MatchedAlert, now time.Time) AlertEvent {
	return AlertEvent{
		ID:           uuid.NewString(),
		RunID:        runID,
		Exchange:     a.Exchange,
		Coin:         a.Coin,
		Ticker:       a.Ticker,
		AffiliateURL: a.AffiliateURL,
		DateAdded:    a.DateAdded,
		PublishedAt:  now.UTC().Format(time.RFC3339),
	}
}

// Key partitions events by exchange and ticker.
func (e AlertEvent) Key() []byte {
	return []byte(e.Exchange + ":" + e.Ticker)
}

// Messages encodes alerts as Kafka messages for topic.
func Messages(topic, runID string, alerts []models.MatchedAlert, now time.Time) ([]*kafka.Message, error) {
	msgs := make([]*kafka.Message, 0, len(alerts))
	for _, a := range alerts {
		event := NewAlertEvent(runID, a, now)
		value, err := json.Marshal(event)
		if err != nil {
			return nil, err
		}
		msgs = append(msgs, &kafka.Message{
			TopicPartition: kafka.TopicPartition{Topic: &topic, Partition: kafka.PartitionAny},
			Key:            event.Key(),
			Value:          value,
		})
	}
	return msgs, nil
}

// KafkaPublisher produces one message per alert. Delivery is asynchronous;
// failures are reported to the logger by the delivery report goroutine.
type KafkaPublisher struct {
	producer *kafka.Producer
	topic    string
	logger   logrus.FieldLogger
	now      func() time.Time
}

func NewKafka(cfg configs.KafkaConfig, logger logrus.FieldLogger) (*KafkaPublisher, error) {
	config := kafka.ConfigMap{
		"bootstrap.servers": cfg.Broker,
	}

	producer, err := kafka.NewProducer(&config)
	if err != nil {
		return nil, fmt.Errorf("failed to create Kafka producer: %w", err)
	}

	p := &KafkaPublisher{
		producer: producer,
		topic:    cfg.Topic,
		logger:   logger.WithField("topic", cfg.Topic),
		now:      time.Now,
	}
	p.startDeliveryReport()
	p.logger.Info("Kafka Producer initialized successfully")
	return p, nil
}

// Check Events channel of kafka and log failed deliveries.
func (p *KafkaPublisher) startDeliveryReport() {
	go func() {
		for e := range p.producer.Events() {
			switch ev := e.(type) {
			case *kafka.Message:
				if ev.TopicPartition.Error != nil {
					p.logger.Errorf("Message delivery failed: %v", ev.TopicPartition.Error)
				}
			}
		}
	}()
}

func (p *KafkaPublisher) Publish(ctx context.Context, runID string, alerts []models.MatchedAlert) error {
	msgs, err := Messages(p.topic, runID, alerts, p.now())
	if err != nil {
		return err
	}

	for _, m := range msgs {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := p.producer.Produce(m, nil); err != nil {
			return fmt.Errorf("failed to produce %s: %w", m.Key, err)
		}
	}
	return nil
}

func (p *KafkaPublisher) Close() {
	if remaining := p.producer.Flush(flushTimeoutMs); remaining > 0 {
		p.logger.Warnf("%d alert events not delivered before close", remaining)
	}
	p.producer.Close()
	p.logger.Info("Kafka Producer closed")
}
