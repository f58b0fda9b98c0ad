package events

import (
	"context"
	"encoding/json"
	"log"
	"strings"
	"time"

	"github.com/segmentio/kafka-go"
)

// SaleCompleted is emitted after a sale commits, for downstream consumers
// (fulfillment, analytics). Delivery is best effort; the sale is already
// durable in the ledger when this fires.
type SaleCompleted struct {
	TransactionID string    `json:"transaction_id"`
	Timestamp     time.Time `json:"timestamp"`
	CustomerID    *int64    `json:"customer_id,omitempty"`
	PaymentMethod string    `json:"payment_method"`
	ItemCount     int       `json:"item_count"`
	Total         float64   `json:"total"`
}

// Publisher emits sale events
type Publisher interface {
	PublishSaleCompleted(ctx context.Context, ev SaleCompleted) error
	Close() error
}

// KafkaPublisher writes sale events to a Kafka topic
type KafkaPublisher struct {
	writer *kafka.Writer
}

// NewKafkaPublisher builds a publisher from a comma-separated broker list.
// Returns nil if the list is empty; callers should fall back to Noop.
func NewKafkaPublisher(brokersCSV, topic string) *KafkaPublisher {
	var brokers []string
	for _, b := range strings.Split(brokersCSV, ",") {
		if b = strings.TrimSpace(b); b != "" {
			brokers = append(brokers, b)
		}
	}
	if len(brokers) == 0 {
		return nil
	}

	return &KafkaPublisher{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Topic:        topic,
			Balancer:     &kafka.Hash{},
			RequiredAcks: kafka.RequireOne,
		},
	}
}

// PublishSaleCompleted writes one JSON message keyed by transaction ID
func (p *KafkaPublisher) PublishSaleCompleted(ctx context.Context, ev SaleCompleted) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	return p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(ev.TransactionID),
		Value: data,
		Time:  time.Now().UTC(),
	})
}

// Close flushes and closes the underlying writer
func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}

// Noop discards events; used when no broker is configured
type Noop struct{}

func (Noop) PublishSaleCompleted(ctx context.Context, ev SaleCompleted) error {
	log.Printf("[EVENTS] Kafka disabled, dropping sale event: transaction_id=%s", ev.TransactionID)
	return nil
}

func (Noop) Close() error { return nil }
