package ingest

import (
	"context"
	"encoding/json"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/example/carpool/internal/models"
)

// OfferEvent is published whenever an offer is created or changes status.
// The consumer keeps the shared geo index in sync from these.
type OfferEvent struct {
	Type  string            `json:"type"` // "created" or "status"
	Offer models.RouteOffer `json:"offer"`
}

const (
	EventCreated = "created"
	EventStatus  = "status"
)

type KafkaProducer struct {
	writer *kafka.Writer
}

func NewKafkaProducer(brokers []string, topic string) *KafkaProducer {
	w := kafka.NewWriter(kafka.WriterConfig{Brokers: brokers, Topic: topic, Balancer: &kafka.LeastBytes{}})
	return &KafkaProducer{writer: w}
}

func (k *KafkaProducer) PublishOffer(eventType string, o models.RouteOffer) error {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	b, err := json.Marshal(OfferEvent{Type: eventType, Offer: o})
	if err != nil {
		return err
	}
	return k.writer.WriteMessages(ctx, kafka.Message{Key: []byte(o.ID), Value: b})
}

func (k *KafkaProducer) Close() error {
	if k.writer == nil {
		return nil
	}
	return k.writer.Close()
}
