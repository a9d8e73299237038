package kafka

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/segmentio/kafka-go"
)

// OrderEvent announces a local order change to downstream consumers
// (kitchen display, analytics). Best-effort only: the webhook pipeline and
// dashboard actions never fail because a publish did.
type OrderEvent struct {
	Type      string    `json:"type"` // order.synced | order.state_changed
	OrderID   string    `json:"order_id"`
	State     string    `json:"state"`
	EventID   string    `json:"event_id,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// ProducerAPI lets services publish without binding to a concrete writer.
type ProducerAPI interface {
	PublishOrderEvent(evt OrderEvent) error
	Close() error
}

type Producer struct {
	writer *kafka.Writer
	topic  string
}

func NewProducer(brokers []string, topic string) *Producer {
	w := &kafka.Writer{
		Addr:     kafka.TCP(brokers...),
		Topic:    topic,
		Balancer: &kafka.LeastBytes{},
	}
	log.Printf("[RestaurantService][KafkaProducer] initialized topic=%s brokers=%v", topic, brokers)
	return &Producer{writer: w, topic: topic}
}

func (p *Producer) PublishOrderEvent(evt OrderEvent) error {
	data, err := json.Marshal(evt)
	if err != nil {
		return err
	}
	msg := kafka.Message{
		Key:   []byte(evt.OrderID),
		Value: data,
	}
	if err := p.writer.WriteMessages(context.Background(), msg); err != nil {
		log.Printf("[RestaurantService][KafkaProducer] publish failed type=%s order=%s err=%v", evt.Type, evt.OrderID, err)
		return err
	}
	return nil
}

func (p *Producer) Close() error {
	log.Printf("[RestaurantService][KafkaProducer] closing writer topic=%s", p.topic)
	return p.writer.Close()
}
