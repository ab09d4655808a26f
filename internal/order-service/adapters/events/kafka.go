// Package events publishes order status changes to Kafka.
package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/jcmexdev/food-delivery/internal/order-service/domain"
	"github.com/jcmexdev/food-delivery/internal/order-service/ports"
)

const EventTypeStatusChanged = "OrderStatusChanged"

// StatusChangedMessage is the JSON value of every published message.
type StatusChangedMessage struct {
	Type           string `json:"type"`
	OrderID        string `json:"order_id"`
	UserID         string `json:"user_id"`
	RestaurantID   string `json:"restaurant_id"`
	PreviousStatus string `json:"previous_status"`
	Status         string `json:"status"`
	Source         string `json:"source"`
	ChangedAt      string `json:"changed_at"`
}

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type KafkaPublisher struct {
	writer messageWriter
	topic  string
}

var _ ports.EventPublisher = (*KafkaPublisher)(nil)

// NewKafkaPublisher writes to topic on brokers, keyed by order id so that all
// changes of one order land on the same partition in order.
func NewKafkaPublisher(brokers []string, topic string) *KafkaPublisher {
	return &KafkaPublisher{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Topic:        topic,
			Balancer:     &kafka.Hash{},
			RequiredAcks: kafka.RequireOne,
			BatchTimeout: 10 * time.Millisecond,
			WriteTimeout: 5 * time.Second,
		},
		topic: topic,
	}
}

func (p *KafkaPublisher) PublishStatusChanged(ctx context.Context, e domain.StatusChangedEvent) error {
	value, err := json.Marshal(StatusChangedMessage{
		Type:           EventTypeStatusChanged,
		OrderID:        e.OrderID,
		UserID:         e.UserID,
		RestaurantID:   e.RestaurantID,
		PreviousStatus: string(e.PreviousStatus),
		Status:         string(e.Status),
		Source:         string(e.Source),
		ChangedAt:      e.ChangedAt.UTC().Format(time.RFC3339Nano),
	})
	if err != nil {
		return fmt.Errorf("events: encode %s: %w", EventTypeStatusChanged, err)
	}

	msg := kafka.Message{
		Key:   []byte(e.OrderID),
		Value: value,
		Headers: []kafka.Header{
			{Key: "event-type", Value: []byte(EventTypeStatusChanged)},
		},
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("events: publish to %s: %w", p.topic, err)
	}
	return nil
}

func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}

// EnsureTopic creates topic through the cluster controller. An existing
// topic is not an error.
func EnsureTopic(ctx context.Context, brokers []string, topic string) error {
	if len(brokers) == 0 {
		return errors.New("events: no kafka brokers configured")
	}

	var d kafka.Dialer
	conn, err := d.DialContext(ctx, "tcp", brokers[0])
	if err != nil {
		return fmt.Errorf("events: dial broker %s: %w", brokers[0], err)
	}
	defer conn.Close()

	controller, err := conn.Controller()
	if err != nil {
		return fmt.Errorf("events: find controller: %w", err)
	}

	ctrlConn, err := d.DialContext(ctx, "tcp", net.JoinHostPort(controller.Host, strconv.Itoa(controller.Port)))
	if err != nil {
		return fmt.Errorf("events: dial controller: %w", err)
	}
	defer ctrlConn.Close()

	err = ctrlConn.CreateTopics(kafka.TopicConfig{
		Topic:             topic,
		NumPartitions:     1,
		ReplicationFactor: 1,
	})
	if err != nil && !errors.Is(err, kafka.TopicAlreadyExists) {
		return fmt.Errorf("events: create topic %s: %w", topic, err)
	}
	return nil
}
