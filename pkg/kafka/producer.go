package kafka

import (
	"context"
	"errors"

	"github.com/segmentio/kafka-go"
)

// MessageWriter is the part of kafka.Writer the producer uses.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Producer publishes seeding events. The topic is chosen per message so one
// writer serves any topic.
type Producer struct {
	writer MessageWriter
	key    []byte
}

// NewProducer returns a producer writing to brokers; key becomes every
// message's partition key (the run id, so a run's events stay ordered).
func NewProducer(brokers []string, key string) (*Producer, error) {
	if len(brokers) == 0 {
		return nil, errors.New("kafka: no brokers configured")
	}
	writer := &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Balancer:               &kafka.LeastBytes{},
		AllowAutoTopicCreation: true,
	}
	return NewProducerWithWriter(writer, key), nil
}

func NewProducerWithWriter(w MessageWriter, key string) *Producer {
	return &Producer{writer: w, key: []byte(key)}
}

// Publish writes message to topic.
func (p *Producer) Publish(ctx context.Context, topic string, message []byte) error {
	if topic == "" {
		return errors.New("kafka: empty topic")
	}
	return p.writer.WriteMessages(ctx, kafka.Message{
		Topic: topic,
		Key:   p.key,
		Value: message,
	})
}

func (p *Producer) Close() error {
	return p.writer.Close()
}
