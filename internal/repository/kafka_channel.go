package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/segmentio/kafka-go"

	"TradePulse/internal/domain/models"
	domrepo "TradePulse/internal/domain/repository"
	xkafka "TradePulse/pkg/kafka"
)

// KafkaSignalPublisher publishes signals to a Kafka topic keyed by symbol,
// so all signals for one symbol land on one partition in order.
type KafkaSignalPublisher struct {
	producer *xkafka.Producer
	topic    string
}

// NewKafkaSignalPublisher creates a Kafka-backed signal publisher.
func NewKafkaSignalPublisher(producer *xkafka.Producer, topic string) *KafkaSignalPublisher {
	return &KafkaSignalPublisher{producer: producer, topic: topic}
}

func (p *KafkaSignalPublisher) Publish(ctx context.Context, s *models.Signal) error {
	return p.producer.Publish(ctx, p.topic, []byte(s.Symbol), s)
}

// Close is a no-op; the shared producer is closed by its owner.
func (p *KafkaSignalPublisher) Close() error { return nil }

var _ domrepo.SignalPublisher = (*KafkaSignalPublisher)(nil)

// KafkaOrderPublisher publishes order intents to a Kafka topic keyed by
// symbol.
type KafkaOrderPublisher struct {
	producer *xkafka.Producer
	topic    string
}

// NewKafkaOrderPublisher creates a Kafka-backed order publisher.
func NewKafkaOrderPublisher(producer *xkafka.Producer, topic string) *KafkaOrderPublisher {
	return &KafkaOrderPublisher{producer: producer, topic: topic}
}

func (p *KafkaOrderPublisher) Publish(ctx context.Context, o *models.OrderIntent) error {
	return p.producer.Publish(ctx, p.topic, []byte(o.Symbol), o)
}

// Close is a no-op; the shared producer is closed by its owner.
func (p *KafkaOrderPublisher) Close() error { return nil }

var _ domrepo.OrderPublisher = (*KafkaOrderPublisher)(nil)

// KafkaSignalSource reads the signal topic through a consumer group. Fetched
// messages are held until Ack commits their offset, so an unacked signal is
// redelivered after a restart.
type KafkaSignalSource struct {
	reader *kafka.Reader

	mu      sync.Mutex
	pending map[string]kafka.Message
}

// NewKafkaSignalSource creates a consumer-group reader for the signal topic.
func NewKafkaSignalSource(brokers []string, topic, groupID string) *KafkaSignalSource {
	return &KafkaSignalSource{
		reader: kafka.NewReader(kafka.ReaderConfig{
			Brokers: brokers,
			Topic:   topic,
			GroupID: groupID,
		}),
		pending: make(map[string]kafka.Message),
	}
}

func (s *KafkaSignalSource) Read(ctx context.Context) (<-chan *domrepo.SignalMessage, <-chan error) {
	msgs := make(chan *domrepo.SignalMessage, 64)
	errs := make(chan error, 1)

	go func() {
		defer close(msgs)
		defer close(errs)
		for {
			m, err := s.reader.FetchMessage(ctx)
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				select {
				case errs <- fmt.Errorf("fetch signal: %w", err):
				default:
				}
				time.Sleep(time.Second)
				continue
			}
			var sig models.Signal
			if err := json.Unmarshal(m.Value, &sig); err != nil {
				// malformed; commit and move on
				_ = s.reader.CommitMessages(ctx, m)
				continue
			}
			id := fmt.Sprintf("%d-%d", m.Partition, m.Offset)
			s.mu.Lock()
			s.pending[id] = m
			s.mu.Unlock()
			select {
			case msgs <- &domrepo.SignalMessage{ID: id, Signal: &sig}:
			case <-ctx.Done():
				return
			}
		}
	}()

	return msgs, errs
}

func (s *KafkaSignalSource) Ack(ctx context.Context, id string) error {
	s.mu.Lock()
	m, ok := s.pending[id]
	if ok {
		delete(s.pending, id)
	}
	s.mu.Unlock()
	if !ok {
		return fmt.Errorf("unknown message id %s", id)
	}
	return s.reader.CommitMessages(ctx, m)
}

func (s *KafkaSignalSource) Close() error { return s.reader.Close() }

var _ domrepo.SignalSource = (*KafkaSignalSource)(nil)
