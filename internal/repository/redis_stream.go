package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"TradePulse/internal/domain/models"
	domrepo "TradePulse/internal/domain/repository"
)

// RedisSignalPublisher appends signals to a Redis stream. XADD either
// succeeds or reports failure, which is all the at-least-once channel
// contract requires; retrying is the emitter's job.
type RedisSignalPublisher struct {
	client *redis.Client
	stream string
}

// NewRedisSignalPublisher creates a publisher for the signals stream.
func NewRedisSignalPublisher(client *redis.Client, stream string) *RedisSignalPublisher {
	return &RedisSignalPublisher{client: client, stream: stream}
}

func (p *RedisSignalPublisher) Publish(ctx context.Context, s *models.Signal) error {
	b, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("marshal signal: %w", err)
	}
	err = p.client.XAdd(ctx, &redis.XAddArgs{
		Stream: p.stream,
		Values: map[string]interface{}{"payload": b},
	}).Err()
	if err != nil {
		return fmt.Errorf("xadd %s: %w", p.stream, err)
	}
	return nil
}

func (p *RedisSignalPublisher) Close() error { return nil }

var _ domrepo.SignalPublisher = (*RedisSignalPublisher)(nil)

// RedisOrderPublisher appends order intents to the orders stream.
type RedisOrderPublisher struct {
	client *redis.Client
	stream string
}

// NewRedisOrderPublisher creates a publisher for the orders stream.
func NewRedisOrderPublisher(client *redis.Client, stream string) *RedisOrderPublisher {
	return &RedisOrderPublisher{client: client, stream: stream}
}

func (p *RedisOrderPublisher) Publish(ctx context.Context, o *models.OrderIntent) error {
	b, err := json.Marshal(o)
	if err != nil {
		return fmt.Errorf("marshal order intent: %w", err)
	}
	err = p.client.XAdd(ctx, &redis.XAddArgs{
		Stream: p.stream,
		Values: map[string]interface{}{"payload": b},
	}).Err()
	if err != nil {
		return fmt.Errorf("xadd %s: %w", p.stream, err)
	}
	return nil
}

func (p *RedisOrderPublisher) Close() error { return nil }

var _ domrepo.OrderPublisher = (*RedisOrderPublisher)(nil)

// RedisSignalSource reads the signals stream through a consumer group, so
// delivery is at-least-once and unacked messages are redelivered.
type RedisSignalSource struct {
	client   *redis.Client
	stream   string
	group    string
	consumer string
}

// NewRedisSignalSource creates a consumer-group reader for the signals
// stream.
func NewRedisSignalSource(client *redis.Client, stream, group string) *RedisSignalSource {
	return &RedisSignalSource{
		client:   client,
		stream:   stream,
		group:    group,
		consumer: fmt.Sprintf("strategy-%d", os.Getpid()),
	}
}

// Read creates the consumer group if needed and streams decoded signals.
// Malformed entries are acked and skipped; they would otherwise be
// redelivered forever.
func (s *RedisSignalSource) Read(ctx context.Context) (<-chan *domrepo.SignalMessage, <-chan error) {
	msgs := make(chan *domrepo.SignalMessage, 64)
	errs := make(chan error, 1)

	go func() {
		defer close(msgs)
		defer close(errs)

		err := s.client.XGroupCreateMkStream(ctx, s.stream, s.group, "0").Err()
		if err != nil && !isBusyGroup(err) {
			errs <- fmt.Errorf("create consumer group: %w", err)
			return
		}

		for {
			if ctx.Err() != nil {
				return
			}
			res, err := s.client.XReadGroup(ctx, &redis.XReadGroupArgs{
				Group:    s.group,
				Consumer: s.consumer,
				Streams:  []string{s.stream, ">"},
				Count:    10,
				Block:    time.Second,
			}).Result()
			if err != nil {
				if err == redis.Nil || ctx.Err() != nil {
					continue
				}
				select {
				case errs <- fmt.Errorf("xreadgroup %s: %w", s.stream, err):
				default:
				}
				time.Sleep(time.Second)
				continue
			}

			for _, stream := range res {
				for _, msg := range stream.Messages {
					sig, ok := decodeSignal(msg.Values)
					if !ok {
						_ = s.client.XAck(ctx, s.stream, s.group, msg.ID).Err()
						continue
					}
					select {
					case msgs <- &domrepo.SignalMessage{ID: msg.ID, Signal: sig}:
					case <-ctx.Done():
						return
					}
				}
			}
		}
	}()

	return msgs, errs
}

func (s *RedisSignalSource) Ack(ctx context.Context, id string) error {
	if err := s.client.XAck(ctx, s.stream, s.group, id).Err(); err != nil {
		return fmt.Errorf("xack %s: %w", id, err)
	}
	return nil
}

func (s *RedisSignalSource) Close() error { return nil }

var _ domrepo.SignalSource = (*RedisSignalSource)(nil)

func decodeSignal(values map[string]interface{}) (*models.Signal, bool) {
	raw, ok := values["payload"]
	if !ok {
		return nil, false
	}
	str, ok := raw.(string)
	if !ok {
		return nil, false
	}
	var sig models.Signal
	if err := json.Unmarshal([]byte(str), &sig); err != nil {
		return nil, false
	}
	return &sig, true
}

func isBusyGroup(err error) bool {
	return err != nil && strings.HasPrefix(err.Error(), "BUSYGROUP")
}
