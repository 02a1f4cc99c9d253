package usecase

import (
	"context"
	"time"

	"TradePulse/internal/domain/models"
	domrepo "TradePulse/internal/domain/repository"
	mid "TradePulse/internal/middleware"
)

// TickSink feeds ticks from the pipeline straight into the PatternEngine,
// used when no broker sits between the feed and the engine.
type TickSink struct {
	engine *PatternEngine
}

// NewTickSink creates a TickSink.
func NewTickSink(engine *PatternEngine) *TickSink {
	return &TickSink{engine: engine}
}

func (s *TickSink) Process(ctx context.Context, t *models.Tick) error {
	_, err := s.engine.ProcessTick(ctx, t)
	return err
}

// TickCollector drains the WebSocket feed into the tick pipeline.
type TickCollector struct {
	stream  domrepo.TickStream
	metrics domrepo.Metrics
	pipe    *mid.TickPipeline
}

// NewTickCollector creates a TickCollector.
func NewTickCollector(stream domrepo.TickStream, metrics domrepo.Metrics, pipe *mid.TickPipeline) *TickCollector {
	return &TickCollector{stream: stream, metrics: metrics, pipe: pipe}
}

// IsConnected returns true if the feed is connected.
func (c *TickCollector) IsConnected() bool {
	return c.stream.IsConnected()
}

func (c *TickCollector) Start(ctx context.Context) error {
	if err := c.stream.Connect(ctx); err != nil {
		return err
	}
	if err := c.stream.Subscribe(ctx); err != nil {
		return err
	}
	c.pipe.Start(ctx)
	tickCh, errCh := c.stream.Read(ctx)
	go c.consume(ctx, tickCh, errCh)
	return nil
}

func (c *TickCollector) consume(ctx context.Context, tickCh <-chan *models.Tick, errCh <-chan error) {
	for {
		select {
		case <-ctx.Done():
			return
		case err, ok := <-errCh:
			// the feed closes both channels after its terminal error, so a
			// closed channel is a reconnect trigger too
			if !ok || err != nil {
				c.metrics.RecordError("feed")
				if tickCh, errCh = c.reconnect(ctx); tickCh == nil {
					return
				}
			}
		case t, ok := <-tickCh:
			if !ok {
				c.metrics.RecordError("feed")
				if tickCh, errCh = c.reconnect(ctx); tickCh == nil {
					return
				}
				continue
			}
			if t == nil {
				continue
			}
			_ = c.pipe.Process(ctx, t)
		}
	}
}

// reconnect retries with backoff until the stream is back or ctx is done,
// in which case it returns nil channels.
func (c *TickCollector) reconnect(ctx context.Context) (<-chan *models.Tick, <-chan error) {
	delay := 100 * time.Millisecond
	for {
		if err := c.stream.Reconnect(ctx); err == nil {
			tickCh, errCh := c.stream.Read(ctx)
			return tickCh, errCh
		}
		c.metrics.RecordError("feed_reconnect")
		select {
		case <-ctx.Done():
			return nil, nil
		case <-time.After(delay):
		}
		if delay < 5*time.Second {
			delay *= 2
		}
	}
}

// Shutdown stops the pipeline and closes the feed.
func (c *TickCollector) Shutdown(ctx context.Context) error {
	c.pipe.Stop()
	return c.stream.Close()
}
