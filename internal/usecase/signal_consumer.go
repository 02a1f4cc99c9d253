package usecase

import (
	"context"
	"sync"
	"time"

	domrepo "TradePulse/internal/domain/repository"
	"TradePulse/internal/engine"
	"TradePulse/pkg/logger"
)

// SignalConsumer drains the signal channel into the decision engine. Every
// delivered signal reaches a terminal outcome before it is acked, so a
// crash mid-decision redelivers the signal.
type SignalConsumer struct {
	source  domrepo.SignalSource
	engine  *engine.Engine
	orders  domrepo.OrderPublisher
	archive domrepo.DecisionArchive
	log     *logger.Logger
	metrics domrepo.Metrics

	wg     sync.WaitGroup
	cancel context.CancelFunc
}

// NewSignalConsumer creates a SignalConsumer. archive may be nil.
func NewSignalConsumer(
	source domrepo.SignalSource,
	eng *engine.Engine,
	orders domrepo.OrderPublisher,
	archive domrepo.DecisionArchive,
	log *logger.Logger,
	metrics domrepo.Metrics,
) *SignalConsumer {
	return &SignalConsumer{
		source:  source,
		engine:  eng,
		orders:  orders,
		archive: archive,
		log:     log,
		metrics: metrics,
	}
}

// Start launches the consume loop.
func (c *SignalConsumer) Start(ctx context.Context) {
	ctx, c.cancel = context.WithCancel(ctx)
	msgs, errs := c.source.Read(ctx)

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		for {
			select {
			case <-ctx.Done():
				return
			case err, ok := <-errs:
				if !ok {
					return
				}
				c.log.Warn("signal source error", logger.Error(err))
			case msg, ok := <-msgs:
				if !ok {
					return
				}
				c.handle(ctx, msg)
			}
		}
	}()
}

// Stop cancels the loop and waits for it to drain.
func (c *SignalConsumer) Stop() {
	if c.cancel != nil {
		c.cancel()
	}
	c.wg.Wait()
}

func (c *SignalConsumer) handle(ctx context.Context, msg *domrepo.SignalMessage) {
	intent, outcome, err := c.engine.Decide(ctx, msg.Signal)
	if err != nil {
		// leave the message unacked so it is redelivered
		c.metrics.RecordError("decide")
		c.log.Error("decision failed",
			logger.String("signal_id", msg.Signal.ID),
			logger.Error(err))
		return
	}

	if outcome == engine.OutcomeOrderEmitted && intent != nil {
		if err := c.orders.Publish(ctx, intent); err != nil {
			c.metrics.RecordError("order_publish")
			c.log.Error("order publish failed",
				logger.String("order_id", intent.ID),
				logger.Error(err))
			return
		}
		c.log.Info("order emitted",
			logger.String("symbol", intent.Symbol),
			logger.String("side", string(intent.Side)),
			logger.Float64("qty", intent.Quantity),
			logger.Float64("score", intent.CombinedScore))

		if c.archive != nil {
			// best effort; archival must not block the order path
			actx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			if err := c.archive.Store(actx, intent); err != nil {
				c.metrics.RecordError("archive")
				c.log.Warn("decision archive failed", logger.Error(err))
			}
			cancel()
		}
	}

	if err := c.source.Ack(ctx, msg.ID); err != nil {
		c.log.Warn("ack failed",
			logger.String("id", msg.ID),
			logger.Error(err))
	}
}
