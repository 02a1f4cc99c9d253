package repository

import (
	"context"
	"fmt"
	"time"

	"TradePulse/internal/domain/models"
	domrepo "TradePulse/internal/domain/repository"
	"TradePulse/pkg/clickhouse"
)

const createOrderIntentsTable = `
CREATE TABLE IF NOT EXISTS order_intents (
	id String,
	symbol String,
	side String,
	quantity Float64,
	combined_score Float64,
	signal_score Float64,
	forecast Float64,
	sentiment Float64,
	momentum Float64,
	model_bias Float64,
	signal_id String,
	ts DateTime64(3)
) ENGINE = MergeTree()
ORDER BY (symbol, ts)
TTL toDateTime(ts) + INTERVAL 90 DAY
`

const insertOrderIntent = `
INSERT INTO order_intents
	(id, symbol, side, quantity, combined_score, signal_score, forecast, sentiment, momentum, model_bias, signal_id, ts)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
`

// ClickHouseArchive persists emitted order intents for offline analysis.
// Writes are best-effort from the caller's point of view; the decision path
// does not depend on the archive.
type ClickHouseArchive struct {
	client *clickhouse.Client
}

// NewClickHouseArchive wraps a ClickHouse client as a decision archive.
func NewClickHouseArchive(client *clickhouse.Client) *ClickHouseArchive {
	return &ClickHouseArchive{client: client}
}

// Init creates the archive table if it does not exist.
func (a *ClickHouseArchive) Init(ctx context.Context) error {
	return a.client.InitSchema(ctx, []string{createOrderIntentsTable})
}

// Store appends one order intent row.
func (a *ClickHouseArchive) Store(ctx context.Context, o *models.OrderIntent) error {
	_, err := a.client.DB().ExecContext(ctx, insertOrderIntent,
		o.ID,
		o.Symbol,
		string(o.Side),
		o.Quantity,
		o.CombinedScore,
		o.Factors.SignalScore,
		o.Factors.Forecast,
		o.Factors.Sentiment,
		o.Factors.Momentum,
		o.Factors.ModelBias,
		o.SignalID,
		time.Unix(o.Timestamp, 0).UTC(),
	)
	if err != nil {
		return fmt.Errorf("insert order intent: %w", err)
	}
	return nil
}

// Close closes the underlying client.
func (a *ClickHouseArchive) Close() error { return a.client.Close() }

var _ domrepo.DecisionArchive = (*ClickHouseArchive)(nil)
