package metrics

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// SchemaCounter reports how many schemas are stored
type SchemaCounter interface {
	Count(ctx context.Context) (int64, error)
}

// SessionCounter reports how many designer sessions are open
type SessionCounter interface {
	Len() int
}

// BusinessMetricsCollector refreshes gauges that are derived from stored state.
// It implements cron.Job.
type BusinessMetricsCollector struct {
	schemas  SchemaCounter
	sessions SessionCounter
	metrics  *Metrics
	logger   *zap.Logger
	timeout  time.Duration
}

// NewBusinessMetricsCollector creates a new collector
func NewBusinessMetricsCollector(schemas SchemaCounter, sessions SessionCounter, metrics *Metrics, logger *zap.Logger) *BusinessMetricsCollector {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &BusinessMetricsCollector{
		schemas:  schemas,
		sessions: sessions,
		metrics:  metrics,
		logger:   logger,
		timeout:  5 * time.Second,
	}
}

// Run gathers business metrics once
func (c *BusinessMetricsCollector) Run() {
	defer func() {
		if r := recover(); r != nil {
			c.logger.Error("Panic in business metrics collection",
				zap.Any("panic", r),
			)
		}
	}()

	ctx, cancel := context.WithTimeout(context.Background(), c.timeout)
	defer cancel()

	if c.schemas != nil {
		count, err := c.schemas.Count(ctx)
		if err != nil {
			c.logger.Error("Failed to count form schemas", zap.Error(err))
		} else {
			c.metrics.SetSchemasTotal(count)
		}
	}

	if c.sessions != nil {
		c.metrics.SetActiveSessions(c.sessions.Len())
	}
}
