package job

import (
	"time"

	"go.uber.org/zap"

	"registration-form-api/internal/metrics"
)

// SessionSweeper removes sessions idle since before a cutoff
type SessionSweeper interface {
	Sweep(now time.Time) int
	Len() int
}

// SessionSweepJob closes designer sessions that exceeded their idle TTL.
// Unsaved changes in an expired session are discarded.
type SessionSweepJob struct {
	sessions SessionSweeper
	metrics  *metrics.Metrics
	logger   *zap.Logger
	now      func() time.Time
}

// NewSessionSweepJob creates a new SessionSweepJob instance
func NewSessionSweepJob(sessions SessionSweeper, m *metrics.Metrics, logger *zap.Logger) *SessionSweepJob {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SessionSweepJob{
		sessions: sessions,
		metrics:  m,
		logger:   logger,
		now:      time.Now,
	}
}

// Run executes one sweep
func (j *SessionSweepJob) Run() {
	removed := j.sessions.Sweep(j.now())
	remaining := j.sessions.Len()

	j.metrics.SetActiveSessions(remaining)
	if removed == 0 {
		j.logger.Debug("No idle designer sessions to sweep", zap.Int("active", remaining))
		return
	}

	j.metrics.RecordSessionsExpired(removed)
	j.logger.Info("Swept idle designer sessions",
		zap.Int("removed", removed),
		zap.Int("active", remaining),
	)
}
