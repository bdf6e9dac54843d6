package scheduler

import (
	"context"
	"errors"
	"time"

	"leadcall_backend/platform/config"
	"leadcall_backend/platform/logger"

	"github.com/hibiken/asynq"
)

const (
	defaultArchiveMonitorInterval = 15 * time.Minute
	archiveSampleSize             = 20
)

// ArchiveMonitor periodically reports call events that exhausted their retries.
// They stay archived until the platform redelivers the conversation or an operator re-runs them.
type ArchiveMonitor struct {
	inspector *asynq.Inspector
	queue     string
	interval  time.Duration
	log       *logger.Logger
}

func NewArchiveMonitor(cfg config.SchedulerConfig, interval time.Duration, log *logger.Logger) (*ArchiveMonitor, error) {
	opt, err := redisClientOpt(cfg.GetRedisURL(), cfg.GetRedisTLSInsecure())
	if err != nil {
		return nil, err
	}
	if interval <= 0 {
		interval = defaultArchiveMonitorInterval
	}
	return &ArchiveMonitor{
		inspector: asynq.NewInspector(opt),
		queue:     queueName(cfg),
		interval:  interval,
		log:       log,
	}, nil
}

func (m *ArchiveMonitor) Run(ctx context.Context) {
	if m == nil || m.inspector == nil {
		return
	}
	defer m.inspector.Close()

	m.report()

	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.report()
		}
	}
}

func (m *ArchiveMonitor) report() {
	tasks, err := m.inspector.ListArchivedTasks(m.queue, asynq.PageSize(archiveSampleSize))
	if errors.Is(err, asynq.ErrQueueNotFound) {
		return
	}
	if err != nil {
		m.log.Warn("scheduler: archived task check failed", "queue", m.queue, "error", err)
		return
	}

	for _, info := range tasks {
		if info.Type != TaskCallCompleted {
			continue
		}
		m.log.Warn("scheduler: call event archived",
			"taskId", info.ID,
			"lastError", info.LastErr,
			"lastFailedAt", info.LastFailedAt,
		)
	}
}
