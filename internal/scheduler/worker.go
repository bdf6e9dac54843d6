package scheduler

import (
	"context"
	"errors"
	"fmt"
	"time"

	"leadcall_backend/platform/config"
	"leadcall_backend/platform/logger"

	"github.com/hibiken/asynq"
)

const defaultShutdownTimeout = 30 * time.Second

// CallEventProcessor runs the full pipeline for one delivery. A nil return acknowledges the task.
type CallEventProcessor interface {
	Process(ctx context.Context, payload CallCompletedPayload) error
}

type Worker struct {
	server    *asynq.Server
	mux       *asynq.ServeMux
	processor CallEventProcessor
	log       *logger.Logger
}

func NewWorker(cfg config.SchedulerConfig, processor CallEventProcessor, log *logger.Logger) (*Worker, error) {
	redisURL := cfg.GetRedisURL()
	if redisURL == "" {
		return nil, fmt.Errorf("redis url not configured")
	}
	if processor == nil {
		return nil, fmt.Errorf("call event processor not configured")
	}

	opt, err := redisClientOpt(redisURL, cfg.GetRedisTLSInsecure())
	if err != nil {
		return nil, err
	}

	concurrency := cfg.GetAsynqConcurrency()
	if concurrency < 1 {
		concurrency = 10
	}

	w := &Worker{
		mux:       asynq.NewServeMux(),
		processor: processor,
		log:       log,
	}

	w.server = asynq.NewServer(opt, asynq.Config{
		Concurrency: concurrency,
		Queues: map[string]int{
			queueName(cfg): 1,
		},
		ShutdownTimeout: defaultShutdownTimeout,
		Logger:          newAsynqLogger(log),
		ErrorHandler:    asynq.ErrorHandlerFunc(w.handleError),
	})

	w.mux.HandleFunc(TaskCallCompleted, w.handleCallCompleted)

	return w, nil
}

func (w *Worker) handleCallCompleted(ctx context.Context, task *asynq.Task) error {
	payload, err := ParseCallCompletedPayload(task)
	if err != nil {
		// The envelope is written by our own client; an unreadable one will never parse.
		w.log.Error("scheduler: dropping unreadable call event task", "error", err)
		return fmt.Errorf("parse call event payload: %v: %w", err, asynq.SkipRetry)
	}
	return w.processor.Process(ctx, payload)
}

func (w *Worker) handleError(ctx context.Context, task *asynq.Task, err error) {
	retried, _ := asynq.GetRetryCount(ctx)
	maxRetry, _ := asynq.GetMaxRetry(ctx)
	taskID, _ := asynq.GetTaskID(ctx)

	if errors.Is(err, asynq.SkipRetry) || retried >= maxRetry {
		w.log.WithContext(ctx).TaskArchived(task.Type(), taskID, retried, err)
		return
	}
	w.log.WithContext(ctx).TaskRetrying(task.Type(), taskID, retried, maxRetry, err)
}

// Run processes tasks until ctx is cancelled, then drains in-flight tasks.
// asynq's own signal handling is bypassed so the caller's context decides shutdown.
func (w *Worker) Run(ctx context.Context) error {
	if w == nil || w.server == nil {
		return nil
	}

	if err := w.server.Start(w.mux); err != nil {
		w.log.Error("scheduler worker failed to start", "error", err)
		return err
	}

	<-ctx.Done()
	w.server.Shutdown()
	w.log.Info("scheduler worker stopped")
	return nil
}
