package scheduler

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"time"

	"leadcall_backend/platform/config"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"
)

const (
	defaultQueue       = "default"
	defaultMaxRetry    = 10
	defaultTaskTimeout = 5 * time.Minute
)

type Client struct {
	client    *asynq.Client
	inspector *asynq.Inspector
	queue     string
	maxRetry  int
	timeout   time.Duration
}

// CallEventEnqueuer is what the webhook receiver and the replay tool need from the queue.
type CallEventEnqueuer interface {
	EnqueueCallCompleted(ctx context.Context, payload CallCompletedPayload) (duplicate bool, err error)
}

var _ CallEventEnqueuer = (*Client)(nil)

func NewClient(cfg config.SchedulerConfig) (*Client, error) {
	redisURL := cfg.GetRedisURL()
	if redisURL == "" {
		return nil, fmt.Errorf("redis url not configured")
	}

	opt, err := redisClientOpt(redisURL, cfg.GetRedisTLSInsecure())
	if err != nil {
		return nil, err
	}

	maxRetry := cfg.GetAsynqMaxRetry()
	if maxRetry < 0 {
		maxRetry = defaultMaxRetry
	}
	timeout := cfg.GetAsynqTaskTimeout()
	if timeout <= 0 {
		timeout = defaultTaskTimeout
	}

	return &Client{
		client:    asynq.NewClient(opt),
		inspector: asynq.NewInspector(opt),
		queue:     queueName(cfg),
		maxRetry:  maxRetry,
		timeout:   timeout,
	}, nil
}

func (c *Client) Close() error {
	if c == nil || c.client == nil {
		return nil
	}
	err := c.client.Close()
	if c.inspector != nil {
		err = errors.Join(err, c.inspector.Close())
	}
	return err
}

// EnqueueCallCompleted queues one webhook delivery. When the conversation id is known the task id is
// derived from it, so a delivery for a conversation that is already queued or in flight is reported
// as duplicate instead of creating a second task. An archived task for the same conversation is
// deleted and replaced, so a redelivery after retries were exhausted is processed again.
func (c *Client) EnqueueCallCompleted(ctx context.Context, payload CallCompletedPayload) (bool, error) {
	if c == nil || c.client == nil {
		return false, fmt.Errorf("scheduler client not configured")
	}

	task, err := NewCallCompletedTask(payload)
	if err != nil {
		return false, err
	}

	opts := []asynq.Option{
		asynq.Queue(c.queue),
		asynq.MaxRetry(c.maxRetry),
		asynq.Timeout(c.timeout),
	}
	taskID := CallEventTaskID(payload.ConversationID)
	if taskID != "" {
		opts = append(opts, asynq.TaskID(taskID))
	}

	_, err = c.client.EnqueueContext(ctx, task, opts...)
	if errors.Is(err, asynq.ErrTaskIDConflict) {
		replaced, rerr := c.replaceArchived(taskID)
		if rerr != nil {
			return false, fmt.Errorf("enqueue call event: %w", rerr)
		}
		if !replaced {
			return true, nil
		}
		_, err = c.client.EnqueueContext(ctx, task, opts...)
		if errors.Is(err, asynq.ErrTaskIDConflict) {
			// another delivery re-enqueued it first
			return true, nil
		}
	}
	if err != nil {
		return false, fmt.Errorf("enqueue call event: %w", err)
	}
	return false, nil
}

// replaceArchived deletes taskID when it sits in the archive. It reports whether the id is free again.
func (c *Client) replaceArchived(taskID string) (bool, error) {
	if c.inspector == nil || taskID == "" {
		return false, nil
	}
	info, err := c.inspector.GetTaskInfo(c.queue, taskID)
	if errors.Is(err, asynq.ErrTaskNotFound) {
		// completed and removed between the conflict and the lookup
		return true, nil
	}
	if err != nil {
		return false, fmt.Errorf("inspect task %s: %w", taskID, err)
	}
	if info.State != asynq.TaskStateArchived {
		return false, nil
	}
	if err := c.inspector.DeleteTask(c.queue, taskID); err != nil && !errors.Is(err, asynq.ErrTaskNotFound) {
		return false, fmt.Errorf("delete archived task %s: %w", taskID, err)
	}
	return true, nil
}

func queueName(cfg config.SchedulerConfig) string {
	queue := cfg.GetAsynqQueueName()
	if queue == "" {
		queue = defaultQueue
	}
	return queue
}

func redisClientOpt(redisURL string, tlsInsecure bool) (asynq.RedisClientOpt, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return asynq.RedisClientOpt{}, err
	}

	var tlsConfig *tls.Config
	if opt.TLSConfig != nil {
		clone := opt.TLSConfig.Clone()
		if tlsInsecure {
			clone.InsecureSkipVerify = true
		}
		tlsConfig = clone
	} else if tlsInsecure {
		tlsConfig = &tls.Config{InsecureSkipVerify: true}
	}

	return asynq.RedisClientOpt{
		Addr:      opt.Addr,
		Username:  opt.Username,
		Password:  opt.Password,
		DB:        opt.DB,
		TLSConfig: tlsConfig,
	}, nil
}
