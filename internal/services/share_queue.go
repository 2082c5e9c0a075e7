package services

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/hibiken/asynq"
	"github.com/huangang/researchhub/internal/config"
	"github.com/huangang/researchhub/pkg/logger"
)

// TaskTypeShare is the asynq task type for share deliveries.
const TaskTypeShare = "project:share"

const shareTaskTimeout = 30 * time.Second

// ShareTask is a queued "send this project to someone" delivery.
type ShareTask struct {
	ProjectID    uint   `json:"project_id"`
	ProjectTitle string `json:"project_title"`
	ProjectURL   string `json:"project_url,omitempty"`
	Recipient    string `json:"recipient"`
	Message      string `json:"message,omitempty"`
	SharedBy     string `json:"shared_by"`
	SharedByID   uint   `json:"shared_by_id"`
}

func (t *ShareTask) payload() ([]byte, error) {
	return json.Marshal(t)
}

func shareTaskFromPayload(b []byte) (*ShareTask, error) {
	var task ShareTask
	if err := json.Unmarshal(b, &task); err != nil {
		return nil, err
	}
	return &task, nil
}

// ShareProcessor delivers one share task.
type ShareProcessor func(context.Context, *ShareTask) error

// TaskQueue hands share deliveries off the request path.
type TaskQueue interface {
	Enqueue(task *ShareTask) error
	IsAsync() bool
	Close() error
}

// NewTaskQueue returns a Redis-backed queue when Redis is enabled and
// answers, otherwise an in-process one.
func NewTaskQueue(cfg *config.RedisConfig) TaskQueue {
	if !cfg.Enabled {
		logger.Info().Msg("[ShareQueue] using in-process delivery")
		return NewSyncQueue()
	}
	q, err := NewAsyncQueue(cfg)
	if err != nil {
		logger.Warn().Err(err).Str("addr", cfg.Addr).Msg("[ShareQueue] Redis unreachable, using in-process delivery")
		return NewSyncQueue()
	}
	logger.Info().Str("addr", cfg.Addr).Str("queue", q.queue).Msg("[ShareQueue] using Redis delivery")
	return q
}

func redisOpt(cfg *config.RedisConfig) asynq.RedisClientOpt {
	return asynq.RedisClientOpt{Addr: cfg.Addr, Password: cfg.Password, DB: cfg.DB}
}

func queueName(cfg *config.RedisConfig) string {
	if cfg.Queue == "" {
		return "shares"
	}
	return cfg.Queue
}

// AsyncQueue pushes share tasks to Redis through asynq.
type AsyncQueue struct {
	client   *asynq.Client
	queue    string
	maxRetry int
}

func NewAsyncQueue(cfg *config.RedisConfig) (*AsyncQueue, error) {
	opt := redisOpt(cfg)
	client := asynq.NewClient(opt)
	if err := client.Ping(); err != nil {
		client.Close()
		return nil, err
	}
	maxRetry := cfg.MaxRetry
	if maxRetry < 0 {
		maxRetry = 0
	}
	return &AsyncQueue{client: client, queue: queueName(cfg), maxRetry: maxRetry}, nil
}

func (q *AsyncQueue) Enqueue(task *ShareTask) error {
	b, err := task.payload()
	if err != nil {
		return err
	}
	info, err := q.client.Enqueue(asynq.NewTask(TaskTypeShare, b),
		asynq.Queue(q.queue),
		asynq.MaxRetry(q.maxRetry),
		asynq.Timeout(shareTaskTimeout),
	)
	if err != nil {
		return err
	}
	logger.Debug().Str("id", info.ID).Uint("project_id", task.ProjectID).Msg("[ShareQueue] enqueued")
	return nil
}

func (q *AsyncQueue) IsAsync() bool { return true }

func (q *AsyncQueue) Close() error { return q.client.Close() }

// SyncQueue delivers on a background goroutine in this process.
// Close blocks until every started delivery has returned.
type SyncQueue struct {
	processor ShareProcessor
	inflight  sync.WaitGroup
}

func NewSyncQueue() *SyncQueue {
	return &SyncQueue{}
}

func (q *SyncQueue) SetProcessor(p ShareProcessor) {
	q.processor = p
}

func (q *SyncQueue) Enqueue(task *ShareTask) error {
	p := q.processor
	if p == nil {
		logger.Warn().Uint("project_id", task.ProjectID).Msg("[ShareQueue] no processor, delivery dropped")
		return nil
	}
	q.inflight.Add(1)
	go func() {
		defer q.inflight.Done()
		ctx, cancel := context.WithTimeout(context.Background(), shareTaskTimeout)
		defer cancel()
		if err := p(ctx, task); err != nil {
			logger.Warn().Err(err).Uint("project_id", task.ProjectID).Msg("[ShareQueue] delivery failed")
		}
	}()
	return nil
}

func (q *SyncQueue) IsAsync() bool { return false }

func (q *SyncQueue) Close() error {
	q.inflight.Wait()
	return nil
}
