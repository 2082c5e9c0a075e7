package services

import (
	"context"
	"sync"

	"github.com/hibiken/asynq"
	"github.com/huangang/researchhub/internal/config"
	"github.com/huangang/researchhub/pkg/logger"
)

// Worker pulls share tasks off Redis and runs them through a ShareProcessor.
type Worker struct {
	mu        sync.Mutex
	server    *asynq.Server
	processor ShareProcessor
	started   bool
}

// NewWorker returns nil when Redis is disabled.
func NewWorker(cfg *config.RedisConfig) *Worker {
	if !cfg.Enabled {
		return nil
	}
	concurrency := cfg.Concurrency
	if concurrency <= 0 {
		concurrency = 1
	}
	srv := asynq.NewServer(redisOpt(cfg), asynq.Config{
		Concurrency: concurrency,
		Queues:      map[string]int{queueName(cfg): 1},
		ErrorHandler: asynq.ErrorHandlerFunc(func(ctx context.Context, task *asynq.Task, err error) {
			retried, _ := asynq.GetRetryCount(ctx)
			maxRetry, _ := asynq.GetMaxRetry(ctx)
			logger.Warn().Err(err).
				Str("type", task.Type()).
				Int("retry", retried).
				Int("max_retry", maxRetry).
				Msg("[ShareWorker] delivery failed")
		}),
	})
	return &Worker{server: srv}
}

func (w *Worker) SetProcessor(p ShareProcessor) {
	w.processor = p
}

// Start begins consuming without installing signal handlers.
func (w *Worker) Start() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.started {
		return nil
	}

	mux := asynq.NewServeMux()
	mux.HandleFunc(TaskTypeShare, w.handleShareTask)
	if err := w.server.Start(mux); err != nil {
		return err
	}
	w.started = true
	logger.Info().Msg("[ShareWorker] started")
	return nil
}

func (w *Worker) Stop() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if !w.started {
		return
	}
	w.server.Shutdown()
	w.started = false
	logger.Info().Msg("[ShareWorker] stopped")
}

func (w *Worker) handleShareTask(ctx context.Context, t *asynq.Task) error {
	task, err := shareTaskFromPayload(t.Payload())
	if err != nil {
		logger.Warn().Err(err).Msg("[ShareWorker] undecodable payload")
		return asynq.SkipRetry
	}
	if w.processor == nil {
		logger.Warn().Uint("project_id", task.ProjectID).Msg("[ShareWorker] no processor")
		return nil
	}
	return w.processor(ctx, task)
}
