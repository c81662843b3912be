package queue

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"MarketWhisperer/pkg/logger"

	"github.com/google/uuid"
)

type memoryMessage struct {
	id      string
	msgType string
	payload interface{}
}

// MemoryQueue runs jobs on in-process workers. Messages are lost on restart.
type MemoryQueue struct {
	logger    *logger.Logger
	config    *QueueConfig
	jobs      map[string]Job
	ch        chan memoryMessage
	wg        sync.WaitGroup
	mu        sync.RWMutex
	isRunning bool
	stopCh    chan struct{}
	ctx       context.Context
	cancel    context.CancelFunc
}

func NewMemoryQueue(lgr *logger.Logger, config *QueueConfig) *MemoryQueue {
	if config == nil {
		config = &QueueConfig{}
	}
	config.normalize()

	ctx, cancel := context.WithCancel(context.Background())
	return &MemoryQueue{
		logger: lgr,
		config: config,
		jobs:   make(map[string]Job),
		ch:     make(chan memoryMessage, config.QueueSize),
		stopCh: make(chan struct{}),
		ctx:    ctx,
		cancel: cancel,
	}
}

func (q *MemoryQueue) RegisterJob(job Job) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if _, exists := q.jobs[job.Type()]; exists {
		q.logger.Warn("job already registered", logger.String("job", job.Name()))
		return
	}
	q.jobs[job.Type()] = job
	q.logger.Info("job registered",
		logger.String("job", job.Name()),
		logger.String("type", job.Type()))
}

func (q *MemoryQueue) Start() error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.isRunning {
		return ErrAlreadyStart
	}
	q.isRunning = true

	for i := 0; i < q.config.Workers; i++ {
		q.wg.Add(1)
		go q.worker(i)
	}

	q.logger.Info("memory queue started",
		logger.Int("workers", q.config.Workers),
		logger.Int("queue_size", q.config.QueueSize))
	return nil
}

func (q *MemoryQueue) Stop(ctx context.Context) error {
	q.mu.Lock()
	if !q.isRunning {
		q.mu.Unlock()
		return nil
	}
	q.isRunning = false
	close(q.stopCh)
	q.mu.Unlock()

	defer q.cancel()

	doneCh := make(chan struct{})
	go func() {
		q.wg.Wait()
		close(doneCh)
	}()

	select {
	case <-ctx.Done():
		q.logger.Warn("timeout waiting for queue workers", logger.Error(ctx.Err()))
		return fmt.Errorf("timeout: %w", ctx.Err())
	case <-doneCh:
		if n := len(q.ch); n > 0 {
			q.logger.Warn("memory queue stopped with undelivered messages", logger.Int("pending", n))
		}
		q.logger.Info("memory queue stopped gracefully")
		return nil
	}
}

// Enqueue never blocks: a full buffer is reported as ErrQueueFull.
func (q *MemoryQueue) Enqueue(ctx context.Context, msgType string, payload interface{}) error {
	q.mu.RLock()
	defer q.mu.RUnlock()

	if !q.isRunning {
		return ErrNotRunning
	}
	if _, exists := q.jobs[msgType]; !exists {
		return fmt.Errorf("%w: %s", ErrUnknownType, msgType)
	}

	msg := memoryMessage{id: uuid.NewString(), msgType: msgType, payload: payload}
	select {
	case q.ch <- msg:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	default:
		return ErrQueueFull
	}
}

func (q *MemoryQueue) worker(id int) {
	defer q.wg.Done()

	for {
		select {
		case <-q.stopCh:
			q.logger.Debug("queue worker stopping", logger.Int("worker_id", id))
			return
		case msg := <-q.ch:
			q.process(msg)
		}
	}
}

func (q *MemoryQueue) process(msg memoryMessage) {
	q.mu.RLock()
	job := q.jobs[msg.msgType]
	q.mu.RUnlock()

	start := time.Now()
	err := job.Handle(q.ctx, msg.payload)
	if err == nil {
		return
	}
	if errors.Is(err, context.Canceled) {
		q.logger.Warn("message cancelled",
			logger.String("id", msg.id),
			logger.String("job", job.Name()),
			logger.Duration("elapsed_ms", time.Since(start)))
		return
	}
	q.logger.Error("message processing error",
		logger.String("id", msg.id),
		logger.String("job", job.Name()),
		logger.Error(err))
}
