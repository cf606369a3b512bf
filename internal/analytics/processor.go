package analytics

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
)

var (
	ErrProcessorNotStarted = errors.New("processor not started")
	ErrQueueFull           = errors.New("badge retry queue is full")
	ErrProcessorStopped    = errors.New("processor stopped and cannot be restarted")
)

// BadgeJob identifies a badge evaluation that failed inline.
type BadgeJob struct {
	UserID    string
	ProfileID string
}

// ProcessorConfig holds configuration for the badge retry processor
type ProcessorConfig struct {
	WorkerCount     int           // Number of worker goroutines
	BufferSize      int           // Size of the job queue buffer
	RetryAttempts   int           // Attempts per job, including the first
	RetryDelay      time.Duration // Base delay between retries
	AttemptTimeout  time.Duration // Deadline of a single evaluation
	ShutdownTimeout time.Duration // Time to wait for graceful shutdown
}

// DefaultProcessorConfig returns the default retry settings.
func DefaultProcessorConfig() ProcessorConfig {
	return ProcessorConfig{
		WorkerCount:     2,
		BufferSize:      1000,
		RetryAttempts:   3,
		RetryDelay:      time.Second,
		AttemptTimeout:  30 * time.Second,
		ShutdownTimeout: 10 * time.Second,
	}
}

// Processor re-runs badge evaluations that failed during ingestion.
// Jobs live only in memory and are dropped when the queue is full or the
// process stops.
type Processor struct {
	config    ProcessorConfig
	evaluator BadgeEvaluator
	log       *zap.Logger
	jobQueue  chan BadgeJob
	wg        sync.WaitGroup
	ctx       context.Context
	cancel    context.CancelFunc
	started   bool
	stopped   bool
	mu        sync.RWMutex
}

// NewProcessor creates a badge retry processor.
func NewProcessor(evaluator BadgeEvaluator, log *zap.Logger, config ProcessorConfig) *Processor {
	ctx, cancel := context.WithCancel(context.Background())

	return &Processor{
		config:    config,
		evaluator: evaluator,
		log:       log.With(zap.String("component", "badge_processor")),
		jobQueue:  make(chan BadgeJob, config.BufferSize),
		ctx:       ctx,
		cancel:    cancel,
	}
}

// Start launches the workers. A stopped processor cannot be started again.
func (p *Processor) Start() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.stopped {
		return ErrProcessorStopped
	}
	if p.started {
		return fmt.Errorf("processor already started")
	}

	p.log.Info("starting badge retry processor",
		zap.Int("workers", p.config.WorkerCount),
		zap.Int("buffer_size", p.config.BufferSize),
		zap.Int("retry_attempts", p.config.RetryAttempts),
	)

	for i := 0; i < p.config.WorkerCount; i++ {
		p.wg.Add(1)
		go p.worker(i)
	}

	p.started = true
	return nil
}

// Stop drains the queue and waits for the workers up to ShutdownTimeout.
func (p *Processor) Stop() error {
	p.mu.Lock()
	if !p.started {
		p.mu.Unlock()
		return ErrProcessorNotStarted
	}
	p.started = false
	p.stopped = true
	close(p.jobQueue)
	p.mu.Unlock()

	p.log.Info("stopping badge retry processor", zap.Int("pending", len(p.jobQueue)))

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		p.cancel()
		p.log.Info("badge retry processor stopped gracefully")
		return nil
	case <-time.After(p.config.ShutdownTimeout):
		p.cancel()
		<-done
		p.log.Warn("badge retry processor shutdown timeout reached")
		return fmt.Errorf("shutdown timeout reached")
	}
}

// Submit queues a job without blocking.
func (p *Processor) Submit(job BadgeJob) error {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if !p.started {
		return ErrProcessorNotStarted
	}

	select {
	case p.jobQueue <- job:
		p.log.Debug("badge evaluation queued for retry",
			zap.String("user_id", job.UserID),
			zap.String("profile_id", job.ProfileID))
		return nil
	default:
		p.log.Error("badge retry queue is full, dropping job",
			zap.String("user_id", job.UserID),
			zap.Int("queue_size", len(p.jobQueue)),
		)
		return ErrQueueFull
	}
}

func (p *Processor) worker(workerID int) {
	defer p.wg.Done()

	log := p.log.With(zap.Int("worker_id", workerID))
	log.Debug("badge worker started")

	for job := range p.jobQueue {
		p.evaluateWithRetry(log, job)
	}

	log.Debug("badge worker stopped")
}

func (p *Processor) evaluateWithRetry(log *zap.Logger, job BadgeJob) {
	var lastErr error

	for attempt := 1; attempt <= p.config.RetryAttempts; attempt++ {
		if attempt > 1 {
			delay := p.config.RetryDelay * time.Duration(1<<(attempt-2))
			select {
			case <-time.After(delay):
			case <-p.ctx.Done():
				log.Info("worker shutdown during retry delay", zap.String("user_id", job.UserID))
				return
			}
		}

		ctx, cancel := context.WithTimeout(p.ctx, p.config.AttemptTimeout)
		result, err := p.evaluator.Evaluate(ctx, job.UserID, job.ProfileID)
		cancel()

		if err == nil {
			log.Info("badge evaluation succeeded on retry",
				zap.String("user_id", job.UserID),
				zap.Int("attempt", attempt),
				zap.Int("newly_awarded", len(result.NewlyAwarded)),
			)
			return
		}

		lastErr = err
		log.Warn("badge evaluation retry failed",
			zap.String("user_id", job.UserID),
			zap.Int("attempt", attempt),
			zap.Int("max_attempts", p.config.RetryAttempts),
			zap.Error(err),
		)
	}

	log.Error("badge evaluation failed after all retries",
		zap.String("user_id", job.UserID),
		zap.String("profile_id", job.ProfileID),
		zap.Int("attempts", p.config.RetryAttempts),
		zap.Error(lastErr),
	)
}

// Stats reports queue occupancy.
func (p *Processor) Stats() map[string]interface{} {
	p.mu.RLock()
	defer p.mu.RUnlock()

	return map[string]interface{}{
		"started":        p.started,
		"queue_length":   len(p.jobQueue),
		"queue_capacity": cap(p.jobQueue),
		"worker_count":   p.config.WorkerCount,
		"retry_attempts": p.config.RetryAttempts,
	}
}
