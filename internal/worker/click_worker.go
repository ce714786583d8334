package worker

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// ErrPoolClosed is returned by Submit after Shutdown.
var ErrPoolClosed = errors.New("click worker pool is closed")

const flushTimeout = 3 * time.Second

type clickEvent struct {
	code string
	at   time.Time
}

type pendingClicks struct {
	count int64
	last  time.Time
}

// ClickRecorder persists aggregated clicks.
type ClickRecorder interface {
	RecordClicks(ctx context.Context, code string, n int64, at time.Time) error
}

// ClickWorkerPool aggregates redirect clicks per short code and flushes them
// in batches, bounded by size and by time.
type ClickWorkerPool struct {
	recorder     ClickRecorder
	requestChan  chan clickEvent
	batchSize    int
	batchTimeout time.Duration
	workerCount  int
	ctx          context.Context
	cancel       context.CancelFunc
	wg           sync.WaitGroup
	mu           sync.RWMutex
	closed       bool
	shutdownOnce sync.Once
	now          func() time.Time
}

type Config struct {
	WorkerCount  int
	BufferSize   int
	BatchSize    int
	BatchTimeout time.Duration
}

func DefaultConfig() Config {
	return Config{
		WorkerCount:  2,
		BufferSize:   1024,
		BatchSize:    100,
		BatchTimeout: time.Second,
	}
}

func NewClickWorkerPool(recorder ClickRecorder, config Config) *ClickWorkerPool {
	ctx, cancel := context.WithCancel(context.Background())

	return &ClickWorkerPool{
		recorder:     recorder,
		requestChan:  make(chan clickEvent, config.BufferSize),
		batchSize:    config.BatchSize,
		batchTimeout: config.BatchTimeout,
		workerCount:  config.WorkerCount,
		ctx:          ctx,
		cancel:       cancel,
		now:          func() time.Time { return time.Now().UTC() },
	}
}

func (p *ClickWorkerPool) Start() {
	log.Info().
		Int("workers", p.workerCount).
		Int("batchSize", p.batchSize).
		Dur("batchTimeout", p.batchTimeout).
		Msg("Starting click worker pool")

	for i := 0; i < p.workerCount; i++ {
		p.wg.Add(1)
		go p.worker(i)
	}
}

func (p *ClickWorkerPool) worker(id int) {
	defer p.wg.Done()

	batch := make(map[string]*pendingClicks)
	total := 0
	var timer *time.Timer
	var timerC <-chan time.Time

	flush := func() {
		if len(batch) == 0 {
			return
		}

		ctx, cancel := context.WithTimeout(p.ctx, flushTimeout)
		defer cancel()

		for code, pc := range batch {
			if err := p.recorder.RecordClicks(ctx, code, pc.count, pc.last); err != nil {
				log.Error().
					Err(err).
					Int("workerID", id).
					Str("code", code).
					Int64("clicks", pc.count).
					Msg("Failed to record clicks")
			}
		}

		log.Debug().Int("workerID", id).Int("codes", len(batch)).Int("clicks", total).Msg("Flushed clicks")

		clear(batch)
		total = 0
	}

	stopTimer := func() {
		if timer != nil && !timer.Stop() {
			select {
			case <-timer.C:
			default:
			}
		}
		timerC = nil
	}

	startTimer := func() {
		stopTimer()
		if timer == nil {
			timer = time.NewTimer(p.batchTimeout)
		} else {
			timer.Reset(p.batchTimeout)
		}
		timerC = timer.C
	}

	for {
		select {
		case <-p.ctx.Done():
			flush()
			stopTimer()
			return

		case ev, ok := <-p.requestChan:
			if !ok {
				flush()
				stopTimer()
				return
			}

			wasEmpty := len(batch) == 0
			pc, exists := batch[ev.code]
			if !exists {
				pc = &pendingClicks{}
				batch[ev.code] = pc
			}
			pc.count++
			if ev.at.After(pc.last) {
				pc.last = ev.at
			}
			total++

			if total >= p.batchSize {
				flush()
				stopTimer()
			} else if wasEmpty {
				startTimer()
			}

		case <-timerC:
			timerC = nil
			flush()
		}
	}
}

// Submit queues one click for code, blocking while the queue is full.
func (p *ClickWorkerPool) Submit(ctx context.Context, code string) error {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.closed {
		return ErrPoolClosed
	}

	ev := clickEvent{code: code, at: p.now()}

	select {
	case p.requestChan <- ev:
		return nil
	default:
	}

	log.Warn().Str("code", code).Msg("Click queue is full, blocking")

	select {
	case p.requestChan <- ev:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-p.ctx.Done():
		return ErrPoolClosed
	}
}

// Shutdown stops accepting clicks and waits for queued ones to be flushed.
// Workers are cancelled if they do not finish within timeout.
func (p *ClickWorkerPool) Shutdown(timeout time.Duration) error {
	var shutdownErr error

	p.shutdownOnce.Do(func() {
		log.Info().Msg("Shutting down click worker pool")

		p.mu.Lock()
		p.closed = true
		close(p.requestChan)
		p.mu.Unlock()

		done := make(chan struct{})
		go func() {
			p.wg.Wait()
			close(done)
		}()

		select {
		case <-done:
			log.Info().Msg("Click worker pool shut down gracefully")
		case <-time.After(timeout):
			log.Warn().Msg("Click worker pool shutdown timeout, cancelling workers")
			p.cancel()
			<-done
			shutdownErr = context.DeadlineExceeded
		}
		p.cancel()
	})

	return shutdownErr
}

func (p *ClickWorkerPool) Stats() PoolStats {
	return PoolStats{
		QueueSize:   len(p.requestChan),
		QueueCap:    cap(p.requestChan),
		WorkerCount: p.workerCount,
	}
}

type PoolStats struct {
	QueueSize   int
	QueueCap    int
	WorkerCount int
}
