package snowtrack

import (
	"errors"
	"math/rand"
	"sync"
	"time"

	"github.com/AcidFlow/snowtrack/adapters"
)

// BatchEmitter buffers finished payloads and delivers them to the collector
// in batches, on an interval and whenever the buffer reaches the batch size.
// Undeliverable events are re-queued and persisted through the storage
// adapter.
type BatchEmitter struct {
	config         EmitterConfig
	queue          *Queue
	httpAdapter    HTTPAdapter
	storageAdapter StorageAdapter
	logger         LoggerAdapter
	metrics        *EmitterMetrics
	ticker         *time.Ticker
	stopChan       chan struct{}
	flushMu        sync.Mutex
	wg             sync.WaitGroup
	timerStarted   bool
	timerMu        sync.Mutex
	stateMu        sync.Mutex
	stopped        bool
	backoffBase    time.Duration
}

// Ensure BatchEmitter implements the Emitter collaborator interface
var _ Emitter = (*BatchEmitter)(nil)

// NewBatchEmitter creates an emitter for the given collector.
func NewBatchEmitter(config EmitterConfig) (*BatchEmitter, error) {
	if config.CollectorURL == "" {
		return nil, errors.New("CollectorURL is required")
	}

	// Set defaults
	if config.FlushInterval == 0 {
		config.FlushInterval = 5 * time.Second
	}
	if config.MaxBatchSize <= 0 {
		config.MaxBatchSize = 10
	}
	if config.MaxRetries == 0 {
		config.MaxRetries = 3
	}

	e := &BatchEmitter{
		config:      config,
		queue:       NewQueue(),
		metrics:     config.Metrics,
		stopChan:    make(chan struct{}),
		backoffBase: time.Second,
	}

	// Use provided adapters or defaults
	if config.HTTPAdapter != nil {
		e.httpAdapter = config.HTTPAdapter
	} else {
		e.httpAdapter = adapters.NewGetHTTPAdapter()
	}
	if config.StorageAdapter != nil {
		e.storageAdapter = config.StorageAdapter
	} else {
		e.storageAdapter = adapters.NewFileStorageAdapter("snowtrack_events.json")
	}
	if config.Logger != nil {
		e.logger = config.Logger
	} else {
		e.logger = adapters.NewPrintLoggerAdapter(adapters.LogLevelWarn)
	}

	return e, nil
}

// Start loads events persisted by a previous run into the queue. The flush
// timer starts on the first submitted event.
func (e *BatchEmitter) Start() error {
	events, err := e.storageAdapter.Load()
	if err != nil {
		return err
	}
	e.queue.LoadFromSlice(events)
	return nil
}

// Submit accepts one finished payload for delivery. It never blocks on I/O;
// the only error is submission after Stop.
func (e *BatchEmitter) Submit(event Event) error {
	e.stateMu.Lock()
	if e.stopped {
		e.stateMu.Unlock()
		return ErrEmitterStopped
	}
	e.stateMu.Unlock()

	e.queue.Enqueue(event)
	if e.metrics != nil {
		e.metrics.Submitted.Inc()
	}

	// Start timer on first submitted event
	e.startTimerIfNeeded()

	if e.queue.Len() >= e.config.MaxBatchSize {
		go e.Flush()
	}
	return nil
}

func (e *BatchEmitter) startTimerIfNeeded() {
	e.timerMu.Lock()
	defer e.timerMu.Unlock()

	if !e.timerStarted {
		e.ticker = time.NewTicker(e.config.FlushInterval)
		e.timerStarted = true
		e.wg.Add(1)
		go func() {
			defer e.wg.Done()
			for {
				select {
				case <-e.ticker.C:
					e.Flush()
				case <-e.stopChan:
					return
				}
			}
		}()
	}
}

// Flush drains the queue and sends everything it held, in batches.
func (e *BatchEmitter) Flush() {
	e.flushMu.Lock()
	defer e.flushMu.Unlock()

	if e.queue.IsEmpty() {
		return
	}

	e.logger.Debug("Starting flush operation")

	allEvents := e.queue.ToSlice()
	e.queue.Clear()

	for i := 0; i < len(allEvents); i += e.config.MaxBatchSize {
		end := i + e.config.MaxBatchSize
		if end > len(allEvents) {
			end = len(allEvents)
		}
		batch := allEvents[i:end]

		e.logger.Debug("Sending batch of %d events", len(batch))
		if err := e.sendWithRetry(batch); err != nil {
			e.logger.Error("Failed to send batch: %v", err)
			// sendWithRetry re-queues for 5xx and network errors
		} else {
			e.logger.Debug("Successfully sent batch of %d events", len(batch))
		}
	}
}

func (e *BatchEmitter) sendWithRetry(events []Event) error {
	return e.sendWithRetryAttempt(events, 0)
}

func (e *BatchEmitter) sendWithRetryAttempt(events []Event, attempt int) error {
	e.logger.Debug("Sending collector request, attempt %d/%d", attempt+1, e.config.MaxRetries+1)

	resp, err := e.httpAdapter.Send(e.config.CollectorURL, events, e.config.Headers)

	if err != nil {
		// Network error
		e.logger.Error("Network error occurred: %v", err)

		if attempt < e.config.MaxRetries {
			e.backoff(attempt)
			return e.sendWithRetryAttempt(events, attempt+1)
		}

		e.logger.Error("Network error, max retries reached", map[string]any{
			"maxRetries":  e.config.MaxRetries,
			"eventsCount": len(events),
			"error":       err.Error(),
		})
		e.requeueAndPersist(events)
		return err
	}

	switch {
	case resp.Status >= 200 && resp.Status < 300:
		// Success - clear storage
		e.logger.Debug("Collector request successful, clearing storage")
		if e.metrics != nil {
			e.metrics.Sent.Add(float64(len(events)))
		}
		e.storageAdapter.Clear()
		return nil

	case resp.Status >= 400 && resp.Status < 500:
		// Client error - no retry, drop events
		e.logger.Warn("4xx client error, dropping events", map[string]any{
			"status":      resp.Status,
			"eventsCount": len(events),
		})
		if e.metrics != nil {
			e.metrics.Dropped.Add(float64(len(events)))
		}
		e.storageAdapter.Clear()
		return nil // events are intentionally dropped

	case resp.Status >= 500:
		// Server error - retry with backoff
		if attempt < e.config.MaxRetries {
			e.logger.Warn("5xx server error, retrying", map[string]any{
				"status":     resp.Status,
				"attempt":    attempt + 1,
				"maxRetries": e.config.MaxRetries,
			})
			e.backoff(attempt)
			return e.sendWithRetryAttempt(events, attempt+1)
		}

		e.logger.Error("5xx server error, max retries reached", map[string]any{
			"status":      resp.Status,
			"maxRetries":  e.config.MaxRetries,
			"eventsCount": len(events),
		})
		e.requeueAndPersist(events)
		return &CollectorError{Status: resp.Status}

	default:
		e.logger.Warn("Unexpected status code: %d", resp.Status)
		if e.metrics != nil {
			e.metrics.Failed.Add(float64(len(events)))
		}
		return &CollectorError{Status: resp.Status}
	}
}

func (e *BatchEmitter) backoff(attempt int) {
	if e.metrics != nil {
		e.metrics.Retries.Inc()
	}
	backoff := e.backoffBase * time.Duration(1<<attempt)
	jitter := time.Duration(rand.Int63n(int64(e.backoffBase)))
	sleepDuration := backoff + jitter
	e.logger.Debug("Retrying in %v", sleepDuration)
	time.Sleep(sleepDuration)
}

func (e *BatchEmitter) requeueAndPersist(events []Event) {
	if e.metrics != nil {
		e.metrics.Failed.Add(float64(len(events)))
	}
	e.queue.Requeue(events)

	all := e.queue.ToSlice()
	if len(all) > 0 {
		if err := e.storageAdapter.Save(all); err != nil {
			e.logger.Error("Failed to persist events: %v", err)
		}
	}
}

// Stop flushes outstanding events, persists what could not be delivered, and
// shuts the emitter down. Subsequent Submit calls fail.
func (e *BatchEmitter) Stop() error {
	if !e.markStopped() {
		return nil
	}
	e.stopTimer()

	e.Flush()

	events := e.queue.ToSlice()
	if len(events) > 0 {
		return e.storageAdapter.Save(events)
	}
	return nil
}

// StopWithoutFlush shuts the emitter down and persists queued events without
// attempting delivery.
func (e *BatchEmitter) StopWithoutFlush() error {
	if !e.markStopped() {
		return nil
	}
	e.stopTimer()

	events := e.queue.ToSlice()
	if len(events) > 0 {
		return e.storageAdapter.Save(events)
	}
	return nil
}

// markStopped flips the stopped flag; reports false when already stopped.
func (e *BatchEmitter) markStopped() bool {
	e.stateMu.Lock()
	defer e.stateMu.Unlock()
	if e.stopped {
		return false
	}
	e.stopped = true
	return true
}

func (e *BatchEmitter) stopTimer() {
	if e.ticker != nil {
		e.ticker.Stop()
	}
	close(e.stopChan)
	e.wg.Wait()
}
