package snowtrack

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"

	"github.com/AcidFlow/snowtrack/adapters"
)

type mockHTTPAdapter struct {
	calls      int
	batches    [][]Event
	err        error
	statusCode int
}

func (m *mockHTTPAdapter) Send(endpoint string, events []Event, headers map[string]string) (*HTTPResponse, error) {
	m.calls++
	m.batches = append(m.batches, events)
	if m.err != nil {
		return nil, m.err
	}
	status := m.statusCode
	if status == 0 {
		status = 200
	}
	return &HTTPResponse{Status: status, OK: status >= 200 && status < 300}, nil
}

type mockStorageAdapter struct {
	saved  []Event
	loaded []Event
	err    error
}

func (m *mockStorageAdapter) Save(events []Event) error {
	if m.err != nil {
		return m.err
	}
	m.saved = events
	return nil
}

func (m *mockStorageAdapter) Load() ([]Event, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.loaded, nil
}

func (m *mockStorageAdapter) Clear() error {
	m.saved = nil
	return nil
}

func newTestEmitter(t *testing.T, config EmitterConfig) *BatchEmitter {
	t.Helper()
	if config.CollectorURL == "" {
		config.CollectorURL = "http://collector.test"
	}
	if config.Logger == nil {
		config.Logger = adapters.NewNoOpLoggerAdapter()
	}
	emitter, err := NewBatchEmitter(config)
	require.NoError(t, err)
	emitter.backoffBase = time.Millisecond
	return emitter
}

func TestBatchEmitter_RequiresCollectorURL(t *testing.T) {
	_, err := NewBatchEmitter(EmitterConfig{})
	require.Error(t, err)
}

func TestBatchEmitter_Defaults(t *testing.T) {
	emitter := newTestEmitter(t, EmitterConfig{})

	require.Equal(t, 5*time.Second, emitter.config.FlushInterval)
	require.Equal(t, 10, emitter.config.MaxBatchSize)
	require.Equal(t, 3, emitter.config.MaxRetries)
}

func TestBatchEmitter_SubmitAndFlush(t *testing.T) {
	httpAdapter := &mockHTTPAdapter{}
	storage := &mockStorageAdapter{}
	emitter := newTestEmitter(t, EmitterConfig{
		FlushInterval:  10 * time.Second,
		HTTPAdapter:    httpAdapter,
		StorageAdapter: storage,
	})
	require.NoError(t, emitter.Start())
	defer emitter.Stop()

	require.NoError(t, emitter.Submit(Event{"e": "pv", "url": "http://x.test"}))
	emitter.Flush()

	require.Equal(t, 1, httpAdapter.calls)
	require.Len(t, httpAdapter.batches[0], 1)
	require.Equal(t, "http://x.test", httpAdapter.batches[0][0]["url"])
	require.Equal(t, 0, emitter.queue.Len())
}

func TestBatchEmitter_BatchSizeTriggersFlush(t *testing.T) {
	httpAdapter := &mockHTTPAdapter{}
	emitter := newTestEmitter(t, EmitterConfig{
		FlushInterval:  10 * time.Second,
		MaxBatchSize:   2,
		HTTPAdapter:    httpAdapter,
		StorageAdapter: &mockStorageAdapter{},
	})
	require.NoError(t, emitter.Start())
	defer emitter.Stop()

	require.NoError(t, emitter.Submit(Event{"e": "pv"}))
	require.NoError(t, emitter.Submit(Event{"e": "se"}))

	time.Sleep(100 * time.Millisecond)

	require.NotZero(t, httpAdapter.calls)
}

func TestBatchEmitter_Rebatching(t *testing.T) {
	httpAdapter := &mockHTTPAdapter{}
	emitter := newTestEmitter(t, EmitterConfig{
		FlushInterval:  10 * time.Second,
		MaxBatchSize:   3,
		HTTPAdapter:    httpAdapter,
		StorageAdapter: &mockStorageAdapter{},
	})
	require.NoError(t, emitter.Start())

	// Load 7 events directly so the size trigger doesn't flush early.
	events := make([]Event, 7)
	for i := range events {
		events[i] = Event{"e": "se", "se_ca": fmt.Sprintf("cat%d", i)}
	}
	emitter.queue.LoadFromSlice(events)

	emitter.Flush()

	require.Equal(t, 3, httpAdapter.calls)
	require.Len(t, httpAdapter.batches[0], 3)
	require.Len(t, httpAdapter.batches[2], 1)
	require.Equal(t, 0, emitter.queue.Len())
}

func TestBatchEmitter_4xxDropsEvents(t *testing.T) {
	httpAdapter := &mockHTTPAdapter{statusCode: 400}
	storage := &mockStorageAdapter{}
	emitter := newTestEmitter(t, EmitterConfig{
		FlushInterval:  10 * time.Second,
		HTTPAdapter:    httpAdapter,
		StorageAdapter: storage,
	})
	require.NoError(t, emitter.Start())
	defer emitter.Stop()

	require.NoError(t, emitter.Submit(Event{"e": "pv"}))
	emitter.Flush()

	// no retries for 4xx, events dropped, nothing persisted
	require.Equal(t, 1, httpAdapter.calls)
	require.Equal(t, 0, emitter.queue.Len())
	require.Empty(t, storage.saved)
}

func TestBatchEmitter_5xxRetriesThenRequeues(t *testing.T) {
	httpAdapter := &mockHTTPAdapter{statusCode: 500}
	storage := &mockStorageAdapter{}
	emitter := newTestEmitter(t, EmitterConfig{
		FlushInterval:  10 * time.Second,
		MaxRetries:     2,
		HTTPAdapter:    httpAdapter,
		StorageAdapter: storage,
	})
	require.NoError(t, emitter.Start())

	require.NoError(t, emitter.Submit(Event{"e": "pv"}))
	emitter.Flush()

	// 1 initial + 2 retries
	require.Equal(t, 3, httpAdapter.calls)
	require.Equal(t, 1, emitter.queue.Len())
	require.Len(t, storage.saved, 1)
}

func TestBatchEmitter_NetworkErrorRetriesThenRequeues(t *testing.T) {
	httpAdapter := &mockHTTPAdapter{err: errors.New("network timeout")}
	storage := &mockStorageAdapter{}
	emitter := newTestEmitter(t, EmitterConfig{
		FlushInterval:  10 * time.Second,
		MaxRetries:     1,
		HTTPAdapter:    httpAdapter,
		StorageAdapter: storage,
	})
	require.NoError(t, emitter.Start())

	require.NoError(t, emitter.Submit(Event{"e": "pv"}))
	emitter.Flush()

	require.Equal(t, 2, httpAdapter.calls)
	require.Equal(t, 1, emitter.queue.Len())
	require.Len(t, storage.saved, 1)
}

func TestBatchEmitter_StartLoadsPersistedEvents(t *testing.T) {
	httpAdapter := &mockHTTPAdapter{}
	storage := &mockStorageAdapter{loaded: []Event{{"e": "pv", "url": "http://x.test"}}}
	emitter := newTestEmitter(t, EmitterConfig{
		FlushInterval:  10 * time.Second,
		HTTPAdapter:    httpAdapter,
		StorageAdapter: storage,
	})

	require.NoError(t, emitter.Start())
	require.Equal(t, 1, emitter.queue.Len())

	emitter.Flush()
	require.Equal(t, 1, httpAdapter.calls)
}

func TestBatchEmitter_StartLoadError(t *testing.T) {
	emitter := newTestEmitter(t, EmitterConfig{
		HTTPAdapter:    &mockHTTPAdapter{},
		StorageAdapter: &mockStorageAdapter{err: errors.New("load error")},
	})

	require.Error(t, emitter.Start())
}

func TestBatchEmitter_StopPersistsUndelivered(t *testing.T) {
	httpAdapter := &mockHTTPAdapter{statusCode: 500}
	storage := &mockStorageAdapter{}
	emitter := newTestEmitter(t, EmitterConfig{
		FlushInterval:  10 * time.Second,
		MaxRetries:     1,
		HTTPAdapter:    httpAdapter,
		StorageAdapter: storage,
	})
	require.NoError(t, emitter.Start())

	require.NoError(t, emitter.Submit(Event{"e": "pv"}))
	require.NoError(t, emitter.Stop())

	require.Len(t, storage.saved, 1)
}

func TestBatchEmitter_StopWithoutFlushSkipsDelivery(t *testing.T) {
	httpAdapter := &mockHTTPAdapter{}
	storage := &mockStorageAdapter{}
	emitter := newTestEmitter(t, EmitterConfig{
		FlushInterval:  10 * time.Second,
		HTTPAdapter:    httpAdapter,
		StorageAdapter: storage,
	})
	require.NoError(t, emitter.Start())

	require.NoError(t, emitter.Submit(Event{"e": "pv"}))
	require.NoError(t, emitter.StopWithoutFlush())

	require.Zero(t, httpAdapter.calls)
	require.Len(t, storage.saved, 1)
}

func TestBatchEmitter_SubmitAfterStop(t *testing.T) {
	emitter := newTestEmitter(t, EmitterConfig{
		HTTPAdapter:    &mockHTTPAdapter{},
		StorageAdapter: &mockStorageAdapter{},
	})
	require.NoError(t, emitter.Start())
	require.NoError(t, emitter.Stop())

	err := emitter.Submit(Event{"e": "pv"})
	require.ErrorIs(t, err, ErrEmitterStopped)

	// second Stop is a no-op
	require.NoError(t, emitter.Stop())
}

func TestBatchEmitter_Metrics(t *testing.T) {
	registry := prometheus.NewRegistry()
	metrics := NewEmitterMetricsWith(registry, "ns")

	httpAdapter := &mockHTTPAdapter{}
	emitter := newTestEmitter(t, EmitterConfig{
		FlushInterval:  10 * time.Second,
		HTTPAdapter:    httpAdapter,
		StorageAdapter: &mockStorageAdapter{},
		Metrics:        metrics,
	})
	require.NoError(t, emitter.Start())
	defer emitter.Stop()

	require.NoError(t, emitter.Submit(Event{"e": "pv"}))
	require.NoError(t, emitter.Submit(Event{"e": "se"}))
	emitter.Flush()

	require.Equal(t, float64(2), testutil.ToFloat64(metrics.Submitted))
	require.Equal(t, float64(2), testutil.ToFloat64(metrics.Sent))
	require.Equal(t, float64(0), testutil.ToFloat64(metrics.Dropped))
}

func TestBatchEmitter_MetricsOnDropAndFailure(t *testing.T) {
	registry := prometheus.NewRegistry()
	metrics := NewEmitterMetricsWith(registry, "ns")

	httpAdapter := &mockHTTPAdapter{statusCode: 400}
	emitter := newTestEmitter(t, EmitterConfig{
		FlushInterval:  10 * time.Second,
		HTTPAdapter:    httpAdapter,
		StorageAdapter: &mockStorageAdapter{},
		Metrics:        metrics,
	})
	require.NoError(t, emitter.Start())
	defer emitter.Stop()

	require.NoError(t, emitter.Submit(Event{"e": "pv"}))
	emitter.Flush()

	require.Equal(t, float64(1), testutil.ToFloat64(metrics.Dropped))

	httpAdapter.statusCode = 500
	require.NoError(t, emitter.Submit(Event{"e": "se"}))
	emitter.Flush()

	require.Equal(t, float64(1), testutil.ToFloat64(metrics.Failed))
	require.NotZero(t, testutil.ToFloat64(metrics.Retries))
}
