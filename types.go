package snowtrack

import (
	"errors"
	"fmt"
	"time"

	"github.com/AcidFlow/snowtrack/adapters"
)

// Re-export adapter types for convenience
type (
	Event          = adapters.Event
	HTTPAdapter    = adapters.HTTPAdapter
	HTTPResponse   = adapters.HTTPResponse
	StorageAdapter = adapters.StorageAdapter
	LoggerAdapter  = adapters.LoggerAdapter
	LogLevel       = adapters.LogLevel
)

// Version is the tracker release reported to the collector in the tv
// parameter.
const Version = "0.1.0"

const trackerVersion = "go-" + Version

// ErrEmitterStopped is returned by Submit after the emitter has been
// stopped.
var ErrEmitterStopped = errors.New("emitter is stopped")

// CollectorError reports a non-2xx collector response that survived the
// retry policy.
type CollectorError struct {
	Status int
}

func (e *CollectorError) Error() string {
	return fmt.Sprintf("collector returned status %d", e.Status)
}

// Emitter is the transport collaborator: it receives finished payloads and
// owns their delivery to the collector, including retries. Submission is
// fire-and-forget; a returned error means the payload was not accepted for
// delivery at all.
type Emitter interface {
	Submit(event Event) error
}

// TrackerConfig configures a Tracker instance.
type TrackerConfig struct {
	// Emitter receives every finished payload. Required.
	Emitter Emitter
	// Namespace identifies this tracker instance (tna parameter). Required.
	Namespace string
	// AppID identifies the application (aid parameter). Required.
	AppID string
	// Platform is the default platform code (p parameter). Defaults to
	// "srv"; must be one of the supported codes.
	Platform string
	// Base64Encode selects base64 encoding for context and
	// unstructured-event JSON.
	Base64Encode bool
	// Logger receives tracker diagnostics. Defaults to a print logger at
	// warn level.
	Logger LoggerAdapter
}

// EmitterConfig configures a BatchEmitter.
type EmitterConfig struct {
	// CollectorURL is the collector base URL, e.g. "https://c.acme.com".
	// Required.
	CollectorURL string
	// Headers are added to every collector request.
	Headers map[string]string
	// FlushInterval is how often buffered events are flushed. Defaults to
	// 5s.
	FlushInterval time.Duration
	// MaxBatchSize triggers an early flush and bounds each send. Defaults
	// to 10.
	MaxBatchSize int
	// MaxRetries bounds delivery attempts per batch. Defaults to 3.
	MaxRetries int
	// HTTPAdapter performs collector requests. Defaults to the GET adapter.
	HTTPAdapter HTTPAdapter
	// StorageAdapter persists undelivered events across runs. Defaults to
	// file storage at "snowtrack_events.json".
	StorageAdapter StorageAdapter
	// Logger receives emitter diagnostics. Defaults to a print logger at
	// warn level.
	Logger LoggerAdapter
	// Metrics, when set, counts submissions and delivery outcomes.
	Metrics *EmitterMetrics
}
