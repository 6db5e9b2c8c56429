package snowtrack

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/AcidFlow/snowtrack/adapters"
)

// Platform codes accepted by the collector.
var supportedPlatforms = map[string]bool{
	"web":  true,
	"pc":   true,
	"tv":   true,
	"mob":  true,
	"cnsl": true,
	"iot":  true,
	"srv":  true,
}

const defaultPlatform = "srv"

// Tracker assembles tracking calls into collector payloads and hands them to
// its emitter. Identity fields set through the Set* methods stick to every
// subsequent event; everything else is built fresh per call, so a Tracker is
// safe for concurrent use.
type Tracker struct {
	emitter      Emitter
	namespace    string
	appID        string
	base64Encode bool
	logger       LoggerAdapter
	subject      *subject
}

// NewTracker creates a tracker that reports through config.Emitter.
func NewTracker(config TrackerConfig) (*Tracker, error) {
	// Validate required fields
	if config.Emitter == nil {
		return nil, errors.New("Emitter is required")
	}
	if config.Namespace == "" {
		return nil, errors.New("Namespace is required")
	}
	if config.AppID == "" {
		return nil, errors.New("AppID is required")
	}

	platform := config.Platform
	if platform == "" {
		platform = defaultPlatform
	}
	if !supportedPlatforms[platform] {
		return nil, fmt.Errorf("unsupported platform %q", platform)
	}

	t := &Tracker{
		emitter:      config.Emitter,
		namespace:    config.Namespace,
		appID:        config.AppID,
		base64Encode: config.Base64Encode,
		subject:      newSubject(platform),
	}

	// Use provided logger or default
	if config.Logger != nil {
		t.logger = config.Logger
	} else {
		t.logger = adapters.NewPrintLoggerAdapter(adapters.LogLevelWarn)
	}

	return t, nil
}

// TrackPageView tracks a page view.
func (t *Tracker) TrackPageView(e PageView) error {
	if e.PageURL == "" {
		return errors.New("page url cannot be empty")
	}
	context, err := parseOptionalJSON(e.Context)
	if err != nil {
		return err
	}
	payload, err := t.newPayload().PageView(e.PageURL, e.PageTitle, e.Referrer, context)
	if err != nil {
		return err
	}
	return t.send(payload, e.Timestamp)
}

// TrackStructuredEvent tracks a structured event.
func (t *Tracker) TrackStructuredEvent(e StructuredEvent) error {
	if e.Category == "" {
		return errors.New("event category cannot be empty")
	}
	context, err := parseOptionalJSON(e.Context)
	if err != nil {
		return err
	}
	payload, err := t.newPayload().StructuredEvent(
		e.Category, e.Action, e.Label, e.Property, strconv.Itoa(e.Value), context)
	if err != nil {
		return err
	}
	return t.send(payload, e.Timestamp)
}

// TrackUnstructuredEvent tracks a self-describing event.
func (t *Tracker) TrackUnstructuredEvent(e UnstructuredEvent) error {
	if e.Data == nil {
		return errors.New("event data is required")
	}
	context, err := parseOptionalJSON(e.Context)
	if err != nil {
		return err
	}
	t.logger.Debug("Tracking unstructured event %q", e.Name)
	payload, err := t.newPayload().UnstructuredEvent(e.Vendor, e.Data, context)
	if err != nil {
		return err
	}
	return t.send(payload, e.Timestamp)
}

// TrackScreenView tracks a screen view as an unstructured event named
// screen_view under the default vendor.
func (t *Tracker) TrackScreenView(e ScreenView) error {
	if e.Name == "" {
		return errors.New("screen name cannot be empty")
	}
	properties := map[string]any{"name": e.Name}
	if e.ID != "" {
		properties["id"] = e.ID
	}
	return t.TrackUnstructuredEvent(UnstructuredEvent{
		Vendor:    defaultVendor,
		Name:      "screen_view",
		Data:      JSONFromMap(properties),
		Context:   e.Context,
		Timestamp: e.Timestamp,
	})
}

// TrackTransaction tracks an e-commerce transaction and all of its items.
// The transaction payload and every item payload share one generated
// transaction id and one timestamp.
func (t *Tracker) TrackTransaction(e Transaction) error {
	if e.OrderID == "" {
		return errors.New("transaction order id cannot be empty")
	}
	for i, item := range e.Items {
		if item.SKU == "" {
			return fmt.Errorf("transaction item %d: sku cannot be empty", i)
		}
	}
	context, err := parseOptionalJSON(e.Context)
	if err != nil {
		return err
	}

	transactionID := newTransactionID()
	timestamp := e.Timestamp
	if timestamp == 0 {
		timestamp = time.Now().UnixMilli()
	}

	payload, err := t.newPayload().Transaction(
		e.OrderID, e.TotalValue, e.TaxValue, e.Shipping,
		e.Affiliation, e.City, e.State, e.Country, e.Currency,
		context, transactionID)
	if err != nil {
		return err
	}
	if err := t.send(payload, timestamp); err != nil {
		return err
	}

	for _, item := range e.Items {
		itemPayload, err := t.newPayload().TransactionItem(
			e.OrderID, item.SKU, item.Price, item.Quantity,
			item.Name, item.Category, item.Currency,
			nil, transactionID)
		if err != nil {
			return err
		}
		if err := t.send(itemPayload, timestamp); err != nil {
			return err
		}
	}
	return nil
}

// SetUserID sets the sticky user id (uid).
func (t *Tracker) SetUserID(userID string) error {
	if userID == "" {
		return errors.New("user id cannot be empty")
	}
	t.subject.set(paramUserID, userID)
	return nil
}

// SetScreenResolution sets the sticky screen resolution (res) as "WxH".
func (t *Tracker) SetScreenResolution(width, height int) error {
	if width <= 0 || height <= 0 {
		return errors.New("screen resolution must be positive")
	}
	t.subject.set(paramResolution, dimensions(width, height))
	return nil
}

// SetViewport sets the sticky viewport size (vp) as "WxH".
func (t *Tracker) SetViewport(width, height int) error {
	if width <= 0 || height <= 0 {
		return errors.New("viewport must be positive")
	}
	t.subject.set(paramViewport, dimensions(width, height))
	return nil
}

// SetColorDepth sets the sticky color depth (cd).
func (t *Tracker) SetColorDepth(depth int) error {
	if depth < 0 {
		return errors.New("color depth cannot be negative")
	}
	t.subject.set(paramColorDepth, strconv.Itoa(depth))
	return nil
}

// SetTimezone sets the sticky timezone (tz).
func (t *Tracker) SetTimezone(timezone string) error {
	if timezone == "" {
		return errors.New("timezone cannot be empty")
	}
	t.subject.set(paramTimezone, timezone)
	return nil
}

// SetLanguage sets the sticky language (lang).
func (t *Tracker) SetLanguage(language string) error {
	if language == "" {
		return errors.New("language cannot be empty")
	}
	t.subject.set(paramLanguage, language)
	return nil
}

// SetPlatform changes the platform (p) reported on subsequent events.
func (t *Tracker) SetPlatform(platform string) error {
	if !supportedPlatforms[platform] {
		return fmt.Errorf("unsupported platform %q", platform)
	}
	t.subject.setPlatform(platform)
	return nil
}

// newPayload builds the per-call starting payload: encoding configuration,
// standard identity pairs, then the sticky subject fields.
func (t *Tracker) newPayload() Payload {
	p := NewPayload().
		AddConfig(configEncodeBase64, t.base64Encode).
		AddStandardPairs(t.subject.platform(), trackerVersion, t.namespace, t.appID)
	return t.subject.apply(p)
}

// send stamps the definitive timestamp and hands the finished payload to the
// emitter. A zero timestamp means send time.
func (t *Tracker) send(p Payload, timestampMS int64) error {
	if timestampMS > 0 {
		p = p.WithTimestampMS(timestampMS)
	} else {
		p = p.WithTimestamp()
	}
	t.logger.Debug("Submitting payload: %s", p.String())
	return t.emitter.Submit(p.Map())
}

func dimensions(width, height int) string {
	return strconv.Itoa(width) + "x" + strconv.Itoa(height)
}
