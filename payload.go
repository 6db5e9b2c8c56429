package snowtrack

import (
	"fmt"
	"math/rand"
	"strconv"
	"strings"
	"time"
)

// Wire parameter names, fixed by the collector protocol.
const (
	paramEventType      = "e"
	paramTimestamp      = "dtm"
	paramTransactionID  = "tid"
	paramVendor         = "evn"
	paramPlatform       = "p"
	paramTrackerVersion = "tv"
	paramNamespace      = "tna"
	paramAppID          = "aid"

	paramPageURL   = "url"
	paramPageTitle = "page"
	paramReferrer  = "refr"

	paramSeCategory = "se_ca"
	paramSeAction   = "se_ac"
	paramSeLabel    = "se_la"
	paramSeProperty = "se_pr"
	paramSeValue    = "se_va"

	paramUnstructuredEncoded = "ue_px"
	paramUnstructuredPlain   = "ue_pr"
	paramContextEncoded      = "cx"
	paramContextPlain        = "co"

	paramTrOrderID     = "tr_id"
	paramTrTotal       = "tr_tt"
	paramTrAffiliation = "tr_af"
	paramTrTax         = "tr_tx"
	paramTrShipping    = "tr_sh"
	paramTrCity        = "tr_ci"
	paramTrState       = "tr_st"
	paramTrCountry     = "tr_co"
	paramTrCurrency    = "tr_cu"

	paramTiOrderID  = "ti_id"
	paramTiSKU      = "ti_sk"
	paramTiName     = "ti_nm"
	paramTiCategory = "ti_ca"
	paramTiPrice    = "ti_pr"
	paramTiQuantity = "ti_qu"
	paramTiCurrency = "ti_cu"
)

// Event type values for the e parameter.
const (
	eventPageView        = "pv"
	eventStructured      = "se"
	eventUnstructured    = "ue"
	eventTransaction     = "tr"
	eventTransactionItem = "ti"
)

// configEncodeBase64 toggles base64 encoding of the context and
// unstructured-event JSON parameters.
const configEncodeBase64 = "encode_base64"

const defaultVendor = "com.snowplowanalytics.snowplow"

// Payload is the flat key-value representation of one event, built up
// incrementally before transmission. Parameters keep insertion order for
// debug output.
//
// A Payload is a persistent value: every builder method returns a new
// Payload and never mutates its receiver, so partially-built payloads from
// a failed step are never observable and independent chains may be built
// from a shared snapshot without locking.
type Payload struct {
	keys       []string
	params     map[string]string
	configKeys []string
	configs    map[string]bool
}

// NewPayload returns an empty payload stamped with the current time. The
// timestamp is overwritten immediately before transmission to reflect the
// actual send time.
func NewPayload() Payload {
	return Payload{}.WithTimestamp()
}

func (p Payload) clone() Payload {
	next := Payload{
		keys:       make([]string, len(p.keys)),
		params:     make(map[string]string, len(p.params)+4),
		configKeys: make([]string, len(p.configKeys)),
		configs:    make(map[string]bool, len(p.configs)+1),
	}
	copy(next.keys, p.keys)
	copy(next.configKeys, p.configKeys)
	for k, v := range p.params {
		next.params[k] = v
	}
	for k, v := range p.configs {
		next.configs[k] = v
	}
	return next
}

// Add returns a payload with key set to value, overwriting any previous
// value while keeping the key's original position.
func (p Payload) Add(key, value string) Payload {
	next := p.clone()
	if _, exists := next.params[key]; !exists {
		next.keys = append(next.keys, key)
	}
	next.params[key] = value
	return next
}

// AddConfig returns a payload with the named configuration flag set.
func (p Payload) AddConfig(key string, value bool) Payload {
	next := p.clone()
	if _, exists := next.configs[key]; !exists {
		next.configKeys = append(next.configKeys, key)
	}
	next.configs[key] = value
	return next
}

// AddJSONContext attaches caller-supplied context JSON. A nil context is a
// no-op. The serialized text lands under exactly one of the plain (co) or
// base64 (cx) keys depending on encodeBase64.
func (p Payload) AddJSONContext(context *JSON, encodeBase64 bool) (Payload, error) {
	if context == nil {
		return p, nil
	}
	text, err := context.serialize()
	if err != nil {
		return p, err
	}
	if encodeBase64 {
		return p.Add(paramContextEncoded, encodeBase64URL(text)), nil
	}
	return p.Add(paramContextPlain, text), nil
}

// AddUnstructured attaches the event JSON of an unstructured event under
// exactly one of the plain (ue_pr) or base64 (ue_px) keys. A nil value is a
// no-op.
func (p Payload) AddUnstructured(data *JSON, encodeBase64 bool) (Payload, error) {
	if data == nil {
		return p, nil
	}
	text, err := data.serialize()
	if err != nil {
		return p, err
	}
	if encodeBase64 {
		return p.Add(paramUnstructuredEncoded, encodeBase64URL(text)), nil
	}
	return p.Add(paramUnstructuredPlain, text), nil
}

// AddStandardPairs sets the four cross-cutting identity fields shared by
// every event.
func (p Payload) AddStandardPairs(platform, trackerVersion, namespace, appID string) Payload {
	return p.
		Add(paramPlatform, platform).
		Add(paramTrackerVersion, trackerVersion).
		Add(paramNamespace, namespace).
		Add(paramAppID, appID)
}

// WithTimestamp stamps the payload with the current time.
func (p Payload) WithTimestamp() Payload {
	return p.WithTimestampMS(time.Now().UnixMilli())
}

// WithTimestampMS stamps the payload with an explicit time in milliseconds
// since epoch.
func (p Payload) WithTimestampMS(ms int64) Payload {
	return p.Add(paramTimestamp, strconv.FormatInt(ms, 10))
}

// WithTransactionID stamps the payload with a freshly generated transaction
// id.
func (p Payload) WithTransactionID() Payload {
	return p.Add(paramTransactionID, newTransactionID())
}

// newTransactionID returns a pseudo-random 6-digit decimal id. The global
// generator is shared so ids generated in the same millisecond stay
// distinct.
func newTransactionID() string {
	return strconv.Itoa(rand.Intn(900000) + 100000)
}

// PageView configures the payload as a page-view event.
func (p Payload) PageView(pageURL, pageTitle, referrer string, context *JSON) (Payload, error) {
	next := p.
		Add(paramEventType, eventPageView).
		Add(paramPageURL, pageURL).
		Add(paramPageTitle, pageTitle).
		Add(paramReferrer, referrer).
		Add(paramVendor, defaultVendor)
	return next.AddJSONContext(context, next.GetConfig(configEncodeBase64))
}

// StructuredEvent configures the payload as a structured event.
func (p Payload) StructuredEvent(category, action, label, property, value string, context *JSON) (Payload, error) {
	next := p.
		Add(paramEventType, eventStructured).
		Add(paramSeCategory, category).
		Add(paramSeAction, action).
		Add(paramSeLabel, label).
		Add(paramSeProperty, property).
		Add(paramSeValue, value).
		Add(paramVendor, defaultVendor)
	return next.AddJSONContext(context, next.GetConfig(configEncodeBase64))
}

// UnstructuredEvent configures the payload as an unstructured event carrying
// data as its event JSON.
func (p Payload) UnstructuredEvent(vendor string, data *JSON, context *JSON) (Payload, error) {
	if vendor == "" {
		vendor = defaultVendor
	}
	next := p.
		Add(paramEventType, eventUnstructured).
		Add(paramVendor, vendor)
	encode := next.GetConfig(configEncodeBase64)
	next, err := next.AddUnstructured(data, encode)
	if err != nil {
		return p, err
	}
	return next.AddJSONContext(context, encode)
}

// Transaction configures the payload as an e-commerce transaction event.
// An empty transactionID is replaced with a generated one; callers tracking
// items alongside the transaction must supply the shared id explicitly.
func (p Payload) Transaction(orderID string, totalValue, taxValue, shipping *float64,
	affiliation, city, state, country, currency string, context *JSON, transactionID string) (Payload, error) {
	if transactionID == "" {
		transactionID = newTransactionID()
	}
	next := p.
		Add(paramEventType, eventTransaction).
		Add(paramTransactionID, transactionID).
		Add(paramTrOrderID, orderID).
		Add(paramTrTotal, floatToString(totalValue)).
		Add(paramTrAffiliation, affiliation).
		Add(paramTrTax, floatToString(taxValue)).
		Add(paramTrShipping, floatToString(shipping)).
		Add(paramTrCity, city).
		Add(paramTrState, state).
		Add(paramTrCountry, country).
		Add(paramTrCurrency, currency).
		Add(paramVendor, defaultVendor)
	return next.AddJSONContext(context, next.GetConfig(configEncodeBase64))
}

// TransactionItem configures the payload as one line-item of an e-commerce
// transaction. An empty transactionID is replaced with a generated one.
func (p Payload) TransactionItem(orderID, sku string, price *float64, quantity *int,
	name, category, currency string, context *JSON, transactionID string) (Payload, error) {
	if transactionID == "" {
		transactionID = newTransactionID()
	}
	next := p.
		Add(paramEventType, eventTransactionItem).
		Add(paramTransactionID, transactionID).
		Add(paramTiOrderID, orderID).
		Add(paramTiSKU, sku).
		Add(paramTiName, name).
		Add(paramTiCategory, category).
		Add(paramTiPrice, floatToString(price)).
		Add(paramTiQuantity, intToString(quantity)).
		Add(paramTiCurrency, currency).
		Add(paramVendor, defaultVendor)
	return next.AddJSONContext(context, next.GetConfig(configEncodeBase64))
}

// Keys returns the parameter names in insertion order.
func (p Payload) Keys() []string {
	out := make([]string, len(p.keys))
	copy(out, p.keys)
	return out
}

// Get returns the value stored under key, or the empty string.
func (p Payload) Get(key string) string {
	return p.params[key]
}

// Has reports whether key is present.
func (p Payload) Has(key string) bool {
	_, ok := p.params[key]
	return ok
}

// ConfigKeys returns the configuration names in insertion order.
func (p Payload) ConfigKeys() []string {
	out := make([]string, len(p.configKeys))
	copy(out, p.configKeys)
	return out
}

// GetConfig returns the configuration flag stored under key, or false.
func (p Payload) GetConfig(key string) bool {
	return p.configs[key]
}

// Map returns the full parameter mapping as an independent copy, the form
// handed to the transport collaborator.
func (p Payload) Map() Event {
	out := make(Event, len(p.params))
	for k, v := range p.params {
		out[k] = v
	}
	return out
}

// String renders the payload for debug logging, parameters first in
// insertion order.
func (p Payload) String() string {
	var b strings.Builder
	b.WriteString("parameters:")
	for _, k := range p.keys {
		fmt.Fprintf(&b, " %s=%s", k, p.params[k])
	}
	b.WriteString(" configurations:")
	for _, k := range p.configKeys {
		fmt.Fprintf(&b, " %s=%t", k, p.configs[k])
	}
	return b.String()
}

// floatToString renders an optional number, absent as empty string per the
// wire contract.
func floatToString(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
}

// intToString renders an optional integer, absent as empty string.
func intToString(v *int) string {
	if v == nil {
		return ""
	}
	return strconv.Itoa(*v)
}
