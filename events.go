package snowtrack

// PageView tracks a page being viewed.
type PageView struct {
	// PageURL is the URL of the tracked page. Required.
	PageURL string
	// PageTitle is the title of the tracked page.
	PageTitle string
	// Referrer is the page that led here.
	Referrer string
	// Context is optional free-form JSON attached to the event.
	Context string
	// Timestamp in milliseconds since epoch; 0 means send time.
	Timestamp int64
}

// StructuredEvent tracks a category/action style event.
type StructuredEvent struct {
	// Category of the event. Required.
	Category string
	// Action performed.
	Action string
	// Label for the event.
	Label string
	// Property being measured.
	Property string
	// Value associated with the property.
	Value int
	// Context is optional free-form JSON attached to the event.
	Context string
	// Timestamp in milliseconds since epoch; 0 means send time.
	Timestamp int64
}

// UnstructuredEvent tracks a self-describing event whose properties travel
// as JSON.
type UnstructuredEvent struct {
	// Vendor of the event definition; defaults to the Snowplow vendor.
	Vendor string
	// Name of the event, for diagnostics. The wire protocol does not carry
	// it; encode the name into Data when the collector needs it.
	Name string
	// Data is the event JSON. Required. Build it with ParseJSON or
	// JSONFromMap.
	Data *JSON
	// Context is optional free-form JSON attached to the event.
	Context string
	// Timestamp in milliseconds since epoch; 0 means send time.
	Timestamp int64
}

// ScreenView tracks a screen being viewed. It is a specialization of
// UnstructuredEvent with a {name, id} property map.
type ScreenView struct {
	// Name of the screen. Required.
	Name string
	// ID of the screen.
	ID string
	// Context is optional free-form JSON attached to the event.
	Context string
	// Timestamp in milliseconds since epoch; 0 means send time.
	Timestamp int64
}

// Transaction tracks an e-commerce transaction. The transaction payload and
// one payload per item are sent, all sharing a transaction id and timestamp.
type Transaction struct {
	// OrderID identifies the order. Required.
	OrderID string
	// TotalValue of the transaction.
	TotalValue *float64
	// Affiliation of the transaction.
	Affiliation string
	// TaxValue of the transaction.
	TaxValue *float64
	// Shipping cost.
	Shipping *float64
	// City, State, Country locate the customer.
	City    string
	State   string
	Country string
	// Currency of the amounts.
	Currency string
	// Items purchased in this transaction.
	Items []TransactionItem
	// Context is optional free-form JSON attached to the transaction event.
	Context string
	// Timestamp in milliseconds since epoch; 0 means send time.
	Timestamp int64
}

// TransactionItem is one line-item of a Transaction.
type TransactionItem struct {
	// SKU of the item. Required.
	SKU string
	// Price per unit.
	Price *float64
	// Quantity purchased.
	Quantity *int
	// Name of the item.
	Name string
	// Category of the item.
	Category string
	// Currency of the price.
	Currency string
}

// Float64 returns a pointer to v, for optional numeric event fields.
func Float64(v float64) *float64 {
	return &v
}

// Int returns a pointer to v, for optional numeric event fields.
func Int(v int) *int {
	return &v
}
