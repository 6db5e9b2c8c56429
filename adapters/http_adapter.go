package adapters

// HTTPResponse represents the response from an HTTP request.
type HTTPResponse struct {
	OK     bool
	Status int
}

// HTTPAdapter is an interface for HTTP communication with a collector.
// Implement this interface to use custom HTTP clients.
type HTTPAdapter interface {
	// Send delivers events to the collector at the given endpoint.
	//
	// Parameters:
	//   - endpoint: The collector base URL
	//   - events: Events to send
	//   - headers: Optional custom headers
	//
	// Returns the collector's HTTP response, or an error when no response
	// was received at all (network failure).
	Send(endpoint string, events []Event, headers map[string]string) (*HTTPResponse, error)
}
