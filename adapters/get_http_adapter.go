package adapters

import (
	"fmt"
	"io"
	"net/http"
	"net/url"
)

// GetHTTPAdapter is the standard HTTP adapter implementation. It issues one
// GET request per event against the collector's /i path, with every payload
// pair carried as a query parameter.
type GetHTTPAdapter struct {
	client *http.Client
}

// Ensure GetHTTPAdapter implements HTTPAdapter interface
var _ HTTPAdapter = (*GetHTTPAdapter)(nil)

// NewGetHTTPAdapter creates a new GetHTTPAdapter instance.
func NewGetHTTPAdapter() HTTPAdapter {
	return &GetHTTPAdapter{
		client: &http.Client{},
	}
}

// NewGetHTTPAdapterWithClient creates a GetHTTPAdapter backed by a custom
// http.Client, e.g. one with a request timeout.
func NewGetHTTPAdapterWithClient(client *http.Client) HTTPAdapter {
	return &GetHTTPAdapter{client: client}
}

// Send issues one GET per event. A non-2xx response aborts the batch and is
// returned to the caller; events already delivered are not resent.
func (g *GetHTTPAdapter) Send(endpoint string, events []Event, headers map[string]string) (*HTTPResponse, error) {
	last := &HTTPResponse{OK: true, Status: http.StatusOK}

	for _, event := range events {
		target, err := collectorURL(endpoint, event)
		if err != nil {
			return nil, err
		}

		req, err := http.NewRequest(http.MethodGet, target, nil)
		if err != nil {
			return nil, fmt.Errorf("failed to create request: %w", err)
		}
		for key, value := range headers {
			req.Header.Set(key, value)
		}

		resp, err := g.client.Do(req)
		if err != nil {
			return nil, fmt.Errorf("failed to send request: %w", err)
		}
		_, _ = io.Copy(io.Discard, resp.Body)
		resp.Body.Close()

		last = &HTTPResponse{
			Status: resp.StatusCode,
			OK:     resp.StatusCode >= 200 && resp.StatusCode < 300,
		}
		if !last.OK {
			return last, nil
		}
	}

	return last, nil
}

// collectorURL builds the full request URL for one event. The collector's
// tracking path is /i unless the endpoint already carries a path.
func collectorURL(endpoint string, event Event) (string, error) {
	u, err := url.Parse(endpoint)
	if err != nil {
		return "", fmt.Errorf("invalid collector endpoint %q: %w", endpoint, err)
	}
	if u.Path == "" || u.Path == "/" {
		u.Path = "/i"
	}

	values := url.Values{}
	for key, value := range event {
		values.Set(key, value)
	}
	u.RawQuery = values.Encode()
	return u.String(), nil
}
