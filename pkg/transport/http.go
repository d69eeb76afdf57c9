package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/metamcp/metamcp/pkg/errors"
	"github.com/metamcp/metamcp/pkg/model"
)

const requestTimeout = 30 * time.Second

// HTTPTransport POSTs the JSON-RPC envelope to the descriptor's URL and
// awaits a JSON response envelope (§4.3).
type HTTPTransport struct {
	client *http.Client
}

// NewHTTPTransport builds an HTTPTransport with the fixed 30s request
// timeout of §4.3/§5.
func NewHTTPTransport() *HTTPTransport {
	return &HTTPTransport{client: &http.Client{Timeout: requestTimeout}}
}

// Forward implements Transport for the http protocol.
func (t *HTTPTransport) Forward(ctx context.Context, descriptor *model.BackendDescriptor, req *model.Envelope) (*model.Envelope, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, errors.NewTransportError("failed to marshal request", err)
	}

	ctx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, descriptor.URL, bytes.NewReader(body))
	if err != nil {
		return nil, errors.NewTransportError("failed to build request", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := t.client.Do(httpReq)
	if err != nil {
		return nil, errors.NewTransportError(fmt.Sprintf("failed to connect to backend %s", descriptor.Name), err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, errors.NewTransportError(fmt.Sprintf("backend %s returned status %d", descriptor.Name, resp.StatusCode), nil)
	}

	var env model.Envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return nil, errors.NewTransportError("failed to parse backend response", err)
	}
	return &env, nil
}
