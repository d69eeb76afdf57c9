package transport

import (
	"context"

	"github.com/metamcp/metamcp/pkg/errors"
	"github.com/metamcp/metamcp/pkg/model"
)

// SSETransport is a contract-level stub: the gateway defines sse as a
// valid backend transport tag but does not implement it, matching the
// original source's own "SSE protocol not yet implemented" behavior.
type SSETransport struct{}

// NewSSETransport builds the SSE transport stub.
func NewSSETransport() *SSETransport { return &SSETransport{} }

// Forward always fails with a transport error for the sse protocol.
func (*SSETransport) Forward(context.Context, *model.BackendDescriptor, *model.Envelope) (*model.Envelope, error) {
	return nil, errors.NewTransportError("SSE protocol not yet implemented", nil)
}
