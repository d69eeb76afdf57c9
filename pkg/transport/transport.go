// Package transport implements the backend-transport layer (§4.3): one
// Forward operation per descriptor, with http, stdio, and sse variants.
package transport

import (
	"context"

	"github.com/metamcp/metamcp/pkg/model"
)

// Transport forwards a single JSON-RPC envelope to a backend descriptor
// and returns its response envelope.
type Transport interface {
	Forward(ctx context.Context, descriptor *model.BackendDescriptor, req *model.Envelope) (*model.Envelope, error)
}
