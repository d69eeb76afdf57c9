package transport

import (
	"context"
	"fmt"

	"github.com/metamcp/metamcp/pkg/errors"
	"github.com/metamcp/metamcp/pkg/model"
)

// Dispatcher routes Forward calls to the transport matching a
// descriptor's protocol tag.
type Dispatcher struct {
	http  Transport
	stdio Transport
	sse   Transport
}

// NewDispatcher builds a Dispatcher over the three transport variants.
func NewDispatcher(http, stdio, sse Transport) *Dispatcher {
	return &Dispatcher{http: http, stdio: stdio, sse: sse}
}

// Forward implements Transport, picking the underlying transport by
// descriptor.Transport.
func (d *Dispatcher) Forward(ctx context.Context, descriptor *model.BackendDescriptor, req *model.Envelope) (*model.Envelope, error) {
	switch descriptor.Transport {
	case model.TransportHTTP:
		return d.http.Forward(ctx, descriptor, req)
	case model.TransportStdio:
		return d.stdio.Forward(ctx, descriptor, req)
	case model.TransportSSE:
		return d.sse.Forward(ctx, descriptor, req)
	default:
		return nil, errors.NewTransportError(fmt.Sprintf("unknown transport %q", descriptor.Transport), nil)
	}
}
