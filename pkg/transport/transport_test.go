package transport

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/metamcp/metamcp/pkg/model"
)

func TestHTTPTransport_Forward_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req model.Envelope
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "tools/list", req.Method)

		_ = json.NewEncoder(w).Encode(model.NewResult(req.ID, map[string]any{"tools": []any{}}))
	}))
	defer server.Close()

	descriptor := &model.BackendDescriptor{Name: "alpha", Transport: model.TransportHTTP, URL: server.URL}
	tr := NewHTTPTransport()

	resp, err := tr.Forward(context.Background(), descriptor, &model.Envelope{JSONRPC: model.RPCVersion, ID: 1, Method: "tools/list"})
	require.NoError(t, err)
	assert.Nil(t, resp.Error)
}

func TestHTTPTransport_Forward_NonSuccessStatusIsTransportError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	descriptor := &model.BackendDescriptor{Name: "alpha", Transport: model.TransportHTTP, URL: server.URL}
	tr := NewHTTPTransport()

	_, err := tr.Forward(context.Background(), descriptor, &model.Envelope{JSONRPC: model.RPCVersion, ID: 1, Method: "ping"})
	require.Error(t, err)
}

func TestSSETransport_NotImplemented(t *testing.T) {
	tr := NewSSETransport()
	_, err := tr.Forward(context.Background(), &model.BackendDescriptor{}, &model.Envelope{})
	assert.Error(t, err)
}

func TestDispatcher_RoutesByTransport(t *testing.T) {
	called := map[string]bool{}
	d := NewDispatcher(
		recordingTransport{name: "http", called: called},
		recordingTransport{name: "stdio", called: called},
		recordingTransport{name: "sse", called: called},
	)

	_, _ = d.Forward(context.Background(), &model.BackendDescriptor{Transport: model.TransportStdio}, &model.Envelope{})
	assert.True(t, called["stdio"])
	assert.False(t, called["http"])
}

func TestDispatcher_UnknownTransport(t *testing.T) {
	d := NewDispatcher(NewHTTPTransport(), NewSSETransport(), NewSSETransport())
	_, err := d.Forward(context.Background(), &model.BackendDescriptor{Transport: "carrier-pigeon"}, &model.Envelope{})
	assert.Error(t, err)
}

type recordingTransport struct {
	name   string
	called map[string]bool
}

func (r recordingTransport) Forward(context.Context, *model.BackendDescriptor, *model.Envelope) (*model.Envelope, error) {
	r.called[r.name] = true
	return &model.Envelope{}, nil
}

func TestStdioTransport_CorrelatesResponsesByID(t *testing.T) {
	backendID := uuid.New()
	fake := newFakeProcManager()
	tr := NewStdioTransport(fake)

	descriptor := &model.BackendDescriptor{ID: backendID, Name: "stdio-backend", Transport: model.TransportStdio}

	done := make(chan struct{})
	var resp *model.Envelope
	var ferr error
	go func() {
		resp, ferr = tr.Forward(context.Background(), descriptor, &model.Envelope{JSONRPC: model.RPCVersion, ID: float64(1), Method: "ping"})
		close(done)
	}()

	fake.writeResponseLine(t, backendID, model.NewResult(float64(1), "pong"))
	<-done

	require.NoError(t, ferr)
	assert.Equal(t, "pong", resp.Result)
}
