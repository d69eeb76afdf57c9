package transport

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sync"

	"github.com/google/uuid"

	"github.com/metamcp/metamcp/pkg/errors"
	"github.com/metamcp/metamcp/pkg/logger"
	"github.com/metamcp/metamcp/pkg/model"
)

// processManager is the subset of pkg/process.Manager the stdio
// transport needs: writing framed requests and reading the backend's
// framed stdout.
type processManager interface {
	SendMessage(id uuid.UUID, payload []byte) error
	Stdout(id uuid.UUID) (io.Reader, bool)
}

type pending struct {
	ch chan *model.Envelope
}

// StdioTransport keeps one long-lived framed channel per backend,
// correlating requests to responses by JSON-RPC identifier, and fails
// all outstanding requests when the child's stdout closes (§4.3).
type StdioTransport struct {
	procs processManager

	mu      sync.Mutex
	readers map[uuid.UUID]bool
	pending map[uuid.UUID]map[string]pending // backendID -> requestID(stringified) -> waiter
}

// NewStdioTransport builds a StdioTransport over procs.
func NewStdioTransport(procs processManager) *StdioTransport {
	return &StdioTransport{
		procs:   procs,
		readers: make(map[uuid.UUID]bool),
		pending: make(map[uuid.UUID]map[string]pending),
	}
}

// Forward implements Transport for the stdio protocol.
func (t *StdioTransport) Forward(ctx context.Context, descriptor *model.BackendDescriptor, req *model.Envelope) (*model.Envelope, error) {
	t.ensureReader(descriptor.ID)

	reqID := fmt.Sprintf("%v", req.ID)
	waiter := pending{ch: make(chan *model.Envelope, 1)}

	t.mu.Lock()
	if t.pending[descriptor.ID] == nil {
		t.pending[descriptor.ID] = make(map[string]pending)
	}
	t.pending[descriptor.ID][reqID] = waiter
	t.mu.Unlock()

	payload, err := json.Marshal(req)
	if err != nil {
		return nil, errors.NewTransportError("failed to marshal request", err)
	}
	if err := t.procs.SendMessage(descriptor.ID, payload); err != nil {
		t.clearPending(descriptor.ID, reqID)
		return nil, errors.NewTransportError("failed to write to backend stdin", err)
	}

	select {
	case env, ok := <-waiter.ch:
		if !ok {
			return nil, errors.NewTransportError("backend process terminated", nil)
		}
		return env, nil
	case <-ctx.Done():
		t.clearPending(descriptor.ID, reqID)
		return nil, errors.NewTransportError("timed out waiting for backend response", ctx.Err())
	}
}

func (t *StdioTransport) clearPending(backendID uuid.UUID, reqID string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.pending[backendID], reqID)
}

// ensureReader starts a background goroutine reading and demultiplexing
// descriptor's stdout, at most once per backend.
func (t *StdioTransport) ensureReader(backendID uuid.UUID) {
	t.mu.Lock()
	if t.readers[backendID] {
		t.mu.Unlock()
		return
	}
	t.readers[backendID] = true
	t.mu.Unlock()

	stdout, ok := t.procs.Stdout(backendID)
	if !ok {
		return
	}
	go t.readLoop(backendID, stdout)
}

func (t *StdioTransport) readLoop(backendID uuid.UUID, stdout io.Reader) {
	scanner := bufio.NewScanner(stdout)
	for scanner.Scan() {
		var env model.Envelope
		if err := json.Unmarshal(scanner.Bytes(), &env); err != nil {
			logger.Warnf("backend %s sent malformed JSON-RPC line: %v", backendID, err)
			continue
		}
		id := fmt.Sprintf("%v", env.ID)

		t.mu.Lock()
		w, ok := t.pending[backendID][id]
		if ok {
			delete(t.pending[backendID], id)
		}
		t.mu.Unlock()

		if ok {
			w.ch <- &env
		}
	}

	// stdout closed: fail every outstanding request for this backend.
	t.mu.Lock()
	waiters := t.pending[backendID]
	delete(t.pending, backendID)
	delete(t.readers, backendID)
	t.mu.Unlock()

	for _, w := range waiters {
		close(w.ch)
	}
}
