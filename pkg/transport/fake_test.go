package transport

import (
	"encoding/json"
	"io"
	"sync"
	"testing"

	"github.com/google/uuid"
)

// fakeProcManager is a minimal in-memory stand-in for pkg/process.Manager,
// giving tests control over a stdio backend's stdout stream without
// spawning a real child process.
type fakeProcManager struct {
	mu    sync.Mutex
	sent  [][]byte
	pipes map[uuid.UUID]*io.PipeWriter
	outs  map[uuid.UUID]*io.PipeReader
}

func newFakeProcManager() *fakeProcManager {
	return &fakeProcManager{
		pipes: make(map[uuid.UUID]*io.PipeWriter),
		outs:  make(map[uuid.UUID]*io.PipeReader),
	}
}

func (f *fakeProcManager) SendMessage(id uuid.UUID, payload []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, payload)
	return nil
}

func (f *fakeProcManager) Stdout(id uuid.UUID) (io.Reader, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if r, ok := f.outs[id]; ok {
		return r, true
	}
	pr, pw := io.Pipe()
	f.outs[id] = pr
	f.pipes[id] = pw
	return pr, true
}

func (f *fakeProcManager) writeResponseLine(t *testing.T, id uuid.UUID, v any) {
	t.Helper()
	f.mu.Lock()
	pw, ok := f.pipes[id]
	f.mu.Unlock()
	if !ok {
		// trigger Stdout to create the pipe first.
		if _, ok := f.Stdout(id); !ok {
			t.Fatalf("no stdout pipe for backend %s", id)
		}
		f.mu.Lock()
		pw = f.pipes[id]
		f.mu.Unlock()
	}
	data, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	data = append(data, '\n')
	if _, err := pw.Write(data); err != nil {
		t.Fatalf("write: %v", err)
	}
}
