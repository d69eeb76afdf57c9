// Package process implements the stdio backend process manager (§4.4):
// spawn, supervise, graceful shutdown, and crash detection.
package process

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os/exec"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/metamcp/metamcp/pkg/errors"
	"github.com/metamcp/metamcp/pkg/events"
	"github.com/metamcp/metamcp/pkg/logger"
	"github.com/metamcp/metamcp/pkg/model"
)

const (
	shutdownGrace   = 5 * time.Second
	superviseEvery  = 10 * time.Second
)

// Config is the spawn-time configuration for a stdio backend (§4.4).
type Config struct {
	Name       string
	Command    string
	Args       []string
	Env        map[string]string
	WorkingDir string
}

// handle is the process manager's internal record for one spawned child,
// grounded on the original source's McpServerHandle.
type handle struct {
	id     uuid.UUID
	config Config
	status model.ProcessStatus
	reason string
	cmd    *exec.Cmd
	stdin  *bufio.Writer
	stdout io.Reader
	exited chan struct{}
}

// Manager owns every spawned stdio backend (§3's BackendProcess, §4.4).
type Manager struct {
	mu       sync.RWMutex
	handles  map[uuid.UUID]*handle
	eventMgr *events.Manager
}

// NewManager builds a Manager that publishes lifecycle events through mgr.
func NewManager(mgr *events.Manager) *Manager {
	return &Manager{handles: make(map[uuid.UUID]*handle), eventMgr: mgr}
}

// Spawn starts a child process per cfg under the given backend id, piping
// stdin/stdout/stderr, draining stderr into the logger, and registering a
// running handle. id is the backend descriptor's persisted UUID, not a
// process-generated one: the transport layer addresses backends by that
// stable id across restarts.
func (m *Manager) Spawn(ctx context.Context, id uuid.UUID, cfg Config) error {
	cmd := exec.CommandContext(ctx, cfg.Command, cfg.Args...)
	if cfg.WorkingDir != "" {
		cmd.Dir = cfg.WorkingDir
	}
	for k, v := range cfg.Env {
		cmd.Env = append(cmd.Env, fmt.Sprintf("%s=%s", k, v))
	}
	cmd.Cancel = func() error { return cmd.Process.Kill() }
	cmd.WaitDelay = shutdownGrace

	stdinPipe, err := cmd.StdinPipe()
	if err != nil {
		return errors.NewProcessError("failed to create stdin pipe", err)
	}
	stderrPipe, err := cmd.StderrPipe()
	if err != nil {
		return errors.NewProcessError("failed to create stderr pipe", err)
	}
	stdoutPipe, err := cmd.StdoutPipe()
	if err != nil {
		return errors.NewProcessError("failed to create stdout pipe", err)
	}

	if err := cmd.Start(); err != nil {
		return errors.NewProcessError(fmt.Sprintf("failed to spawn backend %q", cfg.Name), err)
	}

	h := &handle{
		id:     id,
		config: cfg,
		status: model.ProcessRunning,
		cmd:    cmd,
		stdin:  bufio.NewWriter(stdinPipe),
		stdout: stdoutPipe,
		exited: make(chan struct{}),
	}

	go drainStderr(id, cfg.Name, stderrPipe)
	go m.awaitExit(h)

	m.mu.Lock()
	m.handles[id] = h
	m.mu.Unlock()

	logger.Infow("backend process spawned", "backend_id", id, "name", cfg.Name)
	m.eventMgr.PublishServerScoped(id, events.Event{Type: events.TypeServerStarted})
	return nil
}

func drainStderr(id uuid.UUID, name string, stderr io.Reader) {
	scanner := bufio.NewScanner(stderr)
	for scanner.Scan() {
		logger.Warnw("backend stderr", "backend_id", id, "name", name, "line", scanner.Text())
	}
}

func (m *Manager) awaitExit(h *handle) {
	_ = h.cmd.Wait()
	close(h.exited)
}

// Stop removes the handle from the registry and attempts a graceful
// shutdown: write a shutdown notification to stdin, wait up to 5s, and
// force-kill on timeout (§4.4).
func (m *Manager) Stop(ctx context.Context, id uuid.UUID) error {
	m.mu.Lock()
	h, ok := m.handles[id]
	if ok {
		delete(m.handles, id)
	}
	m.mu.Unlock()
	if !ok {
		return errors.NewNotFoundError("backend process not found", nil)
	}

	shutdown := model.Envelope{JSONRPC: model.RPCVersion, Method: "shutdown"}
	if err := writeFramed(h.stdin, shutdown); err != nil {
		logger.Warnf("failed to write shutdown notification to backend %s: %v", id, err)
	}

	select {
	case <-h.exited:
		logger.Infow("backend process stopped gracefully", "backend_id", id)
	case <-time.After(shutdownGrace):
		if err := h.cmd.Process.Kill(); err != nil {
			logger.Warnf("failed to force-kill backend %s: %v", id, err)
		}
		logger.Warnw("backend process force-killed", "backend_id", id)
	case <-ctx.Done():
		return ctx.Err()
	}

	m.eventMgr.PublishServerScoped(id, events.Event{Type: events.TypeServerStopped})
	return nil
}

// Restart snapshots the prior config, Stops the backend, and Spawns a new
// instance under the same backend id (§4.4).
func (m *Manager) Restart(ctx context.Context, id uuid.UUID) error {
	m.mu.RLock()
	h, ok := m.handles[id]
	m.mu.RUnlock()
	if !ok {
		return errors.NewNotFoundError("backend process not found", nil)
	}
	cfg := h.config

	if err := m.Stop(ctx, id); err != nil {
		return err
	}
	return m.Spawn(ctx, id, cfg)
}

// SendMessage writes a newline-framed message to the backend's stdin.
func (m *Manager) SendMessage(id uuid.UUID, payload []byte) error {
	m.mu.RLock()
	h, ok := m.handles[id]
	m.mu.RUnlock()
	if !ok {
		return errors.NewNotFoundError("backend process not found", nil)
	}

	if _, err := h.stdin.Write(payload); err != nil {
		return errors.NewProcessError("failed to write to backend stdin", err)
	}
	if err := h.stdin.WriteByte('\n'); err != nil {
		return errors.NewProcessError("failed to write newline to backend stdin", err)
	}
	return h.stdin.Flush()
}

// Stdout returns the backend's stdout stream for a transport to read
// framed responses from. The caller must not call Stop concurrently with
// an in-progress read in a way that races the underlying pipe close;
// StdioTransport serializes its own access per backend.
func (m *Manager) Stdout(id uuid.UUID) (io.Reader, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	h, ok := m.handles[id]
	if !ok {
		return nil, false
	}
	return h.stdout, true
}

// Status returns the current status and failure reason (if any) of a
// backend process.
func (m *Manager) Status(id uuid.UUID) (model.ProcessStatus, string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	h, ok := m.handles[id]
	if !ok {
		return "", "", false
	}
	return h.status, h.reason, true
}

// Supervise runs a 10-second sweep detecting unexpected exits and
// transitioning their status to failed, publishing a lifecycle event
// (§4.4). Blocks until ctx is cancelled.
func (m *Manager) Supervise(ctx context.Context) {
	ticker := time.NewTicker(superviseEvery)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.sweep()
		}
	}
}

func (m *Manager) sweep() {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, h := range m.handles {
		select {
		case <-h.exited:
			if h.status == model.ProcessRunning {
				h.status = model.ProcessFailed
				h.reason = "process exited unexpectedly"
				logger.Errorw("backend process crashed", "backend_id", id)
				m.eventMgr.PublishServerScoped(id, events.Event{Type: events.TypeServerStopped, Payload: map[string]any{"reason": h.reason}})
			}
		default:
		}
	}
}

func writeFramed(w *bufio.Writer, env model.Envelope) error {
	data, err := json.Marshal(env)
	if err != nil {
		return err
	}
	if _, err := w.Write(data); err != nil {
		return err
	}
	if err := w.WriteByte('\n'); err != nil {
		return err
	}
	return w.Flush()
}
