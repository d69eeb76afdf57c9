// Package model holds the gateway's persisted and in-memory record shapes.
package model

import (
	"time"

	"github.com/google/uuid"
)

// Transport identifies how the gateway talks to a backend MCP server.
type Transport string

const (
	TransportHTTP  Transport = "http"
	TransportSSE   Transport = "sse"
	TransportStdio Transport = "stdio"
)

// BackendDescriptor is the persisted configuration record identifying a
// backend MCP server. Name is unique among active records and forms the
// routing prefix (§3, §4.5).
type BackendDescriptor struct {
	ID        uuid.UUID         `json:"id"`
	Name      string            `json:"name"`
	Transport Transport         `json:"protocol"`
	URL       string            `json:"url,omitempty"`
	Command   string            `json:"command,omitempty"`
	Args      []string          `json:"args,omitempty"`
	Env       map[string]string `json:"env,omitempty"`
	Active    bool              `json:"is_active"`
	CreatedAt time.Time         `json:"created_at"`
	UpdatedAt time.Time         `json:"updated_at"`
}

// BackendPatch carries a partial update to a BackendDescriptor: only
// non-nil fields are applied (§4.1's partial-update contract).
type BackendPatch struct {
	Name      *string            `json:"name,omitempty"`
	Transport *Transport         `json:"protocol,omitempty"`
	URL       *string            `json:"url,omitempty"`
	Command   *string            `json:"command,omitempty"`
	Args      []string           `json:"args,omitempty"`
	Env       map[string]string  `json:"env,omitempty"`
	Active    *bool              `json:"is_active,omitempty"`
}

// Credential is the persisted record representing an issuable long-lived
// credential. The plaintext is never stored (§3).
type Credential struct {
	ID            uuid.UUID `json:"id"`
	Name          string    `json:"name"`
	KeyHash       string    `json:"-"`
	EncryptedKey  []byte    `json:"-"`
	Active        bool      `json:"is_active"`
	CreatedAt     time.Time `json:"created_at"`
	LastUsedAt    *time.Time `json:"last_used_at,omitempty"`
}

// BearerClaims is the ephemeral signed claim set carried in the
// Authorization header (§3). Not persisted.
type BearerClaims struct {
	Subject   uuid.UUID
	IssuedAt  time.Time
	ExpiresAt time.Time
	ID        string
}

// ProcessStatus is the lifecycle state of a stdio BackendProcess (§3).
type ProcessStatus string

const (
	ProcessStarting ProcessStatus = "starting"
	ProcessRunning  ProcessStatus = "running"
	ProcessStopped  ProcessStatus = "stopped"
	ProcessFailed   ProcessStatus = "failed"
)

// RPCVersion is the fixed JSON-RPC protocol tag used on the wire.
const RPCVersion = "2.0"

// Envelope is the JSON-RPC 2.0 wire record (§3, §6). Request and response
// share one shape: a request has Method set and no Result/Error; a
// response has exactly one of Result/Error set.
type Envelope struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      any             `json:"id,omitempty"`
	Method  string          `json:"method,omitempty"`
	Params  any             `json:"params,omitempty"`
	Result  any             `json:"result,omitempty"`
	Error   *RPCError       `json:"error,omitempty"`
}

// RPCError is a JSON-RPC 2.0 error object.
type RPCError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

// IsNotification reports whether the envelope carries no identifier,
// i.e. it is a one-way notification per spec §4.5.
func (e *Envelope) IsNotification() bool {
	return e.ID == nil
}

// NewResult builds a success response envelope echoing id.
func NewResult(id any, result any) *Envelope {
	return &Envelope{JSONRPC: RPCVersion, ID: id, Result: result}
}

// NewRPCError builds an error response envelope echoing id.
func NewRPCError(id any, code int, message string) *Envelope {
	return &Envelope{JSONRPC: RPCVersion, ID: id, Error: &RPCError{Code: code, Message: message}}
}
