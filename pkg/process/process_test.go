package process

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/google/uuid"

	"github.com/metamcp/metamcp/pkg/events"
	"github.com/metamcp/metamcp/pkg/model"
)

func TestManager_SpawnAndStop(t *testing.T) {
	evMgr := events.NewManager()
	m := NewManager(evMgr)

	id, rx := evMgr.RegisterSubscriber(events.Filter{})
	defer evMgr.Unregister(id)

	ctx := context.Background()
	backendID := uuid.New()
	require.NoError(t, m.Spawn(ctx, backendID, Config{Name: "catter", Command: "cat"}))

	status, _, ok := m.Status(backendID)
	require.True(t, ok)
	assert.Equal(t, model.ProcessRunning, status)

	select {
	case e := <-rx:
		assert.Equal(t, events.TypeServerStarted, e.Type)
	case <-time.After(time.Second):
		t.Fatal("expected server_started event")
	}

	require.NoError(t, m.Stop(ctx, backendID))

	_, _, ok = m.Status(backendID)
	assert.False(t, ok)

	select {
	case e := <-rx:
		assert.Equal(t, events.TypeServerStopped, e.Type)
	case <-time.After(time.Second):
		t.Fatal("expected server_stopped event")
	}
}

func TestManager_StopUnknownBackend(t *testing.T) {
	m := NewManager(events.NewManager())
	err := m.Stop(context.Background(), uuid.Nil)
	assert.Error(t, err)
}

func TestManager_SendMessageUnknownBackend(t *testing.T) {
	m := NewManager(events.NewManager())
	err := m.SendMessage(uuid.Nil, []byte("{}"))
	assert.Error(t, err)
}
