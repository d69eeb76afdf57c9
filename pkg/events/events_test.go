package events

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFilter_ShouldSend(t *testing.T) {
	alpha := uuid.New()
	beta := uuid.New()

	f := Filter{
		Types:      map[Type]bool{TypeServerStarted: true},
		BackendIDs: map[uuid.UUID]bool{alpha: true},
	}

	assert.True(t, f.ShouldSend(Event{Type: TypeServerStarted, BackendID: alpha}))
	assert.False(t, f.ShouldSend(Event{Type: TypeServerStarted, BackendID: beta}))
	assert.False(t, f.ShouldSend(Event{Type: TypeServerStopped, BackendID: alpha}))
}

func TestFilter_IncludeSystemSuppressesSystemHealthRegardlessOfTypeFilter(t *testing.T) {
	f := Filter{
		Types:         map[Type]bool{TypeSystemHealth: true},
		IncludeSystem: false,
	}
	assert.False(t, f.ShouldSend(Event{Type: TypeSystemHealth}))

	f.IncludeSystem = true
	assert.True(t, f.ShouldSend(Event{Type: TypeSystemHealth}))
}

func TestFilter_EmptyFilterAdmitsEverythingExceptSystemHealth(t *testing.T) {
	f := Filter{}
	assert.True(t, f.ShouldSend(Event{Type: TypeServerStarted}))
	assert.False(t, f.ShouldSend(Event{Type: TypeSystemHealth}))
}

func TestManager_BroadcastScenario(t *testing.T) {
	m := NewManager()
	alpha := uuid.New()
	beta := uuid.New()

	_, rx := m.RegisterSubscriber(Filter{
		Types:      map[Type]bool{TypeServerStarted: true},
		BackendIDs: map[uuid.UUID]bool{alpha: true},
	})

	m.PublishServerScoped(alpha, Event{Type: TypeServerStarted})
	m.PublishServerScoped(beta, Event{Type: TypeServerStarted})
	m.Broadcast(Event{Type: TypeSystemHealth})

	select {
	case e := <-rx:
		assert.Equal(t, TypeServerStarted, e.Type)
		assert.Equal(t, alpha, e.BackendID)
	case <-time.After(time.Second):
		t.Fatal("expected to receive alpha's server_started event")
	}

	select {
	case e := <-rx:
		t.Fatalf("expected no further events, got %+v", e)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestManager_Unregister_ClosesQueue(t *testing.T) {
	m := NewManager()
	id, rx := m.RegisterSubscriber(Filter{})
	m.Unregister(id)

	_, ok := <-rx
	assert.False(t, ok)
}

func TestManager_Broadcast_DoesNotBlockOnFullQueue(t *testing.T) {
	m := NewManager()
	_, rx := m.RegisterSubscriber(Filter{})

	done := make(chan struct{})
	go func() {
		for i := 0; i < subscriberQueueCapacity+10; i++ {
			m.Broadcast(Event{Type: TypeServerStarted})
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("broadcast blocked on a full subscriber queue")
	}
	require.NotNil(t, rx)
}
