package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGet_ReturnsSingleton(t *testing.T) {
	l := Get()
	require.NotNil(t, l)
	assert.Same(t, l, Get())
}

func TestInitialize_SwapsSingleton(t *testing.T) {
	prev := Get()
	t.Cleanup(func() { singleton.Store(prev) })

	Initialize("debug")
	assert.NotNil(t, Get())
}

func TestInitialize_InvalidLevelFallsBackToInfo(t *testing.T) {
	prev := Get()
	t.Cleanup(func() { singleton.Store(prev) })

	Initialize("not-a-level")
	assert.NotNil(t, Get())
}

func TestLevelFromEnv(t *testing.T) {
	t.Setenv("RUST_LOG", "debug")
	assert.Equal(t, "debug", levelFromEnv().String())

	t.Setenv("RUST_LOG", "")
	assert.Equal(t, "info", levelFromEnv().String())
}
