package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestGet_BeforeInitIsNop(t *testing.T) {
	prev := Logger
	Logger = nil
	t.Cleanup(func() { Logger = prev })

	assert.NotNil(t, Get())
	assert.NotNil(t, Named("connector"))
}

func TestInit_Levels(t *testing.T) {
	prev := Logger
	t.Cleanup(func() { Logger = prev })

	require.NoError(t, Init("production", false))
	assert.False(t, Get().Core().Enabled(zap.DebugLevel))

	require.NoError(t, Init("development", true))
	assert.True(t, Get().Core().Enabled(zap.DebugLevel))
}
