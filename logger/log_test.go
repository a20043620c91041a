package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestSetRoutesPackageHelpers(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	prev := L()
	Set(zap.New(core))
	t.Cleanup(func() { Set(prev) })

	Info("meal logged", zap.Uint("user_id", 7))
	Warn("provider skipped", zap.String("provider", "gemini"))
	Debug("zones computed")

	require.Equal(t, 3, logs.Len())
	entries := logs.All()
	assert.Equal(t, "meal logged", entries[0].Message)
	assert.EqualValues(t, 7, entries[0].ContextMap()["user_id"])
	assert.Equal(t, zap.WarnLevel, entries[1].Level)
}

func TestInitDevelopment(t *testing.T) {
	prev := L()
	t.Cleanup(func() { Set(prev) })
	require.NoError(t, Init("development"))
	assert.NotNil(t, L())
}
