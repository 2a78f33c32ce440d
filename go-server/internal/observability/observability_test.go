package observability

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/fonsecaaso/tinylinks/go-server/config"
)

func TestSetup(t *testing.T) {
	cfg := &config.Config{Env: "development", LogLevel: "debug", ServiceName: "tinylinks-test"}

	obs, err := Setup(context.Background(), cfg)
	require.NoError(t, err)
	t.Cleanup(func() { zap.ReplaceGlobals(zap.NewNop()) })

	assert.Same(t, obs.Logger, zap.L())
	assert.NoError(t, obs.Shutdown(context.Background()))
}

func TestSetup_InvalidLogLevel(t *testing.T) {
	cfg := &config.Config{Env: "development", LogLevel: "chatty", ServiceName: "tinylinks-test"}

	_, err := Setup(context.Background(), cfg)
	assert.Error(t, err)
}
