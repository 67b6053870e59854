package observability_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jamesmacaulay/backfire/internal/config"
	"github.com/jamesmacaulay/backfire/internal/observability"
)

func TestGetLoggerBeforeInitialization(t *testing.T) {
	// Must never return nil, even before InitializeLogger runs.
	logger := observability.GetLogger()
	require.NotNil(t, logger)
	assert.NotPanics(t, func() { logger.Info("noop") })
}

func TestInitializeLogger(t *testing.T) {
	observability.InitializeLogger(config.LoggerConfig{
		Level:       "debug",
		Format:      "console",
		ServiceName: "backfire-test",
	})

	logger := observability.GetLogger()
	require.NotNil(t, logger)
	assert.NotPanics(t, func() { logger.Debug("initialized") })

	// Initialization is once-only; a second call must not replace the logger.
	observability.InitializeLogger(config.LoggerConfig{Level: "error", Format: "json"})
	assert.Same(t, logger, observability.GetLogger())
}
