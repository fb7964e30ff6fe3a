package logger_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonesrussell/north-cloud/harvester/internal/logger"
)

func TestFromContext_ReturnsStoredLogger(t *testing.T) {
	t.Parallel()

	l := logger.NewNop()
	ctx := logger.WithContext(context.Background(), l)

	assert.Same(t, l, logger.FromContext(ctx))
}

func TestFromContext_FallsBackToNop(t *testing.T) {
	t.Parallel()

	l := logger.FromContext(context.Background())
	require.NotNil(t, l)
	assert.IsType(t, &logger.NoOpLogger{}, l)
}

func TestNew_ConsoleAndJSON(t *testing.T) {
	t.Parallel()

	for _, format := range []string{logger.FormatJSON, logger.FormatConsole} {
		l, err := logger.New(logger.Config{Level: "debug", Format: format, OutputPaths: []string{"stderr"}})
		require.NoError(t, err)
		l.With(logger.String("format", format)).Debug("built")
	}
}
