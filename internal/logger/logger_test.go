package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestNewLevels(t *testing.T) {
	tests := []struct {
		env     string
		verbose bool
		debug   bool
	}{
		{"development", false, false},
		{"development", true, true},
		{"production", false, false},
		{"production", true, true},
	}

	for _, tt := range tests {
		log, err := New(tt.env, tt.verbose)
		require.NoError(t, err)
		assert.Equal(t, tt.debug, log.Core().Enabled(zapcore.DebugLevel), "%s verbose=%v", tt.env, tt.verbose)
		assert.True(t, log.Core().Enabled(zapcore.InfoLevel))
	}
}

func TestOrNop(t *testing.T) {
	assert.NotNil(t, OrNop(nil))
}
