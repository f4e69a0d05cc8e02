package logger

import (
	"testing"

	"github.com/GlebRadaev/delivery/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestInitLogger(t *testing.T) {
	tests := []struct {
		name          string
		config        *config.Config
		expectedError bool
		expectedLvl   zapcore.Level
	}{
		{
			name:        "Info level with service name",
			config:      &config.Config{LogLvl: "info", ServiceName: "delivery-api"},
			expectedLvl: zapcore.InfoLevel,
		},
		{
			name:        "Warn level",
			config:      &config.Config{LogLvl: "warn"},
			expectedLvl: zapcore.WarnLevel,
		},
		{
			name:        "Debug level",
			config:      &config.Config{LogLvl: "debug"},
			expectedLvl: zapcore.DebugLevel,
		},
		{
			name:          "Unsupported level",
			config:        &config.Config{LogLvl: "verbose"},
			expectedError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := InitLogger(tt.config)

			if tt.expectedError {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.True(t, zap.L().Core().Enabled(tt.expectedLvl))
			if tt.expectedLvl > zapcore.DebugLevel {
				assert.False(t, zap.L().Core().Enabled(tt.expectedLvl-1))
			}
		})
	}
}
