package app

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"placesbot/internal/config"
	"placesbot/internal/storage"
	"placesbot/internal/storage/stubs"
)

func TestNewLogger(t *testing.T) {
	tests := []struct {
		level   string
		enabled zapcore.Level
		wantErr bool
	}{
		{level: "debug", enabled: zapcore.DebugLevel},
		{level: "info", enabled: zapcore.InfoLevel},
		{level: "warn", enabled: zapcore.WarnLevel},
		{level: "loud", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			logger, err := NewLogger(tt.level)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.True(t, logger.Core().Enabled(tt.enabled))
			assert.False(t, logger.Core().Enabled(tt.enabled-1))
		})
	}
}

type failingCloser struct {
	storage.Lifecycle
	err error
}

func (f failingCloser) Close() error {
	return f.err
}

func TestInitStorage_Memory(t *testing.T) {
	a := &App{
		config: &config.Config{PlacesBackend: config.BackendMemory},
		logger: zap.NewNop(),
	}

	require.NoError(t, a.initStorage(context.Background()))
	require.NotNil(t, a.places)
	require.NotNil(t, a.users)

	details, err := a.places.GetVenueDetails(context.Background(), "mock-bar-podil")
	require.NoError(t, err)
	assert.Equal(t, "Podil Taproom", details.Name)

	assert.NoError(t, a.closeStorage())
}

func TestInitStorage_InMemoryUsers(t *testing.T) {
	a := &App{
		config: &config.Config{},
		logger: zap.NewNop(),
	}

	require.NoError(t, a.initUserStore())
	_, ok := a.users.(*stubs.MockDB)
	assert.True(t, ok, "expected the in-memory user store without MYSQL_DSN")
}

func TestCloseStorage_JoinsErrors(t *testing.T) {
	first := errors.New("first")
	second := errors.New("second")

	a := &App{
		logger:  zap.NewNop(),
		closers: []storage.Lifecycle{failingCloser{err: first}, stubs.NewMockDB(), failingCloser{err: second}},
	}

	err := a.closeStorage()
	assert.ErrorIs(t, err, first)
	assert.ErrorIs(t, err, second)
	assert.Empty(t, a.closers)
}
