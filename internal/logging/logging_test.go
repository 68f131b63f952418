package logging

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestNewWritesToFile(t *testing.T) {
	prev := Log
	t.Cleanup(func() { Log = prev })

	path := filepath.Join(t.TempDir(), "nested", "focusflow.log")
	l, err := New("debug", path)
	require.NoError(t, err)

	l.Info("goal synced", zap.String("goal_id", "g1"))
	_ = l.Sync()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(data), `"goal_id":"g1"`))
	assert.Same(t, l, Log)
}

func TestNewRejectsUnknownLevel(t *testing.T) {
	_, err := New("loud", filepath.Join(t.TempDir(), "x.log"))
	assert.Error(t, err)
}

func TestNamedWithoutSetupIsSafe(t *testing.T) {
	assert.NotPanics(t, func() {
		Named("test").Warn("no logger configured")
	})
}
