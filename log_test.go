package quizsystem

import (
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitLoggerFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "quiz.log")
	require.NoError(t, InitLogger(LogOptions{Level: "warn", File: path}))
	t.Cleanup(func() { _ = InitLogger(LogOptions{}) })

	Logger.Info().Msg("hidden info")
	cl := componentLogger("test")
	cl.Warn().Str("k", "v").Msg("visible warning")
	require.NoError(t, CloseLogFile())
	require.NoError(t, CloseLogFile())

	data := readFile(t, path)
	assert.Contains(t, data, `"message":"visible warning"`)
	assert.Contains(t, data, `"component":"test"`)
	assert.NotContains(t, data, "hidden info")
}

func TestInitLoggerLevels(t *testing.T) {
	t.Cleanup(func() { _ = InitLogger(LogOptions{}) })

	require.NoError(t, InitLogger(LogOptions{Level: "nonsense"}))
	assert.Equal(t, zerolog.InfoLevel, Logger.GetLevel())

	SetVerbose(true)
	assert.Equal(t, zerolog.DebugLevel, Logger.GetLevel())
	SetVerbose(false)
	assert.Equal(t, zerolog.InfoLevel, Logger.GetLevel())
}
