package logging

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewWritesJSONAtLevel(t *testing.T) {
	var buf bytes.Buffer
	logger, closer, err := New(Options{Level: "WARN", Writer: &buf})
	require.NoError(t, err)
	defer closer.Close()

	logger.Info().Msg("dropped")
	logger.Warn().Str("action", "chatbot.send").Msg("kept")

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &entry))
	assert.Equal(t, "warn", entry["level"])
	assert.Equal(t, "kept", entry["message"])
	assert.Equal(t, "chatbot.send", entry["action"])
}

func TestNewRejectsUnknownLevel(t *testing.T) {
	_, _, err := New(Options{Level: "chatty"})
	assert.Error(t, err)
}

func TestNewLogsToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "studio.log")
	logger, closer, err := New(Options{Level: "debug", File: path, Pretty: true})
	require.NoError(t, err)

	logger.Debug().Msg("into the file")
	require.NoError(t, closer.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "into the file")
}
