package logging

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewWritesJSON(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New(Options{Level: "debug", Output: &buf})
	require.NoError(t, err)
	defer logger.Close()

	logger.WithField("mobile", "9876543210").Debug("otp issued")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "otp issued", entry["message"])
	assert.Equal(t, "debug", entry["level"])
	assert.Equal(t, "9876543210", entry["mobile"])
	assert.Contains(t, entry, "timestamp")
}

func TestNewUnknownLevelFallsBackToInfo(t *testing.T) {
	logger, err := New(Options{Level: "chatty", Output: &bytes.Buffer{}})
	require.NoError(t, err)
	assert.Equal(t, logrus.InfoLevel, logger.GetLevel())
}

func TestNewTeesIntoFile(t *testing.T) {
	var buf bytes.Buffer
	path := filepath.Join(t.TempDir(), "logs", "careauth.log")

	logger, err := New(Options{Level: "info", File: path, Output: &buf})
	require.NoError(t, err)
	logger.Info("server started")
	require.NoError(t, logger.Close())

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(raw), "server started")
	assert.Contains(t, buf.String(), "server started")
}
