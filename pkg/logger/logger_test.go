package logger

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewWithWriterJSON(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithWriter(&buf, Options{Level: "warn"})

	log.Info("dropped")
	log.Warn("kept", "tier", "primary")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	require.Equal(t, "kept", entry["msg"])
	require.Equal(t, "outfit-recommender", entry["service"])
	require.Equal(t, "primary", entry["tier"])
}

func TestNewWithWriterText(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithWriter(&buf, Options{Format: "TEXT", Service: "worker"})

	log.Debug("hidden")
	log.Info("hello")

	require.Contains(t, buf.String(), "msg=hello")
	require.Contains(t, buf.String(), "service=worker")
	require.NotContains(t, buf.String(), "hidden")
}
