package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	for _, key := range []string{"PORT", "STREAM_TIMEOUT", "SERVER_WRITE_TIMEOUT", "MAX_CONCURRENT_STREAMS", "MAX_STREAMS_PER_OWNER", "EMBEDDING_MODEL"} {
		t.Setenv(key, "")
	}

	cfg := Load()

	require.Equal(t, "8080", cfg.ServerPort)
	require.Equal(t, 300*time.Second, cfg.StreamTimeout)
	require.Greater(t, cfg.ServerWriteTimeout, cfg.StreamTimeout,
		"server write timeout must outlive the stream timeout")
	require.Equal(t, 50, cfg.MaxStreams)
	require.Equal(t, 3, cfg.MaxStreamsPerOwner)
	require.Equal(t, "text-embedding-3-small", cfg.EmbeddingModel)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("STREAM_TIMEOUT", "45s")
	t.Setenv("MAX_CONCURRENT_STREAMS", "10")
	t.Setenv("TRACING_ENABLED", "true")

	cfg := Load()
	require.Equal(t, "9090", cfg.ServerPort)
	require.Equal(t, 45*time.Second, cfg.StreamTimeout)
	require.Equal(t, 10, cfg.MaxStreams)
	require.True(t, cfg.TracingEnabled)
}

func TestLoad_InvalidValuesFallBack(t *testing.T) {
	t.Setenv("MAX_CONCURRENT_STREAMS", "lots")
	t.Setenv("STREAM_TIMEOUT", "soon")

	cfg := Load()
	require.Equal(t, 50, cfg.MaxStreams)
	require.Equal(t, 300*time.Second, cfg.StreamTimeout)
}
