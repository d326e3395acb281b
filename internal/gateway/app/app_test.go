package app

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"contractcreator/internal/gateway/config"
	"contractcreator/internal/gateway/repository/snapshot"
	"contractcreator/internal/logging"
	"contractcreator/internal/validation"
)

func TestInitSnapshotStore(t *testing.T) {
	logger := logging.Nop()

	store, closer, err := initSnapshotStore(config.SnapshotConfig{Backend: "memory"}, logger)
	require.NoError(t, err)
	assert.IsType(t, &snapshot.MemoryStore{}, store)
	assert.Nil(t, closer)

	store, _, err = initSnapshotStore(config.SnapshotConfig{Backend: "file", Path: filepath.Join(t.TempDir(), "s.json")}, logger)
	require.NoError(t, err)
	assert.IsType(t, &snapshot.FileStore{}, store)

	store, closer, err = initSnapshotStore(config.SnapshotConfig{Backend: "sqlite", DSN: filepath.Join(t.TempDir(), "s.db")}, logger)
	require.NoError(t, err)
	require.NotNil(t, closer)
	t.Cleanup(func() { _ = closer() })
	assert.IsType(t, &snapshot.CachedStore{}, store)

	_, _, err = initSnapshotStore(config.SnapshotConfig{Backend: "s3"}, logger)
	assert.Error(t, err)
}

func TestNewValidator(t *testing.T) {
	v, err := newValidator(config.ValidationConfig{CacheSize: 4}, nil)
	require.NoError(t, err)
	assert.IsType(t, &validation.Service{}, v)

	errs, err := v.Validate(context.Background(), `{"note":{"type":"object","properties":{"a":{"position":0,"type":"string"}},"additionalProperties":false}}`)
	require.NoError(t, err)
	assert.Empty(t, errs)
}

func TestNew_FakeProvider(t *testing.T) {
	t.Setenv("LLM_PROVIDER", "fake")
	t.Setenv("SNAPSHOT_BACKEND", "memory")
	t.Setenv("PORT", "0")

	a, err := New(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, "FakeLLM", a.llm.Name())
	require.NoError(t, a.Shutdown(context.Background()))
}
