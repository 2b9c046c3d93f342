package main

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/jrsteele09/backoffice-console/internal/config"
	"github.com/jrsteele09/backoffice-console/session/filerepo"
	fakesessionrepo "github.com/jrsteele09/backoffice-console/session/repofake"
	"github.com/stretchr/testify/require"
)

func setupStorageEnv(t *testing.T, store, key string) config.Config {
	t.Helper()
	t.Setenv("DOTENV_FILE", filepath.Join(t.TempDir(), "missing.env"))
	t.Setenv("SESSION_STORE", store)
	t.Setenv("SESSION_KEY", key)
	t.Setenv("SESSION_FILE", filepath.Join(t.TempDir(), "session.bin"))
	return config.New()
}

func TestNewSessionRepo(t *testing.T) {
	ctx := context.Background()

	t.Run("default settings start on the memory store", func(t *testing.T) {
		repo, closeRepo, err := newSessionRepo(ctx, setupStorageEnv(t, "", ""))
		require.NoError(t, err)
		defer closeRepo()
		require.IsType(t, &fakesessionrepo.FakeSessionRepo{}, repo)
	})

	t.Run("a key selects the encrypted file", func(t *testing.T) {
		repo, closeRepo, err := newSessionRepo(ctx, setupStorageEnv(t, "", "secret"))
		require.NoError(t, err)
		defer closeRepo()
		require.IsType(t, &filerepo.FileRepo{}, repo)
	})

	t.Run("file store without a key is a fatal config error", func(t *testing.T) {
		_, _, err := newSessionRepo(ctx, setupStorageEnv(t, "file", ""))
		require.ErrorIs(t, err, errInvalidConfig)
		require.ErrorIs(t, err, filerepo.ErrNoKey)
	})
}
