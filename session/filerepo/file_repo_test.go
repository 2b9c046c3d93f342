package filerepo_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/jrsteele09/backoffice-console/session"
	"github.com/jrsteele09/backoffice-console/session/filerepo"
	"github.com/stretchr/testify/require"
)

func TestFileRepo(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", "session.bin")

	t.Run("empty key rejected", func(t *testing.T) {
		_, err := filerepo.New(path, "")
		require.ErrorIs(t, err, filerepo.ErrNoKey)
	})

	t.Run("missing file reads as empty", func(t *testing.T) {
		r, err := filerepo.New(path, "secret")
		require.NoError(t, err)
		_, found, err := r.Get(ctx, session.KeyAccessToken)
		require.NoError(t, err)
		require.False(t, found)
	})

	t.Run("values survive a new repo on the same file", func(t *testing.T) {
		r, err := filerepo.New(path, "secret")
		require.NoError(t, err)
		require.NoError(t, r.Set(ctx, session.KeyAccessToken, "tok-1"))
		require.NoError(t, r.Set(ctx, session.KeyRefreshToken, "ref-1"))

		reopened, err := filerepo.New(path, "secret")
		require.NoError(t, err)
		v, found, err := reopened.Get(ctx, session.KeyAccessToken)
		require.NoError(t, err)
		require.True(t, found)
		require.Equal(t, "tok-1", v)

		require.NoError(t, reopened.Delete(ctx, session.KeyAccessToken))
		_, found, err = r.Get(ctx, session.KeyAccessToken)
		require.NoError(t, err)
		require.False(t, found)

		v, found, err = r.Get(ctx, session.KeyRefreshToken)
		require.NoError(t, err)
		require.True(t, found)
		require.Equal(t, "ref-1", v)
	})

	t.Run("file is not plaintext", func(t *testing.T) {
		data, err := os.ReadFile(path)
		require.NoError(t, err)
		require.NotContains(t, string(data), "ref-1")

		info, err := os.Stat(path)
		require.NoError(t, err)
		require.Equal(t, os.FileMode(0o600), info.Mode().Perm())
	})

	t.Run("wrong key cannot read", func(t *testing.T) {
		r, err := filerepo.New(path, "other-secret")
		require.NoError(t, err)
		_, _, err = r.Get(ctx, session.KeyRefreshToken)
		require.ErrorIs(t, err, filerepo.ErrCorruption)
	})
}
