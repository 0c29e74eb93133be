package secrets

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func writeSecretFile(t *testing.T, dir, name, content string) {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o700))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
}

func TestLocalSecretManager_GetSecret(t *testing.T) {
	dir := t.TempDir()
	writeSecretFile(t, dir, "soap-gateway/api-user.json", `{"username":"api-user","password":"pw"}`)
	writeSecretFile(t, dir, "wrapped", `{"value":"inner","tags":{"env":"dev"},"created_at":"2026-01-01T00:00:00Z"}`)
	writeSecretFile(t, dir, "plain.txt", "  raw-value\n")

	sm := NewLocalSecretManager(dir, zaptest.NewLogger(t))
	ctx := context.Background()

	t.Run("credentials document is returned as is", func(t *testing.T) {
		secret, err := sm.GetSecret(ctx, "soap-gateway/api-user.json")
		require.NoError(t, err)
		assert.Equal(t, `{"username":"api-user","password":"pw"}`, secret.Value)
		assert.Equal(t, "v1", secret.Version)
	})

	t.Run("value envelope", func(t *testing.T) {
		secret, err := sm.GetSecret(ctx, "wrapped")
		require.NoError(t, err)
		assert.Equal(t, "inner", secret.Value)
		assert.Equal(t, "dev", secret.Metadata["env"])
		assert.Equal(t, "2026-01-01T00:00:00Z", secret.CreatedAt)
	})

	t.Run("plain text is trimmed", func(t *testing.T) {
		secret, err := sm.GetSecretVersion(ctx, "plain.txt", "ignored")
		require.NoError(t, err)
		assert.Equal(t, "raw-value", secret.Value)
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := sm.GetSecret(ctx, "nope")
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrSecretNotFound)
	})
}

func TestLocalSecretManager_RejectsPathEscape(t *testing.T) {
	root := t.TempDir()
	dir := filepath.Join(root, "secrets")
	require.NoError(t, os.MkdirAll(dir, 0o700))
	writeSecretFile(t, root, "outside", "do-not-read")

	sm := NewLocalSecretManager(dir, zaptest.NewLogger(t))
	for _, path := range []string{"../outside", "a/../../outside", ".."} {
		_, err := sm.GetSecret(context.Background(), path)
		require.Error(t, err, path)
		assert.Contains(t, err.Error(), "escapes")
		assert.NotContains(t, err.Error(), "do-not-read")
	}
}
