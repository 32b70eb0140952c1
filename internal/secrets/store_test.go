package secrets

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestIdentityTokenRoundTrip(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	_, err := FetchIdentityToken()
	require.Error(t, err, "empty store has no token")

	require.NoError(t, StoreIdentityToken("eyJhbGciOi.fake.token"))
	got, err := FetchIdentityToken()
	require.NoError(t, err)
	require.Equal(t, "eyJhbGciOi.fake.token", got)

	// ciphertext on disk, not the raw token
	path, err := filePath()
	require.NoError(t, err)
	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	require.NotContains(t, string(raw), "fake.token")
	require.Equal(t, "credentials.json", filepath.Base(path))

	require.NoError(t, DeleteIdentityToken())
	_, err = FetchIdentityToken()
	require.Error(t, err)
}
