package config

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func envMap(values map[string]string) func(string) (string, bool) {
	return func(k string) (string, bool) {
		v, ok := values[k]
		return v, ok
	}
}

func TestFileStore_RoundTrip(t *testing.T) {
	store := NewFileStore(filepath.Join(t.TempDir(), "nested", "credentials.yaml"))

	v, err := store.Get(KeyGoogleAPIKey)
	require.NoError(t, err)
	assert.Empty(t, v)

	require.NoError(t, store.Set(map[string]string{KeyGoogleAPIKey: "key-1"}))
	require.NoError(t, store.Set(map[string]string{KeyGoogleClientID: "client-1"}))

	v, err = store.Get(KeyGoogleAPIKey)
	require.NoError(t, err)
	assert.Equal(t, "key-1", v)
	v, err = store.Get(KeyGoogleClientID)
	require.NoError(t, err)
	assert.Equal(t, "client-1", v)
}

func TestCredentialResolver_EnvironmentWins(t *testing.T) {
	store := NewFileStore(filepath.Join(t.TempDir(), "credentials.yaml"))
	require.NoError(t, store.Set(map[string]string{
		KeyGoogleAPIKey:   "stored-key",
		KeyGoogleClientID: "stored-client",
	}))

	r := NewCredentialResolver(store).WithLookup(envMap(map[string]string{
		KeyGoogleAPIKey: "env-key",
	}))

	got := r.Credentials()
	assert.Equal(t, "env-key", got.APIKey)
	assert.Equal(t, "stored-client", got.ClientID)
	assert.True(t, got.Complete())
}

func TestCredentialResolver_EmptyEnvFallsBack(t *testing.T) {
	store := NewFileStore(filepath.Join(t.TempDir(), "credentials.yaml"))
	r := NewCredentialResolver(store).WithLookup(envMap(map[string]string{
		KeyGoogleAPIKey: "",
	}))

	assert.False(t, r.Credentials().Complete())

	require.NoError(t, r.Persist(Credentials{APIKey: "k", ClientID: "c"}))
	assert.Equal(t, Credentials{APIKey: "k", ClientID: "c"}, r.Credentials())
}

func TestCredentialResolver_NoStore(t *testing.T) {
	r := NewCredentialResolver(nil).WithLookup(envMap(nil))

	assert.Equal(t, Credentials{}, r.Credentials())
	assert.Error(t, r.Persist(Credentials{APIKey: "k", ClientID: "c"}))
}
