package drive

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"

	"github.com/Lllllllleong/docforge/internal/config"
)

type oauthServer struct {
	srv       *httptest.Server
	exchanges atomic.Int32
	refreshes atomic.Int32
}

func newOAuthServer(t *testing.T) *oauthServer {
	t.Helper()
	o := &oauthServer{}
	o.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.NoError(t, r.ParseForm())
		w.Header().Set("Content-Type", "application/json")
		switch r.PostForm.Get("grant_type") {
		case "authorization_code":
			assert.Equal(t, "the-code", r.PostForm.Get("code"))
			assert.NotEmpty(t, r.PostForm.Get("code_verifier"))
			o.exchanges.Add(1)
			io.WriteString(w, `{"access_token":"access-1","token_type":"Bearer","refresh_token":"refresh-1","expires_in":3600}`)
		case "refresh_token":
			assert.Equal(t, "refresh-1", r.PostForm.Get("refresh_token"))
			o.refreshes.Add(1)
			io.WriteString(w, `{"access_token":"access-2","token_type":"Bearer","expires_in":3600}`)
		default:
			http.Error(w, "unsupported grant", http.StatusBadRequest)
		}
	}))
	t.Cleanup(o.srv.Close)
	return o
}

func (o *oauthServer) endpoint() oauth2.Endpoint {
	return oauth2.Endpoint{AuthURL: o.srv.URL + "/auth", TokenURL: o.srv.URL + "/token"}
}

// browser simulates the user finishing consent by following the redirect with
// the given query parameters.
func browser(t *testing.T, opened *atomic.Int32, params url.Values) func(string) error {
	return func(authURL string) error {
		opened.Add(1)
		u, err := url.Parse(authURL)
		require.NoError(t, err)
		q := u.Query()
		assert.Equal(t, "S256", q.Get("code_challenge_method"))
		assert.Equal(t, "offline", q.Get("access_type"))

		cb := url.Values{"state": {q.Get("state")}}
		for k, v := range params {
			cb[k] = v
		}
		go func() {
			resp, err := http.Get(q.Get("redirect_uri") + "?" + cb.Encode())
			if err == nil {
				resp.Body.Close()
			}
		}()
		return nil
	}
}

func TestLoopbackIdentity_ConsentThenSilentRefresh(t *testing.T) {
	o := newOAuthServer(t)
	var opened atomic.Int32
	id := &LoopbackIdentity{Endpoint: o.endpoint(), OpenBrowser: browser(t, &opened, url.Values{"code": {"the-code"}})}

	tc, err := id.NewTokenClient("client-1", Scopes)
	require.NoError(t, err)

	tok, err := tc.RequestToken(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "access-1", tok.AccessToken)

	tok, err = tc.RequestToken(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "access-2", tok.AccessToken)

	assert.Equal(t, int32(1), opened.Load())
	assert.Equal(t, int32(1), o.exchanges.Load())
	assert.Equal(t, int32(1), o.refreshes.Load())
}

func TestLoopbackIdentity_StoredRefreshTokenSurvivesRestart(t *testing.T) {
	o := newOAuthServer(t)
	store := config.NewFileStore(filepath.Join(t.TempDir(), "credentials.yaml"))
	var opened atomic.Int32

	first := &LoopbackIdentity{Endpoint: o.endpoint(), Store: store, OpenBrowser: browser(t, &opened, url.Values{"code": {"the-code"}})}
	tc, err := first.NewTokenClient("client-1", Scopes)
	require.NoError(t, err)
	_, err = tc.RequestToken(context.Background())
	require.NoError(t, err)

	stored, err := store.Get(refreshTokenKey("client-1"))
	require.NoError(t, err)
	assert.Equal(t, "refresh-1", stored)

	second := &LoopbackIdentity{Endpoint: o.endpoint(), Store: store, OpenBrowser: func(string) error {
		t.Error("consent must not be requested again")
		return nil
	}}
	tc, err = second.NewTokenClient("client-1", Scopes)
	require.NoError(t, err)
	tok, err := tc.RequestToken(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "access-2", tok.AccessToken)
	assert.Equal(t, int32(1), opened.Load())
	assert.Equal(t, int32(1), o.exchanges.Load())
	assert.Equal(t, int32(1), o.refreshes.Load())
}

func TestLoopbackIdentity_AccessDenied(t *testing.T) {
	o := newOAuthServer(t)
	var opened atomic.Int32
	id := &LoopbackIdentity{Endpoint: o.endpoint(), OpenBrowser: browser(t, &opened, url.Values{"error": {"access_denied"}})}

	tc, err := id.NewTokenClient("client-1", Scopes)
	require.NoError(t, err)

	_, err = tc.RequestToken(context.Background())
	assert.ErrorIs(t, err, ErrAuthDeclined)
	assert.Zero(t, o.exchanges.Load())
}

func TestLoopbackIdentity_RequiresClientID(t *testing.T) {
	_, err := (&LoopbackIdentity{}).NewTokenClient("", Scopes)
	assert.Error(t, err)
}
