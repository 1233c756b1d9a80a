package drive

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	"github.com/Lllllllleong/docforge/internal/config"
)

// refreshTokenKey is the store key holding the refresh token of a client ID.
func refreshTokenKey(clientID string) string {
	return "DRIVE_REFRESH_TOKEN_" + clientID
}

// LoopbackIdentity obtains tokens with the OAuth2 authorization code flow and
// PKCE, receiving the code on a loopback redirect.
type LoopbackIdentity struct {
	// ClientSecret is optional for clients registered without one.
	ClientSecret string
	// Endpoint defaults to Google's.
	Endpoint oauth2.Endpoint
	// OpenBrowser presents the consent URL to the user.
	OpenBrowser func(url string) error
	// ConsentTimeout bounds the wait for the redirect. Zero waits until ctx is done.
	ConsentTimeout time.Duration
	// Store keeps refresh tokens across runs. Optional.
	Store  config.KVStore
	Logger *slog.Logger
}

func (l *LoopbackIdentity) NewTokenClient(clientID string, scopes []string) (TokenClient, error) {
	if clientID == "" {
		return nil, errors.New("client ID is required")
	}
	endpoint := l.Endpoint
	if endpoint.AuthURL == "" {
		endpoint = google.Endpoint
	}
	open := l.OpenBrowser
	if open == nil {
		open = printURL
	}
	logger := l.Logger
	if logger == nil {
		logger = slog.Default()
	}
	c := &loopbackTokenClient{
		conf: oauth2.Config{
			ClientID:     clientID,
			ClientSecret: l.ClientSecret,
			Endpoint:     endpoint,
			Scopes:       append([]string(nil), scopes...),
		},
		open:    open,
		timeout: l.ConsentTimeout,
		store:   l.Store,
		key:     refreshTokenKey(clientID),
		logger:  logger.With("clientId", clientID),
	}
	if c.store != nil {
		rt, err := c.store.Get(c.key)
		if err != nil {
			c.logger.Warn("Could not read stored refresh token.", "error", err)
		} else if rt != "" {
			c.last = &oauth2.Token{RefreshToken: rt}
		}
	}
	return c, nil
}

func printURL(url string) error {
	_, err := fmt.Printf("Open this URL in your browser to authorize Google Drive access:\n\n  %s\n\n", url)
	return err
}

type loopbackTokenClient struct {
	conf    oauth2.Config
	open    func(string) error
	timeout time.Duration
	store   config.KVStore
	key     string
	logger  *slog.Logger

	mu   sync.Mutex
	last *oauth2.Token
}

// RequestToken refreshes silently when a refresh token is held and otherwise asks
// the user for consent.
func (c *loopbackTokenClient) RequestToken(ctx context.Context) (*oauth2.Token, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.last != nil && c.last.RefreshToken != "" {
		tok, err := c.refresh(ctx)
		if err == nil {
			return tok, nil
		}
		c.logger.Warn("Silent token refresh failed; asking for consent.", "error", err)
	}

	tok, err := c.consent(ctx)
	if err != nil {
		return nil, err
	}
	c.last = tok
	c.remember(tok.RefreshToken)
	return tok, nil
}

func (c *loopbackTokenClient) remember(refreshToken string) {
	if c.store == nil || refreshToken == "" {
		return
	}
	if err := c.store.Set(map[string]string{c.key: refreshToken}); err != nil {
		c.logger.Warn("Could not persist refresh token.", "error", err)
	}
}

func (c *loopbackTokenClient) refresh(ctx context.Context) (*oauth2.Token, error) {
	// Force a refresh even if the cached access token has not expired yet.
	stale := &oauth2.Token{RefreshToken: c.last.RefreshToken, Expiry: time.Now().Add(-time.Minute)}
	tok, err := c.conf.TokenSource(ctx, stale).Token()
	if err != nil {
		return nil, err
	}
	if tok.RefreshToken == "" {
		tok.RefreshToken = c.last.RefreshToken
	} else if tok.RefreshToken != c.last.RefreshToken {
		c.remember(tok.RefreshToken)
	}
	c.last = tok
	return tok, nil
}

type callbackResult struct {
	code string
	err  error
}

func (c *loopbackTokenClient) consent(ctx context.Context) (*oauth2.Token, error) {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return nil, fmt.Errorf("failed to start loopback listener: %w", err)
	}
	conf := c.conf
	conf.RedirectURL = "http://" + listener.Addr().String() + "/callback"

	state := uuid.NewString()
	verifier := oauth2.GenerateVerifier()
	results := make(chan callbackResult, 1)

	mux := http.NewServeMux()
	mux.HandleFunc("/callback", func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		var res callbackResult
		switch {
		case q.Get("state") != state:
			http.Error(w, "state mismatch", http.StatusBadRequest)
			return
		case q.Get("error") == "access_denied":
			res.err = ErrAuthDeclined
		case q.Get("error") != "":
			res.err = fmt.Errorf("authorization failed: %s", q.Get("error"))
		case q.Get("code") == "":
			res.err = errors.New("authorization response carried no code")
		default:
			res.code = q.Get("code")
		}
		if res.err != nil {
			fmt.Fprintln(w, "Authorization was not completed. You can close this window.")
		} else {
			fmt.Fprintln(w, "Authorization complete. You can close this window.")
		}
		select {
		case results <- res:
		default:
		}
	})
	srv := &http.Server{Handler: mux, ReadHeaderTimeout: 10 * time.Second}
	go srv.Serve(listener)
	defer srv.Close()

	authURL := conf.AuthCodeURL(state, oauth2.AccessTypeOffline, oauth2.S256ChallengeOption(verifier))
	c.logger.Info("Requesting Drive consent.", "redirect", conf.RedirectURL)
	if err := c.open(authURL); err != nil {
		return nil, fmt.Errorf("failed to present consent URL: %w", err)
	}

	waitCtx := ctx
	if c.timeout > 0 {
		var cancel context.CancelFunc
		waitCtx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	var res callbackResult
	select {
	case res = <-results:
	case <-waitCtx.Done():
		if ctx.Err() == nil {
			return nil, fmt.Errorf("%w: consent window timed out", ErrAuthDeclined)
		}
		return nil, ctx.Err()
	}
	if res.err != nil {
		return nil, res.err
	}

	tok, err := conf.Exchange(ctx, res.code, oauth2.VerifierOption(verifier))
	if err != nil {
		return nil, fmt.Errorf("failed to exchange authorization code: %w", err)
	}
	return tok, nil
}
