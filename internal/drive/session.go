// Package drive manages the authorization and readiness state shared by every
// Google Drive operation of a running instance.
package drive

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"golang.org/x/oauth2"
	"golang.org/x/sync/singleflight"

	"github.com/Lllllllleong/docforge/internal/config"
	"github.com/Lllllllleong/docforge/internal/models"
)

// Scopes requested for picking and saving files.
var Scopes = []string{
	"https://www.googleapis.com/auth/drive.file",
	"https://www.googleapis.com/auth/drive.readonly",
}

// PickerMIMETypes are the file types offered by the picker.
var PickerMIMETypes = []string{
	models.MIMEPDF,
	models.MIMEJPEG,
	models.MIMEPNG,
	models.MIMEDocx,
	models.MIMEPptx,
}

const (
	DefaultPollInterval = 100 * time.Millisecond
	DefaultMaxAttempts  = 50
)

// CredentialSource resolves and persists the developer credentials.
type CredentialSource interface {
	Credentials() config.Credentials
	Persist(config.Credentials) error
}

// Loader reports whether the remote picker and identity services are reachable.
type Loader interface {
	PickerLoaded(ctx context.Context) bool
	IdentityLoaded(ctx context.Context) bool
}

// IdentityProvider builds token clients for a client ID.
type IdentityProvider interface {
	NewTokenClient(clientID string, scopes []string) (TokenClient, error)
}

// TokenClient obtains access tokens, prompting for consent when needed.
type TokenClient interface {
	RequestToken(ctx context.Context) (*oauth2.Token, error)
}

// RemoteFile is a file chosen in the picker.
type RemoteFile struct {
	ID       string
	Name     string
	MimeType string
	Size     int64
}

type PickRequest struct {
	APIKey    string
	AppID     string
	Token     string
	MimeTypes []string
}

// Picker lets the user choose a remote file. It returns ErrPickerCancelled when
// nothing was chosen.
type Picker interface {
	Pick(ctx context.Context, req PickRequest) (*RemoteFile, error)
}

type UploadRequest struct {
	Name     string
	MimeType string
	Data     []byte
}

// ObjectStore moves bytes to and from Drive. An HTTP 401 must surface as an error
// matching ErrUnauthorized.
type ObjectStore interface {
	Download(ctx context.Context, token, fileID string) ([]byte, error)
	Upload(ctx context.Context, token string, req UploadRequest) (string, error)
}

// State of the session.
type State int

const (
	StateUninitialized State = iota
	StateInitializing
	StateReady
	StateAuthPending
	StateAuthorized
)

func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateInitializing:
		return "initializing"
	case StateReady:
		return "ready"
	case StateAuthPending:
		return "auth-pending"
	case StateAuthorized:
		return "authorized"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Options configures a Session. PollInterval and MaxAttempts bound the readiness
// wait and default to 100ms and 50.
type Options struct {
	Credentials CredentialSource
	Loader      Loader
	Identity    IdentityProvider
	Picker      Picker
	Store       ObjectStore

	PollInterval time.Duration
	MaxAttempts  int
	Logger       *slog.Logger
}

// Session is the single owner of Drive readiness and authorization state.
type Session struct {
	creds    CredentialSource
	loader   Loader
	identity IdentityProvider
	picker   Picker
	store    ObjectStore

	pollInterval time.Duration
	maxAttempts  int
	logger       *slog.Logger

	group singleflight.Group

	mu            sync.Mutex
	state         State
	pickerReady   bool
	identityReady bool
	tokenClient   TokenClient
	token         *oauth2.Token
	authorizing   int
	generation    uint64
}

func NewSession(opts Options) (*Session, error) {
	if opts.Credentials == nil || opts.Loader == nil || opts.Identity == nil || opts.Picker == nil || opts.Store == nil {
		return nil, fmt.Errorf("NewSession: credentials, loader, identity, picker and store must be set")
	}
	s := &Session{
		creds:        opts.Credentials,
		loader:       opts.Loader,
		identity:     opts.Identity,
		picker:       opts.Picker,
		store:        opts.Store,
		pollInterval: opts.PollInterval,
		maxAttempts:  opts.MaxAttempts,
		logger:       opts.Logger,
	}
	if s.pollInterval <= 0 {
		s.pollInterval = DefaultPollInterval
	}
	if s.maxAttempts <= 0 {
		s.maxAttempts = DefaultMaxAttempts
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	return s, nil
}

// Configured reports whether both credentials are present.
func (s *Session) Configured() bool {
	return s.creds.Credentials().Complete()
}

func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Snapshot is a point-in-time view of the session for status output.
type Snapshot struct {
	State         State
	Configured    bool
	PickerReady   bool
	IdentityReady bool
	HasToken      bool
	Authorizing   bool
}

func (s *Session) Snapshot() Snapshot {
	configured := s.Configured()
	s.mu.Lock()
	defer s.mu.Unlock()
	return Snapshot{
		State:         s.state,
		Configured:    configured,
		PickerReady:   s.pickerReady,
		IdentityReady: s.identityReady,
		HasToken:      s.token.Valid(),
		Authorizing:   s.authorizing > 0,
	}
}

// Reconfigure persists new credentials and clears readiness flags, the token
// client and the token. It is refused while a token request is outstanding.
func (s *Session) Reconfigure(c config.Credentials) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.authorizing > 0 {
		return ErrAuthorizationInFlight
	}
	if err := s.creds.Persist(c); err != nil {
		return fmt.Errorf("failed to persist credentials: %w", err)
	}
	s.resetLocked()
	s.logger.Info("Drive credentials updated; session reset.")
	return nil
}

// Reset returns the session to Uninitialized. Results of requests started before
// the reset are discarded.
func (s *Session) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.resetLocked()
}

func (s *Session) resetLocked() {
	s.pickerReady = false
	s.identityReady = false
	s.tokenClient = nil
	s.token = nil
	s.state = StateUninitialized
	s.generation++
}

// ensureReady checks credentials first, then waits for the remote services and
// builds the token client once.
func (s *Session) ensureReady(ctx context.Context) (config.Credentials, error) {
	creds := s.creds.Credentials()
	if !creds.Complete() {
		return creds, ErrMissingCredentials
	}

	s.mu.Lock()
	if s.pickerReady && s.identityReady && s.tokenClient != nil {
		s.mu.Unlock()
		return creds, nil
	}
	s.mu.Unlock()

	_, err, _ := s.group.Do("init", func() (interface{}, error) {
		return nil, s.initialize(ctx, creds)
	})
	return creds, err
}

func (s *Session) initialize(ctx context.Context, creds config.Credentials) error {
	s.mu.Lock()
	if s.pickerReady && s.identityReady && s.tokenClient != nil {
		s.mu.Unlock()
		return nil
	}
	gen := s.generation
	s.state = StateInitializing
	s.mu.Unlock()

	logCtx := s.logger.With("maxAttempts", s.maxAttempts, "pollInterval", s.pollInterval)
	logCtx.Info("Waiting for Drive services.")

	var pickerReady, identityReady bool
	poll := func() error {
		if !pickerReady {
			pickerReady = s.loader.PickerLoaded(ctx)
		}
		if !identityReady {
			identityReady = s.loader.IdentityLoaded(ctx)
		}
		if pickerReady && identityReady {
			return nil
		}
		return errors.New("drive services not loaded yet")
	}
	policy := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewConstantBackOff(s.pollInterval), uint64(s.maxAttempts-1)),
		ctx,
	)
	if err := backoff.Retry(poll, policy); err != nil {
		s.fail(gen)
		logCtx.Error("Drive services unreachable.", "pickerReady", pickerReady, "identityReady", identityReady, "error", err)
		return fmt.Errorf("%w: picker=%t identity=%t: %v", ErrServiceInitFailed, pickerReady, identityReady, err)
	}

	tc, err := s.identity.NewTokenClient(creds.ClientID, Scopes)
	if err != nil {
		s.fail(gen)
		logCtx.Error("Failed to create token client.", "error", err)
		return fmt.Errorf("%w: token client: %v", ErrServiceInitFailed, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.generation != gen {
		return ErrServiceInitFailed
	}
	s.pickerReady = true
	s.identityReady = true
	s.tokenClient = tc
	s.state = StateReady
	logCtx.Info("Drive services ready.")
	return nil
}

func (s *Session) fail(gen uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.generation == gen {
		s.state = StateUninitialized
	}
}

// accessToken returns the current token while it is valid, or acquires one.
// Concurrent callers share a single outstanding request.
func (s *Session) accessToken(ctx context.Context) (string, error) {
	s.mu.Lock()
	if s.token.Valid() {
		tok := s.token.AccessToken
		s.mu.Unlock()
		return tok, nil
	}
	tc := s.tokenClient
	gen := s.generation
	if tc == nil {
		s.mu.Unlock()
		return "", ErrServiceInitFailed
	}
	s.authorizing++
	s.state = StateAuthPending
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.authorizing--
		s.mu.Unlock()
	}()

	v, err, shared := s.group.Do("token", func() (interface{}, error) {
		s.mu.Lock()
		if s.generation == gen && s.token.Valid() {
			tok := s.token.AccessToken
			s.mu.Unlock()
			return tok, nil
		}
		s.mu.Unlock()

		tok, err := tc.RequestToken(ctx)
		s.mu.Lock()
		defer s.mu.Unlock()
		if s.generation != gen {
			return "", fmt.Errorf("%w: session was reset", ErrAuthDeclined)
		}
		if err != nil {
			s.state = StateReady
			return "", err
		}
		if tok == nil || tok.AccessToken == "" {
			s.state = StateReady
			return "", fmt.Errorf("identity provider returned an empty token")
		}
		s.token = tok
		s.state = StateAuthorized
		return tok.AccessToken, nil
	})
	if err != nil {
		if errors.Is(err, ErrAuthDeclined) {
			s.logger.Info("Drive authorization declined.", "shared", shared)
		} else {
			s.logger.Error("Drive authorization failed.", "shared", shared, "error", err)
		}
		return "", err
	}
	return v.(string), nil
}

// invalidate drops the token only if it is still the one that failed.
func (s *Session) invalidate(stale string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.token != nil && s.token.AccessToken == stale {
		s.token = nil
		s.state = StateReady
	}
}

// withToken runs op with an access token. An unauthorized result triggers one
// re-authorization and exactly one retry.
func (s *Session) withToken(ctx context.Context, op func(token string) error) error {
	tok, err := s.accessToken(ctx)
	if err != nil {
		return err
	}
	err = op(tok)
	if !errors.Is(err, ErrUnauthorized) {
		return err
	}

	s.logger.Warn("Drive rejected access token; re-authorizing.")
	s.invalidate(tok)
	tok, err = s.accessToken(ctx)
	if err != nil {
		return err
	}
	err = op(tok)
	if errors.Is(err, ErrUnauthorized) {
		s.invalidate(tok)
		return fmt.Errorf("%w: %v", ErrUnauthorizedAfterRetry, err)
	}
	return err
}

// OpenPicker lets the user choose a Drive file and downloads it. It returns nil
// and no error when the user cancels or declines consent.
func (s *Session) OpenPicker(ctx context.Context) (*models.InputFile, error) {
	creds, err := s.ensureReady(ctx)
	if err != nil {
		return nil, err
	}

	var picked *RemoteFile
	err = s.withToken(ctx, func(token string) error {
		f, err := s.picker.Pick(ctx, PickRequest{
			APIKey:    creds.APIKey,
			AppID:     AppID(creds.ClientID),
			Token:     token,
			MimeTypes: PickerMIMETypes,
		})
		picked = f
		return err
	})
	switch {
	case errors.Is(err, ErrAuthDeclined), errors.Is(err, ErrPickerCancelled):
		s.logger.Info("Drive picker closed without a selection.")
		return nil, nil
	case err != nil:
		return nil, fmt.Errorf("drive picker: %w", err)
	}

	logCtx := s.logger.With("fileId", picked.ID, "file", picked.Name)
	var data []byte
	err = s.withToken(ctx, func(token string) error {
		d, err := s.store.Download(ctx, token, picked.ID)
		data = d
		return err
	})
	if err != nil {
		if errors.Is(err, ErrAuthDeclined) {
			return nil, nil
		}
		logCtx.Error("Drive download failed.", "error", err)
		return nil, transferError("download", picked.Name, err)
	}
	logCtx.Info("Downloaded file from Drive.", "size", len(data))

	mimeType := picked.MimeType
	if mimeType == "" {
		mimeType = models.DetectMIME(picked.Name, data)
	}
	return &models.InputFile{Name: picked.Name, MimeType: mimeType, Data: data}, nil
}

// Save uploads data as a new Drive file and returns its id. ErrAuthDeclined is
// returned unwrapped when the user declines consent.
func (s *Session) Save(ctx context.Context, fileName, mimeType string, data []byte) (string, error) {
	if _, err := s.ensureReady(ctx); err != nil {
		return "", err
	}
	logCtx := s.logger.With("file", fileName, "mimeType", mimeType, "size", len(data))

	var id string
	err := s.withToken(ctx, func(token string) error {
		created, err := s.store.Upload(ctx, token, UploadRequest{Name: fileName, MimeType: mimeType, Data: data})
		id = created
		return err
	})
	if err != nil {
		if errors.Is(err, ErrAuthDeclined) {
			return "", err
		}
		logCtx.Error("Drive upload failed.", "error", err)
		return "", transferError("upload", fileName, err)
	}
	logCtx.Info("Saved file to Drive.", "fileId", id)
	return id, nil
}

func transferError(op, name string, err error) error {
	if errors.Is(err, ErrUnauthorizedAfterRetry) || errors.Is(err, ErrServiceInitFailed) {
		return err
	}
	return &TransferError{Op: op, Name: name, Cause: err}
}

// AppID is the numeric project prefix of an OAuth client ID.
func AppID(clientID string) string {
	if i := strings.IndexByte(clientID, '-'); i >= 0 {
		return clientID[:i]
	}
	return clientID
}
