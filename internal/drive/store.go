package drive

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"golang.org/x/oauth2"
	drive "google.golang.org/api/drive/v3"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
)

// ServiceFactory builds Drive API clients bound to a single access token.
type ServiceFactory struct {
	// Endpoint overrides the Drive base URL.
	Endpoint string
	// Timeout bounds each HTTP request. Zero leaves the transport default.
	Timeout time.Duration
}

func (f ServiceFactory) Service(ctx context.Context, token string) (*drive.Service, error) {
	client := oauth2.NewClient(ctx, oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token, TokenType: "Bearer"}))
	client.Timeout = f.Timeout
	opts := []option.ClientOption{option.WithHTTPClient(client)}
	if f.Endpoint != "" {
		opts = append(opts, option.WithEndpoint(f.Endpoint))
	}
	svc, err := drive.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("drive.NewService: %w", err)
	}
	return svc, nil
}

// APIStore is the ObjectStore backed by the Drive v3 API.
type APIStore struct {
	services ServiceFactory
}

func NewAPIStore(services ServiceFactory) *APIStore {
	return &APIStore{services: services}
}

func (s *APIStore) Download(ctx context.Context, token, fileID string) ([]byte, error) {
	svc, err := s.services.Service(ctx, token)
	if err != nil {
		return nil, err
	}
	resp, err := svc.Files.Get(fileID).SupportsAllDrives(true).Context(ctx).Download()
	if err != nil {
		return nil, classify(err)
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read file content: %w", err)
	}
	return data, nil
}

func (s *APIStore) Upload(ctx context.Context, token string, req UploadRequest) (string, error) {
	svc, err := s.services.Service(ctx, token)
	if err != nil {
		return "", err
	}
	meta := &drive.File{Name: req.Name, MimeType: req.MimeType}
	created, err := svc.Files.Create(meta).
		Media(bytes.NewReader(req.Data), googleapi.ContentType(req.MimeType)).
		Fields("id").
		Context(ctx).
		Do()
	if err != nil {
		return "", classify(err)
	}
	return created.Id, nil
}

// classify maps a 401 from the API onto ErrUnauthorized.
func classify(err error) error {
	var gerr *googleapi.Error
	if errors.As(err, &gerr) && gerr.Code == http.StatusUnauthorized {
		return fmt.Errorf("%w: %v", ErrUnauthorized, err)
	}
	return err
}
