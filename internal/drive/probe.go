package drive

import (
	"context"
	"net/http"
	"sync/atomic"
	"time"
)

const (
	DefaultPickerProbeURL   = "https://www.googleapis.com/discovery/v1/apis/drive/v3/rest"
	DefaultIdentityProbeURL = "https://accounts.google.com/.well-known/openid-configuration"
)

// HTTPLoader considers a service loaded once its probe URL answers with 2xx. A
// successful probe is remembered for the life of the loader.
type HTTPLoader struct {
	client      *http.Client
	pickerURL   string
	identityURL string

	picker   atomic.Bool
	identity atomic.Bool
}

// NewHTTPLoader probes the given URLs, falling back to the Google defaults.
func NewHTTPLoader(client *http.Client, pickerURL, identityURL string) *HTTPLoader {
	if client == nil {
		client = &http.Client{Timeout: 5 * time.Second}
	}
	if pickerURL == "" {
		pickerURL = DefaultPickerProbeURL
	}
	if identityURL == "" {
		identityURL = DefaultIdentityProbeURL
	}
	return &HTTPLoader{client: client, pickerURL: pickerURL, identityURL: identityURL}
}

func (l *HTTPLoader) PickerLoaded(ctx context.Context) bool {
	return l.probe(ctx, &l.picker, l.pickerURL)
}

func (l *HTTPLoader) IdentityLoaded(ctx context.Context) bool {
	return l.probe(ctx, &l.identity, l.identityURL)
}

func (l *HTTPLoader) probe(ctx context.Context, loaded *atomic.Bool, url string) bool {
	if loaded.Load() {
		return true
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return false
	}
	resp, err := l.client.Do(req)
	if err != nil {
		return false
	}
	resp.Body.Close()
	ok := resp.StatusCode >= 200 && resp.StatusCode < 300
	if ok {
		loaded.Store(true)
	}
	return ok
}
