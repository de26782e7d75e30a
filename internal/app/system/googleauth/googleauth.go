// Package googleauth builds the OAuth2 token source used for the Sheets and
// Drive APIs. A service account key is used when configured; otherwise the
// installed-app flow runs once through a loopback callback and the resulting
// token is cached on disk.
package googleauth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/drive/v3"
	"google.golang.org/api/sheets/v4"
)

// Scopes requested for every token.
var Scopes = []string{sheets.SpreadsheetsScope, drive.DriveScope}

// ErrNoCredentials is returned when neither a service account key nor an
// OAuth client file is configured.
var ErrNoCredentials = errors.New("no google credentials configured")

// Config selects and locates credentials.
type Config struct {
	// ServiceAccountFile is a service account JSON key. Takes precedence.
	ServiceAccountFile string
	// CredentialsFile is an OAuth client JSON of type "installed".
	CredentialsFile string
	// TokenFile caches the user token from the installed-app flow.
	TokenFile string
	// CallbackPort is the loopback port for the authorization redirect;
	// zero picks a free port.
	CallbackPort int

	// OpenURL is called with the consent URL. When nil the URL is printed
	// to Out.
	OpenURL func(url string) error
	Out     io.Writer
}

// TokenSource returns a token source for cfg.
func TokenSource(ctx context.Context, cfg Config, logger *zap.Logger) (oauth2.TokenSource, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	switch {
	case cfg.ServiceAccountFile != "":
		data, err := os.ReadFile(cfg.ServiceAccountFile)
		if err != nil {
			return nil, fmt.Errorf("read service account key: %w", err)
		}
		jc, err := google.JWTConfigFromJSON(data, Scopes...)
		if err != nil {
			return nil, fmt.Errorf("parse service account key: %w", err)
		}
		logger.Info("using service account credentials", zap.String("email", jc.Email))
		return jc.TokenSource(context.WithoutCancel(ctx)), nil

	case cfg.CredentialsFile != "":
		data, err := os.ReadFile(cfg.CredentialsFile)
		if err != nil {
			return nil, fmt.Errorf("read oauth client file: %w", err)
		}
		oc, err := google.ConfigFromJSON(data, Scopes...)
		if err != nil {
			return nil, fmt.Errorf("parse oauth client file: %w", err)
		}
		return installed(ctx, oc, cfg, logger)
	}
	return nil, ErrNoCredentials
}

func installed(ctx context.Context, oc *oauth2.Config, cfg Config, logger *zap.Logger) (oauth2.TokenSource, error) {
	tok, err := loadToken(cfg.TokenFile)
	if err != nil {
		return nil, err
	}
	if tok == nil {
		logger.Info("no cached google token, starting authorization")
		tok, err = authorize(ctx, oc, cfg, logger)
		if err != nil {
			return nil, err
		}
		if err := saveToken(cfg.TokenFile, tok); err != nil {
			return nil, err
		}
	}

	base := oc.TokenSource(context.WithoutCancel(ctx), tok)
	if cfg.TokenFile == "" {
		return base, nil
	}
	return oauth2.ReuseTokenSource(tok, &savingSource{
		base:   base,
		path:   cfg.TokenFile,
		access: tok.AccessToken,
		log:    logger,
	}), nil
}

// savingSource writes refreshed tokens back to the cache file.
type savingSource struct {
	base   oauth2.TokenSource
	path   string
	log    *zap.Logger
	mu     sync.Mutex
	access string
}

func (s *savingSource) Token() (*oauth2.Token, error) {
	tok, err := s.base.Token()
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if tok.AccessToken != s.access {
		s.access = tok.AccessToken
		if err := saveToken(s.path, tok); err != nil {
			s.log.Warn("failed to cache refreshed token", zap.Error(err))
		}
	}
	return tok, nil
}

// loadToken returns nil, nil when path is empty or does not exist.
func loadToken(path string) (*oauth2.Token, error) {
	if path == "" {
		return nil, nil
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read token cache: %w", err)
	}
	var tok oauth2.Token
	if err := json.Unmarshal(data, &tok); err != nil {
		return nil, fmt.Errorf("parse token cache %s: %w", path, err)
	}
	return &tok, nil
}

func saveToken(path string, tok *oauth2.Token) error {
	if path == "" {
		return nil
	}
	data, err := json.MarshalIndent(tok, "", "  ")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("create token dir: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("write token cache: %w", err)
	}
	return nil
}
