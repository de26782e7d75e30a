package googleauth

import (
	"context"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/securecookie"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
)

// ErrAuthDenied is returned when the consent screen reports an error.
var ErrAuthDenied = errors.New("authorization denied")

const callbackPath = "/callback"

type callbackResult struct {
	code string
	err  error
}

func newState() (string, error) {
	key := securecookie.GenerateRandomKey(32)
	if key == nil {
		return "", errors.New("generate oauth state")
	}
	return base64.RawURLEncoding.EncodeToString(key), nil
}

func callbackRouter(state string, results chan<- callbackResult) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Get(callbackPath, func(w http.ResponseWriter, req *http.Request) {
		q := req.URL.Query()
		var res callbackResult
		switch {
		case q.Get("error") != "":
			res.err = fmt.Errorf("%w: %s", ErrAuthDenied, q.Get("error"))
		case subtle.ConstantTimeCompare([]byte(q.Get("state")), []byte(state)) != 1:
			http.Error(w, "invalid state", http.StatusBadRequest)
			return
		case q.Get("code") == "":
			http.Error(w, "missing code", http.StatusBadRequest)
			return
		default:
			res.code = q.Get("code")
		}

		if res.err != nil {
			http.Error(w, "Authorization failed. You can close this window.", http.StatusForbidden)
		} else {
			w.Header().Set("Content-Type", "text/plain; charset=utf-8")
			_, _ = w.Write([]byte("Authorization complete. You can close this window."))
		}
		select {
		case results <- res:
		default:
		}
	})
	return r
}

// authorize runs the installed-app flow: it serves the redirect on a
// loopback port, hands the consent URL to the user and exchanges the
// returned code.
func authorize(ctx context.Context, oc *oauth2.Config, cfg Config, logger *zap.Logger) (*oauth2.Token, error) {
	ln, err := net.Listen("tcp", fmt.Sprintf("127.0.0.1:%d", cfg.CallbackPort))
	if err != nil {
		return nil, fmt.Errorf("listen for oauth callback: %w", err)
	}
	port := ln.Addr().(*net.TCPAddr).Port

	state, err := newState()
	if err != nil {
		ln.Close()
		return nil, err
	}

	results := make(chan callbackResult, 1)
	srv := &http.Server{
		Handler:           callbackRouter(state, results),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("oauth callback server", zap.Error(err))
		}
	}()
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(sctx)
	}()

	flow := *oc
	flow.RedirectURL = fmt.Sprintf("http://127.0.0.1:%d%s", port, callbackPath)
	url := flow.AuthCodeURL(state, oauth2.AccessTypeOffline)

	logger.Info("waiting for google authorization", zap.Int("callback_port", port))
	if cfg.OpenURL != nil {
		if err := cfg.OpenURL(url); err != nil {
			return nil, fmt.Errorf("open consent url: %w", err)
		}
	} else {
		out := cfg.Out
		if out == nil {
			out = os.Stderr
		}
		fmt.Fprintf(out, "Open this URL in a browser to authorize access:\n\n  %s\n\n", url)
	}

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-results:
		if res.err != nil {
			return nil, res.err
		}
		tok, err := flow.Exchange(ctx, res.code)
		if err != nil {
			return nil, fmt.Errorf("exchange authorization code: %w", err)
		}
		logger.Info("google authorization complete")
		return tok, nil
	}
}
