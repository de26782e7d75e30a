// Package notebooks fetches lab notebooks for a course from a GitHub
// repository.
package notebooks

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
)

const (
	DefaultBaseURL = "https://raw.githubusercontent.com/"
	DefaultRepo    = "SheffieldML/notebook/master/lab_classes"
	Extension      = ".ipynb"

	maxNotebookSize = 50 << 20
)

var (
	ErrBadName  = errors.New("invalid notebook or course name")
	ErrNotFound = errors.New("notebook not found")
)

// Downloader fetches <BaseURL><Repo>/<course>/<name>.ipynb.
type Downloader struct {
	Client  *http.Client
	BaseURL string
	Repo    string
	Log     *zap.Logger
}

// New returns a Downloader for repo, or DefaultRepo when repo is empty.
func New(repo string, logger *zap.Logger) *Downloader {
	if repo == "" {
		repo = DefaultRepo
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Downloader{Client: http.DefaultClient, BaseURL: DefaultBaseURL, Repo: repo, Log: logger}
}

func checkName(s string) error {
	if s == "" || s == "." || s == ".." || strings.ContainsAny(s, `/\`) {
		return fmt.Errorf("%w: %q", ErrBadName, s)
	}
	return nil
}

// FileName adds the notebook extension when name lacks it.
func FileName(name string) string {
	if strings.HasSuffix(name, Extension) {
		return name
	}
	return name + Extension
}

// URL returns the download location of name in course.
func (d *Downloader) URL(course, name string) string {
	base := strings.TrimSuffix(d.BaseURL, "/")
	repo := strings.Trim(d.Repo, "/")
	return fmt.Sprintf("%s/%s/%s/%s", base, repo, url.PathEscape(course), url.PathEscape(FileName(name)))
}

// Download saves the notebook to dir/<course>/<name>.ipynb and returns the
// path written.
func (d *Downloader) Download(ctx context.Context, course, name, dir string) (string, error) {
	if err := checkName(course); err != nil {
		return "", err
	}
	if err := checkName(name); err != nil {
		return "", err
	}
	src := d.URL(course, name)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, src, nil)
	if err != nil {
		return "", err
	}
	client := d.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return "", fmt.Errorf("download %s: %w", src, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return "", fmt.Errorf("%w: %s", ErrNotFound, src)
	case resp.StatusCode != http.StatusOK:
		return "", fmt.Errorf("download %s: %s", src, resp.Status)
	}

	outDir := filepath.Join(dir, course)
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return "", err
	}
	dst := filepath.Join(outDir, FileName(name))
	tmp, err := os.CreateTemp(outDir, "."+FileName(name)+".*")
	if err != nil {
		return "", err
	}
	n, err := io.Copy(tmp, io.LimitReader(resp.Body, maxNotebookSize))
	if cerr := tmp.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(tmp.Name())
		return "", fmt.Errorf("save %s: %w", dst, err)
	}
	if err := os.Rename(tmp.Name(), dst); err != nil {
		os.Remove(tmp.Name())
		return "", err
	}

	d.Log.Info("downloaded notebook",
		zap.String("url", src),
		zap.String("path", dst),
		zap.Int64("bytes", n))
	return dst, nil
}
