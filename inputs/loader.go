package inputs

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"image"
	"io"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"

	"github.com/richinsley/rosecolored/graphics"
	"github.com/sirupsen/logrus"

	// Decoders registered for image.Decode.
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/webp"
)

// Loader fetches and decodes an image. Implementations must be safe to call
// from several goroutines.
type Loader interface {
	Load(ctx context.Context, rawURL string) (image.Image, error)
}

// LoaderFunc adapts a function to Loader.
type LoaderFunc func(ctx context.Context, rawURL string) (image.Image, error)

func (f LoaderFunc) Load(ctx context.Context, rawURL string) (image.Image, error) {
	return f(ctx, rawURL)
}

// Fetcher loads images from http(s) URLs, file URLs and plain paths.
// Remote requests are anonymous: no cookies, no userinfo, no Authorization
// header, so the pixels are never tied to the caller's credentials.
type Fetcher struct {
	client   *http.Client
	cacheDir string
	log      *logrus.Entry
}

// NewFetcher returns a Fetcher. A nil client uses a proxy-aware default.
// An empty cacheDir disables the on-disk cache.
func NewFetcher(client *http.Client, cacheDir string) *Fetcher {
	var c http.Client
	if client != nil {
		c = *client
	} else {
		c.Transport = &http.Transport{Proxy: http.ProxyFromEnvironment}
	}
	c.Jar = nil
	return &Fetcher{
		client:   &c,
		cacheDir: cacheDir,
		log:      logrus.WithField("component", "fetcher"),
	}
}

// DefaultCacheDir returns (and creates) the per-user media cache directory.
func DefaultCacheDir() (string, error) {
	base, err := os.UserCacheDir()
	if err != nil {
		return "", err
	}
	dir := filepath.Join(base, "rosecolored", "media")
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create cache directory at %s: %w", dir, err)
	}
	return dir, nil
}

// Load implements Loader. Errors wrap graphics.ErrImageLoad.
func (f *Fetcher) Load(ctx context.Context, rawURL string) (image.Image, error) {
	data, err := f.read(ctx, rawURL)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", graphics.ErrImageLoad, rawURL, err)
	}
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: failed to decode %s: %v", graphics.ErrImageLoad, rawURL, err)
	}
	return img, nil
}

func (f *Fetcher) read(ctx context.Context, rawURL string) ([]byte, error) {
	u, err := url.Parse(rawURL)
	if err != nil || u.Scheme == "" || len(u.Scheme) == 1 {
		// Bare paths, including Windows drive letters.
		return os.ReadFile(rawURL)
	}
	switch u.Scheme {
	case "file":
		return os.ReadFile(filepath.FromSlash(u.Path))
	case "http", "https":
		return f.fetch(ctx, u)
	default:
		return nil, fmt.Errorf("unsupported scheme %q", u.Scheme)
	}
}

func (f *Fetcher) cachePath(u *url.URL) string {
	if f.cacheDir == "" {
		return ""
	}
	sum := sha256.Sum256([]byte(u.String()))
	return filepath.Join(f.cacheDir, hex.EncodeToString(sum[:12])+path.Ext(u.Path))
}

func (f *Fetcher) fetch(ctx context.Context, u *url.URL) ([]byte, error) {
	anon := *u
	anon.User = nil

	cachePath := f.cachePath(&anon)
	if cachePath != "" {
		if data, err := os.ReadFile(cachePath); err == nil {
			return data, nil
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, anon.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "image/*")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to download: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("bad response status: %s", resp.Status)
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	if cachePath != "" {
		if err := os.WriteFile(cachePath, data, 0644); err != nil {
			f.log.WithError(err).Warnf("failed to save media to cache at %s", cachePath)
		}
	}
	return data, nil
}
