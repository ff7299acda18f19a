// Package api talks to the mask and upload service.
package api

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/sirupsen/logrus"
)

// ErrMaskService marks any failure of the mask lookup endpoint. Callers
// treat it as recoverable: the photo and current mask stay as they are.
var ErrMaskService = errors.New("mask service failed")

// UserAgent is sent with every request.
var UserAgent = "rosecolored (+https://github.com/richinsley/rosecolored)"

// EnvBaseURL names the environment variable that supplies the service base
// URL when none is given explicitly.
const EnvBaseURL = "ROSECOLORED_API"

type headerTransport struct {
	Transport http.RoundTripper
}

func (t *headerTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req = req.Clone(req.Context())
	req.Header.Set("User-Agent", UserAgent)
	return t.Transport.RoundTrip(req)
}

// Client calls the service rooted at a base URL.
type Client struct {
	base       *url.URL
	httpClient *http.Client
	log        *logrus.Entry
}

// NewClient returns a client for baseURL. A nil httpClient uses a
// proxy-aware default.
func NewClient(baseURL string, httpClient *http.Client) (*Client, error) {
	if baseURL == "" {
		return nil, fmt.Errorf("no service URL: pass one or set %s", EnvBaseURL)
	}
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("invalid service URL %q: %w", baseURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("invalid service URL %q: scheme must be http or https", baseURL)
	}

	var c http.Client
	if httpClient != nil {
		c = *httpClient
	}
	transport := c.Transport
	if transport == nil {
		transport = &http.Transport{Proxy: http.ProxyFromEnvironment}
	}
	c.Transport = &headerTransport{Transport: transport}

	return &Client{
		base:       u,
		httpClient: &c,
		log:        logrus.WithField("service", u.Host),
	}, nil
}

// BaseURL returns the service root.
func (c *Client) BaseURL() string {
	return c.base.String()
}

func (c *Client) endpoint(p string) string {
	u := *c.base
	u.Path = strings.TrimRight(u.Path, "/") + p
	return u.String()
}
