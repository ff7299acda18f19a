package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/richinsley/rosecolored/picking"
	"github.com/sirupsen/logrus"
)

type pointPayload struct {
	X         float64 `json:"x"`
	Y         float64 `json:"y"`
	WantChild bool    `json:"want_child"`
}

type imgInfoRequest struct {
	URL     string         `json:"url"`
	Payload []pointPayload `json:"test_ui_payload"`
}

type imgInfoResponse struct {
	MaskURL string `json:"maskUrl"`
}

// LookupMask asks the service for the mask of the region under uv in the
// photo at photoURL. wantChild requests the smallest region containing the
// point rather than its parent. Every failure wraps ErrMaskService.
func (c *Client) LookupMask(ctx context.Context, photoURL string, uv picking.UV, wantChild bool) (string, error) {
	body, err := json.Marshal(imgInfoRequest{
		URL:     photoURL,
		Payload: []pointPayload{{X: uv.U, Y: uv.V, WantChild: wantChild}},
	})
	if err != nil {
		return "", fmt.Errorf("%w: failed to encode request: %v", ErrMaskService, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint("/api/img_info"), bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("%w: failed to create request: %v", ErrMaskService, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: failed to send request: %w", ErrMaskService, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return "", fmt.Errorf("%w: bad response status: %s", ErrMaskService, resp.Status)
	}

	var out imgInfoResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("%w: failed to decode response: %v", ErrMaskService, err)
	}
	if out.MaskURL == "" {
		return "", fmt.Errorf("%w: no mask at %s", ErrMaskService, uv)
	}
	c.log.WithFields(logrus.Fields{"photo": photoURL, "uv": uv.String(), "mask": out.MaskURL}).Debug("mask lookup")
	return out.MaskURL, nil
}

// MaskLookup binds wantChild and returns a function shaped for a
// surface's mask lookup option.
func (c *Client) MaskLookup(wantChild bool) func(ctx context.Context, photoURL string, uv picking.UV) (string, error) {
	return func(ctx context.Context, photoURL string, uv picking.UV) (string, error) {
		return c.LookupMask(ctx, photoURL, uv, wantChild)
	}
}
