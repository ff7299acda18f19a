package api

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strconv"

	"github.com/richinsley/rosecolored/picking"
)

// UploadInfo is one previously uploaded photo.
type UploadInfo struct {
	URL  string `json:"url"`
	Name string `json:"name"`
}

// ListUploads returns the photos the service already holds.
func (c *Client) ListUploads(ctx context.Context) ([]UploadInfo, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint("/api/upload"), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("bad response status: %s", resp.Status)
	}
	var out []UploadInfo
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("failed to decode upload list: %w", err)
	}
	return out, nil
}

// Upload sends a photo together with the point the user marked on it.
// The body is streamed; r is read once.
func (c *Client) Upload(ctx context.Context, name string, r io.Reader, at picking.Point) error {
	pr, pw := io.Pipe()
	mw := multipart.NewWriter(pw)

	go func() {
		pw.CloseWithError(writeUploadForm(mw, name, r, at))
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint("/api/upload"), pr)
	if err != nil {
		pr.Close()
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		pr.Close()
		return fmt.Errorf("failed to upload %s: %w", name, err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("bad response status: %s", resp.Status)
	}
	c.log.WithField("file", name).Info("uploaded photo")
	return nil
}

func writeUploadForm(mw *multipart.Writer, name string, r io.Reader, at picking.Point) error {
	part, err := mw.CreateFormFile("files", filepath.Base(name))
	if err != nil {
		return err
	}
	if _, err := io.Copy(part, r); err != nil {
		return fmt.Errorf("failed to read %s: %w", name, err)
	}
	if err := mw.WriteField("x", strconv.FormatFloat(at.X, 'f', -1, 64)); err != nil {
		return err
	}
	if err := mw.WriteField("y", strconv.FormatFloat(at.Y, 'f', -1, 64)); err != nil {
		return err
	}
	return mw.Close()
}
