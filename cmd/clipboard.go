package main

import (
	"bytes"
	"errors"
	"image"
	"image/png"
	"os"
	"runtime"
	"sync"

	"golang.design/x/clipboard"
)

var (
	clipboardOnce sync.Once
	clipboardErr  error
)

func copyImage(img image.Image) error {
	clipboardOnce.Do(func() {
		if runtime.GOOS == "linux" && os.Getenv("DISPLAY") == "" && os.Getenv("WAYLAND_DISPLAY") == "" {
			clipboardErr = errors.New("clipboard requires DISPLAY or WAYLAND_DISPLAY")
			return
		}
		clipboardErr = clipboard.Init()
	})
	if clipboardErr != nil {
		return clipboardErr
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return err
	}
	clipboard.Write(clipboard.FmtImage, buf.Bytes())
	return nil
}
