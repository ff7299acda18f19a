package inputs

import (
	"context"
	"fmt"
	"image"

	"github.com/richinsley/rosecolored/graphics"
	"github.com/sirupsen/logrus"
)

// ImageChannel owns one texture whose contents follow the latest requested
// image. Loads are tagged with a generation so a slow, superseded load can
// never overwrite newer contents.
type ImageChannel struct {
	name       string
	dev        graphics.Device
	textureID  graphics.Texture
	resolution [3]float32
	generation uint64
	cancel     context.CancelFunc
	prepare    func(image.Image) image.Image
	log        *logrus.Entry
}

// ChannelOption configures an ImageChannel.
type ChannelOption func(*ImageChannel)

// WithPrepare runs f on every image before upload.
func WithPrepare(f func(image.Image) image.Image) ChannelOption {
	return func(c *ImageChannel) { c.prepare = f }
}

// WithLogger sets the logger used for upload diagnostics.
func WithLogger(l *logrus.Entry) ChannelOption {
	return func(c *ImageChannel) { c.log = l }
}

// NewImageChannel creates the texture. A nil img leaves the device's blank
// 1x1 contents in place until the first Update or Commit.
func NewImageChannel(dev graphics.Device, name string, img image.Image, opts ...ChannelOption) (*ImageChannel, error) {
	textureID, err := dev.NewTexture()
	if err != nil {
		return nil, fmt.Errorf("failed to create %s texture: %w", name, err)
	}
	c := &ImageChannel{
		name:       name,
		dev:        dev,
		textureID:  textureID,
		resolution: [3]float32{1, 1, 1},
		log:        logrus.NewEntry(logrus.StandardLogger()),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.log = c.log.WithField("channel", name)
	if img != nil {
		if err := c.upload(img); err != nil {
			dev.DeleteTexture(textureID)
			return nil, err
		}
	}
	return c, nil
}

// Begin supersedes any load in flight and returns the context and generation
// tag for a new one. The previous load's context is cancelled.
func (c *ImageChannel) Begin(parent context.Context) (context.Context, uint64) {
	c.supersede()
	ctx, cancel := context.WithCancel(parent)
	c.cancel = cancel
	return ctx, c.generation
}

// Commit uploads img if gen is still the newest generation. It reports
// whether the texture changed.
func (c *ImageChannel) Commit(gen uint64, img image.Image) (bool, error) {
	if gen != c.generation {
		c.log.WithField("generation", gen).Debug("discarding stale load")
		return false, nil
	}
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
	if err := c.upload(img); err != nil {
		return false, err
	}
	return true, nil
}

// Current reports whether gen is the newest generation.
func (c *ImageChannel) Current(gen uint64) bool {
	return gen == c.generation
}

// Update replaces the contents now, superseding any load in flight. The
// texture handle is reused.
func (c *ImageChannel) Update(img image.Image) error {
	c.supersede()
	return c.upload(img)
}

// Reset returns the texture to a blank 1x1 texel, superseding loads.
func (c *ImageChannel) Reset() error {
	c.supersede()
	return c.upload(image.NewNRGBA(image.Rect(0, 0, 1, 1)))
}

func (c *ImageChannel) supersede() {
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
	c.generation++
}

func (c *ImageChannel) upload(img image.Image) error {
	if img == nil {
		return fmt.Errorf("input image for %s is nil", c.name)
	}
	if c.prepare != nil {
		img = c.prepare(img)
	}
	nrgba := ToNRGBA(Fit(img, c.dev.MaxTextureSize()))
	if err := c.dev.UploadTexture(c.textureID, nrgba); err != nil {
		return fmt.Errorf("failed to upload %s texture: %w", c.name, err)
	}
	w, h := c.dev.TextureSize(c.textureID)
	c.resolution = [3]float32{float32(w), float32(h), 1}
	c.log.WithFields(logrus.Fields{"width": w, "height": h}).Debug("texture uploaded")
	return nil
}

// --- IChannel Interface Implementation ---

var _ IChannel = (*ImageChannel)(nil)

func (c *ImageChannel) Name() string {
	return c.name
}

func (c *ImageChannel) GetTexture() graphics.Texture {
	return c.textureID
}

func (c *ImageChannel) ChannelRes() [3]float32 {
	return c.resolution
}

func (c *ImageChannel) Destroy() {
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
	if c.textureID != 0 {
		c.dev.DeleteTexture(c.textureID)
		c.textureID = 0
	}
}
