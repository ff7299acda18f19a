package options

import (
	"errors"
	"fmt"
	"os"

	"github.com/richinsley/rosecolored/api"
	"github.com/richinsley/rosecolored/colorspace"
	"github.com/spf13/pflag"
)

// Device names accepted by --device.
const (
	DeviceSoft = "soft"
	DeviceEGL  = "egl"
)

// Options holds the command options shared by the rosecolored commands.
// Not every command reads every field.
type Options struct {
	API         string
	Photo       string
	Masks       []string
	Color       string
	Width       int
	Height      int
	Device      string
	Output      string
	FPS         int
	Steps       int
	Saturation  float64
	Value       float64
	Codec       string
	HWAccel     bool
	FFMPEGPath  string
	MaskFeather float64
	WantChild   bool
	NoCache     bool
	Verbose     bool
}

// Default returns the options with their flag defaults.
func Default() *Options {
	return &Options{
		Color:      colorspace.Gray.Hex(),
		Width:      800,
		Height:     600,
		Device:     DeviceSoft,
		FPS:        2,
		Steps:      24,
		Saturation: 0.8,
		Value:      0.9,
		Codec:      "h264",
	}
}

// BindService registers the flags every command that talks to the mask
// service needs.
func (o *Options) BindService(fs *pflag.FlagSet) {
	fs.StringVar(&o.API, "api", o.API, "mask service base URL (from "+api.EnvBaseURL+" env var if not set)")
	fs.BoolVar(&o.WantChild, "want-child", o.WantChild, "ask the service for the innermost mask under the point")
}

// BindSources registers the photo, mask and color flags.
func (o *Options) BindSources(fs *pflag.FlagSet) {
	fs.StringVarP(&o.Photo, "photo", "p", o.Photo, "photo URL or path")
	fs.StringSliceVarP(&o.Masks, "mask", "m", o.Masks, "mask URL or path; repeat to offer several masks")
	fs.StringVarP(&o.Color, "color", "c", o.Color, "target color as #rrggbb")
	fs.Float64Var(&o.MaskFeather, "feather", o.MaskFeather, "Gaussian sigma applied to mask edges, 0 disables")
	fs.BoolVar(&o.NoCache, "no-cache", o.NoCache, "do not cache downloaded images on disk")
}

// BindOutput registers the frame size and device flags.
func (o *Options) BindOutput(fs *pflag.FlagSet) {
	fs.IntVar(&o.Width, "width", o.Width, "width of the output")
	fs.IntVar(&o.Height, "height", o.Height, "height of the output")
	fs.StringVar(&o.Device, "device", o.Device, "render device: soft, egl")
	fs.StringVarP(&o.Output, "output", "o", o.Output, "output file name")
}

// BindSweep registers the video flags of the sweep command.
func (o *Options) BindSweep(fs *pflag.FlagSet) {
	fs.IntVar(&o.FPS, "fps", o.FPS, "frames per second of the output video")
	fs.IntVar(&o.Steps, "steps", o.Steps, "number of hues in the sweep")
	fs.Float64Var(&o.Saturation, "saturation", o.Saturation, "saturation of the swept colors")
	fs.Float64Var(&o.Value, "value", o.Value, "value of the swept colors")
	fs.StringVar(&o.Codec, "codec", o.Codec, "video codec: h264, hevc")
	fs.BoolVar(&o.HWAccel, "hwaccel", o.HWAccel, "use the platform's hardware encoder")
	fs.StringVar(&o.FFMPEGPath, "ffmpeg", o.FFMPEGPath, "path to ffmpeg executable")
}

// ServiceURL returns --api, falling back to the environment.
func (o *Options) ServiceURL() (string, error) {
	base := o.API
	if base == "" {
		base = os.Getenv(api.EnvBaseURL)
	}
	if base == "" {
		return "", fmt.Errorf("no mask service: pass --api or set %s", api.EnvBaseURL)
	}
	return base, nil
}

// TargetColor parses --color.
func (o *Options) TargetColor() (colorspace.Color, error) {
	return colorspace.ParseHex(o.Color)
}

// Mask returns the first --mask, or "" for none.
func (o *Options) Mask() string {
	if len(o.Masks) == 0 {
		return ""
	}
	return o.Masks[0]
}

// SweepColors returns the hue sweep described by --steps, --saturation and
// --value.
func (o *Options) SweepColors() []colorspace.Color {
	return colorspace.Sweep(o.Steps, float32(o.Saturation), float32(o.Value))
}

// ValidateRender checks the options used by the offscreen commands.
func (o *Options) ValidateRender() error {
	var errs []error
	if o.Photo == "" {
		errs = append(errs, errors.New("--photo is required"))
	}
	if o.Output == "" {
		errs = append(errs, errors.New("--output is required"))
	}
	if o.Width <= 0 || o.Height <= 0 {
		errs = append(errs, fmt.Errorf("invalid size %dx%d", o.Width, o.Height))
	}
	switch o.Device {
	case DeviceSoft, DeviceEGL:
	default:
		errs = append(errs, fmt.Errorf("unknown device %q", o.Device))
	}
	if _, err := o.TargetColor(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}
