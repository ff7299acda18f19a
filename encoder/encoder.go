// Package encoder pipes rendered RGBA frames into an ffmpeg process.
package encoder

import (
	"errors"
	"fmt"
	"image"
	"io"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/sirupsen/logrus"
	ffmpeg "github.com/u2takey/ffmpeg-go"
)

// Options describes the output video.
type Options struct {
	OutputFile string
	Width      int
	Height     int
	FPS        int
	// Codec is "h264" (default) or "hevc".
	Codec string
	// HWAccel selects the platform's hardware encoder instead of x264/x265.
	HWAccel    bool
	FFMPEGPath string
}

// Encoder streams raw frames to ffmpeg's stdin.
type Encoder struct {
	opts   Options
	pw     *io.PipeWriter
	errc   chan error
	frames int
	log    *logrus.Entry
}

// New validates opts. Nothing is started until Start.
func New(opts Options) (*Encoder, error) {
	if opts.OutputFile == "" {
		return nil, errors.New("no output file")
	}
	if opts.Width <= 0 || opts.Height <= 0 {
		return nil, fmt.Errorf("invalid frame size %dx%d", opts.Width, opts.Height)
	}
	// yuv420p needs even dimensions
	if opts.Width%2 != 0 || opts.Height%2 != 0 {
		return nil, fmt.Errorf("frame size %dx%d must be even", opts.Width, opts.Height)
	}
	if opts.FPS <= 0 {
		opts.FPS = 2
	}
	if opts.Codec == "" {
		opts.Codec = "h264"
	}
	if opts.Codec != "h264" && opts.Codec != "hevc" {
		return nil, fmt.Errorf("unsupported codec %q", opts.Codec)
	}
	return &Encoder{
		opts: opts,
		log:  logrus.WithField("output", opts.OutputFile),
	}, nil
}

func (e *Encoder) getArgs() (inputArgs ffmpeg.KwArgs, outputArgs ffmpeg.KwArgs) {
	inputArgs = ffmpeg.KwArgs{
		"format":    "rawvideo",
		"pix_fmt":   "rgba",
		"s":         fmt.Sprintf("%dx%d", e.opts.Width, e.opts.Height),
		"framerate": fmt.Sprint(e.opts.FPS),
	}
	outputArgs = ffmpeg.KwArgs{"pix_fmt": "yuv420p"}

	hevc := e.opts.Codec == "hevc"
	switch {
	case e.opts.HWAccel && runtime.GOOS == "linux":
		outputArgs["c:v"] = map[bool]string{false: "h264_nvenc", true: "hevc_nvenc"}[hevc]
		outputArgs["preset"] = "p2"
	case e.opts.HWAccel && runtime.GOOS == "darwin":
		outputArgs["c:v"] = map[bool]string{false: "h264_videotoolbox", true: "hevc_videotoolbox"}[hevc]
	case hevc:
		outputArgs["c:v"] = "libx265"
	default:
		outputArgs["c:v"] = "libx264"
	}
	if hevc && strings.EqualFold(filepath.Ext(e.opts.OutputFile), ".mp4") {
		outputArgs["tag:v"] = "hvc1"
	}
	return
}

// Stream builds the ffmpeg invocation reading frames from r.
func (e *Encoder) Stream(r io.Reader) *ffmpeg.Stream {
	inputArgs, outputArgs := e.getArgs()
	stream := ffmpeg.Input("pipe:", inputArgs).
		Output(e.opts.OutputFile, outputArgs).
		OverWriteOutput().
		WithInput(r)
	if e.opts.FFMPEGPath != "" {
		stream = stream.SetFfmpegPath(e.opts.FFMPEGPath)
	}
	return stream
}

// Start launches ffmpeg.
func (e *Encoder) Start() error {
	if e.pw != nil {
		return errors.New("encoder already started")
	}
	pr, pw := io.Pipe()
	e.pw = pw
	e.errc = make(chan error, 1)
	stream := e.Stream(pr)
	e.log.WithField("args", strings.Join(stream.GetArgs(), " ")).Debug("starting ffmpeg")
	go func() {
		err := stream.Run()
		if err != nil {
			pr.CloseWithError(fmt.Errorf("ffmpeg exited: %w", err))
		} else {
			pr.Close()
		}
		e.errc <- err
	}()
	return nil
}

// WriteFrame sends one frame. Its size must match the configured size.
func (e *Encoder) WriteFrame(img *image.RGBA) error {
	b := img.Bounds()
	if b.Dx() != e.opts.Width || b.Dy() != e.opts.Height {
		return fmt.Errorf("frame is %dx%d, encoder expects %dx%d", b.Dx(), b.Dy(), e.opts.Width, e.opts.Height)
	}
	if e.pw == nil {
		return errors.New("encoder not started")
	}
	rowLen := b.Dx() * 4
	if img.Stride == rowLen {
		start := img.PixOffset(b.Min.X, b.Min.Y)
		if _, err := e.pw.Write(img.Pix[start : start+rowLen*b.Dy()]); err != nil {
			return fmt.Errorf("failed to write frame %d: %w", e.frames, err)
		}
	} else {
		for y := b.Min.Y; y < b.Max.Y; y++ {
			off := img.PixOffset(b.Min.X, y)
			if _, err := e.pw.Write(img.Pix[off : off+rowLen]); err != nil {
				return fmt.Errorf("failed to write frame %d: %w", e.frames, err)
			}
		}
	}
	e.frames++
	return nil
}

// Frames reports how many frames were written.
func (e *Encoder) Frames() int { return e.frames }

// Close ends the stream and waits for ffmpeg to finish the file.
func (e *Encoder) Close() error {
	if e.pw == nil {
		return nil
	}
	e.pw.Close()
	err := <-e.errc
	e.pw = nil
	if err != nil {
		return fmt.Errorf("ffmpeg failed: %w", err)
	}
	e.log.WithField("frames", e.frames).Info("video written")
	return nil
}
