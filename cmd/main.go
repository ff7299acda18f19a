package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"runtime"

	"github.com/richinsley/rosecolored/api"
	"github.com/richinsley/rosecolored/inputs"
	"github.com/richinsley/rosecolored/options"
	"github.com/richinsley/rosecolored/renderer"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

func init() {
	// GLFW and GL calls must stay on the main thread.
	runtime.LockOSThread()
}

var (
	opts    = options.Default()
	rootCmd = &cobra.Command{
		Use:   "rosecolored",
		Short: "Recolor the masked region of a photo on the GPU",
		Long: `rosecolored draws a photo with a target color applied to the region
selected by a mask. The mask is looked up from a mask service by clicking
on the photo, or given directly as a URL or path.`,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if opts.Verbose {
				logrus.SetLevel(logrus.DebugLevel)
			}
		},
	}
)

func init() {
	rootCmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "log debug output")
	rootCmd.AddCommand(viewCmd, renderCmd, sweepCmd, pickCmd, uploadsCmd, uploadCmd)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		logrus.Fatalf("%v", err)
	}
}

// newLoader returns the image fetcher, caching downloads unless --no-cache.
func newLoader() inputs.Loader {
	if opts.NoCache {
		return inputs.NewFetcher(nil, "")
	}
	dir, err := inputs.DefaultCacheDir()
	if err != nil {
		logrus.WithError(err).Warn("image cache disabled")
		dir = ""
	}
	return inputs.NewFetcher(nil, dir)
}

// newClient returns the mask service client for --api or the environment.
func newClient() (*api.Client, error) {
	base, err := opts.ServiceURL()
	if err != nil {
		return nil, err
	}
	return api.NewClient(base, &http.Client{Transport: &http.Transport{Proxy: http.ProxyFromEnvironment}})
}

// newSurface builds a surface over acquire with the shared source options.
// onImageSize may be nil.
func newSurface(acquire renderer.DeviceFactory, width, height int, lookup renderer.MaskLookup, onImageSize func(w, h int)) *renderer.Surface {
	return renderer.NewSurface(acquire, renderer.SurfaceOptions{
		Loader:      newLoader(),
		OnImageSize: onImageSize,
		MaskLookup:  lookup,
		MaskFeather: opts.MaskFeather,
		Width:       width,
		Height:      height,
		OnError: func(err error) {
			logrus.WithError(err).Warn("recoverable failure")
		},
	})
}
