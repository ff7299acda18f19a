package main

import (
	"fmt"
	"os"
	"path/filepath"
	"text/tabwriter"

	"github.com/richinsley/rosecolored/picking"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var pickArgs struct {
	x, y                    float64
	boxWidth, boxHeight     float64
	imageWidth, imageHeight int
	lookup                  bool
}

var pickCmd = &cobra.Command{
	Use:   "pick",
	Short: "Map a point in a display box to photo texture coordinates",
	Long: `pick converts a point inside a display box of the given size into the
photo's texture coordinates, the way a click in the viewer is converted.
With --lookup it also asks the mask service for the mask at that point.
If --image-width/--image-height are omitted the photo is loaded to find its
natural size.`,
	RunE: runPick,
}

var uploadsCmd = &cobra.Command{
	Use:   "uploads",
	Short: "List the photos uploaded to the mask service",
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newClient()
		if err != nil {
			return err
		}
		list, err := client.ListUploads(cmd.Context())
		if err != nil {
			return err
		}
		tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "NAME\tURL")
		for _, u := range list {
			fmt.Fprintf(tw, "%s\t%s\n", u.Name, u.URL)
		}
		return tw.Flush()
	},
}

var uploadAt picking.Point

var uploadCmd = &cobra.Command{
	Use:   "upload FILE",
	Short: "Upload a photo to the mask service",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newClient()
		if err != nil {
			return err
		}
		f, err := os.Open(args[0])
		if err != nil {
			return err
		}
		defer f.Close()
		if err := client.Upload(cmd.Context(), filepath.Base(args[0]), f, uploadAt); err != nil {
			return err
		}
		logrus.WithField("file", args[0]).Info("upload complete")
		return nil
	},
}

func init() {
	fs := pickCmd.Flags()
	fs.Float64Var(&pickArgs.x, "x", 0, "x of the point, from the box's left edge")
	fs.Float64Var(&pickArgs.y, "y", 0, "y of the point, from the box's top edge")
	fs.Float64Var(&pickArgs.boxWidth, "box-width", 600, "width of the display box")
	fs.Float64Var(&pickArgs.boxHeight, "box-height", 400, "height of the display box")
	fs.IntVar(&pickArgs.imageWidth, "image-width", 0, "natural width of the photo")
	fs.IntVar(&pickArgs.imageHeight, "image-height", 0, "natural height of the photo")
	fs.BoolVar(&pickArgs.lookup, "lookup", false, "look up the mask at the point")
	fs.StringVarP(&opts.Photo, "photo", "p", "", "photo URL or path")
	opts.BindService(fs)

	uploadCmd.Flags().Float64Var(&uploadAt.X, "x", 0, "x of the point of interest")
	uploadCmd.Flags().Float64Var(&uploadAt.Y, "y", 0, "y of the point of interest")
	opts.BindService(uploadCmd.Flags())
	opts.BindService(uploadsCmd.Flags())
}

func runPick(cmd *cobra.Command, args []string) error {
	iw, ih := pickArgs.imageWidth, pickArgs.imageHeight
	if (iw == 0 || ih == 0) && opts.Photo != "" {
		img, err := newLoader().Load(cmd.Context(), opts.Photo)
		if err != nil {
			return err
		}
		iw, ih = img.Bounds().Dx(), img.Bounds().Dy()
	}
	box := picking.Box{Width: pickArgs.boxWidth, Height: pickArgs.boxHeight}
	uv, err := picking.Map(picking.Point{X: pickArgs.x, Y: pickArgs.y}, box, iw, ih)
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), uv)
	if !uv.InRange() {
		logrus.WithField("uv", uv.String()).Warn("point is outside the photo")
	}
	if !pickArgs.lookup {
		return nil
	}
	if opts.Photo == "" {
		return fmt.Errorf("--lookup needs --photo")
	}
	client, err := newClient()
	if err != nil {
		return err
	}
	mask, err := client.LookupMask(cmd.Context(), opts.Photo, uv.Clamp(), opts.WantChild)
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), mask)
	return nil
}
