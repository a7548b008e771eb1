package cmd

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/andresmejia3/facemask/internal/client"
	"github.com/andresmejia3/facemask/internal/faceerr"
	"github.com/andresmejia3/facemask/internal/geometry"
	"github.com/andresmejia3/facemask/internal/render"
	"github.com/andresmejia3/facemask/internal/utils"
	"github.com/spf13/cobra"
)

var detectOpts Options

var detectCmd = &cobra.Command{
	Use:   "detect",
	Short: "Print the face boxes the detector reports for an image",
	RunE: func(cmd *cobra.Command, args []string) error {
		cmd.SilenceUsage = true
		return runDetect(cmd.Context(), detectOpts)
	},
}

func init() {
	detectCmd.Flags().StringVarP(&detectOpts.InputPath, "input", "i", "", "Path to input image")
	detectCmd.Flags().StringVarP(&detectOpts.ProxyURL, "proxy", "p", "http://localhost:8080", "Base URL of the detection proxy")

	detectCmd.MarkFlagRequired("input")
	rootCmd.AddCommand(detectCmd)
}

func runDetect(ctx context.Context, opts Options) error {
	if err := validateInput(opts.InputPath); err != nil {
		return err
	}
	upload, err := readUpload(opts.InputPath)
	if err != nil {
		utils.ShowError("Failed to read input image", err)
		return err
	}

	// Decode first so the pixel rectangles can be shown next to the raw boxes
	if err := client.ValidateUpload(upload); err != nil {
		utils.ShowError(faceerr.Message(err), err)
		return err
	}
	surface, _, err := render.Decode(bytes.NewReader(upload.Data))
	if err != nil {
		utils.ShowError("Failed to decode input image", err)
		return err
	}
	width, height := surface.Bounds().Dx(), surface.Bounds().Dy()

	res, err := client.New(opts.ProxyURL).DetectFaces(ctx, upload)
	if err != nil {
		utils.ShowError(faceerr.Message(err), err)
		return err
	}

	boxes := res.Boxes()
	if len(boxes) == 0 {
		fmt.Println("No faces reported.")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', 0)
	fmt.Fprintln(w, "#\tBOX\tSPACE\tSCORE\tPIXELS (x,y,w,h)")
	fmt.Fprintln(w, "-\t---\t-----\t-----\t----------------")
	for i, b := range boxes {
		space := "absolute"
		if geometry.IsNormalized(b) {
			space = "normalized"
		}
		score := "-"
		if s, ok := b.Score(); ok {
			score = fmt.Sprintf("%.3f", s)
		}
		r := render.Clamp(geometry.ToPixelRect(b, width, height), width, height)
		fmt.Fprintf(w, "%d\t[%g %g %g %g]\t%s\t%s\t%d,%d,%d,%d\n",
			i+1, b.XMin, b.YMin, b.XMax, b.YMax, space, score, r.X, r.Y, r.Width, r.Height)
	}
	w.Flush()
	fmt.Printf("\nImage %dx%d, blur radius %dpx\n", width, height, render.RadiusFor(width, height))
	return nil
}
