package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/andresmejia3/facemask/internal/client"
	"github.com/andresmejia3/facemask/internal/faceerr"
	"github.com/andresmejia3/facemask/internal/render"
	"github.com/andresmejia3/facemask/internal/session"
	"github.com/andresmejia3/facemask/internal/utils"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
)

// Options holds shared configuration for the mask and detect commands
type Options struct {
	InputPath          string
	OutputPath         string
	ProxyURL           string
	DetectionThreshold float64
}

var maskOpts Options

var maskCmd = &cobra.Command{
	Use:   "mask",
	Short: "Detect faces in an image through the proxy and blur them",
	RunE: func(cmd *cobra.Command, args []string) error {
		cmd.SilenceUsage = true
		return runMask(cmd.Context(), maskOpts)
	},
}

func init() {
	maskCmd.Flags().StringVarP(&maskOpts.InputPath, "input", "i", "", "Path to input image (jpg, png, webp, gif)")
	maskCmd.Flags().StringVarP(&maskOpts.OutputPath, "output", "o", "masked.png", "Path to output image (.png, .jpg or .gif; no extension keeps the input format)")
	maskCmd.Flags().StringVarP(&maskOpts.ProxyURL, "proxy", "p", "http://localhost:8080", "Base URL of the detection proxy")
	maskCmd.Flags().Float64VarP(&maskOpts.DetectionThreshold, "detection-threshold", "D", 0, "Skip faces whose reported confidence is below this (0 keeps all)")

	maskCmd.MarkFlagRequired("input")
	rootCmd.AddCommand(maskCmd)
}

func runMask(ctx context.Context, opts Options) error {
	if err := validateMaskFlags(&opts); err != nil {
		return err
	}

	upload, err := readUpload(opts.InputPath)
	if err != nil {
		utils.ShowError("Failed to read input image", err)
		return err
	}

	sess := session.New()
	if err := sess.Load(upload); err != nil {
		utils.ShowError(faceerr.Message(err), err)
		return err
	}

	bar := progressbar.NewOptions(-1,
		progressbar.OptionSetDescription("Detecting faces"),
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionShowCount(),
	)

	res, err := sess.Mask(ctx, client.New(opts.ProxyURL), session.MaskOptions{
		MinConfidence: opts.DetectionThreshold,
		OnRegion: func(done, total int) {
			if done == 1 {
				bar.ChangeMax(total)
				bar.Describe("Blurring")
			}
			bar.Set(done)
		},
	})
	bar.Finish()
	if err != nil {
		utils.ShowError(faceerr.Message(err), err)
		return err
	}

	if err := writeOutput(opts.OutputPath, sess); err != nil {
		return err
	}

	fmt.Fprintf(os.Stderr, "\n✅ Blurred %d face(s) with radius %dpx -> %s\n", len(res.Rects), res.Radius, opts.OutputPath)
	return nil
}

// writeOutput encodes the masked surface. Without an extension on path the
// input's own format is kept. A failed write leaves no file behind.
func writeOutput(path string, sess *session.Session) (err error) {
	format := render.FormatForPath(path)
	if filepath.Ext(path) == "" {
		format = sess.Format()
	}

	out, err := os.Create(path)
	if err != nil {
		utils.ShowError("Failed to create output file", err)
		return err
	}
	defer func() {
		if cerr := out.Close(); cerr != nil && err == nil {
			err = cerr
			utils.ShowError("Failed to close output file", err)
		}
		if err != nil {
			os.Remove(path)
		}
	}()

	if err := render.Encode(out, sess.Snapshot(), format); err != nil {
		utils.ShowError("Failed to encode output image", err)
		return err
	}
	return nil
}

// readUpload loads a file the way a browser would present it: name, sniffed type, bytes.
func readUpload(path string) (client.Upload, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return client.Upload{}, err
	}
	return client.Upload{
		Name:        filepath.Base(path),
		ContentType: utils.SniffContentType("", data),
		Data:        data,
	}, nil
}

func validateInput(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			utils.ShowError("Input file does not exist", err)
			return err
		}
		utils.ShowError("Unable to access input file", err)
		return err
	}
	if info.IsDir() {
		err := fmt.Errorf("is a directory")
		utils.ShowError("Input path is a directory, expected an image file", err)
		return err
	}
	return nil
}

func validateMaskFlags(opts *Options) error {
	if err := validateInput(opts.InputPath); err != nil {
		return err
	}

	// Safety Check: never overwrite the original
	inAbs, _ := filepath.Abs(opts.InputPath)
	outAbs, _ := filepath.Abs(opts.OutputPath)
	if inAbs == outAbs {
		err := fmt.Errorf("input and output paths must be different")
		utils.ShowError("Configuration Error", err)
		return err
	}

	if opts.DetectionThreshold < 0 || opts.DetectionThreshold > 1.0 {
		err := fmt.Errorf("must be between 0.0 and 1.0, got %f", opts.DetectionThreshold)
		utils.ShowError("Invalid detection threshold", err)
		return err
	}

	if opts.ProxyURL == "" {
		err := fmt.Errorf("proxy URL must not be empty")
		utils.ShowError("Configuration Error", err)
		return err
	}

	return nil
}
