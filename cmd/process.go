// SPDX-License-Identifier: MIT
package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"noiseless/internal/audio"
	"noiseless/internal/log"
	"noiseless/internal/pipeline"
	"noiseless/internal/transport"
	"noiseless/internal/tui"

	"github.com/google/uuid"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
)

type processOptions struct {
	output       string
	format       string
	propDecrease float64
	bitDepth     int
	downmix      string
	keepChannels bool
	noTUI        bool
}

func newProcessCmd(a *app) *cobra.Command {
	var opts processOptions

	cmd := &cobra.Command{
		Use:   "process <input.wav|input.mp3>",
		Short: "Denoise a file and write noiseless_output.<ext>",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runProcess(cmd, a, opts, args[0])
		},
	}

	cmd.Flags().StringVarP(&opts.output, "output", "o", "",
		"Output file. Default is <output_dir>/noiseless_output.<ext>")
	cmd.Flags().StringVarP(&opts.format, "format", "f", "",
		"Output format: wav or mp3")
	cmd.Flags().Float64VarP(&opts.propDecrease, "prop-decrease", "p", 0,
		"Proportion of detected noise to remove, 0 to 1")
	cmd.Flags().IntVar(&opts.bitDepth, "bit-depth", 0,
		"WAV output bit depth, 16 or 24")
	cmd.Flags().StringVar(&opts.downmix, "downmix", "",
		"How to collapse channels: first or average")
	cmd.Flags().BoolVar(&opts.keepChannels, "keep-channels", false,
		"Keep the input channel count instead of writing mono")
	cmd.Flags().BoolVar(&opts.noTUI, "no-tui", false,
		"Log progress instead of showing the progress view")
	return cmd
}

// apply copies the flags the user set over the loaded configuration.
func (o processOptions) apply(cmd *cobra.Command, a *app) {
	flags := cmd.Flags()
	if flags.Changed("format") {
		a.cfg.Pipeline.OutputFormat = o.format
	}
	if flags.Changed("prop-decrease") {
		a.cfg.Denoise.PropDecrease = o.propDecrease
	}
	if flags.Changed("bit-depth") {
		a.cfg.Pipeline.BitDepth = o.bitDepth
	}
	if flags.Changed("downmix") {
		a.cfg.Pipeline.Downmix = o.downmix
	}
	if flags.Changed("keep-channels") {
		a.cfg.Pipeline.Mono = !o.keepChannels
	}
	if o.output != "" && !flags.Changed("format") {
		if f, err := audio.ParseFormat(o.output); err == nil {
			a.cfg.Pipeline.OutputFormat = f.String()
		}
	}
}

func runProcess(cmd *cobra.Command, a *app, opts processOptions, input string) error {
	opts.apply(cmd, a)
	cfg, err := a.cfg.PipelineConfig()
	if err != nil {
		return err
	}

	declared, err := audio.ParseFormat(input)
	if err != nil {
		return err
	}
	raw, err := os.ReadFile(input)
	if err != nil {
		return fmt.Errorf("failed to read input: %w", err)
	}

	output := opts.output
	if output == "" {
		output = filepath.Join(a.cfg.Pipeline.OutputDir, cfg.OutputFormat.OutputName())
	}

	res, err := runWithProgress(cmd.Context(), raw, declared, cfg, filepath.Base(input), opts.noTUI)
	if err != nil {
		return err
	}
	if err := writeAtomic(output, res.File.Data); err != nil {
		return err
	}
	log.Infof("Wrote %s (%s, %d bytes)", output, res.File.MIME, len(res.File.Data))
	return nil
}

// runWithProgress runs the pipeline, showing the progress view when stdout
// is a terminal.
func runWithProgress(ctx context.Context, raw []byte, declared audio.Format, cfg pipeline.Config, title string, noTUI bool) (*pipeline.Result, error) {
	if noTUI || !isatty.IsTerminal(os.Stdout.Fd()) {
		return pipeline.Run(ctx, raw, declared, cfg, transport.NewLoggingTransport())
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	events := transport.NewChanTransport(16)
	type outcome struct {
		res *pipeline.Result
		err error
	}
	done := make(chan outcome, 1)
	go func() {
		defer events.Close()
		res, err := pipeline.Run(ctx, raw, declared, cfg, events)
		done <- outcome{res, err}
	}()

	// Log lines would tear the progress view.
	log.SetOutput(io.Discard)
	_, viewErr := tui.RunProgress(title, events.C, cancel)
	log.SetOutput(os.Stderr)

	go func() {
		for range events.C {
		}
	}()
	out := <-done
	if out.err != nil {
		return nil, out.err
	}
	if viewErr != nil {
		return nil, viewErr
	}
	return out.res, nil
}

// writeAtomic writes data next to path and renames it into place, so a
// failed run never leaves a partial file.
func writeAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	tmp := filepath.Join(dir, ".noiseless-"+uuid.NewString()+".tmp")
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("failed to write output: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("failed to move output into place: %w", err)
	}
	return nil
}
