// SPDX-License-Identifier: MIT
package cmd

import (
	"context"
	"path/filepath"
	"time"

	"noiseless/internal/log"
	"noiseless/internal/pipeline"
	"noiseless/internal/playback"
	"noiseless/internal/transport"

	"github.com/spf13/cobra"
)

func newRecordCmd(a *app) *cobra.Command {
	var (
		device   int
		channels int
		duration time.Duration
		output   string
	)

	cmd := &cobra.Command{
		Use:   "record",
		Short: "Record from a microphone, denoise and write noiseless_output.<ext>",
		Long: "Record from an input device until --duration elapses or Ctrl-C is pressed,\n" +
			"then run the recording through the same pipeline as the process command.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			pc, err := a.cfg.PipelineConfig()
			if err != nil {
				return err
			}

			if err := playback.Initialize(); err != nil {
				return err
			}
			// Ctrl-C ends the recording, what was captured is still processed.
			buf, err := playback.Capture(cmd.Context(), playback.CaptureOptions{
				DeviceID:        device,
				Channels:        channels,
				FramesPerBuffer: a.cfg.Playback.FramesPerBuffer,
				MaxDuration:     duration,
			})
			playback.Terminate()
			if err != nil {
				return err
			}

			res, err := pipeline.Process(context.WithoutCancel(cmd.Context()), buf, pc, transport.NewLoggingTransport())
			if err != nil {
				return err
			}
			if output == "" {
				output = filepath.Join(a.cfg.Pipeline.OutputDir, res.File.Name)
			}
			if err := writeAtomic(output, res.File.Data); err != nil {
				return err
			}
			log.Infof("Wrote %s (%s, %d bytes)", output, res.File.MIME, len(res.File.Data))
			return nil
		},
	}
	cmd.Flags().IntVarP(&device, "device", "d", playback.DefaultDeviceID,
		"Input device ID. Use the devices command to see available devices")
	cmd.Flags().IntVar(&channels, "channels", 1, "Number of channels to record")
	cmd.Flags().DurationVar(&duration, "duration", 0, "Stop after this long, e.g. 30s. Default records until Ctrl-C")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Output file. Default is <output_dir>/noiseless_output.<ext>")
	return cmd
}
