// SPDX-License-Identifier: MIT
package cmd

import (
	"fmt"
	"os"

	"noiseless/internal/audio"
	"noiseless/internal/codec"
	"noiseless/internal/log"
	"noiseless/internal/pipeline"
	"noiseless/internal/playback"
	"noiseless/internal/transport"
	"noiseless/internal/tui"

	"github.com/spf13/cobra"
)

func newPlayCmd(a *app) *cobra.Command {
	var (
		device    int
		processed bool
	)

	cmd := &cobra.Command{
		Use:   "play <file>",
		Short: "Play a WAV or MP3 file, optionally after denoising it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Flags().Changed("device") {
				a.cfg.Playback.Device = device
			}
			pc, err := a.cfg.PipelineConfig()
			if err != nil {
				return err
			}

			declared, err := audio.ParseFormat(args[0])
			if err != nil {
				return err
			}
			raw, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("failed to read input: %w", err)
			}

			if processed {
				// Play exactly what would be written.
				res, err := pipeline.Run(cmd.Context(), raw, declared, pc, transport.NewLoggingTransport())
				if err != nil {
					return err
				}
				raw, declared = res.File.Data, res.File.Format
			}
			buf, err := codec.Decode(raw, declared, pc.TargetSampleRate)
			if err != nil {
				return err
			}

			if err := playback.Initialize(); err != nil {
				return err
			}
			defer func() {
				if err := playback.Terminate(); err != nil {
					log.Warnf("%v", err)
				}
			}()
			return playback.Play(cmd.Context(), buf, playback.Options{
				DeviceID:        a.cfg.Playback.Device,
				FramesPerBuffer: a.cfg.Playback.FramesPerBuffer,
			})
		},
	}
	cmd.Flags().IntVarP(&device, "device", "d", playback.DefaultDeviceID,
		"Output device ID. Use the devices command to see available devices")
	cmd.Flags().BoolVarP(&processed, "processed", "P", false,
		"Denoise before playing")
	return cmd
}

func newDevicesCmd(a *app) *cobra.Command {
	var pick bool

	cmd := &cobra.Command{
		Use:   "devices",
		Short: "List available audio devices",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := playback.Initialize(); err != nil {
				return err
			}
			defer playback.Terminate()

			if !pick {
				return playback.ListDevices(cmd.OutOrStdout())
			}
			id, err := tui.PickDevice()
			if err != nil {
				return err
			}
			if id != playback.DefaultDeviceID {
				fmt.Fprintf(cmd.OutOrStdout(), "play --device %d\n", id)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&pick, "pick", false, "Choose a device interactively")
	return cmd
}
