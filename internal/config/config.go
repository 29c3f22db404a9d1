// SPDX-License-Identifier: MIT
package config

import (
	"noiseless/internal/denoise"
	"noiseless/internal/effects"
	"noiseless/internal/pipeline"
	"noiseless/internal/playback"
	"noiseless/internal/server"
)

// Defaults for every setting. A file or the environment only needs to name
// what differs.
const (
	DefaultConfigFile = "noiseless.yaml"
	DefaultLogLevel   = "info"

	DefaultTargetSampleRate = pipeline.DefaultTargetSampleRate
	DefaultBitDepth         = pipeline.DefaultBitDepth
	DefaultOutputFormat     = "mp3"
	DefaultDownmix          = "first"
	DefaultOutputDir        = "."

	DefaultWindow = "hann"

	DefaultServerAddr      = ":8080"
	DefaultMaxUploadBytes  = server.DefaultMaxUploadBytes
	DefaultPlaybackDevice  = playback.DefaultDeviceID
	DefaultFramesPerBuffer = playback.DefaultFramesPerBuffer

	// Limits
	MinSampleRate = 8000
	MaxSampleRate = 192000
)

// NewConfig creates a new Config instance with default values.
// This is the base before a file, the environment and flags are applied.
func NewConfig() *Config {
	d := denoise.DefaultParams()
	return &Config{
		LogLevel: DefaultLogLevel,
		Pipeline: PipelineConfig{
			TargetSampleRate: DefaultTargetSampleRate,
			BitDepth:         DefaultBitDepth,
			OutputFormat:     DefaultOutputFormat,
			OutputDir:        DefaultOutputDir,
			Downmix:          DefaultDownmix,
			Mono:             true,
			Report:           true,
		},
		Denoise: DenoiseConfig{
			PropDecrease:     d.PropDecrease,
			FFTSize:          d.FFTSize,
			HopSize:          d.HopSize,
			Window:           DefaultWindow,
			NStdThresh:       d.NStdThresh,
			FreqMaskSmoothHz: d.FreqMaskSmoothHz,
			TimeMaskSmoothMs: d.TimeMaskSmoothMs,
		},
		Effects: effects.DefaultParams(),
		Server: ServerConfig{
			Addr:           DefaultServerAddr,
			MaxUploadBytes: DefaultMaxUploadBytes,
		},
		Playback: PlaybackConfig{
			Device:          DefaultPlaybackDevice,
			FramesPerBuffer: DefaultFramesPerBuffer,
		},
	}
}
