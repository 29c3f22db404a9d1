// SPDX-License-Identifier: MIT
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"noiseless/internal/analysis"
	"noiseless/internal/audio"
	"noiseless/internal/denoise"
	"noiseless/internal/effects"
	"noiseless/internal/log"
	"noiseless/internal/pipeline"

	"gopkg.in/yaml.v3"
)

// Config represents the main application configuration structure, loaded from YAML.
type Config struct {
	Debug    bool           `yaml:"debug"`     // Force DEBUG logging.
	LogLevel string         `yaml:"log_level"` // debug, info, warn or error.
	Pipeline PipelineConfig `yaml:"pipeline"`
	Denoise  DenoiseConfig  `yaml:"denoise"`
	Effects  effects.Params `yaml:"effects"`
	Server   ServerConfig   `yaml:"server"`
	Playback PlaybackConfig `yaml:"playback"`
}

// PipelineConfig holds the decode and encode settings.
type PipelineConfig struct {
	TargetSampleRate int    `yaml:"target_sample_rate"` // Every input is resampled to this rate.
	BitDepth         int    `yaml:"bit_depth"`          // WAV output bit depth, 16 or 24.
	OutputFormat     string `yaml:"output_format"`      // wav or mp3.
	OutputDir        string `yaml:"output_dir"`         // Where the process command writes.
	Downmix          string `yaml:"downmix"`            // first or average.
	Mono             bool   `yaml:"mono"`               // Collapse to one channel before encoding.
	Report           bool   `yaml:"report"`             // Log input and output levels.
}

// DenoiseConfig mirrors denoise.Params with a textual window name.
type DenoiseConfig struct {
	PropDecrease     float64 `yaml:"prop_decrease"`
	FFTSize          int     `yaml:"fft_size"`
	HopSize          int     `yaml:"hop_size"`
	Window           string  `yaml:"window"`
	NStdThresh       float64 `yaml:"n_std_thresh"`
	FreqMaskSmoothHz float64 `yaml:"freq_mask_smooth_hz"`
	TimeMaskSmoothMs float64 `yaml:"time_mask_smooth_ms"`
}

// ServerConfig holds the HTTP boundary settings.
type ServerConfig struct {
	Addr           string `yaml:"addr"`
	MaxUploadBytes int64  `yaml:"max_upload_bytes"`
}

// PlaybackConfig holds the PortAudio output settings.
type PlaybackConfig struct {
	Device          int `yaml:"device"` // -1 for the default output.
	FramesPerBuffer int `yaml:"frames_per_buffer"`
}

// LoadConfig loads configuration from a YAML file specified by path. If path
// is empty it looks for noiseless.yaml in the working directory and falls
// back to the built-in defaults. Environment overrides are applied after the
// file, then the result is validated.
func LoadConfig(path string) (*Config, error) {
	cfg := NewConfig()

	if path == "" {
		if _, err := os.Stat(DefaultConfigFile); err == nil {
			path = DefaultConfigFile
		}
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
		log.Debugf("configuration: loaded %s", path)
	}

	cfg.applyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// Validate checks every section. It builds the pipeline configuration so
// the same checks guard the CLI, the server and the file.
func (c *Config) Validate() error {
	if _, ok := log.ParseLevel(c.LogLevel); !ok && c.LogLevel != "" {
		return fmt.Errorf("log_level %q is not one of debug, info, warn, error", c.LogLevel)
	}
	if r := c.Pipeline.TargetSampleRate; r < MinSampleRate || r > MaxSampleRate {
		return fmt.Errorf("pipeline.target_sample_rate %d out of range [%d, %d]", r, MinSampleRate, MaxSampleRate)
	}
	if c.Server.MaxUploadBytes <= 0 {
		return errors.New("server.max_upload_bytes must be positive")
	}
	if c.Playback.FramesPerBuffer <= 0 {
		return errors.New("playback.frames_per_buffer must be positive")
	}
	if _, err := c.PipelineConfig(); err != nil {
		return err
	}
	return nil
}

// PipelineConfig converts the file settings into a validated pipeline.Config.
func (c *Config) PipelineConfig() (pipeline.Config, error) {
	format, err := audio.ParseFormat(c.Pipeline.OutputFormat)
	if err != nil {
		return pipeline.Config{}, fmt.Errorf("pipeline.output_format: %w", err)
	}
	downmix, err := audio.ParseDownmix(c.Pipeline.Downmix)
	if err != nil {
		return pipeline.Config{}, fmt.Errorf("pipeline.downmix: %w", err)
	}
	window, err := analysis.ParseWindowFunc(c.Denoise.Window)
	if err != nil {
		return pipeline.Config{}, fmt.Errorf("denoise.window: %w", err)
	}

	pc := pipeline.Config{
		TargetSampleRate: c.Pipeline.TargetSampleRate,
		BitDepth:         c.Pipeline.BitDepth,
		OutputFormat:     format,
		Downmix:          downmix,
		Mono:             c.Pipeline.Mono,
		Report:           c.Pipeline.Report,
		Denoise: denoise.Params{
			PropDecrease:     c.Denoise.PropDecrease,
			FFTSize:          c.Denoise.FFTSize,
			HopSize:          c.Denoise.HopSize,
			Window:           window,
			NStdThresh:       c.Denoise.NStdThresh,
			FreqMaskSmoothHz: c.Denoise.FreqMaskSmoothHz,
			TimeMaskSmoothMs: c.Denoise.TimeMaskSmoothMs,
		},
		Effects: c.Effects,
	}
	if err := pc.Validate(); err != nil {
		return pipeline.Config{}, err
	}
	if _, err := denoise.NewSTFT(pc.Denoise.FFTSize, pc.Denoise.HopSize, window); err != nil {
		return pipeline.Config{}, fmt.Errorf("denoise: %w", err)
	}
	return pc, nil
}

// applyEnvOverrides reads NOISELESS_* variables. Unparseable values are
// reported and ignored.
func (c *Config) applyEnvOverrides() {
	// NOISELESS_DEBUG
	if val, ok := os.LookupEnv("NOISELESS_DEBUG"); ok {
		if bVal, err := strconv.ParseBool(val); err == nil {
			c.Debug = bVal
			log.Debugf("configuration: Overriding debug from env: %v", bVal)
		} else {
			log.Warnf("configuration: ignoring NOISELESS_DEBUG=%q: %v", val, err)
		}
	}

	// NOISELESS_LOG_LEVEL
	if val, ok := os.LookupEnv("NOISELESS_LOG_LEVEL"); ok {
		c.LogLevel = val
		log.Debugf("configuration: Overriding log_level from env: %s", val)
	}

	// NOISELESS_PROP_DECREASE
	if val, ok := os.LookupEnv("NOISELESS_PROP_DECREASE"); ok {
		if fVal, err := strconv.ParseFloat(val, 64); err == nil {
			c.Denoise.PropDecrease = fVal
			log.Debugf("configuration: Overriding denoise.prop_decrease from env: %g", fVal)
		} else {
			log.Warnf("configuration: ignoring NOISELESS_PROP_DECREASE=%q: %v", val, err)
		}
	}

	// NOISELESS_OUTPUT_FORMAT
	if val, ok := os.LookupEnv("NOISELESS_OUTPUT_FORMAT"); ok {
		c.Pipeline.OutputFormat = val
		log.Debugf("configuration: Overriding pipeline.output_format from env: %s", val)
	}

	// NOISELESS_SERVER_ADDR
	if val, ok := os.LookupEnv("NOISELESS_SERVER_ADDR"); ok {
		c.Server.Addr = val
		log.Debugf("configuration: Overriding server.addr from env: %s", val)
	}
}
