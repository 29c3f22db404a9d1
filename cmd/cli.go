// SPDX-License-Identifier: MIT

// Package cmd holds the cobra command tree.
package cmd

import (
	"context"

	"noiseless/internal/config"
	"noiseless/internal/log"
	"noiseless/pkg/build"

	"github.com/spf13/cobra"
)

// globalOptions are the persistent flags shared by every command.
type globalOptions struct {
	configPath string
	verbose    bool
	logLevel   string
}

// app carries the loaded configuration to the subcommands.
type app struct {
	opts globalOptions
	cfg  *config.Config
}

// Execute parses args and runs the selected command until it finishes or
// ctx is cancelled.
func Execute(ctx context.Context, args []string) error {
	root := newRootCmd()
	root.SetArgs(args)
	return root.ExecuteContext(ctx)
}

func newRootCmd() *cobra.Command {
	info := build.GetBuildInfo()
	a := &app{}

	rootCmd := &cobra.Command{
		Use:           info.Name + " [input]",
		Short:         info.Description,
		Version:       info.String(),
		SilenceErrors: true,
		SilenceUsage:  true,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd:   true,
			DisableDescriptions: true,
			DisableNoDescFlag:   true,
			HiddenDefaultCmd:    true,
		},
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.load()
		},
	}
	rootCmd.SetVersionTemplate("{{.Version}}\n")
	rootCmd.SetHelpCommand(&cobra.Command{Hidden: true})

	rootCmd.PersistentFlags().StringVarP(&a.opts.configPath, "config", "c", "",
		"Path to a YAML config file. Default is "+config.DefaultConfigFile+" if present")
	rootCmd.PersistentFlags().BoolVarP(&a.opts.verbose, "verbose", "v", false,
		"Show verbose output (forces debug logging)")
	rootCmd.PersistentFlags().StringVar(&a.opts.logLevel, "log-level", "",
		"Log level: debug, info, warn or error")

	process := newProcessCmd(a)
	rootCmd.AddCommand(process, newRecordCmd(a), newServeCmd(a), newPlayCmd(a), newDevicesCmd(a))

	// A bare input file means "process".
	rootCmd.Args = cobra.MaximumNArgs(1)
	rootCmd.Flags().AddFlagSet(process.Flags())
	rootCmd.RunE = func(cmd *cobra.Command, args []string) error {
		if len(args) == 0 {
			return cmd.Help()
		}
		return process.RunE(cmd, args)
	}
	return rootCmd
}

// load reads the config file and environment, then applies the global
// flags and configures logging.
func (a *app) load() error {
	cfg, err := config.LoadConfig(a.opts.configPath)
	if err != nil {
		return err
	}
	if a.opts.logLevel != "" {
		cfg.LogLevel = a.opts.logLevel
	}
	if a.opts.verbose {
		cfg.Debug = true
	}
	log.Configure(cfg.LogLevel, cfg.Debug)
	a.cfg = cfg
	return nil
}
