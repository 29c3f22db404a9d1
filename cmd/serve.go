// SPDX-License-Identifier: MIT
package cmd

import (
	"noiseless/internal/server"

	"github.com/spf13/cobra"
)

func newServeCmd(a *app) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve POST /denoise, GET /ws progress and GET /healthz over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Flags().Changed("addr") {
				a.cfg.Server.Addr = addr
			}
			pc, err := a.cfg.PipelineConfig()
			if err != nil {
				return err
			}

			s := server.New(server.Options{
				Addr:           a.cfg.Server.Addr,
				MaxUploadBytes: a.cfg.Server.MaxUploadBytes,
				Pipeline:       pc,
			})
			defer s.Close()
			return s.ListenAndServe(cmd.Context())
		},
	}
	cmd.Flags().StringVarP(&addr, "addr", "a", "", "Listen address, e.g. :8080")
	return cmd
}
