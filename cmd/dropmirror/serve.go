package main

import (
	"log/slog"

	"github.com/spf13/cobra"
	"github.com/sunvalleybronze/dropmirror/internal/server"
)

func init() {
	rootCmd.AddCommand(newServeCmd())
}

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the HTTP API and run scheduled syncs",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, closeLog, err := prepare(cmd, cmd.OutOrStdout())
			if err != nil {
				return err
			}
			defer closeLog.Close()

			srv, err := server.New(cmd.Context(), cfg)
			if err != nil {
				return err
			}

			defer slog.Info("Bye!")
			return srv.Start(cmd.Context())
		},
	}
	cmd.Flags().StringP("bind", "b", server.DefaultAddr, "address to bind the HTTP server")
	return cmd
}
