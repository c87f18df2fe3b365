package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/sunvalleybronze/dropmirror/internal/server"
)

func init() {
	rootCmd.AddCommand(newSitemapCmd())
}

func newSitemapCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sitemap",
		Short: "Regenerate sitemap.xml from the bucket contents",
		RunE: func(cmd *cobra.Command, args []string) error {
			// stdout carries the result only
			cfg, closeLog, err := prepare(cmd, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer closeLog.Close()

			svc, err := server.NewServices(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer svc.Shutdown(cmd.Context())

			res, err := svc.Sitemap.Update(cmd.Context())
			if err != nil {
				return err
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "sitemap.xml: %d urls, %d bytes\n", res.URLs, res.Bytes)
			return err
		},
	}
}
