package main

import (
	"fmt"
	"io"

	"github.com/goccy/go-json"
	"github.com/spf13/cobra"
	"github.com/sunvalleybronze/dropmirror/internal/mirror"
	"github.com/sunvalleybronze/dropmirror/internal/server"
	"gopkg.in/yaml.v3"
)

func init() {
	rootCmd.AddCommand(newSyncCmd())
}

func newSyncCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Run one sync pass and print its report",
		RunE: func(cmd *cobra.Command, args []string) error {
			output, _ := cmd.Flags().GetString("output")
			if err := checkOutput(output); err != nil {
				return err
			}

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

			report, err := svc.Engine.Run(cmd.Context())
			if err != nil {
				return err
			}
			return writeReport(cmd.OutOrStdout(), report, output)
		},
	}
	cmd.Flags().StringP("output", "o", "text", "report format: text, yaml or json")
	return cmd
}

func checkOutput(format string) error {
	switch format {
	case "text", "yaml", "json":
		return nil
	default:
		return fmt.Errorf("unknown output format %q", format)
	}
}

func writeReport(w io.Writer, report *mirror.Report, format string) error {
	switch format {
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(report); err != nil {
			return err
		}
		return enc.Close()
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	default:
		_, err := fmt.Fprintln(w, report.Summary())
		for _, f := range report.Failures {
			fmt.Fprintf(w, "  %s %s: %s\n", f.Op, f.Path, f.Cause)
		}
		for _, a := range report.Anomalies {
			fmt.Fprintf(w, "  anomaly: %s\n", a)
		}
		return err
	}
}
