package main

import (
	"fmt"

	"github.com/spf13/cobra"

	cfgpkg "github.com/local/pdfextract/internal/config"
	"github.com/local/pdfextract/internal/orchestrator"
)

func newExtractCmd(cfg *cfgpkg.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "extract <file.pdf>",
		Short: "Run one extraction without the web form",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			orch := newOrchestrator(*cfg)
			_, err := orch.Run(cmd.Context(), args[0])
			fmt.Fprintln(cmd.OutOrStdout(), orchestrator.Message(err, orch.OutputDir()))
			return err
		},
	}
}
