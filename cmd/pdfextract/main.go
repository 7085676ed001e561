package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	cfgpkg "github.com/local/pdfextract/internal/config"
	"github.com/local/pdfextract/internal/extract"
	logpkg "github.com/local/pdfextract/internal/logger"
	"github.com/local/pdfextract/internal/orchestrator"
	"github.com/local/pdfextract/internal/output"
	"github.com/local/pdfextract/internal/pdfservices"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var envFile string
	var cfg cfgpkg.Config

	root := &cobra.Command{
		Use:           "pdfextract",
		Short:         "Upload PDFs to Adobe PDF Services and save the extracted text, tables and figures",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// a missing default .env is fine; an explicitly requested one is not
			if err := godotenv.Load(envFile); err != nil {
				if !errors.Is(err, fs.ErrNotExist) || cmd.Flags().Changed("env-file") {
					return fmt.Errorf("load %s: %w", envFile, err)
				}
			}
			cfg = cfgpkg.FromEnv()
			return logpkg.Init(logpkg.OptionsFromConfig(cfg))
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			logpkg.Close()
		},
	}
	root.PersistentFlags().StringVar(&envFile, "env-file", ".env", "dotenv file to load before reading the environment")

	root.AddCommand(newServeCmd(&cfg), newExtractCmd(&cfg))
	return root
}

// newOrchestrator wires the production pipeline from config.
func newOrchestrator(cfg cfgpkg.Config) *orchestrator.Orchestrator {
	return orchestrator.New(orchestrator.Dependencies{
		Credentials: extract.Resolver{
			ClientIDVar:     cfg.PDFServices.ClientIDVar,
			ClientSecretVar: cfg.PDFServices.ClientSecretVar,
		},
		Invoker:   pdfservices.New(pdfservices.OptionsFromConfig(cfg.PDFServices)),
		Persister: output.Persister{},
		OutputDir: cfg.Output.Dir,
		FileName:  cfg.Output.FileName,
	})
}
