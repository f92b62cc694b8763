package main

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var (
	version = "0.1.0"

	configPath string
	debug      bool

	rootCmd = &cobra.Command{
		Use:   "leima",
		Short: "AWS Tag Compliance Exporter",
		Long: `Leima - AWS Tag Compliance Exporter

Leima audits resource tagging across your AWS accounts and regions and
exposes the results as Prometheus metrics. Point it at an account matrix
and a required-tag list; it discovers every taggable resource through the
Resource Groups Tagging API and reports who is missing what.`,
		Version: version,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			setupLogging()
		},
	}
)

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func setupLogging() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	if debug {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
}

func init() {
	rootCmd.SetVersionTemplate(`Leima {{.Version}} - AWS Tag Compliance Exporter
`)
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "config.yaml", "Path to configuration file")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "Enable debug logging")
}
