package main

import (
	"os"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/rotaplan/rotaplan/pkg/metrics"
	"github.com/rotaplan/rotaplan/pkg/version"
)

func init() {
	metrics.Register()
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var rootCmd = &cobra.Command{
		Use:   "rotaplan",
		Short: "rotaplan",
		Long: `A CLI tool to compile residency scheduling rules into boolean
constraints and solve them.`,
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().String("config", "", "optional configuration file (yaml, json or toml)")
	rootCmd.PersistentFlags().Bool("debug", false, "enable debug logging")
	rootCmd.PersistentFlags().String("log-format", "text", "log format. One of: [text, json]")

	rootCmd.AddCommand(newSolveCmd())
	rootCmd.AddCommand(newCompileCmd())
	rootCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the rotaplan version",
		Run: func(cmd *cobra.Command, args []string) {
			cmd.Print(version.String())
		},
	})

	return rootCmd
}

func newLogger(cmd *cobra.Command, s *settings) *log.Logger {
	logger := log.New()
	logger.SetOutput(cmd.ErrOrStderr())
	if s.Debug {
		logger.SetLevel(log.DebugLevel)
	}
	if s.LogFormat == "json" {
		logger.SetFormatter(&log.JSONFormatter{})
	}
	return logger
}
