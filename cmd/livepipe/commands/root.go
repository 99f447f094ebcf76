// Package commands holds the livepipe cobra commands.
package commands

import (
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/askiada/go-livepipe/internal/config"
)

var (
	configPath   string
	feedSpec     string
	programText  string
	debounceFlag time.Duration
	logLevel     string
)

var rootCmd = &cobra.Command{
	Use:   "livepipe",
	Short: "Live jq pipelines over streaming input",
	Long: `livepipe evaluates a pipeline program over an input that keeps growing,
re-running it shortly after every edit or new input.

A program is a list of jq steps with optional flags, one line per step or
all on one line. Lines starting with # are comments.

  -i json 'select(.level == "error")' '.msg'

Feeds:
  stdin               standard input (default)
  file:PATH           a file
  cmd:COMMAND LINE    the output of a command
  http(s)://...       the body of a GET request
  ws(s)://...         the messages of a websocket`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "configuration file")
	rootCmd.PersistentFlags().StringVarP(&feedSpec, "feed", "f", "", "input feed (stdin, file:PATH, cmd:..., http(s)://, ws(s)://)")
	rootCmd.PersistentFlags().StringVarP(&programText, "program", "p", "", "initial program")
	rootCmd.PersistentFlags().DurationVar(&debounceFlag, "debounce", 0, "quiet time before an evaluation")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "debug, info, warn or error")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(replCmd)
	rootCmd.AddCommand(evalCmd)
}

// loadConfig reads the configuration file then applies the flags set on cmd.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}

	flags := cmd.Flags()

	if flags.Changed("feed") {
		cfg.Feed = feedSpec
	}

	if flags.Changed("program") {
		cfg.Program = programText
	}

	if flags.Changed("debounce") {
		cfg.Debounce = debounceFlag.String()
	}

	if flags.Changed("log-level") {
		cfg.LogLevel = logLevel
	}

	if flags.Changed("listen") {
		cfg.Listen = listenAddr
	}

	if flags.Changed("report") {
		cfg.Report = report
	}

	err = cfg.Validate()
	if err != nil {
		return nil, err
	}

	return cfg, nil
}

func newLogger(cfg *config.Config) *slog.Logger {
	level, err := cfg.Level()
	if err != nil {
		level = slog.LevelInfo
	}

	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}
