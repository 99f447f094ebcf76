package commands

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/askiada/go-livepipe/internal/compiler"
	"github.com/askiada/go-livepipe/internal/server"
)

var (
	listenAddr string
	report     bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the input and evaluation sessions over HTTP",
	Long: `Serve the input feed and evaluation sessions over HTTP.

Endpoints:
  GET  /stdin          the input received so far, then live
  GET  /update-input   the last saved program
  POST /update-input   save a program
  GET  /session        websocket evaluation session
  GET  /pipeline.dot   graph of the last run (with --report)

Examples:
  tail -f app.log | livepipe serve
  livepipe serve -f 'cmd:kubectl logs -f deploy/api' --listen :8080`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}

		logger := newLogger(cfg)

		debounce, err := cfg.DebounceDuration()
		if err != nil {
			return err
		}

		source, err := openFeed(cfg)
		if err != nil {
			return err
		}

		store, closeStore, err := openStore(cfg, logger)
		if err != nil {
			return err
		}
		defer closeStore()

		srv := server.New(server.Options{
			Addr:     cfg.Listen,
			Debounce: debounce,
			Program:  cfg.Program,
			Report:   cfg.Report,
		}, source, store, compiler.New(), logger)

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		return srv.Run(ctx)
	},
}

func init() {
	serveCmd.Flags().StringVarP(&listenAddr, "listen", "l", "", "address to listen on")
	serveCmd.Flags().BoolVar(&report, "report", false, "keep the graph of the last run")
}
