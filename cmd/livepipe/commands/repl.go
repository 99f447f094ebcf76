package commands

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/peterh/liner"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/askiada/go-livepipe/internal/compiler"
	"github.com/askiada/go-livepipe/internal/coordinator"
	"github.com/askiada/go-livepipe/internal/executor"
	"github.com/askiada/go-livepipe/internal/feed"
	"github.com/askiada/go-livepipe/internal/persist"
)

const (
	historyFile = ".livepipe_history"
	prompt      = "livepipe> "
)

// ErrStdinFeed is returned when repl is asked to read its input from stdin,
// which the prompt already reads.
var ErrStdinFeed = errors.New("repl reads the program from stdin, choose another feed")

// lineReader is the part of liner.State the prompt loop uses.
type lineReader interface {
	Prompt(prompt string) (string, error)
	AppendHistory(item string)
}

var replCmd = &cobra.Command{
	Use:   "repl",
	Short: "Edit the program line by line in the terminal",
	Long: `Edit the program line by line. Every line replaces the program and the
new outcome is printed once the input and the program are quiet.

Commands:
  :show   print the current program
  :quit   exit, printing the final program

The input cannot come from stdin: pick a file, a command, an http or a
websocket feed.

Examples:
  livepipe repl -f 'cmd:tail -f app.log'
  livepipe repl -f 'file:events.json' -p '-i json .type'`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}

		if feed.IsStdin(cfg.Feed) {
			return ErrStdinFeed
		}

		logger := newLogger(cfg)

		debounce, err := cfg.DebounceDuration()
		if err != nil {
			return err
		}

		input, err := openFeed(cfg)
		if err != nil {
			return err
		}

		store, closeStore, err := openStore(cfg, logger)
		if err != nil {
			return err
		}
		defer closeStore()

		out := &lockedWriter{w: cmd.OutOrStdout()}
		opts := []coordinator.Option{
			coordinator.WithDebounce(debounce),
			coordinator.WithProgram(cfg.Program),
			coordinator.WithLogger(logger),
			coordinator.WithPublisher(coordinator.PublisherFunc(func(o coordinator.Outcome) {
				err := renderOutcome(out, o)
				if err != nil {
					logger.Warn("unable to print outcome", "error", err)
				}
			})),
		}

		var detached *persist.Detached
		if store != nil {
			detached = persist.Detach(store, logger)
			opts = append(opts, coordinator.WithNotifier(detached))
		}

		coord := coordinator.New(compiler.New(), executor.New(), opts...)
		defer func() {
			_ = coord.Close()

			if detached != nil {
				detached.Wait()
			}
		}()

		err = coord.Attach(input)
		if err != nil {
			return err
		}

		err = repl(coord, out)

		fmt.Fprintf(out, "final program: %s\n", coord.Program())

		return err
	},
}

func repl(coord *coordinator.Coordinator, out io.Writer) error {
	ln := liner.NewLiner()
	defer ln.Close()

	ln.SetCtrlCAborts(true)

	histPath := ""
	if home, err := os.UserHomeDir(); err == nil {
		histPath = filepath.Join(home, historyFile)
	}

	if f, err := os.Open(histPath); err == nil {
		_, _ = ln.ReadHistory(f)
		_ = f.Close()
	}

	defer func() {
		if f, err := os.Create(histPath); err == nil {
			_, _ = ln.WriteHistory(f)
			_ = f.Close()
		}
	}()

	return readPrograms(ln, coord, out)
}

// readPrograms hands every line to coord as the new program until :quit or
// the end of the lines.
func readPrograms(ln lineReader, coord *coordinator.Coordinator, out io.Writer) error {
	for {
		line, err := ln.Prompt(prompt)
		if errors.Is(err, io.EOF) || errors.Is(err, liner.ErrPromptAborted) {
			return nil
		}

		if err != nil {
			return errors.Wrap(err, "unable to read line")
		}

		switch strings.TrimSpace(line) {
		case ":quit":
			return nil
		case ":show":
			fmt.Fprintln(out, coord.Program())

			continue
		}

		ln.AppendHistory(line)
		coord.OnProgramChanged(line)
	}
}

// lockedWriter serializes writes coming from the publisher and the prompt loop.
type lockedWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (l *lockedWriter) Write(p []byte) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	return l.w.Write(p)
}
