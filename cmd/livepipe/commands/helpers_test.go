package commands

import (
	"io"
	"log/slog"

	"github.com/spf13/pflag"

	"github.com/askiada/go-livepipe/internal/compiler"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func compilerHelp() string {
	return compiler.Help()
}

// resetFlags puts the flag variables and their Changed marks back to their defaults.
func resetFlags() {
	configPath, feedSpec, programText, logLevel, listenAddr = "", "", "", "", ""
	debounceFlag, report = 0, false

	unmark := func(f *pflag.Flag) { f.Changed = false }
	rootCmd.PersistentFlags().VisitAll(unmark)
	evalCmd.Flags().VisitAll(unmark)
	serveCmd.Flags().VisitAll(unmark)
}

// scriptedLines answers prompts from a fixed list, then io.EOF or err.
type scriptedLines struct {
	lines   []string
	err     error
	history []string
}

func (s *scriptedLines) Prompt(string) (string, error) {
	if len(s.lines) == 0 {
		if s.err != nil {
			return "", s.err
		}

		return "", io.EOF
	}

	line := s.lines[0]
	s.lines = s.lines[1:]

	return line, nil
}

func (s *scriptedLines) AppendHistory(item string) {
	s.history = append(s.history, item)
}
