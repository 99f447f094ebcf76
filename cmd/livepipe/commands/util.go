package commands

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/pkg/errors"

	"github.com/askiada/go-livepipe/internal/config"
	"github.com/askiada/go-livepipe/internal/coordinator"
	"github.com/askiada/go-livepipe/internal/feed"
	"github.com/askiada/go-livepipe/internal/persist"
)

// openStore builds the store selected by the configuration. The returned
// function releases it.
func openStore(cfg *config.Config, logger *slog.Logger) (persist.Store, func() error, error) {
	noop := func() error { return nil }

	switch cfg.Persist.Kind {
	case config.PersistNone:
		return nil, noop, nil
	case "", config.PersistMemory:
		return persist.NewMemory(), noop, nil
	case config.PersistHTTP:
		return persist.NewHTTP(cfg.Persist.URL, nil), noop, nil
	case config.PersistBadger:
		store, err := persist.NewBadger(persist.BadgerOptions{
			Dir:     cfg.Persist.Dir,
			Session: cfg.Persist.Session,
			Logger:  logger,
		})
		if err != nil {
			return nil, nil, err
		}

		logger.Info("programs saved in badger", "dir", cfg.Persist.Dir, "session", store.Session())

		return store, store.Close, nil
	}

	return nil, nil, errors.Wrapf(config.ErrInvalid, "unknown persist kind %q", cfg.Persist.Kind)
}

func openFeed(cfg *config.Config) (feed.Feed, error) {
	f, err := feed.Parse(cfg.Feed, os.Stdin)
	if err != nil {
		return nil, errors.Wrap(err, "unable to open feed")
	}

	return f, nil
}

// renderOutcome writes out the way a terminal shows it.
func renderOutcome(w io.Writer, out coordinator.Outcome) error {
	var err error

	switch out.Kind {
	case coordinator.KindOutput:
		_, err = io.WriteString(w, out.Text())
	case coordinator.KindHelp:
		_, err = io.WriteString(w, out.Help)
	case coordinator.KindError:
		_, err = fmt.Fprintf(w, "%s error: %v\n", out.Err.Kind, out.Err.Err)
	case coordinator.KindNone:
	}

	return errors.Wrap(err, "unable to write outcome")
}

// quoteArgs turns tokens back into program text.
func quoteArgs(args []string) string {
	quoted := make([]string, len(args))
	for i, arg := range args {
		quoted[i] = "'" + strings.ReplaceAll(arg, "'", `'"'"'`) + "'"
	}

	return strings.Join(quoted, " ")
}
