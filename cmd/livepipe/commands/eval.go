package commands

import (
	"sync"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/askiada/go-livepipe/internal/compiler"
	"github.com/askiada/go-livepipe/internal/coordinator"
	"github.com/askiada/go-livepipe/internal/executor"
	"github.com/askiada/go-livepipe/internal/feed"
)

var evalCmd = &cobra.Command{
	Use:   "eval [program...]",
	Short: "Evaluate a program once over the whole input",
	Long: `Read the feed to its end, evaluate the program once and print the result.
The program is given as arguments, or with --program when there are none.

Examples:
  echo '{"a":1}' | livepipe eval -- -i json .a
  livepipe eval -f file:users.csv -- -i csv -o json '.name'`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}

		program := cfg.Program
		if len(args) > 0 {
			program = quoteArgs(args)
		}

		input, err := openFeed(cfg)
		if err != nil {
			return err
		}

		data, err := readAll(input)
		if err != nil {
			return err
		}

		out := coordinator.Evaluate(cmd.Context(), compiler.New(), executor.New(), program, data)

		if out.Kind == coordinator.KindError {
			return out.Err
		}

		return renderOutcome(cmd.OutOrStdout(), out)
	},
}

// readAll collects every chunk of f until it ends.
func readAll(f feed.Feed) ([]byte, error) {
	var (
		mu   sync.Mutex
		data []byte
	)

	closed := make(chan error, 1)

	err := f.Start(func(chunk []byte) {
		mu.Lock()
		defer mu.Unlock()

		data = append(data, chunk...)
	}, func(err error) {
		closed <- err
	})
	if err != nil {
		return nil, errors.Wrap(err, "unable to start feed")
	}

	err = <-closed

	stopErr := f.Stop()
	if err != nil {
		return nil, errors.Wrap(err, "feed failed")
	}

	if stopErr != nil {
		return nil, stopErr
	}

	mu.Lock()
	defer mu.Unlock()

	return data, nil
}
