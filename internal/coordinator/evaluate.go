package coordinator

import (
	"context"
	"iter"

	"github.com/askiada/go-livepipe/internal/argv"
	"github.com/askiada/go-livepipe/internal/compiler"
)

// Compiler turns an argument vector into a transform.
type Compiler interface {
	Parse(argv []string) (*compiler.Options, error)
	Compile(opts *compiler.Options) (*compiler.Transform, error)
	Help() string
}

// Executor runs a transform over an input snapshot.
type Executor interface {
	Run(ctx context.Context, tr *compiler.Transform, input []byte) iter.Seq2[string, error]
}

// Evaluate runs program over input once. The returned Outcome has no sequence number.
func Evaluate(ctx context.Context, comp Compiler, exec Executor, program string, input []byte) Outcome {
	args, err := argv.Parse(program)
	if err != nil {
		return errorOutcome(ParseError, err)
	}

	opts, err := comp.Parse(args)
	if err != nil {
		return errorOutcome(ParseError, err)
	}

	if opts.Help {
		return helpOutcome(comp.Help(), opts)
	}

	tr, err := comp.Compile(opts)
	if err != nil {
		return errorOutcome(CompileError, err)
	}

	chunks := []string{}

	for chunk, err := range exec.Run(ctx, tr, input) {
		if err != nil {
			return errorOutcome(RuntimeError, err)
		}

		chunks = append(chunks, chunk)
	}

	return outputOutcome(chunks, opts)
}
