package coordinator

import (
	"strings"

	"github.com/askiada/go-livepipe/internal/compiler"
)

// Kind tags an Outcome.
type Kind int

const (
	KindNone Kind = iota
	KindHelp
	KindOutput
	KindError
)

func (k Kind) String() string {
	switch k {
	case KindHelp:
		return "help"
	case KindOutput:
		return "output"
	case KindError:
		return "error"
	default:
		return "none"
	}
}

// ErrorKind says which stage of an evaluation failed.
type ErrorKind string

const (
	// ParseError is a malformed program: bad quoting or invalid options.
	ParseError ErrorKind = "parse"
	// CompileError is a well formed program with an invalid step.
	CompileError ErrorKind = "compile"
	// RuntimeError is a failure while transforming the input.
	RuntimeError ErrorKind = "runtime"
)

// EvalError is the error of a failed evaluation.
type EvalError struct {
	Kind ErrorKind
	Err  error
}

func (e *EvalError) Error() string {
	return string(e.Kind) + " error: " + e.Err.Error()
}

func (e *EvalError) Unwrap() error {
	return e.Err
}

// Outcome is the result of one evaluation. Exactly one of Help, Chunks or Err
// is meaningful, depending on Kind.
type Outcome struct {
	Seq     uint64
	Kind    Kind
	Help    string
	Chunks  []string
	Options *compiler.Options
	Err     *EvalError
}

// Text joins the output chunks.
func (o Outcome) Text() string {
	return strings.Join(o.Chunks, "")
}

// OutputType is the rendering hint of an output, raw when unknown.
func (o Outcome) OutputType() compiler.Format {
	if o.Options == nil || o.Options.OutputType == "" {
		return compiler.FormatRaw
	}

	return o.Options.OutputType
}

func helpOutcome(text string, opts *compiler.Options) Outcome {
	return Outcome{Kind: KindHelp, Help: text, Options: opts}
}

func outputOutcome(chunks []string, opts *compiler.Options) Outcome {
	return Outcome{Kind: KindOutput, Chunks: chunks, Options: opts}
}

func errorOutcome(kind ErrorKind, err error) Outcome {
	return Outcome{Kind: KindError, Err: &EvalError{Kind: kind, Err: err}}
}
