package compiler

import (
	"fmt"

	"github.com/pkg/errors"
)

var (
	ErrParse   = errors.New("invalid pipeline options")
	ErrCompile = errors.New("invalid pipeline step")
)

// Error is returned by Parse and Compile. It matches ErrParse or ErrCompile with errors.Is.
type Error struct {
	Kind error
	// Step is the zero based index of the failing step, -1 when the error is not about a step.
	Step   int
	Source string
	Err    error
}

func (e *Error) Error() string {
	if e.Step < 0 {
		return e.Err.Error()
	}

	return fmt.Sprintf("step %d %q: %v", e.Step+1, e.Source, e.Err)
}

func (e *Error) Is(target error) bool {
	return target == e.Kind
}

func (e *Error) Unwrap() error {
	return e.Err
}

func parseError(err error) error {
	return &Error{Kind: ErrParse, Step: -1, Err: err}
}

func compileError(step int, source string, err error) error {
	return &Error{Kind: ErrCompile, Step: step, Source: source, Err: err}
}
