package compiler

import (
	"context"

	"github.com/itchyny/gojq"
	"github.com/pkg/errors"
)

type step struct {
	source string
	code   *gojq.Code
}

// Transform is a compiled program. It is immutable once compiled.
type Transform struct {
	steps      []step
	values     []any
	inputType  Format
	outputType Format
	slurp      bool
	nullInput  bool
}

// Steps returns the source of every compiled step.
func (t *Transform) Steps() []string {
	sources := make([]string, len(t.steps))
	for i, s := range t.steps {
		sources[i] = s.source
	}

	return sources
}

// InputType is the format the input must be decoded with.
func (t *Transform) InputType() Format { return t.inputType }

// OutputType is the format the output must be rendered with.
func (t *Transform) OutputType() Format { return t.outputType }

// Slurp reports whether the whole input is a single value.
func (t *Transform) Slurp() bool { return t.slurp }

// NullInput reports whether the input is ignored.
func (t *Transform) NullInput() bool { return t.nullInput }

// Apply runs the step idx on value and collects every value it emits.
func (t *Transform) Apply(ctx context.Context, idx int, value any) ([]any, error) {
	if idx < 0 || idx >= len(t.steps) {
		return nil, errors.Errorf("step %d out of range", idx+1)
	}

	iter := t.steps[idx].code.RunWithContext(ctx, value, t.values...)
	outs := []any{}

	for {
		out, ok := iter.Next()
		if !ok {
			break
		}

		if err, ok := out.(error); ok {
			var halt *gojq.HaltError
			if errors.As(err, &halt) && halt.Value() == nil {
				break
			}

			return nil, errors.Wrapf(err, "step %d %q", idx+1, t.steps[idx].source)
		}

		outs = append(outs, out)
	}

	return outs, nil
}
