package compiler

import (
	"github.com/itchyny/gojq"
)

const identity = "."

// Compiler is the default pipeline compiler. It holds no state and is safe for concurrent use.
type Compiler struct{}

// New creates a Compiler.
func New() *Compiler {
	return &Compiler{}
}

// Parse reads the options of a program from its argument vector.
func (c *Compiler) Parse(argv []string) (*Options, error) {
	return Parse(argv)
}

// Help returns the usage of the pipeline language.
func (c *Compiler) Help() string {
	return Help()
}

// Compile compiles every step of opts into a Transform.
func (c *Compiler) Compile(opts *Options) (*Transform, error) {
	if opts == nil {
		opts = &Options{InputType: FormatRaw, OutputType: FormatRaw}
	}

	sources := opts.Steps
	if len(sources) == 0 {
		sources = []string{identity}
	}

	names, values := opts.variables()
	steps := make([]step, len(sources))

	for i, src := range sources {
		query, err := gojq.Parse(src)
		if err != nil {
			return nil, compileError(i, src, err)
		}

		code, err := gojq.Compile(query, gojq.WithVariables(names))
		if err != nil {
			return nil, compileError(i, src, err)
		}

		steps[i] = step{source: src, code: code}
	}

	return &Transform{
		steps:      steps,
		values:     values,
		inputType:  orDefault(opts.InputType),
		outputType: orDefault(opts.OutputType),
		slurp:      opts.Slurp,
		nullInput:  opts.NullInput,
	}, nil
}

func orDefault(f Format) Format {
	if f == "" {
		return FormatRaw
	}

	return f
}
