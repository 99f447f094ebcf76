package compiler

import (
	"io"
	"regexp"
	"sort"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/pflag"
)

// Format selects how values are decoded from the input or rendered to the output.
type Format string

const (
	FormatRaw    Format = "raw"
	FormatJSON   Format = "json"
	FormatPretty Format = "pretty"
	FormatCSV    Format = "csv"
	FormatTSV    Format = "tsv"
	FormatYAML   Format = "yaml"
)

var (
	InputFormats  = []Format{FormatRaw, FormatJSON, FormatCSV, FormatTSV, FormatYAML}
	OutputFormats = []Format{FormatRaw, FormatJSON, FormatPretty, FormatCSV, FormatTSV, FormatYAML}
)

const separator = "|"

var varName = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// Options is the parsed form of a program.
type Options struct {
	Help       bool
	InputType  Format
	OutputType Format
	Slurp      bool
	NullInput  bool
	// Vars binds $name to a string value in every step.
	Vars  map[string]string
	Steps []string
}

// formatValue is a pflag.Value restricted to a set of formats.
type formatValue struct {
	target  *Format
	allowed []Format
}

func (f *formatValue) String() string {
	return string(*f.target)
}

func (f *formatValue) Set(s string) error {
	for _, allowed := range f.allowed {
		if Format(s) == allowed {
			*f.target = allowed

			return nil
		}
	}

	return errors.Errorf("must be one of %s", joinFormats(f.allowed))
}

func (f *formatValue) Type() string {
	return "format"
}

func joinFormats(formats []Format) string {
	names := make([]string, len(formats))
	for i, format := range formats {
		names[i] = string(format)
	}

	return strings.Join(names, "|")
}

func newFlagSet(opts *Options, vars *[]string) *pflag.FlagSet {
	fs := pflag.NewFlagSet("livepipe", pflag.ContinueOnError)
	fs.SetOutput(io.Discard)
	fs.SortFlags = false

	opts.InputType = FormatRaw
	opts.OutputType = FormatRaw

	fs.BoolVarP(&opts.Help, "help", "h", false, "show this help")
	fs.VarP(&formatValue{target: &opts.InputType, allowed: InputFormats}, "input-type", "i",
		"decode the input as "+joinFormats(InputFormats))
	fs.VarP(&formatValue{target: &opts.OutputType, allowed: OutputFormats}, "output-type", "o",
		"render the output as "+joinFormats(OutputFormats))
	fs.BoolVarP(&opts.Slurp, "slurp", "s", false, "read the whole input as a single value")
	fs.BoolVarP(&opts.NullInput, "null-input", "n", false, "ignore the input and run once with null")
	fs.StringArrayVar(vars, "arg", nil, "bind $name to a string, as name=value")

	return fs
}

// Parse reads the options of a program from its argument vector.
func Parse(argv []string) (*Options, error) {
	opts := &Options{}
	vars := []string{}
	fs := newFlagSet(opts, &vars)

	err := fs.Parse(argv)
	if err != nil {
		return nil, parseError(err)
	}

	opts.Vars = make(map[string]string, len(vars))

	for _, v := range vars {
		name, value, ok := strings.Cut(v, "=")
		if !ok || !varName.MatchString(name) {
			return nil, parseError(errors.Errorf("invalid --arg %q, expected name=value", v))
		}

		opts.Vars[name] = value
	}

	for _, arg := range fs.Args() {
		if strings.TrimSpace(arg) == separator {
			continue
		}

		opts.Steps = append(opts.Steps, arg)
	}

	return opts, nil
}

// variables returns the jq variable names and their values, sorted by name.
func (o *Options) variables() ([]string, []any) {
	names := make([]string, 0, len(o.Vars))
	for name := range o.Vars {
		names = append(names, name)
	}

	sort.Strings(names)

	values := make([]any, len(names))
	for i, name := range names {
		values[i] = o.Vars[name]
		names[i] = "$" + name
	}

	return names, values
}

const helpHeader = `Usage: [options] [step ...]

Every step is a jq filter. Steps are piped into each other in order, so
'.items[]' '.name' is the same as '.items[] | .name'. A program without
steps is the identity. Lines starting with # are comments.

Options:
`

const helpExamples = `
Examples:
  'ascii_upcase'                       upper case every line
  -i json -o pretty '.[] | .name'      names of a JSON array
  -i csv -o json 'select(.age > "30")' filter CSV rows
  -s 'split("\n") | length'            count the lines of the input
  --arg who=world '"hello " + $who'    use a variable
`

// Help returns the usage of the pipeline language.
func Help() string {
	fs := newFlagSet(&Options{}, &[]string{})

	return helpHeader + fs.FlagUsages() + helpExamples
}
