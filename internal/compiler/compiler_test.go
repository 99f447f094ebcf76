package compiler_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/askiada/go-livepipe/internal/compiler"
)

func TestParseDefaults(t *testing.T) {
	t.Parallel()

	opts, err := compiler.Parse([]string{})
	require.NoError(t, err)
	assert.False(t, opts.Help)
	assert.Equal(t, compiler.FormatRaw, opts.InputType)
	assert.Equal(t, compiler.FormatRaw, opts.OutputType)
	assert.Empty(t, opts.Steps)
	assert.Empty(t, opts.Vars)
}

func TestParse(t *testing.T) {
	t.Parallel()

	tcs := map[string]struct {
		argv     []string
		expected *compiler.Options
	}{
		"help short": {
			argv:     []string{"-h"},
			expected: &compiler.Options{Help: true, InputType: "raw", OutputType: "raw", Vars: map[string]string{}},
		},
		"help long with steps": {
			argv:     []string{".a", "--help"},
			expected: &compiler.Options{Help: true, InputType: "raw", OutputType: "raw", Vars: map[string]string{}, Steps: []string{".a"}},
		},
		"formats": {
			argv:     []string{"-i", "json", "--output-type=pretty", ".a"},
			expected: &compiler.Options{InputType: "json", OutputType: "pretty", Vars: map[string]string{}, Steps: []string{".a"}},
		},
		"separators are dropped": {
			argv:     []string{".a", "|", ".b", " | "},
			expected: &compiler.Options{InputType: "raw", OutputType: "raw", Vars: map[string]string{}, Steps: []string{".a", ".b"}},
		},
		"flags everywhere": {
			argv:     []string{"length", "-s", "-n", "--arg", "x=1=2"},
			expected: &compiler.Options{InputType: "raw", OutputType: "raw", Slurp: true, NullInput: true, Vars: map[string]string{"x": "1=2"}, Steps: []string{"length"}},
		},
	}

	for name, tc := range tcs {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			got, err := compiler.Parse(tc.argv)
			require.NoError(t, err)
			assert.Equal(t, tc.expected, got)
		})
	}
}

func TestParseErrors(t *testing.T) {
	t.Parallel()

	tcs := map[string][]string{
		"unknown flag":     {"--nope"},
		"bad input type":   {"-i", "xml"},
		"pretty input":     {"--input-type", "pretty"},
		"bad output type":  {"-o", "html"},
		"missing value":    {"-o"},
		"arg without eq":   {"--arg", "name"},
		"arg invalid name": {"--arg", "1x=2"},
	}

	for name, argv := range tcs {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			_, err := compiler.Parse(argv)
			require.Error(t, err)
			assert.ErrorIs(t, err, compiler.ErrParse)
			assert.NotErrorIs(t, err, compiler.ErrCompile)
		})
	}
}

func TestHelp(t *testing.T) {
	t.Parallel()

	help := compiler.Help()
	assert.Contains(t, help, "--input-type")
	assert.Contains(t, help, "--output-type")
	assert.Contains(t, help, "--slurp")
	assert.Contains(t, help, "Examples:")
	assert.Equal(t, help, compiler.New().Help())
}

func TestCompileIdentity(t *testing.T) {
	t.Parallel()

	tr, err := compiler.New().Compile(&compiler.Options{})
	require.NoError(t, err)
	assert.Equal(t, []string{"."}, tr.Steps())
	assert.Equal(t, compiler.FormatRaw, tr.InputType())
	assert.Equal(t, compiler.FormatRaw, tr.OutputType())

	got, err := tr.Apply(t.Context(), 0, "a")
	require.NoError(t, err)
	assert.Equal(t, []any{"a"}, got)
}

func TestCompileErrors(t *testing.T) {
	t.Parallel()

	tcs := map[string]struct {
		steps []string
		step  int
	}{
		"unknown function":      {steps: []string{"unknownFn()"}, step: 0},
		"unknown function args": {steps: []string{".", "unknownFn(1)"}, step: 1},
		"syntax error":          {steps: []string{".a | "}, step: 0},
		"unbound variable":      {steps: []string{"$who"}, step: 0},
	}

	for name, tc := range tcs {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			_, err := compiler.New().Compile(&compiler.Options{Steps: tc.steps})
			require.Error(t, err)
			assert.ErrorIs(t, err, compiler.ErrCompile)

			var compErr *compiler.Error
			require.ErrorAs(t, err, &compErr)
			assert.Equal(t, tc.step, compErr.Step)
			assert.Equal(t, tc.steps[tc.step], compErr.Source)
		})
	}
}

func TestApply(t *testing.T) {
	t.Parallel()

	opts, err := compiler.Parse([]string{"-o", "json", "--arg", "who=world", ".[]", `"hello " + $who + " " + .`})
	require.NoError(t, err)

	tr, err := compiler.New().Compile(opts)
	require.NoError(t, err)
	assert.Equal(t, compiler.FormatJSON, tr.OutputType())

	first, err := tr.Apply(t.Context(), 0, []any{"a", "b"})
	require.NoError(t, err)
	assert.Equal(t, []any{"a", "b"}, first)

	second, err := tr.Apply(t.Context(), 1, "a")
	require.NoError(t, err)
	assert.Equal(t, []any{"hello world a"}, second)

	_, err = tr.Apply(t.Context(), 2, "a")
	assert.Error(t, err)
}

func TestApplyRuntimeError(t *testing.T) {
	t.Parallel()

	tr, err := compiler.New().Compile(&compiler.Options{Steps: []string{".a"}})
	require.NoError(t, err)

	_, err = tr.Apply(t.Context(), 0, "not an object")
	require.Error(t, err)
	assert.NotErrorIs(t, err, compiler.ErrCompile)
}

func TestApplyHalt(t *testing.T) {
	t.Parallel()

	tr, err := compiler.New().Compile(&compiler.Options{Steps: []string{`if . == "b" then halt else . end`}})
	require.NoError(t, err)

	got, err := tr.Apply(t.Context(), 0, "b")
	require.NoError(t, err)
	assert.Empty(t, got)

	got, err = tr.Apply(t.Context(), 0, "a")
	require.NoError(t, err)
	assert.Equal(t, []any{"a"}, got)
}
