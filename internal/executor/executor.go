// Package executor applies a compiled Transform to an input snapshot.
//
// A run is a pipeline of stages: the input is decoded into values by a root
// step, every program step transforms them in order, an encode step renders
// each value into a chunk and a sink hands the chunks to the caller. Values
// flow one at a time, so chunks are produced lazily and in input order.
package executor

import (
	"bytes"
	"context"
	"fmt"
	"iter"
	"strings"

	"github.com/pkg/errors"

	"github.com/askiada/go-livepipe/internal/compiler"
	"github.com/askiada/go-livepipe/pkg/pipeline"
	"github.com/askiada/go-livepipe/pkg/pipeline/drawer"
	"github.com/askiada/go-livepipe/pkg/pipeline/measure"
	"github.com/askiada/go-livepipe/pkg/pipeline/model"
)

var ErrTransformMustBeSet = errors.New("transform must be set")

const (
	decodeStep  = "decode"
	encodeStep  = "encode"
	collectStep = "collect"
)

// Report describes a finished run: the timings of every stage and the stage graph in DOT.
type Report struct {
	Stages []measure.StageStat
	DOT    []byte
}

// Option configures an Executor.
type Option func(e *Executor)

// WithReport measures every run and hands a Report to fn once a run completes successfully.
func WithReport(fn func(Report)) Option {
	return func(e *Executor) {
		e.report = fn
	}
}

// Executor runs transforms. It is safe for concurrent use; runs share nothing.
type Executor struct {
	report func(Report)
}

// New creates an Executor.
func New(opts ...Option) *Executor {
	e := &Executor{}
	for _, opt := range opts {
		opt(e)
	}

	return e
}

type diagnostics struct {
	measure *measure.DefaultMeasure
	dot     bytes.Buffer
}

// Run returns the lazy sequence of chunks produced by applying tr to input.
// A failure ends the sequence with a single ("", err) pair. Stopping the
// iteration early cancels the run.
func (e *Executor) Run(ctx context.Context, tr *compiler.Transform, input []byte) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		if tr == nil {
			yield("", ErrTransformMustBeSet)

			return
		}

		if err := ctx.Err(); err != nil {
			yield("", errors.Wrap(err, "run cancelled"))

			return
		}

		runCtx, cancel := context.WithCancel(ctx)
		defer cancel()

		chunks := make(chan string)

		pipe, diag, err := e.build(runCtx, tr, input, chunks)
		if err != nil {
			yield("", errors.Wrap(err, "unable to build pipeline"))

			return
		}

		runErr := make(chan error, 1)

		go func() {
			runErr <- pipe.Run()
			// Run returns once every stage is gone, nobody can send anymore
			close(chunks)
		}()

		stop := func() {
			cancel()
			drain(chunks)
			<-runErr
		}

		// The last chunk is held back until the run ends, so it can lose the
		// newline the input did not have.
		holdLast := endsWithoutNewline(tr, input)

		var (
			last string
			held bool
		)

		for chunk := range chunks {
			if holdLast {
				if held && !yield(last, nil) {
					stop()

					return
				}

				last, held = chunk, true

				continue
			}

			if !yield(chunk, nil) {
				stop()

				return
			}
		}

		err = <-runErr
		if err != nil {
			if held && !yield(last, nil) {
				return
			}

			yield("", err)

			return
		}

		if held && !yield(strings.TrimSuffix(last, "\n"), nil) {
			return
		}

		if diag != nil {
			e.report(Report{Stages: measure.Snapshot(diag.measure), DOT: diag.dot.Bytes()})
		}
	}
}

func (e *Executor) build(ctx context.Context, tr *compiler.Transform, input []byte, chunks chan<- string) (*pipeline.Pipeline, *diagnostics, error) {
	var (
		opts []model.PipelineOption
		diag *diagnostics
	)

	if e.report != nil {
		diag = &diagnostics{measure: measure.NewDefaultMeasure()}
		opts = append(opts,
			measure.PipelineMeasure(diag.measure),
			drawer.PipelineDrawer(drawer.NewDOTDrawer(&diag.dot), diag.measure),
		)
	}

	pipe, err := pipeline.New(ctx, opts...)
	if err != nil {
		return nil, nil, err
	}

	values, err := pipeline.AddRootStep(pipe, decodeStep, func(ctx context.Context, out chan<- any) error {
		return produce(ctx, tr, input, out)
	})
	if err != nil {
		return nil, nil, errors.Wrap(err, "unable to add decode step")
	}

	for idx, src := range tr.Steps() {
		values, err = pipeline.AddStepOneToMany(pipe, fmt.Sprintf("step-%d", idx+1), values, func(ctx context.Context, v any) ([]any, error) {
			return tr.Apply(ctx, idx, v)
		})
		if err != nil {
			return nil, nil, errors.Wrapf(err, "unable to add step %q", src)
		}
	}

	enc := newEncoder(tr.OutputType())

	rendered, err := pipeline.AddStepOneToOne(pipe, encodeStep, values, func(_ context.Context, v any) (string, error) {
		return enc.encode(v)
	})
	if err != nil {
		return nil, nil, errors.Wrap(err, "unable to add encode step")
	}

	err = pipeline.AddSink(pipe, collectStep, rendered, func(ctx context.Context, chunk string) error {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case chunks <- chunk:
			return nil
		}
	})
	if err != nil {
		return nil, nil, errors.Wrap(err, "unable to add collect step")
	}

	return pipe, diag, nil
}

// produce decodes the input and pushes the values the transform starts from.
func produce(ctx context.Context, tr *compiler.Transform, input []byte, out chan<- any) error {
	send := func(v any) error {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case out <- v:
			return nil
		}
	}

	switch {
	case tr.NullInput():
		return send(nil)
	case tr.Slurp() && tr.InputType() == compiler.FormatRaw:
		return send(string(input))
	case tr.Slurp():
		all := []any{}

		err := decode(ctx, tr.InputType(), input, func(v any) error {
			all = append(all, v)

			return nil
		})
		if err != nil {
			return err
		}

		return send(all)
	default:
		return decode(ctx, tr.InputType(), input, send)
	}
}

// endsWithoutNewline reports whether tr passes raw lines through and the
// last line of input has no newline.
func endsWithoutNewline(tr *compiler.Transform, input []byte) bool {
	return tr.InputType() == compiler.FormatRaw &&
		tr.OutputType() == compiler.FormatRaw &&
		!tr.Slurp() && !tr.NullInput() &&
		len(input) > 0 && input[len(input)-1] != '\n'
}

func drain(chunks <-chan string) {
	for range chunks {
		continue
	}
}
