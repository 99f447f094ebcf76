package pipeline

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"github.com/askiada/go-livepipe/pkg/pipeline/model"
)

func onStepOutput(pipe *Pipeline, input *model.StepInfo, output *model.StepInfo, iteration, computation time.Duration) error {
	for _, opt := range pipe.opts {
		err := opt.OnStepOutput(input, output, iteration, computation)
		if err != nil {
			return errors.Wrap(err, "unable to run on step output function")
		}
	}

	return nil
}

// sequentialOneToManyFn reads the input until it is closed and pushes every value returned by fn.
func sequentialOneToManyFn[I any, O any](ctx context.Context, pipe *Pipeline, goIdx int, input *model.Step[I], output *model.Step[O], fn func(context.Context, I) ([]O, error)) error {
outer:
	for {
		start := time.Now()
		select {
		case <-ctx.Done():
			return errors.Wrapf(ctx.Err(), "go routine %d", goIdx)
		case in, ok := <-input.Output:
			if !ok {
				break outer
			}

			startFn := time.Now()

			outs, err := fn(ctx, in)
			if err != nil {
				return errors.Wrapf(err, "go routine %d", goIdx)
			}

			endFn := time.Since(startFn)

			for _, out := range outs {
				// we check the context again to make sure all go routines currently running
				// stop to add new elements to the pipeline
				select {
				case <-ctx.Done():
					return errors.Wrapf(ctx.Err(), "go routine %d", goIdx)
				case output.Output <- out:
				}
			}

			err = onStepOutput(pipe, input.Details, output.Details, time.Since(start)-endFn, endFn)
			if err != nil {
				return err
			}
		}
	}

	return nil
}

func concurrentOneToManyFn[I any, O any](ctx context.Context, pipe *Pipeline, input *model.Step[I], output *model.Step[O], fn func(context.Context, I) ([]O, error)) error {
	errGrp, dCtx := errgroup.WithContext(ctx)
	errGrp.SetLimit(output.Details.Concurrent)
	// starts many consumers concurrently
	// each consumer stops as soon as an error happens
	for goIdx := range output.Details.Concurrent {
		errGrp.Go(func() error {
			return sequentialOneToManyFn(dCtx, pipe, goIdx, input, output, fn)
		})
	}

	return errors.Wrap(errGrp.Wait(), "concurrent step")
}

func runOneToMany[I any, O any](ctx context.Context, pipe *Pipeline, input *model.Step[I], output *model.Step[O], fn func(context.Context, I) ([]O, error)) error {
	if output.Details.Concurrent <= 1 {
		output.Details.Concurrent = 1

		return sequentialOneToManyFn(ctx, pipe, 0, input, output, fn)
	}

	return concurrentOneToManyFn(ctx, pipe, input, output, fn)
}

func prepareStep[I, O any](pipe *Pipeline, name string, input *model.Step[I], opts ...StepOption[O]) (*model.Step[O], error) {
	step := &model.Step[O]{
		Details: &model.StepInfo{
			Type: model.NormalStepType,
			Name: name,
		},
		Output: make(chan O),
	}
	for _, opt := range opts {
		opt(step)
	}

	if step.Details.Concurrent <= 0 {
		step.Details.Concurrent = 1
	}

	for _, opt := range pipe.opts {
		err := opt.PrepareStep(input.Details, step.Details)
		if err != nil {
			return nil, errors.Wrap(err, "unable to run before step function")
		}
	}

	return step, nil
}

func addStep[I any, O any](pipe *Pipeline, name string, input *model.Step[I], fn func(context.Context, I) ([]O, error), opts ...StepOption[O]) (*model.Step[O], error) {
	if pipe == nil {
		return nil, ErrPipelineMustBeSet
	}

	if input == nil {
		return nil, ErrInputMustBeSet
	}

	step, err := prepareStep(pipe, name, input, opts...)
	if err != nil {
		return nil, err
	}

	errC := make(chan error, 1)
	decoratedError := newErrorChan(name, errC)

	go func() {
		defer func() {
			close(step.Output)
			close(errC)
		}()

		err := runOneToMany(pipe.ctx, pipe, input, step, fn)
		if err != nil {
			errC <- err
		}
	}()
	pipe.errcList.add(decoratedError)

	return step, nil
}

// AddStepOneToOne adds a step pushing exactly one output per input.
func AddStepOneToOne[I any, O any](pipe *Pipeline, name string, input *model.Step[I], oneToOneFn func(context.Context, I) (O, error), opts ...StepOption[O]) (*model.Step[O], error) {
	return addStep(pipe, name, input, func(ctx context.Context, in I) ([]O, error) {
		out, err := oneToOneFn(ctx, in)
		if err != nil {
			return nil, err
		}

		return []O{out}, nil
	}, opts...)
}

// AddStepOneToMany adds a step pushing zero or more outputs per input.
func AddStepOneToMany[I any, O any](pipe *Pipeline, name string, input *model.Step[I], oneToManyFn func(context.Context, I) ([]O, error), opts ...StepOption[O]) (*model.Step[O], error) {
	return addStep(pipe, name, input, oneToManyFn, opts...)
}
