package pipeline

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/askiada/go-livepipe/pkg/pipeline/model"
)

func prepareSink[I any](pipe *Pipeline, input *model.Step[I], step *model.Step[I]) error {
	for _, opt := range pipe.opts {
		err := opt.PrepareSink(input.Details, step.Details)
		if err != nil {
			return errors.Wrap(err, "unable to run before sink function")
		}
	}

	return nil
}

func onSinkOutput(pipe *Pipeline, input, step *model.StepInfo, iteration, computation time.Duration) error {
	for _, opt := range pipe.opts {
		err := opt.OnSinkOutput(input, step, iteration, computation)
		if err != nil {
			return errors.Wrap(err, "unable to run on sink output function")
		}
	}

	return nil
}

func afterSink(pipe *Pipeline, step *model.StepInfo) error {
	for _, opt := range pipe.opts {
		err := opt.AfterSink(step, time.Since(pipe.startTime))
		if err != nil {
			return errors.Wrap(err, "unable to run after sink function")
		}
	}

	return nil
}

func runSink[I any](pipe *Pipeline, input, step *model.Step[I], sinkFn func(ctx context.Context, input I) error) error {
	for {
		startInputChan := time.Now()
		select {
		case <-pipe.ctx.Done():
			return errors.Wrap(pipe.ctx.Err(), "sink")
		case in, ok := <-input.Output:
			if !ok {
				return afterSink(pipe, step.Details)
			}

			endInputChan := time.Since(startInputChan)
			startFn := time.Now()

			err := sinkFn(pipe.ctx, in)
			if err != nil {
				return err
			}

			err = onSinkOutput(pipe, input.Details, step.Details, endInputChan, time.Since(startFn))
			if err != nil {
				return err
			}
		}
	}
}

// AddSink adds the final stage consuming every value of input.
func AddSink[I any](pipe *Pipeline, name string, input *model.Step[I], sinkFn func(ctx context.Context, input I) error) error {
	if pipe == nil {
		return ErrPipelineMustBeSet
	}

	if input == nil {
		return ErrInputMustBeSet
	}

	step := &model.Step[I]{
		Details: &model.StepInfo{
			Type:       model.SinkStepType,
			Name:       name,
			Concurrent: 1,
		},
	}

	err := prepareSink(pipe, input, step)
	if err != nil {
		return err
	}

	errC := make(chan error, 1)
	decoratedError := newErrorChan(name, errC)

	go func() {
		defer close(errC)

		err := runSink(pipe, input, step, sinkFn)
		if err != nil {
			errC <- err
		}
	}()
	pipe.errcList.add(decoratedError)

	return nil
}
