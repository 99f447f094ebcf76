package pipeline_test

import (
	"bytes"
	"context"
	"strconv"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/askiada/go-livepipe/pkg/pipeline"
	"github.com/askiada/go-livepipe/pkg/pipeline/drawer"
	"github.com/askiada/go-livepipe/pkg/pipeline/measure"
	"github.com/askiada/go-livepipe/pkg/pipeline/model"
)

func TestAddRootStepNilPipe(t *testing.T) {
	t.Parallel()

	_, err := pipeline.AddRootStep(nil, "root step", rootFromSlice(1, 2))
	assert.ErrorIs(t, err, pipeline.ErrPipelineMustBeSet)
}

func TestAddStepNilPipeOrInput(t *testing.T) {
	t.Parallel()

	_, err := pipeline.AddStepOneToOne(nil, "step", nil, func(_ context.Context, input int) (int, error) {
		return input, nil
	})
	require.ErrorIs(t, err, pipeline.ErrPipelineMustBeSet)

	pipe, err := pipeline.New(t.Context())
	require.NoError(t, err)

	_, err = pipeline.AddStepOneToMany(pipe, "step", nil, func(_ context.Context, input int) ([]int, error) {
		return []int{input}, nil
	})
	require.ErrorIs(t, err, pipeline.ErrInputMustBeSet)

	err = pipeline.AddSink[int](pipe, "sink", nil, func(context.Context, int) error { return nil })
	require.ErrorIs(t, err, pipeline.ErrInputMustBeSet)
}

func TestAddRootStep(t *testing.T) {
	t.Parallel()

	pipe, err := pipeline.New(t.Context())
	require.NoError(t, err)

	outputChan, err := pipeline.AddRootStep(pipe, "root step", rootFromSlice(0, 1, 2, 3))
	require.NoError(t, err)

	got := make(chan []int, 1)

	go func() {
		got <- processOutputChan(t, outputChan.Output)
	}()

	require.NoError(t, pipe.Run())
	assert.Equal(t, []int{0, 1, 2, 3}, <-got)
}

func TestAddRootStepError(t *testing.T) {
	t.Parallel()

	pipe, err := pipeline.New(t.Context())
	require.NoError(t, err)

	outputChan, err := pipeline.AddRootStep(pipe, "root step", func(_ context.Context, rootChan chan<- int) error {
		for i := range 10 {
			if i == 5 {
				return assert.AnError
			}
			rootChan <- i
		}

		return nil
	})
	require.NoError(t, err)

	got := make(chan []int, 1)

	go func() {
		got <- processOutputChan(t, outputChan.Output)
	}()

	err = pipe.Run()
	require.ErrorIs(t, err, assert.AnError)

	step, ok := pipeline.FailedStep(err)
	assert.True(t, ok)
	assert.Equal(t, "root step", step)
	assert.Equal(t, []int{0, 1, 2, 3, 4}, <-got)
}

func TestOrderedChain(t *testing.T) {
	t.Parallel()

	pipe, err := pipeline.New(t.Context())
	require.NoError(t, err)

	root, err := pipeline.AddRootStep(pipe, "root", rootFromSlice(1, 2, 3))
	require.NoError(t, err)

	doubled, err := pipeline.AddStepOneToMany(pipe, "twice", root, func(_ context.Context, in int) ([]int, error) {
		return []int{in, in}, nil
	})
	require.NoError(t, err)

	asString, err := pipeline.AddStepOneToOne(pipe, "string", doubled, func(_ context.Context, in int) (string, error) {
		return strconv.Itoa(in), nil
	})
	require.NoError(t, err)

	var got []string

	err = pipeline.AddSink(pipe, "sink", asString, func(_ context.Context, in string) error {
		got = append(got, in)

		return nil
	})
	require.NoError(t, err)

	require.NoError(t, pipe.Run())
	assert.Equal(t, []string{"1", "1", "2", "2", "3", "3"}, got)
}

func TestStepConcurrency(t *testing.T) {
	t.Parallel()

	tcs := map[string]struct {
		concurrent int
	}{
		"sequential":     {concurrent: 1},
		"sequential v2":  {concurrent: 0},
		"concurrent 2":   {concurrent: 2},
		"concurrent 100": {concurrent: 100},
	}

	for name, tc := range tcs {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			pipe, err := pipeline.New(t.Context())
			require.NoError(t, err)

			input := &model.Step[int]{Output: createInputChan(t, 10), Details: &model.StepInfo{Name: "input"}}

			output, err := pipeline.AddStepOneToOne(pipe, "identity", input, func(_ context.Context, in int) (int, error) {
				return in, nil
			}, pipeline.StepConcurrency[int](tc.concurrent))
			require.NoError(t, err)

			var (
				mu  sync.Mutex
				got []int
			)

			err = pipeline.AddSink(pipe, "sink", output, func(_ context.Context, in int) error {
				mu.Lock()
				defer mu.Unlock()
				got = append(got, in)

				return nil
			})
			require.NoError(t, err)

			require.NoError(t, pipe.Run())
			assert.ElementsMatch(t, []int{0, 1, 2, 3, 4, 5, 6, 7, 8, 9}, got)
		})
	}
}

func TestStepErrorStopsPipeline(t *testing.T) {
	t.Parallel()

	pipe, err := pipeline.New(t.Context())
	require.NoError(t, err)

	root, err := pipeline.AddRootStep(pipe, "root", func(ctx context.Context, rootChan chan<- int) error {
		for i := 0; ; i++ {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case rootChan <- i:
			}
		}
	})
	require.NoError(t, err)

	failing, err := pipeline.AddStepOneToOne(pipe, "failing", root, func(_ context.Context, in int) (int, error) {
		if in == 5 {
			return 0, assert.AnError
		}

		return in, nil
	})
	require.NoError(t, err)

	err = pipeline.AddSink(pipe, "sink", failing, func(context.Context, int) error { return nil })
	require.NoError(t, err)

	err = pipe.Run()
	require.ErrorIs(t, err, assert.AnError)

	step, ok := pipeline.FailedStep(err)
	assert.True(t, ok)
	assert.Equal(t, "failing", step)
}

func TestSinkError(t *testing.T) {
	t.Parallel()

	pipe, err := pipeline.New(t.Context())
	require.NoError(t, err)

	root, err := pipeline.AddRootStep(pipe, "root", rootFromSlice(1, 2, 3))
	require.NoError(t, err)

	err = pipeline.AddSink(pipe, "sink", root, func(_ context.Context, in int) error {
		if in == 2 {
			return assert.AnError
		}

		return nil
	})
	require.NoError(t, err)

	err = pipe.Run()
	require.ErrorIs(t, err, assert.AnError)
}

func TestRunCancelled(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(t.Context())

	pipe, err := pipeline.New(ctx)
	require.NoError(t, err)

	root, err := pipeline.AddRootStep(pipe, "root", func(ctx context.Context, rootChan chan<- int) error {
		for i := 0; ; i++ {
			if i == 3 {
				cancel()
			}

			select {
			case <-ctx.Done():
				return ctx.Err()
			case rootChan <- i:
			}
		}
	})
	require.NoError(t, err)

	err = pipeline.AddSink(pipe, "sink", root, func(context.Context, int) error { return nil })
	require.NoError(t, err)

	assert.ErrorIs(t, pipe.Run(), context.Canceled)
}

func TestRunWithMeasureAndDrawer(t *testing.T) {
	t.Parallel()

	msr := measure.NewDefaultMeasure()

	var buf bytes.Buffer

	pipe, err := pipeline.New(t.Context(),
		measure.PipelineMeasure(msr),
		drawer.PipelineDrawer(drawer.NewDOTDrawer(&buf), msr),
	)
	require.NoError(t, err)

	root, err := pipeline.AddRootStep(pipe, "root", rootFromSlice(1, 2, 3))
	require.NoError(t, err)

	inc, err := pipeline.AddStepOneToOne(pipe, "inc", root, func(_ context.Context, in int) (int, error) {
		return in + 1, nil
	})
	require.NoError(t, err)

	err = pipeline.AddSink(pipe, "sink", inc, func(context.Context, int) error { return nil })
	require.NoError(t, err)

	require.NoError(t, pipe.Run())

	assert.EqualValues(t, 3, msr.GetMetric("inc").Count())
	assert.EqualValues(t, 3, msr.GetMetric("sink").Count())
	assert.Positive(t, msr.GetMetric("end").GetTotalDuration())

	dot := buf.String()
	assert.Contains(t, dot, `"start" -> "root"`)
	assert.Contains(t, dot, `"root" -> "inc"`)
	assert.Contains(t, dot, `"inc" -> "sink"`)
	assert.Contains(t, dot, `"sink" -> "end"`)
}
