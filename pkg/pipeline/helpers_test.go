package pipeline_test

import (
	"context"
	"testing"
)

func createInputChan(t *testing.T, total int) chan int {
	t.Helper()

	inputChan := make(chan int)

	go func() {
		defer close(inputChan)

		for i := range total {
			inputChan <- i
		}
	}()

	return inputChan
}

func processOutputChan[T any](t *testing.T, output <-chan T) []T {
	t.Helper()

	res := []T{}

	for out := range output {
		res = append(res, out)
	}

	return res
}

func rootFromSlice[T any](values ...T) func(ctx context.Context, rootChan chan<- T) error {
	return func(ctx context.Context, rootChan chan<- T) error {
		for _, v := range values {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case rootChan <- v:
			}
		}

		return nil
	}
}
