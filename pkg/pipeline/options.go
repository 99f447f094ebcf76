package pipeline

import "github.com/askiada/go-livepipe/pkg/pipeline/model"

type StepOption[O any] func(s *model.Step[O])

// StepConcurrency runs the step function in concurrent goroutines.
// Output order is not preserved when concurrent is greater than 1.
func StepConcurrency[O any](concurrent int) StepOption[O] {
	return func(s *model.Step[O]) {
		s.Details.Concurrent = concurrent
	}
}
