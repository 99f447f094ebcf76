package pipeline

import (
	"errors"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorChans(t *testing.T) {
	t.Parallel()

	ecs := errorChans{}
	ec1 := &errorChan{}
	ec2 := &errorChan{}
	doneChan := make(chan struct{}, 2)

	go func() {
		ecs.add(ec1)
		doneChan <- struct{}{}
	}()
	go func() {
		ecs.add(ec2)
		doneChan <- struct{}{}
	}()
	<-doneChan
	<-doneChan
	assert.ElementsMatch(t, []*errorChan{ec1, ec2}, ecs.list)
}

func TestMergeErrorsAllNil(t *testing.T) {
	t.Parallel()

	ec1 := newErrorChan("error chan", nil)
	ec2 := newErrorChan("error chan 2", nil)

	outErrorChan := mergeErrors(ec1, ec2)
	gotErr, open := <-outErrorChan
	assert.False(t, open)
	assert.NoError(t, gotErr)
}

func TestMergeErrors(t *testing.T) {
	t.Parallel()

	chan1 := make(chan error)
	ec1 := newErrorChan("first", chan1)
	chan2 := make(chan error)
	ec2 := newErrorChan("second", chan2)

	expectedError1 := errors.New("error 1")
	expectedError2 := errors.New("error 2")

	go func() {
		defer close(chan1)
		defer close(chan2)
		chan1 <- expectedError1
		chan2 <- expectedError2
	}()

	gotErrs := []error{}
	for err := range mergeErrors(ec1, ec2) {
		gotErrs = append(gotErrs, err)
	}

	sort.Slice(gotErrs, func(i, j int) bool {
		return gotErrs[i].Error() < gotErrs[j].Error()
	})

	require.Len(t, gotErrs, 2)
	assert.ErrorIs(t, gotErrs[0], expectedError1)
	assert.ErrorIs(t, gotErrs[1], expectedError2)
	assert.Equal(t, "first: error 1", gotErrs[0].Error())

	step, ok := FailedStep(gotErrs[1])
	assert.True(t, ok)
	assert.Equal(t, "second", step)
}

func TestFailedStepWithoutStep(t *testing.T) {
	t.Parallel()

	_, ok := FailedStep(errors.New("plain"))
	assert.False(t, ok)
}
