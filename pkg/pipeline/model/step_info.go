package model

type stepType string

const (
	RootStepType   stepType = "root"
	NormalStepType stepType = "step"
	SinkStepType   stepType = "sink"
)

// StepInfo describes a stage of the pipeline.
type StepInfo struct {
	Type       stepType
	Name       string
	Concurrent int
}

// StartStep and EndStep are virtual steps framing every pipeline graph.
var (
	StartStep = &Step[any]{Details: &StepInfo{Name: "start"}}
	EndStep   = &Step[any]{Details: &StepInfo{Name: "end"}}
)

// Step is a stage output: the values it emits and its description.
type Step[O any] struct {
	Output  chan O
	Details *StepInfo
}
