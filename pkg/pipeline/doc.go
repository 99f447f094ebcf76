// Package pipeline provides a channel based engine to run a chain of stages over a stream of values.
//
// A pipeline starts with a root step producing values, continues with any number of steps transforming
// them (one to one, or one to many) and usually ends with a sink consuming them. Each stage runs in its
// own goroutine and values flow between stages through unbuffered channels, so ordering is preserved
// as long as a stage is not configured to run concurrently.
//
// The pipeline stops on the first error: the shared context is cancelled, every stage drains and exits,
// and Run reports the error decorated with the name of the stage that produced it. Run never returns
// while a stage goroutine is still alive, which lets callers safely release resources the stages use.
//
// Pipeline options (see the model package) observe the life of every stage. The measure and drawer
// packages use them to time stages and to render the pipeline graph.
package pipeline
