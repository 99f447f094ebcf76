// Package coordinator owns the program text and the input of a session and
// decides when an evaluation runs and whether its outcome is published.
//
// Program edits and input chunks go through the same debounce window. Every
// evaluation gets a sequence number when it starts, and its outcome is
// published only if no evaluation with a higher number has been published
// already, whatever the completion order.
package coordinator
