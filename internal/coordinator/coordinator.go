package coordinator

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/pkg/errors"

	"github.com/askiada/go-livepipe/internal/debounce"
	"github.com/askiada/go-livepipe/internal/feed"
)

var (
	ErrClosed          = errors.New("coordinator closed")
	ErrAlreadyAttached = errors.New("a feed is already attached")
)

// Coordinator evaluates the program of a session over its input.
type Coordinator struct {
	comp       Compiler
	exec       Executor
	notifier   Notifier
	publishers []Publisher
	logger     *slog.Logger
	delay      time.Duration

	ctx       context.Context //nolint:containedctx // cancelled by Close
	cancel    context.CancelFunc
	debouncer *debounce.Debouncer

	// mu guards program, feed and seq. evaluate takes seq and its
	// snapshots under mu, so a higher seq never sees older state.
	mu      sync.Mutex
	program string
	feed    feed.Feed
	seq     uint64

	input InputBuffer

	publishMu     sync.Mutex
	lastPublished uint64
	closed        bool
	state         atomic.Pointer[Outcome]
}

// New creates a Coordinator. Nothing is evaluated until the first input arrives.
func New(comp Compiler, exec Executor, opts ...Option) *Coordinator {
	c := &Coordinator{
		comp:   comp,
		exec:   exec,
		logger: slog.Default(),
		delay:  DefaultDebounce,
	}

	for _, opt := range opts {
		opt(c)
	}

	c.ctx, c.cancel = context.WithCancel(context.Background())
	c.debouncer = debounce.New(c.delay, c.evaluate)
	c.state.Store(&Outcome{})

	return c
}

// OnProgramChanged replaces the program text and schedules an evaluation.
func (c *Coordinator) OnProgramChanged(text string) {
	c.mu.Lock()
	c.program = text
	c.mu.Unlock()

	c.debouncer.Schedule()

	if c.notifier != nil {
		c.notifier.Notify(text)
	}
}

// OnInputChunk appends chunk to the input and schedules an evaluation.
func (c *Coordinator) OnInputChunk(chunk []byte) {
	c.input.Append(chunk)
	c.debouncer.Schedule()
}

// OnInputClosed is called once the feed has ended. The input is then
// evaluated even if no byte was ever received.
func (c *Coordinator) OnInputClosed(err error) {
	if err != nil {
		c.logger.Warn("input feed ended with an error", "error", err)
	} else {
		c.logger.Debug("input feed ended")
	}

	c.input.MarkReady()
	c.debouncer.Schedule()
}

// Attach starts f and routes its chunks to the coordinator. f is stopped by Close.
func (c *Coordinator) Attach(f feed.Feed) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.ctx.Err() != nil {
		return ErrClosed
	}

	if c.feed != nil {
		return ErrAlreadyAttached
	}

	err := f.Start(c.OnInputChunk, c.OnInputClosed)
	if err != nil {
		return errors.Wrap(err, "unable to start feed")
	}

	c.feed = f

	return nil
}

// Program returns the current program text.
func (c *Coordinator) Program() string {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.program
}

// State returns the last published outcome. Its Kind is KindNone before the first publish.
func (c *Coordinator) State() Outcome {
	return *c.state.Load()
}

// Title names the session after its program.
func (c *Coordinator) Title() string {
	program := c.Program()
	if program == "" {
		program = "identity"
	}

	return "livepipe " + program
}

// Close stops the feed and the pending evaluation. Evaluations still running
// finish but their outcome is dropped.
func (c *Coordinator) Close() error {
	c.publishMu.Lock()
	c.closed = true
	c.publishMu.Unlock()

	c.debouncer.Stop()
	c.cancel()

	c.mu.Lock()
	f := c.feed
	c.feed = nil
	c.mu.Unlock()

	if f == nil {
		return nil
	}

	return errors.Wrap(f.Stop(), "unable to stop feed")
}

func (c *Coordinator) evaluate() {
	seq, program, input, ready := c.begin()
	if !ready {
		c.logger.Debug("evaluation skipped, no input yet")

		return
	}

	start := time.Now()

	out := Evaluate(c.ctx, c.comp, c.exec, program, input)
	out.Seq = seq

	c.logger.Debug("evaluation done",
		"seq", seq,
		"kind", out.Kind.String(),
		"input_bytes", len(input),
		"elapsed", time.Since(start),
	)

	c.publish(out)
}

// begin snapshots the program and the input and numbers the evaluation.
// No seq is used when the input is not ready.
func (c *Coordinator) begin() (uint64, string, []byte, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	input, ready := c.input.Snapshot()
	if !ready {
		return 0, "", nil, false
	}

	c.seq++

	return c.seq, c.program, input, true
}

func (c *Coordinator) publish(out Outcome) {
	c.publishMu.Lock()
	defer c.publishMu.Unlock()

	if c.closed {
		c.logger.Debug("outcome dropped, coordinator closed", "seq", out.Seq)

		return
	}

	if out.Seq <= c.lastPublished {
		c.logger.Debug("stale outcome discarded", "seq", out.Seq, "published", c.lastPublished)

		return
	}

	c.lastPublished = out.Seq
	c.state.Store(&out)

	for _, p := range c.publishers {
		p.Publish(out)
	}
}
