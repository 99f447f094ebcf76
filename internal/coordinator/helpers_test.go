package coordinator_test

import (
	"context"
	"io"
	"iter"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/askiada/go-livepipe/internal/compiler"
	"github.com/askiada/go-livepipe/internal/coordinator"
	"github.com/askiada/go-livepipe/internal/executor"
)

const (
	window  = 30 * time.Millisecond
	waitFor = 5 * time.Second
	tick    = 5 * time.Millisecond
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// countingCompiler counts the calls made to the real compiler.
type countingCompiler struct {
	inner *compiler.Compiler

	mu       sync.Mutex
	parsed   [][]string
	compiled int
}

func newCountingCompiler() *countingCompiler {
	return &countingCompiler{inner: compiler.New()}
}

func (c *countingCompiler) Parse(args []string) (*compiler.Options, error) {
	c.mu.Lock()
	c.parsed = append(c.parsed, args)
	c.mu.Unlock()

	return c.inner.Parse(args)
}

func (c *countingCompiler) Compile(opts *compiler.Options) (*compiler.Transform, error) {
	c.mu.Lock()
	c.compiled++
	c.mu.Unlock()

	return c.inner.Compile(opts)
}

func (c *countingCompiler) Help() string {
	return c.inner.Help()
}

func (c *countingCompiler) compileCalls() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.compiled
}

func (c *countingCompiler) parseCalls() [][]string {
	c.mu.Lock()
	defer c.mu.Unlock()

	return append([][]string(nil), c.parsed...)
}

// gatedExecutor holds the runs whose steps match a gate until it is released.
type gatedExecutor struct {
	inner   *executor.Executor
	gates   map[string]chan struct{}
	started chan string
}

func newGatedExecutor(gated ...string) *gatedExecutor {
	g := &gatedExecutor{
		inner:   executor.New(),
		gates:   make(map[string]chan struct{}),
		started: make(chan string, 100),
	}

	for _, key := range gated {
		g.gates[key] = make(chan struct{})
	}

	return g
}

func (g *gatedExecutor) Run(ctx context.Context, tr *compiler.Transform, input []byte) iter.Seq2[string, error] {
	key := strings.Join(tr.Steps(), " ")
	g.started <- key

	if gate, ok := g.gates[key]; ok {
		<-gate
	}

	return g.inner.Run(ctx, tr, input)
}

func (g *gatedExecutor) release(key string) {
	close(g.gates[key])
}

func (g *gatedExecutor) waitStarted(t *testing.T, key string) {
	t.Helper()

	timeout := time.After(waitFor)

	for {
		select {
		case got := <-g.started:
			if got == key {
				return
			}
		case <-timeout:
			require.FailNow(t, "run never started", key)
		}
	}
}

// recorder keeps every published outcome.
type recorder struct {
	mu       sync.Mutex
	outcomes []coordinator.Outcome
}

func (r *recorder) Publish(out coordinator.Outcome) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.outcomes = append(r.outcomes, out)
}

func (r *recorder) all() []coordinator.Outcome {
	r.mu.Lock()
	defer r.mu.Unlock()

	return append([]coordinator.Outcome(nil), r.outcomes...)
}

func (r *recorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	return len(r.outcomes)
}

func (r *recorder) seqs() []uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()

	seqs := make([]uint64, len(r.outcomes))
	for i, out := range r.outcomes {
		seqs[i] = out.Seq
	}

	return seqs
}

type notifier struct {
	mu    sync.Mutex
	texts []string
}

func (n *notifier) Notify(text string) {
	n.mu.Lock()
	defer n.mu.Unlock()

	n.texts = append(n.texts, text)
}

func (n *notifier) all() []string {
	n.mu.Lock()
	defer n.mu.Unlock()

	return append([]string(nil), n.texts...)
}
