package persist

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// DefaultSaveTimeout bounds a single detached save.
const DefaultSaveTimeout = 5 * time.Second

// Detached saves in a background goroutine. Failures are logged, never returned.
// Every notified text is saved once, in notification order.
type Detached struct {
	store   Store
	logger  *slog.Logger
	timeout time.Duration
	wg      sync.WaitGroup

	mu      sync.Mutex
	queue   []string
	running bool
}

// Detach wraps store. A nil logger uses slog.Default.
func Detach(store Store, logger *slog.Logger) *Detached {
	if logger == nil {
		logger = slog.Default()
	}

	return &Detached{store: store, logger: logger, timeout: DefaultSaveTimeout}
}

// Notify queues text for saving and returns at once.
func (d *Detached) Notify(text string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.queue = append(d.queue, text)
	if d.running {
		return
	}

	d.running = true
	d.wg.Add(1)

	go d.drain()
}

// drain saves the queued texts until the queue is empty.
func (d *Detached) drain() {
	defer d.wg.Done()

	for {
		d.mu.Lock()
		if len(d.queue) == 0 {
			d.running = false
			d.mu.Unlock()

			return
		}

		text := d.queue[0]
		d.queue[0] = ""
		d.queue = d.queue[1:]
		d.mu.Unlock()

		d.save(text)
	}
}

func (d *Detached) save(text string) {
	defer func() {
		if r := recover(); r != nil {
			d.logger.Warn("program save panicked", "panic", fmt.Sprint(r))
		}
	}()

	ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
	defer cancel()

	err := d.store.Save(ctx, text)
	if err != nil {
		d.logger.Warn("unable to save program", "error", err)
	}
}

// Wait blocks until every queued save is done.
func (d *Detached) Wait() {
	d.wg.Wait()
}
