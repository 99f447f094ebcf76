// Package feed delivers the bytes of an input source as a sequence of chunks.
//
// A Feed calls onChunk for every chunk read, in arrival order, and onClose at
// most once when the source ends. Once Stop returns no further callback is made.
// Callbacks must not call Stop.
package feed

import (
	"sync"

	"github.com/pkg/errors"
)

var (
	ErrAlreadyStarted = errors.New("feed already started")
	ErrUnknownSpec    = errors.New("unknown feed spec")
)

// Feed is an input source.
type Feed interface {
	Start(onChunk func([]byte), onClose func(error)) error
	Stop() error
}

const chunkSize = 32 * 1024

// callbacks serializes the calls to the user callbacks with Stop.
type callbacks struct {
	mu      sync.Mutex
	started bool
	stopped bool
	closed  bool
	onChunk func([]byte)
	onClose func(error)
}

func (c *callbacks) start(onChunk func([]byte), onClose func(error)) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.started {
		return ErrAlreadyStarted
	}

	c.started = true
	c.onChunk = onChunk
	c.onClose = onClose

	return nil
}

func (c *callbacks) chunk(b []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.stopped || c.closed || c.onChunk == nil {
		return
	}

	c.onChunk(b)
}

func (c *callbacks) close(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.stopped || c.closed {
		return
	}

	c.closed = true

	if c.onClose != nil {
		c.onClose(err)
	}
}

// stop reports whether this call is the one that stopped the feed.
func (c *callbacks) stop() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.stopped {
		return false
	}

	c.stopped = true

	return true
}
