package server

import (
	"context"
	"sync"

	"github.com/askiada/go-livepipe/internal/feed"
)

// Broadcaster keeps every byte of the source input and fans it out.
// A subscriber first gets the backlog, then every later write.
type Broadcaster struct {
	mu      sync.Mutex
	data    []byte
	closed  bool
	err     error
	changed chan struct{}
}

func NewBroadcaster() *Broadcaster {
	return &Broadcaster{changed: make(chan struct{})}
}

// Write appends p to the backlog and wakes up the subscribers.
func (b *Broadcaster) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return 0, ErrBroadcasterClosed
	}

	b.data = append(b.data, p...)
	b.wake()

	return len(p), nil
}

// Close ends every subscription once it has caught up. err is given to
// the subscriber feeds.
func (b *Broadcaster) Close(err error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return
	}

	b.closed = true
	b.err = err
	b.wake()
}

func (b *Broadcaster) wake() {
	close(b.changed)
	b.changed = make(chan struct{})
}

// Len returns the size of the backlog.
func (b *Broadcaster) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()

	return len(b.data)
}

// Next blocks until bytes after offset are available and returns them.
// done is true once the broadcaster is closed and offset is at the end.
func (b *Broadcaster) Next(ctx context.Context, offset int) (chunk []byte, done bool, err error) {
	for {
		b.mu.Lock()
		size := len(b.data)

		if offset < size {
			chunk = b.data[offset:size:size]
			b.mu.Unlock()

			return chunk, false, nil
		}

		if b.closed {
			err = b.err
			b.mu.Unlock()

			return nil, true, err
		}

		changed := b.changed
		b.mu.Unlock()

		select {
		case <-ctx.Done():
			return nil, false, ctx.Err()
		case <-changed:
		}
	}
}

// Subscribe returns a Feed replaying the backlog then following the writes.
func (b *Broadcaster) Subscribe() feed.Feed {
	return &subscription{b: b}
}

type subscription struct {
	b *Broadcaster

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

func (s *subscription) Start(onChunk func([]byte), onClose func(error)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.done != nil {
		return feed.ErrAlreadyStarted
	}

	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	s.done = make(chan struct{})

	go func() {
		defer close(s.done)

		offset := 0

		for {
			chunk, done, err := s.b.Next(ctx, offset)
			if ctx.Err() != nil {
				return
			}

			if done {
				onClose(err)

				return
			}

			offset += len(chunk)
			onChunk(chunk)
		}
	}()

	return nil
}

// Stop waits for the delivery goroutine to exit.
func (s *subscription) Stop() error {
	s.mu.Lock()
	cancel, done := s.cancel, s.done
	s.mu.Unlock()

	if cancel == nil {
		return nil
	}

	cancel()
	<-done

	return nil
}
