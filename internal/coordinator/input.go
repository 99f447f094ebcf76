package coordinator

import "sync"

// InputBuffer accumulates the bytes of the input feed. It is append only.
//
// ready is set by the first delivery, even an empty one, or by the end of the
// feed. An empty but ready buffer is evaluated, a buffer that is not ready is not.
type InputBuffer struct {
	mu    sync.RWMutex
	data  []byte
	ready bool
}

// Append adds b and marks the buffer ready.
func (b *InputBuffer) Append(chunk []byte) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.data = append(b.data, chunk...)
	b.ready = true
}

// MarkReady marks the buffer ready without adding anything.
func (b *InputBuffer) MarkReady() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.ready = true
}

// Snapshot returns the bytes received so far. Later appends never change the
// returned slice.
func (b *InputBuffer) Snapshot() ([]byte, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	n := len(b.data)

	return b.data[:n:n], b.ready
}

func (b *InputBuffer) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()

	return len(b.data)
}
