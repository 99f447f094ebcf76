package coordinator

import (
	"sort"
	"strconv"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBeginNotReady(t *testing.T) {
	t.Parallel()

	c := New(nil, nil)
	t.Cleanup(func() { _ = c.Close() })

	seq, _, _, ready := c.begin()
	assert.False(t, ready)
	assert.Zero(t, seq)

	c.input.MarkReady()

	seq, _, _, ready = c.begin()
	assert.True(t, ready)
	assert.Equal(t, uint64(1), seq)
}

func TestBeginSeqFollowsState(t *testing.T) {
	t.Parallel()

	type started struct {
		seq      uint64
		program  int
		inputLen int
	}

	c := New(nil, nil)
	t.Cleanup(func() { _ = c.Close() })

	c.input.MarkReady()

	const writers = 200

	var (
		wg  sync.WaitGroup
		mu  sync.Mutex
		got []started
	)

	for i := 1; i <= writers; i++ {
		wg.Add(2)

		go func() {
			defer wg.Done()

			c.mu.Lock()
			if n, _ := strconv.Atoi(c.program); i > n {
				c.program = strconv.Itoa(i)
			}
			c.mu.Unlock()

			c.input.Append([]byte("x"))
		}()

		go func() {
			defer wg.Done()

			seq, program, input, ready := c.begin()
			if !ready {
				return
			}

			n, _ := strconv.Atoi(program)

			mu.Lock()
			got = append(got, started{seq: seq, program: n, inputLen: len(input)})
			mu.Unlock()
		}()
	}

	wg.Wait()

	require.Len(t, got, writers)

	sort.Slice(got, func(i, j int) bool { return got[i].seq < got[j].seq })

	for i := 1; i < len(got); i++ {
		assert.Equal(t, got[i-1].seq+1, got[i].seq)
		assert.GreaterOrEqual(t, got[i].program, got[i-1].program, "seq %d", got[i].seq)
		assert.GreaterOrEqual(t, got[i].inputLen, got[i-1].inputLen, "seq %d", got[i].seq)
	}
}
