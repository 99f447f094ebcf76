package measure_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/askiada/go-livepipe/pkg/pipeline/measure"
)

func TestMetric(t *testing.T) {
	t.Parallel()

	msr := measure.NewDefaultMeasure()
	mt := msr.AddMetric("step", 2)

	mt.AddDuration(2 * time.Millisecond)
	mt.AddDuration(4 * time.Millisecond)
	mt.AddTransportDuration("root", 8*time.Millisecond)
	mt.AddTransportDuration("root", 4*time.Millisecond)
	mt.SetTotalDuration(time.Second)

	assert.EqualValues(t, 2, mt.Count())
	assert.Equal(t, 3*time.Millisecond, mt.AVGDuration())
	assert.Equal(t, time.Second, mt.GetTotalDuration())

	avg := mt.AVGTransportDuration()
	require.Contains(t, avg, "root")
	// 12ms over 2 values, spread over 2 goroutines
	assert.Equal(t, 3*time.Millisecond, avg["root"].Elapsed)

	// the average is a copy
	avg["root"].Elapsed = 0
	assert.Equal(t, 12*time.Millisecond, mt.AllTransports()["root"].Elapsed)
}

func TestEmptyMetric(t *testing.T) {
	t.Parallel()

	mt := measure.NewDefaultMeasure().AddMetric("idle", 0)

	assert.Zero(t, mt.Count())
	assert.Zero(t, mt.AVGDuration())
	assert.Empty(t, mt.AVGTransportDuration())
}

func TestSnapshot(t *testing.T) {
	t.Parallel()

	msr := measure.NewDefaultMeasure()
	msr.AddMetric("b", 1).AddDuration(time.Millisecond)
	msr.AddMetric("a", 1).AddTransportDuration("b", time.Millisecond)

	stats := measure.Snapshot(msr)
	require.Len(t, stats, 2)
	assert.Equal(t, "a", stats[0].Name)
	assert.Equal(t, map[string]time.Duration{"b": time.Millisecond}, stats[0].Incoming)
	assert.Equal(t, "b", stats[1].Name)
	assert.EqualValues(t, 1, stats[1].Count)
	assert.Equal(t, time.Millisecond, stats[1].Average)
}
