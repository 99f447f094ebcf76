package measure

import (
	"sort"
	"sync"
	"time"
)

type DefaultMeasure struct {
	mu    sync.RWMutex
	Steps map[string]Metric
}

func NewDefaultMeasure() *DefaultMeasure {
	return &DefaultMeasure{
		Steps: make(map[string]Metric),
	}
}

func (m *DefaultMeasure) AddMetric(name string, concurrent int) Metric {
	mt := &DefaultMetric{
		mu:            &sync.Mutex{},
		allTransports: make(map[string]*TransportInfo),
		concurrent:    max(concurrent, 1),
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.Steps[name] = mt

	return mt
}

func (m *DefaultMeasure) GetMetric(name string) Metric {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return m.Steps[name]
}

func (m *DefaultMeasure) AllMetrics() map[string]Metric {
	m.mu.RLock()
	defer m.mu.RUnlock()

	all := make(map[string]Metric, len(m.Steps))
	for name, mt := range m.Steps {
		all[name] = mt
	}

	return all
}

// StageStat is a point in time summary of a stage metric.
type StageStat struct {
	Name     string
	Count    int64
	Average  time.Duration
	Total    time.Duration
	Incoming map[string]time.Duration
}

// Snapshot summarises every stage, sorted by name.
func Snapshot(msr Measure) []StageStat {
	all := msr.AllMetrics()
	stats := make([]StageStat, 0, len(all))

	for name, mt := range all {
		stat := StageStat{
			Name:     name,
			Count:    mt.Count(),
			Average:  mt.AVGDuration(),
			Total:    mt.GetTotalDuration(),
			Incoming: make(map[string]time.Duration),
		}
		for input, info := range mt.AllTransports() {
			stat.Incoming[input] = info.Elapsed
		}

		stats = append(stats, stat)
	}

	sort.Slice(stats, func(i, j int) bool {
		return stats[i].Name < stats[j].Name
	})

	return stats
}

var _ Measure = (*DefaultMeasure)(nil)
