package glimpse

import (
	"math"
	"sync/atomic"
	"time"
)

type statsCollector struct {
	totalFetches atomic.Uint64
	totalErrors  atomic.Uint64
	totalNanos   atomic.Uint64
	minNanos     atomic.Uint64
	maxNanos     atomic.Uint64
}

func newStatsCollector() *statsCollector {
	s := &statsCollector{}
	s.minNanos.Store(math.MaxUint64)
	return s
}

func (s *statsCollector) Observe(took time.Duration, failed bool) {
	if took < 0 {
		took = 0
	}
	n := uint64(took.Nanoseconds())

	s.totalFetches.Add(1)
	if failed {
		s.totalErrors.Add(1)
	}
	s.totalNanos.Add(n)

	for {
		cur := s.minNanos.Load()
		if n >= cur {
			break
		}
		if s.minNanos.CompareAndSwap(cur, n) {
			break
		}
	}
	for {
		cur := s.maxNanos.Load()
		if n <= cur {
			break
		}
		if s.maxNanos.CompareAndSwap(cur, n) {
			break
		}
	}
}

type statsSnapshot struct {
	TotalFetches uint64
	TotalErrors  uint64
	MinFetch     time.Duration
	AvgFetch     time.Duration
	MaxFetch     time.Duration
}

func (s *statsCollector) Snapshot() statsSnapshot {
	count := s.totalFetches.Load()
	if count == 0 {
		return statsSnapshot{}
	}
	minv := s.minNanos.Load()
	if minv == math.MaxUint64 {
		minv = 0
	}
	total := s.totalNanos.Load()
	return statsSnapshot{
		TotalFetches: count,
		TotalErrors:  s.totalErrors.Load(),
		MinFetch:     time.Duration(minv),
		AvgFetch:     time.Duration(total / count),
		MaxFetch:     time.Duration(s.maxNanos.Load()),
	}
}
