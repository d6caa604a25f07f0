package engine

import "sync/atomic"

// Stats holds the pipeline's running counters as atomics owned by the
// pipeline object, per spec.md §9's "Global mutable state" note: the
// source keeps process-wide atomic timers, so here they are fields on
// a value the caller constructs and passes down, never a package
// global.
type Stats struct {
	KmersRead        int64
	SuperKmersEmitted int64
	TravellersEmitted int64
	SolidKmers       int64
	UnitigsEmitted   int64
	TipsRemoved      int64
	BulgesRemoved    int64
	ECsRemoved       int64
}

func (s *Stats) AddKmersRead(n int64)         { atomic.AddInt64(&s.KmersRead, n) }
func (s *Stats) AddSuperKmersEmitted(n int64) { atomic.AddInt64(&s.SuperKmersEmitted, n) }
func (s *Stats) AddTravellersEmitted(n int64) { atomic.AddInt64(&s.TravellersEmitted, n) }
func (s *Stats) AddSolidKmers(n int64)        { atomic.AddInt64(&s.SolidKmers, n) }
func (s *Stats) AddUnitigsEmitted(n int64)    { atomic.AddInt64(&s.UnitigsEmitted, n) }
func (s *Stats) AddTipsRemoved(n int64)       { atomic.AddInt64(&s.TipsRemoved, n) }
func (s *Stats) AddBulgesRemoved(n int64)     { atomic.AddInt64(&s.BulgesRemoved, n) }
func (s *Stats) AddECsRemoved(n int64)        { atomic.AddInt64(&s.ECsRemoved, n) }

// Snapshot returns a copy safe to read without racing the atomics.
func (s *Stats) Snapshot() Stats {
	return Stats{
		KmersRead:         atomic.LoadInt64(&s.KmersRead),
		SuperKmersEmitted: atomic.LoadInt64(&s.SuperKmersEmitted),
		TravellersEmitted: atomic.LoadInt64(&s.TravellersEmitted),
		SolidKmers:        atomic.LoadInt64(&s.SolidKmers),
		UnitigsEmitted:    atomic.LoadInt64(&s.UnitigsEmitted),
		TipsRemoved:       atomic.LoadInt64(&s.TipsRemoved),
		BulgesRemoved:     atomic.LoadInt64(&s.BulgesRemoved),
		ECsRemoved:        atomic.LoadInt64(&s.ECsRemoved),
	}
}
