package usecase

import "sync"

// ProgressFunc receives human readable progress messages
type ProgressFunc func(msg string)

// progressReporter serializes calls to a ProgressFunc coming from workers
type progressReporter struct {
	mu sync.Mutex
	fn ProgressFunc
}

func newProgressReporter(fn ProgressFunc) *progressReporter {
	return &progressReporter{fn: fn}
}

func (p *progressReporter) Send(msg string) {
	if p == nil || p.fn == nil {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.fn(msg)
}
