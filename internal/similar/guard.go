package similar

import "sync/atomic"

// Guard implements the discard-if-superseded pattern for asynchronous
// lookups: each request takes a ticket, and only the holder of the most
// recent ticket may apply its result.
type Guard struct {
	seq atomic.Uint64
}

// Next issues a new ticket, superseding all earlier ones.
func (g *Guard) Next() uint64 {
	return g.seq.Add(1)
}

// Current reports whether the ticket is still the latest.
func (g *Guard) Current(ticket uint64) bool {
	return g.seq.Load() == ticket
}
