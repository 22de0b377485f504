package ledger

import "sync"

// gatheringLocks hands out one mutex per gathering ID. Entries are dropped
// once no caller holds or waits on them.
type gatheringLocks struct {
	mu    sync.Mutex
	locks map[string]*gatheringLock
}

type gatheringLock struct {
	mu   sync.Mutex
	refs int
}

func newGatheringLocks() *gatheringLocks {
	return &gatheringLocks{locks: make(map[string]*gatheringLock)}
}

// lock blocks until the caller owns gatheringID and returns the release func.
func (g *gatheringLocks) lock(gatheringID string) func() {
	g.mu.Lock()
	l, ok := g.locks[gatheringID]
	if !ok {
		l = &gatheringLock{}
		g.locks[gatheringID] = l
	}
	l.refs++
	g.mu.Unlock()

	l.mu.Lock()

	return func() {
		l.mu.Unlock()

		g.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(g.locks, gatheringID)
		}
		g.mu.Unlock()
	}
}

// size reports how many gatherings currently have a lock entry.
func (g *gatheringLocks) size() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.locks)
}
