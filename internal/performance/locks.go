package performance

import (
	"sort"
	"sync"
)

// VendorLocks serialises recomputation per vendor inside this process
type VendorLocks struct {
	mu    sync.Mutex
	locks map[uint]*vendorLock
}

type vendorLock struct {
	mu   sync.Mutex
	refs int
}

// NewVendorLocks returns an empty lock table
func NewVendorLocks() *VendorLocks {
	return &VendorLocks{locks: make(map[uint]*vendorLock)}
}

// Lock acquires the locks of every given vendor in ascending id order and
// returns the function that releases them. Duplicate and zero ids are ignored.
func (l *VendorLocks) Lock(vendorIDs ...uint) (unlock func()) {
	ids := uniqueSorted(vendorIDs)

	held := make([]*vendorLock, 0, len(ids))
	for _, id := range ids {
		vl := l.acquire(id)
		vl.mu.Lock()
		held = append(held, vl)
	}

	return func() {
		for i := len(held) - 1; i >= 0; i-- {
			held[i].mu.Unlock()
			l.release(ids[i])
		}
	}
}

func (l *VendorLocks) acquire(id uint) *vendorLock {
	l.mu.Lock()
	defer l.mu.Unlock()
	vl, ok := l.locks[id]
	if !ok {
		vl = &vendorLock{}
		l.locks[id] = vl
	}
	vl.refs++
	return vl
}

func (l *VendorLocks) release(id uint) {
	l.mu.Lock()
	defer l.mu.Unlock()
	vl, ok := l.locks[id]
	if !ok {
		return
	}
	vl.refs--
	if vl.refs == 0 {
		delete(l.locks, id)
	}
}

// size reports the number of live entries
func (l *VendorLocks) size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.locks)
}

func uniqueSorted(ids []uint) []uint {
	out := make([]uint, 0, len(ids))
	seen := make(map[uint]struct{}, len(ids))
	for _, id := range ids {
		if id == 0 {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
