package performance

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLockReleasesEntries(t *testing.T) {
	locks := NewVendorLocks()

	unlock := locks.Lock(3, 1, 3, 0)
	assert.Equal(t, 2, locks.size())

	unlock()
	assert.Equal(t, 0, locks.size())
}

func TestLockSerialisesSameVendor(t *testing.T) {
	locks := NewVendorLocks()

	var inside, peak atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock := locks.Lock(7)
			defer unlock()

			n := inside.Add(1)
			for {
				p := peak.Load()
				if n <= p || peak.CompareAndSwap(p, n) {
					break
				}
			}
			time.Sleep(time.Millisecond)
			inside.Add(-1)
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), peak.Load())
	assert.Equal(t, 0, locks.size())
}

func TestLockOppositeOrderDoesNotDeadlock(t *testing.T) {
	locks := NewVendorLocks()

	done := make(chan struct{})
	go func() {
		var wg sync.WaitGroup
		for i := 0; i < 50; i++ {
			wg.Add(2)
			go func() {
				defer wg.Done()
				locks.Lock(1, 2)()
			}()
			go func() {
				defer wg.Done()
				locks.Lock(2, 1)()
			}()
		}
		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("locking two vendors in opposite order deadlocked")
	}
}

func TestUniqueSorted(t *testing.T) {
	assert.Equal(t, []uint{1, 4, 9}, uniqueSorted([]uint{9, 0, 4, 1, 9}))
	assert.Empty(t, uniqueSorted(nil))
}
