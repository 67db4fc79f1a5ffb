package semaphore

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSemaphore_TryPRespectsCapacity(t *testing.T) {
	s := New(1)
	assert.True(t, s.TryP())
	assert.False(t, s.TryP())
	s.V()
	assert.True(t, s.TryP())
}

func TestSemaphore_VPanicsOnUnbalancedRelease(t *testing.T) {
	s := New(1)
	assert.Panics(t, func() { s.V() })
}

func TestSet_TryLockIsAllOrNothing(t *testing.T) {
	set := NewSet()
	// Exhaust "b" via a direct acquire so a two-id TryLock must fail after
	// it has already taken "a" (ids are acquired in sorted order).
	assert.True(t, set.lookup("b").TryP())

	ok := set.TryLock([]string{"a", "b"})
	assert.False(t, ok)

	// "a" must have been released again since the lock was all-or-nothing.
	assert.True(t, set.lookup("a").TryP())
}

func TestSet_SizeSuffixControlsCapacity(t *testing.T) {
	set := NewSet()
	assert.True(t, set.TryLock([]string{"pool:2"}))
	assert.True(t, set.TryLock([]string{"pool:2"}))
	assert.False(t, set.TryLock([]string{"pool:2"}))
	set.Unlock([]string{"pool:2"})
	assert.True(t, set.TryLock([]string{"pool:2"}))
}
