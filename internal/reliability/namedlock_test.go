package reliability

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNamedLock_AcquireBlocksUntilReleased(t *testing.T) {
	lock := NewNamedLock()
	assert.True(t, lock.Acquire("sig-1", time.Minute))
	assert.False(t, lock.Acquire("sig-1", time.Minute))
	lock.Release("sig-1")
	assert.True(t, lock.Acquire("sig-1", time.Minute))
}

func TestNamedLock_ExpiresAfterTTL(t *testing.T) {
	lock := NewNamedLock()
	assert.True(t, lock.Acquire("sig-2", time.Millisecond))
	time.Sleep(5 * time.Millisecond)
	assert.True(t, lock.Acquire("sig-2", time.Minute))
}

func TestExpiringSet_ContainsUntilExpiry(t *testing.T) {
	set := NewExpiringSet()
	set.Add("005930", time.Millisecond)
	assert.True(t, set.Contains("005930"))
	time.Sleep(5 * time.Millisecond)
	assert.False(t, set.Contains("005930"))
}

func TestExpiringSet_Remove(t *testing.T) {
	set := NewExpiringSet()
	set.Add("005930", time.Minute)
	set.Remove("005930")
	assert.False(t, set.Contains("005930"))
}
