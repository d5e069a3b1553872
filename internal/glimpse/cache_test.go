package glimpse

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCacheEntryMonotonicWrites(t *testing.T) {
	e := &cacheEntry{}
	now := time.Now()

	e.completeSuccess(now, linePayload(2))
	// A slow fetch from an older attempt lands late; it must not roll the
	// entry back.
	e.completeSuccess(now.Add(-time.Minute), linePayload(1))

	v := e.view()
	assert.True(t, linePayload(2).Equal(v.Payload))
	assert.Equal(t, now, v.LastSuccess)
}

func TestCacheEntryFailureClearsOnNextSuccess(t *testing.T) {
	e := &cacheEntry{}
	now := time.Now()

	e.completeFailure(errors.New("down"))
	assert.Error(t, e.view().LastErr)

	e.completeSuccess(now, linePayload(1))
	v := e.view()
	assert.NoError(t, v.LastErr)
	assert.True(t, v.HasPayload)
}

func TestCacheEntrySeedNeverOverwritesLiveData(t *testing.T) {
	e := &cacheEntry{}
	now := time.Now()

	e.completeSuccess(now, linePayload(5))
	e.seed(linePayload(1), now.Add(-time.Hour))

	v := e.view()
	assert.True(t, linePayload(5).Equal(v.Payload))
	assert.Equal(t, now, v.LastSuccess)
}

func TestCacheEntryBeginAttemptExclusive(t *testing.T) {
	e := &cacheEntry{}
	now := time.Now()

	assert.True(t, e.beginAttempt(now))
	assert.False(t, e.beginAttempt(now.Add(time.Second)), "second attempt while in flight is refused")

	e.completeFailure(errors.New("down"))
	assert.True(t, e.beginAttempt(now.Add(2*time.Second)), "flag clears when the attempt completes")
	e.abandon()
	assert.False(t, e.view().InFlight)
}
