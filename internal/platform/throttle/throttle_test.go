// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package throttle_test

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/quizdesk/internal/platform/throttle"
)

var epoch = time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)

func at(seconds int) time.Time {
	return epoch.Add(time.Duration(seconds) * time.Second)
}

func newThrottle(t *testing.T, ceiling int, window time.Duration) *throttle.Throttle {
	t.Helper()
	limiter, err := throttle.New(throttle.Policy{Name: "test", Ceiling: ceiling, Window: window})
	require.NoError(t, err)
	return limiter
}

/*
TestAdmit_WindowBoundary walks ceiling=3, window=60s: t=0,1,2 admitted,
t=3 denied, t=61 admitted once the t=0 entry has left the window.
*/
func TestAdmit_WindowBoundary(t *testing.T) {
	limiter := newThrottle(t, 3, time.Minute)

	for _, second := range []int{0, 1, 2} {
		decision := limiter.Admit("ip:10.0.0.1", at(second))
		assert.True(t, decision.Allowed, "t=%d", second)
	}

	denied := limiter.Admit("ip:10.0.0.1", at(3))
	assert.False(t, denied.Allowed)
	assert.Equal(t, 57*time.Second, denied.RetryAfter)
	assert.Equal(t, 57, denied.RetryAfterSeconds())

	assert.True(t, limiter.Admit("ip:10.0.0.1", at(61)).Allowed)
}

/*
TestAdmit_DeniedRequestsAreNotRecorded verifies a denial does not extend the
lockout: the retry hint keeps pointing at the oldest admitted entry.
*/
func TestAdmit_DeniedRequestsAreNotRecorded(t *testing.T) {
	limiter := newThrottle(t, 1, 10*time.Second)

	require.True(t, limiter.Admit("k", at(0)).Allowed)
	for second := 1; second < 10; second++ {
		decision := limiter.Admit("k", at(second))
		require.False(t, decision.Allowed)
		assert.Equal(t, time.Duration(10-second)*time.Second, decision.RetryAfter)
	}

	assert.True(t, limiter.Admit("k", at(10)).Allowed)
}

/*
TestAdmit_LateClockReadKeepsOrder verifies an entry timed before the newest
stored one does not make Sweep drop a subject that is still active.
*/
func TestAdmit_LateClockReadKeepsOrder(t *testing.T) {
	limiter := newThrottle(t, 3, 10*time.Second)

	require.True(t, limiter.Admit("k", at(5)).Allowed)
	require.True(t, limiter.Admit("k", at(4)).Allowed)

	assert.Zero(t, limiter.Sweep(epoch.Add(14500*time.Millisecond)))
	assert.Equal(t, 1, limiter.Len())

	require.True(t, limiter.Admit("k", at(6)).Allowed)
	assert.False(t, limiter.Admit("k", at(7)).Allowed)
	assert.Equal(t, 1, limiter.Sweep(at(17)))
}

/*
TestAdmit_Remaining verifies the remaining budget countdown.
*/
func TestAdmit_Remaining(t *testing.T) {
	limiter := newThrottle(t, 3, time.Minute)

	assert.Equal(t, 2, limiter.Admit("k", at(0)).Remaining)
	assert.Equal(t, 1, limiter.Admit("k", at(1)).Remaining)
	assert.Equal(t, 0, limiter.Admit("k", at(2)).Remaining)
}

/*
TestAdmit_KeysAreIndependent verifies one subject cannot exhaust another.
*/
func TestAdmit_KeysAreIndependent(t *testing.T) {
	limiter := newThrottle(t, 2, time.Minute)

	limiter.Admit("sub:a", at(0))
	limiter.Admit("sub:a", at(0))
	assert.False(t, limiter.Admit("sub:a", at(1)).Allowed)

	assert.True(t, limiter.Admit("sub:b", at(1)).Allowed)
	assert.True(t, limiter.Admit("ip:10.0.0.1", at(1)).Allowed)
}

/*
TestAdmit_InstancesAreIsolated verifies two throttles never share state.
*/
func TestAdmit_InstancesAreIsolated(t *testing.T) {
	strict := newThrottle(t, 1, time.Minute)
	general := newThrottle(t, 100, 15*time.Minute)

	require.True(t, strict.Admit("k", at(0)).Allowed)
	assert.False(t, strict.Admit("k", at(1)).Allowed)
	assert.True(t, general.Admit("k", at(1)).Allowed)
}

/*
TestAdmit_ConcurrentCeilingOne fires N parallel admissions for one key with
ceiling=1 and expects exactly one to pass, for several N.
*/
func TestAdmit_ConcurrentCeilingOne(t *testing.T) {
	for _, workers := range []int{2, 8, 64, 256} {
		t.Run(fmt.Sprintf("n=%d", workers), func(t *testing.T) {
			limiter := newThrottle(t, 1, time.Hour)

			var allowed atomic.Int64
			var group sync.WaitGroup
			start := make(chan struct{})

			for i := 0; i < workers; i++ {
				group.Add(1)
				go func() {
					defer group.Done()
					<-start
					if limiter.Admit("shared", epoch).Allowed {
						allowed.Add(1)
					}
				}()
			}

			close(start)
			group.Wait()
			assert.Equal(t, int64(1), allowed.Load())
		})
	}
}

/*
TestAdmit_ConcurrentWithSweep verifies sweeping never lets a key exceed its
ceiling while admissions are in flight.
*/
func TestAdmit_ConcurrentWithSweep(t *testing.T) {
	limiter := newThrottle(t, 5, time.Hour)

	var allowed atomic.Int64
	var group sync.WaitGroup

	for i := 0; i < 100; i++ {
		group.Add(2)
		go func() {
			defer group.Done()
			if limiter.Admit("shared", epoch).Allowed {
				allowed.Add(1)
			}
		}()
		go func() {
			defer group.Done()
			limiter.Sweep(epoch)
		}()
	}

	group.Wait()
	assert.Equal(t, int64(5), allowed.Load())
}

/*
TestSweep_RemovesIdleSubjects verifies only subjects with no live entry go.
*/
func TestSweep_RemovesIdleSubjects(t *testing.T) {
	limiter := newThrottle(t, 10, time.Minute)

	limiter.Admit("old", at(0))
	limiter.Admit("fresh", at(50))
	require.Equal(t, 2, limiter.Len())

	assert.Equal(t, 1, limiter.Sweep(at(90)))
	assert.Equal(t, 1, limiter.Len())

	// The surviving key keeps its history.
	assert.Equal(t, 8, limiter.Admit("fresh", at(91)).Remaining)
}

/*
TestStartJanitor_StopsOnCancel verifies the janitor sweeps and exits.
*/
func TestStartJanitor_StopsOnCancel(t *testing.T) {
	limiter := newThrottle(t, 1, time.Millisecond)
	limiter.Admit("k", time.Now().Add(-time.Second))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	swept := make(chan int, 16)
	limiter.StartJanitor(ctx, 5*time.Millisecond, func(removed int) { swept <- removed })

	select {
	case <-swept:
	case <-time.After(2 * time.Second):
		t.Fatal("janitor never swept")
	}
	assert.Equal(t, 0, limiter.Len())
}

/*
TestNew_RejectsInvalidPolicy verifies configuration guards.
*/
func TestNew_RejectsInvalidPolicy(t *testing.T) {
	_, err := throttle.New(throttle.Policy{Name: "zero", Ceiling: 0, Window: time.Minute})
	assert.Error(t, err)

	_, err = throttle.New(throttle.Policy{Name: "nowindow", Ceiling: 1})
	assert.Error(t, err)
}
