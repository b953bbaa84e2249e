// apps/party-server/internal/clock/clock.go
//
// Time source used by the room coordinator. Both implementations sit on
// clockwork: Real() wraps its real clock, and Fake wraps a clockwork.FakeClock
// so that expiry timers and the 1 Hz game clock can be exercised without
// sleeping.
//
// clockwork fires AfterFunc callbacks on their own goroutines. Fake collects
// the due callbacks and runs them one at a time on the goroutine that called
// Advance, in deadline order, so tests see the same serial ordering the room
// loop gives them in production.

package clock

import (
	"sort"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
)

// Clock schedules callbacks and reports the current time.
type Clock interface {
	Now() time.Time
	AfterFunc(d time.Duration, f func()) Timer
}

// Timer is a cancellable scheduled callback.
type Timer interface {
	// Stop prevents the callback from firing. It returns false if the
	// callback already fired or the timer was already stopped.
	Stop() bool
}

type realClock struct{ c clockwork.Clock }

// Real returns a Clock backed by wall time.
func Real() Clock { return realClock{c: clockwork.NewRealClock()} }

func (r realClock) Now() time.Time { return r.c.Now() }

func (r realClock) AfterFunc(d time.Duration, f func()) Timer { return r.c.AfterFunc(d, f) }

// ---- fake ----

// Fake is a manually advanced Clock.
type Fake struct {
	fc *clockwork.FakeClock

	mu     sync.Mutex
	cond   *sync.Cond
	seq    int
	timers map[*fakeTimer]struct{} // armed: neither run nor stopped
}

type fakeTimer struct {
	fake  *Fake
	inner clockwork.Timer
	when  time.Time
	seq   int
	f     func()

	fired   bool // clockwork reached the deadline
	stopped bool
	ran     bool
}

// NewFake returns a Fake positioned at start.
func NewFake(start time.Time) *Fake {
	f := &Fake{
		fc:     clockwork.NewFakeClockAt(start),
		timers: make(map[*fakeTimer]struct{}),
	}
	f.cond = sync.NewCond(&f.mu)
	return f
}

// Now returns the fake current time.
func (f *Fake) Now() time.Time { return f.fc.Now() }

// AfterFunc schedules fn to run when the fake time reaches Now()+d.
func (f *Fake) AfterFunc(d time.Duration, fn func()) Timer {
	f.mu.Lock()
	f.seq++
	t := &fakeTimer{fake: f, when: f.fc.Now().Add(d), seq: f.seq, f: fn}
	f.timers[t] = struct{}{}
	f.mu.Unlock()

	inner := f.fc.AfterFunc(d, t.fire)

	f.mu.Lock()
	t.inner = inner
	f.mu.Unlock()
	return t
}

// Advance moves time forward by d, running every timer that becomes due in
// chronological order. Timers scheduled by callbacks also run if they fall
// inside the window. Callbacks run without the clock's lock held.
func (f *Fake) Advance(d time.Duration) {
	target := f.fc.Now().Add(d)

	for {
		due := f.dueAt(target)
		if len(due) == 0 {
			if gap := target.Sub(f.fc.Now()); gap > 0 {
				f.fc.Advance(gap)
			}
			return
		}
		// Advance(0) still fires timers that are already due.
		f.fc.Advance(max(due[0].when.Sub(f.fc.Now()), 0))
		f.await(due)

		for _, t := range due {
			f.mu.Lock()
			skip := t.stopped
			if !skip {
				t.ran = true
				delete(f.timers, t)
			}
			f.mu.Unlock()
			if !skip {
				t.f()
			}
		}
	}
}

// Pending returns the number of timers that have neither fired nor been stopped.
func (f *Fake) Pending() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.timers)
}

// dueAt returns the armed timers sharing the earliest deadline, if that
// deadline is not after target. Ties keep scheduling order.
func (f *Fake) dueAt(target time.Time) []*fakeTimer {
	f.mu.Lock()
	defer f.mu.Unlock()

	var due []*fakeTimer
	for t := range f.timers {
		if t.when.After(target) {
			continue
		}
		switch {
		case len(due) == 0 || t.when.Before(due[0].when):
			due = []*fakeTimer{t}
		case t.when.Equal(due[0].when):
			due = append(due, t)
		}
	}
	sort.Slice(due, func(i, j int) bool { return due[i].seq < due[j].seq })
	return due
}

// await blocks until clockwork has fired every timer in due.
func (f *Fake) await(due []*fakeTimer) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, t := range due {
		for !t.fired {
			f.cond.Wait()
		}
	}
}

func (t *fakeTimer) fire() {
	t.fake.mu.Lock()
	t.fired = true
	t.fake.cond.Broadcast()
	t.fake.mu.Unlock()
}

func (t *fakeTimer) Stop() bool {
	t.fake.mu.Lock()
	if t.ran || t.stopped {
		t.fake.mu.Unlock()
		return false
	}
	t.stopped = true
	delete(t.fake.timers, t)
	inner := t.inner
	t.fake.mu.Unlock()

	if inner != nil {
		inner.Stop()
	}
	return true
}
