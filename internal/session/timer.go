package session

import (
	"sync"
	"sync/atomic"
	"time"
)

// Ticker is a source of countdown ticks.
type Ticker interface {
	C() <-chan time.Time
	Stop()
}

// TickerFactory builds a Ticker firing every d.
type TickerFactory func(d time.Duration) Ticker

type realTicker struct{ t *time.Ticker }

func (r realTicker) C() <-chan time.Time { return r.t.C }
func (r realTicker) Stop()               { r.t.Stop() }

// RealTicker is the wall-clock TickerFactory.
func RealTicker(d time.Duration) Ticker {
	return realTicker{t: time.NewTicker(d)}
}

// Timer counts a session down once per second. When a tick finds one
// second or less remaining it pins the value at zero, calls onExpire
// exactly once and stops.
type Timer struct {
	remaining atomic.Int64
	newTicker TickerFactory
	onTick    func(remaining int)
	onExpire  func()

	stop      chan struct{}
	stopOnce  sync.Once
	startOnce sync.Once
	expired   atomic.Bool
}

// NewTimer creates a stopped timer holding seconds.
func NewTimer(seconds int, factory TickerFactory, onTick func(int), onExpire func()) *Timer {
	if factory == nil {
		factory = RealTicker
	}
	if seconds < 0 {
		seconds = 0
	}
	t := &Timer{
		newTicker: factory,
		onTick:    onTick,
		onExpire:  onExpire,
		stop:      make(chan struct{}),
	}
	t.remaining.Store(int64(seconds))
	return t
}

// Start begins ticking. Calls after the first, or after Stop, do nothing.
func (t *Timer) Start() {
	t.startOnce.Do(func() {
		select {
		case <-t.stop:
			return
		default:
		}
		go t.run(t.newTicker(time.Second))
	})
}

// Stop halts the countdown. It is safe to call more than once and from the
// expiry callback.
func (t *Timer) Stop() {
	t.stopOnce.Do(func() { close(t.stop) })
}

// Remaining returns the seconds left.
func (t *Timer) Remaining() int {
	return int(t.remaining.Load())
}

// Expired reports whether the countdown reached zero.
func (t *Timer) Expired() bool {
	return t.expired.Load()
}

func (t *Timer) run(tk Ticker) {
	defer tk.Stop()

	for {
		select {
		case <-t.stop:
			return
		case <-tk.C():
			// A tick racing Stop is dropped.
			select {
			case <-t.stop:
				return
			default:
			}

			if t.tick() {
				if t.expired.CompareAndSwap(false, true) && t.onExpire != nil {
					t.onExpire()
				}
				return
			}
		}
	}
}

// tick decrements the countdown and reports whether it hit zero.
func (t *Timer) tick() bool {
	prev := t.remaining.Load()
	next := prev - 1
	if prev <= 1 {
		next = 0
	}
	t.remaining.Store(next)
	if t.onTick != nil {
		t.onTick(int(next))
	}
	return next == 0
}
