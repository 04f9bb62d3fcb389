package editor

import "time"

// Quiet periods and pacing used by the editor. All timers are single-shot and
// reset on retrigger.
const (
	SuggestDebounce       = 500 * time.Millisecond
	TypingSettle          = 800 * time.Millisecond
	DoubleBackspaceWindow = 300 * time.Millisecond
	RevealInterval        = 40 * time.Millisecond
)

// Timer is a pending callback created by a Loop.
type Timer interface {
	Stop() bool
}

// Loop is the single goroutine that owns an Editor. Every callback handed to
// AfterFunc and every continuation returned from a Spawn'd work function must
// run on that goroutine.
type Loop interface {
	AfterFunc(d time.Duration, fn func()) Timer
	// Spawn runs work off the loop and applies the returned continuation
	// (if non-nil) back on the loop.
	Spawn(work func() func())
}

// debounce fires fn once the trigger has been quiet for wait.
type debounce struct {
	loop  Loop
	wait  time.Duration
	timer Timer
	gen   uint64
}

func newDebounce(loop Loop, wait time.Duration) *debounce {
	return &debounce{loop: loop, wait: wait}
}

func (d *debounce) Trigger(fn func()) {
	d.Cancel()
	gen := d.gen
	d.timer = d.loop.AfterFunc(d.wait, func() {
		// a stopped timer may still have been queued on the loop
		if gen != d.gen {
			return
		}
		d.timer = nil
		fn()
	})
}

func (d *debounce) Cancel() {
	d.gen++
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
}

func (d *debounce) Pending() bool {
	return d.timer != nil
}
