// internal/feedback/toast.go
//
// Signup – feedback: the bottom-of-screen toast.
//
// Context
//   A toast shows one message at a time and hides itself after a fixed delay.
//   The hide timer is a single slot.  Show cancels whatever hide is pending
//   before scheduling its own, and every scheduled hide carries the
//   generation it was created for, so a callback that fires late (Stop lost
//   the race) finds a newer generation and does nothing.
//
//------------------------------------------------------------------------------

package feedback

import (
	"sync"
	"time"
)

// ToastDelay is how long a toast stays visible.
const ToastDelay = 3800 * time.Millisecond

// scheduler runs f after d and returns a function that cancels it.  The
// default wraps time.AfterFunc; tests substitute a manual clock.
type scheduler func(d time.Duration, f func()) (cancel func() bool)

func afterFunc(d time.Duration, f func()) func() bool {
	return time.AfterFunc(d, f).Stop
}

// ToastState is a point-in-time copy of the toast.
type ToastState struct {
	Message string `json:"message"`
	IsError bool   `json:"isError"`
	Visible bool   `json:"visible"`
}

// Toast is safe for concurrent use.
type Toast struct {
	mu       sync.Mutex
	state    ToastState
	gen      uint64
	cancel   func() bool
	delay    time.Duration
	schedule scheduler
}

// NewToast returns a hidden toast that auto-hides after delay.  A zero delay
// uses ToastDelay.
func NewToast(delay time.Duration) *Toast {
	if delay <= 0 {
		delay = ToastDelay
	}
	return &Toast{delay: delay, schedule: afterFunc}
}

// Show replaces the message, makes the toast visible, and restarts the hide
// timer.
func (t *Toast) Show(message string, isError bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.cancel != nil {
		t.cancel()
	}
	t.gen++
	gen := t.gen
	t.state = ToastState{Message: message, IsError: isError, Visible: true}
	t.cancel = t.schedule(t.delay, func() { t.expire(gen) })
}

// Hide hides the toast immediately and drops any pending timer.
func (t *Toast) Hide() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.cancel != nil {
		t.cancel()
		t.cancel = nil
	}
	t.gen++
	t.state.Visible = false
}

// State returns a copy of the current toast.
func (t *Toast) State() ToastState {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}

func (t *Toast) expire(gen uint64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if gen != t.gen {
		return // superseded by a newer Show
	}
	t.state.Visible = false
	t.cancel = nil
}
