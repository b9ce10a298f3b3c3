package services

import (
	"context"
	"fmt"
	"time"

	"github.com/mroshb/anon_chat/pkg/errors"
	"github.com/mroshb/anon_chat/pkg/logger"
)

// remainingUnits rounds up so a deadline 0.5 units away still shows 1.
func remainingUnits(deadline, now time.Time, unit time.Duration) int {
	left := deadline.Sub(now)
	if left <= 0 {
		return 0
	}
	return int((left + unit - 1) / unit)
}

func (r *Runtime) watch(ctx context.Context, h *sessionHandle, done chan struct{}) {
	defer close(done)
	defer func() {
		if rec := recover(); rec != nil {
			logger.Error("Watchdog panic", "session_id", h.id, "panic", rec)
		}
	}()

	ticker := time.NewTicker(r.unit)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if !r.tick(h) {
				return
			}
		}
	}
}

// tick runs one watchdog step and reports whether the watchdog should keep going.
func (r *Runtime) tick(h *sessionHandle) bool {
	r.mu.Lock()
	if r.sessions[h.id] != h || h.ending {
		r.mu.Unlock()
		return false
	}

	remaining := remainingUnits(h.deadline, r.now(), r.unit)
	if remaining > 0 {
		if remaining <= WarningThreshold && h.countdown == nil {
			r.startCountdownLocked(h)
		}
		r.mu.Unlock()
		return true
	}
	r.mu.Unlock()

	_, err := r.terminate(h, EndReasonTimeout, 0, true)
	switch {
	case err == nil:
		return false
	case errors.IsCode(err, errors.ErrCodeAlreadyDone):
		return false
	default:
		logger.Error("Failed to expire session, retrying", "session_id", h.id, "error", err)
		return true
	}
}

func (r *Runtime) startCountdownLocked(h *sessionHandle) {
	ctx, cancel := context.WithCancel(context.Background())
	cs := &countdownState{
		messages: make(map[int64]int, 2),
		cancel:   cancel,
		done:     make(chan struct{}),
	}
	h.countdown = cs
	go r.countdown(ctx, h, cs)
}

func (r *Runtime) countdown(ctx context.Context, h *sessionHandle, cs *countdownState) {
	defer close(cs.done)
	defer func() {
		for chatID, msgID := range cs.messages {
			r.messenger.DeleteMessage(chatID, msgID)
		}
		r.mu.Lock()
		if h.countdown == cs {
			h.countdown = nil
		}
		r.mu.Unlock()
	}()
	defer func() {
		if rec := recover(); rec != nil {
			logger.Error("Countdown panic", "session_id", h.id, "panic", rec)
		}
	}()

	remaining, ok := r.countdownRemaining(h)
	if !ok {
		return
	}
	cs.lastShown = remaining
	for _, p := range []int64{h.a, h.b} {
		if msgID := r.messenger.SendMessage(p, fmt.Sprintf(MsgInactivityWarning, remaining), nil); msgID != 0 {
			cs.messages[p] = msgID
		}
	}

	ticker := time.NewTicker(r.unit)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		if !r.refreshCountdown(h, cs) {
			return
		}
	}
}

// refreshCountdown edits the warning messages when the shown value changed.
// It reports false once the session has left its warning phase.
func (r *Runtime) refreshCountdown(h *sessionHandle, cs *countdownState) bool {
	remaining, ok := r.countdownRemaining(h)
	if !ok {
		return false
	}
	if remaining == cs.lastShown {
		return true
	}

	cs.lastShown = remaining
	text := fmt.Sprintf(MsgCountdown, remaining)
	for chatID, msgID := range cs.messages {
		r.messenger.EditMessage(chatID, msgID, text, nil)
	}
	return true
}

// countdownRemaining reports the units left while the session is still in
// its warning phase.
func (r *Runtime) countdownRemaining(h *sessionHandle) (int, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.sessions[h.id] != h || h.ending {
		return 0, false
	}
	remaining := remainingUnits(h.deadline, r.now(), r.unit)
	if remaining <= 0 || remaining > WarningThreshold {
		return 0, false
	}
	return remaining, true
}
