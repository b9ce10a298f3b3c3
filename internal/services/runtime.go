package services

import (
	"context"
	"sync"
	"time"

	"github.com/mroshb/anon_chat/internal/metrics"
	"github.com/mroshb/anon_chat/internal/models"
	"github.com/mroshb/anon_chat/pkg/errors"
	"github.com/mroshb/anon_chat/pkg/logger"
)

// WarningThreshold is how many time units before expiry the final warning
// and countdown start.
const WarningThreshold = 60

// endedRetention bounds how long terminated session ids are remembered so a
// late rehydration cannot resurrect them.
const endedRetention = 10 * time.Minute

type EndReason string

const (
	EndReasonStop          EndReason = "stop"
	EndReasonNext          EndReason = "next"
	EndReasonTimeout       EndReason = "timeout"
	EndReasonNoPreferences EndReason = "no_preferences"
)

// Termination describes a finished session. Initiator is zero for timeouts.
type Termination struct {
	SessionID string
	Initiator int64
	Peer      int64
	Reason    EndReason
}

type peerRef struct {
	peer      int64
	sessionID string
}

type countdownState struct {
	// messages and lastShown are owned by the countdown goroutine
	messages  map[int64]int
	lastShown int

	cancel context.CancelFunc
	done   chan struct{}
}

type sessionHandle struct {
	id       string
	a, b     int64
	deadline time.Time
	ending   bool

	cancel context.CancelFunc
	done   chan struct{}

	// non-nil while the session is in the warning phase
	countdown *countdownState
}

// RuntimeOptions tunes the runtime clock.
type RuntimeOptions struct {
	// Unit is one time unit. Settings are expressed in units and the
	// watchdog ticks once per unit. Defaults to one second.
	Unit time.Duration
}

// Runtime is the in-process authority over active sessions. It owns the
// participant index, per-session deadlines and the watchdog/countdown tasks.
// The mutex guards map mutation only and is never held across I/O.
type Runtime struct {
	store     SessionStore
	messenger Messenger
	menus     MenuResolver
	feedback  FeedbackHook
	settings  SettingsProvider
	unit      time.Duration
	now       func() time.Time

	mu       sync.Mutex
	index    map[int64]peerRef
	sessions map[string]*sessionHandle
	ended    map[string]time.Time
	closed   bool
}

func NewRuntime(store SessionStore, messenger Messenger, menus MenuResolver, feedback FeedbackHook, settings SettingsProvider, opts RuntimeOptions) *Runtime {
	unit := opts.Unit
	if unit <= 0 {
		unit = time.Second
	}

	return &Runtime{
		store:     store,
		messenger: messenger,
		menus:     menus,
		feedback:  feedback,
		settings:  settings,
		unit:      unit,
		now:       time.Now,
		index:     make(map[int64]peerRef),
		sessions:  make(map[string]*sessionHandle),
		ended:     make(map[string]time.Time),
	}
}

func (r *Runtime) window() time.Duration {
	return time.Duration(r.settings.InactivityWindow()) * r.unit
}

// Register starts tracking a freshly created session and its watchdog.
func (r *Runtime) Register(session *models.ChatSession) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.trackLocked(session)
}

func (r *Runtime) trackLocked(session *models.ChatSession) {
	if _, gone := r.ended[session.ID]; gone {
		return
	}

	h, exists := r.sessions[session.ID]
	if !exists {
		h = &sessionHandle{
			id:       session.ID,
			a:        session.ParticipantA,
			b:        session.ParticipantB,
			deadline: r.now().Add(r.window()),
		}
		r.sessions[session.ID] = h
		r.startWatchdogLocked(h)
		metrics.ActiveSessions.Inc()
	}

	r.index[h.a] = peerRef{peer: h.b, sessionID: h.id}
	r.index[h.b] = peerRef{peer: h.a, sessionID: h.id}
}

func (r *Runtime) startWatchdogLocked(h *sessionHandle) {
	if r.closed {
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	h.cancel = cancel
	h.done = make(chan struct{})
	go r.watch(ctx, h, h.done)
}

func watchdogAlive(h *sessionHandle) bool {
	if h.done == nil {
		return false
	}
	select {
	case <-h.done:
		return false
	default:
		return true
	}
}

// Materialize returns the participant's peer and session, rebuilding the
// runtime state from the store when the process has no record of it.
// ok is false when the participant has no active session.
func (r *Runtime) Materialize(participant int64) (peer int64, sessionID string, ok bool, err error) {
	r.mu.Lock()
	if ref, found := r.index[participant]; found {
		if h := r.sessions[ref.sessionID]; h != nil && !h.ending && !watchdogAlive(h) {
			logger.Warn("Restarting watchdog", "session_id", h.id)
			r.startWatchdogLocked(h)
		}
		r.mu.Unlock()
		return ref.peer, ref.sessionID, true, nil
	}
	r.mu.Unlock()

	session, err := r.store.ActiveSessionFor(participant)
	if err != nil {
		return 0, "", false, err
	}
	if session == nil {
		return 0, "", false, nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.trackLocked(session)
	ref, found := r.index[participant]
	if !found || ref.sessionID != session.ID {
		// Terminated while we were reading the store
		return 0, "", false, nil
	}

	logger.Info("Session restored from store", "session_id", session.ID, "user_id", participant, "peer_id", ref.peer)
	return ref.peer, ref.sessionID, true, nil
}

// Lookup returns the runtime entry for participant without consulting the store.
func (r *Runtime) Lookup(participant int64) (peer int64, sessionID string, ok bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	ref, ok := r.index[participant]
	return ref.peer, ref.sessionID, ok
}

// Touch records inbound activity: the deadline moves to now plus the
// current window and any countdown is cancelled and its messages removed.
// It reports whether the participant is in a tracked session.
func (r *Runtime) Touch(participant int64) bool {
	r.mu.Lock()
	ref, ok := r.index[participant]
	if !ok {
		r.mu.Unlock()
		return false
	}
	h := r.sessions[ref.sessionID]
	if h == nil || h.ending {
		r.mu.Unlock()
		return false
	}
	h.deadline = r.now().Add(r.window())
	cs := h.countdown
	h.countdown = nil
	r.mu.Unlock()

	if cs != nil {
		cs.cancel()
		<-cs.done
	}
	return true
}

// ExtendDeadlines moves every tracked deadline to now plus the current window.
func (r *Runtime) ExtendDeadlines() {
	r.mu.Lock()
	defer r.mu.Unlock()

	deadline := r.now().Add(r.window())
	for _, h := range r.sessions {
		if !h.ending {
			h.deadline = deadline
		}
	}
	logger.Info("Session deadlines extended", "sessions", len(r.sessions), "window_units", r.settings.InactivityWindow())
}

// EndSession marks all of the participant's active sessions inactive in the
// store. Runtime state is left to Cleanup.
func (r *Runtime) EndSession(participant int64) error {
	_, err := r.store.EndSessionsFor(participant)
	return err
}

// Cleanup drops runtime state for the session and stops its tasks. Safe to
// call more than once.
func (r *Runtime) Cleanup(sessionID string) {
	r.cleanup(sessionID, false)
}

func (r *Runtime) cleanup(sessionID string, fromWatchdog bool) {
	r.mu.Lock()
	h, ok := r.sessions[sessionID]
	if !ok {
		r.mu.Unlock()
		return
	}

	delete(r.sessions, sessionID)
	for _, p := range []int64{h.a, h.b} {
		if ref, found := r.index[p]; found && ref.sessionID == sessionID {
			delete(r.index, p)
		}
	}
	now := r.now()
	r.ended[sessionID] = now
	for id, at := range r.ended {
		if now.Sub(at) > endedRetention {
			delete(r.ended, id)
		}
	}

	cs := h.countdown
	h.countdown = nil
	cancel, done := h.cancel, h.done
	r.mu.Unlock()

	metrics.ActiveSessions.Dec()

	if cs != nil {
		cs.cancel()
		<-cs.done
	}
	if cancel != nil {
		cancel()
		if !fromWatchdog {
			<-done
		}
	}
}

// Terminate ends the participant's session exactly once: the store is
// updated, runtime state is removed, both sides are notified and the
// feedback hook runs for each. A concurrent second attempt gets ALREADY_DONE.
func (r *Runtime) Terminate(participant int64, reason EndReason) (*Termination, error) {
	_, sessionID, ok, err := r.Materialize(participant)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, errors.New(errors.ErrCodeNotFound, "no active session")
	}

	r.mu.Lock()
	h := r.sessions[sessionID]
	r.mu.Unlock()
	if h == nil {
		return nil, errors.New(errors.ErrCodeAlreadyDone, "session already ended")
	}

	return r.terminate(h, reason, participant, false)
}

func (r *Runtime) terminate(h *sessionHandle, reason EndReason, initiator int64, fromWatchdog bool) (*Termination, error) {
	r.mu.Lock()
	if r.sessions[h.id] != h || h.ending {
		r.mu.Unlock()
		return nil, errors.New(errors.ErrCodeAlreadyDone, "session already ending")
	}
	h.ending = true
	r.mu.Unlock()

	ended := []int64{initiator}
	if reason == EndReasonTimeout {
		ended = []int64{h.a, h.b}
	}
	for _, p := range ended {
		if err := r.EndSession(p); err != nil {
			r.mu.Lock()
			h.ending = false
			r.mu.Unlock()
			return nil, err
		}
	}

	r.cleanup(h.id, fromWatchdog)
	metrics.SessionsEnded.WithLabelValues(string(reason)).Inc()

	t := &Termination{SessionID: h.id, Initiator: initiator, Reason: reason}
	if reason == EndReasonTimeout {
		t.Peer = 0
	} else if initiator == h.a {
		t.Peer = h.b
	} else {
		t.Peer = h.a
	}

	logger.Info("Session terminated", "session_id", h.id, "reason", string(reason), "initiator", initiator)

	r.notify(h, t)
	if r.feedback != nil {
		r.feedback.OnSessionEnded(h.a, h.b, h.id)
		r.feedback.OnSessionEnded(h.b, h.a, h.id)
	}
	return t, nil
}

func (r *Runtime) notify(h *sessionHandle, t *Termination) {
	switch t.Reason {
	case EndReasonTimeout:
		r.messenger.SendMessage(h.a, MsgEndedByInactivity, r.menu(h.a))
		r.messenger.SendMessage(h.b, MsgEndedByInactivity, r.menu(h.b))
	case EndReasonStop:
		r.messenger.SendMessage(t.Initiator, MsgYouEndedChat, r.menu(t.Initiator))
		r.messenger.SendMessage(t.Peer, MsgPartnerEndedChat, r.menu(t.Peer))
	case EndReasonNext:
		r.messenger.SendMessage(t.Peer, MsgPartnerMovedOn, r.menu(t.Peer))
	case EndReasonNoPreferences:
		r.messenger.SendMessage(t.Peer, MsgPartnerEndedChat, r.menu(t.Peer))
	}
}

func (r *Runtime) menu(userID int64) interface{} {
	if r.menus == nil {
		return nil
	}
	return r.menus.MenuFor(userID)
}

// Deadline returns the current expiry instant of a tracked session.
func (r *Runtime) Deadline(sessionID string) (time.Time, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	h, ok := r.sessions[sessionID]
	if !ok {
		return time.Time{}, false
	}
	return h.deadline, true
}

// InWarning reports whether the session's countdown is running.
func (r *Runtime) InWarning(sessionID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	h, ok := r.sessions[sessionID]
	return ok && h.countdown != nil
}

// ActiveCount returns the number of runtime-tracked sessions.
func (r *Runtime) ActiveCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// Shutdown stops every watchdog and countdown without ending sessions; the
// store keeps them active for recovery after restart.
func (r *Runtime) Shutdown() {
	r.mu.Lock()
	r.closed = true
	handles := make([]*sessionHandle, 0, len(r.sessions))
	for _, h := range r.sessions {
		handles = append(handles, h)
	}
	r.mu.Unlock()

	for _, h := range handles {
		r.mu.Lock()
		cs := h.countdown
		h.countdown = nil
		cancel, done := h.cancel, h.done
		r.mu.Unlock()

		if cs != nil {
			cs.cancel()
			<-cs.done
		}
		if cancel != nil {
			cancel()
			<-done
		}
	}
	logger.Info("Session runtime stopped", "sessions", len(handles))
}
