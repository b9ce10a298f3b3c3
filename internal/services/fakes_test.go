package services

import (
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/mroshb/anon_chat/internal/models"
	"github.com/mroshb/anon_chat/pkg/errors"
)

type pairKey struct {
	user, partner int64
}

type memoryStore struct {
	mu       sync.Mutex
	queue    map[int64]models.QueueEntry
	sessions map[string]*models.ChatSession
	ledger   map[pairKey]int

	endErr       error
	conflictNext bool
	endCalls     int
}

func newMemoryStore() *memoryStore {
	return &memoryStore{
		queue:    make(map[int64]models.QueueEntry),
		sessions: make(map[string]*models.ChatSession),
		ledger:   make(map[pairKey]int),
	}
}

func (s *memoryStore) Enqueue(entry *models.QueueEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.queue[entry.UserID] = *entry
	return nil
}

func (s *memoryStore) Dequeue(userID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.queue, userID)
	return nil
}

func (s *memoryStore) InQueue(userID int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.queue[userID]
	return ok, nil
}

func (s *memoryStore) FindPartner(requesterID int64, gender, seeking string) (int64, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries := make([]models.QueueEntry, 0, len(s.queue))
	for _, e := range s.queue {
		entries = append(entries, e)
	}
	sort.Slice(entries, func(i, j int) bool {
		if !entries[i].EnqueuedAt.Equal(entries[j].EnqueuedAt) {
			return entries[i].EnqueuedAt.Before(entries[j].EnqueuedAt)
		}
		return entries[i].UserID < entries[j].UserID
	})

	for _, e := range entries {
		if e.UserID == requesterID {
			continue
		}
		if s.ledger[pairKey{requesterID, e.UserID}] > 0 {
			continue
		}
		if models.Compatible(gender, seeking, e.Gender, e.Seeking) {
			return e.UserID, true, nil
		}
	}
	return 0, false, nil
}

func (s *memoryStore) StartSession(a, b int64) (*models.ChatSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.conflictNext {
		s.conflictNext = false
		delete(s.queue, b)
		return nil, errors.New(errors.ErrCodeConflict, "participant is no longer queued")
	}

	_, okA := s.queue[a]
	_, okB := s.queue[b]
	if !okA || !okB {
		return nil, errors.New(errors.ErrCodeConflict, "participant is no longer queued")
	}
	for _, sess := range s.sessions {
		if sess.Active && (sess.Involves(a) || sess.Involves(b)) {
			return nil, errors.New(errors.ErrCodeConflict, "participant already in a session")
		}
	}

	delete(s.queue, a)
	delete(s.queue, b)
	sess := &models.ChatSession{
		ID:           uuid.NewString(),
		ParticipantA: a,
		ParticipantB: b,
		Active:       true,
		StartedAt:    time.Now(),
	}
	s.sessions[sess.ID] = sess
	copied := *sess
	return &copied, nil
}

func (s *memoryStore) ActiveSessionFor(userID int64) (*models.ChatSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var latest *models.ChatSession
	for _, sess := range s.sessions {
		if sess.Active && sess.Involves(userID) && (latest == nil || sess.StartedAt.After(latest.StartedAt)) {
			latest = sess
		}
	}
	if latest == nil {
		return nil, nil
	}
	copied := *latest
	return &copied, nil
}

func (s *memoryStore) GetSession(sessionID string) (*models.ChatSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[sessionID]
	if !ok {
		return nil, errors.New(errors.ErrCodeNotFound, "session not found")
	}
	copied := *sess
	return &copied, nil
}

func (s *memoryStore) EndSessionsFor(userID int64) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.endCalls++
	if s.endErr != nil {
		return 0, s.endErr
	}

	var n int64
	for _, sess := range s.sessions {
		if sess.Active && sess.Involves(userID) {
			sess.Active = false
			now := time.Now()
			sess.EndedAt = &now
			n++
		}
	}
	return n, nil
}

func (s *memoryStore) SetReveal(sessionID string, userID int64) (*models.ChatSession, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[sessionID]
	if !ok || !sess.Active {
		return nil, false, errors.New(errors.ErrCodeNotFound, "no active session")
	}
	if !sess.Involves(userID) {
		return nil, false, errors.New(errors.ErrCodeForbidden, "user is not part of the session")
	}

	changed := !sess.RevealedBy(userID)
	if userID == sess.ParticipantA {
		sess.RevealA = true
	} else {
		sess.RevealB = true
	}
	copied := *sess
	return &copied, changed, nil
}

func (s *memoryStore) RecordSeparation(a, b int64, rounds int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ledger[pairKey{a, b}] = rounds
	s.ledger[pairKey{b, a}] = rounds
	return nil
}

func (s *memoryStore) DecayBlocks(userID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for k, v := range s.ledger {
		if k.user != userID {
			continue
		}
		if v-1 <= 0 {
			delete(s.ledger, k)
		} else {
			s.ledger[k] = v - 1
		}
	}
	return nil
}

func (s *memoryStore) IsBlocked(userID, partnerID int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ledger[pairKey{userID, partnerID}] > 0, nil
}

func (s *memoryStore) rounds(userID, partnerID int64) (int, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.ledger[pairKey{userID, partnerID}]
	return v, ok
}

func (s *memoryStore) activeFor(userID int64) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, sess := range s.sessions {
		if sess.Active && sess.Involves(userID) {
			n++
		}
	}
	return n
}

func (s *memoryStore) setEndErr(err error) {
	s.mu.Lock()
	s.endErr = err
	s.mu.Unlock()
}

type memoryProfiles struct {
	mu    sync.Mutex
	users map[int64]*models.User
}

func newMemoryProfiles(users ...*models.User) *memoryProfiles {
	p := &memoryProfiles{users: make(map[int64]*models.User)}
	for _, u := range users {
		p.users[u.TelegramID] = u
	}
	return p
}

func (p *memoryProfiles) GetPreferences(userID int64) (string, string, bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	u, ok := p.users[userID]
	if !ok || !u.HasPreferences() {
		return "", "", false, nil
	}
	return u.Gender, u.Seeking, true, nil
}

func (p *memoryProfiles) IsDisclosureReady(userID int64) (bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	u, ok := p.users[userID]
	return ok && u.IsDisclosureReady(), nil
}

func (p *memoryProfiles) GetProfile(userID int64) (*models.User, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	u, ok := p.users[userID]
	if !ok {
		return nil, errors.New(errors.ErrCodeNotFound, "user not found")
	}
	return u, nil
}

type sentMessage struct {
	chatID int64
	id     int
	text   string
}

type editedMessage struct {
	chatID int64
	id     int
	text   string
}

type sentCard struct {
	chatID int64
	card   ProfileCard
}

type recordingMessenger struct {
	mu      sync.Mutex
	nextID  int
	sent    []sentMessage
	edits   []editedMessage
	deletes []sentMessage
	cards   []sentCard
}

func (m *recordingMessenger) SendMessage(chatID int64, text string, keyboard interface{}) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	m.sent = append(m.sent, sentMessage{chatID: chatID, id: m.nextID, text: text})
	return m.nextID
}

func (m *recordingMessenger) EditMessage(chatID int64, messageID int, text string, keyboard interface{}) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.edits = append(m.edits, editedMessage{chatID: chatID, id: messageID, text: text})
}

func (m *recordingMessenger) DeleteMessage(chatID int64, messageID int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deletes = append(m.deletes, sentMessage{chatID: chatID, id: messageID})
}

func (m *recordingMessenger) SendProfileCard(chatID int64, card ProfileCard) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cards = append(m.cards, sentCard{chatID: chatID, card: card})
}

// textsFor returns the texts sent to chatID in order.
func (m *recordingMessenger) textsFor(chatID int64) []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []string
	for _, s := range m.sent {
		if s.chatID == chatID {
			out = append(out, s.text)
		}
	}
	return out
}

func (m *recordingMessenger) count(text string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, s := range m.sent {
		if s.text == text {
			n++
		}
	}
	return n
}

func (m *recordingMessenger) sentWithPrefix(prefix string) []sentMessage {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []sentMessage
	for _, s := range m.sent {
		if len(s.text) >= len(prefix) && s.text[:len(prefix)] == prefix {
			out = append(out, s)
		}
	}
	return out
}

func (m *recordingMessenger) edited() []editedMessage {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]editedMessage(nil), m.edits...)
}

func (m *recordingMessenger) deleted() []sentMessage {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]sentMessage(nil), m.deletes...)
}

func (m *recordingMessenger) cardCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.cards)
}

type feedbackCall struct {
	participant, peer int64
	sessionID         string
}

type recordingFeedback struct {
	mu    sync.Mutex
	calls []feedbackCall
}

func (f *recordingFeedback) OnSessionEnded(participant, peer int64, sessionID string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, feedbackCall{participant: participant, peer: peer, sessionID: sessionID})
}

func (f *recordingFeedback) snapshot() []feedbackCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]feedbackCall(nil), f.calls...)
}

type staticMenus struct{}

func (staticMenus) MenuFor(userID int64) interface{} { return "menu" }

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

type harness struct {
	store     *memoryStore
	profiles  *memoryProfiles
	messenger *recordingMessenger
	feedback  *recordingFeedback
	settings  *Settings
	runtime   *Runtime
	matcher   *Matcher
	clock     *fakeClock
}

// newHarness wires the services over in-memory fakes. With a nil clock the
// runtime uses the wall clock.
func newHarness(unit time.Duration, clock *fakeClock, users ...*models.User) *harness {
	h := &harness{
		store:     newMemoryStore(),
		profiles:  newMemoryProfiles(users...),
		messenger: &recordingMessenger{},
		feedback:  &recordingFeedback{},
		settings:  NewSettings(nil, 180, 2),
		clock:     clock,
	}
	h.runtime = NewRuntime(h.store, h.messenger, staticMenus{}, h.feedback, h.settings, RuntimeOptions{Unit: unit})
	if clock != nil {
		h.runtime.now = clock.Now
	}
	h.matcher = NewMatcher(h.store, h.profiles, h.settings, h.runtime)
	return h
}

func (h *harness) pair(a, b int64) *models.ChatSession {
	entryTime := time.Now()
	h.store.Enqueue(&models.QueueEntry{UserID: a, Gender: models.GenderMale, Seeking: models.SeekingAny, EnqueuedAt: entryTime})
	h.store.Enqueue(&models.QueueEntry{UserID: b, Gender: models.GenderFemale, Seeking: models.SeekingAny, EnqueuedAt: entryTime})
	sess, err := h.matcher.StartSession(a, b)
	if err != nil {
		panic(err)
	}
	return sess
}

func (h *harness) handle(sessionID string) *sessionHandle {
	h.runtime.mu.Lock()
	defer h.runtime.mu.Unlock()
	return h.runtime.sessions[sessionID]
}

func user(id int64, gender, seeking string) *models.User {
	return &models.User{
		TelegramID:  id,
		FirstName:   "User",
		Gender:      gender,
		Seeking:     seeking,
		RevealReady: true,
	}
}
