package twin

import (
	"fmt"
	"sync"
	"time"

	"github.com/liquidbooks/liquidbooks/internal/psych"
)

// AnswerStore defines the storage operations the Manager needs.
// Implemented by storage.Store.
type AnswerStore interface {
	SetAnswers(userID, instrument string, answers map[string]int) error
	GetAllAnswers(userID string) (map[string]map[string]int, error)
}

// Clock abstracts time for testability.
type Clock interface {
	Now() time.Time
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

type cacheEntry struct {
	profile  psych.Profile
	cachedAt time.Time
}

// Manager provides cached access to users' psychometric profiles assembled
// from stored questionnaire answers. The core functions themselves are pure;
// the Manager owns the one piece of state around them.
type Manager struct {
	store AnswerStore
	clock Clock
	ttl   time.Duration

	mu     sync.RWMutex
	cached map[string]cacheEntry
}

// NewManager creates a Manager with a 60-second cache TTL.
func NewManager(store AnswerStore) *Manager {
	return NewManagerWithClock(store, realClock{}, 60*time.Second)
}

// NewManagerWithClock creates a Manager with a custom clock (for testing).
func NewManagerWithClock(store AnswerStore, clock Clock, ttl time.Duration) *Manager {
	return &Manager{
		store:  store,
		clock:  clock,
		ttl:    ttl,
		cached: make(map[string]cacheEntry),
	}
}

// Profile reads the user's answers from storage (or cache) and assembles a
// psychometric profile snapshot. Returns an empty profile for unknown users;
// every downstream computation is total over that.
func (m *Manager) Profile(userID string) (psych.Profile, error) {
	m.mu.RLock()
	if e, ok := m.cached[userID]; ok && m.clock.Now().Before(e.cachedAt.Add(m.ttl)) {
		p := copyProfile(e.profile)
		m.mu.RUnlock()
		return p, nil
	}
	m.mu.RUnlock()

	m.mu.Lock()
	defer m.mu.Unlock()

	// Double-check after acquiring write lock.
	if e, ok := m.cached[userID]; ok && m.clock.Now().Before(e.cachedAt.Add(m.ttl)) {
		return copyProfile(e.profile), nil
	}

	raw, err := m.store.GetAllAnswers(userID)
	if err != nil {
		return nil, fmt.Errorf("loading answers for %s: %w", userID, err)
	}

	p := make(psych.Profile, len(raw))
	for instrument, answers := range raw {
		am := make(psych.AnswerMap, len(answers))
		for id, v := range answers {
			am[id] = v
		}
		p[instrument] = am
	}

	m.cached[userID] = cacheEntry{profile: p, cachedAt: m.clock.Now()}
	return copyProfile(p), nil
}

// SetAnswers persists one instrument's answers and invalidates the user's
// cached profile.
func (m *Manager) SetAnswers(userID, instrument string, answers map[string]int) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.store.SetAnswers(userID, instrument, answers); err != nil {
		return fmt.Errorf("setting %s answers for %s: %w", instrument, userID, err)
	}
	delete(m.cached, userID)
	return nil
}

// Rebuild assembles a fresh twin from the user's current answers, computing
// the completion percentage from the expected question counts.
func (m *Manager) Rebuild(userID, name string) (Twin, error) {
	p, err := m.Profile(userID)
	if err != nil {
		return Twin{}, fmt.Errorf("rebuilding twin for %s: %w", userID, err)
	}
	return Build(userID, name, p, Completion(p)), nil
}

// Prompt compiles the user's current voice prompt.
func (m *Manager) Prompt(userID string) (string, error) {
	p, err := m.Profile(userID)
	if err != nil {
		return "", fmt.Errorf("compiling prompt for %s: %w", userID, err)
	}
	return VoicePrompt(p), nil
}

// expectedCounts lists how many answers each scored instrument contributes
// to the completion percentage. Free-text instruments are excluded.
var expectedCounts = map[string]int{
	psych.InstrumentBigFive:        35,
	psych.InstrumentDISC:           8,
	psych.InstrumentEQ:             15,
	psych.InstrumentWritingPrefs:   17,
	psych.InstrumentCognitiveStyle: 8,
	psych.InstrumentCreativity:     10,
}

// Completion reports how much of the scored questionnaire has been answered,
// as an integer percentage. Extra or unknown answers never push it past 100.
func Completion(p psych.Profile) int {
	total, answered := 0, 0
	for instrument, expected := range expectedCounts {
		total += expected
		n := len(p[instrument])
		if n > expected {
			n = expected
		}
		answered += n
	}
	if total == 0 {
		return 0
	}
	return answered * 100 / total
}

func copyProfile(p psych.Profile) psych.Profile {
	cp := make(psych.Profile, len(p))
	for instrument, answers := range p {
		am := make(psych.AnswerMap, len(answers))
		for id, v := range answers {
			am[id] = v
		}
		cp[instrument] = am
	}
	return cp
}
