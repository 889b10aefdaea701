package twin

import (
	"errors"
	"fmt"
	"reflect"
	"testing"
	"time"

	"github.com/liquidbooks/liquidbooks/internal/psych"
)

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

type fakeStore struct {
	answers map[string]map[string]map[string]int // userID → instrument → question → value
	reads   int
	err     error
}

func newFakeStore() *fakeStore {
	return &fakeStore{answers: make(map[string]map[string]map[string]int)}
}

func (s *fakeStore) SetAnswers(userID, instrument string, answers map[string]int) error {
	if s.err != nil {
		return s.err
	}
	if s.answers[userID] == nil {
		s.answers[userID] = make(map[string]map[string]int)
	}
	if s.answers[userID][instrument] == nil {
		s.answers[userID][instrument] = make(map[string]int)
	}
	for k, v := range answers {
		s.answers[userID][instrument][k] = v
	}
	return nil
}

func (s *fakeStore) GetAllAnswers(userID string) (map[string]map[string]int, error) {
	s.reads++
	if s.err != nil {
		return nil, s.err
	}
	return s.answers[userID], nil
}

func TestManager_ProfileCaching(t *testing.T) {
	store := newFakeStore()
	store.SetAnswers("u1", psych.InstrumentBigFive, map[string]int{"ocean_1": 7})

	clock := &fakeClock{now: time.Unix(1000, 0)}
	m := NewManagerWithClock(store, clock, time.Minute)

	if _, err := m.Profile("u1"); err != nil {
		t.Fatalf("first read: %v", err)
	}
	if _, err := m.Profile("u1"); err != nil {
		t.Fatalf("second read: %v", err)
	}
	if store.reads != 1 {
		t.Errorf("store read %d times within TTL, want 1", store.reads)
	}

	clock.Advance(2 * time.Minute)
	if _, err := m.Profile("u1"); err != nil {
		t.Fatalf("post-TTL read: %v", err)
	}
	if store.reads != 2 {
		t.Errorf("store read %d times after TTL, want 2", store.reads)
	}
}

func TestManager_SetAnswersInvalidatesCache(t *testing.T) {
	store := newFakeStore()
	clock := &fakeClock{now: time.Unix(1000, 0)}
	m := NewManagerWithClock(store, clock, time.Minute)

	if _, err := m.Profile("u1"); err != nil {
		t.Fatalf("initial read: %v", err)
	}
	if err := m.SetAnswers("u1", psych.InstrumentDISC, map[string]int{"disc_1": 7}); err != nil {
		t.Fatalf("set answers: %v", err)
	}

	p, err := m.Profile("u1")
	if err != nil {
		t.Fatalf("read after set: %v", err)
	}
	if p.Answer(psych.InstrumentDISC, "disc_1") != 7 {
		t.Error("cache not invalidated after SetAnswers")
	}
}

func TestManager_ProfileCopyIsIsolated(t *testing.T) {
	store := newFakeStore()
	store.SetAnswers("u1", psych.InstrumentBigFive, map[string]int{"ocean_1": 3})
	m := NewManagerWithClock(store, &fakeClock{now: time.Unix(1000, 0)}, time.Minute)

	a, _ := m.Profile("u1")
	a[psych.InstrumentBigFive]["ocean_1"] = 7

	b, _ := m.Profile("u1")
	if b.Answer(psych.InstrumentBigFive, "ocean_1") != 3 {
		t.Error("mutating a returned profile leaked into the cache")
	}
}

func TestManager_StoreError(t *testing.T) {
	store := newFakeStore()
	store.err = errors.New("disk gone")
	m := NewManager(store)

	if _, err := m.Profile("u1"); err == nil {
		t.Error("expected wrapped store error")
	}
}

func TestCompletion(t *testing.T) {
	if got := Completion(psych.Profile{}); got != 0 {
		t.Errorf("empty profile completion = %d, want 0", got)
	}

	full := psych.Profile{}
	for instrument, n := range expectedCounts {
		m := make(psych.AnswerMap, n)
		for i := 1; i <= n; i++ {
			m[fmt.Sprintf("q_%d", i)] = 4
		}
		full[instrument] = m
	}
	if got := Completion(full); got != 100 {
		t.Errorf("full profile completion = %d, want 100", got)
	}

	partial := psych.Profile{
		psych.InstrumentDISC: psych.AnswerMap{"disc_1": 4, "disc_2": 4, "disc_3": 4, "disc_4": 4},
	}
	got := Completion(partial)
	if got <= 0 || got >= 100 {
		t.Errorf("partial profile completion = %d, want between 0 and 100", got)
	}
}

func TestBuild_ComposesEverything(t *testing.T) {
	p := psych.Profile{
		psych.InstrumentBigFive: func() psych.AnswerMap {
			m := make(psych.AnswerMap)
			for i := 1; i <= 35; i++ {
				m[fmt.Sprintf("ocean_%d", i)] = 6
			}
			return m
		}(),
	}

	tw := Build("u1", "Alex", p, 42)

	if tw.ID == "" || tw.UserID != "u1" || tw.Name != "Alex" {
		t.Errorf("identity fields wrong: %+v", tw)
	}
	if tw.Completion != 42 {
		t.Errorf("completion = %d, want caller-supplied 42", tw.Completion)
	}
	if tw.Tone != tw.Dossier.Tone {
		t.Error("twin tone must match the dossier's embedded tone")
	}
	if len(tw.RecommendedStyles) < 3 {
		t.Errorf("recommended styles = %v, want at least 3", tw.RecommendedStyles)
	}
	if tw.CreatedAt.IsZero() || tw.UpdatedAt.IsZero() {
		t.Error("timestamps not stamped")
	}
}

func TestBuild_DeterministicExceptIdentity(t *testing.T) {
	p := psych.Profile{
		psych.InstrumentDISC: psych.AnswerMap{"disc_1": 7, "disc_2": 7},
	}
	a := Build("u1", "n", p, 10)
	b := Build("u1", "n", p, 10)

	// ID and timestamps vary; computed fields must not.
	if !reflect.DeepEqual(a.Dossier, b.Dossier) {
		t.Error("dossier differs between builds of the same profile")
	}
	if a.Tone != b.Tone {
		t.Error("tone differs between builds of the same profile")
	}
	if !reflect.DeepEqual(a.RecommendedStyles, b.RecommendedStyles) {
		t.Error("style recommendations differ between builds")
	}
}
