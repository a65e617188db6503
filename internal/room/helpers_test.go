package room

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"purple-sphinx/internal/quiz"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type fakeScheduler struct {
	mu    sync.Mutex
	armed []Deadline
}

func (s *fakeScheduler) Arm(deadline Deadline) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.armed = append(s.armed, deadline)
}

func (s *fakeScheduler) last(t *testing.T) Deadline {
	t.Helper()
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.armed) == 0 {
		t.Fatalf("expected an armed deadline")
	}
	return s.armed[len(s.armed)-1]
}

type recordingBroadcaster struct {
	mu     sync.Mutex
	events []Event
}

func (b *recordingBroadcaster) Broadcast(_ string, event Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events = append(b.events, event)
}

func (b *recordingBroadcaster) count(eventType string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	n := 0
	for _, event := range b.events {
		if event.Type == eventType {
			n++
		}
	}
	return n
}

func (b *recordingBroadcaster) last(t *testing.T, eventType string) Event {
	t.Helper()
	b.mu.Lock()
	defer b.mu.Unlock()
	for i := len(b.events) - 1; i >= 0; i-- {
		if b.events[i].Type == eventType {
			return b.events[i]
		}
	}
	t.Fatalf("expected a %s event", eventType)
	return Event{}
}

type chanArchiver struct {
	entries chan ArchiveEntry
}

func newChanArchiver() *chanArchiver {
	return &chanArchiver{entries: make(chan ArchiveEntry, 16)}
}

func (a *chanArchiver) Archive(_ context.Context, entry ArchiveEntry) error {
	a.entries <- entry
	return nil
}

type harness struct {
	registry    *Registry
	clock       *fakeClock
	scheduler   *fakeScheduler
	broadcaster *recordingBroadcaster
	archiver    *chanArchiver
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	h := &harness{
		clock:       newFakeClock(),
		scheduler:   &fakeScheduler{},
		broadcaster: &recordingBroadcaster{},
		archiver:    newChanArchiver(),
	}
	h.registry = NewRegistry(Options{
		Broadcaster: h.broadcaster,
		Archiver:    h.archiver,
		Scheduler:   h.scheduler,
		Now:         h.clock.Now,
	})
	t.Cleanup(h.registry.Close)
	return h
}

// hostedRoom creates a room bound to the "host" connection.
func (h *harness) hostedRoom(t *testing.T) *Room {
	t.Helper()
	room, err := h.registry.Create()
	if err != nil {
		t.Fatalf("create room: %v", err)
	}
	if _, err := room.BindHost(context.Background(), "host"); err != nil {
		t.Fatalf("bind host: %v", err)
	}
	return room
}

func mustJoin(t *testing.T, room *Room, conn, nickname string) Player {
	t.Helper()
	result, err := room.Join(context.Background(), JoinRequest{Conn: conn, Identity: conn + "-id", Nickname: nickname})
	if err != nil {
		t.Fatalf("join %s: %v", nickname, err)
	}
	return result.Player
}

func mustState(t *testing.T, room *Room) State {
	t.Helper()
	state, err := room.State(context.Background())
	if err != nil {
		t.Fatalf("state: %v", err)
	}
	return state
}

func scoreOf(state State, playerID string) int {
	for _, score := range state.Scores {
		if score.PlayerID == playerID {
			return score.Score
		}
	}
	return -1
}

func binaryQuestion() quiz.Question {
	return quiz.Question{
		ID:         "seed_truefalse_1",
		Kind:       quiz.KindBinary,
		PromptHTML: "<p>The sky is blue.</p>",
		Correct:    json.RawMessage(`"true"`),
		Points:     100,
	}
}

func colorsQuestion() quiz.Question {
	return quiz.Question{
		ID:         "seed_multi_1",
		Kind:       quiz.KindMultiSelect,
		PromptHTML: "<p>Select the purple/blue tones:</p>",
		Options: []quiz.Option{
			{ID: "1", Label: "Purple"},
			{ID: "2", Label: "Blue"},
			{ID: "3", Label: "Grey"},
		},
		Correct: json.RawMessage(`["1","2"]`),
		Points:  200,
	}
}

type failingArchiver struct {
	calls chan ArchiveEntry
}

func (a *failingArchiver) Archive(_ context.Context, entry ArchiveEntry) error {
	a.calls <- entry
	return errors.New("archive unavailable")
}

// blockingArchiver holds every call until release is closed or the call's
// context ends.
type blockingArchiver struct {
	started chan struct{}
	release chan struct{}
}

func (a *blockingArchiver) Archive(ctx context.Context, _ ArchiveEntry) error {
	a.started <- struct{}{}
	select {
	case <-a.release:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func registryWithArchiver(t *testing.T, archiver Archiver) *Registry {
	t.Helper()
	registry := NewRegistry(Options{
		Archiver:  archiver,
		Scheduler: &fakeScheduler{},
	})
	t.Cleanup(registry.Close)
	return registry
}

// joinWithin fails the test if Join does not return within limit.
func joinWithin(t *testing.T, room *Room, conn, nickname string, limit time.Duration) JoinResult {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), limit)
	defer cancel()
	result, err := room.Join(ctx, JoinRequest{Conn: conn, Identity: conn + "-id", Nickname: nickname})
	if err != nil {
		t.Fatalf("join %s: %v", nickname, err)
	}
	return result
}
