package room

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"
)

func sequenceCodes(codes ...string) func() (string, error) {
	next := 0
	return func() (string, error) {
		code := codes[next%len(codes)]
		next++
		return code, nil
	}
}

func TestNewCodeUsesAlphabet(t *testing.T) {
	for i := 0; i < 50; i++ {
		code, err := NewCode()
		if err != nil {
			t.Fatalf("new code: %v", err)
		}
		if len(code) != codeLength {
			t.Fatalf("expected %d characters, got %q", codeLength, code)
		}
		for _, r := range code {
			if !strings.ContainsRune(codeAlphabet, r) {
				t.Fatalf("unexpected character %q in %q", r, code)
			}
		}
	}
}

func TestCreateRetriesCodeCollisions(t *testing.T) {
	registry := NewRegistry(Options{
		Scheduler: &fakeScheduler{},
		NewCode:   sequenceCodes("AAAAAA", "AAAAAA", "BBBBBB"),
	})
	t.Cleanup(registry.Close)

	first, err := registry.Create()
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	second, err := registry.Create()
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if first.Code() != "AAAAAA" || second.Code() != "BBBBBB" {
		t.Fatalf("unexpected codes %s and %s", first.Code(), second.Code())
	}
}

func TestCreateGivesUpWhenCodesCollide(t *testing.T) {
	registry := NewRegistry(Options{
		Scheduler:       &fakeScheduler{},
		NewCode:         sequenceCodes("AAAAAA"),
		MaxCodeAttempts: 5,
	})
	t.Cleanup(registry.Close)

	if _, err := registry.Create(); err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := registry.Create(); !errors.Is(err, ErrCodeSpaceExhausted) {
		t.Fatalf("expected code space exhausted, got %v", err)
	}
}

func TestLookupIsCaseInsensitive(t *testing.T) {
	h := newHarness(t)
	room, err := h.registry.Create()
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	found, err := h.registry.Lookup(" " + strings.ToLower(room.Code()) + " ")
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}
	if found != room {
		t.Fatalf("expected the same room")
	}
	if _, err := h.registry.Lookup("ZZZZZZ"); !errors.Is(err, ErrRoomNotFound) {
		t.Fatalf("expected room not found, got %v", err)
	}
}

func TestRemoveClosesRoom(t *testing.T) {
	h := newHarness(t)
	room := h.hostedRoom(t)
	ctx := context.Background()
	if err := room.StartQuestion(ctx, "host", binaryQuestion(), 20); err != nil {
		t.Fatalf("start: %v", err)
	}
	if err := h.registry.Remove(room.Code()); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if _, err := h.registry.Lookup(room.Code()); !errors.Is(err, ErrRoomNotFound) {
		t.Fatalf("expected room not found, got %v", err)
	}
	if _, err := room.State(ctx); !errors.Is(err, ErrRoomClosed) {
		t.Fatalf("expected room closed, got %v", err)
	}
	if err := h.registry.Expire(ctx, h.scheduler.last(t)); err != nil {
		t.Fatalf("expire on removed room should be ignored, got %v", err)
	}
	if err := h.registry.Remove(room.Code()); !errors.Is(err, ErrRoomNotFound) {
		t.Fatalf("expected second remove to fail, got %v", err)
	}
}

func TestListSummarizesRooms(t *testing.T) {
	registry := NewRegistry(Options{
		Scheduler: &fakeScheduler{},
		NewCode:   sequenceCodes("BBBBBB", "AAAAAA"),
	})
	t.Cleanup(registry.Close)

	b, err := registry.Create()
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := registry.Create(); err != nil {
		t.Fatalf("create: %v", err)
	}
	mustJoin(t, b, "c1", "Ann")

	summaries := registry.List(context.Background())
	if len(summaries) != 2 {
		t.Fatalf("expected 2 rooms, got %d", len(summaries))
	}
	if summaries[0].Code != "AAAAAA" || summaries[1].Code != "BBBBBB" {
		t.Fatalf("expected rooms sorted by code, got %#v", summaries)
	}
	if summaries[1].Players != 1 || summaries[1].Phase != PhaseLobby {
		t.Fatalf("unexpected summary: %#v", summaries[1])
	}
	if registry.Len() != 2 {
		t.Fatalf("expected len 2, got %d", registry.Len())
	}
}

func TestRegistriesAreIndependent(t *testing.T) {
	one := NewRegistry(Options{Scheduler: &fakeScheduler{}, NewCode: sequenceCodes("AAAAAA")})
	two := NewRegistry(Options{Scheduler: &fakeScheduler{}, NewCode: sequenceCodes("AAAAAA")})
	t.Cleanup(one.Close)
	t.Cleanup(two.Close)

	if _, err := one.Create(); err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := two.Create(); err != nil {
		t.Fatalf("same code in another registry should be allowed: %v", err)
	}
}

func TestTimerSchedulerFinishesQuestion(t *testing.T) {
	broadcaster := &recordingBroadcaster{}
	registry := NewRegistry(Options{Broadcaster: broadcaster})
	t.Cleanup(registry.Close)
	// A clock an hour ahead makes every deadline due after the grace period,
	// so the test does not wait for the minimum duration.
	ahead := func() time.Time { return time.Now().Add(time.Hour) }
	registry.opts.Scheduler = NewTimerScheduler(time.Millisecond, ahead, registry.fire)

	room, err := registry.Create()
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	ctx := context.Background()
	if _, err := room.BindHost(ctx, "host"); err != nil {
		t.Fatalf("bind host: %v", err)
	}
	if err := room.StartQuestion(ctx, "host", binaryQuestion(), 5); err != nil {
		t.Fatalf("start: %v", err)
	}

	limit := time.Now().Add(2 * time.Second)
	for time.Now().Before(limit) {
		if broadcaster.count(EventQuestionResults) == 1 {
			if mustState(t, room).Phase != PhaseResults {
				t.Fatalf("expected results phase")
			}
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timer never finished the question")
}

func TestStaleDeadlineIgnoredWhenCodeIsReused(t *testing.T) {
	clock := newFakeClock()
	scheduler := &fakeScheduler{}
	registry := NewRegistry(Options{
		Scheduler: scheduler,
		Now:       clock.Now,
		NewCode:   sequenceCodes("AAAAAA"),
	})
	t.Cleanup(registry.Close)
	ctx := context.Background()

	startRoom := func() *Room {
		t.Helper()
		room, err := registry.Create()
		if err != nil {
			t.Fatalf("create: %v", err)
		}
		if _, err := room.BindHost(ctx, "host"); err != nil {
			t.Fatalf("bind host: %v", err)
		}
		if err := room.StartQuestion(ctx, "host", binaryQuestion(), 20); err != nil {
			t.Fatalf("start: %v", err)
		}
		return room
	}

	old := startRoom()
	stale := scheduler.last(t)
	if err := registry.Remove(old.Code()); err != nil {
		t.Fatalf("remove: %v", err)
	}

	// Same code, same question, same round and the same deadline instant.
	fresh := startRoom()
	if fresh.Code() != old.Code() {
		t.Fatalf("expected code reuse, got %s and %s", old.Code(), fresh.Code())
	}
	if err := registry.Expire(ctx, stale); err != nil {
		t.Fatalf("expire: %v", err)
	}
	if phase := mustState(t, fresh).Phase; phase != PhaseQuestion {
		t.Fatalf("stale deadline closed the new room's question, phase %s", phase)
	}

	if err := registry.Expire(ctx, scheduler.last(t)); err != nil {
		t.Fatalf("expire: %v", err)
	}
	if phase := mustState(t, fresh).Phase; phase != PhaseResults {
		t.Fatalf("expected own deadline to finish the question, phase %s", phase)
	}
}
