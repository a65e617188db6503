package room

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

const (
	DefaultDeadlineGrace   = 50 * time.Millisecond
	defaultMaxCodeAttempts = 100
	expireTimeout          = 5 * time.Second
)

type Options struct {
	Broadcaster Broadcaster
	Archiver    Archiver
	// Scheduler defaults to a TimerScheduler that calls Registry.Expire.
	Scheduler       Scheduler
	DeadlineGrace   time.Duration
	Now             func() time.Time
	NewCode         func() (string, error)
	MaxCodeAttempts int
}

// Registry owns every live room, keyed by join code.
type Registry struct {
	mu        sync.Mutex
	rooms     map[string]*Room
	instances uint64
	opts      Options
}

func NewRegistry(opts Options) *Registry {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.NewCode == nil {
		opts.NewCode = NewCode
	}
	if opts.MaxCodeAttempts <= 0 {
		opts.MaxCodeAttempts = defaultMaxCodeAttempts
	}
	if opts.DeadlineGrace < 0 {
		opts.DeadlineGrace = 0
	}
	if opts.Broadcaster == nil {
		opts.Broadcaster = nopBroadcaster{}
	}
	registry := &Registry{
		rooms: make(map[string]*Room),
		opts:  opts,
	}
	if registry.opts.Scheduler == nil {
		registry.opts.Scheduler = NewTimerScheduler(opts.DeadlineGrace, opts.Now, registry.fire)
	}
	return registry
}

// Create allocates a fresh code and starts a room in the lobby phase.
func (g *Registry) Create() (*Room, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	for attempt := 0; attempt < g.opts.MaxCodeAttempts; attempt++ {
		code, err := g.opts.NewCode()
		if err != nil {
			return nil, fmt.Errorf("generate room code: %w", err)
		}
		code = NormalizeCode(code)
		if _, taken := g.rooms[code]; taken {
			continue
		}
		g.instances++
		room := newRoom(code, g.instances, roomDeps{
			now:         g.opts.Now,
			scheduler:   g.opts.Scheduler,
			broadcaster: g.opts.Broadcaster,
			archiver:    g.opts.Archiver,
		})
		g.rooms[code] = room
		go room.run()
		log.Info().Str("room_code", code).Msg("room created")
		return room, nil
	}
	return nil, ErrCodeSpaceExhausted
}

func (g *Registry) Lookup(code string) (*Room, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	room, ok := g.rooms[NormalizeCode(code)]
	if !ok {
		return nil, ErrRoomNotFound
	}
	return room, nil
}

// Remove stops the room and forgets its code. Pending deadlines for it become
// no-ops.
func (g *Registry) Remove(code string) error {
	code = NormalizeCode(code)
	g.mu.Lock()
	room, ok := g.rooms[code]
	delete(g.rooms, code)
	g.mu.Unlock()
	if !ok {
		return ErrRoomNotFound
	}
	room.stop()
	log.Info().Str("room_code", code).Msg("room removed")
	return nil
}

// Expire finishes the question identified by deadline if it is still open.
// Unknown rooms and stale deadlines are ignored.
func (g *Registry) Expire(ctx context.Context, deadline Deadline) error {
	room, err := g.Lookup(deadline.Code)
	if err != nil {
		return nil
	}
	if err := room.expire(ctx, deadline); err != nil && !errors.Is(err, ErrRoomClosed) {
		return err
	}
	return nil
}

func (g *Registry) fire(deadline Deadline) {
	ctx, cancel := context.WithTimeout(context.Background(), expireTimeout)
	defer cancel()
	if err := g.Expire(ctx, deadline); err != nil {
		log.Error().
			Err(err).
			Str("room_code", deadline.Code).
			Str("question_id", deadline.QuestionID).
			Msg("deadline expiry failed")
	}
}

// List returns a summary per live room, ordered by code.
func (g *Registry) List(ctx context.Context) []Summary {
	g.mu.Lock()
	rooms := make([]*Room, 0, len(g.rooms))
	for _, room := range g.rooms {
		rooms = append(rooms, room)
	}
	g.mu.Unlock()

	summaries := make([]Summary, 0, len(rooms))
	for _, room := range rooms {
		summary, err := room.summary(ctx)
		if err != nil {
			continue
		}
		summaries = append(summaries, summary)
	}
	sort.Slice(summaries, func(i, j int) bool {
		return summaries[i].Code < summaries[j].Code
	})
	return summaries
}

func (g *Registry) Len() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.rooms)
}

// Close stops every room.
func (g *Registry) Close() {
	g.mu.Lock()
	rooms := g.rooms
	g.rooms = make(map[string]*Room)
	g.mu.Unlock()
	for _, room := range rooms {
		room.stop()
	}
}
