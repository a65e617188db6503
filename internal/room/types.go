package room

import (
	"context"
	"encoding/json"
	"time"

	"purple-sphinx/internal/quiz"
)

type Phase string

const (
	PhaseLobby    Phase = "lobby"
	PhaseQuestion Phase = "question"
	PhaseResults  Phase = "results"
)

const (
	EventStateChanged    = "state_changed"
	EventQuestionShown   = "question_shown"
	EventQuestionResults = "question_results"
	EventRoomClosed      = "room_closed"
)

type Player struct {
	ID       string `json:"id"`
	Identity string `json:"identity"`
	Nickname string `json:"nickname"`
	Contact  string `json:"contact,omitempty"`
}

type PublicPlayer struct {
	ID       string `json:"id"`
	Nickname string `json:"nickname"`
}

type Score struct {
	PlayerID string `json:"player_id"`
	Score    int    `json:"score"`
}

// State is the public view of a room. It never carries answers or the
// correct answer of the current question.
type State struct {
	Code              string         `json:"code"`
	Phase             Phase          `json:"phase"`
	CurrentQuestionID *string        `json:"current_question_id"`
	Deadline          *time.Time     `json:"deadline"`
	HostConnected     bool           `json:"host_connected"`
	Players           []PublicPlayer `json:"players"`
	Scores            []Score        `json:"scores"`
}

type Summary struct {
	Code    string `json:"code"`
	Phase   Phase  `json:"phase"`
	Players int    `json:"players"`
}

type Event struct {
	Type    string `json:"type"`
	Payload any    `json:"payload"`
}

type QuestionShown struct {
	Question quiz.PublicQuestion `json:"question"`
	Deadline time.Time           `json:"deadline"`
}

type QuestionResults struct {
	QuestionID    string          `json:"question_id"`
	Statistics    quiz.Stats      `json:"statistics"`
	CorrectAnswer json.RawMessage `json:"correct_answer"`
	Scores        []Score         `json:"scores"`
}

type JoinRequest struct {
	Conn     string
	Identity string
	Nickname string
	Contact  string
}

type JoinResult struct {
	Player      Player
	State       State
	Reconnected bool
}

// Deadline identifies one armed question. Instance is unique per room
// created by a registry, so a fire never matches a later room that reuses
// the code. Round increases with every started question so a stale fire
// never matches a later run of the same question id.
type Deadline struct {
	Code       string
	Instance   uint64
	QuestionID string
	Round      int
	FireAt     time.Time
}

// Broadcaster delivers room events to every connection joined to a room.
// Implementations must not block.
type Broadcaster interface {
	Broadcast(code string, event Event)
}

type ArchiveEntry struct {
	Identity string
	Nickname string
	Contact  string
	RoomCode string
	JoinedAt time.Time
}

// Archiver records newly joined players. Calls are best-effort and run off
// the room's goroutine.
type Archiver interface {
	Archive(ctx context.Context, entry ArchiveEntry) error
}

type Scheduler interface {
	Arm(deadline Deadline)
}

type nopBroadcaster struct{}

func (nopBroadcaster) Broadcast(string, Event) {}
