package room

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"purple-sphinx/internal/quiz"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

const (
	defaultDurationSeconds = 20
	minDurationSeconds     = 5
	maxDurationSeconds     = 120

	inboxSize      = 64
	archiveTimeout = 5 * time.Second
)

type submission struct {
	answer json.RawMessage
	at     time.Time
}

type member struct {
	Player
	conn string
}

type roomDeps struct {
	now         func() time.Time
	scheduler   Scheduler
	broadcaster Broadcaster
	archiver    Archiver
}

// Room is one live session. Every mutation runs on the goroutine started by
// run; callers talk to it through the exported methods, which send command
// values over inbox and wait for the reply.
type Room struct {
	code     string
	instance uint64
	deps     roomDeps

	inbox    chan command
	done     chan struct{}
	stopOnce sync.Once

	// Owned by the run goroutine.
	phase       Phase
	hostConn    string
	question    *quiz.Question
	round       int
	deadline    time.Time
	players     map[string]*member
	order       []string
	scores      map[string]int
	pending     map[string]submission
	answerOrder []string
}

func newRoom(code string, instance uint64, deps roomDeps) *Room {
	if deps.broadcaster == nil {
		deps.broadcaster = nopBroadcaster{}
	}
	if deps.now == nil {
		deps.now = time.Now
	}
	return &Room{
		code:     code,
		instance: instance,
		deps:     deps,
		inbox:   make(chan command, inboxSize),
		done:    make(chan struct{}),
		phase:   PhaseLobby,
		players: make(map[string]*member),
		scores:  make(map[string]int),
		pending: make(map[string]submission),
	}
}

func (r *Room) Code() string {
	return r.code
}

func (r *Room) run() {
	for {
		select {
		case <-r.done:
			return
		case cmd := <-r.inbox:
			r.handle(cmd)
		}
	}
}

func (r *Room) stop() {
	r.stopOnce.Do(func() {
		close(r.done)
	})
}

func (r *Room) join(req JoinRequest) reply {
	fields, err := validateJoin(req)
	if err != nil {
		return reply{err: err}
	}
	r.unbindConn(req.Conn)

	if existing := r.findByIdentity(fields.identity); existing != nil {
		existing.conn = req.Conn
		state := r.snapshot()
		r.emit(EventStateChanged, state)
		log.Info().
			Str("room_code", r.code).
			Str("player_id", existing.ID).
			Msg("player reconnected")
		return reply{player: existing.Player, state: state, reconnected: true}
	}

	joined := &member{
		Player: Player{
			ID:       uuid.NewString(),
			Identity: fields.identity,
			Nickname: fields.nickname,
			Contact:  fields.contact,
		},
		conn: req.Conn,
	}
	r.players[joined.ID] = joined
	r.order = append(r.order, joined.ID)
	if _, ok := r.scores[joined.ID]; !ok {
		r.scores[joined.ID] = 0
	}
	r.archive(ArchiveEntry{
		Identity: joined.Identity,
		Nickname: joined.Nickname,
		Contact:  joined.Contact,
		RoomCode: r.code,
		JoinedAt: r.deps.now().UTC(),
	})

	state := r.snapshot()
	r.emit(EventStateChanged, state)
	log.Info().
		Str("room_code", r.code).
		Str("player_id", joined.ID).
		Str("nickname", joined.Nickname).
		Msg("player joined")
	return reply{player: joined.Player, state: state}
}

func (r *Room) bindHost(conn string) reply {
	r.hostConn = conn
	state := r.snapshot()
	r.emit(EventStateChanged, state)
	log.Info().Str("room_code", r.code).Msg("host bound")
	return reply{state: state}
}

func (r *Room) disconnect(conn string) reply {
	if conn == "" {
		return reply{}
	}
	r.unbindConn(conn)
	if conn != r.hostConn {
		return reply{}
	}
	r.hostConn = ""
	state := r.snapshot()
	r.emit(EventStateChanged, state)
	log.Info().Str("room_code", r.code).Msg("host disconnected")
	return reply{state: state}
}

func (r *Room) startQuestion(conn string, question quiz.Question, seconds int) reply {
	if !r.isHost(conn) {
		return reply{err: ErrNotHost}
	}
	if r.phase == PhaseQuestion {
		return reply{err: ErrQuestionInProgress}
	}
	seconds = clampDuration(seconds)

	r.round++
	r.phase = PhaseQuestion
	r.question = &question
	r.deadline = r.deps.now().Add(time.Duration(seconds) * time.Second)
	r.pending = make(map[string]submission)
	r.answerOrder = nil

	r.deps.scheduler.Arm(Deadline{
		Code:       r.code,
		Instance:   r.instance,
		QuestionID: question.ID,
		Round:      r.round,
		FireAt:     r.deadline,
	})

	r.emit(EventQuestionShown, QuestionShown{
		Question: question.Public(),
		Deadline: r.deadline,
	})
	state := r.snapshot()
	r.emit(EventStateChanged, state)
	log.Info().
		Str("room_code", r.code).
		Str("question_id", question.ID).
		Int("round", r.round).
		Int("duration_seconds", seconds).
		Msg("question started")
	return reply{state: state}
}

func (r *Room) submitAnswer(conn, playerID string, answer json.RawMessage) reply {
	if r.phase != PhaseQuestion {
		return reply{err: ErrNotAcceptingAnswers}
	}
	player, ok := r.players[playerID]
	if !ok || conn == "" || player.conn != conn {
		return reply{err: ErrNotJoined}
	}
	now := r.deps.now()
	if now.After(r.deadline) {
		return reply{err: ErrTimeUp}
	}
	if _, answered := r.pending[playerID]; answered {
		return reply{err: ErrAlreadyAnswered}
	}
	stored := append(json.RawMessage(nil), answer...)
	r.pending[playerID] = submission{
		answer: quiz.TruncateAnswer(stored, quiz.MaxAnswerLength),
		at:     now,
	}
	r.answerOrder = append(r.answerOrder, playerID)
	return reply{}
}

// finishQuestion handles both the host command (deadline == nil) and a
// scheduler fire. A finish that no longer matches the open question is a
// no-op.
func (r *Room) finishQuestion(conn string, deadline *Deadline) reply {
	if deadline == nil && !r.isHost(conn) {
		return reply{err: ErrNotHost}
	}
	if r.phase != PhaseQuestion || r.question == nil {
		return reply{state: r.snapshot()}
	}
	if deadline != nil && !r.matches(*deadline) {
		return reply{state: r.snapshot()}
	}

	question := *r.question
	answers := make([]json.RawMessage, 0, len(r.answerOrder))
	for _, playerID := range r.answerOrder {
		sub := r.pending[playerID]
		answers = append(answers, sub.answer)
		if points := quiz.Score(question, sub.answer); points > 0 {
			r.scores[playerID] += points
		}
	}
	stats := quiz.Aggregate(question, answers)

	r.phase = PhaseResults
	r.deadline = time.Time{}
	r.question = nil

	scores := r.scoreList()
	r.emit(EventQuestionResults, QuestionResults{
		QuestionID:    question.ID,
		Statistics:    stats,
		CorrectAnswer: question.Correct,
		Scores:        scores,
	})
	state := r.snapshot()
	r.emit(EventStateChanged, state)

	reason := "host"
	if deadline != nil {
		reason = "deadline"
	}
	log.Info().
		Str("room_code", r.code).
		Str("question_id", question.ID).
		Int("answers", len(answers)).
		Str("reason", reason).
		Msg("question finished")
	return reply{state: state}
}

// matches reports whether deadline was armed for the question open now.
func (r *Room) matches(deadline Deadline) bool {
	return deadline.Instance == r.instance &&
		deadline.QuestionID == r.question.ID &&
		deadline.Round == r.round &&
		deadline.FireAt.Equal(r.deadline)
}

func (r *Room) isHost(conn string) bool {
	return conn != "" && conn == r.hostConn
}

func (r *Room) findByIdentity(identity string) *member {
	for _, id := range r.order {
		if p := r.players[id]; p.Identity == identity {
			return p
		}
	}
	return nil
}

func (r *Room) unbindConn(conn string) {
	if conn == "" {
		return
	}
	for _, p := range r.players {
		if p.conn == conn {
			p.conn = ""
		}
	}
}

func (r *Room) snapshot() State {
	state := State{
		Code:          r.code,
		Phase:         r.phase,
		HostConnected: r.hostConn != "",
		Players:       make([]PublicPlayer, 0, len(r.order)),
		Scores:        r.scoreList(),
	}
	if r.phase == PhaseQuestion && r.question != nil {
		questionID := r.question.ID
		deadline := r.deadline
		state.CurrentQuestionID = &questionID
		state.Deadline = &deadline
	}
	for _, id := range r.order {
		state.Players = append(state.Players, PublicPlayer{
			ID:       id,
			Nickname: r.players[id].Nickname,
		})
	}
	return state
}

func (r *Room) scoreList() []Score {
	scores := make([]Score, 0, len(r.order))
	for _, id := range r.order {
		scores = append(scores, Score{PlayerID: id, Score: r.scores[id]})
	}
	return scores
}

func (r *Room) emit(eventType string, payload any) {
	r.deps.broadcaster.Broadcast(r.code, Event{Type: eventType, Payload: payload})
}

func (r *Room) archive(entry ArchiveEntry) {
	if r.deps.archiver == nil {
		return
	}
	archiver := r.deps.archiver
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), archiveTimeout)
		defer cancel()
		if err := archiver.Archive(ctx, entry); err != nil {
			log.Warn().
				Err(err).
				Str("room_code", entry.RoomCode).
				Str("identity", entry.Identity).
				Msg("player archive failed")
		}
	}()
}
