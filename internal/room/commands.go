package room

import (
	"context"
	"encoding/json"

	"purple-sphinx/internal/quiz"
)

type reply struct {
	state       State
	player      Player
	reconnected bool
	summary     Summary
	err         error
}

type command interface {
	replies() chan reply
}

type joinCmd struct {
	req   JoinRequest
	reply chan reply
}

type bindHostCmd struct {
	conn  string
	reply chan reply
}

type disconnectCmd struct {
	conn  string
	reply chan reply
}

type startCmd struct {
	conn     string
	question quiz.Question
	seconds  int
	reply    chan reply
}

type submitCmd struct {
	conn     string
	playerID string
	answer   json.RawMessage
	reply    chan reply
}

type finishCmd struct {
	conn     string
	deadline *Deadline
	reply    chan reply
}

type hostCheckCmd struct {
	conn  string
	reply chan reply
}

type stateCmd struct {
	reply chan reply
}

type summaryCmd struct {
	reply chan reply
}

func (c joinCmd) replies() chan reply       { return c.reply }
func (c bindHostCmd) replies() chan reply   { return c.reply }
func (c disconnectCmd) replies() chan reply { return c.reply }
func (c startCmd) replies() chan reply      { return c.reply }
func (c submitCmd) replies() chan reply     { return c.reply }
func (c finishCmd) replies() chan reply     { return c.reply }
func (c hostCheckCmd) replies() chan reply  { return c.reply }
func (c stateCmd) replies() chan reply      { return c.reply }
func (c summaryCmd) replies() chan reply    { return c.reply }

func (r *Room) handle(cmd command) {
	var out reply
	switch c := cmd.(type) {
	case joinCmd:
		out = r.join(c.req)
	case bindHostCmd:
		out = r.bindHost(c.conn)
	case disconnectCmd:
		out = r.disconnect(c.conn)
	case startCmd:
		out = r.startQuestion(c.conn, c.question, c.seconds)
	case submitCmd:
		out = r.submitAnswer(c.conn, c.playerID, c.answer)
	case finishCmd:
		out = r.finishQuestion(c.conn, c.deadline)
	case hostCheckCmd:
		if !r.isHost(c.conn) {
			out = reply{err: ErrNotHost}
		}
	case stateCmd:
		out = reply{state: r.snapshot()}
	case summaryCmd:
		out = reply{summary: Summary{Code: r.code, Phase: r.phase, Players: len(r.order)}}
	}
	cmd.replies() <- out
}

// dispatch hands cmd to the room goroutine and waits for its reply.
func (r *Room) dispatch(ctx context.Context, cmd command) (reply, error) {
	select {
	case r.inbox <- cmd:
	case <-r.done:
		return reply{}, ErrRoomClosed
	case <-ctx.Done():
		return reply{}, ctx.Err()
	}
	select {
	case out := <-cmd.replies():
		return out, out.err
	case <-r.done:
		select {
		case out := <-cmd.replies():
			return out, out.err
		default:
			return reply{}, ErrRoomClosed
		}
	case <-ctx.Done():
		return reply{}, ctx.Err()
	}
}

func newReply() chan reply {
	return make(chan reply, 1)
}

// Join adds a player, or rebinds an existing one when the identity is
// already known to this room.
func (r *Room) Join(ctx context.Context, req JoinRequest) (JoinResult, error) {
	out, err := r.dispatch(ctx, joinCmd{req: req, reply: newReply()})
	if err != nil {
		return JoinResult{}, err
	}
	return JoinResult{Player: out.player, State: out.state, Reconnected: out.reconnected}, nil
}

// BindHost makes conn the host connection, replacing any previous one.
func (r *Room) BindHost(ctx context.Context, conn string) (State, error) {
	out, err := r.dispatch(ctx, bindHostCmd{conn: conn, reply: newReply()})
	return out.state, err
}

// Disconnect releases every binding held by conn.
func (r *Room) Disconnect(ctx context.Context, conn string) error {
	_, err := r.dispatch(ctx, disconnectCmd{conn: conn, reply: newReply()})
	return err
}

// StartQuestion opens question for answers. A zero duration selects the
// default; other values are clamped to the allowed range.
func (r *Room) StartQuestion(ctx context.Context, conn string, question quiz.Question, durationSeconds int) error {
	_, err := r.dispatch(ctx, startCmd{
		conn:     conn,
		question: question,
		seconds:  durationSeconds,
		reply:    newReply(),
	})
	return err
}

func (r *Room) SubmitAnswer(ctx context.Context, conn, playerID string, answer json.RawMessage) error {
	_, err := r.dispatch(ctx, submitCmd{
		conn:     conn,
		playerID: playerID,
		answer:   answer,
		reply:    newReply(),
	})
	return err
}

// FinishQuestion closes the open question on behalf of the host. Outside the
// question phase it does nothing.
func (r *Room) FinishQuestion(ctx context.Context, conn string) error {
	_, err := r.dispatch(ctx, finishCmd{conn: conn, reply: newReply()})
	return err
}

func (r *Room) expire(ctx context.Context, deadline Deadline) error {
	_, err := r.dispatch(ctx, finishCmd{deadline: &deadline, reply: newReply()})
	return err
}

// CheckHost returns ErrNotHost unless conn is the current host connection.
// StartQuestion checks again; the host may change in between.
func (r *Room) CheckHost(ctx context.Context, conn string) error {
	_, err := r.dispatch(ctx, hostCheckCmd{conn: conn, reply: newReply()})
	return err
}

func (r *Room) State(ctx context.Context) (State, error) {
	out, err := r.dispatch(ctx, stateCmd{reply: newReply()})
	return out.state, err
}

func (r *Room) summary(ctx context.Context) (Summary, error) {
	out, err := r.dispatch(ctx, summaryCmd{reply: newReply()})
	return out.summary, err
}
