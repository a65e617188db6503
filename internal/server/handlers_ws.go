package server

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"purple-sphinx/internal/room"

	"github.com/gin-gonic/gin/binding"
	"github.com/rs/zerolog/log"
)

const commandTimeout = 5 * time.Second

var (
	errInvalidFrame   = errors.New("invalid message")
	errUnknownMessage = errors.New("unknown message type")
	errRateLimited    = errors.New("rate limited")
	errInvalidPayload = errors.New("invalid payload")
)

func commandContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), commandTimeout)
}

func (g *gateway) handleFrame(cl *client, data []byte) {
	var msg frame
	if err := json.Unmarshal(data, &msg); err != nil || msg.Type == "" {
		g.reply(cl, "", nil, errInvalidFrame)
		return
	}
	if !cl.limiter.Allow() {
		g.reply(cl, msg.Ref, nil, errRateLimited)
		return
	}

	ctx, cancel := commandContext()
	defer cancel()

	var (
		out any
		err error
	)
	switch msg.Type {
	case msgCreateRoom:
		out, err = g.createRoom(ctx, cl)
	case msgRejoinHost:
		out, err = g.rejoinHost(ctx, cl, msg.Payload)
	case msgJoinSpectator:
		out, err = g.joinSpectator(ctx, cl, msg.Payload)
	case msgJoinPlayer:
		out, err = g.joinPlayer(ctx, cl, msg.Payload)
	case msgStartQuestion:
		out, err = g.startQuestion(ctx, cl, msg.Payload)
	case msgSubmitAnswer:
		out, err = g.submitAnswer(ctx, cl, msg.Payload)
	case msgFinishQuestion:
		out, err = g.finishQuestion(ctx, cl, msg.Payload)
	default:
		err = errUnknownMessage
	}
	if err != nil {
		log.Debug().
			Err(err).
			Str("conn_id", cl.id).
			Str("type", msg.Type).
			Msg("websocket command rejected")
	}
	g.reply(cl, msg.Ref, out, err)
}

func (g *gateway) reply(cl *client, ref string, data any, err error) {
	out := ack{Type: msgAck, Ref: ref, OK: err == nil, Data: data}
	if err != nil {
		out.Error = err.Error()
		out.Data = nil
	} else if out.Data == nil {
		out.Data = struct{}{}
	}
	encoded, marshalErr := json.Marshal(out)
	if marshalErr != nil {
		log.Error().Err(marshalErr).Str("conn_id", cl.id).Msg("encode ack failed")
		return
	}
	cl.enqueue(encoded)
}

func decodePayload(raw json.RawMessage, dest any) error {
	if len(raw) == 0 {
		raw = json.RawMessage("{}")
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		return errInvalidPayload
	}
	if err := binding.Validator.ValidateStruct(dest); err != nil {
		return errors.New(payloadMessages.message(err, errInvalidPayload.Error()))
	}
	return nil
}

// lookupAndAttach resolves code and adds cl to the room's broadcast group
// before the room command runs, so cl sees the events the command emits.
// cl keeps its current room until bind commits the move; undo only drops the
// new membership.
func (g *gateway) lookupAndAttach(cl *client, code string) (*room.Room, func(), error) {
	rm, err := g.rooms.Lookup(code)
	if err != nil {
		return nil, nil, err
	}
	wasMember := g.attach(cl, rm.Code())
	undo := func() {
		if !wasMember {
			g.detach(cl, rm.Code())
		}
	}
	return rm, undo, nil
}

func (g *gateway) createRoom(ctx context.Context, cl *client) (any, error) {
	rm, err := g.rooms.Create()
	if err != nil {
		return nil, err
	}
	g.attach(cl, rm.Code())
	state, err := rm.BindHost(ctx, cl.id)
	if err != nil {
		g.detach(cl, rm.Code())
		_ = g.rooms.Remove(rm.Code())
		return nil, err
	}
	g.bind(cl, rm.Code(), roleHost, "")
	return roomCreated{Code: rm.Code(), State: state}, nil
}

func (g *gateway) rejoinHost(ctx context.Context, cl *client, raw json.RawMessage) (any, error) {
	var payload roomPayload
	if err := decodePayload(raw, &payload); err != nil {
		return nil, err
	}
	rm, undo, err := g.lookupAndAttach(cl, payload.Code)
	if err != nil {
		return nil, err
	}
	state, err := rm.BindHost(ctx, cl.id)
	if err != nil {
		undo()
		return nil, err
	}
	g.bind(cl, rm.Code(), roleHost, "")
	return roomCreated{Code: rm.Code(), State: state}, nil
}

func (g *gateway) joinSpectator(ctx context.Context, cl *client, raw json.RawMessage) (any, error) {
	var payload roomPayload
	if err := decodePayload(raw, &payload); err != nil {
		return nil, err
	}
	rm, undo, err := g.lookupAndAttach(cl, payload.Code)
	if err != nil {
		return nil, err
	}
	state, err := rm.State(ctx)
	if err != nil {
		undo()
		return nil, err
	}
	g.bind(cl, rm.Code(), roleSpectator, "")
	return stateData{State: state}, nil
}

func (g *gateway) joinPlayer(ctx context.Context, cl *client, raw json.RawMessage) (any, error) {
	var payload joinPlayerPayload
	if err := decodePayload(raw, &payload); err != nil {
		return nil, err
	}
	rm, undo, err := g.lookupAndAttach(cl, payload.Code)
	if err != nil {
		return nil, err
	}
	result, err := rm.Join(ctx, room.JoinRequest{
		Conn:     cl.id,
		Identity: payload.Identity,
		Nickname: payload.Nickname,
		Contact:  payload.Contact,
	})
	if err != nil {
		undo()
		return nil, err
	}
	g.bind(cl, rm.Code(), rolePlayer, result.Player.ID)
	return playerJoined{Player: result.Player, State: result.State, Reconnected: result.Reconnected}, nil
}

func (g *gateway) startQuestion(ctx context.Context, cl *client, raw json.RawMessage) (any, error) {
	var payload startQuestionPayload
	if err := decodePayload(raw, &payload); err != nil {
		return nil, err
	}
	rm, err := g.rooms.Lookup(payload.Code)
	if err != nil {
		return nil, err
	}
	if err := rm.CheckHost(ctx, cl.id); err != nil {
		return nil, err
	}
	question, err := g.questions.Question(ctx, payload.QuestionID)
	if err != nil {
		return nil, err
	}
	return nil, rm.StartQuestion(ctx, cl.id, question, payload.DurationSeconds)
}

func (g *gateway) submitAnswer(ctx context.Context, cl *client, raw json.RawMessage) (any, error) {
	var payload submitAnswerPayload
	if err := decodePayload(raw, &payload); err != nil {
		return nil, err
	}
	code, _, playerID := cl.binding()
	if code == "" || playerID == "" {
		return nil, room.ErrNotJoined
	}
	rm, err := g.rooms.Lookup(code)
	if err != nil {
		return nil, err
	}
	return nil, rm.SubmitAnswer(ctx, cl.id, playerID, payload.Answer)
}

func (g *gateway) finishQuestion(ctx context.Context, cl *client, raw json.RawMessage) (any, error) {
	var payload roomPayload
	if err := decodePayload(raw, &payload); err != nil {
		return nil, err
	}
	rm, err := g.rooms.Lookup(payload.Code)
	if err != nil {
		return nil, err
	}
	return nil, rm.FinishQuestion(ctx, cl.id)
}
