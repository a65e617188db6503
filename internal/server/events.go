package server

import (
	"encoding/json"

	"purple-sphinx/internal/room"
)

const (
	msgCreateRoom     = "create_room"
	msgRejoinHost     = "rejoin_host"
	msgJoinSpectator  = "join_spectator"
	msgJoinPlayer     = "join_player"
	msgStartQuestion  = "start_question"
	msgSubmitAnswer   = "submit_answer"
	msgFinishQuestion = "finish_question"

	msgAck = "ack"
)

// frame is what clients send. Ref is echoed back in the matching ack.
type frame struct {
	Ref     string          `json:"ref"`
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type ack struct {
	Type  string `json:"type"`
	Ref   string `json:"ref,omitempty"`
	OK    bool   `json:"ok"`
	Error string `json:"error,omitempty"`
	Data  any    `json:"data,omitempty"`
}

type roomPayload struct {
	Code string `json:"code" binding:"required,roomcode"`
}

type joinPlayerPayload struct {
	Code     string `json:"code" binding:"required,roomcode"`
	Nickname string `json:"nickname" binding:"notblank"`
	Contact  string `json:"contact"`
	Identity string `json:"identity" binding:"max=128"`
}

type startQuestionPayload struct {
	Code            string `json:"code" binding:"required,roomcode"`
	QuestionID      string `json:"question_id" binding:"required,max=64"`
	DurationSeconds int    `json:"duration_seconds"`
}

type submitAnswerPayload struct {
	Answer json.RawMessage `json:"answer"`
}

type roomCreated struct {
	Code  string     `json:"code"`
	State room.State `json:"state"`
}

type stateData struct {
	State room.State `json:"state"`
}

type playerJoined struct {
	Player      room.Player `json:"player"`
	State       room.State  `json:"state"`
	Reconnected bool        `json:"reconnected"`
}

var payloadMessages = fieldMessages{
	"Code.required":       "code is required",
	"Code.roomcode":       "invalid room code",
	"QuestionID.required": "question_id is required",
	"QuestionID.max":      "question_id is too long",
	"Nickname.notblank":   "nickname required",
	"Identity.max":        "identity too long",
}
