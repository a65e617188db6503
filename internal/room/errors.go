package room

import "errors"

var (
	ErrRoomNotFound        = errors.New("room not found")
	ErrRoomClosed          = errors.New("room closed")
	ErrNotHost             = errors.New("not host")
	ErrNotJoined           = errors.New("not joined")
	ErrNotAcceptingAnswers = errors.New("not accepting answers")
	ErrTimeUp              = errors.New("time is up")
	ErrAlreadyAnswered     = errors.New("already answered")
	ErrQuestionInProgress  = errors.New("question already in progress")
	ErrQuestionNotFound    = errors.New("question not found")
	ErrNicknameRequired    = errors.New("nickname required")
	ErrIdentityTooLong     = errors.New("identity too long")
	ErrCodeSpaceExhausted  = errors.New("could not allocate a room code")
)

// IsNotFound reports errors a caller should treat as a missing resource.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrRoomNotFound) || errors.Is(err, ErrQuestionNotFound) || errors.Is(err, ErrRoomClosed)
}

// IsUnauthorized reports errors caused by a caller without the host binding.
func IsUnauthorized(err error) bool {
	return errors.Is(err, ErrNotHost) || errors.Is(err, ErrNotJoined)
}

// IsConflict reports errors caused by the room's phase or the deadline.
func IsConflict(err error) bool {
	return errors.Is(err, ErrNotAcceptingAnswers) ||
		errors.Is(err, ErrTimeUp) ||
		errors.Is(err, ErrAlreadyAnswered) ||
		errors.Is(err, ErrQuestionInProgress)
}

// IsValidation reports errors caused by missing or oversized input.
func IsValidation(err error) bool {
	return errors.Is(err, ErrNicknameRequired) || errors.Is(err, ErrIdentityTooLong)
}
