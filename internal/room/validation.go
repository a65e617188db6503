package room

import (
	"strings"

	"github.com/google/uuid"
)

const (
	maxNicknameLength = 40
	maxContactLength  = 120
	maxIdentityLength = 128
)

type joinFields struct {
	identity string
	nickname string
	contact  string
}

func validateJoin(req JoinRequest) (joinFields, error) {
	nickname := clip(normalizeText(req.Nickname), maxNicknameLength)
	if nickname == "" {
		return joinFields{}, ErrNicknameRequired
	}
	identity := strings.TrimSpace(req.Identity)
	if len(identity) > maxIdentityLength {
		return joinFields{}, ErrIdentityTooLong
	}
	if identity == "" {
		identity = uuid.NewString()
	}
	return joinFields{
		identity: identity,
		nickname: nickname,
		contact:  clip(strings.TrimSpace(req.Contact), maxContactLength),
	}, nil
}

func normalizeText(text string) string {
	fields := strings.Fields(strings.TrimSpace(text))
	return strings.Join(fields, " ")
}

func clip(text string, limit int) string {
	count := 0
	for i := range text {
		if count == limit {
			return strings.TrimSpace(text[:i])
		}
		count++
	}
	return text
}

func clampDuration(seconds int) int {
	if seconds == 0 {
		return defaultDurationSeconds
	}
	if seconds < minDurationSeconds {
		return minDurationSeconds
	}
	if seconds > maxDurationSeconds {
		return maxDurationSeconds
	}
	return seconds
}
