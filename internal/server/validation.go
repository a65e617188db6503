package server

import (
	"strings"
	"sync"

	"purple-sphinx/internal/quiz"
	"purple-sphinx/internal/room"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

const roomCodeLength = 6

var validatorOnce sync.Once

func registerValidators() {
	validatorOnce.Do(func() {
		engine, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		_ = engine.RegisterValidation("roomcode", func(fl validator.FieldLevel) bool {
			return validRoomCode(fl.Field().String())
		})
		_ = engine.RegisterValidation("notblank", func(fl validator.FieldLevel) bool {
			return strings.TrimSpace(fl.Field().String()) != ""
		})
		_ = engine.RegisterValidation("questionkind", func(fl validator.FieldLevel) bool {
			return quiz.Kind(fl.Field().String()).Valid()
		})
	})
}

// validRoomCode accepts any casing; lookups normalize before use.
func validRoomCode(code string) bool {
	code = room.NormalizeCode(code)
	if len(code) != roomCodeLength {
		return false
	}
	for _, r := range code {
		if !(r >= 'A' && r <= 'Z') && !(r >= '0' && r <= '9') {
			return false
		}
	}
	return true
}

func normalizeText(text string) string {
	fields := strings.Fields(strings.TrimSpace(text))
	return strings.Join(fields, " ")
}
