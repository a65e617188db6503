package quiz

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

type Kind string

const (
	KindBinary      Kind = "truefalse"
	KindMultiSelect Kind = "multi"
	KindFreeText    Kind = "open"
)

const DefaultSetID = "default"

var (
	ErrUnknownKind     = errors.New("unknown question kind")
	ErrMissingPrompt   = errors.New("prompt is required")
	ErrMissingOptions  = errors.New("multi questions need at least one option")
	ErrMissingCorrect  = errors.New("correct answer is required")
	ErrInvalidCorrect  = errors.New("correct answer does not match question kind")
	ErrNegativePoints  = errors.New("points must not be negative")
	ErrDuplicateOption = errors.New("option ids must be unique")
)

// Valid reports whether k is one of the supported kinds.
func (k Kind) Valid() bool {
	switch k {
	case KindBinary, KindMultiSelect, KindFreeText:
		return true
	default:
		return false
	}
}

type Option struct {
	ID    string `json:"id"`
	Label string `json:"label"`
}

// Question is a catalog entry. Correct holds a JSON string for binary
// questions and a JSON array of option ids for multi questions.
type Question struct {
	ID         string          `json:"id"`
	Kind       Kind            `json:"type"`
	PromptHTML string          `json:"prompt_html"`
	ImagePath  string          `json:"image_path,omitempty"`
	Options    []Option        `json:"options,omitempty"`
	Correct    json.RawMessage `json:"correct,omitempty"`
	Points     int             `json:"points"`
	SetID      string          `json:"set_id"`
}

// PublicQuestion is what players see while a question is open.
type PublicQuestion struct {
	ID         string   `json:"id"`
	Kind       Kind     `json:"type"`
	PromptHTML string   `json:"prompt_html"`
	ImagePath  string   `json:"image_path,omitempty"`
	Options    []Option `json:"options,omitempty"`
	Points     int      `json:"points"`
}

func (q Question) Public() PublicQuestion {
	options := make([]Option, len(q.Options))
	copy(options, q.Options)
	return PublicQuestion{
		ID:         q.ID,
		Kind:       q.Kind,
		PromptHTML: q.PromptHTML,
		ImagePath:  q.ImagePath,
		Options:    options,
		Points:     q.Points,
	}
}

// Normalize trims text fields, fills the default set and drops a correct
// answer from free-text questions.
func (q *Question) Normalize() {
	q.PromptHTML = strings.TrimSpace(q.PromptHTML)
	q.SetID = strings.TrimSpace(q.SetID)
	if q.SetID == "" {
		q.SetID = DefaultSetID
	}
	if q.Kind == KindFreeText {
		q.Correct = nil
		if q.Points < 0 {
			q.Points = 0
		}
	}
	if q.Kind != KindMultiSelect {
		q.Options = nil
	}
}

func (q Question) Validate() error {
	if !q.Kind.Valid() {
		return fmt.Errorf("%w: %q", ErrUnknownKind, q.Kind)
	}
	if strings.TrimSpace(q.PromptHTML) == "" {
		return ErrMissingPrompt
	}
	if q.Points < 0 {
		return ErrNegativePoints
	}
	switch q.Kind {
	case KindBinary:
		text, ok := textOf(q.Correct)
		if !ok {
			return ErrMissingCorrect
		}
		if text != "true" && text != "false" {
			return ErrInvalidCorrect
		}
	case KindMultiSelect:
		if len(q.Options) == 0 {
			return ErrMissingOptions
		}
		known := make(map[string]struct{}, len(q.Options))
		for _, option := range q.Options {
			if _, dup := known[option.ID]; dup {
				return ErrDuplicateOption
			}
			known[option.ID] = struct{}{}
		}
		correct, ok := setOf(q.Correct)
		if !ok {
			return ErrMissingCorrect
		}
		for id := range correct {
			if _, found := known[id]; !found {
				return ErrInvalidCorrect
			}
		}
	}
	return nil
}
