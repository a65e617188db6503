package catalog

import (
	"encoding/json"
	"errors"
	"sync"
	"time"

	"purple-sphinx/internal/quiz"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

var (
	ErrInvalidQuestion     = errors.New("invalid question")
	ErrSetNotFound         = errors.New("question set not found")
	ErrSetNameRequired     = errors.New("question set name is required")
	ErrDefaultSetProtected = errors.New("default question set cannot be deleted")
	ErrArchiveNotFound     = errors.New("archived player not found")
	ErrThemeRequired       = errors.New("theme is required")
)

type QuestionSet struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Questions int    `json:"question_count"`
}

type ArchivedPlayer struct {
	ID       uint      `json:"id"`
	Identity string    `json:"identity"`
	Nickname string    `json:"nickname"`
	Contact  string    `json:"contact,omitempty"`
	RoomCode string    `json:"room_code"`
	JoinedAt time.Time `json:"joined_at"`
}

// Store serves questions, question sets, the player archive and branding. With a nil
// database it keeps everything in memory, seeded with the default questions.
type Store struct {
	db *gorm.DB

	mu        sync.RWMutex
	questions map[string]quiz.Question
	sets      map[string]QuestionSet
	archive   map[string]ArchivedPlayer
	archiveID uint
	branding  Branding
}

func New(conn *gorm.DB) *Store {
	store := &Store{db: conn}
	if conn == nil {
		store.questions = make(map[string]quiz.Question)
		store.sets = map[string]QuestionSet{
			quiz.DefaultSetID: {ID: quiz.DefaultSetID, Name: "Default"},
		}
		store.archive = make(map[string]ArchivedPlayer)
		store.branding = Branding{Theme: DefaultTheme}
		for _, q := range DefaultQuestions() {
			store.questions[q.ID] = q
		}
	}
	return store
}

// Persistent reports whether the store is backed by a database.
func (s *Store) Persistent() bool {
	return s.db != nil
}

// DefaultQuestions returns the questions a fresh catalog starts with.
func DefaultQuestions() []quiz.Question {
	return []quiz.Question{
		{
			ID:         "seed_truefalse_1",
			Kind:       quiz.KindBinary,
			PromptHTML: "<p>The Earth orbits the Sun.</p>",
			Correct:    json.RawMessage(`"true"`),
			Points:     100,
			SetID:      quiz.DefaultSetID,
		},
		{
			ID:         "seed_multi_1",
			Kind:       quiz.KindMultiSelect,
			PromptHTML: "<p>Select the purple/blue tones:</p>",
			Options: []quiz.Option{
				{ID: "1", Label: "Purple"},
				{ID: "2", Label: "Blue"},
				{ID: "3", Label: "Grey"},
			},
			Correct: json.RawMessage(`["1","2"]`),
			Points:  200,
			SetID:   quiz.DefaultSetID,
		},
	}
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return false
}
