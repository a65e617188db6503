package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"

	"purple-sphinx/internal/db"
	"purple-sphinx/internal/quiz"
	"purple-sphinx/internal/room"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Question returns the catalog entry with the given id, correct answer
// included.
func (s *Store) Question(ctx context.Context, id string) (quiz.Question, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return quiz.Question{}, room.ErrQuestionNotFound
	}
	if s.db == nil {
		s.mu.RLock()
		defer s.mu.RUnlock()
		q, ok := s.questions[id]
		if !ok {
			return quiz.Question{}, room.ErrQuestionNotFound
		}
		return cloneQuestion(q), nil
	}
	var record db.Question
	if err := s.db.WithContext(ctx).First(&record, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return quiz.Question{}, room.ErrQuestionNotFound
		}
		return quiz.Question{}, fmt.Errorf("load question %s: %w", id, err)
	}
	return fromRecord(record)
}

// Questions lists questions ordered by id. An empty setID lists every set.
func (s *Store) Questions(ctx context.Context, setID string) ([]quiz.Question, error) {
	setID = strings.TrimSpace(setID)
	if s.db == nil {
		s.mu.RLock()
		defer s.mu.RUnlock()
		out := make([]quiz.Question, 0, len(s.questions))
		for _, q := range s.questions {
			if setID != "" && q.SetID != setID {
				continue
			}
			out = append(out, cloneQuestion(q))
		}
		sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
		return out, nil
	}
	query := s.db.WithContext(ctx).Order("id")
	if setID != "" {
		query = query.Where("set_id = ?", setID)
	}
	var records []db.Question
	if err := query.Find(&records).Error; err != nil {
		return nil, fmt.Errorf("list questions: %w", err)
	}
	out := make([]quiz.Question, 0, len(records))
	for _, record := range records {
		q, err := fromRecord(record)
		if err != nil {
			return nil, err
		}
		out = append(out, q)
	}
	return out, nil
}

// SaveQuestion creates or replaces a question. A missing id is generated.
func (s *Store) SaveQuestion(ctx context.Context, q quiz.Question) (quiz.Question, error) {
	q.ID = strings.TrimSpace(q.ID)
	if q.ID == "" {
		q.ID = uuid.NewString()
	}
	q.Normalize()
	if err := q.Validate(); err != nil {
		return quiz.Question{}, fmt.Errorf("%w: %v", ErrInvalidQuestion, err)
	}
	if err := s.ensureSet(ctx, q.SetID); err != nil {
		return quiz.Question{}, err
	}

	if s.db == nil {
		s.mu.Lock()
		defer s.mu.Unlock()
		s.questions[q.ID] = cloneQuestion(q)
		return cloneQuestion(q), nil
	}
	record, err := toRecord(q)
	if err != nil {
		return quiz.Question{}, err
	}
	err = s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"set_id", "kind", "prompt_html", "image_path", "options", "correct", "points", "updated_at"}),
	}).Create(&record).Error
	if err != nil {
		return quiz.Question{}, fmt.Errorf("save question %s: %w", q.ID, err)
	}
	return q, nil
}

func (s *Store) DeleteQuestion(ctx context.Context, id string) error {
	if s.db == nil {
		s.mu.Lock()
		defer s.mu.Unlock()
		if _, ok := s.questions[id]; !ok {
			return room.ErrQuestionNotFound
		}
		delete(s.questions, id)
		return nil
	}
	result := s.db.WithContext(ctx).Delete(&db.Question{}, "id = ?", id)
	if result.Error != nil {
		return fmt.Errorf("delete question %s: %w", id, result.Error)
	}
	if result.RowsAffected == 0 {
		return room.ErrQuestionNotFound
	}
	return nil
}

// EnsureDefaults creates the default set and, on an empty catalog, the
// default questions.
func (s *Store) EnsureDefaults(ctx context.Context) error {
	if s.db == nil {
		return nil
	}
	conn := s.db.WithContext(ctx)
	set := db.QuestionSet{ID: quiz.DefaultSetID, Name: "Default"}
	if err := conn.Clauses(clause.OnConflict{DoNothing: true}).Create(&set).Error; err != nil {
		return fmt.Errorf("create default set: %w", err)
	}
	var count int64
	if err := conn.Model(&db.Question{}).Count(&count).Error; err != nil {
		return fmt.Errorf("count questions: %w", err)
	}
	if count > 0 {
		return nil
	}
	for _, q := range DefaultQuestions() {
		if _, err := s.SaveQuestion(ctx, q); err != nil {
			return err
		}
	}
	return nil
}

func toRecord(q quiz.Question) (db.Question, error) {
	record := db.Question{
		ID:         q.ID,
		SetID:      q.SetID,
		Kind:       string(q.Kind),
		PromptHTML: q.PromptHTML,
		ImagePath:  q.ImagePath,
		Points:     q.Points,
	}
	if len(q.Options) > 0 {
		options, err := json.Marshal(q.Options)
		if err != nil {
			return db.Question{}, fmt.Errorf("encode options: %w", err)
		}
		record.Options = datatypes.JSON(options)
	}
	if len(q.Correct) > 0 {
		record.Correct = datatypes.JSON(q.Correct)
	}
	return record, nil
}

func fromRecord(record db.Question) (quiz.Question, error) {
	q := quiz.Question{
		ID:         record.ID,
		Kind:       quiz.Kind(record.Kind),
		PromptHTML: record.PromptHTML,
		ImagePath:  record.ImagePath,
		Points:     record.Points,
		SetID:      record.SetID,
	}
	if len(record.Options) > 0 {
		if err := json.Unmarshal(record.Options, &q.Options); err != nil {
			return quiz.Question{}, fmt.Errorf("decode options of %s: %w", record.ID, err)
		}
	}
	if len(record.Correct) > 0 && string(record.Correct) != "null" {
		q.Correct = json.RawMessage(record.Correct)
	}
	return q, nil
}

func cloneQuestion(q quiz.Question) quiz.Question {
	if q.Options != nil {
		q.Options = append([]quiz.Option(nil), q.Options...)
	}
	if q.Correct != nil {
		q.Correct = append(json.RawMessage(nil), q.Correct...)
	}
	return q
}
