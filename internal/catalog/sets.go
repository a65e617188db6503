package catalog

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"purple-sphinx/internal/db"
	"purple-sphinx/internal/quiz"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const maxSetNameLength = 120

// Sets lists question sets with their question counts, default first.
func (s *Store) Sets(ctx context.Context) ([]QuestionSet, error) {
	var out []QuestionSet
	if s.db == nil {
		s.mu.RLock()
		counts := make(map[string]int, len(s.sets))
		for _, q := range s.questions {
			counts[q.SetID]++
		}
		for _, set := range s.sets {
			set.Questions = counts[set.ID]
			out = append(out, set)
		}
		s.mu.RUnlock()
	} else {
		var records []db.QuestionSet
		if err := s.db.WithContext(ctx).Find(&records).Error; err != nil {
			return nil, fmt.Errorf("list question sets: %w", err)
		}
		type setCount struct {
			SetID string
			Count int
		}
		var counts []setCount
		err := s.db.WithContext(ctx).Model(&db.Question{}).
			Select("set_id, count(*) as count").
			Group("set_id").
			Scan(&counts).Error
		if err != nil {
			return nil, fmt.Errorf("count questions per set: %w", err)
		}
		bySet := make(map[string]int, len(counts))
		for _, c := range counts {
			bySet[c.SetID] = c.Count
		}
		for _, record := range records {
			out = append(out, QuestionSet{ID: record.ID, Name: record.Name, Questions: bySet[record.ID]})
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].ID == quiz.DefaultSetID || out[j].ID == quiz.DefaultSetID {
			return out[i].ID == quiz.DefaultSetID
		}
		return out[i].Name < out[j].Name
	})
	return out, nil
}

// SaveSet creates or renames a question set.
func (s *Store) SaveSet(ctx context.Context, set QuestionSet) (QuestionSet, error) {
	set.ID = strings.TrimSpace(set.ID)
	set.Name = strings.TrimSpace(set.Name)
	if set.Name == "" {
		return QuestionSet{}, ErrSetNameRequired
	}
	if len([]rune(set.Name)) > maxSetNameLength {
		set.Name = string([]rune(set.Name)[:maxSetNameLength])
	}
	if set.ID == "" {
		set.ID = uuid.NewString()
	}
	set.Questions = 0

	if s.db == nil {
		s.mu.Lock()
		defer s.mu.Unlock()
		s.sets[set.ID] = set
		return set, nil
	}
	record := db.QuestionSet{ID: set.ID, Name: set.Name}
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"name", "updated_at"}),
	}).Create(&record).Error
	if err != nil {
		return QuestionSet{}, fmt.Errorf("save question set %s: %w", set.ID, err)
	}
	return set, nil
}

// DeleteSet removes a set and moves its questions to the default set.
func (s *Store) DeleteSet(ctx context.Context, id string) error {
	if id == quiz.DefaultSetID {
		return ErrDefaultSetProtected
	}
	if s.db == nil {
		s.mu.Lock()
		defer s.mu.Unlock()
		if _, ok := s.sets[id]; !ok {
			return ErrSetNotFound
		}
		for qid, q := range s.questions {
			if q.SetID == id {
				q.SetID = quiz.DefaultSetID
				s.questions[qid] = q
			}
		}
		delete(s.sets, id)
		return nil
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&db.Question{}).Where("set_id = ?", id).Update("set_id", quiz.DefaultSetID).Error; err != nil {
			return fmt.Errorf("move questions of set %s: %w", id, err)
		}
		result := tx.Delete(&db.QuestionSet{}, "id = ?", id)
		if result.Error != nil {
			return fmt.Errorf("delete question set %s: %w", id, result.Error)
		}
		if result.RowsAffected == 0 {
			return ErrSetNotFound
		}
		return nil
	})
}

func (s *Store) ensureSet(ctx context.Context, id string) error {
	if s.db == nil {
		s.mu.RLock()
		defer s.mu.RUnlock()
		if _, ok := s.sets[id]; !ok {
			return ErrSetNotFound
		}
		return nil
	}
	var record db.QuestionSet
	if err := s.db.WithContext(ctx).First(&record, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrSetNotFound
		}
		return fmt.Errorf("load question set %s: %w", id, err)
	}
	return nil
}
