package catalog

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"purple-sphinx/internal/db"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const DefaultTheme = "purple-blue"

// Branding is the public look of the quiz front end.
type Branding struct {
	Theme string `json:"theme"`
}

// Branding returns the saved branding, or the default theme when none was
// saved yet.
func (s *Store) Branding(ctx context.Context) (Branding, error) {
	if s.db == nil {
		s.mu.RLock()
		defer s.mu.RUnlock()
		return s.branding, nil
	}
	var record db.Branding
	err := s.db.WithContext(ctx).First(&record, db.BrandingID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return Branding{Theme: DefaultTheme}, nil
	}
	if err != nil {
		return Branding{}, fmt.Errorf("load branding: %w", err)
	}
	return Branding{Theme: record.Theme}, nil
}

func (s *Store) SaveBranding(ctx context.Context, branding Branding) (Branding, error) {
	branding.Theme = strings.TrimSpace(branding.Theme)
	if branding.Theme == "" {
		return Branding{}, ErrThemeRequired
	}
	if s.db == nil {
		s.mu.Lock()
		defer s.mu.Unlock()
		s.branding = branding
		return branding, nil
	}
	record := db.Branding{ID: db.BrandingID, Theme: branding.Theme}
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"theme", "updated_at"}),
	}).Create(&record).Error
	if err != nil {
		return Branding{}, fmt.Errorf("save branding: %w", err)
	}
	return branding, nil
}
