package catalog

import (
	"context"
	"fmt"
	"sort"
	"time"

	"purple-sphinx/internal/db"
	"purple-sphinx/internal/room"

	"gorm.io/gorm/clause"
)

// Archive records a player the first time their identity joins any room.
// Later joins with the same identity are ignored.
func (s *Store) Archive(ctx context.Context, entry room.ArchiveEntry) error {
	if entry.Identity == "" {
		return nil
	}
	if entry.JoinedAt.IsZero() {
		entry.JoinedAt = time.Now().UTC()
	}
	if s.db == nil {
		s.mu.Lock()
		defer s.mu.Unlock()
		if _, ok := s.archive[entry.Identity]; ok {
			return nil
		}
		s.archiveID++
		s.archive[entry.Identity] = ArchivedPlayer{
			ID:       s.archiveID,
			Identity: entry.Identity,
			Nickname: entry.Nickname,
			Contact:  entry.Contact,
			RoomCode: entry.RoomCode,
			JoinedAt: entry.JoinedAt,
		}
		return nil
	}
	record := db.PlayerArchive{
		Identity: entry.Identity,
		Nickname: entry.Nickname,
		Contact:  entry.Contact,
		RoomCode: entry.RoomCode,
		JoinedAt: entry.JoinedAt,
	}
	err := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "identity"}}, DoNothing: true}).
		Create(&record).Error
	if err != nil && !isUniqueViolation(err) {
		return fmt.Errorf("archive player: %w", err)
	}
	return nil
}

// ArchivedPlayers lists the archive, newest first.
func (s *Store) ArchivedPlayers(ctx context.Context) ([]ArchivedPlayer, error) {
	if s.db == nil {
		s.mu.RLock()
		out := make([]ArchivedPlayer, 0, len(s.archive))
		for _, entry := range s.archive {
			out = append(out, entry)
		}
		s.mu.RUnlock()
		sort.Slice(out, func(i, j int) bool {
			if out[i].JoinedAt.Equal(out[j].JoinedAt) {
				return out[i].ID > out[j].ID
			}
			return out[i].JoinedAt.After(out[j].JoinedAt)
		})
		return out, nil
	}
	var records []db.PlayerArchive
	if err := s.db.WithContext(ctx).Order("joined_at desc, id desc").Find(&records).Error; err != nil {
		return nil, fmt.Errorf("list player archive: %w", err)
	}
	out := make([]ArchivedPlayer, 0, len(records))
	for _, record := range records {
		out = append(out, ArchivedPlayer{
			ID:       record.ID,
			Identity: record.Identity,
			Nickname: record.Nickname,
			Contact:  record.Contact,
			RoomCode: record.RoomCode,
			JoinedAt: record.JoinedAt,
		})
	}
	return out, nil
}

func (s *Store) DeleteArchivedPlayer(ctx context.Context, id uint) error {
	if s.db == nil {
		s.mu.Lock()
		defer s.mu.Unlock()
		for identity, entry := range s.archive {
			if entry.ID == id {
				delete(s.archive, identity)
				return nil
			}
		}
		return ErrArchiveNotFound
	}
	result := s.db.WithContext(ctx).Delete(&db.PlayerArchive{}, id)
	if result.Error != nil {
		return fmt.Errorf("delete archived player %d: %w", id, result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrArchiveNotFound
	}
	return nil
}
