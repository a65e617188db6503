package db

import (
	"time"

	"gorm.io/datatypes"
)

type QuestionSet struct {
	ID        string    `gorm:"primaryKey;size:64"`
	Name      string    `gorm:"size:120;not null"`
	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
	Questions []Question `gorm:"foreignKey:SetID"`
}

type Question struct {
	ID         string         `gorm:"primaryKey;size:64"`
	SetID      string         `gorm:"size:64;index;not null"`
	Kind       string         `gorm:"size:16;not null"`
	PromptHTML string         `gorm:"type:text;not null"`
	ImagePath  string         `gorm:"size:255"`
	Options    datatypes.JSON `gorm:"type:jsonb"`
	Correct    datatypes.JSON `gorm:"type:jsonb"`
	Points     int            `gorm:"not null;default:0"`
	CreatedAt  time.Time      `gorm:"not null"`
	UpdatedAt  time.Time      `gorm:"not null"`
}

// PlayerArchive holds one row per durable identity that ever joined a room.
type PlayerArchive struct {
	ID        uint      `gorm:"primaryKey"`
	Identity  string    `gorm:"size:128;uniqueIndex;not null"`
	Nickname  string    `gorm:"size:64;not null"`
	Contact   string    `gorm:"size:120"`
	RoomCode  string    `gorm:"size:12;not null"`
	JoinedAt  time.Time `gorm:"not null"`
	CreatedAt time.Time `gorm:"not null"`
}

func (PlayerArchive) TableName() string {
	return "player_archive"
}

// BrandingID is the key of the single branding row.
const BrandingID = 1

type Branding struct {
	ID        uint      `gorm:"primaryKey"`
	Theme     string    `gorm:"size:64;not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

func (Branding) TableName() string {
	return "branding"
}
