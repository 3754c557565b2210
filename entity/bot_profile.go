package entity

import (
	"time"

	"github.com/habiliai/botruntime/errors"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// BotProfile is the durable record of a bot. ID is assigned by the database
// on insert and is never reused once deleted.
type BotProfile struct {
	ID        uint `gorm:"primaryKey;autoIncrement"`
	CreatedAt time.Time
	UpdatedAt time.Time

	OwnerID  string `gorm:"index;not null;size:255"`
	Name     string `gorm:"not null;size:64"`
	ClassID  uint8  `gorm:"not null"`
	RaceID   uint8  `gorm:"not null"`
	GenderID uint8  `gorm:"not null"`
	Level    uint8  `gorm:"not null"`
	IsActive bool   `gorm:"not null"`

	Metadata datatypes.JSONType[map[string]string]

	Settings *BotSettings `gorm:"foreignKey:BotID;constraint:OnDelete:CASCADE"`
}

func (BotProfile) TableName() string {
	return "bot_profiles"
}

func (p *BotProfile) Delete(db *gorm.DB) error {
	return errors.Wrapf(db.Delete(p).Error, "failed to delete bot profile")
}
