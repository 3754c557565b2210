package entity

// BotSettings holds the behavioral tuning of a bot, keyed 1:1 by profile.
type BotSettings struct {
	BotID           uint   `gorm:"primaryKey;autoIncrement:false"`
	FollowDistance  int16  `gorm:"not null"`
	CombatMode      string `gorm:"not null;size:32"`
	HealThreshold   uint8  `gorm:"not null"`
	PreferredTarget string `gorm:"not null;size:32"`
}

func (BotSettings) TableName() string {
	return "bot_settings"
}

const (
	CombatModeAssist     = "Assist"
	PreferredTargetOwner = "Owner"
)

// DefaultBotSettings mirrors the fixed policy constants the controller runs with.
func DefaultBotSettings(botID uint) BotSettings {
	return BotSettings{
		BotID:           botID,
		FollowDistance:  150,
		CombatMode:      CombatModeAssist,
		HealThreshold:   50,
		PreferredTarget: PreferredTargetOwner,
	}
}
