package bot

import (
	"time"
)

// Fixed policy constants. They are part of the game's behavior and are not
// runtime-configurable.
const (
	MaxBotsPerOwner = 15

	FollowDistance    = 150.0
	MaxFollowDistance = 400.0

	HealThreshold = 50
	OptimalRange  = 1500.0

	CastCooldown   = 2000 * time.Millisecond
	CombatCooldown = 1500 * time.Millisecond
)

type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

var SystemClock Clock = systemClock{}

// Cooldowns gates spell casts and combat actions of one bot. It is owned by
// that bot's controller and must not be shared.
//
// Gating is attempt-based: marking happens whenever an action is tried,
// whether or not the world reports it as successful.
type Cooldowns struct {
	clock            Clock
	lastSpellCast    time.Time
	lastCombatAction time.Time
}

func NewCooldowns(clock Clock) Cooldowns {
	if clock == nil {
		clock = SystemClock
	}
	return Cooldowns{clock: clock}
}

func (c *Cooldowns) CanCastSpell() bool {
	return c.lastSpellCast.IsZero() || c.clock.Now().Sub(c.lastSpellCast) >= CastCooldown
}

func (c *Cooldowns) CanPerformCombatAction() bool {
	return c.lastCombatAction.IsZero() || c.clock.Now().Sub(c.lastCombatAction) >= CombatCooldown
}

func (c *Cooldowns) MarkSpellCast() {
	c.lastSpellCast = c.clock.Now()
}

func (c *Cooldowns) MarkCombatAction() {
	c.lastCombatAction = c.clock.Now()
}
