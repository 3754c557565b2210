package bot_test

import (
	"testing"
	"time"

	"github.com/habiliai/botruntime/bot"
	"github.com/stretchr/testify/assert"
)

func TestCooldowns(t *testing.T) {
	clock := newFakeClock()
	cd := bot.NewCooldowns(clock)

	assert.True(t, cd.CanCastSpell())
	assert.True(t, cd.CanPerformCombatAction())

	cd.MarkSpellCast()
	cd.MarkCombatAction()
	assert.False(t, cd.CanCastSpell())
	assert.False(t, cd.CanPerformCombatAction())

	clock.Advance(bot.CombatCooldown - time.Millisecond)
	assert.False(t, cd.CanPerformCombatAction())

	clock.Advance(time.Millisecond)
	assert.True(t, cd.CanPerformCombatAction())
	assert.False(t, cd.CanCastSpell())

	clock.Advance(bot.CastCooldown - bot.CombatCooldown)
	assert.True(t, cd.CanCastSpell())
}
