package bot

import (
	"github.com/habiliai/botruntime/world"
	"github.com/samber/lo"
)

func meleePolicy(c *Combat, target world.Entity) {
	c.attack(target)
}

// tankPolicy taunts whenever the target is focused on someone else, then
// keeps swinging.
func tankPolicy(c *Combat, target world.Entity) {
	if !c.Cooldowns.CanPerformCombatAction() {
		return
	}

	if !sameEntity(target.Target(), c.Self) && c.Cooldowns.CanCastSpell() {
		c.Self.CastSpell(world.SpellTaunt, target)
		c.Cooldowns.MarkSpellCast()
	}

	c.attack(target)
}

// healerPolicy heals the most injured group member below HealThreshold and
// only fights when nobody needs it.
func healerPolicy(c *Combat, target world.Entity) {
	if c.Cooldowns.CanCastSpell() {
		candidates := c.Owner.Group()
		if len(candidates) == 0 {
			candidates = []world.Entity{c.Owner}
		}

		if patient := SelectHealTarget(candidates); patient != nil {
			c.Self.CastSpell(world.SpellHeal, patient)
			c.Cooldowns.MarkSpellCast()
			return
		}
	}

	c.attack(target)
}

type vitals struct {
	entity world.Entity
	health int
}

// SelectHealTarget picks the living candidate with the lowest health below
// HealThreshold. Ties go to the candidate listed first. It returns nil when
// nobody is below the threshold.
func SelectHealTarget(candidates []world.Entity) world.Entity {
	injured := lo.FilterMap(candidates, func(e world.Entity, _ int) (vitals, bool) {
		if e == nil || !e.IsAlive() {
			return vitals{}, false
		}
		v := vitals{entity: e, health: e.HealthPercent()}
		return v, v.health < HealThreshold
	})
	if len(injured) == 0 {
		return nil
	}

	return lo.MinBy(injured, func(a, b vitals) bool {
		return a.health < b.health
	}).entity
}

// casterPolicy opens with a damage spell and falls back to melee only when
// no spell went off.
func casterPolicy(c *Combat, target world.Entity) {
	if c.Cooldowns.CanCastSpell() {
		cast := c.Self.CastSpell(world.SpellDamage, target)
		c.Cooldowns.MarkSpellCast()
		if cast {
			return
		}
	}

	c.attack(target)
}

// rangedPolicy backs off from targets closer than half the optimal range.
func rangedPolicy(c *Combat, target world.Entity) {
	if c.Self.Position().DistanceTo(target.Position()) < OptimalRange/2 {
		c.Self.MoveAwayFrom(target, OptimalRange/2)
	}

	c.attack(target)
}
