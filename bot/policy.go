package bot

import (
	"sync"

	"github.com/habiliai/botruntime/errors"
	"github.com/habiliai/botruntime/world"
)

// Combat is what a policy sees of the bot it decides for.
type Combat struct {
	Self      world.Body
	Owner     world.Owner
	Cooldowns *Cooldowns
}

// Policy decides one combat step against target and issues the resulting
// commands to the world through c.Self.
type Policy func(c *Combat, target world.Entity)

var (
	policiesMu sync.RWMutex
	policies   = map[Role]Policy{
		RoleMelee:  meleePolicy,
		RoleTank:   tankPolicy,
		RoleHealer: healerPolicy,
		RoleCaster: casterPolicy,
		RoleRanged: rangedPolicy,
	}
)

// RegisterPolicy installs or replaces the policy run for role.
func RegisterPolicy(role Role, p Policy) {
	policiesMu.Lock()
	defer policiesMu.Unlock()
	policies[role] = p
}

// PolicyFor returns the policy registered for role, or the melee policy.
func PolicyFor(role Role) Policy {
	policiesMu.RLock()
	defer policiesMu.RUnlock()
	if p, ok := policies[role]; ok {
		return p
	}
	return policies[RoleMelee]
}

// Decide runs p once the combat preconditions hold: the bot, its owner and
// the target are all alive. Otherwise it reports ErrPolicyPrecondition and
// issues nothing.
func Decide(p Policy, c *Combat, target world.Entity) error {
	switch {
	case c == nil || c.Self == nil || c.Cooldowns == nil:
		return errors.Wrapf(errors.ErrPolicyPrecondition, "bot is absent")
	case !c.Self.IsAlive():
		return errors.Wrapf(errors.ErrPolicyPrecondition, "bot %s is dead", c.Self.ID())
	case c.Owner == nil || !c.Owner.IsAlive():
		return errors.Wrapf(errors.ErrPolicyPrecondition, "owner of bot %s is absent or dead", c.Self.ID())
	case target == nil || !target.IsAlive():
		return errors.Wrapf(errors.ErrPolicyPrecondition, "target is absent or dead")
	}

	p(c, target)
	return nil
}

func sameEntity(a, b world.Entity) bool {
	if a == nil || b == nil {
		return false
	}
	return a.ID() == b.ID()
}

// attack starts or keeps up a melee attack on target if the combat cooldown allows.
func (c *Combat) attack(target world.Entity) bool {
	if !c.Cooldowns.CanPerformCombatAction() {
		return false
	}
	if !c.Self.IsAttacking() || !sameEntity(c.Self.Target(), target) {
		c.Self.StartAttack(target)
	}
	c.Cooldowns.MarkCombatAction()
	return true
}
