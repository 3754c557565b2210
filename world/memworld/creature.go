package memworld

import (
	"slices"
	"sync"

	"github.com/habiliai/botruntime/world"
)

type ActionKind string

const (
	ActionMoveTo        ActionKind = "move_to"
	ActionFollow        ActionKind = "follow"
	ActionStopFollowing ActionKind = "stop_following"
	ActionMoveAway      ActionKind = "move_away"
	ActionStartAttack   ActionKind = "start_attack"
	ActionStopAttack    ActionKind = "stop_attack"
	ActionCast          ActionKind = "cast"
)

// Action is one command a creature received, kept in its journal.
type Action struct {
	Kind     ActionKind      `json:"kind"`
	TargetID string          `json:"targetId,omitempty"`
	Spell    world.SpellKind `json:"spell,omitempty"`
	Position world.Vec3      `json:"position"`
}

type Creature struct {
	mu sync.RWMutex

	id   string
	name string

	pos       world.Vec3
	health    int
	target    world.Entity
	attacking bool
	following world.Entity
	inWorld   bool

	spells  map[world.SpellKind]bool
	journal []Action
}

var (
	_ world.Body = (*Creature)(nil)
)

func NewCreature(id, name string, pos world.Vec3) *Creature {
	return &Creature{
		id:     id,
		name:   name,
		pos:    pos,
		health: 100,
		spells: map[world.SpellKind]bool{
			world.SpellHeal:   true,
			world.SpellTaunt:  true,
			world.SpellDamage: true,
		},
	}
}

func (c *Creature) ID() string   { return c.id }
func (c *Creature) Name() string { return c.name }

func (c *Creature) IsAlive() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.health > 0
}

func (c *Creature) Position() world.Vec3 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.pos
}

func (c *Creature) HealthPercent() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.health
}

func (c *Creature) Target() world.Entity {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.target
}

func (c *Creature) IsAttacking() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.attacking
}

func (c *Creature) InWorld() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.inWorld
}

func (c *Creature) Following() world.Entity {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.following
}

func (c *Creature) SetPosition(pos world.Vec3) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pos = pos
}

// SetHealth clamps hp to [0, 100]. Zero kills the creature.
func (c *Creature) SetHealth(hp int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.health = max(0, min(100, hp))
	if c.health == 0 {
		c.attacking = false
		c.target = nil
	}
}

func (c *Creature) SetTarget(e world.Entity) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.target = e
}

// Forget removes a spell from the creature's repertoire; casting it fails afterwards.
func (c *Creature) Forget(kind world.SpellKind) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.spells, kind)
}

func (c *Creature) MoveTo(pos world.Vec3) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pos = pos
	c.record(Action{Kind: ActionMoveTo, Position: pos})
}

// Follow steps the creature onto the line towards target, distance units short of it.
func (c *Creature) Follow(target world.Entity, distance float64) {
	if target == nil {
		return
	}
	to := target.Position()

	c.mu.Lock()
	defer c.mu.Unlock()
	c.following = target
	if gap := c.pos.DistanceTo(to); gap > distance {
		c.pos = c.pos.Add(to.Sub(c.pos).Scale((gap - distance) / gap))
	}
	c.record(Action{Kind: ActionFollow, TargetID: target.ID(), Position: c.pos})
}

func (c *Creature) StopFollowing() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.following = nil
	c.record(Action{Kind: ActionStopFollowing, Position: c.pos})
}

func (c *Creature) MoveAwayFrom(target world.Entity, distance float64) {
	if target == nil {
		return
	}
	from := target.Position()

	c.mu.Lock()
	defer c.mu.Unlock()
	gap := c.pos.DistanceTo(from)
	switch {
	case gap >= distance:
	case gap == 0:
		c.pos = c.pos.Add(world.Vec3{X: distance})
	default:
		c.pos = from.Add(c.pos.Sub(from).Scale(distance / gap))
	}
	c.record(Action{Kind: ActionMoveAway, TargetID: target.ID(), Position: c.pos})
}

func (c *Creature) StartAttack(target world.Entity) {
	if target == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.attacking = true
	c.target = target
	c.record(Action{Kind: ActionStartAttack, TargetID: target.ID(), Position: c.pos})
}

func (c *Creature) StopAttack() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.attacking = false
	c.target = nil
	c.record(Action{Kind: ActionStopAttack, Position: c.pos})
}

func (c *Creature) CastSpell(kind world.SpellKind, target world.Entity) bool {
	alive := target != nil && target.IsAlive()

	c.mu.Lock()
	defer c.mu.Unlock()
	a := Action{Kind: ActionCast, Spell: kind, Position: c.pos}
	if target != nil {
		a.TargetID = target.ID()
	}
	c.record(a)
	return alive && c.health > 0 && c.spells[kind]
}

// Journal returns a copy of every action the creature received.
func (c *Creature) Journal() []Action {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return slices.Clone(c.journal)
}

func (c *Creature) ResetJournal() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.journal = nil
}

func (c *Creature) record(a Action) {
	c.journal = append(c.journal, a)
}

func (c *Creature) setInWorld(inWorld bool, at *world.Vec3) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.inWorld = inWorld
	if at != nil {
		c.pos = *at
	}
	if !inWorld {
		c.attacking = false
		c.target = nil
		c.following = nil
	}
}
