// Package world declares the narrow slice of the host simulation that bots
// consume. Movement, combat resolution and spell mechanics live on the other
// side of these interfaces.
package world

import (
	"math"
)

type Vec3 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

func (v Vec3) DistanceTo(o Vec3) float64 {
	dx, dy, dz := v.X-o.X, v.Y-o.Y, v.Z-o.Z
	return math.Sqrt(dx*dx + dy*dy + dz*dz)
}

func (v Vec3) Add(o Vec3) Vec3 {
	return Vec3{X: v.X + o.X, Y: v.Y + o.Y, Z: v.Z + o.Z}
}

func (v Vec3) Sub(o Vec3) Vec3 {
	return Vec3{X: v.X - o.X, Y: v.Y - o.Y, Z: v.Z - o.Z}
}

func (v Vec3) Scale(f float64) Vec3 {
	return Vec3{X: v.X * f, Y: v.Y * f, Z: v.Z * f}
}

type SpellKind string

const (
	SpellHeal   SpellKind = "heal"
	SpellTaunt  SpellKind = "taunt"
	SpellDamage SpellKind = "damage"
)

type (
	// Entity is anything living in the world that a bot can look at.
	Entity interface {
		ID() string
		Name() string
		IsAlive() bool
		Position() Vec3
		HealthPercent() int
		// Target is the entity currently selected or attacked; nil when none.
		Target() Entity
	}

	// Owner is the player-like actor bots are bound to.
	Owner interface {
		Entity
		Level() uint8
		// Group lists the members of the owner's group, owner included, or
		// nil when the owner is not grouped.
		Group() []Entity
		// InviteToGroup adds e to the owner's group, forming one if needed.
		// It reports false when e is already a member.
		InviteToGroup(e Entity) bool
		// LeaveGroup removes e from the owner's group. It is a no-op when e
		// is not a member.
		LeaveGroup(e Entity)
	}

	// Body is the world handle a bot drives: movement and combat capability.
	Body interface {
		Entity
		IsAttacking() bool
		// MoveTo relocates the body instantly.
		MoveTo(pos Vec3)
		Follow(target Entity, distance float64)
		StopFollowing()
		// MoveAwayFrom steps away from target until distance is reached.
		MoveAwayFrom(target Entity, distance float64)
		StartAttack(target Entity)
		StopAttack()
		// CastSpell reports whether a spell of kind was actually cast.
		CastSpell(kind SpellKind, target Entity) bool
	}

	BodySpec struct {
		ID        string
		Name      string
		ClassName string
		Level     uint8
	}

	// Host is the simulation the bots live in.
	Host interface {
		// Owner resolves an owner by identity. Bots never keep a strong
		// reference to their owner; they look it up every tick.
		Owner(id string) (Owner, bool)
		NewBody(spec BodySpec) Body
		AddToWorld(b Body, at Vec3)
		RemoveFromWorld(b Body)
	}
)
