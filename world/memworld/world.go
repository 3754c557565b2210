// Package memworld is an in-memory world.Host. It resolves movement instantly
// and keeps a journal of every command each creature receives, which makes it
// suitable both for the demo server and for tests.
package memworld

import (
	"sync"

	"github.com/habiliai/botruntime/world"
)

type World struct {
	mu      sync.RWMutex
	players map[string]*Player
	bodies  map[string]*Creature
}

var (
	_ world.Host = (*World)(nil)
)

func New() *World {
	return &World{
		players: make(map[string]*Player),
		bodies:  make(map[string]*Creature),
	}
}

func (w *World) AddPlayer(id, name string, level uint8, pos world.Vec3) *Player {
	p := &Player{
		Creature: NewCreature(id, name, pos),
		level:    level,
	}
	p.inWorld = true

	w.mu.Lock()
	defer w.mu.Unlock()
	w.players[id] = p
	return p
}

// EnsurePlayer returns the player with id, creating it at the origin when absent.
func (w *World) EnsurePlayer(id string) *Player {
	w.mu.RLock()
	p, ok := w.players[id]
	w.mu.RUnlock()
	if ok {
		return p
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if p, ok := w.players[id]; ok {
		return p
	}
	p = &Player{
		Creature: NewCreature(id, id, world.Vec3{}),
		level:    1,
	}
	p.inWorld = true
	w.players[id] = p
	return p
}

func (w *World) RemovePlayer(id string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	delete(w.players, id)
}

func (w *World) Player(id string) (*Player, bool) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	p, ok := w.players[id]
	return p, ok
}

func (w *World) Owner(id string) (world.Owner, bool) {
	p, ok := w.Player(id)
	if !ok {
		return nil, false
	}
	return p, true
}

func (w *World) NewBody(spec world.BodySpec) world.Body {
	return NewCreature(spec.ID, spec.Name, world.Vec3{})
}

func (w *World) AddToWorld(b world.Body, at world.Vec3) {
	c, ok := b.(*Creature)
	if !ok {
		return
	}
	c.setInWorld(true, &at)

	w.mu.Lock()
	defer w.mu.Unlock()
	w.bodies[c.ID()] = c
}

func (w *World) RemoveFromWorld(b world.Body) {
	c, ok := b.(*Creature)
	if !ok {
		return
	}
	c.setInWorld(false, nil)

	w.mu.Lock()
	defer w.mu.Unlock()
	delete(w.bodies, c.ID())
}

// Body returns a body currently in the world.
func (w *World) Body(id string) (*Creature, bool) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	c, ok := w.bodies[id]
	return c, ok
}

func (w *World) NumBodies() int {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return len(w.bodies)
}
