package memworld

import (
	"slices"
	"sync"

	"github.com/habiliai/botruntime/world"
)

type group struct {
	mu      sync.RWMutex
	members []world.Entity
}

type Player struct {
	*Creature

	level uint8

	groupMu sync.RWMutex
	group   *group
}

var (
	_ world.Owner = (*Player)(nil)
)

func (p *Player) Level() uint8 { return p.level }

func (p *Player) Group() []world.Entity {
	p.groupMu.RLock()
	g := p.group
	p.groupMu.RUnlock()
	if g == nil {
		return nil
	}

	g.mu.RLock()
	defer g.mu.RUnlock()
	return slices.Clone(g.members)
}

func (p *Player) InviteToGroup(e world.Entity) bool {
	if e == nil {
		return false
	}

	p.groupMu.Lock()
	if p.group == nil {
		p.group = &group{members: []world.Entity{p}}
	}
	g := p.group
	p.groupMu.Unlock()

	g.mu.Lock()
	defer g.mu.Unlock()
	if slices.ContainsFunc(g.members, func(m world.Entity) bool { return m.ID() == e.ID() }) {
		return false
	}
	g.members = append(g.members, e)
	return true
}

// LeaveGroup removes e from the owner's group, disbanding it when only the owner is left.
func (p *Player) LeaveGroup(e world.Entity) {
	if e == nil {
		return
	}

	p.groupMu.Lock()
	defer p.groupMu.Unlock()
	if p.group == nil {
		return
	}

	g := p.group
	g.mu.Lock()
	defer g.mu.Unlock()
	g.members = slices.DeleteFunc(g.members, func(m world.Entity) bool { return m.ID() == e.ID() })
	if len(g.members) <= 1 {
		p.group = nil
	}
}
