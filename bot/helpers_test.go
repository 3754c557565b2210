package bot_test

import (
	"context"
	"sync"
	"time"

	"github.com/habiliai/botruntime/bot"
	"github.com/habiliai/botruntime/entity"
	"github.com/habiliai/botruntime/errors"
	"github.com/habiliai/botruntime/world"
	"github.com/habiliai/botruntime/world/memworld"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// memStore is a Store kept in a map, recording what the registry asked of it.
type memStore struct {
	mu        sync.Mutex
	nextID    uint
	profiles  map[uint]entity.BotProfile
	active    map[uint]bool
	deleteErr error
}

var _ bot.Store = (*memStore)(nil)

func newMemStore() *memStore {
	return &memStore{
		profiles: map[uint]entity.BotProfile{},
		active:   map[uint]bool{},
	}
}

func (s *memStore) Save(_ context.Context, a *bot.Agent) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := a.DatabaseID()
	if id == 0 {
		s.nextID++
		id = s.nextID
	}
	s.profiles[id] = entity.BotProfile{
		ID:       id,
		OwnerID:  a.OwnerID(),
		Name:     a.Name(),
		ClassID:  a.ClassID(),
		RaceID:   a.RaceID(),
		GenderID: a.GenderID(),
		Level:    a.Level(),
	}
	a.SetDatabaseID(id)
	return nil
}

func (s *memStore) Load(_ context.Context, ownerID string, id uint) (*bot.Agent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.profiles[id]
	if !ok || p.OwnerID != ownerID {
		return nil, errors.Wrapf(errors.ErrNotFound, "bot %d", id)
	}
	return restore(p)
}

func (s *memStore) LoadByName(_ context.Context, ownerID string, name string) (*bot.Agent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, p := range s.profiles {
		if p.OwnerID == ownerID && p.Name == name {
			return restore(p)
		}
	}
	return nil, errors.Wrapf(errors.ErrNotFound, "bot %q", name)
}

func (s *memStore) ListSaved(_ context.Context, ownerID string) ([]entity.BotProfile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []entity.BotProfile
	for _, p := range s.profiles {
		if p.OwnerID == ownerID {
			out = append(out, p)
		}
	}
	return out, nil
}

func (s *memStore) Delete(_ context.Context, a *bot.Agent) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.deleteErr != nil {
		return s.deleteErr
	}
	delete(s.profiles, a.DatabaseID())
	return nil
}

func (s *memStore) SetActive(_ context.Context, a *bot.Agent, active bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.active[a.DatabaseID()] = active
	return nil
}

func (s *memStore) isActive(id uint) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active[id]
}

func restore(p entity.BotProfile) (*bot.Agent, error) {
	return bot.RestoreAgent(bot.AgentSpec{
		OwnerID:  p.OwnerID,
		Name:     p.Name,
		ClassID:  p.ClassID,
		RaceID:   p.RaceID,
		GenderID: p.GenderID,
		Level:    p.Level,
	}, p.ID)
}

// hookedHost lets a test intercept owner lookups, which every tick performs first.
type hookedHost struct {
	*memworld.World
	onOwner func()
}

func (h *hookedHost) Owner(id string) (world.Owner, bool) {
	if h.onOwner != nil {
		h.onOwner()
	}
	return h.World.Owner(id)
}

func actionKinds(actions []memworld.Action) []memworld.ActionKind {
	kinds := make([]memworld.ActionKind, 0, len(actions))
	for _, a := range actions {
		kinds = append(kinds, a.Kind)
	}
	return kinds
}

func memberIDs(members []world.Entity) []string {
	ids := make([]string, 0, len(members))
	for _, m := range members {
		ids = append(ids, m.ID())
	}
	return ids
}
