package bot

import (
	"cmp"
	"context"
	"hash/fnv"
	"log/slog"
	"slices"
	"strings"
	"sync"

	"github.com/habiliai/botruntime/entity"
	"github.com/habiliai/botruntime/errors"
	"github.com/habiliai/botruntime/internal/events"
	"github.com/habiliai/botruntime/internal/mylog"
	"github.com/habiliai/botruntime/world"
	"golang.org/x/sync/errgroup"
)

const ownerLockStripes = 64

type (
	// Registry tracks every live agent of the process. It is safe for
	// concurrent use; lookups never take a lock.
	//
	// Callers driving ticks by hand must not tick one agent from two
	// goroutines at once. TickAll and Scheduler already honor that, and a
	// controller refuses overlapping ticks with ErrTickInProgress.
	Registry struct {
		host    world.Host
		store   Store
		bus     *events.Bus
		logger  *slog.Logger
		clock   Clock
		workers int

		live sync.Map // agent id -> *Agent

		// ownerLocks serialize quota-checked admissions per owner.
		ownerLocks [ownerLockStripes]sync.Mutex
	}
	RegistryOption func(*Registry)
)

func WithStore(store Store) RegistryOption {
	return func(r *Registry) {
		r.store = store
	}
}

func WithLogger(logger *slog.Logger) RegistryOption {
	return func(r *Registry) {
		r.logger = logger
	}
}

func WithClock(clock Clock) RegistryOption {
	return func(r *Registry) {
		r.clock = clock
	}
}

func WithEventBus(bus *events.Bus) RegistryOption {
	return func(r *Registry) {
		r.bus = bus
	}
}

func WithTickWorkers(n int) RegistryOption {
	return func(r *Registry) {
		r.workers = n
	}
}

func NewRegistry(host world.Host, opts ...RegistryOption) (*Registry, error) {
	if host == nil {
		return nil, errors.Wrapf(errors.ErrInvalidArgument, "world host is required")
	}

	r := &Registry{
		host:    host,
		clock:   SystemClock,
		workers: 8,
	}
	for _, opt := range opts {
		opt(r)
	}

	if r.logger == nil {
		r.logger = mylog.Discard()
	}
	if r.workers <= 0 {
		return nil, errors.Wrapf(errors.ErrInvalidArgument, "tick workers must be positive")
	}

	return r, nil
}

func (r *Registry) ownerLock(ownerID string) *sync.Mutex {
	h := fnv.New32a()
	_, _ = h.Write([]byte(ownerID))
	return &r.ownerLocks[h.Sum32()%ownerLockStripes]
}

// Create builds an agent for owner, derives its role from classID and
// registers it live. The agent is not saved and not yet visible in the world.
func (r *Registry) Create(ctx context.Context, owner world.Owner, name string, classID, raceID, genderID uint8) (*Agent, error) {
	if owner == nil {
		return nil, errors.Wrapf(errors.ErrInvalidArgument, "owner is required")
	}

	a, err := NewAgent(AgentSpec{
		OwnerID:   owner.ID(),
		OwnerName: owner.Name(),
		Name:      name,
		ClassID:   classID,
		RaceID:    raceID,
		GenderID:  genderID,
		Level:     owner.Level(),
	})
	if err != nil {
		return nil, err
	}

	mu := r.ownerLock(a.OwnerID())
	mu.Lock()
	defer mu.Unlock()

	if n := r.Count(a.OwnerID()); n >= MaxBotsPerOwner {
		return nil, errors.Wrapf(errors.ErrQuotaExceeded, "owner %s already controls %d bots", a.OwnerID(), n)
	}
	if _, err := r.FindByOwnerAndName(a.OwnerID(), a.Name()); err == nil {
		return nil, errors.Wrapf(errors.ErrInvalidArgument, "bot named %q already exists", a.Name())
	}

	a.mu.Lock()
	r.admitLocked(a)
	a.mu.Unlock()

	r.logger.Info("bot created", "bot_id", a.ID(), "owner", a.OwnerID(), "name", a.Name(), "role", a.Role().String())
	r.publish(events.BotCreated, a)
	return a, nil
}

// admitLocked attaches the world body and controller on first admission and
// registers the agent. a.mu and the owner lock must be held.
func (r *Registry) admitLocked(a *Agent) {
	if a.body == nil {
		a.body = r.host.NewBody(world.BodySpec{
			ID:        a.ID(),
			Name:      a.Name(),
			ClassName: a.ClassName(),
			Level:     a.Level(),
		})
	}
	if a.controller == nil {
		a.controller = newController(a, r.host, PolicyFor(a.Role()), r.clock, r.logger, func(e world.Entity) bool {
			other, ok := r.FindByID(e.ID())
			return ok && other.OwnerID() == a.OwnerID()
		})
	}

	r.live.Store(a.ID(), a)
	a.registered.Store(true)
}

// Spawn makes a agent live and visible in the world next to its owner. It
// admits agents that are not registered yet, such as ones just loaded from
// storage, subject to the owner's quota. Spawning a spawned agent is a no-op.
func (r *Registry) Spawn(ctx context.Context, a *Agent) error {
	if a == nil {
		return errors.Wrapf(errors.ErrInvalidArgument, "bot is required")
	}

	changed, err := r.spawn(a)
	if err != nil || !changed {
		return err
	}

	r.markActive(ctx, a, true)
	r.logger.Info("bot spawned", "bot_id", a.ID(), "owner", a.OwnerID(), "name", a.Name())
	r.publish(events.BotSpawned, a)
	return nil
}

func (r *Registry) spawn(a *Agent) (bool, error) {
	mu := r.ownerLock(a.OwnerID())
	mu.Lock()
	defer mu.Unlock()

	a.mu.Lock()
	defer a.mu.Unlock()

	if a.IsDeleted() {
		return false, errors.Wrapf(errors.ErrNotFound, "bot %s was deleted", a.ID())
	}
	if a.IsSpawned() {
		return false, nil
	}

	if !a.IsLive() {
		if n := r.Count(a.OwnerID()); n >= MaxBotsPerOwner {
			return false, errors.Wrapf(errors.ErrQuotaExceeded, "owner %s already controls %d bots", a.OwnerID(), n)
		}
		if other, err := r.FindByOwnerAndName(a.OwnerID(), a.Name()); err == nil && other.ID() != a.ID() {
			return false, errors.Wrapf(errors.ErrInvalidArgument, "bot named %q already exists", a.Name())
		}
		r.admitLocked(a)
	}

	at := world.Vec3{}
	if owner, ok := r.host.Owner(a.OwnerID()); ok && owner != nil {
		at = owner.Position()
	}
	r.host.AddToWorld(a.body, at)
	a.spawned.Store(true)

	return true, nil
}

// Despawn removes the agent from the registry, the world and its owner's
// group, and leaves its durable record alone. A tick already running for it
// finishes first. Despawning an agent that is not live is a no-op.
func (r *Registry) Despawn(ctx context.Context, a *Agent) error {
	if a == nil {
		return errors.Wrapf(errors.ErrInvalidArgument, "bot is required")
	}

	if despawned, _ := r.despawn(a, false); despawned {
		r.afterDespawn(ctx, a)
	}
	return nil
}

// despawn takes the agent out of the registry and, with retire, marks it
// deleted in the same critical section so no spawn can slip in between.
func (r *Registry) despawn(a *Agent, retire bool) (despawned, retired bool) {
	a.mu.Lock()
	defer a.mu.Unlock()

	despawned = r.despawnLocked(a)
	if retire {
		retired = !a.deleted.Swap(true)
	}
	return despawned, retired
}

// despawnLocked requires a.mu.
func (r *Registry) despawnLocked(a *Agent) bool {
	if !a.IsLive() {
		return false
	}

	wasSpawned := a.spawned.Swap(false)
	a.registered.Store(false)
	r.live.Delete(a.ID())

	if wasSpawned {
		a.controller.wait()
		r.host.RemoveFromWorld(a.body)
	}
	if owner, ok := r.host.Owner(a.OwnerID()); ok && owner != nil && a.body != nil {
		owner.LeaveGroup(a.body)
	}
	return true
}

func (r *Registry) afterDespawn(ctx context.Context, a *Agent) {
	r.markActive(ctx, a, false)
	r.logger.Info("bot despawned", "bot_id", a.ID(), "owner", a.OwnerID(), "name", a.Name())
	r.publish(events.BotDespawned, a)
}

// Delete purges the durable record, then despawns the agent for good. If
// storage fails nothing changes. A deleted agent can never be spawned or
// saved again.
func (r *Registry) Delete(ctx context.Context, a *Agent) error {
	if a == nil {
		return errors.Wrapf(errors.ErrInvalidArgument, "bot is required")
	}

	a.persistMu.Lock()
	defer a.persistMu.Unlock()

	if r.store != nil {
		if err := r.store.Delete(ctx, a); err != nil {
			return err
		}
	}

	if _, retired := r.despawn(a, true); !retired {
		return nil
	}

	r.logger.Info("bot deleted", "bot_id", a.ID(), "owner", a.OwnerID(), "name", a.Name(), "database_id", a.DatabaseID())
	r.publish(events.BotDeleted, a)
	return nil
}

// Save persists the agent through the configured store. It is serialized
// with Delete, so a deleted agent never leaves a record behind.
func (r *Registry) Save(ctx context.Context, a *Agent) error {
	if a == nil {
		return errors.Wrapf(errors.ErrInvalidArgument, "bot is required")
	}
	if r.store == nil {
		return errors.Wrapf(errors.ErrStorage, "no store configured")
	}

	a.persistMu.Lock()
	defer a.persistMu.Unlock()

	if a.IsDeleted() {
		return errors.Wrapf(errors.ErrNotFound, "bot %s was deleted", a.ID())
	}
	return r.store.Save(ctx, a)
}

// FindByOwnerAndName looks up a live agent by case-insensitive name.
func (r *Registry) FindByOwnerAndName(ownerID, name string) (*Agent, error) {
	if ownerID == "" || name == "" {
		return nil, errors.Wrapf(errors.ErrInvalidArgument, "owner and name are required")
	}

	var found *Agent
	r.live.Range(func(_, v any) bool {
		a := v.(*Agent)
		if a.OwnerID() == ownerID && strings.EqualFold(a.Name(), name) {
			found = a
			return false
		}
		return true
	})
	if found == nil {
		return nil, errors.Wrapf(errors.ErrNotFound, "no bot named %q", name)
	}
	return found, nil
}

func (r *Registry) FindByID(id string) (*Agent, bool) {
	v, ok := r.live.Load(id)
	if !ok {
		return nil, false
	}
	return v.(*Agent), true
}

// ListLive returns the owner's live agents ordered by name.
func (r *Registry) ListLive(ownerID string) []*Agent {
	if ownerID == "" {
		return nil
	}

	var agents []*Agent
	r.live.Range(func(_, v any) bool {
		if a := v.(*Agent); a.OwnerID() == ownerID {
			agents = append(agents, a)
		}
		return true
	})
	slices.SortFunc(agents, func(a, b *Agent) int {
		return cmp.Compare(strings.ToLower(a.Name()), strings.ToLower(b.Name()))
	})
	return agents
}

// Count is the number of agents currently registered for the owner. The
// quota is checked against this scan rather than a separate counter.
func (r *Registry) Count(ownerID string) int {
	n := 0
	r.live.Range(func(_, v any) bool {
		if v.(*Agent).OwnerID() == ownerID {
			n++
		}
		return true
	})
	return n
}

func (r *Registry) ListSaved(ctx context.Context, ownerID string) ([]entity.BotProfile, error) {
	if ownerID == "" {
		return nil, errors.Wrapf(errors.ErrInvalidArgument, "owner is required")
	}
	if r.store == nil {
		return nil, nil
	}
	return r.store.ListSaved(ctx, ownerID)
}

// LoadSaved hydrates the owner's saved agent named name without making it live.
func (r *Registry) LoadSaved(ctx context.Context, ownerID, name string) (*Agent, error) {
	if ownerID == "" || name == "" {
		return nil, errors.Wrapf(errors.ErrInvalidArgument, "owner and name are required")
	}
	if r.store == nil {
		return nil, errors.Wrapf(errors.ErrNotFound, "no bot named %q", name)
	}
	return r.store.LoadByName(ctx, ownerID, name)
}

// CleanupForOwner retires every live agent of the owner when the owner's
// session ends. Durable records are kept so the bots can be spawned again in
// a later session; the in-memory instances are finished.
func (r *Registry) CleanupForOwner(ctx context.Context, ownerID string) (int, error) {
	if ownerID == "" {
		return 0, errors.Wrapf(errors.ErrInvalidArgument, "owner is required")
	}

	agents := r.ListLive(ownerID)
	for _, a := range agents {
		if despawned, _ := r.despawn(a, true); despawned {
			r.afterDespawn(ctx, a)
		}
	}

	if len(agents) > 0 {
		r.logger.Info("owner bots cleaned up", "owner", ownerID, "count", len(agents))
	}
	return len(agents), nil
}

// TickAll runs one tick for every spawned agent on a bounded worker pool.
// A failing agent is logged and skipped; it never stops the others.
func (r *Registry) TickAll(ctx context.Context) error {
	var eg errgroup.Group
	eg.SetLimit(r.workers)

	r.live.Range(func(_, v any) bool {
		a := v.(*Agent)
		if !a.IsSpawned() {
			return true
		}
		eg.Go(func() error {
			err := a.controller.Tick(ctx)
			switch {
			case err == nil:
			case errors.Is(err, ErrTickInProgress):
				r.logger.Debug("bot tick overlapped", "bot_id", a.ID())
			case ctx.Err() != nil:
			default:
				r.logger.Error("bot tick failed", "bot_id", a.ID(), "name", a.Name(), mylog.Err(err))
			}
			return nil
		})
		return ctx.Err() == nil
	})

	if err := eg.Wait(); err != nil {
		return err
	}
	return ctx.Err()
}

func (r *Registry) markActive(ctx context.Context, a *Agent, active bool) {
	if r.store == nil || a.DatabaseID() == 0 {
		return
	}
	if err := r.store.SetActive(ctx, a, active); err != nil {
		r.logger.Warn("failed to update bot activity", "bot_id", a.ID(), "active", active, mylog.Err(err))
	}
}

func (r *Registry) publish(t events.Type, a *Agent) {
	if r.bus == nil {
		return
	}
	if err := r.bus.Publish(events.Event{
		Type:    t,
		BotID:   a.ID(),
		OwnerID: a.OwnerID(),
		Name:    a.Name(),
		At:      r.clock.Now(),
	}); err != nil {
		r.logger.Warn("failed to publish bot event", "type", string(t), mylog.Err(err))
	}
}
