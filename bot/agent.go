package bot

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/habiliai/botruntime/errors"
	"github.com/habiliai/botruntime/internal/stringutils"
	"github.com/habiliai/botruntime/world"
)

const maxNameLength = 64

type AgentSpec struct {
	OwnerID   string
	OwnerName string
	Name      string
	ClassID   uint8
	RaceID    uint8
	GenderID  uint8
	Level     uint8
}

// Agent is one companion bot. Its identity, owner, class and role never
// change after construction. The owner is held by identity only and resolved
// through the world host whenever it is needed.
type Agent struct {
	id       string
	ownerID  string
	name     string
	class    Class
	raceID   uint8
	genderID uint8
	level    uint8

	databaseID atomic.Uint64
	aiEnabled  atomic.Bool

	// mu serializes lifecycle transitions of this identity.
	mu         sync.Mutex
	registered atomic.Bool
	spawned    atomic.Bool
	deleted    atomic.Bool

	// persistMu orders Save against Delete; it is taken before mu.
	persistMu sync.Mutex

	body       world.Body
	controller *Controller
}

// NewAgent validates spec and builds a detached agent with a fresh identity.
// It becomes live only once a Registry admits it.
func NewAgent(spec AgentSpec) (*Agent, error) {
	if spec.OwnerID == "" {
		return nil, errors.Wrapf(errors.ErrInvalidArgument, "owner is required")
	}

	class, err := ClassByID(spec.ClassID)
	if err != nil {
		return nil, err
	}
	if err := validateRaceAndGender(spec.RaceID, spec.GenderID); err != nil {
		return nil, err
	}

	name := stringutils.SanitizeName(spec.Name)
	if name == "" {
		ownerName := spec.OwnerName
		if ownerName == "" {
			ownerName = spec.OwnerID
		}
		name = fmt.Sprintf("%s's %s Bot", ownerName, class.Name)
	}
	if len(name) > maxNameLength {
		return nil, errors.Wrapf(errors.ErrInvalidArgument, "bot name longer than %d characters", maxNameLength)
	}

	a := &Agent{
		id:       uuid.NewString(),
		ownerID:  spec.OwnerID,
		name:     name,
		class:    class,
		raceID:   spec.RaceID,
		genderID: spec.GenderID,
		level:    spec.Level,
	}
	a.aiEnabled.Store(true)
	return a, nil
}

// RestoreAgent rebuilds an agent from its durable record.
func RestoreAgent(spec AgentSpec, databaseID uint) (*Agent, error) {
	a, err := NewAgent(spec)
	if err != nil {
		return nil, err
	}
	a.databaseID.Store(uint64(databaseID))
	return a, nil
}

func (a *Agent) ID() string        { return a.id }
func (a *Agent) OwnerID() string   { return a.ownerID }
func (a *Agent) Name() string      { return a.name }
func (a *Agent) Class() Class      { return a.class }
func (a *Agent) ClassID() uint8    { return a.class.ID }
func (a *Agent) ClassName() string { return a.class.Name }
func (a *Agent) Role() Role        { return a.class.Role }
func (a *Agent) RaceID() uint8     { return a.raceID }
func (a *Agent) GenderID() uint8   { return a.genderID }
func (a *Agent) Level() uint8      { return a.level }

// DatabaseID is the durable identity, zero until the agent is first saved.
func (a *Agent) DatabaseID() uint {
	return uint(a.databaseID.Load())
}

func (a *Agent) SetDatabaseID(id uint) {
	a.databaseID.Store(uint64(id))
}

func (a *Agent) AIEnabled() bool {
	return a.aiEnabled.Load()
}

// SetAIEnabled toggles the decision loop. A disabled bot is held: it stays
// in place and ignores its owner's target until re-enabled.
func (a *Agent) SetAIEnabled(enabled bool) {
	a.aiEnabled.Store(enabled)
}

// IsLive reports whether the agent is registered with a Registry.
func (a *Agent) IsLive() bool {
	return a.registered.Load()
}

// IsSpawned reports whether the agent is live and visible in the world.
func (a *Agent) IsSpawned() bool {
	return a.spawned.Load()
}

func (a *Agent) IsDeleted() bool {
	return a.deleted.Load()
}

// Body is the agent's world handle; nil until the agent was first admitted.
func (a *Agent) Body() world.Body {
	return a.body
}

func (a *Agent) Controller() *Controller {
	return a.controller
}

func (a *Agent) String() string {
	return fmt.Sprintf("%s(%s)", a.name, a.id)
}
