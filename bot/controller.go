package bot

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/habiliai/botruntime/errors"
	"github.com/habiliai/botruntime/internal/mylog"
	"github.com/habiliai/botruntime/world"
)

type State int32

const (
	StateIdle State = iota
	StateFollowing
	StateEngaged
	StateHeld
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "IDLE"
	case StateFollowing:
		return "FOLLOWING"
	case StateEngaged:
		return "ENGAGED"
	case StateHeld:
		return "HELD"
	default:
		return "UNKNOWN"
	}
}

var ErrTickInProgress = errors.New("bot: tick already in progress")

// Controller runs one agent's decision sequence. Cooldowns and the current
// target are touched only from inside Tick, which never runs twice at once
// for the same controller.
type Controller struct {
	agent     *Agent
	host      world.Host
	policy    Policy
	cooldowns Cooldowns
	logger    *slog.Logger
	// friendly reports entities the bot must never engage, such as its
	// owner's other bots.
	friendly func(world.Entity) bool

	tickMu sync.Mutex
	state  atomic.Int32
	target world.Entity
}

func newController(agent *Agent, host world.Host, policy Policy, clock Clock, logger *slog.Logger, friendly func(world.Entity) bool) *Controller {
	if friendly == nil {
		friendly = func(world.Entity) bool { return false }
	}
	return &Controller{
		agent:     agent,
		host:      host,
		policy:    policy,
		cooldowns: NewCooldowns(clock),
		friendly:  friendly,
		logger:    logger.With("bot_id", agent.ID(), "name", agent.Name(), "role", agent.Role().String()),
	}
}

func (c *Controller) State() State {
	return State(c.state.Load())
}

func (c *Controller) setState(s State) {
	if prev := State(c.state.Swap(int32(s))); prev != s {
		c.logger.Debug("bot state changed", "from", prev.String(), "to", s.String())
	}
}

// Tick runs one decision step. A tick that overlaps another one on the same
// controller is refused with ErrTickInProgress. Panics inside the step are
// recovered and reported as errors so one bot cannot take the loop down.
func (c *Controller) Tick(ctx context.Context) (err error) {
	if !c.tickMu.TryLock() {
		return ErrTickInProgress
	}
	defer c.tickMu.Unlock()

	defer func() {
		if r := recover(); r != nil {
			err = errors.Errorf("bot %s: tick panicked: %v", c.agent.ID(), r)
		}
	}()

	if err := ctx.Err(); err != nil {
		return err
	}
	if !c.agent.IsSpawned() {
		return nil
	}

	body := c.agent.Body()
	owner, ok := c.host.Owner(c.agent.OwnerID())
	if body == nil || !ok || owner == nil || !owner.IsAlive() || !body.IsAlive() {
		return nil
	}

	if !c.agent.AIEnabled() {
		c.hold(body)
		return nil
	}

	following := c.followOwner(body, owner)

	if target := owner.Target(); c.engageable(body, owner, target) {
		c.target = target
		c.setState(StateEngaged)

		err := Decide(c.policy, &Combat{
			Self:      body,
			Owner:     owner,
			Cooldowns: &c.cooldowns,
		}, target)
		if errors.Is(err, errors.ErrPolicyPrecondition) {
			c.logger.Debug("combat step skipped", mylog.Err(err))
			return nil
		}
		return err
	}

	if c.target != nil {
		c.target = nil
		body.StopAttack()
	}

	if following {
		c.setState(StateFollowing)
	} else {
		c.setState(StateIdle)
	}
	return nil
}

// followOwner keeps the bot near its owner and reports whether it had to move.
func (c *Controller) followOwner(body world.Body, owner world.Owner) bool {
	distance := body.Position().DistanceTo(owner.Position())
	switch {
	case distance > MaxFollowDistance:
		body.MoveTo(owner.Position())
		return true
	case distance > FollowDistance:
		body.Follow(owner, FollowDistance)
		return true
	default:
		return false
	}
}

func (c *Controller) engageable(body world.Body, owner world.Owner, target world.Entity) bool {
	if target == nil || !target.IsAlive() {
		return false
	}
	// the owner selects its own bots to command them; that is not a fight
	return target.ID() != body.ID() && target.ID() != owner.ID() && !c.friendly(target)
}

func (c *Controller) hold(body world.Body) {
	if c.State() == StateHeld {
		return
	}
	if c.target != nil || body.IsAttacking() {
		body.StopAttack()
	}
	c.target = nil
	body.StopFollowing()
	c.setState(StateHeld)
}

// wait blocks until an in-flight tick, if any, has finished.
func (c *Controller) wait() {
	c.tickMu.Lock()
	defer c.tickMu.Unlock()
}
