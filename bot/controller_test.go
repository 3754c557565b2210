package bot_test

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/habiliai/botruntime/bot"
	"github.com/habiliai/botruntime/world"
	"github.com/habiliai/botruntime/world/memworld"
	"github.com/stretchr/testify/suite"
)

type ControllerTestSuite struct {
	suite.Suite

	clock    *fakeClock
	world    *memworld.World
	host     *hookedHost
	registry *bot.Registry
	owner    *memworld.Player
	enemy    *memworld.Creature

	blockOwner atomic.Bool
	entered    chan struct{}
	release    chan struct{}
	panicOwner atomic.Bool
}

func (s *ControllerTestSuite) SetupTest() {
	s.clock = newFakeClock()
	s.world = memworld.New()
	s.owner = s.world.AddPlayer("owner-1", "Alice", 30, world.Vec3{})
	s.enemy = memworld.NewCreature("mob-1", "Goblin", world.Vec3{X: 50})

	s.blockOwner.Store(false)
	s.panicOwner.Store(false)
	s.entered = make(chan struct{}, 1)
	s.release = make(chan struct{})
	s.host = &hookedHost{
		World: s.world,
		onOwner: func() {
			if s.panicOwner.Load() {
				panic("owner lookup exploded")
			}
			if s.blockOwner.Load() {
				s.entered <- struct{}{}
				<-s.release
			}
		},
	}

	var err error
	s.registry, err = bot.NewRegistry(s.host, bot.WithClock(s.clock))
	s.Require().NoError(err)
}

func (s *ControllerTestSuite) spawn(name string, classID uint8) (*bot.Agent, *memworld.Creature) {
	a, err := s.registry.Create(s.T().Context(), s.owner, name, classID, 1, 0)
	s.Require().NoError(err)
	s.Require().NoError(s.registry.Spawn(s.T().Context(), a))

	body, ok := s.world.Body(a.ID())
	s.Require().True(ok)
	return a, body
}

func (s *ControllerTestSuite) tick(a *bot.Agent) {
	s.Require().NoError(a.Controller().Tick(s.T().Context()))
}

func (s *ControllerTestSuite) TestFollowThresholds() {
	a, body := s.spawn("Walker", 1)

	body.SetPosition(world.Vec3{X: 401})
	s.tick(a)
	s.Equal([]memworld.ActionKind{memworld.ActionMoveTo}, actionKinds(body.Journal()))
	s.Equal(s.owner.Position(), body.Position())
	s.Equal(bot.StateFollowing, a.Controller().State())

	body.ResetJournal()
	body.SetPosition(world.Vec3{X: 200})
	s.tick(a)
	journal := body.Journal()
	s.Require().Len(journal, 1)
	s.Equal(memworld.ActionFollow, journal[0].Kind)
	s.Equal(s.owner.ID(), journal[0].TargetID)
	s.InDelta(bot.FollowDistance, body.Position().DistanceTo(s.owner.Position()), 1e-9)

	body.ResetJournal()
	body.SetPosition(world.Vec3{X: 100})
	s.tick(a)
	s.Empty(body.Journal())
	s.Equal(bot.StateIdle, a.Controller().State())
}

func (s *ControllerTestSuite) TestEngagesOwnerTarget() {
	a, body := s.spawn("Fighter", 1)
	s.owner.SetTarget(s.enemy)

	s.tick(a)
	s.Equal(bot.StateEngaged, a.Controller().State())
	s.True(body.IsAttacking())
	s.Equal(s.enemy.ID(), body.Target().ID())

	// the owner drops the target: the bot stops fighting
	s.owner.SetTarget(nil)
	s.clock.Advance(bot.CombatCooldown)
	s.tick(a)
	s.False(body.IsAttacking())
	s.Equal(bot.StateIdle, a.Controller().State())
}

func (s *ControllerTestSuite) TestIgnoresDeadTarget() {
	a, body := s.spawn("Fighter", 1)
	s.enemy.SetHealth(0)
	s.owner.SetTarget(s.enemy)

	s.tick(a)
	s.False(body.IsAttacking())
	s.Equal(bot.StateIdle, a.Controller().State())
}

func (s *ControllerTestSuite) TestNeverEngagesFriends() {
	a, body := s.spawn("First", 1)
	other, _ := s.spawn("Second", 1)

	s.owner.SetTarget(other.Body())
	s.tick(a)
	s.False(body.IsAttacking())

	s.owner.SetTarget(a.Body())
	s.tick(a)
	s.False(body.IsAttacking())
	s.Equal(bot.StateIdle, a.Controller().State())
}

func (s *ControllerTestSuite) TestHoldAndResume() {
	a, body := s.spawn("Guard", 1)
	s.owner.SetTarget(s.enemy)
	s.tick(a)
	s.Require().True(body.IsAttacking())

	a.SetAIEnabled(false)
	body.SetPosition(world.Vec3{X: 1000})
	s.tick(a)
	s.Equal(bot.StateHeld, a.Controller().State())
	s.False(body.IsAttacking())
	s.Nil(body.Following())
	s.Equal(world.Vec3{X: 1000}, body.Position(), "a held bot does not move")

	body.ResetJournal()
	s.tick(a)
	s.Empty(body.Journal())

	a.SetAIEnabled(true)
	s.clock.Advance(bot.CombatCooldown)
	s.tick(a)
	s.Equal(bot.StateEngaged, a.Controller().State())
	s.Equal(s.owner.Position(), body.Position())
}

func (s *ControllerTestSuite) TestTickWithoutOwner() {
	a, body := s.spawn("Orphan", 1)
	s.world.RemovePlayer(s.owner.ID())
	body.SetPosition(world.Vec3{X: 1000})

	s.tick(a)
	s.Empty(body.Journal())
}

func (s *ControllerTestSuite) TestTickDespawnedAgent() {
	a, body := s.spawn("Gone", 1)
	s.Require().NoError(s.registry.Despawn(s.T().Context(), a))
	body.SetPosition(world.Vec3{X: 1000})

	s.tick(a)
	s.Empty(body.Journal())
}

func (s *ControllerTestSuite) TestPanicIsRecovered() {
	a, _ := s.spawn("Fragile", 1)

	s.panicOwner.Store(true)
	err := a.Controller().Tick(s.T().Context())
	s.Require().Error(err)
	s.Contains(err.Error(), "owner lookup exploded")

	s.panicOwner.Store(false)
	s.tick(a)
}

func (s *ControllerTestSuite) TestOverlappingTickIsRefused() {
	a, _ := s.spawn("Busy", 1)

	s.blockOwner.Store(true)
	done := make(chan error, 1)
	go func() {
		done <- a.Controller().Tick(s.T().Context())
	}()
	<-s.entered
	s.blockOwner.Store(false)

	s.ErrorIs(a.Controller().Tick(s.T().Context()), bot.ErrTickInProgress)

	// despawn waits for the running tick before the body leaves the world
	despawned := make(chan error, 1)
	go func() {
		despawned <- s.registry.Despawn(s.T().Context(), a)
	}()
	select {
	case <-despawned:
		s.Fail("despawn returned while a tick was running")
	case <-time.After(50 * time.Millisecond):
	}

	close(s.release)
	s.NoError(<-done)
	s.NoError(<-despawned)
	s.False(a.IsLive())
	_, inWorld := s.world.Body(a.ID())
	s.False(inWorld)
}

func (s *ControllerTestSuite) TestStateString() {
	s.Equal("IDLE", bot.StateIdle.String())
	s.Equal("HELD", bot.StateHeld.String())
	s.Equal("UNKNOWN", bot.State(42).String())
}

func TestController(t *testing.T) {
	suite.Run(t, new(ControllerTestSuite))
}
