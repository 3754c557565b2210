package command_test

import (
	"fmt"
	"testing"

	"github.com/habiliai/botruntime/bot"
	"github.com/habiliai/botruntime/command"
	"github.com/habiliai/botruntime/internal/mytesting"
	"github.com/habiliai/botruntime/storage"
	"github.com/habiliai/botruntime/world"
	"github.com/habiliai/botruntime/world/memworld"
	"github.com/stretchr/testify/suite"
)

type HandlerTestSuite struct {
	mytesting.Suite

	world    *memworld.World
	owner    *memworld.Player
	registry *bot.Registry
	handler  *command.Handler
}

func (s *HandlerTestSuite) SetupTest() {
	s.Suite.SetupTest()

	s.world = memworld.New()
	s.owner = s.world.AddPlayer("owner-1", "Alice", 30, world.Vec3{})

	var err error
	s.registry, err = bot.NewRegistry(s.world, bot.WithStore(storage.NewSqliteGateway(s.DB)))
	s.Require().NoError(err)
	s.handler = command.NewHandler(s.registry)
}

func (s *HandlerTestSuite) exec(line string) []string {
	return s.handler.Execute(s.Context, s.owner, line)
}

func (s *HandlerTestSuite) live(name string) *bot.Agent {
	a, err := s.registry.FindByOwnerAndName(s.owner.ID(), name)
	s.Require().NoError(err)
	return a
}

func (s *HandlerTestSuite) TestHelp() {
	for _, line := range []string{"/bot", "", "/bot help"} {
		replies := s.exec(line)
		s.Require().NotEmpty(replies)
		s.Equal("Bot System Commands:", replies[0])
		s.Contains(replies, "/bot spawn <name>")
	}

	replies := s.exec("/bot dance")
	s.Equal("Unknown bot command: dance", replies[0])
	s.Equal("Bot System Commands:", replies[1])
}

func (s *HandlerTestSuite) TestCreate() {
	s.Equal([]string{
		"Usage: /bot create <name> <classId> <raceId> <genderId>",
		"Example: /bot create Aylia 2 1 0",
	}, s.exec("/bot create Aylia"))
	s.Equal([]string{"Class, Race, and Gender must be numbers."}, s.exec("/bot create Aylia two 1 0"))
	s.Equal([]string{"Class, Race, and Gender must be numbers."}, s.exec("/bot create Aylia 300 1 0"))
	s.Equal([]string{"Invalid class ID. Use a number from 1 to 50."}, s.exec("/bot create Aylia 51 1 0"))
	s.Equal([]string{"Failed to create bot. Check class/race/gender IDs and the bot name."}, s.exec("/bot create Aylia 2 31 0"))

	s.Equal([]string{"Bot 'Aylia' created and saved! (Cleric, healer)"}, s.exec("/bot create Aylia 2 1 0"))
	a := s.live("aylia")
	s.NotZero(a.DatabaseID())
	s.False(a.IsSpawned())

	s.Equal([]string{"Failed to create bot. Check class/race/gender IDs and the bot name."}, s.exec("bot create AYLIA 1 1 0"))
}

func (s *HandlerTestSuite) TestCreateQuota() {
	for i := range bot.MaxBotsPerOwner {
		s.exec(fmt.Sprintf("/bot create Bot%02d 1 1 0", i))
	}
	s.Equal([]string{"You already control the maximum of 15 bots."}, s.exec("/bot create Extra 1 1 0"))
}

func (s *HandlerTestSuite) TestCreateKeepsBotWhenSaveFails() {
	sqlDB, err := s.DB.DB()
	s.Require().NoError(err)
	s.Require().NoError(sqlDB.Close())

	s.Equal([]string{"Bot 'Fragile' created, but it could not be saved. Use /bot save Fragile to try again."}, s.exec("/bot create Fragile 1 1 0"))
	s.Zero(s.live("Fragile").DatabaseID())
}

func (s *HandlerTestSuite) TestSpawnAndDespawn() {
	s.Equal([]string{"Usage: /bot spawn <name>"}, s.exec("/bot spawn"))
	s.Equal([]string{"No bot named 'Ghost' found."}, s.exec("/bot spawn Ghost"))

	s.exec("/bot create Aylia 2 1 0")
	s.Equal([]string{"Aylia spawned. Use /bot invite Aylia to add it to your group."}, s.exec("/bot spawn aylia"))
	s.Equal([]string{"Aylia is already in the world."}, s.exec("/bot spawn Aylia"))

	a := s.live("Aylia")
	body, ok := s.world.Body(a.ID())
	s.Require().True(ok)

	s.owner.SetTarget(body)
	s.Equal([]string{"Aylia despawned."}, s.exec("/bot despawn"))
	s.Zero(s.world.NumBodies())

	// comes back from the saved record
	s.Equal([]string{"Aylia spawned. Use /bot invite Aylia to add it to your group."}, s.exec("/bot spawn Aylia"))
	respawned := s.live("Aylia")
	s.Equal(a.DatabaseID(), respawned.DatabaseID())
	s.Equal(1, s.world.NumBodies())
}

func (s *HandlerTestSuite) TestDespawnUnsavedBotWarns() {
	sqlDB, err := s.DB.DB()
	s.Require().NoError(err)
	s.Require().NoError(sqlDB.Close())

	s.exec("/bot create Fragile 1 1 0")
	s.Equal([]string{"Fragile despawned. It was never saved and cannot be spawned again."}, s.exec("/bot despawn Fragile"))
}

func (s *HandlerTestSuite) TestDespawnedBotLeavesGroup() {
	s.exec("/bot create Med 2 1 0")
	s.exec("/bot create Tk 1 1 0")
	s.exec("/bot spawn Med")
	s.exec("/bot spawn Tk")
	s.Equal([]string{"Tk invited to group."}, s.exec("/bot invite Tk"))
	s.Len(s.owner.Group(), 2)

	s.Equal([]string{"Tk despawned."}, s.exec("/bot despawn Tk"))
	s.Nil(s.owner.Group())

	s.exec("/bot spawn Tk")
	s.Equal([]string{"Tk invited to group."}, s.exec("/bot invite Tk"))
	s.Len(s.owner.Group(), 2)
}

func (s *HandlerTestSuite) TestList() {
	s.Equal([]string{"You have no saved bots."}, s.exec("/bot list"))

	s.exec("/bot create Brom 1 3 1")
	s.exec("/bot create Aylia 2 1 0")
	s.exec("/bot spawn Aylia")

	s.Equal([]string{
		"You have 2 saved bot(s):",
		"- Aylia (Class: 2, Race: 1, Level: 30) [spawned]",
		"- Brom (Class: 1, Race: 3, Level: 30)",
	}, s.exec("/bot list"))
}

func (s *HandlerTestSuite) TestTargetResolution() {
	s.Equal([]string{"No bot name specified and no bot targeted."}, s.exec("/bot hold"))
	s.Equal([]string{"No bot named 'Nobody' found."}, s.exec("/bot hold Nobody"))

	s.exec("/bot create Aylia 2 1 0")
	s.exec("/bot spawn Aylia")

	// someone else's bot is never a valid target
	other := s.world.AddPlayer("owner-2", "Bob", 10, world.Vec3{})
	theirs, err := s.registry.Create(s.Context, other, "Theirs", 1, 1, 0)
	s.Require().NoError(err)
	s.Require().NoError(s.registry.Spawn(s.Context, theirs))
	s.owner.SetTarget(theirs.Body())
	s.Equal([]string{"No bot name specified and no bot targeted."}, s.exec("/bot hold"))
	s.True(theirs.AIEnabled())

	s.owner.SetTarget(s.live("Aylia").Body())
	s.Equal([]string{"Aylia AI suspended."}, s.exec("/bot hold"))
	s.False(s.live("Aylia").AIEnabled())
}

func (s *HandlerTestSuite) TestGroupAndMovement() {
	s.exec("/bot create Aylia 2 1 0")
	s.Equal([]string{"Aylia is not in the world. Use /bot spawn Aylia first."}, s.exec("/bot invite Aylia"))

	s.exec("/bot spawn Aylia")
	a := s.live("Aylia")

	s.Equal([]string{"Aylia invited to group."}, s.exec("/bot invite Aylia"))
	s.Equal([]string{"Aylia is already in a group."}, s.exec("/bot invite Aylia"))
	s.Len(s.owner.Group(), 2)

	s.Equal([]string{"Aylia AI suspended."}, s.exec("/bot hold Aylia"))
	s.Equal([]string{"Aylia is now following you."}, s.exec("/bot follow Aylia"))
	s.True(a.AIEnabled())

	body, ok := s.world.Body(a.ID())
	s.Require().True(ok)
	s.NotNil(body.Following())

	s.Equal([]string{"Aylia is holding position."}, s.exec("/bot stay Aylia"))
	s.Nil(body.Following())

	s.Equal([]string{"Aylia AI suspended."}, s.exec("/bot hold Aylia"))
	s.Equal([]string{"Aylia AI resumed."}, s.exec("/bot resume Aylia"))
	s.True(a.AIEnabled())
}

func (s *HandlerTestSuite) TestSaveAndDelete() {
	s.exec("/bot create Aylia 2 1 0")
	s.exec("/bot create Brom 1 1 0")

	s.Equal([]string{"Bot 'Aylia' saved."}, s.exec("/bot save Aylia"))
	s.Equal([]string{"Bot 'Aylia' permanently deleted."}, s.exec("/bot delete Aylia"))
	s.Equal([]string{"No bot named 'Aylia' found."}, s.exec("/bot spawn Aylia"))

	// saved but not live
	s.exec("/bot despawn Brom")
	s.Equal([]string{"Bot 'Brom' permanently deleted."}, s.exec("/bot delete Brom"))
	s.Equal([]string{"You have no saved bots."}, s.exec("/bot list"))
}

func (s *HandlerTestSuite) TestNilOwner() {
	s.Equal([]string{"An error occurred processing your bot command."}, s.handler.Execute(s.Context, nil, "/bot list"))
}

func TestHandler(t *testing.T) {
	suite.Run(t, new(HandlerTestSuite))
}
