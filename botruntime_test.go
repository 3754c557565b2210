package botruntime_test

import (
	"testing"

	"github.com/habiliai/botruntime"
	"github.com/habiliai/botruntime/bot"
	"github.com/habiliai/botruntime/config"
	"github.com/habiliai/botruntime/errors"
	"github.com/habiliai/botruntime/internal/mylog"
	"github.com/habiliai/botruntime/world"
	"github.com/habiliai/botruntime/world/memworld"
	"github.com/stretchr/testify/require"
)

func newRuntime(t *testing.T) *botruntime.BotRuntime {
	c := config.NewBotConfig()
	c.DatabasePath = ":memory:"

	r, err := botruntime.NewBotRuntime(t.Context(),
		botruntime.WithConfig(c),
		botruntime.WithLogger(mylog.Discard()),
	)
	require.NoError(t, err)
	t.Cleanup(r.Close)
	return r
}

func TestBotRuntime(t *testing.T) {
	r := newRuntime(t)
	ctx := t.Context()

	replies, err := r.Execute(ctx, "alice", "/bot create Aylia 2 1 0")
	require.NoError(t, err)
	require.Equal(t, []string{"Bot 'Aylia' created and saved! (Cleric, healer)"}, replies)

	replies, err = r.Execute(ctx, "alice", "/bot spawn Aylia")
	require.NoError(t, err)
	require.Equal(t, []string{"Aylia spawned. Use /bot invite Aylia to add it to your group."}, replies)

	replies, err = r.Execute(ctx, "alice", "/bot invite Aylia")
	require.NoError(t, err)
	require.Equal(t, []string{"Aylia invited to group."}, replies)

	// the owner walks away and gets hurt: the healer teleports back and heals
	owner, ok := r.World().Player("alice")
	require.True(t, ok)
	owner.SetPosition(world.Vec3{X: 1000})
	owner.SetHealth(30)
	goblin := memworld.NewCreature("goblin", "Goblin", world.Vec3{X: 1010})
	owner.SetTarget(goblin)

	require.NoError(t, r.Registry().TickAll(ctx))

	a, err := r.Registry().FindByOwnerAndName("alice", "Aylia")
	require.NoError(t, err)
	require.Equal(t, bot.StateEngaged, a.Controller().State())

	body, ok := r.World().Body(a.ID())
	require.True(t, ok)
	require.Equal(t, owner.Position(), body.Position())

	journal := body.Journal()
	require.NotEmpty(t, journal)
	last := journal[len(journal)-1]
	require.Equal(t, memworld.ActionCast, last.Kind)
	require.Equal(t, world.SpellHeal, last.Spell)
	require.Equal(t, "alice", last.TargetID)

	n, err := r.Quit(ctx, "alice")
	require.NoError(t, err)
	require.Equal(t, 1, n)
	require.Zero(t, r.World().NumBodies())
	_, ok = r.World().Player("alice")
	require.False(t, ok)

	// the saved bot survives the session
	replies, err = r.Execute(ctx, "alice", "/bot list")
	require.NoError(t, err)
	require.Equal(t, []string{
		"You have 1 saved bot(s):",
		"- Aylia (Class: 2, Race: 1, Level: 1)",
	}, replies)
}

func TestBotRuntimeRejectsInvalidConfig(t *testing.T) {
	c := config.NewBotConfig()
	c.TickWorkers = 0

	_, err := botruntime.NewBotRuntime(t.Context(), botruntime.WithConfig(c))
	require.ErrorIs(t, err, errors.ErrInvalidConfig)
}

func TestBotRuntimeOwnerRequired(t *testing.T) {
	r := newRuntime(t)

	_, err := r.Execute(t.Context(), "", "/bot list")
	require.ErrorIs(t, err, errors.ErrInvalidArgument)
}
