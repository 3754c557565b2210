// Package command implements the owner-facing "/bot" text commands on top of
// the bot registry. Every outcome, failures included, becomes chat lines for
// the invoking owner; nothing here ever fails the caller's session.
package command

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/habiliai/botruntime/bot"
	"github.com/habiliai/botruntime/errors"
	"github.com/habiliai/botruntime/internal/mylog"
	"github.com/habiliai/botruntime/world"
	"github.com/mokiat/gog"
	"github.com/samber/lo"
)

type (
	Handler struct {
		registry *bot.Registry
		logger   *slog.Logger
	}
	Option func(*Handler)

	subcommand func(h *Handler, ctx context.Context, owner world.Owner, args []string) ([]string, error)
)

func WithLogger(logger *slog.Logger) Option {
	return func(h *Handler) {
		h.logger = logger
	}
}

func NewHandler(registry *bot.Registry, opts ...Option) *Handler {
	h := &Handler{
		registry: registry,
	}
	for _, opt := range opts {
		opt(h)
	}
	if h.logger == nil {
		h.logger = mylog.Discard()
	}
	return h
}

var subcommands = map[string]subcommand{
	"create":  (*Handler).create,
	"spawn":   (*Handler).spawn,
	"list":    (*Handler).list,
	"save":    (*Handler).save,
	"delete":  (*Handler).delete,
	"despawn": (*Handler).despawn,
	"invite":  (*Handler).invite,
	"follow":  (*Handler).follow,
	"stay":    (*Handler).stay,
	"hold":    (*Handler).hold,
	"resume":  (*Handler).resume,
	"help":    (*Handler).help,
}

// Execute runs one command line such as "/bot spawn Aylia" for owner and
// returns the reply lines. The "/bot" prefix is optional.
func (h *Handler) Execute(ctx context.Context, owner world.Owner, line string) (messages []string) {
	defer func() {
		if r := recover(); r != nil {
			h.logger.Error("bot command panicked", "line", line, "panic", fmt.Sprint(r))
			messages = h.mustRender("error", nil)
		}
	}()

	args := strings.Fields(line)
	if len(args) > 0 {
		switch strings.ToLower(args[0]) {
		case "/bot", "&bot", "bot":
			args = args[1:]
		}
	}
	if len(args) == 0 {
		return h.mustRender("help", nil)
	}
	if owner == nil {
		h.logger.Warn("bot command without owner", "line", line)
		return h.mustRender("error", nil)
	}

	name := strings.ToLower(args[0])
	cmd, ok := subcommands[name]
	if !ok {
		return append(
			h.mustRender("unknown", map[string]any{"Command": name}),
			h.mustRender("help", nil)...,
		)
	}

	messages, err := cmd(h, ctx, owner, args[1:])
	if err != nil {
		h.logger.Error("bot command failed", "owner", owner.ID(), "command", name, mylog.Err(err))
		return h.mustRender("error", nil)
	}
	return messages
}

func (h *Handler) mustRender(name string, data any) []string {
	lines, err := render(name, data)
	if err != nil {
		h.logger.Error("failed to render reply", "reply", name, mylog.Err(err))
		return []string{"An error occurred processing your bot command."}
	}
	return lines
}

func (h *Handler) help(_ context.Context, _ world.Owner, _ []string) ([]string, error) {
	return render("help", nil)
}

func (h *Handler) create(ctx context.Context, owner world.Owner, args []string) ([]string, error) {
	if len(args) < 4 {
		return render("create.usage", nil)
	}

	ids := make([]uint8, 0, 3)
	for _, arg := range args[1:4] {
		id, err := strconv.ParseUint(arg, 10, 8)
		if err != nil {
			return render("create.numbers", nil)
		}
		ids = append(ids, uint8(id))
	}

	a, err := h.registry.Create(ctx, owner, args[0], ids[0], ids[1], ids[2])
	switch {
	case errors.Is(err, errors.ErrInvalidRole):
		return render("create.invalidClass", map[string]any{"Min": bot.MinClassID, "Max": bot.MaxClassID})
	case errors.Is(err, errors.ErrQuotaExceeded):
		return render("quota", map[string]any{"Max": bot.MaxBotsPerOwner})
	case errors.Is(err, errors.ErrInvalidArgument):
		h.logger.Debug("bot creation rejected", "owner", owner.ID(), mylog.Err(err))
		return render("create.invalid", nil)
	case err != nil:
		return nil, err
	}

	data := map[string]any{
		"Name":  a.Name(),
		"Class": a.ClassName(),
		"Role":  a.Role().String(),
	}
	if err := h.registry.Save(ctx, a); err != nil {
		// the bot stays usable in memory
		h.logger.Warn("failed to save new bot", "bot_id", a.ID(), "owner", owner.ID(), mylog.Err(err))
		return render("create.unsaved", data)
	}
	return render("create.saved", data)
}

// spawn brings a bot into the world: a live one created this session, or
// else the owner's saved bot of that name.
func (h *Handler) spawn(ctx context.Context, owner world.Owner, args []string) ([]string, error) {
	if len(args) == 0 {
		return render("spawn.usage", nil)
	}
	name := strings.Join(args, " ")

	a, err := h.registry.FindByOwnerAndName(owner.ID(), name)
	if errors.Is(err, errors.ErrNotFound) {
		a, err = h.registry.LoadSaved(ctx, owner.ID(), name)
	}
	switch {
	case errors.Is(err, errors.ErrNotFound):
		return render("notFound", nameData{Name: name})
	case errors.Is(err, errors.ErrStorage):
		h.logger.Warn("failed to load saved bot", "owner", owner.ID(), "name", name, mylog.Err(err))
		return render("storageFailed", map[string]any{"Action": "load", "Name": name})
	case err != nil:
		return nil, err
	}

	if a.IsSpawned() {
		return render("alreadySpawned", nameData{Name: a.Name()})
	}

	err = h.registry.Spawn(ctx, a)
	switch {
	case errors.Is(err, errors.ErrQuotaExceeded):
		return render("quota", map[string]any{"Max": bot.MaxBotsPerOwner})
	case errors.Is(err, errors.ErrNotFound):
		return render("notFound", nameData{Name: name})
	case errors.Is(err, errors.ErrInvalidArgument):
		// another live bot already uses this name
		return render("alreadySpawned", nameData{Name: a.Name()})
	case err != nil:
		return nil, err
	}
	return render("spawned", nameData{Name: a.Name()})
}

func (h *Handler) list(ctx context.Context, owner world.Owner, _ []string) ([]string, error) {
	saved, err := h.registry.ListSaved(ctx, owner.ID())
	if err != nil {
		h.logger.Warn("failed to list saved bots", "owner", owner.ID(), mylog.Err(err))
		return render("storageFailed", map[string]any{"Action": "list", "Name": ""})
	}

	live := h.registry.ListLive(owner.ID())
	spawned := lo.SliceToMap(lo.Filter(live, func(a *bot.Agent, _ int) bool {
		return a.IsSpawned() && a.DatabaseID() != 0
	}), func(a *bot.Agent) (uint, bool) {
		return a.DatabaseID(), true
	})
	unsaved := lo.Filter(live, func(a *bot.Agent, _ int) bool {
		return a.DatabaseID() == 0
	})

	if len(saved) == 0 && len(unsaved) == 0 {
		return render("list.empty", nil)
	}

	data := listData{
		Unsaved: gog.Map(unsaved, func(a *bot.Agent) string {
			return a.Name()
		}),
	}
	for _, p := range saved {
		data.Bots = append(data.Bots, listEntry{
			Name:    p.Name,
			ClassID: p.ClassID,
			RaceID:  p.RaceID,
			Level:   p.Level,
			Spawned: spawned[p.ID],
		})
	}
	return render("list", data)
}

func (h *Handler) save(ctx context.Context, owner world.Owner, args []string) ([]string, error) {
	a, reply := h.resolve(owner, args)
	if a == nil {
		return reply, nil
	}

	if err := h.registry.Save(ctx, a); err != nil {
		h.logger.Warn("failed to save bot", "bot_id", a.ID(), mylog.Err(err))
		return render("storageFailed", map[string]any{"Action": "save", "Name": a.Name()})
	}
	return render("saved", nameData{Name: a.Name()})
}

// delete removes a live bot for good. A saved bot that is not live is
// loaded first so it can be deleted by name too.
func (h *Handler) delete(ctx context.Context, owner world.Owner, args []string) ([]string, error) {
	a, reply := h.resolve(owner, args)
	if a == nil && len(args) > 0 {
		saved, err := h.registry.LoadSaved(ctx, owner.ID(), strings.Join(args, " "))
		if err == nil {
			a = saved
		}
	}
	if a == nil {
		return reply, nil
	}

	if err := h.registry.Delete(ctx, a); err != nil {
		h.logger.Warn("failed to delete bot", "bot_id", a.ID(), mylog.Err(err))
		return render("storageFailed", map[string]any{"Action": "delete", "Name": a.Name()})
	}
	return render("deleted", nameData{Name: a.Name()})
}

func (h *Handler) despawn(ctx context.Context, owner world.Owner, args []string) ([]string, error) {
	a, reply := h.resolve(owner, args)
	if a == nil {
		return reply, nil
	}

	if err := h.registry.Despawn(ctx, a); err != nil {
		return nil, err
	}
	if a.DatabaseID() == 0 {
		// only saved bots can be found again by name
		return render("despawned.unsaved", nameData{Name: a.Name()})
	}
	return render("despawned", nameData{Name: a.Name()})
}

func (h *Handler) invite(_ context.Context, owner world.Owner, args []string) ([]string, error) {
	a, reply := h.resolve(owner, args)
	if a == nil {
		return reply, nil
	}
	if !a.IsSpawned() {
		return render("notSpawned", nameData{Name: a.Name()})
	}

	if !owner.InviteToGroup(a.Body()) {
		return render("alreadyGrouped", nameData{Name: a.Name()})
	}
	return render("invited", nameData{Name: a.Name()})
}

func (h *Handler) follow(_ context.Context, owner world.Owner, args []string) ([]string, error) {
	a, reply := h.resolve(owner, args)
	if a == nil {
		return reply, nil
	}
	if !a.IsSpawned() {
		return render("notSpawned", nameData{Name: a.Name()})
	}

	a.Body().Follow(owner, bot.FollowDistance)
	a.SetAIEnabled(true)
	return render("following", nameData{Name: a.Name()})
}

func (h *Handler) stay(_ context.Context, owner world.Owner, args []string) ([]string, error) {
	a, reply := h.resolve(owner, args)
	if a == nil {
		return reply, nil
	}
	if !a.IsSpawned() {
		return render("notSpawned", nameData{Name: a.Name()})
	}

	a.Body().StopFollowing()
	return render("staying", nameData{Name: a.Name()})
}

func (h *Handler) hold(_ context.Context, owner world.Owner, args []string) ([]string, error) {
	a, reply := h.resolve(owner, args)
	if a == nil {
		return reply, nil
	}

	a.SetAIEnabled(false)
	return render("held", nameData{Name: a.Name()})
}

func (h *Handler) resume(_ context.Context, owner world.Owner, args []string) ([]string, error) {
	a, reply := h.resolve(owner, args)
	if a == nil {
		return reply, nil
	}

	a.SetAIEnabled(true)
	return render("resumed", nameData{Name: a.Name()})
}

// resolve picks the bot a command applies to: the named one when a name is
// given, otherwise the owner's current target if it is one of the owner's
// bots. When nothing matches it returns the reply explaining why.
func (h *Handler) resolve(owner world.Owner, args []string) (*bot.Agent, []string) {
	if len(args) > 0 {
		name := strings.Join(args, " ")
		a, err := h.registry.FindByOwnerAndName(owner.ID(), name)
		if err != nil {
			return nil, h.mustRender("notFound", nameData{Name: name})
		}
		return a, nil
	}

	if target := owner.Target(); target != nil {
		if a, ok := h.registry.FindByID(target.ID()); ok && a.OwnerID() == owner.ID() {
			return a, nil
		}
	}
	return nil, h.mustRender("noTarget", nil)
}
