package botruntime

import (
	"context"
	"log/slog"

	"github.com/habiliai/botruntime/bot"
	"github.com/habiliai/botruntime/command"
	"github.com/habiliai/botruntime/config"
	"github.com/habiliai/botruntime/errors"
	"github.com/habiliai/botruntime/internal/db"
	"github.com/habiliai/botruntime/internal/events"
	"github.com/habiliai/botruntime/internal/mylog"
	"github.com/habiliai/botruntime/storage"
	"github.com/habiliai/botruntime/world"
	"github.com/habiliai/botruntime/world/memworld"
	"gorm.io/gorm"
)

type (
	// BotRuntime wires the bot registry to its storage, world host, command
	// surface and tick scheduler.
	BotRuntime struct {
		config *config.BotConfig
		logger *slog.Logger
		clock  bot.Clock

		db     *gorm.DB
		ownsDB bool

		host  world.Host
		world *memworld.World

		bus       *events.Bus
		store     *storage.SqliteGateway
		registry  *bot.Registry
		commands  *command.Handler
		scheduler *bot.Scheduler
	}
	Option func(*BotRuntime)
)

func WithConfig(c *config.BotConfig) Option {
	return func(r *BotRuntime) {
		r.config = c
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(r *BotRuntime) {
		r.logger = logger
	}
}

// WithDB uses an already opened database. The runtime does not close it.
func WithDB(db *gorm.DB) Option {
	return func(r *BotRuntime) {
		r.db = db
	}
}

// WithHost plugs in the world simulation. Without it an in-memory world is
// used and owners are created on their first command.
func WithHost(host world.Host) Option {
	return func(r *BotRuntime) {
		r.host = host
	}
}

func WithClock(clock bot.Clock) Option {
	return func(r *BotRuntime) {
		r.clock = clock
	}
}

func NewBotRuntime(ctx context.Context, optionFuncs ...Option) (*BotRuntime, error) {
	r := &BotRuntime{
		config: config.NewBotConfig(),
		clock:  bot.SystemClock,
	}
	for _, f := range optionFuncs {
		f(r)
	}

	if err := r.config.Validate(); err != nil {
		return nil, err
	}
	if r.logger == nil {
		r.logger = mylog.NewLogger(r.config.LogLevel, r.config.LogHandler)
	}

	if r.db == nil {
		var err error
		if r.db, err = db.OpenDB(r.config.DatabasePath); err != nil {
			return nil, errors.Wrapf(errors.ErrStorage, "%v", err)
		}
		r.ownsDB = true
	}
	if r.config.DatabaseAutoMigrate {
		if err := db.AutoMigrate(ctx, r.db); err != nil {
			r.closeDB()
			return nil, errors.Wrapf(errors.ErrStorage, "failed to migrate database: %v", err)
		}
	}

	if r.host == nil {
		r.world = memworld.New()
		r.host = r.world
	}

	r.bus = events.NewBus()
	r.store = storage.NewSqliteGateway(r.db,
		storage.WithTimeout(r.config.StorageTimeout),
		storage.WithLogger(r.logger.With("component", "storage")),
	)

	var err error
	r.registry, err = bot.NewRegistry(r.host,
		bot.WithStore(r.store),
		bot.WithEventBus(r.bus),
		bot.WithLogger(r.logger.With("component", "registry")),
		bot.WithClock(r.clock),
		bot.WithTickWorkers(r.config.TickWorkers),
	)
	if err != nil {
		r.Close()
		return nil, err
	}

	r.commands = command.NewHandler(r.registry, command.WithLogger(r.logger.With("component", "command")))
	r.scheduler = bot.NewScheduler(r.registry, r.config.TickInterval, r.logger.With("component", "scheduler"))

	return r, nil
}

func (r *BotRuntime) Config() *config.BotConfig {
	return r.config
}

func (r *BotRuntime) Logger() *slog.Logger {
	return r.logger
}

func (r *BotRuntime) Registry() *bot.Registry {
	return r.registry
}

func (r *BotRuntime) Commands() *command.Handler {
	return r.commands
}

func (r *BotRuntime) Events() *events.Bus {
	return r.bus
}

// World is the in-memory host, or nil when a host was plugged in with WithHost.
func (r *BotRuntime) World() *memworld.World {
	return r.world
}

// Owner resolves an owner through the host. With the in-memory world the
// owner is created on first use.
func (r *BotRuntime) Owner(ownerID string) (world.Owner, error) {
	if ownerID == "" {
		return nil, errors.Wrapf(errors.ErrInvalidArgument, "owner is required")
	}
	if r.world != nil {
		return r.world.EnsurePlayer(ownerID), nil
	}

	owner, ok := r.host.Owner(ownerID)
	if !ok || owner == nil {
		return nil, errors.Wrapf(errors.ErrNotFound, "owner %s is not in the world", ownerID)
	}
	return owner, nil
}

// Execute runs one "/bot" command line on behalf of ownerID.
func (r *BotRuntime) Execute(ctx context.Context, ownerID string, line string) ([]string, error) {
	owner, err := r.Owner(ownerID)
	if err != nil {
		return nil, err
	}
	return r.commands.Execute(ctx, owner, line), nil
}

// Quit ends the owner's session: all of its live bots are retired and, with
// the in-memory world, the owner leaves it.
func (r *BotRuntime) Quit(ctx context.Context, ownerID string) (int, error) {
	n, err := r.registry.CleanupForOwner(ctx, ownerID)
	if err != nil {
		return 0, err
	}
	if r.world != nil {
		r.world.RemovePlayer(ownerID)
	}
	return n, nil
}

// Run ticks all spawned bots until ctx is done.
func (r *BotRuntime) Run(ctx context.Context) error {
	return r.scheduler.Run(ctx)
}

func (r *BotRuntime) Close() {
	if r.bus != nil {
		if err := r.bus.Close(); err != nil {
			r.logger.Warn("failed to close event bus", mylog.Err(err))
		}
	}
	r.closeDB()
}

func (r *BotRuntime) closeDB() {
	if !r.ownsDB {
		return
	}
	if err := db.CloseDB(r.db); err != nil {
		r.logger.Warn("failed to close database", mylog.Err(err))
	}
	r.ownsDB = false
}
