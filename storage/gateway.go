// Package storage persists bots as BotProfile and BotSettings rows in sqlite.
package storage

import (
	"context"
	"log/slog"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/habiliai/botruntime/bot"
	"github.com/habiliai/botruntime/entity"
	"github.com/habiliai/botruntime/errors"
	"github.com/habiliai/botruntime/internal/db"
	"github.com/habiliai/botruntime/internal/mylog"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	DefaultTimeout = 3 * time.Second

	saveRetryDelay = 100 * time.Millisecond
)

type (
	SqliteGateway struct {
		db      *gorm.DB
		logger  *slog.Logger
		timeout time.Duration
	}
	Option func(*SqliteGateway)
)

var _ bot.Store = (*SqliteGateway)(nil)

// WithTimeout bounds every storage call.
func WithTimeout(d time.Duration) Option {
	return func(g *SqliteGateway) {
		g.timeout = d
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(g *SqliteGateway) {
		g.logger = logger
	}
}

func NewSqliteGateway(db *gorm.DB, opts ...Option) *SqliteGateway {
	g := &SqliteGateway{
		db:      db,
		timeout: DefaultTimeout,
	}
	for _, opt := range opts {
		opt(g)
	}
	if g.logger == nil {
		g.logger = mylog.Discard()
	}
	if g.timeout <= 0 {
		g.timeout = DefaultTimeout
	}
	return g
}

func (g *SqliteGateway) session(ctx context.Context) (context.Context, *gorm.DB, context.CancelFunc) {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	ctx, tx := db.OpenSession(ctx, g.db)
	return ctx, tx, cancel
}

func storageError(err error, format string, args ...any) error {
	return errors.Wrapf(errors.ErrStorage, format+": %v", append(args, err)...)
}

// asStorageError leaves classified errors alone, such as those returned from
// inside a transaction, and marks everything else as a storage failure.
func asStorageError(err error, format string, args ...any) error {
	if errors.Is(err, errors.ErrStorage) || errors.Is(err, errors.ErrNotFound) {
		return err
	}
	return storageError(err, format, args...)
}

// Save inserts or updates the bot's profile and upserts its settings in one
// transaction. A failed attempt is retried once; updating a record that is
// gone or owned by someone else is not.
func (g *SqliteGateway) Save(ctx context.Context, a *bot.Agent) error {
	if a == nil {
		return errors.Wrapf(errors.ErrInvalidArgument, "bot is required")
	}

	ctx, tx, cancel := g.session(ctx)
	defer cancel()

	attempt := 0
	op := func() error {
		attempt++
		err := g.save(tx, a)
		if errors.Is(err, errors.ErrNotFound) {
			return backoff.Permanent(err)
		}
		if err != nil {
			g.logger.Warn("failed to save bot", "bot_id", a.ID(), "attempt", attempt, mylog.Err(err))
		}
		return err
	}

	b := backoff.WithContext(backoff.WithMaxRetries(backoff.NewConstantBackOff(saveRetryDelay), 1), ctx)
	return backoff.Retry(op, b)
}

func (g *SqliteGateway) save(tx *gorm.DB, a *bot.Agent) error {
	profile := entity.BotProfile{
		ID:       a.DatabaseID(),
		OwnerID:  a.OwnerID(),
		Name:     a.Name(),
		ClassID:  a.ClassID(),
		RaceID:   a.RaceID(),
		GenderID: a.GenderID(),
		Level:    a.Level(),
		IsActive: a.IsSpawned(),
		Metadata: datatypes.NewJSONType(map[string]string{
			"className": a.ClassName(),
			"role":      a.Role().String(),
		}),
	}

	if err := tx.Transaction(func(tx *gorm.DB) error {
		if profile.ID == 0 {
			if err := tx.Create(&profile).Error; err != nil {
				return storageError(err, "failed to insert bot profile")
			}
		} else {
			res := tx.Model(&entity.BotProfile{}).
				Where("id = ? AND owner_id = ?", profile.ID, profile.OwnerID).
				Updates(map[string]any{
					"name":      profile.Name,
					"class_id":  profile.ClassID,
					"race_id":   profile.RaceID,
					"gender_id": profile.GenderID,
					"level":     profile.Level,
					"is_active": profile.IsActive,
					"metadata":  profile.Metadata,
				})
			if res.Error != nil {
				return storageError(res.Error, "failed to update bot profile %d", profile.ID)
			}
			if res.RowsAffected == 0 {
				return errors.Wrapf(errors.ErrNotFound, "bot profile %d", profile.ID)
			}
		}

		settings := entity.DefaultBotSettings(profile.ID)
		if err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "bot_id"}},
			UpdateAll: true,
		}).Create(&settings).Error; err != nil {
			return storageError(err, "failed to save bot settings")
		}

		return nil
	}); err != nil {
		return asStorageError(err, "failed to save bot %s", a.ID())
	}

	if a.DatabaseID() == 0 {
		a.SetDatabaseID(profile.ID)
	}
	return nil
}

// Load returns the saved bot id if, and only if, ownerID owns it.
func (g *SqliteGateway) Load(ctx context.Context, ownerID string, id uint) (*bot.Agent, error) {
	if ownerID == "" || id == 0 {
		return nil, errors.Wrapf(errors.ErrInvalidArgument, "owner and id are required")
	}

	_, tx, cancel := g.session(ctx)
	defer cancel()

	var profile entity.BotProfile
	if err := tx.Where("id = ? AND owner_id = ?", id, ownerID).First(&profile).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.Wrapf(errors.ErrNotFound, "bot %d", id)
		}
		return nil, storageError(err, "failed to load bot %d", id)
	}

	return hydrate(profile)
}

// LoadByName matches the name case-insensitively among the owner's saved bots.
func (g *SqliteGateway) LoadByName(ctx context.Context, ownerID string, name string) (*bot.Agent, error) {
	if ownerID == "" || name == "" {
		return nil, errors.Wrapf(errors.ErrInvalidArgument, "owner and name are required")
	}

	_, tx, cancel := g.session(ctx)
	defer cancel()

	var profile entity.BotProfile
	if err := tx.
		Where("owner_id = ? AND LOWER(name) = LOWER(?)", ownerID, name).
		Order("id ASC").
		First(&profile).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.Wrapf(errors.ErrNotFound, "no saved bot named %q", name)
		}
		return nil, storageError(err, "failed to load bot %q", name)
	}

	return hydrate(profile)
}

func (g *SqliteGateway) ListSaved(ctx context.Context, ownerID string) ([]entity.BotProfile, error) {
	if ownerID == "" {
		return nil, errors.Wrapf(errors.ErrInvalidArgument, "owner is required")
	}

	_, tx, cancel := g.session(ctx)
	defer cancel()

	var profiles []entity.BotProfile
	if err := tx.
		Preload("Settings").
		Where("owner_id = ?", ownerID).
		Order("name ASC").
		Find(&profiles).Error; err != nil {
		return nil, storageError(err, "failed to list saved bots")
	}

	return profiles, nil
}

// Delete purges the bot's settings and profile. Bots that were never saved,
// or whose records are already gone, are a no-op.
func (g *SqliteGateway) Delete(ctx context.Context, a *bot.Agent) error {
	if a == nil {
		return errors.Wrapf(errors.ErrInvalidArgument, "bot is required")
	}
	id := a.DatabaseID()
	if id == 0 {
		return nil
	}

	_, tx, cancel := g.session(ctx)
	defer cancel()

	if err := tx.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("bot_id = ?", id).Delete(&entity.BotSettings{}).Error; err != nil {
			return storageError(err, "failed to delete bot settings %d", id)
		}
		profile := entity.BotProfile{ID: id}
		if err := profile.Delete(tx.Where("owner_id = ?", a.OwnerID())); err != nil {
			return storageError(err, "failed to delete bot profile %d", id)
		}
		return nil
	}); err != nil {
		return asStorageError(err, "failed to delete bot %d", id)
	}
	return nil
}

func (g *SqliteGateway) SetActive(ctx context.Context, a *bot.Agent, active bool) error {
	if a == nil {
		return errors.Wrapf(errors.ErrInvalidArgument, "bot is required")
	}
	id := a.DatabaseID()
	if id == 0 {
		return nil
	}

	_, tx, cancel := g.session(ctx)
	defer cancel()

	if err := tx.Model(&entity.BotProfile{}).
		Where("id = ? AND owner_id = ?", id, a.OwnerID()).
		Update("is_active", active).Error; err != nil {
		return storageError(err, "failed to update bot %d activity", id)
	}
	return nil
}

func hydrate(p entity.BotProfile) (*bot.Agent, error) {
	a, err := bot.RestoreAgent(bot.AgentSpec{
		OwnerID:  p.OwnerID,
		Name:     p.Name,
		ClassID:  p.ClassID,
		RaceID:   p.RaceID,
		GenderID: p.GenderID,
		Level:    p.Level,
	}, p.ID)
	if err != nil {
		return nil, errors.Wrapf(err, "saved bot %d is corrupt", p.ID)
	}
	return a, nil
}
