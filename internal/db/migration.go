package db

import (
	"context"

	"github.com/habiliai/botruntime/entity"
	"github.com/habiliai/botruntime/errors"
	"gorm.io/gorm"
)

func AutoMigrate(ctx context.Context, db *gorm.DB) error {
	_, tx := OpenSession(ctx, db)

	return errors.WithStack(tx.AutoMigrate(
		&entity.BotProfile{},
		&entity.BotSettings{},
	))
}

func DropAll(ctx context.Context, db *gorm.DB) error {
	_, tx := OpenSession(ctx, db)
	return errors.WithStack(tx.Migrator().DropTable(
		&entity.BotSettings{},
		&entity.BotProfile{},
	))
}
