package bot

import (
	"context"

	"github.com/habiliai/botruntime/entity"
)

// Store persists agents as BotProfile/BotSettings records. Every method
// reports failures of the underlying storage wrapped with errors.ErrStorage.
type Store interface {
	// Save inserts the agent when it has no durable identity yet and
	// updates it otherwise, together with its settings.
	Save(ctx context.Context, a *Agent) error
	// Load hydrates a saved agent. Records owned by someone else are
	// reported as errors.ErrNotFound.
	Load(ctx context.Context, ownerID string, id uint) (*Agent, error)
	LoadByName(ctx context.Context, ownerID string, name string) (*Agent, error)
	ListSaved(ctx context.Context, ownerID string) ([]entity.BotProfile, error)
	// Delete purges both records. Agents never saved are a no-op.
	Delete(ctx context.Context, a *Agent) error
	SetActive(ctx context.Context, a *Agent, active bool) error
}
