package botRepository

import (
	"golang.org/x/net/context"

	"github.com/kathalabs/katha-bot/internal/entity"
)

// Repository is the preference store: one language code per sender.
// GetLanguage returns bot.ErrNoPreference when the sender has never picked a
// language (or has reset it); ClearLanguage on an absent sender is a no-op.
type Repository interface {
	GetLanguage(ctx context.Context, sender string) (entity.Language, error)
	SetLanguage(ctx context.Context, sender string, lang entity.Language) error
	ClearLanguage(ctx context.Context, sender string) error
}
