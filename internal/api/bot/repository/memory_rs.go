package botRepository

import (
	"sync"

	"github.com/sirupsen/logrus"
	"golang.org/x/net/context"

	"github.com/kathalabs/katha-bot/internal/api/bot"
	"github.com/kathalabs/katha-bot/internal/entity"
)

// memoryRepository keeps preferences in process memory. State is lost on
// restart; the mutex makes same-sender set/clear races last-write-wins
// rather than corrupting.
type memoryRepository struct {
	mu    sync.RWMutex
	prefs map[string]entity.Language
	log   *logrus.Logger
}

func NewMemory(log *logrus.Logger) Repository {
	return &memoryRepository{
		prefs: make(map[string]entity.Language),
		log:   log,
	}
}

func (r *memoryRepository) GetLanguage(_ context.Context, sender string) (entity.Language, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	lang, ok := r.prefs[sender]
	if !ok {
		return entity.Language{}, bot.ErrNoPreference
	}
	return lang, nil
}

func (r *memoryRepository) SetLanguage(_ context.Context, sender string, lang entity.Language) error {
	if _, ok := entity.LanguageByCode(lang.Code); !ok {
		return bot.ErrUnsupportedLanguage
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.prefs[sender] = lang
	return nil
}

func (r *memoryRepository) ClearLanguage(_ context.Context, sender string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.prefs, sender)
	return nil
}
