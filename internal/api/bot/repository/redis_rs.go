package botRepository

import (
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"
	"golang.org/x/net/context"

	"github.com/kathalabs/katha-bot/internal/api/bot"
	"github.com/kathalabs/katha-bot/internal/entity"
	redisPkg "github.com/kathalabs/katha-bot/pkg/redis"
)

const languageKeyPrefix = "katha:lang:"

// redisRepository is the durable variant of the preference store. Keys carry
// no TTL: a preference lives until the sender resets it.
type redisRepository struct {
	redis redisPkg.IRedis
	log   *logrus.Logger
}

func NewRedis(redis redisPkg.IRedis, log *logrus.Logger) Repository {
	return &redisRepository{
		redis: redis,
		log:   log,
	}
}

func languageKey(sender string) string {
	return languageKeyPrefix + sender
}

func (r *redisRepository) GetLanguage(ctx context.Context, sender string) (entity.Language, error) {
	code, err := r.redis.GetValue(ctx, languageKey(sender))
	if errors.Is(err, redisPkg.ErrKeyNotFound) {
		return entity.Language{}, bot.ErrNoPreference
	}
	if err != nil {
		r.log.WithFields(logrus.Fields{
			"sender": sender,
			"error":  err.Error(),
		}).Error("Failed to read language preference from redis")
		return entity.Language{}, err
	}

	lang, ok := entity.LanguageByCode(code)
	if !ok {
		// a code that left the supported set behaves like no preference
		r.log.WithFields(logrus.Fields{
			"sender": sender,
			"code":   code,
		}).Warn(fmt.Sprintf("Stored language code %q is no longer supported", code))
		return entity.Language{}, bot.ErrNoPreference
	}

	return lang, nil
}

func (r *redisRepository) SetLanguage(ctx context.Context, sender string, lang entity.Language) error {
	if _, ok := entity.LanguageByCode(lang.Code); !ok {
		return bot.ErrUnsupportedLanguage
	}

	return r.redis.SetValue(ctx, languageKey(sender), lang.Code)
}

func (r *redisRepository) ClearLanguage(ctx context.Context, sender string) error {
	return r.redis.DeleteValue(ctx, languageKey(sender))
}
