package botRepository

import (
	"database/sql"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"
	"golang.org/x/net/context"

	"github.com/kathalabs/katha-bot/internal/api/bot"
	"github.com/kathalabs/katha-bot/internal/entity"
	contextPkg "github.com/kathalabs/katha-bot/pkg/context"
)

type LanguagePreferenceDB struct {
	Sender       sql.NullString `db:"sender"`
	LanguageCode sql.NullString `db:"language_code"`
	UpdatedAt    sql.NullTime   `db:"updated_at"`
}

// postgresRepository persists preferences across restarts. The upsert makes
// concurrent same-sender writes last-write-wins at the database rather than
// read-modify-write in the handler.
type postgresRepository struct {
	db  *sqlx.DB
	log *logrus.Logger
}

func NewPostgres(db *sqlx.DB, log *logrus.Logger) Repository {
	return &postgresRepository{
		db:  db,
		log: log,
	}
}

func (r *postgresRepository) GetLanguage(c context.Context, sender string) (entity.Language, error) {
	requestID := contextPkg.GetRequestID(c)

	query, args, err := sqlx.Named(queryGetLanguage, map[string]interface{}{
		"sender": sender,
	})
	if err != nil {
		r.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("Failed to build SQL query for GetLanguage")
		return entity.Language{}, err
	}

	var rec LanguagePreferenceDB
	query = r.db.Rebind(query)
	if err := r.db.GetContext(c, &rec, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return entity.Language{}, bot.ErrNoPreference
		}
		r.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"sender":     sender,
			"error":      err.Error(),
		}).Error("Failed to get language preference")
		return entity.Language{}, err
	}

	lang, ok := entity.LanguageByCode(rec.LanguageCode.String)
	if !ok {
		r.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"sender":     sender,
			"code":       rec.LanguageCode.String,
		}).Warn("Stored language code is no longer supported")
		return entity.Language{}, bot.ErrNoPreference
	}

	return lang, nil
}

func (r *postgresRepository) SetLanguage(c context.Context, sender string, lang entity.Language) error {
	requestID := contextPkg.GetRequestID(c)

	if _, ok := entity.LanguageByCode(lang.Code); !ok {
		return bot.ErrUnsupportedLanguage
	}

	now := time.Now()
	query, args, err := sqlx.Named(queryUpsertLanguage, map[string]interface{}{
		"sender":        sender,
		"language_code": lang.Code,
		"created_at":    now,
		"updated_at":    now,
	})
	if err != nil {
		r.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("Failed to build SQL query for SetLanguage")
		return err
	}

	query = r.db.Rebind(query)
	if _, err := r.db.ExecContext(c, query, args...); err != nil {
		r.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"sender":     sender,
			"error":      err.Error(),
		}).Error("Failed to upsert language preference")
		return err
	}

	return nil
}

func (r *postgresRepository) ClearLanguage(c context.Context, sender string) error {
	requestID := contextPkg.GetRequestID(c)

	query, args, err := sqlx.Named(queryDeleteLanguage, map[string]interface{}{
		"sender": sender,
	})
	if err != nil {
		r.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("Failed to build SQL query for ClearLanguage")
		return err
	}

	// deleting an absent row is fine, clear is idempotent
	query = r.db.Rebind(query)
	if _, err := r.db.ExecContext(c, query, args...); err != nil {
		r.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"sender":     sender,
			"error":      err.Error(),
		}).Error("Failed to delete language preference")
		return err
	}

	return nil
}
