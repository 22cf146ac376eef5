package botRepository

const (
	queryGetLanguage = `
SELECT sender, language_code, updated_at
FROM language_preferences
    WHERE sender = :sender`

	queryUpsertLanguage = `
INSERT INTO language_preferences (sender, language_code, created_at, updated_at)
VALUES (:sender, :language_code, :created_at, :updated_at)
ON CONFLICT (sender) DO UPDATE
SET language_code = EXCLUDED.language_code,
    updated_at = EXCLUDED.updated_at`

	queryDeleteLanguage = `
DELETE FROM language_preferences
WHERE sender = :sender`
)
