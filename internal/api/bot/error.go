package bot

import "github.com/kathalabs/katha-bot/pkg/response"

var (
	ErrNoPreference        = response.NewError(404, "no language preference stored")
	ErrUnsupportedLanguage = response.NewError(400, "unsupported language code")
	ErrAnswerGeneration    = response.NewError(502, "failed to generate answer")
	ErrReplyDelivery       = response.NewError(502, "failed to deliver reply")
	ErrTransportDisabled   = response.NewError(503, "messaging transport not configured")
)
