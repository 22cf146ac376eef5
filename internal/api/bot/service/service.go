package botService

import (
	"context"
	"os"
	"strconv"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/kathalabs/katha-bot/internal/api/bot"
	botRepository "github.com/kathalabs/katha-bot/internal/api/bot/repository"
	"github.com/kathalabs/katha-bot/internal/entity"
	"github.com/kathalabs/katha-bot/pkg/utils"
)

const (
	StyleShort = "short"
	StyleLong  = "long"
)

type IBotService interface {
	// HandleMessage runs one turn of the conversation: command handling,
	// language selection or content generation, per the sender's state.
	HandleMessage(ctx context.Context, msg entity.InboundMessage) (*bot.Reply, error)
	ListLanguages(ctx context.Context) bot.LanguagesResponse
}

// TextGenerator is the answer-generation service; pkg/gemini and pkg/openai
// both satisfy it.
type TextGenerator interface {
	GenerateAnswer(ctx context.Context, question, language, style string, maxTokens int, temperature float32) (string, error)
}

// SpeechSynthesizer turns a long-form answer into audio bytes.
type SpeechSynthesizer interface {
	GenerateAudio(ctx context.Context, text, languageCode string) ([]byte, error)
}

// MediaStore hosts the audio and issues a signed, expiring link for it.
type MediaStore interface {
	UploadAudio(key string, data []byte) (string, error)
	PresignUrl(fileUrl string) (string, time.Time, error)
}

type botService struct {
	log         *logrus.Logger
	prefRepo    botRepository.Repository
	generator   TextGenerator
	synthesizer SpeechSynthesizer
	mediaStore  MediaStore
	utils       utils.IUtils
	config      *BotConfig
}

// BotConfig carries the tunables the handler variants used to disagree on.
// Timeouts are configuration, not contracts.
type BotConfig struct {
	ShortAnswerTimeout time.Duration
	LongAnswerTimeout  time.Duration
	ShortMaxTokens     int
	LongMaxTokens      int
	ShortTemperature   float32
	LongTemperature    float32
}

func NewBotConfig() *BotConfig {
	return &BotConfig{
		ShortAnswerTimeout: envDuration("SHORT_ANSWER_TIMEOUT", 25*time.Second),
		LongAnswerTimeout:  envDuration("LONG_ANSWER_TIMEOUT", 50*time.Second),
		ShortMaxTokens:     envInt("SHORT_ANSWER_MAX_TOKENS", 150),
		LongMaxTokens:      envInt("LONG_ANSWER_MAX_TOKENS", 700),
		ShortTemperature:   0.7,
		LongTemperature:    0.8,
	}
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if raw := os.Getenv(key); raw != "" {
		if d, err := time.ParseDuration(raw); err == nil && d > 0 {
			return d
		}
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if raw := os.Getenv(key); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			return n
		}
	}
	return fallback
}

func NewBotService(
	log *logrus.Logger,
	prefRepo botRepository.Repository,
	generator TextGenerator,
	synthesizer SpeechSynthesizer,
	mediaStore MediaStore,
	utils utils.IUtils,
	config *BotConfig,
) IBotService {
	return &botService{
		log:         log,
		prefRepo:    prefRepo,
		generator:   generator,
		synthesizer: synthesizer,
		mediaStore:  mediaStore,
		utils:       utils,
		config:      config,
	}
}

func (s *botService) ListLanguages(_ context.Context) bot.LanguagesResponse {
	return bot.LanguagesResponse{Languages: bot.ListLanguages()}
}
