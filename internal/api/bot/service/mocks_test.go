package botService

import (
	"context"
	"errors"
	"io"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/kathalabs/katha-bot/internal/api/bot"
	"github.com/kathalabs/katha-bot/internal/entity"
)

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

// mapRepository is an in-memory preference store for tests.
type mapRepository struct {
	mu    sync.Mutex
	prefs map[string]entity.Language
}

func newMapRepository() *mapRepository {
	return &mapRepository{prefs: make(map[string]entity.Language)}
}

func (r *mapRepository) GetLanguage(_ context.Context, sender string) (entity.Language, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	lang, ok := r.prefs[sender]
	if !ok {
		return entity.Language{}, bot.ErrNoPreference
	}
	return lang, nil
}

func (r *mapRepository) SetLanguage(_ context.Context, sender string, lang entity.Language) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.prefs[sender] = lang
	return nil
}

func (r *mapRepository) ClearLanguage(_ context.Context, sender string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.prefs, sender)
	return nil
}

// generatorCall records one GenerateAnswer invocation.
type generatorCall struct {
	Question string
	Language string
	Style    string
}

type mockGenerator struct {
	mu        sync.Mutex
	calls     []generatorCall
	shortText string
	longText  string
	shortErr  error
	longErr   error
}

func (g *mockGenerator) GenerateAnswer(_ context.Context, question, language, style string, _ int, _ float32) (string, error) {
	g.mu.Lock()
	g.calls = append(g.calls, generatorCall{Question: question, Language: language, Style: style})
	g.mu.Unlock()

	if style == StyleLong {
		if g.longErr != nil {
			return "", g.longErr
		}
		return g.longText, nil
	}
	if g.shortErr != nil {
		return "", g.shortErr
	}
	return g.shortText, nil
}

func (g *mockGenerator) callsFor(style string) []generatorCall {
	g.mu.Lock()
	defer g.mu.Unlock()
	var out []generatorCall
	for _, c := range g.calls {
		if c.Style == style {
			out = append(out, c)
		}
	}
	return out
}

type mockSynthesizer struct {
	data []byte
	err  error
}

func (s *mockSynthesizer) GenerateAudio(_ context.Context, _ string, _ string) ([]byte, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.data, nil
}

type mockMediaStore struct {
	uploadErr  error
	presignErr error
	url        string
	expiresAt  time.Time
}

func (m *mockMediaStore) UploadAudio(key string, _ []byte) (string, error) {
	if m.uploadErr != nil {
		return "", m.uploadErr
	}
	return "https://bucket.s3.amazonaws.com/" + key, nil
}

func (m *mockMediaStore) PresignUrl(_ string) (string, time.Time, error) {
	if m.presignErr != nil {
		return "", time.Time{}, m.presignErr
	}
	return m.url, m.expiresAt, nil
}

var errUpstream = errors.New("upstream unavailable")

func newTestService(repo *mapRepository, gen *mockGenerator, synth *mockSynthesizer, store *mockMediaStore) IBotService {
	return &botService{
		log:         testLogger(),
		prefRepo:    repo,
		generator:   gen,
		synthesizer: synth,
		mediaStore:  store,
		utils:       &fixedUtils{},
		config: &BotConfig{
			ShortAnswerTimeout: time.Second,
			LongAnswerTimeout:  time.Second,
			ShortMaxTokens:     150,
			LongMaxTokens:      700,
			ShortTemperature:   0.7,
			LongTemperature:    0.8,
		},
	}
}

// fixedUtils makes object names predictable in tests.
type fixedUtils struct{}

func (u *fixedUtils) NewULIDFromTimestamp(_ time.Time) (string, error) {
	return "01TESTULID", nil
}

func (u *fixedUtils) NewAudioObjectName(languageCode string) (string, error) {
	return "audio/" + languageCode + "/01TESTULID.mp3", nil
}

func (u *fixedUtils) NormalizeSender(sender string) string {
	return sender
}
