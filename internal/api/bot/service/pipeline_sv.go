package botService

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/kathalabs/katha-bot/internal/api/bot"
	"github.com/kathalabs/katha-bot/internal/entity"
	contextPkg "github.com/kathalabs/katha-bot/pkg/context"
)

// audioResult distinguishes a usable audio link from absence-due-to-failure.
// Absence is not an error: the optional branch never fails the turn.
type audioResult struct {
	URL       string
	ExpiresAt time.Time
	OK        bool
}

// generateContent runs the content pipeline for a sender whose language is
// set. The short answer is mandatory; the long-form narration, speech
// synthesis and upload are a best-effort branch whose failure degrades the
// reply to text-only.
func (s *botService) generateContent(ctx context.Context, question string, lang entity.Language) (*bot.Reply, error) {
	requestID := contextPkg.GetRequestID(ctx)

	shortCtx, cancel := context.WithTimeout(ctx, s.config.ShortAnswerTimeout)
	defer cancel()

	answer, err := s.generator.GenerateAnswer(shortCtx, question, lang.Name, StyleShort,
		s.config.ShortMaxTokens, s.config.ShortTemperature)
	if err != nil {
		s.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"language":   lang.Code,
			"error":      err.Error(),
		}).Error("Short answer generation failed")
		return nil, bot.ErrAnswerGeneration
	}

	reply := bot.TextReply(answer)

	audio := s.narrateAnswer(ctx, question, lang)
	if audio.OK {
		expiresAt := audio.ExpiresAt
		reply.Messages = append(reply.Messages, bot.ReplyMessage{
			Text:           "Listen to the full story:",
			MediaURL:       audio.URL,
			MediaExpiresAt: &expiresAt,
		})
	}

	return reply, nil
}

// narrateAnswer produces the hosted audio narration. Every failure is logged
// and swallowed here; nothing from this branch crosses the adapter boundary
// except a present or absent result.
func (s *botService) narrateAnswer(ctx context.Context, question string, lang entity.Language) audioResult {
	requestID := contextPkg.GetRequestID(ctx)

	longCtx, cancel := context.WithTimeout(ctx, s.config.LongAnswerTimeout)
	defer cancel()

	narrative, err := s.generator.GenerateAnswer(longCtx, question, lang.Name, StyleLong,
		s.config.LongMaxTokens, s.config.LongTemperature)
	if err != nil {
		s.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"language":   lang.Code,
			"error":      err.Error(),
		}).Warn("Long answer generation failed, replying text-only")
		return audioResult{}
	}

	audioData, err := s.synthesizer.GenerateAudio(longCtx, narrative, lang.Code)
	if err != nil {
		s.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"language":   lang.Code,
			"error":      err.Error(),
		}).Warn("Speech synthesis failed, replying text-only")
		return audioResult{}
	}

	key, err := s.utils.NewAudioObjectName(lang.Code)
	if err != nil {
		s.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Warn("Failed to build audio object name, replying text-only")
		return audioResult{}
	}

	location, err := s.mediaStore.UploadAudio(key, audioData)
	if err != nil {
		s.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Warn("Audio upload failed, replying text-only")
		return audioResult{}
	}

	url, expiresAt, err := s.mediaStore.PresignUrl(location)
	if err != nil {
		s.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Warn("Audio presign failed, replying text-only")
		return audioResult{}
	}

	s.log.WithFields(logrus.Fields{
		"request_id": requestID,
		"language":   lang.Code,
		"bytes":      len(audioData),
	}).Info("Audio narration ready")

	return audioResult{URL: url, ExpiresAt: expiresAt, OK: true}
}
