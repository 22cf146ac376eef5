package botService

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/kathalabs/katha-bot/internal/api/bot"
	"github.com/kathalabs/katha-bot/internal/entity"
	contextPkg "github.com/kathalabs/katha-bot/pkg/context"
)

// The conversation has two states per sender, both derived from the
// preference store: no preference stored (show the menu, capture a
// selection) or preference stored (forward to content generation). Help and
// reset commands fire from either state.

func isHelpTrigger(text string) bool {
	return text == "help" || text == "menu"
}

func isResetTrigger(text string) bool {
	return text == "reset" || text == "reset language" || text == "change language"
}

func (s *botService) HandleMessage(ctx context.Context, msg entity.InboundMessage) (*bot.Reply, error) {
	requestID := contextPkg.GetRequestID(ctx)
	command := strings.ToLower(strings.TrimSpace(msg.Body))

	if isHelpTrigger(command) {
		return bot.TextReply(bot.HelpText()), nil
	}

	if isResetTrigger(command) {
		if err := s.prefRepo.ClearLanguage(ctx, msg.Sender); err != nil {
			s.log.WithFields(logrus.Fields{
				"request_id": requestID,
				"sender":     msg.Sender,
				"error":      err.Error(),
			}).Error("Failed to clear language preference")
			return nil, err
		}
		return bot.TextReply("Your language preference has been cleared.\n\n" + bot.RenderMenu()), nil
	}

	lang, err := s.prefRepo.GetLanguage(ctx, msg.Sender)
	if errors.Is(err, bot.ErrNoPreference) {
		return s.captureSelection(ctx, msg)
	}
	if err != nil {
		s.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"sender":     msg.Sender,
			"error":      err.Error(),
		}).Error("Failed to read language preference")
		return nil, err
	}

	return s.generateContent(ctx, msg.Body, lang)
}

// captureSelection handles a sender with no stored preference: a valid menu
// number sets the language, anything else re-shows the menu. Bad input is
// never an error, the user always gets a next action.
func (s *botService) captureSelection(ctx context.Context, msg entity.InboundMessage) (*bot.Reply, error) {
	requestID := contextPkg.GetRequestID(ctx)

	lang, ok := bot.ResolveSelection(msg.Body)
	if !ok {
		return bot.TextReply(bot.RenderMenu()), nil
	}

	if err := s.prefRepo.SetLanguage(ctx, msg.Sender, lang); err != nil {
		s.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"sender":     msg.Sender,
			"language":   lang.Code,
			"error":      err.Error(),
		}).Error("Failed to store language preference")
		return nil, err
	}

	s.log.WithFields(logrus.Fields{
		"request_id": requestID,
		"sender":     msg.Sender,
		"language":   lang.Code,
	}).Info("Language preference set")

	return bot.TextReply(fmt.Sprintf("Language set to %s. Ask me anything about Indian mythology!", lang.Name)), nil
}
