package botHandler

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/twilio/twilio-go/twiml"
	"golang.org/x/net/context"

	"github.com/kathalabs/katha-bot/internal/api/bot"
	"github.com/kathalabs/katha-bot/internal/entity"
	contextPkg "github.com/kathalabs/katha-bot/pkg/context"
	"github.com/kathalabs/katha-bot/pkg/handlerUtil"
	"github.com/kathalabs/katha-bot/pkg/log"
)

// The full turn may run two generation calls plus synthesis and upload, so
// the handler budget has to cover both configured answer timeouts.
const webhookTimeout = 90 * time.Second

func (h *BotHandler) HandleTwilioWebhook(ctx *fiber.Ctx) error {
	requestID := h.middleware.GetRequestID(ctx)
	c, cancel := context.WithTimeout(contextPkg.FromFiberCtx(ctx), webhookTimeout)
	defer cancel()

	errHandler := handlerUtil.New(h.log)

	h.log.WithFields(log.Fields{
		"request_id": requestID,
		"path":       ctx.Path(),
	}).Debug("Processing Twilio webhook")

	var req bot.TwilioWebhookRequest
	if err := ctx.BodyParser(&req); err != nil {
		return errHandler.HandleValidationError(ctx, requestID, err, ctx.Path())
	}

	if err := h.validator.Struct(req); err != nil {
		return errHandler.HandleValidationError(ctx, requestID, err, ctx.Path())
	}

	msg := entity.InboundMessage{
		Sender: h.utils.NormalizeSender(req.From),
		Body:   req.Body,
	}

	reply, err := h.botService.HandleMessage(c, msg)
	if err != nil {
		// the transport carries the apology in the response document itself
		h.log.WithFields(log.Fields{
			"request_id": requestID,
			"sender":     msg.Sender,
			"error":      err.Error(),
		}).Warn("Turn failed, replying with apology")
		reply = bot.TextReply(bot.ApologyText)
	}

	return h.sendTwiML(ctx, requestID, reply)
}

func (h *BotHandler) sendTwiML(ctx *fiber.Ctx, requestID string, reply *bot.Reply) error {
	verbs := make([]twiml.Element, 0, len(reply.Messages))
	for _, m := range reply.Messages {
		inner := []twiml.Element{&twiml.MessagingBody{Message: m.Text}}
		if m.MediaURL != "" {
			inner = append(inner, &twiml.MessagingMedia{Url: m.MediaURL})
		}
		verbs = append(verbs, &twiml.MessagingMessage{InnerElements: inner})
	}

	doc, err := twiml.Messages(verbs)
	if err != nil {
		h.log.WithFields(log.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("Failed to render TwiML response")
		return ctx.SendStatus(fiber.StatusInternalServerError)
	}

	ctx.Set(fiber.HeaderContentType, "text/xml")
	return ctx.Status(fiber.StatusOK).SendString(doc)
}

func (h *BotHandler) HandleWhatsappWebhook(ctx *fiber.Ctx) error {
	requestID := h.middleware.GetRequestID(ctx)
	c, cancel := context.WithTimeout(contextPkg.FromFiberCtx(ctx), webhookTimeout)
	defer cancel()

	errHandler := handlerUtil.New(h.log)

	h.log.WithFields(log.Fields{
		"request_id": requestID,
		"path":       ctx.Path(),
	}).Debug("Processing WhatsApp webhook")

	var req bot.WebhookRequest
	if err := ctx.BodyParser(&req); err != nil {
		return errHandler.HandleValidationError(ctx, requestID, err, ctx.Path())
	}

	if err := h.validator.Struct(req); err != nil {
		return errHandler.HandleValidationError(ctx, requestID, err, ctx.Path())
	}

	if h.whatsappClient == nil || !h.whatsappClient.IsConnected() {
		return errHandler.Handle(ctx, requestID, bot.ErrTransportDisabled, ctx.Path(), "handle_whatsapp_webhook")
	}

	sender := h.utils.NormalizeSender(req.Sender)
	msg := entity.InboundMessage{
		Sender: sender,
		Body:   req.Message,
	}

	reply, err := h.botService.HandleMessage(c, msg)
	if err != nil {
		// best effort: the user still gets the apology on the channel
		if sendErr := h.whatsappClient.SendMessage(c, sender, bot.ApologyText); sendErr != nil {
			h.log.WithFields(log.Fields{
				"request_id": requestID,
				"sender":     sender,
				"error":      sendErr.Error(),
			}).Warn("Failed to deliver apology message")
		}
		return errHandler.Handle(ctx, requestID, err, ctx.Path(), "handle_whatsapp_webhook")
	}

	sent := 0
	for _, m := range reply.Messages {
		text := m.Text
		if m.MediaURL != "" {
			text = text + "\n" + m.MediaURL
		}
		if err := h.whatsappClient.SendMessage(c, sender, text); err != nil {
			h.log.WithFields(log.Fields{
				"request_id": requestID,
				"sender":     sender,
				"error":      err.Error(),
			}).Error("Failed to send WhatsApp reply")
			return errHandler.Handle(ctx, requestID, bot.ErrReplyDelivery, ctx.Path(), "handle_whatsapp_webhook")
		}
		sent++
	}

	select {
	case <-c.Done():
		return errHandler.HandleRequestTimeout(ctx)
	default:
		return errHandler.HandleSuccess(ctx, fiber.StatusOK, bot.WebhookAck{Status: "delivered", Messages: sent})
	}
}

func (h *BotHandler) GetLanguages(ctx *fiber.Ctx) error {
	c, cancel := context.WithTimeout(contextPkg.FromFiberCtx(ctx), 5*time.Second)
	defer cancel()

	errHandler := handlerUtil.New(h.log)

	return errHandler.HandleSuccess(ctx, fiber.StatusOK, h.botService.ListLanguages(c))
}
