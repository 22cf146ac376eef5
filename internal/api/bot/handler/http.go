package botHandler

import (
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"

	botService "github.com/kathalabs/katha-bot/internal/api/bot/service"
	"github.com/kathalabs/katha-bot/internal/middleware"
	"github.com/kathalabs/katha-bot/pkg/utils"
	"github.com/kathalabs/katha-bot/pkg/whatsapp"
)

type BotHandler struct {
	log            *logrus.Logger
	validator      *validator.Validate
	middleware     middleware.Middleware
	botService     botService.IBotService
	whatsappClient whatsapp.IWhatsappSender
	utils          utils.IUtils
}

func New(
	log *logrus.Logger,
	validate *validator.Validate,
	middleware middleware.Middleware,
	bs botService.IBotService,
	whatsappClient whatsapp.IWhatsappSender,
	utils utils.IUtils,
) *BotHandler {
	return &BotHandler{
		log:            log,
		validator:      validate,
		middleware:     middleware,
		botService:     bs,
		whatsappClient: whatsappClient,
		utils:          utils,
	}
}

func (h *BotHandler) Start(srv fiber.Router) {
	bot := srv.Group("/bot")
	bot.Get("/languages", h.GetLanguages)

	webhook := srv.Group("/webhook")
	webhook.Use(h.middleware.NewRateLimiter)

	// Twilio variant answers inside the webhook response document
	webhook.Post("/twilio", h.middleware.NewTwilioSignatureMiddleware, h.HandleTwilioWebhook)

	// JSON variant acks the webhook and replies out-of-band
	webhook.Post("/whatsapp", h.HandleWhatsappWebhook)
}
