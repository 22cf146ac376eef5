package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"

	"github.com/kathalabs/katha-bot/database/postgres"
	botHandler "github.com/kathalabs/katha-bot/internal/api/bot/handler"
	botRepository "github.com/kathalabs/katha-bot/internal/api/bot/repository"
	botService "github.com/kathalabs/katha-bot/internal/api/bot/service"
	"github.com/kathalabs/katha-bot/internal/middleware"
	"github.com/kathalabs/katha-bot/pkg/audio"
	"github.com/kathalabs/katha-bot/pkg/gemini"
	"github.com/kathalabs/katha-bot/pkg/openai"
	"github.com/kathalabs/katha-bot/pkg/redis"
	"github.com/kathalabs/katha-bot/pkg/s3"
	"github.com/kathalabs/katha-bot/pkg/utils"
	"github.com/kathalabs/katha-bot/pkg/whatsapp"
)

type ServerOption func(*Server) error

type Server struct {
	engine         *fiber.App
	db             *sqlx.DB
	log            *logrus.Logger
	middleware     middleware.Middleware
	validator      *validator.Validate
	utils          utils.IUtils
	handlers       []handler
	redisServer    redis.IRedis
	prefStore      botRepository.Repository
	textGenerator  botService.TextGenerator
	ttsService     *audio.TTSService
	whatsappClient whatsapp.IWhatsappSender
	s3Client       s3.ItfS3
}

type handler interface {
	Start(srv fiber.Router)
}

func NewServer(options ...ServerOption) (*Server, error) {
	server := &Server{}

	for _, option := range options {
		if err := option(server); err != nil {
			return nil, fmt.Errorf("failed to apply option: %w", err)
		}
	}

	if server.engine == nil {
		return nil, fmt.Errorf("fiber app is required")
	}
	if server.log == nil {
		return nil, fmt.Errorf("logger is required")
	}
	if server.prefStore == nil {
		return nil, fmt.Errorf("preference store is required")
	}
	if server.textGenerator == nil {
		return nil, fmt.Errorf("text generator is required")
	}

	return server, nil
}

func WithFiber(fiberApp *fiber.App) ServerOption {
	return func(s *Server) error {
		s.engine = fiberApp
		return nil
	}
}

func WithLogger(logger *logrus.Logger) ServerOption {
	return func(s *Server) error {
		s.log = logger
		return nil
	}
}

func WithValidator(validator *validator.Validate) ServerOption {
	return func(s *Server) error {
		s.validator = validator
		return nil
	}
}

func WithRedisServer(redisServer redis.IRedis) ServerOption {
	return func(s *Server) error {
		s.redisServer = redisServer
		return nil
	}
}

func WithMiddleware() ServerOption {
	return func(s *Server) error {
		if s.log == nil {
			return fmt.Errorf("logger must be initialized before middleware")
		}
		s.middleware = middleware.New(s.log)
		return nil
	}
}

// WithPreferenceStore selects the language-preference backend from the
// PREFERENCE_STORE env: "memory" (default), "redis" or "postgres". The
// router works against the interface and never sees which one is live.
func WithPreferenceStore() ServerOption {
	return func(s *Server) error {
		if s.log == nil {
			return fmt.Errorf("logger must be initialized before the preference store")
		}

		backend := strings.ToLower(os.Getenv("PREFERENCE_STORE"))
		switch backend {
		case "postgres":
			db, err := postgres.New()
			if err != nil {
				s.log.Errorf("Failed to connect to database: %v", err)
				return fmt.Errorf("failed to create database connection: %w", err)
			}
			s.db = db
			s.prefStore = botRepository.NewPostgres(db, s.log)
		case "redis":
			if s.redisServer == nil {
				return fmt.Errorf("redis must be initialized before the preference store")
			}
			s.prefStore = botRepository.NewRedis(s.redisServer, s.log)
		case "", "memory":
			s.prefStore = botRepository.NewMemory(s.log)
		default:
			return fmt.Errorf("unknown preference store backend %q", backend)
		}

		s.log.Infof("Preference store backend: %s", backendName(backend))
		return nil
	}
}

func backendName(backend string) string {
	if backend == "" {
		return "memory"
	}
	return backend
}

// WithTextGenerator selects the LLM backend from the LLM_PROVIDER env:
// "gemini" (default) or "openai".
func WithTextGenerator() ServerOption {
	return func(s *Server) error {
		provider := strings.ToLower(os.Getenv("LLM_PROVIDER"))
		switch provider {
		case "openai":
			s.textGenerator = openai.NewChatGPT()
		case "", "gemini":
			client, err := gemini.NewGeminiClient()
			if err != nil {
				if s.log != nil {
					s.log.Errorf("Failed to create Gemini client: %v", err)
				}
				return fmt.Errorf("failed to create Gemini client: %w", err)
			}
			s.textGenerator = client
		default:
			return fmt.Errorf("unknown LLM provider %q", provider)
		}
		return nil
	}
}

func WithTTSService() ServerOption {
	return func(s *Server) error {
		s.ttsService = audio.NewTTSService()
		return nil
	}
}

func WithS3Client() ServerOption {
	return func(s *Server) error {
		client, err := s3.New()
		if err != nil {
			if s.log != nil {
				s.log.Errorf("Failed to initialize S3 client: %v", err)
			}
			return fmt.Errorf("failed to create S3 client: %w", err)
		}
		s.s3Client = client
		return nil
	}
}

// WithWhatsappClient links the out-of-band reply transport. It is optional:
// the Twilio variant answers inside the webhook response and needs no
// linked device.
func WithWhatsappClient() ServerOption {
	return func(s *Server) error {
		if os.Getenv("WHATSAPP_ENABLED") != "true" {
			if s.log != nil {
				s.log.Info("WhatsApp client disabled, only the Twilio webhook will reply")
			}
			return nil
		}

		client, err := whatsapp.New(s.log)
		if err != nil {
			if s.log != nil {
				s.log.Errorf("Failed to initialize WhatsApp client: %v", err)
			}
			return fmt.Errorf("failed to create WhatsApp client: %w", err)
		}
		s.whatsappClient = client
		return nil
	}
}

func WithUtils() ServerOption {
	return func(s *Server) error {
		s.utils = utils.New()
		return nil
	}
}

func (s *Server) RegisterHandler() {
	// Bot Domain
	botConfig := botService.NewBotConfig()
	botServices := botService.NewBotService(s.log, s.prefStore, s.textGenerator, s.ttsService, s.s3Client, s.utils, botConfig)
	botHandlers := botHandler.New(s.log, s.validator, s.middleware, botServices, s.whatsappClient, s.utils)

	s.setupHealthCheck()
	s.handlers = append(s.handlers, botHandlers)
}

func (s *Server) Run() error {
	router := s.engine.Group("/api/v1")
	s.engine.Use(s.middleware.NewRequestIDMiddleware())
	s.engine.Use(middleware.LoggerConfig())

	for _, h := range s.handlers {
		h.Start(router)
	}

	port := os.Getenv("APP_PORT")
	if port == "" {
		port = "3000"
	}

	if err := s.engine.Listen(fmt.Sprintf(":%s", port)); err != nil {
		if s.whatsappClient != nil {
			s.whatsappClient.Disconnect()
		}
		return err
	}

	return nil
}

func (s *Server) setupHealthCheck() {
	s.engine.Get("/", func(ctx *fiber.Ctx) error {
		return ctx.JSON(fiber.Map{
			"message": "Server is Healthy!",
		})
	})
}
