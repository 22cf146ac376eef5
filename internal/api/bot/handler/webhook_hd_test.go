package botHandler

import (
	"context"
	"encoding/json"
	"io"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"

	"github.com/kathalabs/katha-bot/internal/api/bot"
	"github.com/kathalabs/katha-bot/internal/entity"
	"github.com/kathalabs/katha-bot/internal/middleware"
	"github.com/kathalabs/katha-bot/pkg/utils"
	"github.com/kathalabs/katha-bot/pkg/whatsapp"
)

type mockBotService struct {
	mu      sync.Mutex
	reply   *bot.Reply
	err     error
	lastMsg entity.InboundMessage
}

func (m *mockBotService) HandleMessage(_ context.Context, msg entity.InboundMessage) (*bot.Reply, error) {
	m.mu.Lock()
	m.lastMsg = msg
	m.mu.Unlock()
	return m.reply, m.err
}

func (m *mockBotService) ListLanguages(_ context.Context) bot.LanguagesResponse {
	return bot.LanguagesResponse{Languages: bot.ListLanguages()}
}

type fakeSender struct {
	mu      sync.Mutex
	sent    []string
	sendErr error
	offline bool
}

func (f *fakeSender) SendMessage(_ context.Context, _, message string) error {
	if f.sendErr != nil {
		return f.sendErr
	}
	f.mu.Lock()
	f.sent = append(f.sent, message)
	f.mu.Unlock()
	return nil
}

func (f *fakeSender) Disconnect() error { return nil }

func (f *fakeSender) IsConnected() bool { return !f.offline }

func newTestApp(svc *mockBotService, sender *fakeSender) *fiber.App {
	logger := logrus.New()
	logger.SetOutput(io.Discard)

	mw := middleware.New(logger)
	app := fiber.New()
	app.Use(mw.NewRequestIDMiddleware())

	// a plain nil keeps the interface itself nil inside the handler
	var wa whatsapp.IWhatsappSender
	if sender != nil {
		wa = sender
	}

	h := New(logger, validator.New(), mw, svc, wa, utils.New())
	h.Start(app.Group("/api/v1"))
	return app
}

func postTwilio(t *testing.T, app *fiber.App, from, body string) (int, string) {
	t.Helper()
	form := url.Values{}
	form.Set("From", from)
	form.Set("Body", body)
	form.Set("MessageSid", "SM123")

	req := httptest.NewRequest(fiber.MethodPost, "/api/v1/webhook/twilio", strings.NewReader(form.Encode()))
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationForm)

	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()
	payload, _ := io.ReadAll(resp.Body)
	return resp.StatusCode, string(payload)
}

func TestTwilioWebhookRepliesWithTwiML(t *testing.T) {
	svc := &mockBotService{reply: bot.TextReply("Namaste")}
	app := newTestApp(svc, nil)

	status, body := postTwilio(t, app, "whatsapp:+911234567890", "help")
	if status != fiber.StatusOK {
		t.Fatalf("status = %d, want 200", status)
	}
	if !strings.Contains(body, "<Response>") || !strings.Contains(body, "<Message>") {
		t.Fatalf("response is not a TwiML document: %s", body)
	}
	if !strings.Contains(body, "Namaste") {
		t.Errorf("response is missing the reply text: %s", body)
	}

	// the channel prefix is stripped before the sender reaches the router
	if svc.lastMsg.Sender != "+911234567890" {
		t.Errorf("sender = %q, want the bare number", svc.lastMsg.Sender)
	}
	if svc.lastMsg.Body != "help" {
		t.Errorf("body = %q", svc.lastMsg.Body)
	}
}

func TestTwilioWebhookIncludesMedia(t *testing.T) {
	reply := bot.TextReply("Short answer")
	reply.Messages = append(reply.Messages, bot.ReplyMessage{
		Text:     "Listen to the full story:",
		MediaURL: "https://signed.example/audio.mp3",
	})
	svc := &mockBotService{reply: reply}
	app := newTestApp(svc, nil)

	status, body := postTwilio(t, app, "whatsapp:+911234567890", "Tell me about Hanuman")
	if status != fiber.StatusOK {
		t.Fatalf("status = %d, want 200", status)
	}
	if !strings.Contains(body, "<Media>") || !strings.Contains(body, "https://signed.example/audio.mp3") {
		t.Errorf("response is missing the media element: %s", body)
	}
}

func TestTwilioWebhookApologizesOnFailure(t *testing.T) {
	svc := &mockBotService{err: bot.ErrAnswerGeneration}
	app := newTestApp(svc, nil)

	status, body := postTwilio(t, app, "whatsapp:+911234567890", "Who is Indra?")
	if status != fiber.StatusOK {
		t.Fatalf("the TwiML variant carries the apology in the document, got status %d", status)
	}
	if !strings.Contains(body, "Sorry, I could not fetch a story right now") {
		t.Errorf("response is missing the apology: %s", body)
	}
}

func TestTwilioWebhookRejectsMissingSender(t *testing.T) {
	svc := &mockBotService{reply: bot.TextReply("unused")}
	app := newTestApp(svc, nil)

	form := url.Values{}
	form.Set("Body", "help")
	req := httptest.NewRequest(fiber.MethodPost, "/api/v1/webhook/twilio", strings.NewReader(form.Encode()))
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationForm)

	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != fiber.StatusBadRequest {
		t.Fatalf("status = %d, want 400", resp.StatusCode)
	}
}

func postWhatsapp(t *testing.T, app *fiber.App, payload string) (int, string) {
	t.Helper()
	req := httptest.NewRequest(fiber.MethodPost, "/api/v1/webhook/whatsapp", strings.NewReader(payload))
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)

	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	return resp.StatusCode, string(body)
}

func TestWhatsappWebhookDeliversOutOfBand(t *testing.T) {
	reply := bot.TextReply("Short answer")
	reply.Messages = append(reply.Messages, bot.ReplyMessage{
		Text:     "Listen to the full story:",
		MediaURL: "https://signed.example/audio.mp3",
	})
	svc := &mockBotService{reply: reply}
	sender := &fakeSender{}
	app := newTestApp(svc, sender)

	status, body := postWhatsapp(t, app, `{"sender":"911234567890","message":"Tell me about Hanuman"}`)
	if status != fiber.StatusOK {
		t.Fatalf("status = %d, want 200 (%s)", status, body)
	}

	var ack bot.WebhookAck
	if err := json.Unmarshal([]byte(body), &ack); err != nil {
		t.Fatalf("ack is not JSON: %v", err)
	}
	if ack.Status != "delivered" || ack.Messages != 2 {
		t.Errorf("ack = %+v", ack)
	}

	if len(sender.sent) != 2 {
		t.Fatalf("sent %d messages, want 2", len(sender.sent))
	}
	if !strings.Contains(sender.sent[1], "https://signed.example/audio.mp3") {
		t.Errorf("second message is missing the audio link: %q", sender.sent[1])
	}
}

func TestWhatsappWebhookFailsWithoutTransport(t *testing.T) {
	svc := &mockBotService{reply: bot.TextReply("unused")}
	app := newTestApp(svc, &fakeSender{offline: true})

	status, _ := postWhatsapp(t, app, `{"sender":"911234567890","message":"hi"}`)
	if status != fiber.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503", status)
	}
}

func TestWhatsappWebhookReturnsErrorStatusOnGenerationFailure(t *testing.T) {
	svc := &mockBotService{err: bot.ErrAnswerGeneration}
	sender := &fakeSender{}
	app := newTestApp(svc, sender)

	status, _ := postWhatsapp(t, app, `{"sender":"911234567890","message":"Who is Indra?"}`)
	if status != fiber.StatusBadGateway {
		t.Fatalf("status = %d, want 502", status)
	}

	// the user still gets the apology on the channel
	if len(sender.sent) != 1 || !strings.Contains(sender.sent[0], "Sorry") {
		t.Errorf("apology was not delivered: %v", sender.sent)
	}
}

func TestGetLanguages(t *testing.T) {
	svc := &mockBotService{}
	app := newTestApp(svc, nil)

	req := httptest.NewRequest(fiber.MethodGet, "/api/v1/bot/languages", nil)
	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}

	var out bot.LanguagesResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(out.Languages) != len(entity.SupportedLanguages) {
		t.Fatalf("got %d languages, want %d", len(out.Languages), len(entity.SupportedLanguages))
	}
	if out.Languages[2].Name != "Tamil" || out.Languages[2].Index != 3 {
		t.Errorf("third language = %+v, want Tamil at index 3", out.Languages[2])
	}
}
