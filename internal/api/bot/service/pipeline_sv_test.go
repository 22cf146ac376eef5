package botService

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/kathalabs/katha-bot/internal/api/bot"
	"github.com/kathalabs/katha-bot/internal/entity"
)

func pipelineFixture(gen *mockGenerator, synth *mockSynthesizer, store *mockMediaStore) IBotService {
	repo := newMapRepository()
	tamil, _ := entity.LanguageByCode("ta")
	_ = repo.SetLanguage(context.Background(), "U1", tamil)
	return newTestService(repo, gen, synth, store)
}

func TestPipelineFullSuccessIncludesAudio(t *testing.T) {
	expiresAt := time.Now().Add(time.Hour)
	gen := &mockGenerator{shortText: "Short.", longText: "A long story."}
	store := &mockMediaStore{url: "https://signed.example/audio.mp3", expiresAt: expiresAt}
	svc := pipelineFixture(gen, &mockSynthesizer{data: []byte("mp3")}, store)

	reply, err := svc.HandleMessage(context.Background(), entity.InboundMessage{Sender: "U1", Body: "Tell me about Ganesha"})
	if err != nil {
		t.Fatalf("HandleMessage: %v", err)
	}

	if len(reply.Messages) != 2 {
		t.Fatalf("got %d reply messages, want 2", len(reply.Messages))
	}
	if reply.Messages[0].Text != "Short." {
		t.Errorf("first message = %q, want the short answer", reply.Messages[0].Text)
	}
	audio := reply.Messages[1]
	if audio.MediaURL != "https://signed.example/audio.mp3" {
		t.Errorf("media URL = %q", audio.MediaURL)
	}
	if audio.MediaExpiresAt == nil || !audio.MediaExpiresAt.Equal(expiresAt) {
		t.Errorf("media expiry = %v, want %v", audio.MediaExpiresAt, expiresAt)
	}

	if len(gen.callsFor(StyleLong)) != 1 {
		t.Errorf("expected one long-answer call, got %d", len(gen.callsFor(StyleLong)))
	}
}

func TestPipelineDegradesToTextOnLongAnswerFailure(t *testing.T) {
	gen := &mockGenerator{shortText: "Short.", longErr: errUpstream}
	svc := pipelineFixture(gen, &mockSynthesizer{data: []byte("mp3")}, &mockMediaStore{})

	reply, err := svc.HandleMessage(context.Background(), entity.InboundMessage{Sender: "U1", Body: "Tell me about Hanuman"})
	if err != nil {
		t.Fatalf("long-answer failure must not fail the turn: %v", err)
	}
	if len(reply.Messages) != 1 {
		t.Fatalf("got %d messages, want text-only", len(reply.Messages))
	}
	if reply.Messages[0].Text != "Short." || reply.Messages[0].MediaURL != "" {
		t.Errorf("unexpected degraded reply: %+v", reply.Messages[0])
	}
}

func TestPipelineDegradesToTextOnSynthesisFailure(t *testing.T) {
	gen := &mockGenerator{shortText: "Short.", longText: "Story."}
	svc := pipelineFixture(gen, &mockSynthesizer{err: errUpstream}, &mockMediaStore{})

	reply, err := svc.HandleMessage(context.Background(), entity.InboundMessage{Sender: "U1", Body: "Who is Garuda?"})
	if err != nil {
		t.Fatalf("synthesis failure must not fail the turn: %v", err)
	}
	if len(reply.Messages) != 1 {
		t.Fatalf("got %d messages, want text-only", len(reply.Messages))
	}
}

func TestPipelineDegradesToTextOnUploadFailure(t *testing.T) {
	gen := &mockGenerator{shortText: "Short.", longText: "Story."}
	store := &mockMediaStore{uploadErr: errUpstream}
	svc := pipelineFixture(gen, &mockSynthesizer{data: []byte("mp3")}, store)

	reply, err := svc.HandleMessage(context.Background(), entity.InboundMessage{Sender: "U1", Body: "Who is Garuda?"})
	if err != nil {
		t.Fatalf("upload failure must not fail the turn: %v", err)
	}
	if len(reply.Messages) != 1 {
		t.Fatalf("got %d messages, want text-only", len(reply.Messages))
	}
}

func TestPipelineShortAnswerFailureFailsTheTurn(t *testing.T) {
	gen := &mockGenerator{shortErr: errUpstream, longText: "Story."}
	svc := pipelineFixture(gen, &mockSynthesizer{data: []byte("mp3")}, &mockMediaStore{})

	_, err := svc.HandleMessage(context.Background(), entity.InboundMessage{Sender: "U1", Body: "Who is Indra?"})
	if !errors.Is(err, bot.ErrAnswerGeneration) {
		t.Fatalf("expected ErrAnswerGeneration, got %v", err)
	}

	// the mandatory branch failing short-circuits the optional one
	if len(gen.callsFor(StyleLong)) != 0 {
		t.Errorf("long-answer branch ran after short-answer failure")
	}
}
