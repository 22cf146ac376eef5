package gemini

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

const (
	StyleShort = "short"
	StyleLong  = "long"
)

type IGemini interface {
	GenerateAnswer(ctx context.Context, question, language, style string, maxTokens int, temperature float32) (string, error)
}

type geminiClient struct {
	apiKey    string
	modelName string
	client    *genai.Client
}

func NewGeminiClient() (IGemini, error) {

	apiKey := os.Getenv("GEMINI_API_KEY")

	modelName := os.Getenv("GEMINI_MODEL_NAME")
	if apiKey == "" {
		return nil, errors.New("gemini API key is required")
	}

	if modelName == "" {
		modelName = "gemini-1.5-flash"
	}

	client, err := genai.NewClient(context.Background(), option.WithAPIKey(apiKey))
	if err != nil {
		return nil, err
	}

	return &geminiClient{
		apiKey:    apiKey,
		modelName: modelName,
		client:    client,
	}, nil
}

func (g *geminiClient) GenerateAnswer(ctx context.Context, question, language, style string, maxTokens int, temperature float32) (string, error) {
	model := g.client.GenerativeModel(g.modelName)
	model.SetMaxOutputTokens(int32(maxTokens))
	model.SetTemperature(temperature)

	prompt := buildPrompt(question, language, style)

	res, err := model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", err
	}

	if len(res.Candidates) == 0 || len(res.Candidates[0].Content.Parts) == 0 {
		return "", errors.New("no response from Gemini API")
	}

	response := res.Candidates[0].Content.Parts[0]
	text, ok := response.(genai.Text)
	if !ok {
		return "", errors.New("unexpected response format from Gemini API")
	}

	return string(text), nil
}

func buildPrompt(question, language, style string) string {
	if style == StyleLong {
		return fmt.Sprintf(`You are Katha, a warm storyteller who knows the epics, puranas and folk tales of Indian mythology.

Tell the story behind the question below as a flowing spoken narrative of roughly 300 words, the way a grandparent would tell it aloud. Do not use headings, lists or markdown. Answer entirely in %s.

Question: %s`, language, question)
	}

	return fmt.Sprintf(`You are Katha, a friendly guide to Indian mythology.

Answer the question below in 2-3 short sentences, in a natural spoken style. If the question is not about Indian mythology, gently steer the user back to the topic. Answer entirely in %s.

Question: %s`, language, question)
}

func (g *geminiClient) Close() {
	if g.client != nil {
		g.client.Close()
	}
}
