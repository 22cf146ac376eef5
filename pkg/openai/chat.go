package openai

import (
	"context"
	"fmt"
	"os"

	"github.com/sashabaranov/go-openai"
)

const (
	StyleShort = "short"
	StyleLong  = "long"
)

type IChatGPT interface {
	GenerateAnswer(ctx context.Context, question, language, style string, maxTokens int, temperature float32) (string, error)
}

type chatGPTService struct {
	client *openai.Client
	model  string
}

func NewChatGPT() IChatGPT {
	apiKey := os.Getenv("OPENAI_API_KEY")
	model := os.Getenv("OPENAI_CHAT_MODEL")

	if model == "" {
		model = openai.GPT4oMini
	}

	return &chatGPTService{
		client: openai.NewClient(apiKey),
		model:  model,
	}
}

func (c *chatGPTService) GenerateAnswer(
	ctx context.Context,
	question, language, style string,
	maxTokens int,
	temperature float32,
) (string, error) {
	systemPrompt := fmt.Sprintf(`You are Katha, a friendly guide to Indian mythology.

Rules:
- Answer entirely in %s
- Keep the answer to 2-3 short sentences in a natural spoken style
- If the question is not about Indian mythology, gently steer the user back to the topic

Example:
User: "Who is Hanuman?"
Assistant: "Hanuman is the mighty monkey god, son of the wind god Vayu and Ram's most devoted companion. He leapt across the ocean to Lanka to find Sita, and his courage is celebrated in the Ramayana."`, language)

	if style == StyleLong {
		systemPrompt = fmt.Sprintf(`You are Katha, a warm storyteller who knows the epics, puranas and folk tales of Indian mythology.

Rules:
- Answer entirely in %s
- Tell the story behind the question as a flowing spoken narrative of roughly 300 words, the way a grandparent would tell it aloud
- No headings, lists or markdown, the text will be read out as audio`, language)
	}

	resp, err := c.client.CreateChatCompletion(
		ctx,
		openai.ChatCompletionRequest{
			Model: c.model,
			Messages: []openai.ChatCompletionMessage{
				{
					Role:    openai.ChatMessageRoleSystem,
					Content: systemPrompt,
				},
				{
					Role:    openai.ChatMessageRoleUser,
					Content: question,
				},
			},
			Temperature: temperature,
			MaxTokens:   maxTokens,
		},
	)

	if err != nil {
		return "", fmt.Errorf("ChatGPT API error: %w", err)
	}

	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("no response from ChatGPT")
	}

	return resp.Choices[0].Message.Content, nil
}
