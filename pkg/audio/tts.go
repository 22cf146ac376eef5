package audio

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
)

type TTSService struct {
	apiKey  string
	voiceID string
	modelID string
	client  *http.Client
}

func NewTTSService() *TTSService {
	modelID := os.Getenv("ELEVENLABS_MODEL_ID")
	if modelID == "" {
		modelID = "eleven_multilingual_v2"
	}

	return &TTSService{
		apiKey:  os.Getenv("ELEVENLABS_API_KEY"),
		voiceID: os.Getenv("ELEVENLABS_VOICE_ID"),
		modelID: modelID,
		client:  &http.Client{},
	}
}

// GenerateAudio synthesizes text into MP3 bytes. The multilingual model
// infers the spoken language from the text itself; languageCode is passed
// through for models that accept an explicit hint.
func (tts *TTSService) GenerateAudio(ctx context.Context, text, languageCode string) ([]byte, error) {
	url := "https://api.elevenlabs.io/v1/text-to-speech/" + tts.voiceID

	requestBody := map[string]interface{}{
		"text":     text,
		"model_id": tts.modelID,
		"voice_settings": map[string]interface{}{
			"stability":         0.5,
			"similarity_boost":  0.8,
			"style":             0.0,
			"use_speaker_boost": true,
		},
	}
	if languageCode != "" && tts.modelID != "eleven_multilingual_v2" {
		requestBody["language_code"] = languageCode
	}

	jsonData, err := json.Marshal(requestBody)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, err
	}

	req.Header.Set("Accept", "audio/mpeg")
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("xi-api-key", tts.apiKey)

	resp, err := tts.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("ElevenLabs API error: %s", resp.Status)
	}

	return io.ReadAll(resp.Body)
}
