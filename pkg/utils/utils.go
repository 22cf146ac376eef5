package utils

import (
	"crypto/rand"
	"fmt"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
)

type IUtils interface {
	NewULIDFromTimestamp(t time.Time) (string, error)
	NewAudioObjectName(languageCode string) (string, error)
	NormalizeSender(sender string) string
}

type utils struct{}

func New() IUtils {
	return &utils{}
}

func (u *utils) NewULIDFromTimestamp(t time.Time) (string, error) {
	ms := ulid.Timestamp(t)
	entropy := ulid.Monotonic(rand.Reader, 0)

	id, err := ulid.New(ms, entropy)
	if err != nil {
		return "", err
	}

	return id.String(), nil
}

// NewAudioObjectName builds a collision-free storage key for a synthesized
// answer, e.g. "audio/ta/01J8....mp3".
func (u *utils) NewAudioObjectName(languageCode string) (string, error) {
	id, err := u.NewULIDFromTimestamp(time.Now())
	if err != nil {
		return "", err
	}
	if languageCode == "" {
		languageCode = "xx"
	}
	return fmt.Sprintf("audio/%s/%s.mp3", languageCode, id), nil
}

// NormalizeSender strips a transport channel prefix such as "whatsapp:" so
// the same person maps to the same preference key across variants.
func (u *utils) NormalizeSender(sender string) string {
	sender = strings.TrimSpace(sender)
	if idx := strings.IndexByte(sender, ':'); idx >= 0 {
		return sender[idx+1:]
	}
	return sender
}
