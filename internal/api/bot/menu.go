package bot

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/kathalabs/katha-bot/internal/entity"
)

// RenderMenu lists the supported languages as "<index>. <name>" lines,
// 1-based, in enumeration order. The output is byte-identical across calls.
func RenderMenu() string {
	var b strings.Builder
	b.WriteString("Namaste! I can tell you stories from Indian mythology.\n")
	b.WriteString("Please choose your language by replying with a number:\n\n")
	for i, lang := range entity.SupportedLanguages {
		b.WriteString(fmt.Sprintf("%d. %s\n", i+1, lang.Name))
	}
	return strings.TrimRight(b.String(), "\n")
}

// HelpText is the menu plus the reserved command vocabulary.
func HelpText() string {
	var b strings.Builder
	b.WriteString(RenderMenu())
	b.WriteString("\n\nOnce your language is set, just ask me anything, for example \"Tell me about Hanuman\".\n")
	b.WriteString("Send \"reset\" or \"change language\" to pick a language again, or \"help\" to see this message.")
	return b.String()
}

// ResolveSelection parses raw as a base-10 menu index. It returns false for
// anything that is not an in-range integer; that is not an error, the caller
// falls back to showing the menu.
func ResolveSelection(raw string) (entity.Language, bool) {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return entity.Language{}, false
	}
	if n < 1 || n > len(entity.SupportedLanguages) {
		return entity.Language{}, false
	}
	return entity.SupportedLanguages[n-1], true
}

func ListLanguages() []LanguageInfo {
	infos := make([]LanguageInfo, 0, len(entity.SupportedLanguages))
	for i, lang := range entity.SupportedLanguages {
		infos = append(infos, LanguageInfo{Index: i + 1, Code: lang.Code, Name: lang.Name})
	}
	return infos
}
