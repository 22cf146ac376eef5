package entity

import "time"

// Language is one of the reply languages the bot can answer in.
type Language struct {
	Code string `json:"code" db:"language_code"`
	Name string `json:"name"`
}

// SupportedLanguages is the fixed enumeration backing the selection menu.
// Menu indices are 1-based and follow declaration order, so the order here
// must not change between releases.
var SupportedLanguages = []Language{
	{Code: "en", Name: "English"},
	{Code: "hi", Name: "Hindi"},
	{Code: "ta", Name: "Tamil"},
	{Code: "te", Name: "Telugu"},
	{Code: "kn", Name: "Kannada"},
	{Code: "ml", Name: "Malayalam"},
	{Code: "bn", Name: "Bengali"},
}

func LanguageByCode(code string) (Language, bool) {
	for _, lang := range SupportedLanguages {
		if lang.Code == code {
			return lang, true
		}
	}
	return Language{}, false
}

// LanguagePreference is the single piece of per-sender state the bot keeps.
type LanguagePreference struct {
	Sender    string    `json:"sender" db:"sender"`
	Language  Language  `json:"language"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}
