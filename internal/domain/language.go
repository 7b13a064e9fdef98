package domain

import (
	"path/filepath"
	"strings"
)

// Language identifies the source language of an uploaded file. The set is
// fixed and mirrors the languages the native-parse and dhscanner-parse
// stages know how to dispatch to.
type Language string

const (
	LanguageJS       Language = "js"
	LanguageTS       Language = "ts"
	LanguageTSX      Language = "tsx"
	LanguagePHP      Language = "php"
	LanguagePY       Language = "py"
	LanguageRB       Language = "rb"
	LanguageCS       Language = "cs"
	LanguageGo       Language = "go"
	LanguageBladePHP Language = "blade.php"
	LanguageAll      Language = "ALL"
	LanguageUnknown  Language = "UNKNOWN"
)

// knownLanguages backs LanguageFromRaw's validity check.
var knownLanguages = map[Language]struct{}{
	LanguageJS: {}, LanguageTS: {}, LanguageTSX: {}, LanguagePHP: {},
	LanguagePY: {}, LanguageRB: {}, LanguageCS: {}, LanguageGo: {},
	LanguageBladePHP: {}, LanguageAll: {}, LanguageUnknown: {},
}

// LanguageFromRaw parses a raw string into a Language, returning ok=false if
// the value is not one of the known languages.
func LanguageFromRaw(raw string) (Language, bool) {
	lang := Language(raw)
	_, ok := knownLanguages[lang]
	return lang, ok
}

// LanguageFromFilename infers a Language from a filename's suffix chain.
// Multi-suffix names such as "views/home.blade.php" resolve to blade.php
// rather than just php, matching the original suffix-join behavior.
func LanguageFromFilename(filename string) (Language, bool) {
	base := filepath.Base(filename)
	idx := strings.Index(base, ".")
	if idx < 0 {
		return "", false
	}
	ext := base[idx+1:]
	if ext == "" {
		return "", false
	}
	return LanguageFromRaw(ext)
}
