// Package stageworker implements the six concrete stage workers (C6),
// each delegating its unit of work to a fixed external HTTP endpoint and
// applying the read-POST-write-delete unit pattern common to all of them.
package stageworker

import (
	"fmt"

	"github.com/OmarEhab007/dhscanner-orchestrator/internal/domain"
)

// Endpoints holds the fixed downstream microservice URLs every stage
// worker delegates to. All fields have sane defaults (DefaultEndpoints)
// but are overridable for testing against a local httptest server.
type Endpoints struct {
	// NativeParseByLanguage maps a source language to its native-AST
	// front-end URL.
	NativeParseByLanguage map[domain.Language]string
	// BladePreflightURL is hit once, before the main PHP endpoint, for
	// .blade.php templates that need Blade-to-PHP preprocessing first.
	BladePreflightURL string
	// DhscannerParseURLFmt is a fmt.Sprintf template taking the language
	// slug, e.g. "http://parsers:3000/from/%s/to/dhscanner/ast".
	DhscannerParseURLFmt string
	CodegenURL            string
	KbgenURL              string
	QueryengineURL        string
}

// DefaultEndpoints returns the fixed production URLs.
func DefaultEndpoints() Endpoints {
	return Endpoints{
		NativeParseByLanguage: map[domain.Language]string{
			domain.LanguageJS:       "http://frontjs:3000/to/esprima/js/ast",
			domain.LanguageTS:       "http://frontts:3000/to/native/ts/ast",
			domain.LanguageTSX:      "http://frontts:3000/to/native/ts/ast",
			domain.LanguagePHP:      "http://frontphp:5000/to/php/ast",
			domain.LanguageBladePHP: "http://frontphp:5000/to/php/ast",
			domain.LanguagePY:       "http://frontpy:5000/to/native/py/ast",
			domain.LanguageRB:       "http://frontrb:3000/to/native/cruby/ast",
			domain.LanguageCS:       "http://frontcs:8080/to/native/cs/ast",
			domain.LanguageGo:       "http://frontgo:8080/to/native/go/ast",
		},
		BladePreflightURL:     "http://frontphp:5000/to/php/code",
		DhscannerParseURLFmt:  "http://parsers:3000/from/%s/to/dhscanner/ast",
		CodegenURL:            "http://codegen:3000/codegen",
		KbgenURL:              "http://kbgen:3000/kbgen",
		QueryengineURL:        "http://queryengine:5000/check",
	}
}

// DhscannerParseURL builds the normalizer URL for a given language.
func (e Endpoints) DhscannerParseURL(lang domain.Language) string {
	return fmt.Sprintf(e.DhscannerParseURLFmt, lang)
}
