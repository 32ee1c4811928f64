package language

import (
	"fmt"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/language/display"
)

// xttsCodes maps ISO 639-1 codes to the codes XTTS v2 accepts. XTTS supports
// a fixed language set; anything outside it is a configuration error.
var xttsCodes = map[string]string{
	"en": "en",
	"es": "es",
	"fr": "fr",
	"de": "de",
	"it": "it",
	"pt": "pt",
	"pl": "pl",
	"tr": "tr",
	"ru": "ru",
	"nl": "nl",
	"cs": "cs",
	"ar": "ar",
	"zh": "zh-cn",
	"ja": "ja",
	"ko": "ko",
	"hu": "hu",
	"hi": "hi",
}

// Normalize parses any recognized language identifier (ISO 639-1/639-2 code,
// BCP 47 tag, or full name handled by the tag parser) and returns the
// canonical ISO 639-1 base code.
func Normalize(code string) (string, error) {
	trimmed := strings.TrimSpace(code)
	if trimmed == "" {
		return "", fmt.Errorf("language code is empty")
	}
	tag, err := language.Parse(trimmed)
	if err != nil {
		return "", fmt.Errorf("unrecognized language %q: %w", trimmed, err)
	}
	// The tag parser accepts any registered ISO 639-3 subtag, so a stray word
	// like "not" parses as a language. Downstream only speaks ISO 639-1, so a
	// base without a two-letter form is rejected here.
	base, conf := tag.Base()
	iso := base.String()
	if conf == language.No || len(iso) != 2 {
		return "", fmt.Errorf("language %q has no ISO 639-1 code", trimmed)
	}
	return iso, nil
}

// DisplayName returns the English display name for a normalized code,
// falling back to the code itself when unknown.
func DisplayName(code string) string {
	tag, err := language.Parse(strings.TrimSpace(code))
	if err != nil {
		return code
	}
	name := display.English.Tags().Name(tag)
	if name == "" {
		return code
	}
	return name
}

// XTTSCode returns the synthesis-engine language code for a normalized
// ISO 639-1 code. Unsupported languages are rejected.
func XTTSCode(iso string) (string, error) {
	normalized := strings.ToLower(strings.TrimSpace(iso))
	if code, ok := xttsCodes[normalized]; ok {
		return code, nil
	}
	return "", fmt.Errorf("language %q is not supported by the synthesis engine", iso)
}

// Supported reports whether the synthesis engine can produce the language.
func Supported(iso string) bool {
	_, err := XTTSCode(iso)
	return err == nil
}
