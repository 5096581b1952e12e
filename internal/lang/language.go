// Package lang parses and names output languages using BCP 47 tags.
package lang

import (
	"fmt"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/language/display"
)

// Language is a validated output language.
// The zero value means "not specified": keep the language of the input.
type Language struct {
	tag language.Tag
	set bool
}

var _ fmt.Stringer = Language{}

// Parse validates a BCP 47 code such as "en", "fr", "pt-BR" or "zh_Hant".
// An empty string returns the zero Language.
func Parse(s string) (Language, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Language{}, nil
	}
	tag, err := language.Parse(strings.ReplaceAll(s, "_", "-"))
	if err != nil || tag == language.Und {
		return Language{}, fmt.Errorf("invalid language code %q (use codes like 'en', 'fr', 'pt-BR'): %w",
			s, ErrInvalid)
	}
	return Language{tag: tag, set: true}, nil
}

// MustParse parses a language code, panicking if invalid.
// Use only for constants and tests.
func MustParse(s string) Language {
	l, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return l
}

// String returns the canonical BCP 47 code, or "" for the zero value.
func (l Language) String() string {
	if !l.set {
		return ""
	}
	return l.tag.String()
}

// IsZero reports whether no language is set.
func (l Language) IsZero() bool {
	return !l.set
}

// Base returns the ISO 639 base code ("pt" for "pt-BR").
func (l Language) Base() string {
	if !l.set {
		return ""
	}
	b, _ := l.tag.Base()
	return b.String()
}

// DisplayName returns the English name of l, such as "Brazilian Portuguese".
// It falls back to the code when x/text has no name for it.
func (l Language) DisplayName() string {
	if !l.set {
		return ""
	}
	if name := display.English.Tags().Name(l.tag); name != "" {
		return name
	}
	return l.tag.String()
}
