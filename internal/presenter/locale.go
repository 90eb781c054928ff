package presenter

import (
	"golang.org/x/text/language"
)

// Supported lists the locales numbers can be formatted for. Texts stay
// English; only separators change.
var Supported = []language.Tag{ //nolint:gochecknoglobals // fixed locale table
	language.English,
	language.German,
	language.French,
	language.Italian,
	language.Spanish,
	language.Portuguese,
}

var matcher = language.NewMatcher(Supported) //nolint:gochecknoglobals // built once from Supported

// Negotiate picks the best supported locale for an Accept-Language header or
// a --lang value, falling back when nothing matches.
func Negotiate(accept string, fallback language.Tag) language.Tag {
	if accept == "" {
		return fallback
	}
	tags, _, err := language.ParseAcceptLanguage(accept)
	if err != nil || len(tags) == 0 {
		return fallback
	}
	_, idx, conf := matcher.Match(tags...)
	if conf == language.No {
		return fallback
	}
	return Supported[idx]
}
