package i18n

import (
	"strings"

	"golang.org/x/text/language"
)

const (
	Japanese = "ja"
	English  = "en"

	Default = Japanese
)

var (
	supported = []language.Tag{language.Japanese, language.English}
	matcher   = language.NewMatcher(supported)
)

// Supported reports whether code is a locale the UI is translated into.
func Supported(code string) bool {
	code = strings.ToLower(strings.TrimSpace(code))
	return code == Japanese || code == English
}

// Negotiate picks the UI locale from an explicit preference (cookie) and
// the Accept-Language header, in that order.
func Negotiate(preferred, acceptLanguage string) string {
	if Supported(preferred) {
		return strings.ToLower(strings.TrimSpace(preferred))
	}
	if strings.TrimSpace(acceptLanguage) == "" {
		return Default
	}
	tags, _, err := language.ParseAcceptLanguage(acceptLanguage)
	if err != nil || len(tags) == 0 {
		return Default
	}
	_, index, confidence := matcher.Match(tags...)
	if confidence == language.No {
		return Default
	}
	base, _ := supported[index].Base()
	return base.String()
}

// T returns the message for key in locale, falling back to Japanese and then to the key itself.
func T(locale, key string) string {
	if msgs, ok := catalog[locale]; ok {
		if msg, ok := msgs[key]; ok {
			return msg
		}
	}
	if msg, ok := catalog[Default][key]; ok {
		return msg
	}
	return key
}
