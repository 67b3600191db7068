package lookup

import "strings"

// DefaultCountry is used when a guest's country has no language mapping.
const DefaultCountry = "GB"

// countryLanguage maps ISO 3166-1 alpha-2 country codes to the language
// guests from that country are addressed in.
var countryLanguage = map[string]string{
	"AD": "ca",
	"AR": "es",
	"AT": "de",
	"AU": "en",
	"BE": "nl",
	"BR": "pt",
	"CA": "en",
	"CH": "de",
	"CL": "es",
	"CN": "zh",
	"CO": "es",
	"CZ": "cs",
	"DE": "de",
	"DK": "da",
	"ES": "es",
	"FI": "fi",
	"FR": "fr",
	"GB": "en",
	"GR": "el",
	"HR": "hr",
	"HU": "hu",
	"IE": "en",
	"IT": "it",
	"JP": "ja",
	"KR": "ko",
	"LU": "fr",
	"MK": "mk",
	"MX": "es",
	"NL": "nl",
	"NO": "no",
	"NZ": "en",
	"PL": "pl",
	"PT": "pt",
	"RO": "ro",
	"RS": "sr",
	"RU": "ru",
	"SE": "sv",
	"SI": "sl",
	"TR": "tr",
	"UA": "uk",
	"US": "en",
}

// LanguageFor never fails: unknown or empty countries degrade to the
// DefaultCountry language.
func LanguageFor(country string) string {
	if lang, ok := countryLanguage[strings.ToUpper(strings.TrimSpace(country))]; ok {
		return lang
	}
	return countryLanguage[DefaultCountry]
}
