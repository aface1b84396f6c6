// Package country derives countries from domain TLDs and normalizes
// country names to ISO 3166-1 alpha-2 codes for API query parameters.
package country

import "strings"

// tldToCountry maps a domain's TLD to a display country name. Two-part
// TLDs (co.uk) take precedence over the final label.
var tldToCountry = map[string]string{
	"pk":    "Pakistan",
	"us":    "United States",
	"com":   "United States",
	"uk":    "United Kingdom",
	"co.uk": "United Kingdom",
	"de":    "Germany",
	"fr":    "France",
	"jp":    "Japan",
	"ca":    "Canada",
	"au":    "Australia",
	"nl":    "Netherlands",
	"in":    "India",
	"cn":    "China",
	"br":    "Brazil",
	"kr":    "South Korea",
	"sg":    "Singapore",
	"ie":    "Ireland",
	"se":    "Sweden",
	"ch":    "Switzerland",
	"it":    "Italy",
	"es":    "Spain",
	"ru":    "Russia",
	"mx":    "Mexico",
	"za":    "South Africa",
	"nz":    "New Zealand",
	"org":   "International",
	"net":   "International",
	"io":    "International",
	"dev":   "International",
}

// nameToCode normalizes display country names to alpha-2 codes. The two
// synthetic buckets ("International", "Unknown") have no code and are
// passed through unchanged by Code.
var nameToCode = map[string]string{
	"pakistan":       "PK",
	"united states":  "US",
	"united kingdom": "GB",
	"germany":        "DE",
	"france":         "FR",
	"japan":          "JP",
	"canada":         "CA",
	"australia":      "AU",
	"netherlands":    "NL",
	"india":          "IN",
	"china":          "CN",
	"brazil":         "BR",
	"south korea":    "KR",
	"singapore":      "SG",
	"ireland":        "IE",
	"sweden":         "SE",
	"switzerland":    "CH",
	"italy":          "IT",
	"spain":          "ES",
	"russia":         "RU",
	"mexico":         "MX",
	"south africa":   "ZA",
	"new zealand":    "NZ",
}

// ForDomain derives the country of a domain from its TLD. Unknown or
// empty domains map to "Unknown".
func ForDomain(domain string) string {
	if domain == "" {
		return "Unknown"
	}
	parts := strings.Split(strings.ToLower(domain), ".")
	if len(parts) < 2 {
		return "Unknown"
	}
	if c, ok := tldToCountry[strings.Join(parts[len(parts)-2:], ".")]; ok {
		return c
	}
	if c, ok := tldToCountry[parts[len(parts)-1]]; ok {
		return c
	}
	return "Unknown"
}

// ForTLD derives the country for a bare TLD label.
func ForTLD(tld string) string {
	if c, ok := tldToCountry[strings.ToLower(tld)]; ok {
		return c
	}
	return "Unknown"
}

// Code normalizes a country name to its alpha-2 code. Names without a
// code (and strings that already look like codes) are returned as given.
func Code(name string) string {
	if c, ok := nameToCode[strings.ToLower(strings.TrimSpace(name))]; ok {
		return c
	}
	return name
}

// TLDs returns every TLD mapped to the given country name. Used to turn
// a country filter into a domain-suffix query.
func TLDs(name string) []string {
	var tlds []string
	for tld, c := range tldToCountry {
		if strings.EqualFold(c, name) {
			tlds = append(tlds, tld)
		}
	}
	return tlds
}
