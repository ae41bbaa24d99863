package music

import (
	"strings"
	"unicode"

	"golang.org/x/text/language"
)

// Provider names used by the router and the job records.
const (
	NameReplicate = "replicate"
	NameFal       = "fal"
)

// southAsianNames covers the plain-word language values clients send.
var southAsianNames = map[string]struct{}{
	"hindi":    {},
	"urdu":     {},
	"punjabi":  {},
	"tamil":    {},
	"telugu":   {},
	"bengali":  {},
	"bhojpuri": {},
}

// southAsianTags lets BCP 47 values ("hi", "pa-IN") route the same way.
var southAsianTags = []language.Tag{
	language.Hindi,
	language.Urdu,
	language.Punjabi,
	language.Tamil,
	language.Telugu,
	language.Bengali,
	language.Make("bho"),
}

var southAsianMatcher = language.NewMatcher(append([]language.Tag{language.Und}, southAsianTags...))

// southAsianScripts are the unicode ranges whose presence in lyric content
// overrides whatever language the request declared.
var southAsianScripts = []*unicode.RangeTable{
	unicode.Devanagari,
	unicode.Bengali,
	unicode.Gurmukhi,
	unicode.Gujarati,
	unicode.Oriya,
	unicode.Tamil,
	unicode.Telugu,
	unicode.Kannada,
	unicode.Malayalam,
	unicode.Arabic,
}

// Router picks the provider for a job. The decision is a pure function of
// the declared language and the resolved lyric content, so retries of the
// same job always land on the same provider.
type Router struct {
	Replicate Provider
	Fal       Provider
}

// Pick returns the provider for the given language and content. South Asian
// script anywhere in the content wins over the declared language; otherwise a
// declared South Asian language routes to fal and everything else to
// replicate.
func (r *Router) Pick(declaredLanguage, content string) Provider {
	if containsSouthAsianScript(content) || isSouthAsianLanguage(declaredLanguage) {
		return r.Fal
	}
	return r.Replicate
}

func isSouthAsianLanguage(declared string) bool {
	declared = strings.ToLower(strings.TrimSpace(declared))
	if declared == "" {
		return false
	}
	if _, ok := southAsianNames[declared]; ok {
		return true
	}
	tag, err := language.Parse(declared)
	if err != nil {
		return false
	}
	_, idx, conf := southAsianMatcher.Match(tag)
	return idx > 0 && conf >= language.High
}

func containsSouthAsianScript(content string) bool {
	for _, r := range content {
		for _, table := range southAsianScripts {
			if unicode.Is(table, r) {
				return true
			}
		}
	}
	return false
}
