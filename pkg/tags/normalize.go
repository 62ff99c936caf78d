package tags

import (
	"strings"
	"unicode"
)

// Abbreviations kept fully uppercase in canonical company names,
// regardless of word position.
var upperWords = map[string]struct{}{
	"llc": {}, "llp": {}, "plc": {}, "gmbh": {},
	"usa": {}, "uk": {}, "us": {},
	"ibm": {}, "aws": {}, "hp": {}, "ge": {}, "3m": {},
	"nasa": {}, "mit": {}, "sap": {}, "at&t": {},
}

// Function words kept lowercase in canonical company names unless
// they open the name.
var lowerWords = map[string]struct{}{
	"a": {}, "an": {}, "the": {},
	"and": {}, "or": {}, "nor": {},
	"of": {}, "for": {}, "in": {}, "on": {}, "at": {}, "to": {}, "by": {},
}

// Canonical returns the canonical stored form of a tag name.
// Companies are title-cased with the abbreviation and function-word
// exception lists; keywords are only trimmed.
func Canonical(kind Kind, name string) string {
	if kind == KindCompany {
		return titleCase(name)
	}
	return strings.TrimSpace(name)
}

func titleCase(name string) string {
	words := strings.Fields(name)
	for i, w := range words {
		key := strings.ToLower(strings.Trim(w, ".,"))
		if _, ok := upperWords[key]; ok {
			words[i] = strings.ToUpper(w)
			continue
		}
		if _, ok := lowerWords[key]; ok && i > 0 {
			words[i] = strings.ToLower(w)
			continue
		}
		words[i] = capitalize(w)
	}
	return strings.Join(words, " ")
}

func capitalize(w string) string {
	r := []rune(strings.ToLower(w))
	if len(r) == 0 {
		return w
	}
	r[0] = unicode.ToUpper(r[0])
	return string(r)
}
