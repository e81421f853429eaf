package device

import (
	"regexp"
	"strings"
)

// mentionRegex matches explicit device references in free text ("M10", "d100", "TS3").
var mentionRegex = regexp.MustCompile(`(?i)\b(?:ZR|TS|[BCDLMRTWXY])[0-9]+\b`)

// Mentions returns every explicit device reference in text, upper-cased,
// in order of appearance. Duplicates are kept.
func Mentions(text string) []string {
	found := mentionRegex.FindAllString(text, -1)
	for i, m := range found {
		found[i] = strings.ToUpper(m)
	}
	return found
}

// UniqueMentions is Mentions with duplicates removed, keeping first appearance.
func UniqueMentions(text string) []string {
	all := Mentions(text)
	seen := make(map[string]struct{}, len(all))
	out := make([]string, 0, len(all))
	for _, m := range all {
		if _, ok := seen[m]; ok {
			continue
		}
		seen[m] = struct{}{}
		out = append(out, m)
	}
	return out
}

// Key builds the store key for a class/address pair.
func Key(class, address string) string {
	return strings.ToUpper(strings.TrimSpace(class)) + strings.TrimSpace(address)
}
