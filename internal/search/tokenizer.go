package search

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"
)

// Normalize applies NFKC compatibility folding and upper-cases the result, so
// full-width letters, half-width katakana and case differences compare equal.
func Normalize(s string) string {
	return strings.ToUpper(norm.NFKC.String(strings.TrimSpace(s)))
}

// Token is one search term taken from a question.
type Token struct {
	Text  string
	ASCII bool
}

// Tokenize splits a normalized question into search terms, in order of
// appearance and without duplicates.
//
// ASCII pieces are kept when they are at least two bytes long. Non-ASCII
// pieces are kept whole and are additionally cut at hiragana runs, which act
// as particles between content words ("モーターの異音" -> "モーター", "異音").
func Tokenize(normalized string) []Token {
	var tokens []Token
	seen := make(map[string]struct{})
	add := func(text string) {
		if utf8.RuneCountInString(text) < 2 {
			return
		}
		if _, ok := seen[text]; ok {
			return
		}
		seen[text] = struct{}{}
		tokens = append(tokens, Token{Text: text, ASCII: isASCII(text)})
	}

	for _, piece := range strings.FieldsFunc(normalized, isSeparator) {
		if isASCII(piece) {
			add(piece)
			continue
		}
		add(piece)
		for _, chunk := range strings.FieldsFunc(piece, isHiragana) {
			if chunk != piece {
				add(chunk)
			}
		}
	}
	return tokens
}

func isSeparator(r rune) bool {
	return unicode.IsSpace(r) || unicode.IsPunct(r) || unicode.IsSymbol(r)
}

func isHiragana(r rune) bool {
	return unicode.Is(unicode.Hiragana, r)
}

func isASCII(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] >= utf8.RuneSelf {
			return false
		}
	}
	return true
}
