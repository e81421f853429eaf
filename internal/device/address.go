// Package device implements the PLC device-address grammar.
//
//	spec  := class address (":" length)?
//	class := "ZR" | "TS" | "D" | "W" | "R" | "X" | "Y" | "M" | "L" | "B" | <any single letter>
//
// Parsing never fails. Garbled input resolves to D0 so that addresses coming
// from a conversational surface always produce something readable.
package device

import (
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"
)

const (
	DefaultClass   = "D"
	DefaultAddress = "0"
	TimerClass     = "TS"
)

// knownClasses is ordered by match priority; two-letter classes come first.
var knownClasses = []string{"ZR", "TS", "D", "W", "R", "X", "Y", "M", "L", "B"}

// Address is an immutable device reference such as M10 or D100:5.
type Address struct {
	Class   string `json:"device"`
	Address string `json:"address"`
	Length  int    `json:"length"`
}

// Parse reads a device spec. It never fails: empty or unparsable input
// yields D0 with length 1.
func Parse(spec string) Address {
	text := strings.TrimSpace(spec)
	if text == "" {
		return Address{Class: DefaultClass, Address: DefaultAddress, Length: 1}
	}

	length := 1
	if idx := strings.Index(text, ":"); idx >= 0 {
		if n, err := strconv.Atoi(strings.TrimSpace(text[idx+1:])); err == nil && n > 0 {
			length = n
		}
		text = strings.TrimSpace(text[:idx])
	}
	if text == "" {
		return Address{Class: DefaultClass, Address: DefaultAddress, Length: length}
	}

	class, rest := splitClass(text)
	if class == "T" {
		class = TimerClass
	}
	if rest == "" {
		rest = DefaultAddress
	}
	return Address{Class: class, Address: rest, Length: length}
}

func splitClass(text string) (string, string) {
	for _, c := range knownClasses {
		if len(text) >= len(c) && strings.EqualFold(text[:len(c)], c) {
			return c, strings.TrimSpace(text[len(c):])
		}
	}
	r, size := utf8.DecodeRuneInString(text)
	return string(unicode.ToUpper(r)), strings.TrimSpace(text[size:])
}

// Display is the class followed by the address, e.g. "M10".
func (a Address) Display() string {
	return a.Class + a.Address
}

// ToSpec is the wire form consumed by the gateway. Parse(a.ToSpec()) == a.
func (a Address) ToSpec() string {
	if a.Length > 1 {
		return a.Display() + ":" + strconv.Itoa(a.Length)
	}
	return a.Display()
}

func (a Address) String() string {
	return a.ToSpec()
}

// IsWordClass reports whether class is a word register class (D or W).
func IsWordClass(class string) bool {
	switch strings.ToUpper(class) {
	case "D", "W":
		return true
	}
	return false
}
