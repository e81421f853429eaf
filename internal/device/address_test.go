package device

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		class   string
		address string
		length  int
		spec    string
	}{
		{"internal relay", "M10", "M", "10", 1, "M10"},
		{"data register with length", "D100:5", "D", "100", 5, "D100:5"},
		{"timer alias lower case", "t3", "TS", "3", 1, "TS3"},
		{"explicit timer class", "ts12", "TS", "12", 1, "TS12"},
		{"empty input", "", "D", "0", 1, "D0"},
		{"whitespace only", "   ", "D", "0", 1, "D0"},
		{"two letter class", "zr2000", "ZR", "2000", 1, "ZR2000"},
		{"class without address", "Y", "Y", "0", 1, "Y0"},
		{"length only", ":4", "D", "0", 4, "D0:4"},
		{"zero length collapses", "D10:0", "D", "10", 1, "D10"},
		{"negative length collapses", "D10:-3", "D", "10", 1, "D10"},
		{"garbage length collapses", "W1F:abc", "W", "1F", 1, "W1F"},
		{"unknown single letter", "k7", "K", "7", 1, "K7"},
		{"surrounding whitespace", "  x20 : 2 ", "X", "20", 2, "X20:2"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Parse(tt.input)
			assert.Equal(t, tt.class, got.Class)
			assert.Equal(t, tt.address, got.Address)
			assert.Equal(t, tt.length, got.Length)
			assert.Equal(t, tt.spec, got.ToSpec())
		})
	}
}

func TestParseRoundTrip(t *testing.T) {
	inputs := []string{
		"M10", "D100:5", "t3", "", "ZR10:2", "b0", "L1FF", "x", ":7", "D10:0", "?", "Q12:3", "ts0:1",
	}
	for _, in := range inputs {
		a := Parse(in)
		if got := Parse(a.ToSpec()); got != a {
			t.Errorf("round trip of %q: %+v -> %q -> %+v", in, a, a.ToSpec(), got)
		}
	}
}

func TestAddressDisplay(t *testing.T) {
	a := Parse("d100:3")
	assert.Equal(t, "D100", a.Display())
	assert.Equal(t, "D100:3", a.String())
	assert.True(t, IsWordClass("w"))
	assert.False(t, IsWordClass("M"))
}

func TestMentions(t *testing.T) {
	assert.Equal(t, []string{"M10", "D100", "M10"}, Mentions("what does m10 do, and D100? also M10"))
	assert.Equal(t, []string{"M10", "D100"}, UniqueMentions("what does m10 do, and D100? also M10"))
	assert.Equal(t, []string{"Y20"}, Mentions("Y20がOFFの理由"))
	assert.Empty(t, Mentions("no devices here"))
}

func TestKey(t *testing.T) {
	assert.Equal(t, "TS3", Key("ts", "3"))
	assert.Equal(t, "D100", Key(" d ", " 100 "))
}
