package irc

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestUnescapeTagValue(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{name: "plain", input: "hello", want: "hello"},
		{name: "space", input: `hello\sworld`, want: "hello world"},
		{name: "semicolon", input: `a\:b`, want: "a;b"},
		{name: "backslash", input: `a\\b`, want: `a\b`},
		{name: "newline dropped", input: `a\nb`, want: "ab"},
		{name: "carriage return dropped", input: `a\rb`, want: "ab"},
		{name: "unknown escape kept", input: `a\xb`, want: `a\xb`},
		{name: "trailing backslash kept", input: `ab\`, want: `ab\`},
		{name: "escaped backslash before s", input: `\\s`, want: `\s`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, UnescapeTagValue(tt.input))
		})
	}
}

func TestEscapeTagValue(t *testing.T) {
	for _, s := range []string{"hello world", "a;b", `a\b`, "x y;z\\"} {
		assert.Equal(t, s, UnescapeTagValue(EscapeTagValue(s)), s)
	}
}

func TestNormalizeTags(t *testing.T) {
	raw := Tags{
		"mod":          String("1"),
		"subscriber":   String("0"),
		"emote-only":   Bool(true),
		"system-msg":   String(`5\sraiders\sfrom\sFoo`),
		"bits":         String("100"),
		"ban-duration": String("600"),
		"emote-sets":   String("0,33,50"),
		"badges":       Complex(map[string][]string{"moderator": {"1"}}),
	}

	got := NormalizeTags(raw)

	assert.Equal(t, Bool(true), got["mod"])
	assert.Equal(t, Bool(false), got["subscriber"])
	assert.Equal(t, Absent(), got["emote-only"])
	assert.True(t, got.Has("emote-only"))
	assert.Equal(t, "5 raiders from Foo", got.Text("system-msg"))
	assert.Equal(t, "100", got.Text("bits"))
	assert.Equal(t, 600, got.Int("ban-duration"))
	assert.Equal(t, "0,33,50", got.Text("emote-sets"))
	assert.Equal(t, map[string][]string{"moderator": {"1"}}, got.Complex("badges"))

	// input is left untouched
	assert.Equal(t, String("1"), raw["mod"])
}

func TestTagValue_Int(t *testing.T) {
	tests := []struct {
		name string
		v    TagValue
		want int
	}{
		{name: "numeric", v: String("30"), want: 30},
		{name: "negative", v: String("-1"), want: -1},
		{name: "fraction", v: String("1.9"), want: 1},
		{name: "text", v: String("abc"), want: 0},
		{name: "true", v: Bool(true), want: 1},
		{name: "false", v: Bool(false), want: 0},
		{name: "absent", v: Absent(), want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.v.Int())
		})
	}
}

func TestParseComplexTag(t *testing.T) {
	assert.Empty(t, ParseComplexTag("", ",", "/", ""))
	assert.Equal(t, map[string][]string{"vip": nil}, ParseComplexTag("vip", ",", "/", ""))
	assert.Equal(t,
		map[string][]string{"301": {"0-3", "5-8"}},
		ParseComplexTag("301:0-3,5-8", "/", ":", ","),
	)
}
