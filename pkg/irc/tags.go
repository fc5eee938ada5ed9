package irc

import (
	"fmt"
	"strconv"
	"strings"
)

type TagKind uint8

const (
	TagAbsent TagKind = iota
	TagBool
	TagString
	TagComplex
)

// TagValue is a typed tag value. Complex values map a sub-id (badge name,
// emote id) to its ordered values.
type TagValue struct {
	Kind    TagKind
	Bool    bool
	Str     string
	Complex map[string][]string
}

func Absent() TagValue         { return TagValue{Kind: TagAbsent} }
func Bool(b bool) TagValue     { return TagValue{Kind: TagBool, Bool: b} }
func String(s string) TagValue { return TagValue{Kind: TagString, Str: s} }

func Complex(m map[string][]string) TagValue {
	return TagValue{Kind: TagComplex, Complex: m}
}

// Int converts the value the way the chat server's numeric tags are read:
// a numeric string yields its value, true yields 1, anything else 0.
func (v TagValue) Int() int {
	switch v.Kind {
	case TagString:
		n, err := strconv.Atoi(strings.TrimSpace(v.Str))
		if err != nil {
			f, ferr := strconv.ParseFloat(strings.TrimSpace(v.Str), 64)
			if ferr != nil {
				return 0
			}
			return int(f)
		}
		return n
	case TagBool:
		if v.Bool {
			return 1
		}
	}
	return 0
}

func (v TagValue) String() string {
	switch v.Kind {
	case TagBool:
		return strconv.FormatBool(v.Bool)
	case TagString:
		return v.Str
	case TagComplex:
		return fmt.Sprint(v.Complex)
	}
	return ""
}

// Tags is the tag map of a message.
type Tags map[string]TagValue

func (t Tags) Has(key string) bool {
	_, ok := t[key]
	return ok
}

func (t Tags) Get(key string) (TagValue, bool) {
	v, ok := t[key]
	return v, ok
}

// Text returns the string value of key, or "" when the tag is not a string.
func (t Tags) Text(key string) string {
	v, ok := t[key]
	if !ok || v.Kind != TagString {
		return ""
	}
	return v.Str
}

func (t Tags) Bool(key string) bool {
	v, ok := t[key]
	return ok && v.Kind == TagBool && v.Bool
}

func (t Tags) Int(key string) int {
	return t[key].Int()
}

func (t Tags) Complex(key string) map[string][]string {
	v, ok := t[key]
	if !ok || v.Kind != TagComplex {
		return nil
	}
	return v.Complex
}

// Clone returns a shallow copy of the map. Complex values are shared.
func (t Tags) Clone() Tags {
	out := make(Tags, len(t))
	for k, v := range t {
		out[k] = v
	}
	return out
}

// complexTags lists the tags decoded into sub-id maps, with their
// entry, key/value and value-list separators.
var complexTags = []struct {
	key        string
	splA, splB string
	splC       string
}{
	{key: "badges", splA: ",", splB: "/"},
	{key: "badge-info", splA: ",", splB: "/"},
	{key: "emotes", splA: "/", splB: ":", splC: ","},
}

func parseTags(raw string) Tags {
	tags := Tags{}

	for _, entry := range strings.Split(raw, ";") {
		if entry == "" {
			continue
		}

		key, value, ok := strings.Cut(entry, "=")
		if !ok {
			tags[key] = Bool(true)
			continue
		}
		tags[key] = String(value)
	}

	for _, ct := range complexTags {
		v, ok := tags[ct.key]
		if !ok || v.Kind != TagString {
			continue
		}

		tags[ct.key+"-raw"] = v
		tags[ct.key] = Complex(ParseComplexTag(v.Str, ct.splA, ct.splB, ct.splC))
	}

	return tags
}

// ParseComplexTag decodes "k/v,k/v" style values. With a non-empty splC each
// value is further split into a list ("25:0-4,6-10" -> 25: [0-4 6-10]).
func ParseComplexTag(raw, splA, splB, splC string) map[string][]string {
	out := make(map[string][]string)
	if raw == "" {
		return out
	}

	for _, part := range strings.Split(raw, splA) {
		key, val, _ := strings.Cut(part, splB)
		if val == "" {
			out[key] = nil
			continue
		}

		if splC != "" {
			out[key] = strings.Split(val, splC)
		} else {
			out[key] = []string{val}
		}
	}

	return out
}

// noNormalize are tags whose raw text is meaningful as is.
var noNormalize = map[string]struct{}{
	"emote-sets":   {},
	"ban-duration": {},
	"bits":         {},
}

// NormalizeTags returns a new map with "1"/"0" turned into booleans, bare
// keys turned into absent markers and every other string unescaped.
// It must be applied to raw parser output exactly once.
func NormalizeTags(tags Tags) Tags {
	out := make(Tags, len(tags))

	for k, v := range tags {
		if _, skip := noNormalize[k]; skip {
			out[k] = v
			continue
		}

		switch v.Kind {
		case TagBool:
			out[k] = Absent()
		case TagString:
			switch v.Str {
			case "1":
				out[k] = Bool(true)
			case "0":
				out[k] = Bool(false)
			default:
				out[k] = String(UnescapeTagValue(v.Str))
			}
		default:
			out[k] = v
		}
	}

	return out
}

// UnescapeTagValue reverses IRCv3 tag escaping. \n and \r are dropped and
// unknown escapes are kept verbatim.
func UnescapeTagValue(s string) string {
	if strings.IndexByte(s, '\\') == -1 {
		return s
	}

	var sb strings.Builder
	sb.Grow(len(s))

	for i := 0; i < len(s); i++ {
		c := s[i]
		if c != '\\' || i+1 >= len(s) {
			sb.WriteByte(c)
			continue
		}

		switch s[i+1] {
		case 's':
			sb.WriteByte(' ')
		case 'n', 'r':
		case ':':
			sb.WriteByte(';')
		case '\\':
			sb.WriteByte('\\')
		default:
			sb.WriteByte(c)
			continue
		}
		i++
	}

	return sb.String()
}

var tagEscaper = strings.NewReplacer(
	`\`, `\\`,
	" ", `\s`,
	";", `\:`,
	"\n", `\n`,
	"\r", `\r`,
)

func EscapeTagValue(s string) string {
	return tagEscaper.Replace(s)
}
