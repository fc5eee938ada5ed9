package irc

import (
	"fmt"
	"math/rand/v2"
	"regexp"
	"strconv"
	"strings"
)

var (
	justinfanRe = regexp.MustCompile(`^justinfan\d+$`)
	actionRe    = regexp.MustCompile("^\x01ACTION ([^\x01]+)\x01$")
)

// Channel returns the canonical "#lowercase" form of a channel name.
func Channel(s string) string {
	c := strings.ToLower(s)
	if strings.HasPrefix(c, "#") {
		return c
	}
	return "#" + c
}

// Username returns the lowercase name without a leading '#'.
func Username(s string) string {
	return strings.TrimPrefix(strings.ToLower(s), "#")
}

// Token strips an "oauth:" prefix.
func Token(s string) string {
	return strings.ReplaceAll(strings.ToLower(s), "oauth:", "")
}

// Password returns the PASS argument for a token, or "" when there is none.
func Password(s string) string {
	t := Token(s)
	if t == "" {
		return ""
	}
	return "oauth:" + t
}

// Justinfan returns a random anonymous login.
func Justinfan() string {
	return fmt.Sprintf("justinfan%d", rand.IntN(80000)+1000)
}

func IsJustinfan(username string) bool {
	return justinfanRe.MatchString(username)
}

// ActionMessage unwraps "\x01ACTION text\x01".
func ActionMessage(msg string) (string, bool) {
	m := actionRe.FindStringSubmatch(msg)
	if m == nil {
		return "", false
	}
	return m[1], true
}

func Action(text string) string {
	return "\x01ACTION " + text + "\x01"
}

// SplitLine cuts text at the last space within limit characters. Without a
// space the cut is hard at limit-1.
func SplitLine(text string, limit int) (string, string) {
	r := []rune(text)
	if len(r) <= limit {
		return text, ""
	}

	cut := -1
	for i := limit - 1; i >= 0; i-- {
		if r[i] == ' ' {
			cut = i
			break
		}
	}

	if cut == -1 {
		cut = limit - 1
		return string(r[:cut]), string(r[cut:])
	}
	return string(r[:cut]), string(r[cut+1:])
}

// ExtractNumber returns the first integer word of s.
func ExtractNumber(s string) int {
	for _, part := range strings.Split(s, " ") {
		if n, err := strconv.Atoi(part); err == nil {
			return n
		}
	}
	return 0
}
