package irc

import (
	"regexp"
	"sort"
	"strconv"
	"strings"
	"unicode/utf8"
)

// Outgoing lines used by the session. None carry the CRLF terminator.

func CapReq(caps ...string) string {
	return "CAP REQ :" + strings.Join(caps, " ")
}

func Pass(password string) string { return "PASS " + password }
func Nick(name string) string     { return "NICK " + name }
func Join(channel string) string  { return "JOIN " + Channel(channel) }
func Part(channel string) string  { return "PART " + Channel(channel) }

func Privmsg(channel, text string) string {
	return "PRIVMSG " + Channel(channel) + " :" + text
}

func Ping() string { return "PING" }

// Pong answers a PING, echoing its token when there is one.
func Pong(token string) string {
	if token == "" {
		return "PONG"
	}
	return "PONG :" + token
}

// EmoteCode is an emote known to the session, matched against outgoing text.
type EmoteCode struct {
	Code string
	ID   string
}

var emoteRegexChars = regexp.MustCompile(`[|\\^$*+?:#]`)

var htmlUnescaper = strings.NewReplacer(
	"&amp;", "&",
	"&lt;", "<",
	"&gt;", ">",
	"&quot;", `"`,
	"&#039;", "'",
)

// FindEmotes locates emote codes in text and returns the value of an
// "emotes" tag describing them (id:start-end,start-end/id:...). Positions
// are rune offsets, end inclusive.
func FindEmotes(text string, codes []EmoteCode) string {
	found := make(map[string][][2]int)

	words := wordSpans(text)
	for _, e := range codes {
		code := htmlUnescaper.Replace(e.Code)

		var re *regexp.Regexp
		if emoteRegexChars.MatchString(e.Code) {
			compiled, err := regexp.Compile(`(\b|^|\s)` + code + `(\b|$|\s)`)
			if err != nil {
				continue
			}
			re = compiled
		}

		for _, w := range words {
			if (re != nil && re.MatchString(w.text)) || (re == nil && w.text == code) {
				found[e.ID] = append(found[e.ID], [2]int{w.start, w.end})
			}
		}
	}

	if len(found) == 0 {
		return ""
	}

	ids := make([]string, 0, len(found))
	for id := range found {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	var sb strings.Builder
	for i, id := range ids {
		if i > 0 {
			sb.WriteByte('/')
		}
		sb.WriteString(id)
		sb.WriteByte(':')
		for j, span := range found[id] {
			if j > 0 {
				sb.WriteByte(',')
			}
			sb.WriteString(strconv.Itoa(span[0]))
			sb.WriteByte('-')
			sb.WriteString(strconv.Itoa(span[1]))
		}
	}
	return sb.String()
}

type word struct {
	text       string
	start, end int
}

func wordSpans(text string) []word {
	var (
		words []word
		pos   int
		start = -1
		from  int
	)

	for i, r := range text {
		isSpace := r == ' ' || r == '\t' || r == '\n' || r == '\r'
		if !isSpace && start == -1 {
			start, from = pos, i
		}
		if isSpace && start != -1 {
			words = append(words, word{text: text[from:i], start: start, end: pos - 1})
			start = -1
		}
		pos++
	}

	if start != -1 {
		words = append(words, word{text: text[from:], start: start, end: utf8.RuneCountInString(text) - 1})
	}

	return words
}
