// Package irc implements the Twitch flavour of the IRC wire format: parsing of
// tagged protocol lines, tag normalization and formatting of outgoing lines.
package irc

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	ErrMalformed = errors.New("malformed message")

	errEmptyMessage  = fmt.Errorf("%w: no command", ErrMalformed)
	errTagsNoCommand = fmt.Errorf("%w: tags without command", ErrMalformed)
	errPrefixNoSpace = fmt.Errorf("%w: prefix without command", ErrMalformed)
)

// Message is a single protocol line split into its parts. A Message returned
// by Parse must be treated as read-only.
type Message struct {
	Raw     string
	Tags    Tags
	Prefix  string
	Command string
	Params  []string
}

// Parse scans line left to right: tags, prefix, command, then parameters.
// A parameter starting with ':' consumes the rest of the line verbatim.
func Parse(line string) (*Message, error) {
	msg := &Message{Raw: line, Tags: Tags{}}
	pos := 0

	if len(line) > 0 && line[0] == '@' {
		next := strings.IndexByte(line, ' ')
		if next == -1 {
			return nil, errTagsNoCommand
		}

		msg.Tags = parseTags(line[1:next])
		pos = next + 1
	}

	pos = skipSpaces(line, pos)

	if pos < len(line) && line[pos] == ':' {
		next := indexSpace(line, pos)
		if next == -1 {
			return nil, errPrefixNoSpace
		}

		msg.Prefix = line[pos+1 : next]
		pos = skipSpaces(line, next+1)
	}

	next := indexSpace(line, pos)
	if next == -1 {
		if len(line) > pos {
			msg.Command = line[pos:]
			return msg, nil
		}
		return nil, errEmptyMessage
	}

	msg.Command = line[pos:next]
	pos = skipSpaces(line, next+1)

	for pos < len(line) {
		if line[pos] == ':' {
			msg.Params = append(msg.Params, line[pos+1:])
			break
		}

		next = indexSpace(line, pos)
		if next == -1 {
			msg.Params = append(msg.Params, line[pos:])
			break
		}

		msg.Params = append(msg.Params, line[pos:next])
		pos = skipSpaces(line, next+1)
	}

	return msg, nil
}

func skipSpaces(s string, pos int) int {
	for pos < len(s) && s[pos] == ' ' {
		pos++
	}
	return pos
}

func indexSpace(s string, from int) int {
	if from >= len(s) {
		return -1
	}

	i := strings.IndexByte(s[from:], ' ')
	if i == -1 {
		return -1
	}
	return from + i
}

// NewMessage builds an outgoing message.
func NewMessage(command string, params ...string) *Message {
	return &Message{
		Tags:    Tags{},
		Command: command,
		Params:  params,
	}
}

// Param returns the i-th parameter or an empty string.
func (msg *Message) Param(i int) string {
	if i < 0 || i >= len(msg.Params) {
		return ""
	}
	return msg.Params[i]
}

// Nick returns the nickname part of the prefix (before '!').
func (msg *Message) Nick() string {
	nick, _, _ := strings.Cut(msg.Prefix, "!")
	return nick
}

// String renders the message as a wire line without the CRLF terminator.
func (msg *Message) String() string {
	var sb strings.Builder

	if len(msg.Tags) > 0 {
		keys := make([]string, 0, len(msg.Tags))
		for k := range msg.Tags {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		sb.WriteByte('@')
		for i, k := range keys {
			if i > 0 {
				sb.WriteByte(';')
			}
			sb.WriteString(k)

			v := msg.Tags[k]
			if v.Kind == TagString {
				sb.WriteByte('=')
				sb.WriteString(EscapeTagValue(v.Str))
			}
		}
		sb.WriteByte(' ')
	}

	if msg.Prefix != "" {
		sb.WriteByte(':')
		sb.WriteString(msg.Prefix)
		sb.WriteByte(' ')
	}

	sb.WriteString(msg.Command)

	for i, p := range msg.Params {
		sb.WriteByte(' ')
		if i == len(msg.Params)-1 && (p == "" || p[0] == ':' || strings.IndexByte(p, ' ') != -1) {
			sb.WriteByte(':')
		}
		sb.WriteString(p)
	}

	return sb.String()
}
