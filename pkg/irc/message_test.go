package irc

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name       string
		line       string
		wantPrefix string
		wantCmd    string
		wantParams []string
		wantTags   map[string]string
	}{
		{
			name:       "privmsg with tags",
			line:       "@badge-info=;badges=broadcaster/1;color=;display-name=Foo :foo!foo@foo.tmi.twitch.tv PRIVMSG #foo :Hello world",
			wantPrefix: "foo!foo@foo.tmi.twitch.tv",
			wantCmd:    "PRIVMSG",
			wantParams: []string{"#foo", "Hello world"},
			wantTags:   map[string]string{"display-name": "Foo", "color": ""},
		},
		{
			name:    "ping without params",
			line:    "PING",
			wantCmd: "PING",
		},
		{
			name:       "ping with trailing",
			line:       "PING :tmi.twitch.tv",
			wantCmd:    "PING",
			wantParams: []string{"tmi.twitch.tv"},
		},
		{
			name:       "numeric",
			line:       ":tmi.twitch.tv 001 justinfan123 :Welcome, GLHF!",
			wantPrefix: "tmi.twitch.tv",
			wantCmd:    "001",
			wantParams: []string{"justinfan123", "Welcome, GLHF!"},
		},
		{
			name:       "repeated spaces",
			line:       ":jtv   MODE  #foo   +o   bar",
			wantPrefix: "jtv",
			wantCmd:    "MODE",
			wantParams: []string{"#foo", "+o", "bar"},
		},
		{
			name:       "trailing keeps inner colons and spaces",
			line:       ":a!a@a PRIVMSG #c :see: this  :)",
			wantPrefix: "a!a@a",
			wantCmd:    "PRIVMSG",
			wantParams: []string{"#c", "see: this  :)"},
		},
		{
			name:       "empty trailing",
			line:       ":tmi.twitch.tv CAP * ACK :",
			wantPrefix: "tmi.twitch.tv",
			wantCmd:    "CAP",
			wantParams: []string{"*", "ACK", ""},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg, err := Parse(tt.line)
			require.NoError(t, err)

			assert.Equal(t, tt.line, msg.Raw)
			assert.Equal(t, tt.wantPrefix, msg.Prefix)
			assert.Equal(t, tt.wantCmd, msg.Command)
			assert.Equal(t, tt.wantParams, msg.Params)
			for k, v := range tt.wantTags {
				assert.Equal(t, v, msg.Tags.Text(k), k)
			}
		})
	}
}

func TestParse_Malformed(t *testing.T) {
	tests := []struct {
		name string
		line string
	}{
		{name: "empty", line: ""},
		{name: "tags without space", line: "@tags-with-no-space"},
		{name: "prefix without command", line: ":tmi.twitch.tv"},
		{name: "tags and spaces only", line: "@a=b   "},
		{name: "tags and prefix only", line: "@a=b :prefix"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg, err := Parse(tt.line)
			assert.Nil(t, msg)
			assert.True(t, errors.Is(err, ErrMalformed))
		})
	}
}

func TestParse_RoundTrip(t *testing.T) {
	lines := []string{
		"JOIN #foo",
		"MODE #foo +o bar",
		"PART #foo",
		"353 me = #foo",
		"CAP",
	}

	for _, line := range lines {
		t.Run(line, func(t *testing.T) {
			msg, err := Parse(line)
			require.NoError(t, err)

			joined := strings.Join(append([]string{msg.Command}, msg.Params...), " ")
			assert.Equal(t, line, joined)
		})
	}
}

func TestParse_ComplexTags(t *testing.T) {
	msg, err := Parse("@badge-info=subscriber/8;badges=subscriber/6,premium/1;emotes=25:0-4,12-16/1902:6-10 :a!a@a PRIVMSG #c :Kappa Keepo Kappa")
	require.NoError(t, err)

	assert.Equal(t, map[string][]string{"subscriber": {"6"}, "premium": {"1"}}, msg.Tags.Complex("badges"))
	assert.Equal(t, map[string][]string{"subscriber": {"8"}}, msg.Tags.Complex("badge-info"))
	assert.Equal(t, map[string][]string{"25": {"0-4", "12-16"}, "1902": {"6-10"}}, msg.Tags.Complex("emotes"))
	assert.Equal(t, "25:0-4,12-16/1902:6-10", msg.Tags.Text("emotes-raw"))
	assert.Equal(t, "subscriber/6,premium/1", msg.Tags.Text("badges-raw"))
}

func TestParse_BareTagIsMarker(t *testing.T) {
	msg, err := Parse("@emote-only;slow=0 :tmi.twitch.tv ROOMSTATE #c")
	require.NoError(t, err)

	v, ok := msg.Tags.Get("emote-only")
	require.True(t, ok)
	assert.Equal(t, TagBool, v.Kind)
	assert.True(t, v.Bool)
	assert.Equal(t, "0", msg.Tags.Text("slow"))
}

func TestMessage_String(t *testing.T) {
	tests := []struct {
		name string
		msg  *Message
		want string
	}{
		{
			name: "no params",
			msg:  NewMessage("PING"),
			want: "PING",
		},
		{
			name: "trailing with spaces",
			msg:  NewMessage("PRIVMSG", "#foo", "hello world"),
			want: "PRIVMSG #foo :hello world",
		},
		{
			name: "single word trailing",
			msg:  NewMessage("JOIN", "#foo"),
			want: "JOIN #foo",
		},
		{
			name: "empty trailing",
			msg:  NewMessage("CAP", "REQ", ""),
			want: "CAP REQ :",
		},
		{
			name: "prefix and tags",
			msg: &Message{
				Tags:    Tags{"b": String("x y"), "a": Bool(true)},
				Prefix:  "tmi.twitch.tv",
				Command: "NOTICE",
				Params:  []string{"#c", ":)"},
			},
			want: `@a;b=x\sy :tmi.twitch.tv NOTICE #c ::)`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.msg.String())

			parsed, err := Parse(tt.want)
			require.NoError(t, err)
			assert.Equal(t, tt.msg.Command, parsed.Command)
			assert.Equal(t, len(tt.msg.Params), len(parsed.Params))
		})
	}
}

func TestMessage_Nick(t *testing.T) {
	msg, err := Parse(":ronni!ronni@ronni.tmi.twitch.tv JOIN #dallas")
	require.NoError(t, err)

	assert.Equal(t, "ronni", msg.Nick())
	assert.Equal(t, "#dallas", msg.Param(0))
	assert.Equal(t, "", msg.Param(3))
}
