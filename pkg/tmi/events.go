package tmi

import (
	"time"

	"tmiclient/internal/app/ports"
	"tmiclient/pkg/irc"
)

// Event is anything delivered to OnEvent handlers. Switch on the concrete type.
type Event interface {
	event()
}

// Connection lifecycle.
type (
	Connecting struct {
		Server string
		Port   int
	}
	Logon     struct{}
	Connected struct {
		Server string
		Port   int
	}
	Disconnected struct {
		Reason string
	}
	Reconnect struct {
		Attempt int
		Delay   time.Duration
	}
	MaxReconnect struct{}
	Ping         struct{}
	Pong         struct {
		Latency time.Duration
	}
	RawMessage struct {
		Message *irc.Message
	}
)

// Membership.
type (
	Join struct {
		Channel  string
		Username string
		Self     bool
	}
	Part struct {
		Channel  string
		Username string
		Self     bool
	}
	Names struct {
		Channel string
		Names   []string
	}
)

type MessageKind uint8

const (
	KindChat MessageKind = iota
	KindAction
	KindWhisper
)

func (k MessageKind) String() string {
	switch k {
	case KindAction:
		return "action"
	case KindWhisper:
		return "whisper"
	}
	return "chat"
}

// Chat traffic. For whispers Channel is the "#name" of the other party.
type (
	Message struct {
		Kind    MessageKind
		Channel string
		Tags    irc.Tags
		Text    string
		Self    bool
	}
	Cheer struct {
		Channel string
		Tags    irc.Tags
		Text    string
		Bits    int
	}
	Redeem struct {
		Channel    string
		Username   string
		RewardType string
		Tags       irc.Tags
		Text       string
	}
	Notice struct {
		Channel string
		MsgID   string
		Text    string
	}
	Automod struct {
		Channel string
		MsgID   string
		Text    string
	}
)

// Room modes and roles.
type (
	Subscribers struct {
		Channel string
		Enabled bool
	}
	EmoteOnly struct {
		Channel string
		Enabled bool
	}
	R9kBeta struct {
		Channel string
		Enabled bool
	}
	SlowMode struct {
		Channel string
		Enabled bool
		Seconds int
	}
	FollowersOnly struct {
		Channel string
		Enabled bool
		Minutes int
	}
	Mods struct {
		Channel string
		Mods    []string
	}
	Vips struct {
		Channel string
		Vips    []string
	}
	Mod struct {
		Channel  string
		Username string
	}
	Unmod struct {
		Channel  string
		Username string
	}
)

// Hosting.
type (
	Hosting struct {
		Channel string
		Target  string
		Viewers int
	}
	Unhost struct {
		Channel string
		Viewers int
	}
	Hosted struct {
		Channel  string
		Username string
		Viewers  int
		Autohost bool
	}
)

// Moderation and state.
type (
	Ban struct {
		Channel  string
		Username string
		Tags     irc.Tags
	}
	Timeout struct {
		Channel  string
		Username string
		Duration time.Duration
		Tags     irc.Tags
	}
	ClearChat struct {
		Channel string
	}
	MessageDeleted struct {
		Channel  string
		Username string
		Text     string
		Tags     irc.Tags
	}
	RoomState struct {
		Channel string
		Tags    irc.Tags
	}
	GlobalUserState struct {
		Tags irc.Tags
	}
	EmoteSets struct {
		Sets      string
		EmoteSets ports.EmoteSets
	}
)

type SubMethods struct {
	Prime    bool
	Plan     string
	PlanName string
}

// Subscriptions and other USERNOTICE kinds.
type (
	Subscription struct {
		Channel  string
		Username string
		Methods  SubMethods
		Text     string
		Tags     irc.Tags
	}
	Resub struct {
		Channel      string
		Username     string
		StreakMonths int
		Text         string
		Tags         irc.Tags
		Methods      SubMethods
	}
	SubGift struct {
		Channel      string
		Username     string
		StreakMonths int
		Recipient    string
		Methods      SubMethods
		Tags         irc.Tags
	}
	AnonSubGift struct {
		Channel      string
		StreakMonths int
		Recipient    string
		Methods      SubMethods
		Tags         irc.Tags
	}
	SubMysteryGift struct {
		Channel  string
		Username string
		Count    int
		Methods  SubMethods
		Tags     irc.Tags
	}
	AnonSubMysteryGift struct {
		Channel string
		Count   int
		Methods SubMethods
		Tags    irc.Tags
	}
	PrimePaidUpgrade struct {
		Channel  string
		Username string
		Methods  SubMethods
		Tags     irc.Tags
	}
	GiftPaidUpgrade struct {
		Channel  string
		Username string
		Sender   string
		Tags     irc.Tags
	}
	AnonGiftPaidUpgrade struct {
		Channel  string
		Username string
		Tags     irc.Tags
	}
	Raided struct {
		Channel  string
		Username string
		Viewers  int
		Tags     irc.Tags
	}
	NewChatter struct {
		Channel  string
		Username string
		Tags     irc.Tags
		Text     string
	}
	Ritual struct {
		Name     string
		Channel  string
		Username string
		Tags     irc.Tags
		Text     string
	}
	UserNotice struct {
		MsgID   string
		Channel string
		Tags    irc.Tags
		Text    string
	}
)

func (Connecting) event()          {}
func (Logon) event()               {}
func (Connected) event()           {}
func (Disconnected) event()        {}
func (Reconnect) event()           {}
func (MaxReconnect) event()        {}
func (Ping) event()                {}
func (Pong) event()                {}
func (RawMessage) event()          {}
func (Join) event()                {}
func (Part) event()                {}
func (Names) event()               {}
func (Message) event()             {}
func (Cheer) event()               {}
func (Redeem) event()              {}
func (Notice) event()              {}
func (Automod) event()             {}
func (Subscribers) event()         {}
func (EmoteOnly) event()           {}
func (R9kBeta) event()             {}
func (SlowMode) event()            {}
func (FollowersOnly) event()       {}
func (Mods) event()                {}
func (Vips) event()                {}
func (Mod) event()                 {}
func (Unmod) event()               {}
func (Hosting) event()             {}
func (Unhost) event()              {}
func (Hosted) event()              {}
func (Ban) event()                 {}
func (Timeout) event()             {}
func (ClearChat) event()           {}
func (MessageDeleted) event()      {}
func (RoomState) event()           {}
func (GlobalUserState) event()     {}
func (EmoteSets) event()           {}
func (Subscription) event()        {}
func (Resub) event()               {}
func (SubGift) event()             {}
func (AnonSubGift) event()         {}
func (SubMysteryGift) event()      {}
func (AnonSubMysteryGift) event()  {}
func (PrimePaidUpgrade) event()    {}
func (GiftPaidUpgrade) event()     {}
func (AnonGiftPaidUpgrade) event() {}
func (Raided) event()              {}
func (NewChatter) event()          {}
func (Ritual) event()              {}
func (UserNotice) event()          {}
