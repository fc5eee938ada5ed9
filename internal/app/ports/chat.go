package ports

import (
	"context"
	"time"
)

// ChatPort is the command surface of a chat session.
type ChatPort interface {
	Connect(ctx context.Context) (string, int, error)
	Disconnect(ctx context.Context) error

	Join(ctx context.Context, channel string) error
	Part(ctx context.Context, channel string) error
	Say(ctx context.Context, channel, message string) error
	Action(ctx context.Context, channel, message string) error
	Whisper(ctx context.Context, username, message string) error
	Raw(ctx context.Context, line string) error
	Ping(ctx context.Context) (time.Duration, error)

	Ban(ctx context.Context, channel, username, reason string) error
	Timeout(ctx context.Context, channel, username string, seconds int, reason string) error
	Unban(ctx context.Context, channel, username string) error
	Clear(ctx context.Context, channel string) error
	DeleteMessage(ctx context.Context, channel, messageID string) error
	Color(ctx context.Context, color string) error
	Commercial(ctx context.Context, channel string, seconds int) error
	Host(ctx context.Context, channel, target string) (int, error)
	Unhost(ctx context.Context, channel string) error

	Mod(ctx context.Context, channel, username string) error
	Unmod(ctx context.Context, channel, username string) error
	Mods(ctx context.Context, channel string) ([]string, error)
	Vip(ctx context.Context, channel, username string) error
	Unvip(ctx context.Context, channel, username string) error
	Vips(ctx context.Context, channel string) ([]string, error)

	EmoteOnly(ctx context.Context, channel string) error
	EmoteOnlyOff(ctx context.Context, channel string) error
	FollowersOnly(ctx context.Context, channel string, minutes int) error
	FollowersOnlyOff(ctx context.Context, channel string) error
	R9kBeta(ctx context.Context, channel string) error
	R9kBetaOff(ctx context.Context, channel string) error
	Slow(ctx context.Context, channel string, seconds int) error
	SlowOff(ctx context.Context, channel string) error
	Subscribers(ctx context.Context, channel string) error
	SubscribersOff(ctx context.Context, channel string) error

	Username() string
	Channels() []string
	IsMod(channel, username string) bool
	Latency() time.Duration
	ReadyState() string
}
