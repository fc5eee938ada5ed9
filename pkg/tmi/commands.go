package tmi

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"golang.org/x/time/rate"

	"tmiclient/pkg/irc"
)

// commandRequest describes one outgoing command and how its reply is
// correlated.
type commandRequest struct {
	kind    CommandKind
	channel string
	line    string

	// await registers the command until a correlated reply or the deadline.
	// Without it the command settles once the line is written.
	await     bool
	delay     time.Duration
	onTimeout func() (Reply, error)
	onSent    func()
}

// command checks the connection, registers the correlation, writes the line
// and arms the deadline. The returned handle settles exactly once.
func (c *Client) command(req commandRequest) *Pending {
	key := pendingKey{kind: req.kind, channel: req.channel}
	p := newPending(key)
	p.onTimeout = req.onTimeout

	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.connectedLocked() {
		c.finish(p, Reply{}, ErrNotConnected)
		return p
	}
	if _, busy := c.pending[key]; req.await && busy {
		c.finish(p, Reply{}, ErrCommandPending)
		return p
	}

	if err := c.writeLocked(req.line); err != nil {
		c.finish(p, Reply{}, err)
		return p
	}
	if req.onSent != nil {
		req.onSent()
	}
	if !req.await {
		c.finish(p, Reply{}, nil)
		return p
	}

	delay := req.delay
	if delay <= 0 {
		delay = c.promiseDelayLocked()
	}
	c.pending[key] = p
	p.timer = time.AfterFunc(delay, func() { c.expire(p) })

	return p
}

func (c *Client) expire(p *Pending) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.pending[p.key] != p {
		return
	}
	delete(c.pending, p.key)

	reply, err := Reply{}, error(ErrNoResponse)
	if p.onTimeout != nil {
		reply, err = p.onTimeout()
	}
	c.finish(p, reply, err)
}

// settleLocked resolves the command registered under key, if any. Replies
// without a matching command are ignored.
func (c *Client) settleLocked(key pendingKey, reply Reply, err error) {
	p, ok := c.pending[key]
	if !ok {
		return
	}
	delete(c.pending, key)
	c.finish(p, reply, err)
}

// failChannelLocked rejects every command pending on channel.
func (c *Client) failChannelLocked(channel string, err error) {
	for key, p := range c.pending {
		if key.channel != channel {
			continue
		}
		delete(c.pending, key)
		c.finish(p, Reply{}, err)
	}
}

func (c *Client) finish(p *Pending, reply Reply, err error) {
	if p.timer != nil {
		p.timer.Stop()
	}
	if !p.settle(reply, err) {
		return
	}

	outcome := "ok"
	var cmdErr *CommandError
	switch {
	case err == nil:
	case errors.As(err, &cmdErr):
		outcome = "rejected"
	case errors.Is(err, ErrNoResponse):
		outcome = "timeout"
	default:
		outcome = "error"
	}
	c.metrics.ObserveCommand(p.key.kind.String(), outcome, time.Since(p.created))
}

// promiseDelayLocked is the reply deadline: 600ms, or the measured latency
// plus a margin on slow links.
func (c *Client) promiseDelayLocked() time.Duration {
	if c.latency <= minCommandTimeout {
		return minCommandTimeout
	}
	return c.latency + latencyMargin
}

func (c *Client) do(ctx context.Context, req commandRequest) (Reply, error) {
	return c.command(req).Wait(ctx)
}

// channelCommand sends a slash command to channel and waits for the NOTICE
// (or state change) that answers it.
func (c *Client) channelCommand(ctx context.Context, kind CommandKind, channel, text string) (Reply, error) {
	channel = irc.Channel(channel)
	return c.do(ctx, commandRequest{
		kind:    kind,
		channel: channel,
		line:    irc.Privmsg(channel, strings.TrimSpace(text)),
		await:   true,
	})
}

func (c *Client) runJoinQueue(ctx context.Context, channels []string) {
	limiter := rate.NewLimiter(rate.Every(c.cfg.Options.JoinInterval), 1)

	for _, ch := range channels {
		if err := limiter.Wait(ctx); err != nil {
			return
		}

		go func() {
			if err := c.Join(ctx, ch); err != nil && !errors.Is(err, context.Canceled) {
				c.log.Error("Failed to join channel", err, "channel", ch)
			}
		}()
	}
}

// Chat.

func (c *Client) Join(ctx context.Context, channel string) error {
	channel = irc.Channel(channel)
	_, err := c.do(ctx, commandRequest{
		kind:    CmdJoin,
		channel: channel,
		line:    irc.Join(channel),
		await:   true,
	})
	return err
}

func (c *Client) Part(ctx context.Context, channel string) error {
	channel = irc.Channel(channel)
	_, err := c.do(ctx, commandRequest{
		kind:    CmdPart,
		channel: channel,
		line:    irc.Part(channel),
		await:   true,
	})
	return err
}

// Ping measures the round trip to the server.
func (c *Client) Ping(ctx context.Context) (time.Duration, error) {
	reply, err := c.do(ctx, commandRequest{
		kind:  CmdPing,
		line:  irc.Ping(),
		await: true,
		onSent: func() {
			c.pingSent = time.Now()
			c.armPingTimeoutLocked(c.epoch)
		},
	})
	return reply.Latency, err
}

// Raw writes line as is.
func (c *Client) Raw(ctx context.Context, line string) error {
	_, err := c.do(ctx, commandRequest{kind: CmdRaw, line: line})
	return err
}

// Say sends a chat message. Text starting with "/", "\" or a single "." is a
// chat command and goes out unchanged; "/me" is sent as an action.
func (c *Client) Say(ctx context.Context, channel, message string) error {
	channel = irc.Channel(channel)

	if isChatCommand(message) {
		if strings.HasPrefix(message[1:], "me ") {
			return c.Action(ctx, channel, message[4:])
		}
		_, err := c.do(ctx, commandRequest{
			kind:    CmdSay,
			channel: channel,
			line:    irc.Privmsg(channel, message),
		})
		return err
	}

	return c.sendMessage(channel, message, KindChat)
}

func (c *Client) Action(_ context.Context, channel, message string) error {
	return c.sendMessage(irc.Channel(channel), message, KindAction)
}

func isChatCommand(message string) bool {
	switch {
	case strings.HasPrefix(message, ".."):
		return false
	case strings.HasPrefix(message, "."), strings.HasPrefix(message, "/"), strings.HasPrefix(message, `\`):
		return true
	}
	return false
}

// sendMessage writes a chat line and echoes it locally, since the server
// does not. Long text is split and the rest follows shortly after.
func (c *Client) sendMessage(channel, message string, kind MessageKind) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.connectedLocked() {
		return ErrNotConnected
	}
	if irc.IsJustinfan(c.sess.username) {
		return ErrAnonymous
	}

	text := message
	if utf8.RuneCountInString(message) > lineLimit {
		var rest string
		text, rest = irc.SplitLine(message, lineLimit)

		epoch := c.epoch
		var timer *time.Timer
		timer = time.AfterFunc(continuationDelay, func() {
			c.mu.Lock()
			delete(c.continuations, timer)
			current := epoch == c.epoch
			c.mu.Unlock()
			if !current {
				return
			}
			if err := c.sendMessage(channel, rest, kind); err != nil {
				c.log.Error("Failed to send message continuation", err, "channel", channel)
			}
		})
		c.continuations[timer] = struct{}{}
	}

	wire := text
	if kind == KindAction {
		wire = irc.Action(text)
	}
	if err := c.writeLocked(irc.Privmsg(channel, wire)); err != nil {
		return err
	}

	tags := c.sess.userstate[channel].Clone()
	if emotes := irc.FindEmotes(text, c.sess.emoteCodes()); emotes != "" {
		tags["emotes-raw"] = irc.String(emotes)
		tags["emotes"] = irc.Complex(irc.ParseComplexTag(emotes, "/", ":", ","))
	}
	tags["message-type"] = irc.String(kind.String())

	c.logMessage(kind, channel, c.sess.username, text)
	c.emit(Message{Kind: kind, Channel: channel, Tags: tags, Text: text, Self: true})
	return nil
}

// Whisper sends a private message. The server does not echo whispers, so one
// that draws no error before the deadline is reported as delivered and
// echoed locally.
func (c *Client) Whisper(ctx context.Context, username, message string) error {
	username = irc.Username(username)

	c.mu.Lock()
	self := c.sess.username
	channel := c.cfg.Options.GlobalDefaultChannel
	c.mu.Unlock()

	if username == irc.Username(self) {
		return ErrWhisperSelf
	}

	_, err := c.do(ctx, commandRequest{
		kind:    CmdWhisper,
		channel: channel,
		line:    irc.Privmsg(channel, "/w "+username+" "+message),
		await:   true,
		onTimeout: func() (Reply, error) {
			tags := c.sess.globalUserstate.Clone()
			tags["message-type"] = irc.String("whisper")
			tags["username"] = irc.String(c.sess.username)

			c.emit(Message{
				Kind:    KindWhisper,
				Channel: irc.Channel(username),
				Tags:    tags,
				Text:    message,
				Self:    true,
			})
			return Reply{}, nil
		},
	})
	return err
}

// Moderation.

func (c *Client) Ban(ctx context.Context, channel, username, reason string) error {
	_, err := c.channelCommand(ctx, CmdBan, channel, "/ban "+irc.Username(username)+" "+reason)
	return err
}

// Timeout silences username for seconds (300 when not positive).
func (c *Client) Timeout(ctx context.Context, channel, username string, seconds int, reason string) error {
	if seconds <= 0 {
		seconds = 300
	}
	text := "/timeout " + irc.Username(username) + " " + strconv.Itoa(seconds) + " " + reason
	_, err := c.channelCommand(ctx, CmdTimeout, channel, text)
	return err
}

func (c *Client) Unban(ctx context.Context, channel, username string) error {
	_, err := c.channelCommand(ctx, CmdUnban, channel, "/unban "+irc.Username(username))
	return err
}

func (c *Client) Clear(ctx context.Context, channel string) error {
	_, err := c.channelCommand(ctx, CmdClear, channel, "/clear")
	return err
}

func (c *Client) DeleteMessage(ctx context.Context, channel, messageID string) error {
	_, err := c.channelCommand(ctx, CmdDeleteMessage, channel, "/delete "+messageID)
	return err
}

// Color changes the chat color of the session's account.
func (c *Client) Color(ctx context.Context, color string) error {
	c.mu.Lock()
	channel := c.cfg.Options.GlobalDefaultChannel
	c.mu.Unlock()

	_, err := c.channelCommand(ctx, CmdColor, channel, "/color "+color)
	return err
}

func (c *Client) Commercial(ctx context.Context, channel string, seconds int) error {
	if seconds <= 0 {
		seconds = 30
	}
	_, err := c.channelCommand(ctx, CmdCommercial, channel, "/commercial "+strconv.Itoa(seconds))
	return err
}

// Host returns the number of hosts remaining.
func (c *Client) Host(ctx context.Context, channel, target string) (int, error) {
	channel = irc.Channel(channel)
	reply, err := c.do(ctx, commandRequest{
		kind:    CmdHost,
		channel: channel,
		line:    irc.Privmsg(channel, "/host "+irc.Username(target)),
		await:   true,
		delay:   hostTimeout,
	})
	return reply.Count, err
}

func (c *Client) Unhost(ctx context.Context, channel string) error {
	channel = irc.Channel(channel)
	_, err := c.do(ctx, commandRequest{
		kind:    CmdUnhost,
		channel: channel,
		line:    irc.Privmsg(channel, "/unhost"),
		await:   true,
		delay:   hostTimeout,
	})
	return err
}

// Roles.

func (c *Client) Mod(ctx context.Context, channel, username string) error {
	_, err := c.channelCommand(ctx, CmdMod, channel, "/mod "+irc.Username(username))
	return err
}

func (c *Client) Unmod(ctx context.Context, channel, username string) error {
	_, err := c.channelCommand(ctx, CmdUnmod, channel, "/unmod "+irc.Username(username))
	return err
}

// Mods lists the moderators of channel and records them for IsMod.
func (c *Client) Mods(ctx context.Context, channel string) ([]string, error) {
	reply, err := c.channelCommand(ctx, CmdMods, channel, "/mods")
	return reply.Names, err
}

func (c *Client) Vip(ctx context.Context, channel, username string) error {
	_, err := c.channelCommand(ctx, CmdVip, channel, "/vip "+irc.Username(username))
	return err
}

func (c *Client) Unvip(ctx context.Context, channel, username string) error {
	_, err := c.channelCommand(ctx, CmdUnvip, channel, "/unvip "+irc.Username(username))
	return err
}

func (c *Client) Vips(ctx context.Context, channel string) ([]string, error) {
	reply, err := c.channelCommand(ctx, CmdVips, channel, "/vips")
	return reply.Names, err
}

// Room modes.

func (c *Client) EmoteOnly(ctx context.Context, channel string) error {
	_, err := c.channelCommand(ctx, CmdEmoteOnly, channel, "/emoteonly")
	return err
}

func (c *Client) EmoteOnlyOff(ctx context.Context, channel string) error {
	_, err := c.channelCommand(ctx, CmdEmoteOnlyOff, channel, "/emoteonlyoff")
	return err
}

// FollowersOnly restricts chat to followers of at least minutes (30 when not
// positive).
func (c *Client) FollowersOnly(ctx context.Context, channel string, minutes int) error {
	if minutes <= 0 {
		minutes = 30
	}
	_, err := c.channelCommand(ctx, CmdFollowersOnly, channel, "/followers "+strconv.Itoa(minutes))
	return err
}

func (c *Client) FollowersOnlyOff(ctx context.Context, channel string) error {
	_, err := c.channelCommand(ctx, CmdFollowersOnlyOff, channel, "/followersoff")
	return err
}

func (c *Client) R9kBeta(ctx context.Context, channel string) error {
	_, err := c.channelCommand(ctx, CmdR9kBeta, channel, "/r9kbeta")
	return err
}

func (c *Client) R9kBetaOff(ctx context.Context, channel string) error {
	_, err := c.channelCommand(ctx, CmdR9kBetaOff, channel, "/r9kbetaoff")
	return err
}

// Slow enables slow mode (300 seconds when not positive).
func (c *Client) Slow(ctx context.Context, channel string, seconds int) error {
	if seconds <= 0 {
		seconds = 300
	}
	_, err := c.channelCommand(ctx, CmdSlow, channel, "/slow "+strconv.Itoa(seconds))
	return err
}

func (c *Client) SlowOff(ctx context.Context, channel string) error {
	_, err := c.channelCommand(ctx, CmdSlowOff, channel, "/slowoff")
	return err
}

func (c *Client) Subscribers(ctx context.Context, channel string) error {
	_, err := c.channelCommand(ctx, CmdSubscribers, channel, "/subscribers")
	return err
}

func (c *Client) SubscribersOff(ctx context.Context, channel string) error {
	_, err := c.channelCommand(ctx, CmdSubscribersOff, channel, "/subscribersoff")
	return err
}
