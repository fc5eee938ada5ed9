package tmi

import (
	"strconv"
	"strings"
	"time"

	"tmiclient/pkg/irc"
	"tmiclient/pkg/logger"
)

// dispatch routes a parsed line by prefix: none (PING/PONG), the chat
// server, jtv, or a user. Called with c.mu held.
func (c *Client) dispatch(msg *irc.Message) {
	switch msg.Prefix {
	case "":
		c.handleServerLine(msg)
	case tmiDomain:
		c.handleTMI(msg)
	case "jtv":
		c.handleJTV(msg)
	default:
		c.handleUserLine(msg)
	}
}

func (c *Client) handleServerLine(msg *irc.Message) {
	switch msg.Command {
	case "PING":
		c.onPing(msg)
	case "PONG":
		c.onPong()
	default:
		c.log.Warn("Could not parse message with no prefix", "line", msg.Raw)
	}
}

func (c *Client) onPing(msg *irc.Message) {
	c.emit(Ping{})
	if !c.connectedLocked() {
		return
	}

	token := ""
	if len(msg.Params) > 0 {
		token = msg.Params[len(msg.Params)-1]
	}
	_ = c.writeLocked(irc.Pong(token))
}

func (c *Client) onPong() {
	if !c.pingSent.IsZero() {
		c.latency = time.Since(c.pingSent)
	}
	c.stopTimer(&c.pingTimeout)
	c.metrics.ObserveLatency(c.latency)

	c.emit(Pong{Latency: c.latency})
	c.settleLocked(pendingKey{kind: CmdPing}, Reply{Latency: c.latency}, nil)
}

func (c *Client) handleTMI(msg *irc.Message) {
	channel := irc.Channel(msg.Param(0))

	switch msg.Command {
	case "002", "003", "004", "372", "375", "CAP":

	case "001":
		c.sess.username = msg.Param(0)

	case "376":
		c.onWelcomeLocked()

	case "PING":
		c.onPing(msg)

	case "PONG":
		c.onPong()

	case "NOTICE":
		c.handleNotice(msg, channel)

	case "USERNOTICE":
		c.handleUserNotice(msg, channel)

	case "HOSTTARGET":
		c.handleHostTarget(msg, channel)

	case "CLEARCHAT":
		if len(msg.Params) > 1 {
			username := msg.Param(1)
			if duration, ok := msg.Tags.Get("ban-duration"); ok {
				seconds := duration.Int()
				c.log.Info("User has been timed out", "channel", channel, "user", username, "seconds", seconds)
				c.emit(Timeout{
					Channel:  channel,
					Username: username,
					Duration: time.Duration(seconds) * time.Second,
					Tags:     msg.Tags,
				})
				return
			}

			c.log.Info("User has been banned", "channel", channel, "user", username)
			c.emit(Ban{Channel: channel, Username: username, Tags: msg.Tags})
			return
		}

		c.log.Info("Chat was cleared by a moderator", "channel", channel)
		c.emit(ClearChat{Channel: channel})
		c.settleLocked(pendingKey{kind: CmdClear, channel: channel}, Reply{}, nil)

	case "CLEARMSG":
		if len(msg.Params) > 1 {
			tags := msg.Tags.Clone()
			tags["message-type"] = irc.String("messagedeleted")
			username := tags.Text("login")

			c.log.Info("Message has been deleted", "channel", channel, "user", username)
			c.emit(MessageDeleted{Channel: channel, Username: username, Text: msg.Param(1), Tags: tags})
		}

	case "RECONNECT":
		c.onReconnectRequest()

	case "USERSTATE":
		c.handleUserState(msg, channel)

	case "GLOBALUSERSTATE":
		c.sess.globalUserstate = msg.Tags
		c.emit(GlobalUserState{Tags: msg.Tags})

		if sets, ok := msg.Tags.Get("emote-sets"); ok {
			c.updateEmoteSetsLocked(&sets.Str)
		}

	case "ROOMSTATE":
		c.handleRoomState(msg, channel)

	case "SERVERCHANGE":

	default:
		c.log.Warn("Could not parse message from tmi.twitch.tv", "line", msg.Raw)
	}
}

func (c *Client) handleHostTarget(msg *irc.Message, channel string) {
	text := msg.Param(1)
	if text == "" {
		c.log.Error("HOSTTARGET command has no msg", nil, "channel", channel)
		return
	}

	parts := strings.Split(text, " ")
	viewers := 0
	if len(parts) > 1 {
		viewers, _ = strconv.Atoi(parts[1])
	}

	if parts[0] == "-" {
		c.log.Info("Exited host mode", "channel", channel)
		c.emit(Unhost{Channel: channel, Viewers: viewers})
		c.settleLocked(pendingKey{kind: CmdUnhost, channel: channel}, Reply{}, nil)
		return
	}

	c.log.Info("Now hosting", "channel", channel, "target", parts[0], "viewers", viewers)
	c.emit(Hosting{Channel: channel, Target: parts[0], Viewers: viewers})
}

func (c *Client) onReconnectRequest() {
	c.log.Info("Received RECONNECT request from Twitch", "reconnect_in", c.backoff.Current())
	if c.conn == nil || c.closing {
		return
	}

	c.reason = "Server requested reconnect."
	c.serverReconnect = true
	c.connectionLostLocked(c.conn)
}

func (c *Client) handleUserState(msg *irc.Message, channel string) {
	tags := msg.Tags.Clone()
	tags["username"] = irc.String(c.sess.username)

	if tags.Text("user-type") == "mod" {
		c.sess.addMod(channel, c.sess.username)
	}

	// Authenticated sessions see their own joins as USERSTATE.
	if !irc.IsJustinfan(c.sess.username) {
		if _, seen := c.sess.userstate[channel]; !seen {
			c.sess.userstate[channel] = tags
			c.selfJoinedLocked(channel)
		}
	}

	if sets, ok := tags.Get("emote-sets"); ok && sets.Str != c.sess.emotes {
		c.updateEmoteSetsLocked(&sets.Str)
	}

	c.sess.userstate[channel] = tags
}

func (c *Client) handleRoomState(msg *irc.Message, channel string) {
	if c.sess.lastJoined != "" && irc.Channel(c.sess.lastJoined) == channel {
		c.settleLocked(pendingKey{kind: CmdJoin, channel: channel}, Reply{}, nil)
	}

	tags := msg.Tags.Clone()
	tags["channel"] = irc.String(channel)
	c.emit(RoomState{Channel: channel, Tags: tags})

	// A full room state (sent on join) carries subs-only; partial updates
	// announce a single mode change.
	if msg.Tags.Has("subs-only") {
		return
	}

	if slow, ok := msg.Tags.Get("slow"); ok {
		if slow.Kind == irc.TagBool && !slow.Bool {
			c.log.Info("This room is no longer in slow mode.", "channel", channel)
			c.emit(SlowMode{Channel: channel, Enabled: false})
			c.settleLocked(pendingKey{kind: CmdSlowOff, channel: channel}, Reply{}, nil)
		} else {
			seconds := slow.Int()
			c.log.Info("This room is now in slow mode.", "channel", channel, "seconds", seconds)
			c.emit(SlowMode{Channel: channel, Enabled: true, Seconds: seconds})
			c.settleLocked(pendingKey{kind: CmdSlow, channel: channel}, Reply{}, nil)
		}
	}

	// followers-only is minutes, "-1" when disabled.
	if followers, ok := msg.Tags.Get("followers-only"); ok {
		if followers.Kind == irc.TagString && followers.Str == "-1" {
			c.log.Info("This room is no longer in followers-only mode.", "channel", channel)
			c.emit(FollowersOnly{Channel: channel, Enabled: false})
			c.settleLocked(pendingKey{kind: CmdFollowersOnlyOff, channel: channel}, Reply{}, nil)
		} else {
			minutes := followers.Int()
			c.log.Info("This room is now in follower-only mode.", "channel", channel, "minutes", minutes)
			c.emit(FollowersOnly{Channel: channel, Enabled: true, Minutes: minutes})
			c.settleLocked(pendingKey{kind: CmdFollowersOnly, channel: channel}, Reply{}, nil)
		}
	}
}

func (c *Client) handleJTV(msg *irc.Message) {
	channel := irc.Channel(msg.Param(0))

	if msg.Command != "MODE" {
		c.log.Warn("Could not parse message from jtv", "line", msg.Raw)
		return
	}

	username := msg.Param(2)
	switch msg.Param(1) {
	case "+o":
		c.sess.addMod(channel, username)
		c.emit(Mod{Channel: channel, Username: username})
	case "-o":
		c.sess.removeMod(channel, username)
		c.emit(Unmod{Channel: channel, Username: username})
	}
}

func (c *Client) handleUserLine(msg *irc.Message) {
	channel := irc.Channel(msg.Param(0))
	nick := msg.Nick()

	switch msg.Command {
	case "353":
		c.emit(Names{Channel: msg.Param(2), Names: strings.Split(msg.Param(3), " ")})

	case "366":

	case "JOIN":
		// Anonymous sessions get no USERSTATE, their own JOIN is the signal.
		if irc.IsJustinfan(c.sess.username) && c.sess.username == nick {
			c.selfJoinedLocked(channel)
		}
		if c.sess.username != nick {
			c.emit(Join{Channel: channel, Username: nick, Self: false})
		}

	case "PART":
		self := c.sess.username == nick
		if self {
			delete(c.sess.userstate, channel)
			c.sess.removeChannel(channel)
			c.cfg.Channels = removeString(c.cfg.Channels, channel)
			c.rejoin = removeString(c.rejoin, channel)
			c.metrics.SetChannels(len(c.sess.channels))

			c.log.Info("Left channel", "channel", channel)
			c.settleLocked(pendingKey{kind: CmdPart, channel: channel}, Reply{}, nil)
		}
		c.emit(Part{Channel: channel, Username: nick, Self: self})

	case "WHISPER":
		text := msg.Param(1)
		c.log.Info("[WHISPER]", "from", nick, "text", text)

		tags := msg.Tags.Clone()
		if !tags.Has("username") {
			tags["username"] = irc.String(nick)
		}
		tags["message-type"] = irc.String("whisper")

		c.emit(Message{
			Kind:    KindWhisper,
			Channel: irc.Channel(tags.Text("username")),
			Tags:    tags,
			Text:    text,
		})

	case "PRIVMSG":
		c.handlePrivmsg(msg, channel, nick)

	default:
		c.log.Warn("unknown command", "command", msg.Command, "line", msg.Raw)
	}
}

func (c *Client) handlePrivmsg(msg *irc.Message, channel, username string) {
	text := msg.Param(1)
	if text == "" {
		c.log.Error("PRIVMSG command has no msg", nil, "channel", channel)
		return
	}

	tags := msg.Tags.Clone()
	tags["username"] = irc.String(username)

	if username == "jtv" {
		c.handleHostedNotice(channel, text)
		return
	}

	action, isAction := irc.ActionMessage(text)
	kind := KindChat
	if isAction {
		text = action
		kind = KindAction
	}
	tags["message-type"] = irc.String(kind.String())

	// Bits win over every other classification.
	if tags.Has("bits") {
		c.emit(Cheer{Channel: channel, Tags: tags, Text: text, Bits: tags.Int("bits")})
		return
	}

	if msgID, ok := tags.Get("msg-id"); ok {
		switch msgID.Str {
		case "highlighted-message", "skip-subs-mode-message":
			c.emit(Redeem{Channel: channel, Username: username, RewardType: msgID.Str, Tags: tags, Text: text})
		}
	} else if reward, ok := tags.Get("custom-reward-id"); ok {
		c.emit(Redeem{Channel: channel, Username: username, RewardType: reward.Str, Tags: tags, Text: text})
	}

	c.logMessage(kind, channel, username, text)
	c.emit(Message{Kind: kind, Channel: channel, Tags: tags, Text: text})
}

func (c *Client) handleHostedNotice(channel, text string) {
	name := irc.Username(strings.SplitN(text, " ", 2)[0])
	autohost := strings.Contains(text, "auto")

	switch {
	case strings.Contains(text, "hosting you for"):
		c.emit(Hosted{Channel: channel, Username: name, Viewers: irc.ExtractNumber(text), Autohost: autohost})
	case strings.Contains(text, "hosting you"):
		c.emit(Hosted{Channel: channel, Username: name, Autohost: autohost})
	}
}

func (c *Client) logMessage(kind MessageKind, channel, username, text string) {
	level := logger.ParseLevel(c.msgLevel)
	if kind == KindAction {
		c.log.Log(level, "*"+channel, "user", username, "text", text)
		return
	}
	c.log.Log(level, channel, "user", username, "text", text)
}

// selfJoinedLocked records a join of our own identity. It emits at most once
// per channel until the channel is left.
func (c *Client) selfJoinedLocked(channel string) {
	c.sess.lastJoined = channel
	if !c.sess.addChannel(channel) {
		return
	}

	c.log.Info("Joined channel", "channel", channel)
	c.metrics.SetChannels(len(c.sess.channels))
	c.emit(Join{Channel: channel, Username: irc.Username(c.sess.username), Self: true})
}

func removeString(list []string, v string) []string {
	out := list[:0]
	for _, s := range list {
		if s != v {
			out = append(out, s)
		}
	}
	return out
}
