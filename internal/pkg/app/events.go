package app

import (
	"log/slog"

	"tmiclient/pkg/logger"
	"tmiclient/pkg/tmi"
)

// eventLogger writes connection, moderation and community events to the log.
// Chat lines are logged by the client itself.
type eventLogger struct {
	log logger.Logger
}

func newEventLogger(log logger.Logger) *eventLogger {
	return &eventLogger{log: logger.NewPrefixedLogger(log, "events")}
}

func (l *eventLogger) handle(ev tmi.Event) {
	switch e := ev.(type) {
	case tmi.Connecting:
		l.log.Info("Connecting", slog.String("server", e.Server), slog.Int("port", e.Port))
	case tmi.Disconnected:
		l.log.Warn("Disconnected", slog.String("reason", e.Reason))
	case tmi.Reconnect:
		l.log.Info("Reconnecting", slog.Int("attempt", e.Attempt), slog.Duration("delay", e.Delay))
	case tmi.MaxReconnect:
		l.log.Error("Maximum reconnection attempts reached", nil)
	case tmi.Join:
		if e.Self {
			l.log.Info("Joined", slog.String("channel", e.Channel))
		}
	case tmi.Part:
		if e.Self {
			l.log.Info("Left", slog.String("channel", e.Channel))
		}
	case tmi.Notice:
		l.log.Info("Notice", slog.String("channel", e.Channel), slog.String("msg_id", e.MsgID), slog.String("text", e.Text))
	case tmi.Ban:
		l.log.Info("User banned", slog.String("channel", e.Channel), slog.String("user", e.Username))
	case tmi.Timeout:
		l.log.Info("User timed out", slog.String("channel", e.Channel), slog.String("user", e.Username), slog.Duration("duration", e.Duration))
	case tmi.ClearChat:
		l.log.Info("Chat cleared", slog.String("channel", e.Channel))
	case tmi.MessageDeleted:
		l.log.Info("Message deleted", slog.String("channel", e.Channel), slog.String("user", e.Username))
	case tmi.Cheer:
		l.log.Info("Cheer", slog.String("channel", e.Channel), slog.Int("bits", e.Bits))
	case tmi.Subscription:
		l.log.Info("Subscription", slog.String("channel", e.Channel), slog.String("user", e.Username), slog.String("plan", e.Methods.Plan))
	case tmi.Resub:
		l.log.Info("Resub", slog.String("channel", e.Channel), slog.String("user", e.Username), slog.Int("streak", e.StreakMonths))
	case tmi.SubGift:
		l.log.Info("Sub gift", slog.String("channel", e.Channel), slog.String("user", e.Username), slog.String("recipient", e.Recipient))
	case tmi.SubMysteryGift:
		l.log.Info("Mystery gift", slog.String("channel", e.Channel), slog.String("user", e.Username), slog.Int("count", e.Count))
	case tmi.Raided:
		l.log.Info("Raid", slog.String("channel", e.Channel), slog.String("from", e.Username), slog.Int("viewers", e.Viewers))
	case tmi.Hosting:
		l.log.Info("Hosting", slog.String("channel", e.Channel), slog.String("target", e.Target))
	case tmi.EmoteSets:
		l.log.Debug("Emote sets updated", slog.String("sets", e.Sets), slog.Int("resolved", len(e.EmoteSets)))
	case tmi.Pong:
		l.log.Trace("Pong", slog.Duration("latency", e.Latency))
	}
}
