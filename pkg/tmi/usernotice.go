package tmi

import (
	"tmiclient/pkg/irc"
)

func (c *Client) handleUserNotice(msg *irc.Message, channel string) {
	tags := msg.Tags.Clone()
	msgID := tags.Text("msg-id")
	text := msg.Param(1)

	username := tags.Text("display-name")
	if username == "" {
		username = tags.Text("login")
	}
	methods := SubMethods{
		Plan:     tags.Text("msg-param-sub-plan"),
		PlanName: tags.Text("msg-param-sub-plan-name"),
	}
	methods.Prime = methods.Plan == "Prime"
	streak := tags.Int("msg-param-streak-months")

	recipient := tags.Text("msg-param-recipient-display-name")
	if recipient == "" {
		recipient = tags.Text("msg-param-recipient-user-name")
	}
	giftCount := tags.Int("msg-param-mass-gift-count")

	tags["message-type"] = irc.String(msgID)

	switch msgID {
	case "sub":
		c.emit(Subscription{Channel: channel, Username: username, Methods: methods, Text: text, Tags: tags})

	case "resub":
		c.emit(Resub{Channel: channel, Username: username, StreakMonths: streak, Text: text, Tags: tags, Methods: methods})

	case "subgift":
		c.emit(SubGift{Channel: channel, Username: username, StreakMonths: streak, Recipient: recipient, Methods: methods, Tags: tags})

	case "anonsubgift":
		c.emit(AnonSubGift{Channel: channel, StreakMonths: streak, Recipient: recipient, Methods: methods, Tags: tags})

	case "submysterygift":
		c.emit(SubMysteryGift{Channel: channel, Username: username, Count: giftCount, Methods: methods, Tags: tags})

	case "anonsubmysterygift":
		c.emit(AnonSubMysteryGift{Channel: channel, Count: giftCount, Methods: methods, Tags: tags})

	case "primepaidupgrade":
		c.emit(PrimePaidUpgrade{Channel: channel, Username: username, Methods: methods, Tags: tags})

	case "giftpaidupgrade":
		sender := tags.Text("msg-param-sender-name")
		if sender == "" {
			sender = tags.Text("msg-param-sender-login")
		}
		c.emit(GiftPaidUpgrade{Channel: channel, Username: username, Sender: sender, Tags: tags})

	case "anongiftpaidupgrade":
		c.emit(AnonGiftPaidUpgrade{Channel: channel, Username: username, Tags: tags})

	case "raid":
		raider := tags.Text("msg-param-displayName")
		if raider == "" {
			raider = tags.Text("msg-param-login")
		}
		c.emit(Raided{Channel: channel, Username: raider, Viewers: tags.Int("msg-param-viewerCount"), Tags: tags})

	case "ritual":
		name := tags.Text("msg-param-ritual-name")
		if name == "new_chatter" {
			c.emit(NewChatter{Channel: channel, Username: username, Tags: tags, Text: text})
			return
		}
		c.emit(Ritual{Name: name, Channel: channel, Username: username, Tags: tags, Text: text})

	default:
		c.emit(UserNotice{MsgID: msgID, Channel: channel, Tags: tags, Text: text})
	}
}
