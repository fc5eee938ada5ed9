package tmi

import (
	"strings"

	"tmiclient/pkg/irc"
)

// noticeResult binds a NOTICE msg-id to the command it answers.
type noticeResult struct {
	kind CommandKind
	fail bool
}

var noticeResults = map[string]noticeResult{
	"ban_success":         {kind: CmdBan},
	"already_banned":      {kind: CmdBan, fail: true},
	"bad_ban_admin":       {kind: CmdBan, fail: true},
	"bad_ban_broadcaster": {kind: CmdBan, fail: true},
	"bad_ban_global_mod":  {kind: CmdBan, fail: true},
	"bad_ban_self":        {kind: CmdBan, fail: true},
	"bad_ban_staff":       {kind: CmdBan, fail: true},
	"usage_ban":           {kind: CmdBan, fail: true},

	"usage_clear": {kind: CmdClear, fail: true},

	"usage_mods": {kind: CmdMods, fail: true},

	"mod_success":    {kind: CmdMod},
	"usage_mod":      {kind: CmdMod, fail: true},
	"bad_mod_banned": {kind: CmdMod, fail: true},
	"bad_mod_mod":    {kind: CmdMod, fail: true},

	"unmod_success": {kind: CmdUnmod},
	"usage_unmod":   {kind: CmdUnmod, fail: true},
	"bad_unmod_mod": {kind: CmdUnmod, fail: true},

	"usage_vips": {kind: CmdVips, fail: true},

	"vip_success":                    {kind: CmdVip},
	"usage_vip":                      {kind: CmdVip, fail: true},
	"bad_vip_grantee_banned":         {kind: CmdVip, fail: true},
	"bad_vip_grantee_already_vip":    {kind: CmdVip, fail: true},
	"bad_vip_max_vips_reached":       {kind: CmdVip, fail: true},
	"bad_vip_achievement_incomplete": {kind: CmdVip, fail: true},

	"unvip_success":             {kind: CmdUnvip},
	"usage_unvip":               {kind: CmdUnvip, fail: true},
	"bad_unvip_grantee_not_vip": {kind: CmdUnvip, fail: true},

	"color_changed":    {kind: CmdColor},
	"usage_color":      {kind: CmdColor, fail: true},
	"turbo_only_color": {kind: CmdColor, fail: true},

	"commercial_success":   {kind: CmdCommercial},
	"usage_commercial":     {kind: CmdCommercial, fail: true},
	"bad_commercial_error": {kind: CmdCommercial, fail: true},

	"bad_host_hosting":       {kind: CmdHost, fail: true},
	"bad_host_rate_exceeded": {kind: CmdHost, fail: true},
	"bad_host_error":         {kind: CmdHost, fail: true},
	"usage_host":             {kind: CmdHost, fail: true},

	"usage_unhost": {kind: CmdUnhost, fail: true},
	"not_hosting":  {kind: CmdUnhost, fail: true},

	"already_r9k_on":  {kind: CmdR9kBeta, fail: true},
	"usage_r9k_on":    {kind: CmdR9kBeta, fail: true},
	"already_r9k_off": {kind: CmdR9kBetaOff, fail: true},
	"usage_r9k_off":   {kind: CmdR9kBetaOff, fail: true},

	"timeout_success":         {kind: CmdTimeout},
	"usage_timeout":           {kind: CmdTimeout, fail: true},
	"bad_timeout_admin":       {kind: CmdTimeout, fail: true},
	"bad_timeout_broadcaster": {kind: CmdTimeout, fail: true},
	"bad_timeout_duration":    {kind: CmdTimeout, fail: true},
	"bad_timeout_global_mod":  {kind: CmdTimeout, fail: true},
	"bad_timeout_self":        {kind: CmdTimeout, fail: true},
	"bad_timeout_staff":       {kind: CmdTimeout, fail: true},

	"unban_success":     {kind: CmdUnban},
	"untimeout_success": {kind: CmdUnban},
	"usage_unban":       {kind: CmdUnban, fail: true},
	"bad_unban_no_ban":  {kind: CmdUnban, fail: true},

	"delete_message_success":         {kind: CmdDeleteMessage},
	"usage_delete":                   {kind: CmdDeleteMessage, fail: true},
	"bad_delete_message_error":       {kind: CmdDeleteMessage, fail: true},
	"bad_delete_message_broadcaster": {kind: CmdDeleteMessage, fail: true},
	"bad_delete_message_mod":         {kind: CmdDeleteMessage, fail: true},

	"already_subs_off": {kind: CmdSubscribersOff, fail: true},
	"usage_subs_off":   {kind: CmdSubscribersOff, fail: true},
	"already_subs_on":  {kind: CmdSubscribers, fail: true},
	"usage_subs_on":    {kind: CmdSubscribers, fail: true},

	"already_emote_only_off": {kind: CmdEmoteOnlyOff, fail: true},
	"usage_emote_only_off":   {kind: CmdEmoteOnlyOff, fail: true},
	"already_emote_only_on":  {kind: CmdEmoteOnly, fail: true},
	"usage_emote_only_on":    {kind: CmdEmoteOnly, fail: true},

	"usage_slow_on":  {kind: CmdSlow, fail: true},
	"usage_slow_off": {kind: CmdSlowOff, fail: true},

	"whisper_invalid_login":        {kind: CmdWhisper, fail: true},
	"whisper_invalid_self":         {kind: CmdWhisper, fail: true},
	"whisper_limit_per_min":        {kind: CmdWhisper, fail: true},
	"whisper_limit_per_sec":        {kind: CmdWhisper, fail: true},
	"whisper_restricted":           {kind: CmdWhisper, fail: true},
	"whisper_restricted_recipient": {kind: CmdWhisper, fail: true},
}

// Permission errors reject whatever is pending on the channel.
var permissionNotices = map[string]struct{}{
	"no_permission":         {},
	"msg_banned":            {},
	"msg_room_not_found":    {},
	"msg_channel_suspended": {},
	"tos_ban":               {},
	"invalid_user":          {},
}

// Forwarded as Notice without touching any command.
var plainNotices = map[string]struct{}{
	"unrecognized_cmd":           {},
	"cmds_available":             {},
	"host_target_went_offline":   {},
	"msg_censored_broadcaster":   {},
	"msg_duplicate":              {},
	"msg_emoteonly":              {},
	"msg_verified_email":         {},
	"msg_ratelimit":              {},
	"msg_subsonly":               {},
	"msg_timedout":               {},
	"msg_bad_characters":         {},
	"msg_channel_blocked":        {},
	"msg_facebook":               {},
	"msg_followersonly":          {},
	"msg_followersonly_followed": {},
	"msg_followersonly_zero":     {},
	"msg_slowmode":               {},
	"msg_suspended":              {},
	"no_help":                    {},
	"usage_disconnect":           {},
	"usage_help":                 {},
	"usage_me":                   {},
	"unavailable_command":        {},
}

// loginFailures close the session for good.
var loginFailures = []struct {
	match  string
	reason string
}{
	{match: "Login unsuccessful"},
	{match: "Login authentication failed"},
	{match: "Error logging in"},
	{match: "Improperly formatted auth"},
	{match: "Invalid NICK", reason: "Invalid NICK."},
}

func (c *Client) handleNotice(msg *irc.Message, channel string) {
	msgID := msg.Tags.Text("msg-id")
	text := msg.Param(1)

	switch msgID {
	case "subs_on":
		c.log.Info("This room is now in subscribers-only mode.", "channel", channel)
		c.emit(Subscribers{Channel: channel, Enabled: true})
		c.settleLocked(pendingKey{kind: CmdSubscribers, channel: channel}, Reply{}, nil)

	case "subs_off":
		c.log.Info("This room is no longer in subscribers-only mode.", "channel", channel)
		c.emit(Subscribers{Channel: channel, Enabled: false})
		c.settleLocked(pendingKey{kind: CmdSubscribersOff, channel: channel}, Reply{}, nil)

	case "emote_only_on":
		c.log.Info("This room is now in emote-only mode.", "channel", channel)
		c.emit(EmoteOnly{Channel: channel, Enabled: true})
		c.settleLocked(pendingKey{kind: CmdEmoteOnly, channel: channel}, Reply{}, nil)

	case "emote_only_off":
		c.log.Info("This room is no longer in emote-only mode.", "channel", channel)
		c.emit(EmoteOnly{Channel: channel, Enabled: false})
		c.settleLocked(pendingKey{kind: CmdEmoteOnlyOff, channel: channel}, Reply{}, nil)

	// ROOMSTATE carries the durations, HOSTTARGET the host changes.
	case "slow_on", "slow_off", "followers_on_zero", "followers_on", "followers_off", "host_on", "host_off":

	case "r9k_on":
		c.log.Info("This room is now in r9k mode.", "channel", channel)
		c.emit(R9kBeta{Channel: channel, Enabled: true})
		c.settleLocked(pendingKey{kind: CmdR9kBeta, channel: channel}, Reply{}, nil)

	case "r9k_off":
		c.log.Info("This room is no longer in r9k mode.", "channel", channel)
		c.emit(R9kBeta{Channel: channel, Enabled: false})
		c.settleLocked(pendingKey{kind: CmdR9kBetaOff, channel: channel}, Reply{}, nil)

	case "room_mods", "no_mods":
		mods := []string{}
		if msgID == "room_mods" {
			mods = parseNameList(text)
		}
		for _, m := range mods {
			c.sess.addMod(channel, m)
		}
		c.emit(Mods{Channel: channel, Mods: mods})
		c.settleLocked(pendingKey{kind: CmdMods, channel: channel}, Reply{Names: mods}, nil)

	case "vips_success", "no_vips":
		vips := []string{}
		if msgID == "vips_success" {
			vips = parseNameList(strings.TrimSuffix(text, "."))
		}
		c.emit(Vips{Channel: channel, Vips: vips})
		c.settleLocked(pendingKey{kind: CmdVips, channel: channel}, Reply{Names: vips}, nil)

	case "hosts_remaining":
		remaining := 0
		if text != "" && text[0] >= '0' && text[0] <= '9' {
			remaining = int(text[0] - '0')
		}
		c.log.Info(text, "channel", channel)
		c.emit(Notice{Channel: channel, MsgID: msgID, Text: text})
		c.settleLocked(pendingKey{kind: CmdHost, channel: channel}, Reply{Count: remaining}, nil)

	case "msg_rejected", "msg_rejected_mandatory":
		c.log.Info(text, "channel", channel, "msg_id", msgID)
		c.emit(Automod{Channel: channel, MsgID: msgID, Text: text})

	default:
		c.handleOtherNotice(channel, msgID, text)
	}
}

func (c *Client) handleOtherNotice(channel, msgID, text string) {
	if res, ok := noticeResults[msgID]; ok {
		c.log.Info(text, "channel", channel, "msg_id", msgID)
		c.emit(Notice{Channel: channel, MsgID: msgID, Text: text})

		var err error
		if res.fail {
			err = &CommandError{MsgID: msgID, Channel: channel}
		}
		c.settleLocked(pendingKey{kind: res.kind, channel: channel}, Reply{}, err)
		return
	}

	if _, ok := permissionNotices[msgID]; ok {
		c.log.Info(text, "channel", channel, "msg_id", msgID)
		c.emit(Notice{Channel: channel, MsgID: msgID, Text: text})
		c.failChannelLocked(channel, &CommandError{MsgID: msgID, Channel: channel})
		return
	}

	if _, ok := plainNotices[msgID]; ok {
		c.log.Info(text, "channel", channel, "msg_id", msgID)
		c.emit(Notice{Channel: channel, MsgID: msgID, Text: text})
		return
	}

	if text == "" {
		c.log.Error("default notice has no msg", nil, "channel", channel, "msg_id", msgID)
		return
	}

	for _, lf := range loginFailures {
		if !strings.Contains(text, lf.match) {
			continue
		}

		reason := lf.reason
		if reason == "" {
			reason = text
		}
		c.log.Error(reason, nil)
		c.reconnect = false
		c.reason = reason
		c.closeConnLocked()
		return
	}

	c.log.Warn("Could not parse NOTICE from tmi.twitch.tv", "channel", channel, "msg_id", msgID, "text", text)
	c.emit(Notice{Channel: channel, MsgID: msgID, Text: text})
}

// parseNameList reads "The moderators of this channel are: a, b, c".
func parseNameList(text string) []string {
	_, list, ok := strings.Cut(text, ": ")
	if !ok {
		return []string{}
	}

	names := []string{}
	for _, n := range strings.Split(strings.ToLower(list), ", ") {
		if n = strings.TrimSpace(n); n != "" {
			names = append(names, n)
		}
	}
	return names
}
