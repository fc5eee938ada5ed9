package tmi

import (
	"strings"
	"time"

	"tmiclient/internal/app/ports"
	"tmiclient/pkg/irc"
)

// updateEmoteSetsLocked records a new emote-sets value and refreshes the
// emote map through the API. A nil sets refreshes the current value.
func (c *Client) updateEmoteSetsLocked(sets *string) {
	changed := false
	if sets != nil && *sets != c.sess.emotes {
		c.sess.emotes = *sets
		changed = true
	}
	raw := c.sess.emotes

	if c.cfg.Options.SkipUpdatingEmotesets {
		if changed {
			c.emit(EmoteSets{Sets: raw, EmoteSets: ports.EmoteSets{}})
		}
		return
	}
	if c.emoteAPI == nil || raw == "" {
		return
	}

	go c.fetchEmoteSets(c.epoch, raw)
}

func (c *Client) fetchEmoteSets(epoch uint64, raw string) {
	token, err := c.token(c.ctx)
	if err != nil {
		c.log.Error("Could not get a token for emote sets", err)
		return
	}

	token = irc.Token(token)
	if token == "" {
		return
	}

	sets, err := c.emoteAPI.GetEmoteSets(c.ctx, token, strings.Split(raw, ","))

	c.mu.Lock()
	defer c.mu.Unlock()

	if epoch != c.epoch || c.closed {
		return
	}
	if err != nil {
		c.log.Error("Failed to fetch emote sets", err, "sets", raw)
	} else {
		c.sess.emoteSets = sets
		c.emit(EmoteSets{Sets: raw, EmoteSets: sets})
	}

	interval := c.cfg.Options.UpdateEmotesetsTimer
	if interval <= 0 {
		return
	}
	c.stopTimer(&c.emotesTimer)
	c.emotesTimer = time.AfterFunc(interval, func() {
		c.mu.Lock()
		defer c.mu.Unlock()

		if epoch != c.epoch {
			return
		}
		c.updateEmoteSetsLocked(nil)
	})
}
