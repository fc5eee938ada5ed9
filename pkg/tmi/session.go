package tmi

import (
	"tmiclient/internal/app/ports"
	"tmiclient/pkg/irc"
)

// session is the per-connection state. It is guarded by Client.mu.
type session struct {
	username   string
	channels   []string // joined, in join order
	lastJoined string

	userstate       map[string]irc.Tags
	globalUserstate irc.Tags
	moderators      map[string]map[string]struct{}

	emotes    string // raw emote-sets tag
	emoteSets ports.EmoteSets
}

func newSession() *session {
	return &session{
		userstate:       make(map[string]irc.Tags),
		globalUserstate: irc.Tags{},
		moderators:      make(map[string]map[string]struct{}),
		emoteSets:       ports.EmoteSets{},
	}
}

// reset clears the room state of a closed connection and returns the
// channels that were joined. Emote data survives reconnects.
func (s *session) reset() []string {
	joined := s.channels
	s.channels = nil
	s.userstate = make(map[string]irc.Tags)
	s.globalUserstate = irc.Tags{}
	s.moderators = make(map[string]map[string]struct{})
	return joined
}

// addChannel reports whether channel was not joined yet.
func (s *session) addChannel(channel string) bool {
	for _, ch := range s.channels {
		if ch == channel {
			return false
		}
	}
	s.channels = append(s.channels, channel)
	return true
}

func (s *session) removeChannel(channel string) {
	for i, ch := range s.channels {
		if ch == channel {
			s.channels = append(s.channels[:i], s.channels[i+1:]...)
			return
		}
	}
}

func (s *session) addMod(channel, username string) {
	mods, ok := s.moderators[channel]
	if !ok {
		mods = make(map[string]struct{})
		s.moderators[channel] = mods
	}
	mods[username] = struct{}{}
}

func (s *session) removeMod(channel, username string) {
	delete(s.moderators[channel], username)
}

func (s *session) isMod(channel, username string) bool {
	_, ok := s.moderators[channel][username]
	return ok
}

func (s *session) emoteCodes() []irc.EmoteCode {
	var codes []irc.EmoteCode
	for _, set := range s.emoteSets {
		for _, e := range set {
			codes = append(codes, irc.EmoteCode{Code: e.Code, ID: e.ID})
		}
	}
	return codes
}
