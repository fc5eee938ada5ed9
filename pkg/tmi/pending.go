package tmi

import (
	"context"
	"sync"
	"time"
)

type CommandKind uint8

const (
	CmdRaw CommandKind = iota
	CmdSay
	CmdJoin
	CmdPart
	CmdPing
	CmdBan
	CmdUnban
	CmdTimeout
	CmdClear
	CmdColor
	CmdCommercial
	CmdDeleteMessage
	CmdEmoteOnly
	CmdEmoteOnlyOff
	CmdFollowersOnly
	CmdFollowersOnlyOff
	CmdHost
	CmdUnhost
	CmdMod
	CmdUnmod
	CmdMods
	CmdVip
	CmdUnvip
	CmdVips
	CmdR9kBeta
	CmdR9kBetaOff
	CmdSlow
	CmdSlowOff
	CmdSubscribers
	CmdSubscribersOff
	CmdWhisper
)

var commandNames = [...]string{
	CmdRaw:              "raw",
	CmdSay:              "say",
	CmdJoin:             "join",
	CmdPart:             "part",
	CmdPing:             "ping",
	CmdBan:              "ban",
	CmdUnban:            "unban",
	CmdTimeout:          "timeout",
	CmdClear:            "clear",
	CmdColor:            "color",
	CmdCommercial:       "commercial",
	CmdDeleteMessage:    "deletemessage",
	CmdEmoteOnly:        "emoteonly",
	CmdEmoteOnlyOff:     "emoteonlyoff",
	CmdFollowersOnly:    "followersonly",
	CmdFollowersOnlyOff: "followersonlyoff",
	CmdHost:             "host",
	CmdUnhost:           "unhost",
	CmdMod:              "mod",
	CmdUnmod:            "unmod",
	CmdMods:             "mods",
	CmdVip:              "vip",
	CmdUnvip:            "unvip",
	CmdVips:             "vips",
	CmdR9kBeta:          "r9kbeta",
	CmdR9kBetaOff:       "r9kbetaoff",
	CmdSlow:             "slow",
	CmdSlowOff:          "slowoff",
	CmdSubscribers:      "subscribers",
	CmdSubscribersOff:   "subscribersoff",
	CmdWhisper:          "whisper",
}

func (k CommandKind) String() string {
	if int(k) < len(commandNames) {
		return commandNames[k]
	}
	return "unknown"
}

// pendingKey identifies an outstanding command. At most one command per key
// is in flight.
type pendingKey struct {
	kind    CommandKind
	channel string
}

// Reply carries the data of a settled command: the list for Mods and Vips,
// the remaining hosts for Host, the round trip for Ping.
type Reply struct {
	Names   []string
	Count   int
	Latency time.Duration
}

// Pending is the completion handle of a command. It settles exactly once.
type Pending struct {
	key       pendingKey
	created   time.Time
	timer     *time.Timer
	onTimeout func() (Reply, error)

	once  sync.Once
	done  chan struct{}
	reply Reply
	err   error
}

func newPending(key pendingKey) *Pending {
	return &Pending{
		key:     key,
		created: time.Now(),
		done:    make(chan struct{}),
	}
}

// settle reports whether this call was the one that settled p.
func (p *Pending) settle(reply Reply, err error) bool {
	settled := false
	p.once.Do(func() {
		p.reply, p.err = reply, err
		close(p.done)
		settled = true
	})
	return settled
}

func (p *Pending) Done() <-chan struct{} {
	return p.done
}

// Wait blocks until the command settles or ctx ends. Giving up on ctx leaves
// the command registered until its own deadline.
func (p *Pending) Wait(ctx context.Context) (Reply, error) {
	select {
	case <-p.done:
		return p.reply, p.err
	case <-ctx.Done():
		return Reply{}, ctx.Err()
	}
}

func (p *Pending) Err() error {
	<-p.done
	return p.err
}
