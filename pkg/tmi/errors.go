package tmi

import (
	"errors"
	"fmt"
)

var (
	// ErrNotConnected is returned by every command issued without an open socket.
	ErrNotConnected = errors.New("not connected to server")
	// ErrNoResponse means the server sent no correlated reply before the
	// deadline. The command may still have been applied.
	ErrNoResponse = errors.New("no response from twitch")
	// ErrDisconnected fails commands that were pending when the socket closed.
	ErrDisconnected     = errors.New("connection closed before reply")
	ErrAnonymous        = errors.New("cannot send anonymous messages")
	ErrWhisperSelf      = errors.New("cannot send a whisper to the same account")
	ErrCommandPending   = errors.New("a command of the same kind is already pending for this channel")
	ErrCannotDisconnect = errors.New("cannot disconnect from server: socket is not opened or connection is already closing")
	ErrAlreadyConnected = errors.New("already connected or connecting")
	ErrClientClosed     = errors.New("client closed")
	ErrNoTransport      = errors.New("transport is required")
)

// CommandError is an explicit rejection of a command by the server.
type CommandError struct {
	MsgID   string
	Channel string
}

func (e *CommandError) Error() string {
	if e.Channel == "" {
		return fmt.Sprintf("command rejected: %s", e.MsgID)
	}
	return fmt.Sprintf("command rejected in %s: %s", e.Channel, e.MsgID)
}

// DisconnectError fails a Connect call that ended before the welcome message.
type DisconnectError struct {
	Reason string
}

func (e *DisconnectError) Error() string {
	return "disconnected: " + e.Reason
}
