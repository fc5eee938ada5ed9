package ports

import "context"

// TransportPort opens message-oriented connections to the chat server.
type TransportPort interface {
	Dial(ctx context.Context, url string) (ConnPort, error)
}

// ConnPort is one open connection. ReadMessage blocks until a text frame
// arrives; a frame may hold several CRLF separated lines. Close unblocks a
// pending ReadMessage.
type ConnPort interface {
	ReadMessage() (string, error)
	WriteMessage(text string) error
	Close() error
}
