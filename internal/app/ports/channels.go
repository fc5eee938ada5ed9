package ports

// ChannelStorePort keeps the list of channels joined on startup.
type ChannelStorePort interface {
	AddChannel(channel string) error
	RemoveChannel(channel string) error
}
