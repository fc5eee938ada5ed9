package ports

import "time"

type MetricsPort interface {
	SetState(state string)
	IncReconnect()
	IncLine(command string)
	IncParseFailure()
	ObserveCommand(kind, outcome string, d time.Duration)
	ObserveLatency(d time.Duration)
	SetChannels(n int)
}
