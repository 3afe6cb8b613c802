package bridge

import "sync/atomic"

// Stats is a point-in-time snapshot of bridge counters.
type Stats struct {
	// Connection metrics
	Connects        uint64
	ConnectFailures uint64
	Reconnects      uint64
	Disconnects     uint64

	// Message metrics
	MessagesReceived   uint64
	MessagesDispatched uint64
	MessagesSent       uint64
	SendFailures       uint64
	DecodeFailures     uint64
	DroppedFrames      uint64

	BytesReceived uint64
	BytesSent     uint64

	Pending int
}

type counters struct {
	connects        atomic.Uint64
	connectFailures atomic.Uint64
	reconnects      atomic.Uint64
	disconnects     atomic.Uint64

	messagesReceived   atomic.Uint64
	messagesDispatched atomic.Uint64
	messagesSent       atomic.Uint64
	sendFailures       atomic.Uint64
	decodeFailures     atomic.Uint64
	droppedFrames      atomic.Uint64

	bytesReceived atomic.Uint64
	bytesSent     atomic.Uint64
}

func (c *counters) snapshot(pending int) Stats {
	return Stats{
		Connects:           c.connects.Load(),
		ConnectFailures:    c.connectFailures.Load(),
		Reconnects:         c.reconnects.Load(),
		Disconnects:        c.disconnects.Load(),
		MessagesReceived:   c.messagesReceived.Load(),
		MessagesDispatched: c.messagesDispatched.Load(),
		MessagesSent:       c.messagesSent.Load(),
		SendFailures:       c.sendFailures.Load(),
		DecodeFailures:     c.decodeFailures.Load(),
		DroppedFrames:      c.droppedFrames.Load(),
		BytesReceived:      c.bytesReceived.Load(),
		BytesSent:          c.bytesSent.Load(),
		Pending:            pending,
	}
}
