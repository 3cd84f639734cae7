package wsstream

import "sync/atomic"

// Stats holds a connection's traffic counters, backed by atomics rather
// than a mutex since the read loop and the writer update disjoint fields
// concurrently.
type Stats struct {
	messagesSent     uint64
	messagesReceived uint64
	bytesSent        uint64
	bytesReceived    uint64
}

func (s *Stats) addSent(n int) {
	atomic.AddUint64(&s.messagesSent, 1)
	atomic.AddUint64(&s.bytesSent, uint64(n))
}

func (s *Stats) addReceived(n int) {
	atomic.AddUint64(&s.messagesReceived, 1)
	atomic.AddUint64(&s.bytesReceived, uint64(n))
}

func (s *Stats) snapshot() Stats {
	return Stats{
		messagesSent:     atomic.LoadUint64(&s.messagesSent),
		messagesReceived: atomic.LoadUint64(&s.messagesReceived),
		bytesSent:        atomic.LoadUint64(&s.bytesSent),
		bytesReceived:    atomic.LoadUint64(&s.bytesReceived),
	}
}

// MessagesSent is the number of chunks written via Send.
func (s Stats) MessagesSent() uint64 { return s.messagesSent }

// MessagesReceived is the number of chunks read from the connection.
func (s Stats) MessagesReceived() uint64 { return s.messagesReceived }

// BytesSent is the total size, in bytes, of chunks written via Send.
func (s Stats) BytesSent() uint64 { return s.bytesSent }

// BytesReceived is the total size, in bytes, of chunks read from the
// connection.
func (s Stats) BytesReceived() uint64 { return s.bytesReceived }
