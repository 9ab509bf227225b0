package swim

import (
	"sync"
	"sync/atomic"

	"github.com/sirupsen/logrus"
)

// A Transport sends serialized messages to an address and delivers incoming
// bytes to a Router. Implementations may back this with a real socket or, as
// LoopbackTransport does, with a direct in-process handoff for testing.
//
// Send serializes and transmits a message. Inbound delivery is not part of
// the interface: each implementation decodes arriving bytes with its own
// delivery mechanism (LoopbackTransport's in-process handoff, a socket read
// loop) and hands the decoded Message to the registered Router's OnIncoming.
type Transport interface {
	// RegisterRouter hooks the transport up to the Router that should
	// receive its deserialized inbound messages.
	RegisterRouter(r *Router)

	// Send serializes message and transmits it to toAddress, attributing it
	// to fromSender.
	Send(toAddress MemberId, message Message, fromSender MemberId) error

	// Counters returns the transport's running message/byte counters.
	Counters() TransportCounters
}

// TransportCounters reports how many messages and bytes a Transport has sent
// and received.
type TransportCounters struct {
	SentMessages     uint64
	ReceivedMessages uint64
	SentBytes        uint64
	ReceivedBytes    uint64
}

// LoopbackTransport is a Transport that only delivers to other local
// Memberships (reached through the same Router), short-circuiting Send
// directly into the Router's inbound path. It supports directional
// partition simulation: if (fromSender, toAddress) is in the blocked set,
// the message is silently dropped, as over a lossy real network.
type LoopbackTransport struct {
	codec Codec
	log   logrus.FieldLogger

	mu      sync.Mutex
	router  *Router
	blocked map[partitionEdge]bool

	sentMessages     atomic.Uint64
	receivedMessages atomic.Uint64
	sentBytes        atomic.Uint64
	receivedBytes    atomic.Uint64
}

type partitionEdge struct {
	from, to MemberId
}

// NewLoopbackTransport returns a LoopbackTransport using codec to serialize
// messages, and log (which may be nil, in which case logrus.StandardLogger
// is used) to report dropped malformed datagrams.
func NewLoopbackTransport(codec Codec, log logrus.FieldLogger) *LoopbackTransport {
	if codec == nil {
		codec = JSONCodec{}
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &LoopbackTransport{
		codec:   codec,
		log:     log,
		blocked: make(map[partitionEdge]bool),
	}
}

// RegisterRouter implements Transport.
func (t *LoopbackTransport) RegisterRouter(r *Router) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.router = r
}

// SimulatePartitionBetween causes every message sent from fromSender to
// toAddress to be silently dropped, until the edge is healed. The reverse
// direction is unaffected.
func (t *LoopbackTransport) SimulatePartitionBetween(fromSender, toAddress MemberId) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.blocked[partitionEdge{fromSender, toAddress}] = true
}

// HealPartitionBetween removes a previously simulated partition.
func (t *LoopbackTransport) HealPartitionBetween(fromSender, toAddress MemberId) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.blocked, partitionEdge{fromSender, toAddress})
}

// Send implements Transport.
func (t *LoopbackTransport) Send(toAddress MemberId, message Message, fromSender MemberId) error {
	b, err := t.codec.Encode(message)
	if err != nil {
		return err
	}
	t.sentMessages.Add(1)
	t.sentBytes.Add(uint64(len(b)))

	t.mu.Lock()
	blocked := t.blocked[partitionEdge{fromSender, toAddress}]
	router := t.router
	t.mu.Unlock()
	if blocked {
		return nil
	}
	t.onIncoming(toAddress, b, fromSender, router)
	return nil
}

func (t *LoopbackTransport) onIncoming(toAddress MemberId, b []byte, fromSender MemberId, router *Router) {
	t.receivedMessages.Add(1)
	t.receivedBytes.Add(uint64(len(b)))

	message, err := t.codec.Decode(b)
	if err != nil {
		t.log.WithFields(logrus.Fields{
			"to_address":  toAddress,
			"from_sender": fromSender,
			"error":       err,
		}).Warn("swim: dropping malformed datagram")
		return
	}
	if router == nil {
		return
	}
	router.OnIncoming(toAddress, message, fromSender)
}

// Counters implements Transport.
func (t *LoopbackTransport) Counters() TransportCounters {
	return TransportCounters{
		SentMessages:     t.sentMessages.Load(),
		ReceivedMessages: t.receivedMessages.Load(),
		SentBytes:        t.sentBytes.Load(),
		ReceivedBytes:    t.receivedBytes.Load(),
	}
}
