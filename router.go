package swim

import (
	"sync"

	"github.com/sirupsen/logrus"
)

// inboundDispatcher is the narrow interface a Router needs from whatever is
// registered for a MemberId. *Membership satisfies it; tests may register a
// smaller stub instead.
type inboundDispatcher interface {
	OnIncoming(message Message, fromSenderId MemberId)
}

// A Router owns a Transport and holds a mapping from local MemberId to the
// Membership instance that owns that id, dispatching inbound messages to
// the right instance and forwarding outbound sends to the transport. It
// performs no protocol logic of its own.
type Router struct {
	transport Transport
	log       logrus.FieldLogger

	mu      sync.RWMutex
	members map[MemberId]inboundDispatcher
}

// NewRouter returns a Router that sends and receives through transport. It
// registers itself with transport as the recipient of inbound deliveries.
func NewRouter(transport Transport, log logrus.FieldLogger) *Router {
	if log == nil {
		log = logrus.StandardLogger()
	}
	r := &Router{
		transport: transport,
		log:       log,
		members:   make(map[MemberId]inboundDispatcher),
	}
	transport.RegisterRouter(r)
	return r
}

// Register adds or replaces the Membership that should receive messages
// addressed to id.
func (r *Router) Register(id MemberId, m *Membership) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.members[id] = m
}

// registerStub is a test hook allowing a lighter inboundDispatcher than a
// full Membership to be registered for an address.
func (r *Router) registerStub(id MemberId, d inboundDispatcher) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.members[id] = d
}

// Unregister removes the Membership registered for id, if any.
func (r *Router) Unregister(id MemberId) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.members, id)
}

// SendTo transmits message to toMemberId via the Router's transport,
// attributing it to fromMemberId.
func (r *Router) SendTo(toMemberId MemberId, message Message, fromMemberId MemberId) error {
	return r.transport.Send(toMemberId, message, fromMemberId)
}

// OnIncoming routes an inbound message to the Membership registered for
// toAddress. If no Membership is registered there, it is a RoutingFault:
// programmer error, signaled loudly rather than silently dropped.
func (r *Router) OnIncoming(toAddress MemberId, message Message, fromSender MemberId) {
	r.mu.RLock()
	m, ok := r.members[toAddress]
	r.mu.RUnlock()
	if !ok {
		fault := &RoutingFault{ToAddress: toAddress}
		r.log.WithFields(logrus.Fields{
			"to_address":  toAddress,
			"from_sender": fromSender,
		}).Error(fault.Error())
		return
	}
	m.OnIncoming(message, fromSender)
}
