package swim

// A MessageName names one of the four protocol messages.
type MessageName string

const (
	Ping        MessageName = "ping"
	Ack         MessageName = "ack"
	PingReq     MessageName = "ping_req"
	PingReqAck  MessageName = "ping_req_ack"
)

// CorrelationMeta is present on a ping_req, a ping_req_ack, and on the
// ping/ack sent on behalf of a ping_req. Its presence is the sole mechanism
// by which an ack on behalf of another probe is routed back to the
// originator as a ping_req_ack.
type CorrelationMeta struct {
	RequestedByMemberId MemberId
	MemberIdToPing      MemberId
}

// An AliveRumor reports that a member is alive as of a given incarnation.
type AliveRumor struct {
	Id          MemberId
	Incarnation Incarnation
}

// A DeadRumor reports that a member is dead as of a given incarnation.
type DeadRumor struct {
	Id          MemberId
	Incarnation Incarnation
}

// PiggybackPayload carries epidemic membership updates riding on a ping or
// ack. Message.EqualIgnoringPiggyback disregards it so that identical
// protocol intent compares equal regardless of gossip contents;
// Message.Equal compares it too.
type PiggybackPayload struct {
	Alive []AliveRumor
	Dead  []DeadRumor
}

// A Message is a tagged record naming one of the four protocol messages,
// plus optional correlation metadata and an optional piggyback payload.
type Message struct {
	Name      MessageName
	Meta      *CorrelationMeta
	Piggyback *PiggybackPayload
}

// NewPing returns a ping message with no correlation metadata.
func NewPing() Message {
	return Message{Name: Ping}
}

// NewAck returns an ack message carrying the given metadata, which may be
// nil.
func NewAck(meta *CorrelationMeta) Message {
	return Message{Name: Ack, Meta: meta}
}

// NewPingReq returns a ping_req message asking its recipient to ping
// memberIdToPing on behalf of requestedByMemberId.
func NewPingReq(requestedByMemberId, memberIdToPing MemberId) Message {
	return Message{
		Name: PingReq,
		Meta: &CorrelationMeta{
			RequestedByMemberId: requestedByMemberId,
			MemberIdToPing:      memberIdToPing,
		},
	}
}

// NewPingReqAck returns a ping_req_ack message reporting that memberIdToPing
// is reachable, addressed back to requestedByMemberId.
func NewPingReqAck(requestedByMemberId, memberIdToPing MemberId) Message {
	return Message{
		Name: PingReqAck,
		Meta: &CorrelationMeta{
			RequestedByMemberId: requestedByMemberId,
			MemberIdToPing:      memberIdToPing,
		},
	}
}

// EqualIgnoringPiggyback reports whether m and other name the same message
// with the same correlation metadata, disregarding any piggyback payload.
// Protocol logic routes on name+meta; piggyback is transient gossip.
func (m Message) EqualIgnoringPiggyback(other Message) bool {
	if m.Name != other.Name {
		return false
	}
	return metaEqual(m.Meta, other.Meta)
}

// Equal reports whether m and other are identical, including piggyback
// contents.
func (m Message) Equal(other Message) bool {
	return m.EqualIgnoringPiggyback(other) && piggybackEqual(m.Piggyback, other.Piggyback)
}

func metaEqual(a, b *CorrelationMeta) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func piggybackEqual(a, b *PiggybackPayload) bool {
	if a == nil || b == nil {
		return a == b
	}
	if len(a.Alive) != len(b.Alive) || len(a.Dead) != len(b.Dead) {
		return false
	}
	for i := range a.Alive {
		if a.Alive[i] != b.Alive[i] {
			return false
		}
	}
	for i := range a.Dead {
		if a.Dead[i] != b.Dead[i] {
			return false
		}
	}
	return true
}
