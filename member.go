package swim

import (
	"time"

	"github.com/sirupsen/logrus"
)

// A LivenessState describes what the local member believes about a peer.
// There is no intermediate Suspect state: a peer is Unknown until its first
// probe resolves, then Alive or Dead.
type LivenessState int

const (
	Unknown LivenessState = iota
	Alive
	Dead
)

func (s LivenessState) String() string {
	switch s {
	case Alive:
		return "alive"
	case Dead:
		return "dead"
	default:
		return "unknown"
	}
}

// A RemoteMember holds per-peer state: liveness status, incarnation, the
// active failure-detection transaction (if any), and a non-owning back
// reference to the Membership that owns it. A RemoteMember exists for the
// full lifetime of its owning Membership and handles exactly one
// FailureDetectionTransaction at a time.
type RemoteMember struct {
	remoteMemberId MemberId
	incarnation    Incarnation
	state          LivenessState

	activeTransaction *FailureDetectionTransaction

	// membership is a non-owning back-reference; RemoteMember never owns it.
	membership *Membership
}

// newRemoteMember creates a RemoteMember in the Unknown state. Start must be
// called before it can be used (it has no owning Membership until then).
func newRemoteMember(id MemberId) *RemoteMember {
	return &RemoteMember{remoteMemberId: id, state: Unknown}
}

// start attaches rm to its owning Membership. Idempotent.
func (rm *RemoteMember) start(m *Membership) {
	rm.membership = m
}

// Id returns the MemberId this RemoteMember tracks.
func (rm *RemoteMember) Id() MemberId { return rm.remoteMemberId }

// State returns the locally believed liveness state of this peer.
func (rm *RemoteMember) State() LivenessState { return rm.state }

// Incarnation returns the locally recorded incarnation of this peer.
func (rm *RemoteMember) Incarnation() Incarnation { return rm.incarnation }

// isBeingChecked reports whether a FailureDetectionTransaction is currently
// active for this peer.
func (rm *RemoteMember) isBeingChecked() bool {
	return rm.activeTransaction != nil
}

// onTick prods rm's active transaction, if any, to check its timeouts.
func (rm *RemoteMember) onTick(timeNow time.Time) {
	if rm.activeTransaction != nil {
		rm.activeTransaction.OnTick(timeNow)
	}
}

// beginCheckingForFailure starts a new FailureDetectionTransaction for this
// peer. rm must have an owning membership and no active transaction.
func (rm *RemoteMember) beginCheckingForFailure(timeNow time.Time) {
	if rm.membership == nil {
		panic("swim: RemoteMember.beginCheckingForFailure called before start")
	}
	if rm.activeTransaction != nil {
		panic("swim: RemoteMember.beginCheckingForFailure called with a transaction already active")
	}
	rm.activeTransaction = newFailureDetectionTransaction(rm, rm.membership.config.ResponseTimeout)
	rm.activeTransaction.Start(timeNow)
}

// nodeAlive transitions rm to Alive and clears its active transaction.
func (rm *RemoteMember) nodeAlive() {
	wasAlive := rm.state == Alive
	rm.state = Alive
	rm.activeTransaction = nil
	if !wasAlive {
		rm.membership.notify(MembershipEvent{MemberId: rm.remoteMemberId, State: Alive})
	}
}

// nodeFailed transitions rm to Dead and clears its active transaction.
func (rm *RemoteMember) nodeFailed() {
	wasDead := rm.state == Dead
	rm.state = Dead
	rm.activeTransaction = nil
	if !wasDead {
		rm.membership.notify(MembershipEvent{MemberId: rm.remoteMemberId, State: Dead})
	}
}

// sendPing emits a bare ping (no correlation metadata) to this peer.
func (rm *RemoteMember) sendPing() {
	rm.membership.sendTo(NewPing(), rm.remoteMemberId)
}

// sendPingReqs selects up to K subgroup members via the owning Membership
// and asks each to ping this peer on the local member's behalf.
func (rm *RemoteMember) sendPingReqs() {
	localId := rm.membership.memberId
	subgroup := rm.membership.selectNodesToPingReq(rm.remoteMemberId)
	msg := NewPingReq(localId, rm.remoteMemberId)
	for _, peer := range subgroup {
		rm.membership.sendTo(msg, peer.Id())
	}
}

// handleIncoming processes a message received from this peer: an active
// transaction claims any ack/ping_req_ack first, then the message is
// dispatched by name (ping replied to, ping_req forwarded, ack/ping_req_ack
// relayed back to their requester).
func (rm *RemoteMember) handleIncoming(message Message) {
	if rm.activeTransaction != nil && (message.Name == Ack || message.Name == PingReqAck) {
		if message.Name == Ack {
			rm.activeTransaction.OnAck()
		} else {
			rm.activeTransaction.OnPingReqAck()
		}
		return
	}

	switch message.Name {
	case Ping:
		// Always reply with an ack carrying the same metadata, whether or
		// not this ping was itself sent on behalf of a ping_req: the
		// metadata is what lets the eventual requester route the ack back
		// as a ping_req_ack.
		rm.membership.sendTo(NewAck(message.Meta), rm.remoteMemberId)

	case PingReq:
		if message.Meta == nil {
			return
		}
		rm.membership.sendTo(Message{Name: Ping, Meta: message.Meta}, message.Meta.MemberIdToPing)

	case Ack:
		if message.Meta == nil {
			// An ack with no correlation metadata and no active local
			// transaction has no bearer: nothing is waiting on it.
			rm.logger().Debug("swim: dropping unsolicited ack")
			return
		}
		rm.membership.sendTo(
			NewPingReqAck(message.Meta.RequestedByMemberId, message.Meta.MemberIdToPing),
			message.Meta.RequestedByMemberId,
		)

	case PingReqAck:
		if message.Meta == nil {
			rm.logger().Debug("swim: dropping ping_req_ack with no correlation metadata")
			return
		}
		if message.Meta.RequestedByMemberId == rm.membership.memberId &&
			message.Meta.MemberIdToPing != rm.remoteMemberId {
			rm.membership.memberIndirectlyReachable(message.Meta.MemberIdToPing, rm.remoteMemberId, message)
		} else {
			rm.logger().Debug("swim: dropping stale or misrouted ping_req_ack")
		}
	}
}

func (rm *RemoteMember) logger() logrus.FieldLogger {
	return rm.membership.log.WithField("remote_member_id", rm.remoteMemberId)
}
