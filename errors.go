package swim

import (
	"errors"
	"fmt"
)

var errMissingMessageName = errors.New("swim: wire record is missing message_name")

// DeserializationError is returned by a Codec when a buffer is not a
// well-formed encoding of a Message. A Transport must not propagate it into
// a Router: it logs and drops the datagram instead.
type DeserializationError struct {
	Cause error
}

func (e *DeserializationError) Error() string {
	return fmt.Sprintf("swim: deserialization error: %v", e.Cause)
}

func (e *DeserializationError) Unwrap() error { return e.Cause }

// UnknownSenderFault reports that a message arrived from a MemberId not
// present in the local Membership's remote members. It is normal during
// churn: logged and dropped, never propagated.
type UnknownSenderFault struct {
	FromSenderId MemberId
}

func (e *UnknownSenderFault) Error() string {
	return fmt.Sprintf("swim: message from unknown sender %q", e.FromSenderId)
}

// UnknownTargetFault reports that MemberIndirectlyReachable was called for a
// member_id not present in the local remote members.
type UnknownTargetFault struct {
	MemberId MemberId
}

func (e *UnknownTargetFault) Error() string {
	return fmt.Sprintf("swim: member_indirectly_reachable for unknown member %q", e.MemberId)
}

// RoutingFault reports that a Router received an inbound message for an
// unregistered address. Unlike the other fault kinds, this indicates
// programmer error (a caller registered fewer Memberships than it routes
// to) and is signaled loudly rather than silently absorbed.
type RoutingFault struct {
	ToAddress MemberId
}

func (e *RoutingFault) Error() string {
	return fmt.Sprintf("swim: no membership registered for address %q", e.ToAddress)
}
