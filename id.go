package swim

import "github.com/rs/xid"

// A MemberId opaquely identifies a member of the process group. Equality and
// hashing are plain string comparison.
type MemberId string

// NewMemberId returns a new, globally unique MemberId. Nothing in this module
// calls it: NewMembership and swimd take the local member's id from their
// caller.
func NewMemberId() MemberId {
	return MemberId(xid.New().String())
}

// An Incarnation is a per-member monotonically increasing version number used
// to order concurrent claims about that member's liveness: a higher
// incarnation overrides a lower one for the same member.
type Incarnation uint64
