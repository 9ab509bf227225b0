package swim

import (
	"math"

	"github.com/kestrelmesh/swim/internal/rpq"
)

// a rumor is a single alive/dead claim about a member, as recorded in the
// bounded-dissemination rumor store.
type rumor struct {
	alive       bool
	id          MemberId
	incarnation Incarnation
}

// rumorStore retransmits each rumor a bounded number of times before
// retiring it, using the same recurrent-priority-queue quota idea the
// teacher uses for its own gossip retransmission (see DESIGN.md). It backs
// Membership's optional bounded-dissemination piggyback mode; the default,
// spec-required piggyback mode (Membership.buildPiggyback) does not use it.
type rumorStore struct {
	q *rpq.Queue[MemberId, rumor]
}

// newRumorStore creates a rumorStore whose retransmission quota scales with
// the size of the membership, following ml.go/mq.go's 3*ln(n)+1 formula.
func newRumorStore(numMembers func() int) *rumorStore {
	quota := func() int {
		n := numMembers()
		if n < 1 {
			n = 1
		}
		return int(3*math.Log(float64(n))) + 1
	}
	return &rumorStore{q: rpq.New[MemberId, rumor](quota)}
}

// record replaces any queued rumor about id with this one, resetting its
// retransmission count.
func (s *rumorStore) record(r rumor) {
	s.q.Push(r.id, r)
}

// take returns up to n rumors to include in the next outgoing piggyback,
// incrementing their retransmission counts and retiring any that have
// reached quota.
func (s *rumorStore) take(n int) []rumor {
	return s.q.PopN(n)
}

// forget removes any queued rumor about id, e.g. once id has been declared
// dead and need not be mentioned again.
func (s *rumorStore) forget(id MemberId) {
	s.q.Remove(id)
}
