package swim

import (
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/exp/slices"

	"github.com/kestrelmesh/swim/bufchan"
	"github.com/kestrelmesh/swim/internal/roundrobinrandom"
)

// A MembershipEvent reports a change in the locally believed liveness of a
// peer, delivered through Membership.Updates().
type MembershipEvent struct {
	MemberId MemberId
	State    LivenessState
}

// Membership is the protocol driver for one local member. It holds the
// local member id, the set of known remote peers, the local incarnation
// number, and the round-robin probe cursor, and exposes Start, Tick, inbound
// dispatch, outbound broadcast, and piggyback construction/ingestion.
type Membership struct {
	memberId    MemberId
	incarnation Incarnation
	config      Config
	router      *Router
	log         logrus.FieldLogger

	remoteMembers map[MemberId]*RemoteMember
	order         roundrobinrandom.Order[MemberId]

	enableInfectionDissemination bool
	boundedDissemination         bool
	rumors                       *rumorStore

	events  bufchan.Chan[MembershipEvent]
	started bool
}

// NewMembership constructs a Membership for memberId, tracking the given set
// of expected remote member ids. The membership is fixed at construction:
// joining a member outside this initial set is not supported.
//
// router is a shared reference: multiple Memberships may register with the
// same Router to simulate a process group in a single test binary.
func NewMembership(memberId MemberId, remoteMemberIds []MemberId, router *Router, config Config, enableInfectionDissemination bool) *Membership {
	m := &Membership{
		memberId:                     memberId,
		config:                       config,
		router:                       router,
		log:                          logrus.StandardLogger().WithField("member_id", memberId),
		remoteMembers:                make(map[MemberId]*RemoteMember, len(remoteMemberIds)),
		enableInfectionDissemination: enableInfectionDissemination,
		events:                       bufchan.Make[MembershipEvent](),
	}
	m.rumors = newRumorStore(func() int { return len(m.remoteMembers) + 1 })
	for _, id := range remoteMemberIds {
		rm := newRemoteMember(id)
		m.remoteMembers[id] = rm
		m.order.Add(id)
	}
	router.Register(memberId, m)
	return m
}

// EnableBoundedDissemination switches piggyback construction from the
// default full alive/dead transfer to a quota-bounded rumor mill, for use in
// large networks where transmitting the complete membership view on every
// message is undesirable. Off by default: convergence is fastest and
// simplest to reason about with the full, unbounded transfer.
func (m *Membership) EnableBoundedDissemination(enabled bool) {
	m.boundedDissemination = enabled
}

// MemberId returns the local member's id.
func (m *Membership) MemberId() MemberId { return m.memberId }

// Incarnation returns the local member's current incarnation.
func (m *Membership) Incarnation() Incarnation { return m.incarnation }

// RemoteMember returns the tracked RemoteMember for id, or nil if id is not
// a known peer.
func (m *Membership) RemoteMember(id MemberId) *RemoteMember {
	return m.remoteMembers[id]
}

// Updates returns a channel of MembershipEvents reporting liveness
// transitions as they are decided.
func (m *Membership) Updates() <-chan MembershipEvent {
	return m.events.Receive()
}

// Start attaches the Membership to each of its RemoteMembers. Idempotent.
func (m *Membership) Start() {
	if m.started {
		return
	}
	m.started = true
	for _, rm := range m.remoteMembers {
		rm.start(m)
	}
}

// Tick begins a new protocol period. timeNow must be monotonically
// non-decreasing across calls.
func (m *Membership) Tick(timeNow time.Time) {
	if target := m.selectNodeToPing(); target != "" {
		rm := m.remoteMembers[target]
		if !rm.isBeingChecked() {
			rm.beginCheckingForFailure(timeNow)
		}
	}
	for _, rm := range m.remoteMembers {
		rm.onTick(timeNow)
	}
}

// selectNodeToPing picks the next probe target, visiting every peer once
// per randomized round before reshuffling.
func (m *Membership) selectNodeToPing() MemberId {
	return m.order.Next()
}

// selectNodesToPingReq picks up to Config.K distinct RemoteMembers, chosen
// uniformly at random from the peers other than targetId, to ask to
// indirectly probe targetId on the local member's behalf.
func (m *Membership) selectNodesToPingReq(targetId MemberId) []*RemoteMember {
	ids := m.order.IndependentSample(m.config.K, targetId)
	peers := make([]*RemoteMember, 0, len(ids))
	for _, id := range ids {
		peers = append(peers, m.remoteMembers[id])
	}
	return peers
}

// Broadcast sends message to every known remote member. This is used only
// for non-SWIM diagnostics and tests, not by the failure-detection protocol
// itself.
func (m *Membership) Broadcast(message Message) {
	for id := range m.remoteMembers {
		m.sendTo(message, id)
	}
}

// sendTo stamps message with the current piggyback (if infection
// dissemination is enabled) and hands it to the Router.
func (m *Membership) sendTo(message Message, toMemberId MemberId) {
	if m.enableInfectionDissemination {
		message.Piggyback = m.buildPiggyback()
	}
	if err := m.router.SendTo(toMemberId, message, m.memberId); err != nil {
		m.log.WithError(err).WithField("to_member_id", toMemberId).Warn("swim: send failed")
	}
}

// buildPiggyback constructs the epidemic membership update riding on the
// next outgoing message.
func (m *Membership) buildPiggyback() *PiggybackPayload {
	if m.boundedDissemination {
		return m.buildBoundedPiggyback()
	}
	p := &PiggybackPayload{
		Alive: []AliveRumor{{Id: m.memberId, Incarnation: m.incarnation}},
	}
	for id, rm := range m.remoteMembers {
		switch rm.state {
		case Alive:
			p.Alive = append(p.Alive, AliveRumor{Id: id, Incarnation: rm.incarnation})
		case Dead:
			p.Dead = append(p.Dead, DeadRumor{Id: id, Incarnation: rm.incarnation})
		}
	}
	return p
}

// buildBoundedPiggyback constructs a piggyback payload from a fixed-size
// sample of the rumor store rather than the complete membership view (see
// EnableBoundedDissemination).
func (m *Membership) buildBoundedPiggyback() *PiggybackPayload {
	p := &PiggybackPayload{
		Alive: []AliveRumor{{Id: m.memberId, Incarnation: m.incarnation}},
	}
	for _, r := range m.rumors.take(m.config.K + 1) {
		if r.alive {
			p.Alive = append(p.Alive, AliveRumor{Id: r.id, Incarnation: r.incarnation})
		} else {
			p.Dead = append(p.Dead, DeadRumor{Id: r.id, Incarnation: r.incarnation})
		}
	}
	return p
}

// ingestPiggyback merges an inbound piggyback payload into the local view:
// each Alive rumor overrides a Dead one of equal or lower incarnation, and
// each Dead rumor is refuted rather than believed when it names the local
// member itself.
func (m *Membership) ingestPiggyback(p *PiggybackPayload) {
	if p == nil {
		return
	}
	for _, a := range p.Alive {
		if a.Id == m.memberId {
			continue
		}
		rm, ok := m.remoteMembers[a.Id]
		if !ok || a.Incarnation < rm.incarnation {
			continue
		}
		wasAlive := rm.state == Alive
		rm.state = Alive
		rm.incarnation = a.Incarnation
		rm.activeTransaction = nil
		m.rumors.record(rumor{alive: true, id: a.Id, incarnation: a.Incarnation})
		if !wasAlive {
			m.notify(MembershipEvent{MemberId: a.Id, State: Alive})
		}
	}
	for _, d := range p.Dead {
		if d.Id == m.memberId {
			// Refutation rule: a claim of our own death is answered by
			// bumping our incarnation past it, not by believing it.
			if d.Incarnation >= m.incarnation {
				m.incarnation = d.Incarnation + 1
			}
			continue
		}
		rm, ok := m.remoteMembers[d.Id]
		if !ok {
			continue
		}
		// A newer Alive claim overrides an older Dead one; compare
		// incarnations before committing.
		if d.Incarnation < rm.incarnation {
			continue
		}
		wasDead := rm.state == Dead
		rm.state = Dead
		rm.incarnation = d.Incarnation
		rm.activeTransaction = nil
		m.rumors.record(rumor{alive: false, id: d.Id, incarnation: d.Incarnation})
		if !wasDead {
			m.notify(MembershipEvent{MemberId: d.Id, State: Dead})
		}
	}
}

// OnIncoming dispatches a message received from fromSenderId.
func (m *Membership) OnIncoming(message Message, fromSenderId MemberId) {
	m.ingestPiggyback(message.Piggyback)

	rm, ok := m.remoteMembers[fromSenderId]
	if !ok {
		fault := &UnknownSenderFault{FromSenderId: fromSenderId}
		m.log.WithField("from_sender_id", fromSenderId).Warn(fault.Error())
		return
	}
	rm.handleIncoming(message)
}

// memberIndirectlyReachable is called by a RemoteMember that received a
// ping_req_ack on behalf of a peer other than itself: it locates the target
// RemoteMember and delivers the ping_req_ack to it so any active transaction
// on that peer can resolve as alive.
func (m *Membership) memberIndirectlyReachable(memberId, reachableFrom MemberId, message Message) {
	rm, ok := m.remoteMembers[memberId]
	if !ok {
		fault := &UnknownTargetFault{MemberId: memberId}
		m.log.WithFields(logrus.Fields{
			"member_id":      memberId,
			"reachable_from": reachableFrom,
		}).Warn(fault.Error())
		return
	}
	rm.handleIncoming(message)
}

func (m *Membership) notify(event MembershipEvent) {
	m.events.Send() <- event
}

// Members returns the ids of every known remote member, sorted for
// deterministic iteration in callers such as tests and diagnostics.
func (m *Membership) Members() []MemberId {
	ids := make([]MemberId, 0, len(m.remoteMembers))
	for id := range m.remoteMembers {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}
