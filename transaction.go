package swim

import "time"

// transactionState names a state in the FailureDetectionTransaction machine.
type transactionState int

const (
	stateIdle transactionState = iota
	statePingSent
	statePingReqSent
	stateAlive
	stateFailureDetected
)

// A FailureDetectionTransaction is the per-probe state machine:
// idle -> ping_sent -> ping_req_sent -> alive | failure_detected, with
// monotonic-time-based timeouts. It is exclusively owned by the
// RemoteMember it probes.
type FailureDetectionTransaction struct {
	startTime       time.Time
	owner           *RemoteMember
	state           transactionState
	responseTimeout time.Duration
}

// newFailureDetectionTransaction creates a transaction in the idle state. It
// must be started with Start before it does anything.
func newFailureDetectionTransaction(owner *RemoteMember, responseTimeout time.Duration) *FailureDetectionTransaction {
	return &FailureDetectionTransaction{
		owner:           owner,
		state:           stateIdle,
		responseTimeout: responseTimeout,
	}
}

// Start transitions idle -> ping_sent, recording timeNow as the start time
// and sending a direct ping.
func (t *FailureDetectionTransaction) Start(timeNow time.Time) {
	t.startTime = timeNow
	t.state = statePingSent
	t.owner.sendPing()
}

// OnTick advances the transaction's timeouts relative to timeNow, which
// must be monotonically non-decreasing across calls.
func (t *FailureDetectionTransaction) OnTick(timeNow time.Time) {
	switch t.state {
	case statePingSent:
		if timeNow.After(t.startTime.Add(t.responseTimeout)) {
			t.state = statePingReqSent
			t.owner.sendPingReqs()
		}
	case statePingReqSent:
		if timeNow.After(t.startTime.Add(2 * t.responseTimeout)) {
			t.state = stateFailureDetected
			t.owner.nodeFailed()
		}
	}
}

// OnAck resolves the transaction as alive: a direct ack always completes the
// transaction, overriding any pending indirect probe.
func (t *FailureDetectionTransaction) OnAck() {
	t.state = stateAlive
	t.owner.nodeAlive()
}

// OnPingReqAck resolves the transaction as alive, via an indirect probe.
func (t *FailureDetectionTransaction) OnPingReqAck() {
	t.state = stateAlive
	t.owner.nodeAlive()
}
