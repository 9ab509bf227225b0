package netudp

import (
	"context"
	"testing"
	"time"

	"github.com/kestrelmesh/swim"
)

// TestTransportDeliversBetweenRealSockets exercises two Transports talking
// over real loopback UDP sockets, wired to full Memberships on each end, to
// confirm Send/Run/dispatch round-trip correctly (not just the in-process
// LoopbackTransport the core package's own tests use).
func TestTransportDeliversBetweenRealSockets(t *testing.T) {
	a, err := New("127.0.0.1:0", "A", nil, nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	b, err := New("127.0.0.1:0", "B", nil, nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	defer a.conn.Close()
	defer b.conn.Close()

	if err := a.AddPeer("B", b.conn.LocalAddr().String()); err != nil {
		t.Fatal(err)
	}
	if err := b.AddPeer("A", a.conn.LocalAddr().String()); err != nil {
		t.Fatal(err)
	}

	routerA := swim.NewRouter(a, nil)
	routerB := swim.NewRouter(b, nil)
	membershipA := swim.NewMembership("A", []swim.MemberId{"B"}, routerA, swim.DefaultConfig(), false)
	membershipB := swim.NewMembership("B", []swim.MemberId{"A"}, routerB, swim.DefaultConfig(), false)
	membershipA.Start()
	membershipB.Start()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go a.Run(ctx)
	go b.Run(ctx)

	membershipA.Broadcast(swim.NewPing())

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if a.Counters().ReceivedMessages >= 1 && b.Counters().ReceivedMessages >= 1 {
			break
		}
		time.Sleep(10 * time.Millisecond)
	}

	if got := a.Counters().SentMessages; got < 1 {
		t.Errorf("A sent %d messages, want at least 1 (the ping)", got)
	}
	if got := b.Counters().ReceivedMessages; got < 1 {
		t.Errorf("B received %d messages, want at least 1 (the ping)", got)
	}
	if got := a.Counters().ReceivedMessages; got < 1 {
		t.Errorf("A received %d messages, want at least 1 (B's ack)", got)
	}
}
