// Package netudp implements swim.Transport over real UDP sockets, the way
// cmd/swimd runs a member against actual peers instead of the in-process
// LoopbackTransport used by the core package's tests.
package netudp

import (
	"context"
	"fmt"
	"net"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/kestrelmesh/swim"
)

const maxDatagramSize = 8192

// Transport sends and receives swim protocol messages as UDP datagrams. A
// Transport is not usable until Run has been started, since inbound delivery
// happens on the goroutine Run spawns.
type Transport struct {
	conn    *net.UDPConn
	localID swim.MemberId
	codec   swim.Codec
	log     logrus.FieldLogger

	mu         sync.RWMutex
	router     *swim.Router
	addrByPeer map[swim.MemberId]*net.UDPAddr
	peerByAddr map[string]swim.MemberId

	sentMessages     prometheus.Counter
	receivedMessages prometheus.Counter
	sentBytes        prometheus.Counter
	receivedBytes    prometheus.Counter
}

// New binds a UDP socket at bindAddr (host:port) for localID and returns a
// Transport ready to have peers added and Run started. reg, if non-nil,
// is used to register the transport's counters; pass nil to skip Prometheus
// registration (e.g. in tests).
func New(bindAddr string, localID swim.MemberId, codec swim.Codec, log logrus.FieldLogger, reg prometheus.Registerer) (*Transport, error) {
	addr, err := net.ResolveUDPAddr("udp", bindAddr)
	if err != nil {
		return nil, fmt.Errorf("netudp: resolve %s: %w", bindAddr, err)
	}
	conn, err := net.ListenUDP("udp", addr)
	if err != nil {
		return nil, fmt.Errorf("netudp: listen %s: %w", bindAddr, err)
	}
	if codec == nil {
		codec = swim.JSONCodec{}
	}
	if log == nil {
		log = logrus.StandardLogger()
	}

	t := &Transport{
		conn:       conn,
		localID:    localID,
		codec:      codec,
		log:        log,
		addrByPeer: make(map[swim.MemberId]*net.UDPAddr),
		peerByAddr: make(map[string]swim.MemberId),
		sentMessages: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "swim_transport_sent_messages_total",
			Help: "Total messages sent by the UDP transport.",
		}),
		receivedMessages: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "swim_transport_received_messages_total",
			Help: "Total messages received by the UDP transport.",
		}),
		sentBytes: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "swim_transport_sent_bytes_total",
			Help: "Total bytes sent by the UDP transport.",
		}),
		receivedBytes: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "swim_transport_received_bytes_total",
			Help: "Total bytes received by the UDP transport.",
		}),
	}
	if reg != nil {
		reg.MustRegister(t.sentMessages, t.receivedMessages, t.sentBytes, t.receivedBytes)
	}
	return t, nil
}

// AddPeer registers the UDP address a MemberId is reachable at, both for
// outbound Send and for attributing inbound datagrams to a sender.
func (t *Transport) AddPeer(id swim.MemberId, addr string) error {
	udpAddr, err := net.ResolveUDPAddr("udp", addr)
	if err != nil {
		return fmt.Errorf("netudp: resolve peer %s at %s: %w", id, addr, err)
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.addrByPeer[id] = udpAddr
	t.peerByAddr[udpAddr.String()] = id
	return nil
}

// RegisterRouter implements swim.Transport.
func (t *Transport) RegisterRouter(r *swim.Router) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.router = r
}

// Send implements swim.Transport.
func (t *Transport) Send(toAddress swim.MemberId, message swim.Message, fromSender swim.MemberId) error {
	t.mu.RLock()
	addr, ok := t.addrByPeer[toAddress]
	t.mu.RUnlock()
	if !ok {
		return fmt.Errorf("netudp: no known address for %s", toAddress)
	}

	b, err := t.codec.Encode(message)
	if err != nil {
		return err
	}
	if _, err := t.conn.WriteToUDP(b, addr); err != nil {
		return fmt.Errorf("netudp: write to %s: %w", addr, err)
	}
	t.sentMessages.Inc()
	t.sentBytes.Add(float64(len(b)))
	return nil
}

// Counters implements swim.Transport by reading back the Prometheus
// counters' current values.
func (t *Transport) Counters() swim.TransportCounters {
	return swim.TransportCounters{
		SentMessages:     counterValue(t.sentMessages),
		ReceivedMessages: counterValue(t.receivedMessages),
		SentBytes:        counterValue(t.sentBytes),
		ReceivedBytes:    counterValue(t.receivedBytes),
	}
}

func counterValue(c prometheus.Counter) uint64 {
	var m dto.Metric
	if err := c.Write(&m); err != nil {
		return 0
	}
	return uint64(m.GetCounter().GetValue())
}

// Run reads datagrams from the socket until ctx is canceled, dispatching
// each to the registered Router. It mirrors the teacher's runTick/runReceive
// goroutine-pair pattern, using an errgroup so a fatal read error
// propagates instead of leaking a silently-dead receive loop.
func (t *Transport) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return t.runReceive(ctx) })
	g.Go(func() error {
		<-ctx.Done()
		return t.conn.Close()
	})
	return g.Wait()
}

func (t *Transport) runReceive(ctx context.Context) error {
	buf := make([]byte, maxDatagramSize)
	for {
		n, addr, err := t.conn.ReadFromUDP(buf)
		if err != nil {
			select {
			case <-ctx.Done():
				return nil
			default:
				return fmt.Errorf("netudp: read: %w", err)
			}
		}
		t.receivedMessages.Inc()
		t.receivedBytes.Add(float64(n))
		t.dispatch(buf[:n], addr)
	}
}

func (t *Transport) dispatch(b []byte, addr *net.UDPAddr) {
	message, err := t.codec.Decode(b)
	if err != nil {
		t.log.WithFields(logrus.Fields{
			"from_addr": addr,
			"error":     err,
		}).Warn("swim: dropping malformed datagram")
		return
	}

	t.mu.RLock()
	from, ok := t.peerByAddr[addr.String()]
	router := t.router
	t.mu.RUnlock()
	if !ok {
		t.log.WithField("from_addr", addr).Warn("swim: datagram from unregistered peer address")
		return
	}
	if router == nil {
		return
	}
	router.OnIncoming(t.localID, message, from)
}
