// Package receiver reads raw telemetry datagrams from a UDP socket into an
// unbounded queue and optionally relays each datagram to a second local
// port or a NATS subject.
package receiver

import (
	"context"
	"encoding/binary"
	"fmt"
	"net"
	"sync"
	"sync/atomic"

	"github.com/nats-io/nats.go"

	"github.com/overtake/league-capture/log"
	"github.com/overtake/league-capture/pkg/packets"
)

const maxDatagramSize = 4096

type Receiver struct {
	lg          *log.Logger
	listenAddr  string
	forwardPort int
	natsURL     string
	natsSubject string

	queue *Queue

	conn      net.PacketConn
	forwarder net.Conn
	natsConn  *nats.Conn

	packetsReceived atomic.Int64

	mu             sync.Mutex
	status         string
	lastErr        error
	lastPacketID   uint8
	lastSessionUID uint64
}

type Option func(r *Receiver)

func WithLogger(lg *log.Logger) Option {
	return func(r *Receiver) { r.lg = lg }
}

// WithForwardPort relays every datagram to another local UDP port so a
// second tool can read the same stream. Zero disables forwarding; a port
// equal to the listen port is skipped to avoid a loop.
func WithForwardPort(port int) Option {
	return func(r *Receiver) { r.forwardPort = port }
}

// WithNatsRelay publishes every raw datagram to a NATS subject.
func WithNatsRelay(url, subject string) Option {
	return func(r *Receiver) {
		r.natsURL = url
		r.natsSubject = subject
	}
}

func New(listenAddr string, opts ...Option) *Receiver {
	ret := &Receiver{
		lg:         log.Default(),
		listenAddr: listenAddr,
		queue:      NewQueue(),
		status:     "Stopped",
	}
	for _, opt := range opts {
		opt(ret)
	}
	return ret
}

func (r *Receiver) Queue() *Queue {
	return r.queue
}

func (r *Receiver) PacketsReceived() int64 {
	return r.packetsReceived.Load()
}

func (r *Receiver) Status() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.status
}

func (r *Receiver) LastError() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.lastErr
}

// LastSeen returns the packet id and session UID of the most recent
// datagram.
func (r *Receiver) LastSeen() (packetID uint8, sessionUID uint64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.lastPacketID, r.lastSessionUID
}

// Start binds the socket and launches the receive goroutine. The goroutine
// stops when ctx is canceled.
func (r *Receiver) Start(ctx context.Context) error {
	conn, err := net.ListenPacket("udp", r.listenAddr)
	if err != nil {
		r.setStatus("Error", err)
		return fmt.Errorf("binding udp listener on %s: %w", r.listenAddr, err)
	}
	r.conn = conn

	listenPort := 0
	if addr, ok := conn.LocalAddr().(*net.UDPAddr); ok {
		listenPort = addr.Port
	}
	if r.forwardPort > 0 && r.forwardPort != listenPort {
		fwd, err := net.Dial("udp", fmt.Sprintf("127.0.0.1:%d", r.forwardPort))
		if err != nil {
			r.lg.Warn("udp forward disabled", log.ErrorField(err))
		} else {
			r.forwarder = fwd
		}
	}
	if r.natsURL != "" {
		nc, err := nats.Connect(r.natsURL, nats.Name("league-capture-relay"))
		if err != nil {
			r.lg.Warn("nats relay disabled", log.ErrorField(err))
		} else {
			r.natsConn = nc
		}
	}

	r.setStatus("Listening", nil)
	r.lg.Info("udp listener started",
		log.String("addr", conn.LocalAddr().String()),
		log.Int("forwardPort", r.forwardPort))

	go func() {
		<-ctx.Done()
		r.close()
	}()
	go r.listenLoop(ctx)
	return nil
}

func (r *Receiver) listenLoop(ctx context.Context) {
	buf := make([]byte, maxDatagramSize)
	for {
		n, _, err := r.conn.ReadFrom(buf)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			r.setStatus("Error", err)
			r.lg.Warn("udp receive error", log.ErrorField(err))
			continue
		}
		if n < packets.HeaderSize {
			continue
		}

		data := make([]byte, n)
		copy(data, buf[:n])

		r.mu.Lock()
		r.lastPacketID = data[6]
		r.lastSessionUID = binary.LittleEndian.Uint64(data[7:])
		r.mu.Unlock()

		r.queue.Enqueue(data)
		r.packetsReceived.Add(1)

		if r.forwarder != nil {
			//nolint:errcheck // relay is best effort
			r.forwarder.Write(data)
		}
		if r.natsConn != nil {
			if err := r.natsConn.Publish(r.natsSubject, data); err != nil {
				r.lg.Debug("nats publish failed", log.ErrorField(err))
			}
		}
	}
}

func (r *Receiver) setStatus(status string, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.status = status
	r.lastErr = err
}

func (r *Receiver) close() {
	if r.conn != nil {
		r.conn.Close()
	}
	if r.forwarder != nil {
		r.forwarder.Close()
	}
	if r.natsConn != nil {
		r.natsConn.Close()
	}
	r.setStatus("Stopped", nil)
	r.lg.Info("udp listener stopped")
}
