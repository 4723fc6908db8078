package ingest

import (
	"context"
	"encoding/json"
	"net"
	"time"

	"github.com/ask-23/weex/internal/packet"
)

// udpMaxPacketSize bounds a single read, matching the statsd listener's
// udpMaxPacketSize convention sized down for a JSON weather packet instead
// of a graphite line.
const udpMaxPacketSize = 2048

// getPacketTimeout is how long GetPacket blocks waiting for a datagram
// before returning ErrTimeout, per
// original_source/crates/weex-ingest/src/interceptor.rs.
const getPacketTimeout = 5 * time.Second

// UDPDriver is the INTERCEPTOR driver: it binds a UDP socket and decodes
// each datagram as a JSON-encoded WeatherPacket, grounded on
// plugins/inputs/statsd/statsd.go's udpListen loop and on
// original_source/crates/weex-ingest/src/interceptor.rs.
type UDPDriver struct {
	state

	address string
	log     Logger

	conn  *net.UDPConn
	in    chan []byte
	done  chan struct{}
	fatal chan error
}

// NewUDPDriver constructs a bind-ready INTERCEPTOR driver listening on
// address (host:port, or :port for all interfaces).
func NewUDPDriver(address string, log Logger) *UDPDriver {
	if log == nil {
		log = noopLogger{}
	}
	return &UDPDriver{address: address, log: log}
}

func (d *UDPDriver) Name() string { return "interceptor" }

// Start resolves and binds the UDP socket and launches the background
// read loop. Per spec §4.4, a socket bind failure is a CommunicationError
// and the driver remains Idle.
func (d *UDPDriver) Start(ctx context.Context) error {
	if err := d.state.start(); err != nil {
		return err
	}

	addr, err := net.ResolveUDPAddr("udp", d.address)
	if err != nil {
		_ = d.state.stop()
		return &CommunicationError{Detail: err.Error()}
	}
	conn, err := net.ListenUDP("udp", addr)
	if err != nil {
		_ = d.state.stop()
		return &CommunicationError{Detail: err.Error()}
	}

	d.conn = conn
	d.in = make(chan []byte, 64)
	d.done = make(chan struct{})
	d.fatal = make(chan error, 1)

	d.log.Infof("interceptor: listening on %s", conn.LocalAddr().String())

	go d.listen()
	return nil
}

// listen reads datagrams until Stop closes the connection. Reads that
// race the close (and surface as a "use of closed network connection"
// error) are treated as clean shutdown, matching the statsd pattern. Any
// other read failure is a fatal CommunicationError: the driver transitions
// back to Idle and GetPacket surfaces the error to the scheduler instead
// of silently blocking forever on a socket that will never produce
// another datagram.
func (d *UDPDriver) listen() {
	buf := make([]byte, udpMaxPacketSize)
	for {
		n, _, err := d.conn.ReadFromUDP(buf)
		if err != nil {
			select {
			case <-d.done:
				return
			default:
				d.log.Warnf("interceptor: read error: %v", err)
				d.fatal <- &CommunicationError{Detail: err.Error()}
				_ = d.state.stop()
				return
			}
		}

		body := make([]byte, n)
		copy(body, buf[:n])

		select {
		case d.in <- body:
		case <-d.done:
			return
		default:
			d.log.Warnf("interceptor: dropping packet, reader is behind")
		}
	}
}

// Stop closes the socket and is idempotent: calling Stop while already
// Idle is a no-op success (SPEC_FULL.md §1 item 4).
func (d *UDPDriver) Stop() error {
	if !d.state.isActive() {
		return nil
	}
	_ = d.state.stop()
	close(d.done)
	if d.conn != nil {
		return d.conn.Close()
	}
	return nil
}

func (d *UDPDriver) IsActive() bool { return d.state.isActive() }

// GetPacket waits up to getPacketTimeout for the next datagram, parses it
// as a WeatherPacket, and returns ErrTimeout or an InvalidPacketError as
// appropriate. Both are transient: the driver stays Active afterward.
func (d *UDPDriver) GetPacket(ctx context.Context) (packet.WeatherPacket, error) {
	select {
	case err := <-d.fatal:
		_ = d.state.stop()
		return packet.WeatherPacket{}, err
	default:
	}
	if err := d.requireActive(); err != nil {
		return packet.WeatherPacket{}, err
	}

	timer := time.NewTimer(getPacketTimeout)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return packet.WeatherPacket{}, ctx.Err()
	case <-d.done:
		return packet.WeatherPacket{}, ErrNotActive
	case err := <-d.fatal:
		_ = d.state.stop()
		return packet.WeatherPacket{}, err
	case <-timer.C:
		return packet.WeatherPacket{}, ErrTimeout
	case body := <-d.in:
		var pkt packet.WeatherPacket
		if err := json.Unmarshal(body, &pkt); err != nil {
			return packet.WeatherPacket{}, &InvalidPacketError{Detail: err.Error()}
		}
		return pkt, nil
	}
}

type noopLogger struct{}

func (noopLogger) Debugf(string, ...interface{}) {}
func (noopLogger) Infof(string, ...interface{})  {}
func (noopLogger) Warnf(string, ...interface{})  {}
func (noopLogger) Errorf(string, ...interface{}) {}
