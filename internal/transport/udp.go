// Package transport wraps the single UDP socket each Onion HA process
// binds, matching the send/receive-with-timeout shape the teacher uses
// for its network wrappers: a thin struct around *net.UDPConn with no
// framing beyond datagram boundaries.
package transport

import (
	"fmt"
	"net"
	"time"
)

// DefaultBufferSize is the receive buffer size used when none is given.
const DefaultBufferSize = 1024

// DefaultTimeout is the receive timeout used when none is given.
const DefaultTimeout = 5 * time.Second

// Socket is a bound UDP datagram socket. It is safe for concurrent use:
// the listener calls Receive from one goroutine while other services
// call Send concurrently, exactly as the underlying OS socket allows.
type Socket struct {
	conn *net.UDPConn
	port int
}

// Bind opens a UDP socket on 0.0.0.0:port with net.ListenUDP. Port 0
// picks an ephemeral port. SO_REUSEADDR is not set on the socket.
func Bind(port int) (*Socket, error) {
	addr := &net.UDPAddr{IP: net.IPv4zero, Port: port}
	conn, err := net.ListenUDP("udp4", addr)
	if err != nil {
		return nil, fmt.Errorf("transport: bind 0.0.0.0:%d: %w", port, err)
	}
	return &Socket{conn: conn, port: conn.LocalAddr().(*net.UDPAddr).Port}, nil
}

// Port returns the bound port.
func (s *Socket) Port() int { return s.port }

// Send fires payload at (address, port) and does not wait for any
// reply. Send errors are the caller's to log; they never stop a loop.
func (s *Socket) Send(payload []byte, address string, port int) error {
	dst := &net.UDPAddr{IP: net.ParseIP(address), Port: port}
	if dst.IP == nil {
		resolved, err := net.ResolveUDPAddr("udp4", fmt.Sprintf("%s:%d", address, port))
		if err != nil {
			return fmt.Errorf("transport: resolve %s:%d: %w", address, port, err)
		}
		dst = resolved
	}
	_, err := s.conn.WriteToUDP(payload, dst)
	return err
}

// Datagram is one inbound UDP packet: its payload and source.
type Datagram struct {
	Payload []byte
	Address string
	Port    int
}

// Receive blocks until a datagram arrives or timeout elapses, returning
// a net.Error satisfying Timeout() == true on expiry — callers treat
// that as a normal, silent loop continuation rather than a failure.
func (s *Socket) Receive(timeout time.Duration, bufferSize int) (Datagram, error) {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if bufferSize <= 0 {
		bufferSize = DefaultBufferSize
	}

	if err := s.conn.SetReadDeadline(time.Now().Add(timeout)); err != nil {
		return Datagram{}, fmt.Errorf("transport: set read deadline: %w", err)
	}

	buf := make([]byte, bufferSize)
	n, src, err := s.conn.ReadFromUDP(buf)
	if err != nil {
		return Datagram{}, err
	}

	return Datagram{
		Payload: buf[:n],
		Address: src.IP.String(),
		Port:    src.Port,
	}, nil
}

// Close releases the socket. It cannot be used after this call.
func (s *Socket) Close() error {
	return s.conn.Close()
}
