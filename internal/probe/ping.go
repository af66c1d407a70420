// Package probe implements the connectivity check used to decide
// whether this node can still reach its gateway: a single ICMP echo
// request with a bounded reply timeout, modeled on the echo/reply
// exchange in the pack's nethealth peer prober but reduced to one-shot
// request/response since the supervisor only ever needs "is the
// gateway reachable right now".
package probe

import (
	"fmt"
	"net"
	"os"
	"time"

	"golang.org/x/net/icmp"
	"golang.org/x/net/ipv4"
)

// Ping sends one ICMP echo request to address and reports whether a
// matching reply arrived within timeout. Opening the raw socket
// requires CAP_NET_RAW (or root); that failure is returned verbatim so
// callers can log it distinctly from an ordinary timeout.
func Ping(address string, timeout time.Duration) (bool, error) {
	conn, err := icmp.ListenPacket("ip4:icmp", "0.0.0.0")
	if err != nil {
		return false, fmt.Errorf("probe: open icmp socket: %w", err)
	}
	defer conn.Close()

	dst, err := net.ResolveIPAddr("ip4", address)
	if err != nil {
		return false, fmt.Errorf("probe: resolve %s: %w", address, err)
	}

	id := os.Getpid() & 0xffff
	msg := icmp.Message{
		Type: ipv4.ICMPTypeEcho,
		Code: 0,
		Body: &icmp.Echo{
			ID:   id,
			Seq:  1,
			Data: []byte("oniond"),
		},
	}

	wire, err := msg.Marshal(nil)
	if err != nil {
		return false, fmt.Errorf("probe: marshal echo request: %w", err)
	}

	if _, err := conn.WriteTo(wire, &net.IPAddr{IP: dst.IP}); err != nil {
		return false, fmt.Errorf("probe: send echo request: %w", err)
	}

	if err := conn.SetReadDeadline(time.Now().Add(timeout)); err != nil {
		return false, fmt.Errorf("probe: set read deadline: %w", err)
	}

	buf := make([]byte, 1500)
	for {
		n, peer, err := conn.ReadFrom(buf)
		if err != nil {
			if netErr, ok := err.(net.Error); ok && netErr.Timeout() {
				return false, nil
			}
			return false, fmt.Errorf("probe: read echo reply: %w", err)
		}

		if ip, ok := peer.(*net.IPAddr); !ok || !ip.IP.Equal(dst.IP) {
			continue
		}

		reply, err := icmp.ParseMessage(1, buf[:n])
		if err != nil {
			continue
		}

		if reply.Type != ipv4.ICMPTypeEchoReply {
			continue
		}
		if echo, ok := reply.Body.(*icmp.Echo); ok && echo.ID == id {
			return true, nil
		}
	}
}
