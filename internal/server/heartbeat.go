package server

import (
	"time"

	"github.com/onionha/oniond/internal/wire"
)

// runHeartbeat sends a HELLO datagram to every peer every
// heartbeatInterval, per §4.3. Send failures are logged at debug and
// never interrupt the loop.
func (s *Server) runHeartbeat() {
	ticker := time.NewTicker(heartbeatInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stopCh:
			return
		case <-ticker.C:
			for _, peer := range s.cluster.Peers() {
				if err := s.socket.Send([]byte(wire.Hello), peer.Address(), peer.Port()); err != nil {
					s.log.Debugf("heartbeat", "send to %s failed: %v", peer.Address(), err)
				}
			}
		}
	}
}
