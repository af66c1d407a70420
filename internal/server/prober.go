package server

import (
	"time"

	"github.com/onionha/oniond/internal/probe"
)

// runProber pings the gateway every probeInterval, per §4.4. A
// successful reply refreshes both the gateway's and the current node's
// last-seen stamp, since this node's own liveness is defined by its
// ability to reach the gateway, not by self-heartbeats.
func (s *Server) runProber() {
	current := s.cluster.CurrentNode()

	ticker := time.NewTicker(probeInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stopCh:
			return
		case <-ticker.C:
			ok, err := probe.Ping(s.gateway.Address(), probeTimeout)
			if err != nil {
				s.log.Debugf("prober", "icmp echo to %s failed: %v", s.gateway.Address(), err)
				continue
			}
			if ok {
				s.gateway.MarkAlive()
				current.MarkAlive()
			}
		}
	}
}
