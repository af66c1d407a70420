package server

import (
	"errors"
	"net"

	"github.com/onionha/oniond/internal/cluster"
	"github.com/onionha/oniond/internal/wire"
)

// runListener receives datagrams on the cluster socket and dispatches
// them per §4.5: loopback GET STATUS queries are answered directly;
// peer HELLOs refresh that peer's last-seen stamp; anything from an
// unregistered source logs a port-scan warning and is dropped.
func (s *Server) runListener() {
	for {
		select {
		case <-s.stopCh:
			return
		default:
		}

		dgram, err := s.socket.Receive(listenerTimeout, 0)
		if err != nil {
			var netErr net.Error
			if errors.As(err, &netErr) && netErr.Timeout() {
				continue
			}
			s.log.Debugf("listener", "receive error: %v", err)
			continue
		}

		payload := string(dgram.Payload)

		if payload == wire.GetStatus && dgram.Address == "127.0.0.1" {
			reply := wire.EncodeDump(s.statusRecords())
			if err := s.socket.Send([]byte(reply), dgram.Address, dgram.Port); err != nil {
				s.log.Debugf("listener", "status reply send failed: %v", err)
			}
			continue
		}

		node, err := s.cluster.Get(dgram.Address)
		if err != nil {
			var unknown *cluster.UnknownNodeError
			if errors.As(err, &unknown) {
				s.log.Warnf("listener", "possible port scan from %s", dgram.Address)
			}
			continue
		}

		if payload == wire.Hello {
			node.MarkAlive()
		}
	}
}

// statusRecords builds the dump served for GET STATUS, one record per
// configured node in configured order.
func (s *Server) statusRecords() []wire.Record {
	nodes := s.cluster.Nodes()
	active := s.cluster.ActiveNode()

	records := make([]wire.Record, len(nodes))
	for i, n := range nodes {
		status := wire.StatusFailed
		switch {
		case n == active:
			status = wire.StatusActive
		case n.IsAlive():
			status = wire.StatusPassive
		}
		records[i] = wire.Record{Address: n.Address(), Status: status}
	}
	return records
}
