package server

import (
	"time"

	"github.com/onionha/oniond/internal/cluster"
	"github.com/onionha/oniond/internal/history"
)

// runSupervisor is the main loop described in §4.6: every
// supervisorTick it elects a candidate from liveness, drives this
// node's own role transitions, and keeps cluster.active_node in sync
// for the status reply. It blocks until stopCh is closed.
func (s *Server) runSupervisor() {
	ticker := time.NewTicker(supervisorTick)
	defer ticker.Stop()

	current := s.cluster.CurrentNode()
	go s.runDiagnosticPass()

	for {
		select {
		case <-s.stopCh:
			return
		case <-ticker.C:
			s.electOnce(current)
		}
	}
}

// electOnce is the sole caller of cluster.Activate/ResetActiveNode. It
// runs the transition command first, then updates the bookkeeping, so a
// concurrent GET STATUS query observes the previous role for as long as
// the activation/deactivation command is still executing.
func (s *Server) electOnce(current *cluster.Node) {
	candidate := s.cluster.GetNextActiveNode()

	if candidate == current && !current.IsActive() {
		s.transitionActive(current)
	} else if candidate != current && current.IsActive() {
		s.transitionPassive(current)
	}

	switch {
	case candidate != nil:
		if candidate != s.cluster.ActiveNode() {
			s.cluster.Activate(candidate)
		}
	default:
		if s.cluster.ActiveNode() != nil {
			s.cluster.ResetActiveNode()
		}
	}
}

// runDiagnosticPass tracks alive-state transitions for peers and the
// gateway and logs each one, per the "separate supervisor diagnostic
// pass" in §4.6. It sleeps one second before its first pass to let the
// listener collect one round of heartbeats, and assumes every device
// starts alive so a device that never comes up is reported exactly
// once, not repeatedly.
func (s *Server) runDiagnosticPass() {
	time.Sleep(time.Second)

	const gatewayKey = -1
	s.deviceAlive[gatewayKey] = true
	for _, peer := range s.cluster.Peers() {
		s.deviceAlive[peer.ID()] = true
	}

	ticker := time.NewTicker(supervisorTick)
	defer ticker.Stop()

	for {
		select {
		case <-s.stopCh:
			return
		case <-ticker.C:
			s.checkTransition(gatewayKey, "gateway", s.gateway.IsAlive())
			for _, peer := range s.cluster.Peers() {
				s.checkTransition(peer.ID(), peer.Address(), peer.IsAlive())
			}
		}
	}
}

func (s *Server) checkTransition(key int, name string, alive bool) {
	was, ok := s.deviceAlive[key]
	if ok && was == alive {
		return
	}
	s.deviceAlive[key] = alive

	if alive {
		s.log.Infof("supervisor", "%s is up", name)
		if s.history != nil {
			_ = s.history.Record(history.EventDeviceUp, name, "")
		}
		s.hub.Publish("device_up", name, "")
	} else {
		s.log.Warnf("supervisor", "%s is down", name)
		if s.history != nil {
			_ = s.history.Record(history.EventDeviceDown, name, "")
		}
		s.hub.Publish("device_down", name, "")
	}
}
