package server

import (
	"bytes"
	"testing"
	"time"

	"github.com/onionha/oniond/internal/cluster"
	"github.com/onionha/oniond/internal/config"
	"github.com/onionha/oniond/internal/logging"
)

func newTestServer(t *testing.T) (*Server, *cluster.Node, *cluster.Node) {
	t.Helper()
	cfg := &config.Config{
		Address:  "10.0.0.1",
		Gateway:  "10.0.0.254",
		Port:     6433,
		DeadTime: 3 * time.Second,
		Nodes:    []string{"10.0.0.1", "10.0.0.2"},
		Active:   []string{"/bin/true"},
		Passive:  []string{"/bin/true"},
	}

	var logBuf bytes.Buffer
	log := logging.New(logging.Debug)
	log.AddWriter(&logBuf)

	s, err := New(cfg, log, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	nodes := s.Cluster().Nodes()
	return s, nodes[0], nodes[1]
}

func TestNewRejectsAddressNotInCluster(t *testing.T) {
	cfg := &config.Config{
		Address: "10.0.0.9",
		Nodes:   []string{"10.0.0.1", "10.0.0.2"},
	}
	log := logging.New(logging.Info)
	if _, err := New(cfg, log, nil); err == nil {
		t.Fatal("expected an error when the local address is not a cluster node")
	}
}

func TestElectOncePromotesHighestPriorityAliveNode(t *testing.T) {
	s, master, backup := newTestServer(t)

	s.electOnce(master)
	if s.Cluster().ActiveNode() != nil {
		t.Fatal("expected no active node before anyone is alive")
	}

	backup.MarkAlive()
	s.electOnce(master)
	if s.Cluster().ActiveNode() != backup {
		t.Fatalf("expected backup active as only alive node, got %v", s.Cluster().ActiveNode())
	}

	master.MarkAlive()
	s.electOnce(master)
	if s.Cluster().ActiveNode() != master {
		t.Fatalf("expected master to reclaim priority, got %v", s.Cluster().ActiveNode())
	}
	if !master.IsActive() {
		t.Fatal("expected master.IsActive() true after self-election")
	}
}

func TestElectOnceKeepsOutrankedNodePassive(t *testing.T) {
	s, master, backup := newTestServer(t)

	master.MarkAlive()
	s.electOnce(master)
	if !master.IsActive() {
		t.Fatal("expected master active")
	}

	// electOnce is always called with the local node; calling it with
	// backup simulates backup's own supervisor. master is alive and
	// outranks it, so backup must not promote itself.
	backup.MarkAlive()
	s.electOnce(backup)
	if backup.IsActive() {
		t.Fatal("expected backup to stay passive while master outranks it")
	}
}

func TestStatusRecordsOrderMatchesConfiguredPriority(t *testing.T) {
	s, master, backup := newTestServer(t)
	master.MarkAlive()
	backup.MarkAlive()
	s.electOnce(master)

	records := s.statusRecords()
	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(records))
	}
	if records[0].Address != master.Address() {
		t.Fatalf("expected master first, got %v", records)
	}
}

func TestCheckTransitionLogsOnlyOnChange(t *testing.T) {
	s, _, _ := newTestServer(t)

	s.deviceAlive[-1] = true
	s.checkTransition(-1, "gateway", true)
	if len(s.deviceAlive) != 1 {
		t.Fatal("expected no spurious state change")
	}

	s.checkTransition(-1, "gateway", false)
	if s.deviceAlive[-1] {
		t.Fatal("expected gateway marked down")
	}
}
