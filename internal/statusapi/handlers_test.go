package statusapi

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/onionha/oniond/internal/cluster"
)

func TestHandleStatusReflectsActiveNode(t *testing.T) {
	c := cluster.NewCluster()
	master := cluster.NewNode(0, "10.0.0.1", 6433, 5*time.Second, true)
	backup := cluster.NewNode(1, "10.0.0.2", 6433, 5*time.Second, false)
	c.Register(master)
	c.Register(backup)

	master.MarkAlive()
	backup.MarkAlive()
	c.Activate(master)

	srv := NewServer(c, NewHub())

	req := httptest.NewRequest(http.MethodGet, "/status", nil)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var snapshot Snapshot
	if err := json.Unmarshal(rec.Body.Bytes(), &snapshot); err != nil {
		t.Fatalf("decode response: %v", err)
	}

	if len(snapshot.Nodes) != 2 {
		t.Fatalf("expected 2 nodes, got %d", len(snapshot.Nodes))
	}
	if snapshot.Nodes[0].Status != "ACTIVE" || !snapshot.Nodes[0].IsActive {
		t.Fatalf("expected master active, got %+v", snapshot.Nodes[0])
	}
	if snapshot.Nodes[1].Status != "PASSIVE" {
		t.Fatalf("expected backup passive, got %+v", snapshot.Nodes[1])
	}
}

func TestHandleStatusReportsFailedForDeadNode(t *testing.T) {
	c := cluster.NewCluster()
	master := cluster.NewNode(0, "10.0.0.1", 6433, 5*time.Second, true)
	c.Register(master)

	srv := NewServer(c, NewHub())
	req := httptest.NewRequest(http.MethodGet, "/status", nil)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	var snapshot Snapshot
	if err := json.Unmarshal(rec.Body.Bytes(), &snapshot); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if snapshot.Nodes[0].Status != "FAILED" {
		t.Fatalf("expected FAILED for a node that never heartbeat, got %+v", snapshot.Nodes[0])
	}
}
