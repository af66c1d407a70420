package statusapi

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"

	"github.com/onionha/oniond/internal/cluster"
	"github.com/onionha/oniond/internal/wire"
)

// NodeSnapshot mirrors one node's entry in a JSON status response.
type NodeSnapshot struct {
	Address  string `json:"address"`
	Status   string `json:"status"`
	IsActive bool   `json:"is_active"`
	Current  bool   `json:"current"`
}

// Snapshot is the full JSON response served from GET /status.
type Snapshot struct {
	Nodes []NodeSnapshot `json:"nodes"`
}

// Server is the HTTP+websocket introspection surface for one oniond
// process. It never mutates the cluster; it only reads it.
type Server struct {
	cluster *cluster.Cluster
	hub     *Hub
	router  *mux.Router
	upgrade websocket.Upgrader
}

// NewServer builds the router for c, wiring /status and /ws/events.
func NewServer(c *cluster.Cluster, hub *Hub) *Server {
	s := &Server{
		cluster: c,
		hub:     hub,
		router:  mux.NewRouter(),
		upgrade: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
	s.router.HandleFunc("/status", s.handleStatus).Methods(http.MethodGet)
	s.router.HandleFunc("/ws/events", s.handleWebsocket).Methods(http.MethodGet)
	return s
}

// ServeHTTP satisfies http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	nodes := s.cluster.Nodes()
	active := s.cluster.ActiveNode()

	snapshot := Snapshot{Nodes: make([]NodeSnapshot, 0, len(nodes))}
	for _, n := range nodes {
		status := wire.StatusFailed
		switch {
		case n == active:
			status = wire.StatusActive
		case n.IsAlive():
			status = wire.StatusPassive
		}
		snapshot.Nodes = append(snapshot.Nodes, NodeSnapshot{
			Address:  n.Address(),
			Status:   status.String(),
			IsActive: n == active,
			Current:  n.IsCurrent(),
		})
	}

	respondJSON(w, http.StatusOK, snapshot)
}

func (s *Server) handleWebsocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrade.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	s.hub.Register(conn)
}

func respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
