// Package server wires the cluster model, the UDP transport, and the
// four cooperating services (heartbeat emitter, connectivity prober,
// listener, supervisor) into one running oniond process, following the
// startup/shutdown sequence and shared-state discipline modeled on the
// teacher's ha.Manager Start/Stop lifecycle.
package server

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/onionha/oniond/internal/action"
	"github.com/onionha/oniond/internal/cluster"
	"github.com/onionha/oniond/internal/config"
	"github.com/onionha/oniond/internal/history"
	"github.com/onionha/oniond/internal/logging"
	"github.com/onionha/oniond/internal/statusapi"
	"github.com/onionha/oniond/internal/transport"
)

const (
	heartbeatInterval = 500 * time.Millisecond
	probeInterval     = 500 * time.Millisecond
	probeTimeout      = time.Second
	listenerTimeout   = 5 * time.Second
	supervisorTick    = 500 * time.Millisecond
	statusWarmup      = 2 * time.Second

	// statusAPIPortOffset places the HTTP introspection surface 1000 ports
	// above the cluster UDP port, so a single configured port number
	// still picks a collision-free address for it without a new config key.
	statusAPIPortOffset = 1000
	httpShutdownTimeout = 2 * time.Second
)

// Server owns every shared object for one running node and the
// goroutines that animate it.
type Server struct {
	cfg     *config.Config
	log     *logging.Logger
	cluster *cluster.Cluster
	gateway *cluster.Gateway
	socket  *transport.Socket
	history *history.Store
	hub     *statusapi.Hub
	httpSrv *http.Server

	stopCh   chan struct{}
	stopOnce sync.Once

	deviceAlive map[int]bool // diagnostic pass history, keyed by device id; gateway uses id -1
}

// New builds a Server from a validated configuration. It does not bind
// the socket or start any service; call Run for that.
func New(cfg *config.Config, log *logging.Logger, hist *history.Store) (*Server, error) {
	c := cluster.NewCluster()
	for i, addr := range cfg.Nodes {
		c.Register(cluster.NewNode(i, addr, cfg.Port, cfg.DeadTime, addr == cfg.Address))
	}
	if c.CurrentNode() == nil {
		return nil, fmt.Errorf("server: local address %s is not a registered cluster node", cfg.Address)
	}

	gw := cluster.NewGateway(cfg.Gateway, cfg.DeadTime)

	return &Server{
		cfg:         cfg,
		log:         log,
		cluster:     c,
		gateway:     gw,
		history:     hist,
		hub:         statusapi.NewHub(),
		stopCh:      make(chan struct{}),
		deviceAlive: make(map[int]bool),
	}, nil
}

// Cluster exposes the running cluster view, e.g. for the HTTP status
// surface.
func (s *Server) Cluster() *cluster.Cluster { return s.cluster }

// Hub exposes the websocket event hub.
func (s *Server) Hub() *statusapi.Hub { return s.hub }

// Run executes the full startup sequence, blocks until Stop is called
// or ctx is cancelled, then runs the shutdown sequence.
func (s *Server) Run(ctx context.Context) error {
	if s.cfg.InitDelay > 0 {
		s.log.Infof("server", "waiting %s before binding (initDelay)", s.cfg.InitDelay)
		time.Sleep(s.cfg.InitDelay)
	}

	socket, err := transport.Bind(s.cfg.Port)
	if err != nil {
		return fmt.Errorf("server: %w", err)
	}
	s.socket = socket
	defer socket.Close()

	go s.hub.Run(s.stopCh)
	var services sync.WaitGroup
	for _, run := range []func(){s.runHeartbeat, s.runProber, s.runListener} {
		services.Add(1)
		go func(run func()) {
			defer services.Done()
			run()
		}(run)
	}
	s.startStatusAPI()

	s.log.Infof("server", "started on port %d, waiting for initial heartbeat round", s.cfg.Port)
	time.Sleep(statusWarmup)

	go func() {
		<-ctx.Done()
		s.Stop()
	}()

	s.runSupervisor()

	if current := s.cluster.CurrentNode(); current.IsActive() {
		s.transitionPassive(current)
	}
	s.stopStatusAPI()
	services.Wait()
	return nil
}

// startStatusAPI binds the loopback-only HTTP introspection surface
// (JSON status snapshot plus the websocket event stream) 1000 ports above
// the cluster UDP port. A bind failure here only disables introspection;
// it never aborts the coordination core.
func (s *Server) startStatusAPI() {
	addr := fmt.Sprintf("127.0.0.1:%d", s.cfg.Port+statusAPIPortOffset)
	s.httpSrv = &http.Server{
		Addr:         addr,
		Handler:      statusapi.NewServer(s.cluster, s.hub),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 5 * time.Second,
		IdleTimeout:  30 * time.Second,
	}
	go func() {
		if err := s.httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.log.Warnf("statusapi", "http introspection surface stopped: %v", err)
		}
	}()
	s.log.Infof("statusapi", "http introspection surface listening on %s", addr)
}

func (s *Server) stopStatusAPI() {
	if s.httpSrv == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), httpShutdownTimeout)
	defer cancel()
	if err := s.httpSrv.Shutdown(ctx); err != nil {
		s.log.Debugf("statusapi", "shutdown: %v", err)
	}
}

// Stop requests an orderly shutdown; Run returns once every service has
// observed it. Safe to call multiple times and from any goroutine.
func (s *Server) Stop() {
	s.stopOnce.Do(func() { close(s.stopCh) })
}

// transitionActive runs the activation command. It does not flip any
// cluster bookkeeping itself — electOnce's active-node bookkeeping block
// is the sole caller of cluster.Activate, and only does so after this
// returns, so a GET STATUS query arriving while the command is still
// running reports the node's previous role rather than already active,
// matching original_source/src/onion.py's set_scenario/
// latest_scenario ordering.
func (s *Server) transitionActive(node *cluster.Node) {
	s.log.Infof("supervisor", "%s is now active", node.Address())
	code, err := action.Run(context.Background(), action.Command(s.cfg.Active))
	if err != nil {
		s.log.Errorf("supervisor", "activation command failed: %v", err)
	} else if code != 0 {
		s.log.Errorf("supervisor", "activation command exited %d", code)
	}
	if s.history != nil {
		_ = s.history.Record(history.EventActivated, node.Address(), "elected by priority")
	}
	s.hub.Publish("activated", node.Address(), "")
}

func (s *Server) transitionPassive(node *cluster.Node) {
	s.log.Infof("supervisor", "%s is now passive", node.Address())
	code, err := action.Run(context.Background(), action.Command(s.cfg.Passive))
	if err != nil {
		s.log.Errorf("supervisor", "deactivation command failed: %v", err)
	} else if code != 0 {
		s.log.Errorf("supervisor", "deactivation command exited %d", code)
	}
	if s.history != nil {
		_ = s.history.Record(history.EventDeactivated, node.Address(), "")
	}
	s.hub.Publish("deactivated", node.Address(), "")
}
