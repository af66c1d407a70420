package cluster

import (
	"fmt"
	"net"
	"sort"
	"sync"
)

// UnknownNodeError is returned by Get when an address does not belong
// to any registered node.
type UnknownNodeError struct {
	Address string
}

func (e *UnknownNodeError) Error() string {
	return fmt.Sprintf("unknown node: %s", e.Address)
}

// Cluster is the ordered collection of Nodes that make up an Onion HA
// deployment. Order is identifier order (Register re-sorts), which
// doubles as configured priority: index 0 is the master.
//
// A Cluster is built once at startup by the orchestrator and then
// shared, read-mostly, with every service; Register must not be called
// once services are running.
type Cluster struct {
	// ResolveFQDN enables the reverse-DNS fallback in Get. Off by
	// default — see the "Address identity" design note in SPEC_FULL.md:
	// peers should be configured with the literal address form used to
	// bind, so the fallback is an opt-in escape hatch, not the default
	// path.
	ResolveFQDN bool

	mu      sync.RWMutex
	nodes   []*Node
	index   map[string]*Node
	current *Node
	active  *Node
}

// NewCluster returns an empty cluster.
func NewCluster() *Cluster {
	return &Cluster{index: make(map[string]*Node)}
}

// Register adds a node to the cluster and re-sorts the priority order by
// identifier ascending. The node with the lowest identifier is the
// master, whatever order the nodes were registered in.
func (c *Cluster) Register(node *Node) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.nodes = append(c.nodes, node)
	sort.Slice(c.nodes, func(i, j int) bool { return c.nodes[i].id < c.nodes[j].id })

	c.index[node.Address()] = node
	if node.IsCurrent() {
		c.current = node
	}
}

// Get resolves an address to a registered node. The literal
// "127.0.0.1" always resolves to the current node; otherwise the
// address must match a registered node's address exactly, or — when
// ResolveFQDN is set — its reverse-DNS canonical name must.
func (c *Cluster) Get(address string) (*Node, error) {
	if address == "127.0.0.1" {
		c.mu.RLock()
		defer c.mu.RUnlock()
		if c.current == nil {
			return nil, &UnknownNodeError{Address: address}
		}
		return c.current, nil
	}

	c.mu.RLock()
	node, ok := c.index[address]
	c.mu.RUnlock()
	if ok {
		return node, nil
	}

	if c.ResolveFQDN {
		if names, err := net.LookupAddr(address); err == nil {
			for _, name := range names {
				c.mu.RLock()
				node, ok = c.index[name]
				c.mu.RUnlock()
				if ok {
					return node, nil
				}
			}
		}
	}

	return nil, &UnknownNodeError{Address: address}
}

// Nodes returns every registered node, in priority order.
func (c *Cluster) Nodes() []*Node {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]*Node, len(c.nodes))
	copy(out, c.nodes)
	return out
}

// Peers returns every registered node except the current one, in
// priority order.
func (c *Cluster) Peers() []*Node {
	nodes := c.Nodes()
	peers := make([]*Node, 0, len(nodes))
	for _, n := range nodes {
		if !n.IsCurrent() {
			peers = append(peers, n)
		}
	}
	return peers
}

// NodesAlive returns, in priority order, the nodes whose IsAlive is
// currently true.
func (c *Cluster) NodesAlive() []*Node {
	nodes := c.Nodes()
	alive := make([]*Node, 0, len(nodes))
	for _, n := range nodes {
		if n.IsAlive() {
			alive = append(alive, n)
		}
	}
	return alive
}

// GetNextActiveNode returns the highest-priority alive node, or nil if
// no node is alive.
func (c *Cluster) GetNextActiveNode() *Node {
	alive := c.NodesAlive()
	if len(alive) == 0 {
		return nil
	}
	return alive[0]
}

// Activate sets node active, clearing any previously active node. It
// only flips flags — it never invokes a user command; that is the
// supervisor's job.
func (c *Cluster) Activate(node *Node) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.active != nil {
		c.active.setActive(false)
	}
	node.setActive(true)
	c.active = node
}

// ResetActiveNode clears the active node, if any.
func (c *Cluster) ResetActiveNode() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.active != nil {
		c.active.setActive(false)
		c.active = nil
	}
}

// CurrentNode returns the node representing this process.
func (c *Cluster) CurrentNode() *Node {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.current
}

// ActiveNode returns the node currently marked active, or nil.
func (c *Cluster) ActiveNode() *Node {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.active
}
