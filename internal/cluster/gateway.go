package cluster

import "time"

// Gateway is the tie-breaker device this node uses to decide whether it
// has external connectivity. Only the connectivity prober refreshes its
// last-seen stamp; its deadtime equals the configured cluster deadtime.
type Gateway struct {
	device
}

// NewGateway builds a Gateway with the given deadtime.
func NewGateway(address string, deadtime time.Duration) *Gateway {
	return &Gateway{device: newDevice(0, address, deadtime)}
}

func (g *Gateway) String() string { return "gateway " + g.address }
