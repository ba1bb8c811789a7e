package offline

import (
	"slices"
	"sync"
)

// ClientCookie identifies a page across requests.
const ClientCookie = "speakr_client"

// Pages tracks the pages that have loaded through the worker and which cache
// version controls each one. An empty version means uncontrolled.
type Pages struct {
	mu          sync.Mutex
	controllers map[string]string
	order       []string
}

// NewPages creates an empty registry.
func NewPages() *Pages {
	return &Pages{controllers: make(map[string]string)}
}

// Register records page id. A page already known keeps its controller.
func (p *Pages) Register(id, controller string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if _, ok := p.controllers[id]; ok {
		return
	}
	p.controllers[id] = controller
	p.order = append(p.order, id)
}

// Controller returns the version controlling page id.
func (p *Pages) Controller(id string) (string, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	c, ok := p.controllers[id]
	return c, ok
}

// Claim puts every known page under version and returns how many changed.
func (p *Pages) Claim(version string) int {
	p.mu.Lock()
	defer p.mu.Unlock()

	changed := 0
	for id, c := range p.controllers {
		if c != version {
			p.controllers[id] = version
			changed++
		}
	}
	return changed
}

// IDs lists known pages in registration order.
func (p *Pages) IDs() []string {
	p.mu.Lock()
	defer p.mu.Unlock()

	return slices.Clone(p.order)
}
