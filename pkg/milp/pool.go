package milp

import "sync"

// Pool is the append-only store of lazy constraints for one solve. It is safe
// for concurrent use.
type Pool struct {
	mu   sync.RWMutex
	seen map[string]struct{}
	cons []Constraint
}

// NewPool returns an empty pool.
func NewPool() *Pool {
	return &Pool{seen: make(map[string]struct{})}
}

// Add stores c unless an equivalent constraint is already present. It reports
// whether c was new.
func (p *Pool) Add(c Constraint) bool {
	key := c.Key()

	p.mu.Lock()
	defer p.mu.Unlock()
	if _, ok := p.seen[key]; ok {
		return false
	}
	p.seen[key] = struct{}{}
	p.cons = append(p.cons, c)
	return true
}

// Len returns the number of stored constraints.
func (p *Pool) Len() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.cons)
}

// Snapshot returns the constraints added so far. Later additions do not
// affect the returned slice, which must not be modified.
func (p *Pool) Snapshot() []Constraint {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.cons[:len(p.cons):len(p.cons)]
}
