// Package useragent rotates realistic browser User-Agent strings for
// competitor-site snapshot fetches.
package useragent

import (
	"math/rand"
	"sync/atomic"
)

// defaults covers current desktop Chrome, Firefox, Safari and Edge.
var defaults = []string{
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/126.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/126.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64; rv:127.0) Gecko/20100101 Firefox/127.0",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10.15; rv:127.0) Gecko/20100101 Firefox/127.0",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.5 Safari/605.1.15",
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/126.0.0.0 Safari/537.36 Edg/126.0.0.0",
}

// Pool cycles through a set of User-Agent strings. Safe for concurrent use.
type Pool struct {
	agents []string
	next   atomic.Uint64
}

// NewPool creates a pool; an empty slice falls back to the built-in set.
func NewPool(agents []string) *Pool {
	if len(agents) == 0 {
		agents = defaults
	}
	copied := make([]string, len(agents))
	copy(copied, agents)
	return &Pool{agents: copied}
}

// Next returns User-Agents round-robin.
func (p *Pool) Next() string {
	idx := p.next.Add(1) - 1
	return p.agents[idx%uint64(len(p.agents))]
}

// Random returns a uniformly random User-Agent.
func (p *Pool) Random() string {
	return p.agents[rand.Intn(len(p.agents))]
}

// Size returns how many User-Agents the pool holds.
func (p *Pool) Size() int { return len(p.agents) }
