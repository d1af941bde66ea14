// Package proxy rotates outbound proxies with failure-based cooldown, for
// snapshot fetches against competitor sites that throttle by IP.
package proxy

import (
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"
)

type entry struct {
	url           *url.URL
	failures      int
	disabledUntil time.Time
}

// Pool is a round-robin proxy rotation with per-proxy failure tracking.
// A proxy that fails maxFailures times in a row is benched for the cooldown
// period, then retried.
type Pool struct {
	mu          sync.Mutex
	entries     []*entry
	next        int
	maxFailures int
	cooldown    time.Duration
}

// NewPool creates a pool from raw proxy URLs. URLs without a scheme default
// to http. An empty list yields a pool whose Next always returns nil.
func NewPool(rawURLs []string, maxFailures int, cooldown time.Duration) (*Pool, error) {
	if maxFailures <= 0 {
		maxFailures = 3
	}
	if cooldown <= 0 {
		cooldown = 5 * time.Minute
	}

	p := &Pool{maxFailures: maxFailures, cooldown: cooldown}
	for _, raw := range rawURLs {
		if !strings.Contains(raw, "://") {
			raw = "http://" + raw
		}
		u, err := url.Parse(raw)
		if err != nil {
			return nil, fmt.Errorf("parse proxy url %q: %w", raw, err)
		}
		p.entries = append(p.entries, &entry{url: u})
	}
	return p, nil
}

// Next returns the next healthy proxy, or nil when none is available.
func (p *Pool) Next() *url.URL {
	p.mu.Lock()
	defer p.mu.Unlock()

	now := time.Now()
	for range p.entries {
		e := p.entries[p.next%len(p.entries)]
		p.next++
		if e.disabledUntil.After(now) {
			continue
		}
		return e.url
	}
	return nil
}

// MarkFailure records a failed request through u and benches the proxy when
// it crosses the failure threshold.
func (p *Pool) MarkFailure(u *url.URL) {
	p.mu.Lock()
	defer p.mu.Unlock()

	e := p.find(u)
	if e == nil {
		return
	}
	e.failures++
	if e.failures >= p.maxFailures {
		e.disabledUntil = time.Now().Add(p.cooldown)
		e.failures = 0
	}
}

// MarkSuccess resets the failure streak for u.
func (p *Pool) MarkSuccess(u *url.URL) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if e := p.find(u); e != nil {
		e.failures = 0
	}
}

func (p *Pool) find(u *url.URL) *entry {
	for _, e := range p.entries {
		if e.url.String() == u.String() {
			return e
		}
	}
	return nil
}

// Size returns the number of proxies in the pool, benched ones included.
func (p *Pool) Size() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.entries)
}
