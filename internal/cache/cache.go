// Package cache keeps rendered read responses keyed by logical page path
// until a change event names that path.
package cache

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/emilythestrangee/devflow/backend/internal/events"
	"github.com/emilythestrangee/devflow/backend/internal/metrics"
)

type entry struct {
	body    []byte
	expires time.Time
}

// mark records when a path, or a prefix for "/*" paths, was last invalidated.
type mark struct {
	seq uint64
	at  time.Time
}

// Pages is a concurrency-safe response cache with a per-entry TTL.
//
// A reader takes a Stamp before loading the page and hands it to Set, which
// refuses the body when the path was invalidated in between.
type Pages struct {
	mu       sync.RWMutex
	entries  map[string]entry
	marks    map[string]mark
	prefixes map[string]mark
	seq      uint64
	pruned   time.Time
	ttl      time.Duration
	now      func() time.Time
	logger   *slog.Logger
}

func New(ttl time.Duration, logger *slog.Logger) *Pages {
	if logger == nil {
		logger = slog.Default()
	}
	return &Pages{
		entries:  make(map[string]entry),
		marks:    make(map[string]mark),
		prefixes: make(map[string]mark),
		ttl:      ttl,
		now:      time.Now,
		logger:   logger,
	}
}

func (p *Pages) Get(path string) ([]byte, bool) {
	p.mu.RLock()
	e, ok := p.entries[path]
	p.mu.RUnlock()
	if !ok || p.now().After(e.expires) {
		return nil, false
	}
	return e.body, true
}

// Stamp returns the current invalidation sequence.
func (p *Pages) Stamp() uint64 {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.seq
}

// Set stores body for path unless path was invalidated after stamp was
// taken. It reports whether the body was stored.
func (p *Pages) Set(path string, stamp uint64, body []byte) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	if m, ok := p.marks[path]; ok && m.seq > stamp {
		return false
	}
	for prefix, m := range p.prefixes {
		if m.seq > stamp && under(path, prefix) {
			return false
		}
	}
	p.entries[path] = entry{body: body, expires: p.now().Add(p.ttl)}
	return true
}

func under(path, prefix string) bool {
	return path == prefix || strings.HasPrefix(path, prefix+"/")
}

// Invalidate drops the given paths. A path ending in "/*" drops every entry
// under that prefix.
func (p *Pages) Invalidate(paths ...string) int {
	p.mu.Lock()
	defer p.mu.Unlock()

	now := p.now()
	p.seq++
	m := mark{seq: p.seq, at: now}

	dropped := 0
	for _, path := range paths {
		if prefix, ok := strings.CutSuffix(path, "/*"); ok {
			p.prefixes[prefix] = m
			for k := range p.entries {
				if under(k, prefix) {
					delete(p.entries, k)
					dropped++
				}
			}
			continue
		}
		p.marks[path] = m
		if _, ok := p.entries[path]; ok {
			delete(p.entries, path)
			dropped++
		}
	}
	p.prune(now)
	return dropped
}

// prune forgets marks older than the TTL, at most once per TTL.
func (p *Pages) prune(now time.Time) {
	if now.Sub(p.pruned) < p.ttl {
		return
	}
	p.pruned = now
	cutoff := now.Add(-p.ttl)
	for k, m := range p.marks {
		if m.at.Before(cutoff) {
			delete(p.marks, k)
		}
	}
	for k, m := range p.prefixes {
		if m.at.Before(cutoff) {
			delete(p.prefixes, k)
		}
	}
}

func (p *Pages) Len() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.entries)
}

// Run invalidates every path named on changes until ctx is done or the
// channel closes.
func (p *Pages) Run(ctx context.Context, changes <-chan events.Change) {
	for {
		select {
		case <-ctx.Done():
			return
		case ch, ok := <-changes:
			if !ok {
				return
			}
			n := p.Invalidate(ch.Paths...)
			source := "local"
			if ch.Origin != "" {
				source = "remote"
			}
			metrics.Invalidation(source)
			p.logger.Debug("cache invalidated", "paths", ch.Paths, "dropped", n, "source", source)
		}
	}
}
