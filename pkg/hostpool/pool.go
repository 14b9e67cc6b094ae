// Package hostpool tracks live render hosts and hands them to renders that
// need one. Hosts are registered by their producer, which keeps ownership:
// the pool holds weak references only, so a host whose handle is dropped
// disappears from the pool without an explicit Unregister.
package hostpool

import (
	"context"
	"errors"
	"sync"
	"time"
	"weak"

	"github.com/user/wikipreview/pkg/ports"
)

// ErrTimeout is returned by Wait when no live host was registered in time.
var ErrTimeout = errors.New("hostpool: timed out waiting for a host")

// Defaults applied to zero Config fields.
const (
	DefaultTimeout       = 25 * time.Second
	DefaultRetryAttempts = 3
	DefaultRetryDelay    = 100 * time.Millisecond
)

// Handle is the producer-owned token for a registered host. The producer
// must keep the handle reachable for as long as the host should be offered.
type Handle struct {
	host ports.Host
}

// NewHandle wraps host for registration.
func NewHandle(host ports.Host) *Handle {
	return &Handle{host: host}
}

// Host returns the wrapped host.
func (h *Handle) Host() ports.Host {
	return h.host
}

// Config configures a Pool.
type Config struct {
	Timeout       time.Duration // Total wait before ErrTimeout (default: 25s)
	RetryAttempts int           // Short polls before queueing (default: 3, negative: none)
	RetryDelay    time.Duration // Delay between polls (default: 100ms)
}

func (c Config) withDefaults() Config {
	if c.Timeout <= 0 {
		c.Timeout = DefaultTimeout
	}
	if c.RetryAttempts < 0 {
		c.RetryAttempts = 0
	} else if c.RetryAttempts == 0 {
		c.RetryAttempts = DefaultRetryAttempts
	}
	if c.RetryDelay <= 0 {
		c.RetryDelay = DefaultRetryDelay
	}
	return c
}

// waiter is a queued Wait call. ch is buffered so a hand-out never blocks
// the registering goroutine.
type waiter struct {
	ch chan *Handle
}

// Pool is a set of weakly held hosts plus a FIFO queue of waiters.
// Hosts are shared: handing a host to a waiter does not remove it.
type Pool struct {
	cfg    Config
	logger ports.Logger

	mu      sync.Mutex
	hosts   []weak.Pointer[Handle]
	waiters []*waiter
}

// New creates an empty pool.
func New(cfg Config, logger ports.Logger) *Pool {
	return &Pool{
		cfg:    cfg.withDefaults(),
		logger: logger.WithComponent("hostpool"),
	}
}

// Register adds h to the pool and resumes every queued waiter with it,
// oldest first. Registering the same handle twice has no effect.
func (p *Pool) Register(h *Handle) {
	if h == nil || h.host == nil {
		return
	}

	p.mu.Lock()
	p.pruneLocked()
	present := false
	for _, wp := range p.hosts {
		if wp.Value() == h {
			present = true
			break
		}
	}
	if !present {
		p.hosts = append(p.hosts, weak.Make(h))
	}

	var resumed int
	if h.host.Alive() {
		for _, w := range p.waiters {
			w.ch <- h
		}
		resumed = len(p.waiters)
		p.waiters = nil
	}
	n := len(p.hosts)
	p.mu.Unlock()

	p.logger.Debug("Host %s registered (%d live, %d waiters resumed)", h.host.ID(), n, resumed)
}

// Unregister removes every reference to h.
func (p *Pool) Unregister(h *Handle) {
	if h == nil {
		return
	}

	p.mu.Lock()
	kept := p.hosts[:0]
	for _, wp := range p.hosts {
		if v := wp.Value(); v != nil && v != h {
			kept = append(kept, wp)
		}
	}
	clear(p.hosts[len(kept):])
	p.hosts = kept
	p.mu.Unlock()

	p.logger.Debug("Host %s unregistered", h.host.ID())
}

// Wait returns a live host. It polls RetryAttempts times, RetryDelay apart,
// then queues until a host is registered, ctx ends, or Timeout passes.
// A timeout yields ErrTimeout; a cancelled ctx yields ctx.Err().
func (p *Pool) Wait(ctx context.Context) (ports.Host, error) {
	if h := p.live(); h != nil {
		return h.host, nil
	}

	ctx, cancel := context.WithTimeout(ctx, p.cfg.Timeout)
	defer cancel()

	for i := 0; i < p.cfg.RetryAttempts; i++ {
		select {
		case <-time.After(p.cfg.RetryDelay):
		case <-ctx.Done():
			return nil, p.waitErr(ctx)
		}
		if h := p.live(); h != nil {
			return h.host, nil
		}
	}

	p.logger.Debug("No live host, queueing waiter")
	for {
		w, h := p.enqueue()
		if h != nil {
			return h.host, nil
		}

		select {
		case h := <-w.ch:
			if h.host.Alive() {
				return h.host, nil
			}
			// Died between hand-out and resume; queue again.
		case <-ctx.Done():
			if h := p.dequeue(w); h != nil && h.host.Alive() {
				return h.host, nil
			}
			return nil, p.waitErr(ctx)
		}
	}
}

// Len returns the number of live hosts.
func (p *Pool) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.pruneLocked()
	return len(p.hosts)
}

// Waiting returns the number of queued waiters.
func (p *Pool) Waiting() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.waiters)
}

// live returns the most recently registered live handle.
func (p *Pool) live() *Handle {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.liveLocked()
}

func (p *Pool) liveLocked() *Handle {
	p.pruneLocked()
	for i := len(p.hosts) - 1; i >= 0; i-- {
		if h := p.hosts[i].Value(); h != nil && h.host.Alive() {
			return h
		}
	}
	return nil
}

// enqueue queues a waiter unless a live host appeared since the last check.
func (p *Pool) enqueue() (*waiter, *Handle) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if h := p.liveLocked(); h != nil {
		return nil, h
	}
	w := &waiter{ch: make(chan *Handle, 1)}
	p.waiters = append(p.waiters, w)
	return w, nil
}

// dequeue removes w from the queue. If Register already resumed w, the
// handle it was given is returned instead.
func (p *Pool) dequeue(w *waiter) *Handle {
	p.mu.Lock()
	defer p.mu.Unlock()
	for i, q := range p.waiters {
		if q == w {
			p.waiters = append(p.waiters[:i], p.waiters[i+1:]...)
			return nil
		}
	}
	select {
	case h := <-w.ch:
		return h
	default:
		return nil
	}
}

// pruneLocked drops collected handles and dead hosts.
func (p *Pool) pruneLocked() {
	kept := p.hosts[:0]
	for _, wp := range p.hosts {
		if h := wp.Value(); h != nil && h.host.Alive() {
			kept = append(kept, wp)
		}
	}
	clear(p.hosts[len(kept):])
	p.hosts = kept
}

func (p *Pool) waitErr(ctx context.Context) error {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		p.logger.Warn("Timed out waiting for a host after %s", p.cfg.Timeout)
		return ErrTimeout
	}
	return ctx.Err()
}
