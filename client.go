package tds

import (
	"context"
	"net"
	"sync"
	"time"
)

// Config holds configuration for the client connection pools.
type Config struct {
	// MaxPoolSize is the maximum number of connections per server.
	// Required: must be > 0.
	MaxPoolSize int32

	// MaxConnLifetime is the maximum duration a connection can be
	// reused. Zero means no limit.
	MaxConnLifetime time.Duration

	// MaxConnIdleTime is the maximum duration a connection can be idle
	// before being closed. Zero means no limit.
	MaxConnIdleTime time.Duration

	// ReapInterval is how often idle connections are checked against
	// the lifetime and idle limits. Zero disables reaping.
	ReapInterval time.Duration

	// Dialer is the net.Dialer used to create new connections.
	// If nil, the default net.Dialer is used.
	Dialer *net.Dialer

	// NewCircuitBreaker creates a circuit breaker for a server.
	// Called once per server address when its pool is created.
	// If nil, no circuit breaker is used.
	NewCircuitBreaker func(serverAddr string) *CircuitBreaker

	// for testing purposes only
	constructor func(ctx context.Context) (*Conn, error)
}

// serverPool wraps a pool with its server address.
type serverPool struct {
	addr    string
	pool    *Pool
	breaker *CircuitBreaker // nil if not configured
}

// Client manages per-server connection pools over a server list. It
// hands out connections; request encoding and the response token stream
// are the caller's and the token package's business.
type Client struct {
	servers Servers
	config  Config

	mu    sync.RWMutex
	pools map[string]*serverPool

	stopReaper chan struct{}
}

// NewClient creates a client over the given servers.
func NewClient(servers Servers, config Config) (*Client, error) {
	if len(servers.List()) == 0 {
		return nil, ErrNoServers
	}
	if config.Dialer == nil {
		config.Dialer = &net.Dialer{}
	}

	client := &Client{
		servers:    servers,
		config:     config,
		pools:      make(map[string]*serverPool),
		stopReaper: make(chan struct{}),
	}

	if config.ReapInterval > 0 {
		go client.reapLoop()
	}
	return client, nil
}

// Close closes the client and destroys all pooled connections.
func (c *Client) Close() {
	if c.config.ReapInterval > 0 {
		close(c.stopReaper)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	for _, sp := range c.pools {
		sp.pool.Close()
	}
}

// WithConn runs fn with a connection to the endpoint selected for the
// given session affinity. The connection is returned to the pool
// afterwards, or destroyed when fn left it closed (out-of-sync streams
// close the connection, see Conn.ProcessResponse). A configured circuit
// breaker wraps the whole exchange.
func (c *Client) WithConn(ctx context.Context, affinity string, fn func(*Conn) error) error {
	sp, err := c.poolFor(affinity)
	if err != nil {
		return err
	}

	if sp.breaker != nil {
		_, err = sp.breaker.Execute(func() (struct{}, error) {
			return struct{}{}, c.withConnDirect(ctx, sp.pool, fn)
		})
		return err
	}
	return c.withConnDirect(ctx, sp.pool, fn)
}

func (c *Client) withConnDirect(ctx context.Context, pool *Pool, fn func(*Conn) error) error {
	resource, err := pool.Acquire(ctx)
	if err != nil {
		return err
	}

	err = fn(resource.Value())
	if resource.Value().IsClosed() {
		resource.Destroy()
	} else {
		resource.Release()
	}
	return err
}

func (c *Client) poolFor(affinity string) (*serverPool, error) {
	addr, err := c.servers.Select(affinity)
	if err != nil {
		return nil, err
	}
	return c.getOrCreatePool(addr)
}

func (c *Client) getOrCreatePool(addr string) (*serverPool, error) {
	c.mu.RLock()
	sp, exists := c.pools[addr]
	c.mu.RUnlock()
	if exists {
		return sp, nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if sp, exists := c.pools[addr]; exists {
		return sp, nil
	}

	constructor := c.config.constructor
	if constructor == nil {
		constructor = func(ctx context.Context) (*Conn, error) {
			netConn, err := c.config.Dialer.DialContext(ctx, "tcp", addr)
			if err != nil {
				return nil, err
			}
			return NewConn(netConn), nil
		}
	}

	pool, err := NewPool(constructor, c.config.MaxPoolSize)
	if err != nil {
		return nil, err
	}

	sp = &serverPool{addr: addr, pool: pool}
	if c.config.NewCircuitBreaker != nil {
		sp.breaker = c.config.NewCircuitBreaker(addr)
	}
	c.pools[addr] = sp
	return sp, nil
}

// ServerPoolStats contains stats for a single server pool.
type ServerPoolStats struct {
	Addr      string
	PoolStats PoolStats
}

// AllPoolStats returns stats for all server pools created so far.
func (c *Client) AllPoolStats() []ServerPoolStats {
	c.mu.RLock()
	defer c.mu.RUnlock()

	stats := make([]ServerPoolStats, 0, len(c.pools))
	for _, sp := range c.pools {
		stats = append(stats, ServerPoolStats{Addr: sp.addr, PoolStats: sp.pool.Stats()})
	}
	return stats
}

func (c *Client) reapLoop() {
	ticker := time.NewTicker(c.config.ReapInterval)
	defer ticker.Stop()

	for {
		select {
		case <-c.stopReaper:
			return
		case <-ticker.C:
			c.reapAllPools()
		}
	}
}

func (c *Client) reapAllPools() {
	c.mu.RLock()
	pools := make([]*serverPool, 0, len(c.pools))
	for _, sp := range c.pools {
		pools = append(pools, sp)
	}
	c.mu.RUnlock()

	for _, sp := range pools {
		c.reapPool(sp.pool)
	}
}

// reapPool destroys idle connections past their lifetime or idle limit,
// and any left closed by an out-of-sync parse.
func (c *Client) reapPool(pool *Pool) {
	now := time.Now()

	for _, res := range pool.AcquireAllIdle() {
		if c.config.MaxConnLifetime > 0 && now.Sub(res.CreationTime()) > c.config.MaxConnLifetime {
			res.Destroy()
			continue
		}
		if c.config.MaxConnIdleTime > 0 && res.IdleDuration() > c.config.MaxConnIdleTime {
			res.Destroy()
			continue
		}
		if res.Value().IsClosed() {
			res.Destroy()
			continue
		}
		res.ReleaseUnused()
	}
}
