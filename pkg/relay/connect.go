package relay

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/luxfi/log"

	"github.com/luxfi/paractl/pkg/core"
	"github.com/luxfi/paractl/pkg/metrics"
)

// DefaultConnectTimeout bounds connection establishment.
const DefaultConnectTimeout = 3000 * time.Millisecond

// Dialer opens a client for url. It should honour ctx but is not required to.
type Dialer func(ctx context.Context, url string, schema TypeSchema) (Client, error)

// Endpoint is a connection to a relay chain node owned by one invocation.
type Endpoint struct {
	url    string
	schema TypeSchema
	client Client

	once sync.Once
}

// NewEndpoint wraps an already established client.
func NewEndpoint(url string, schema TypeSchema, client Client) *Endpoint {
	return &Endpoint{url: url, schema: schema, client: client}
}

// URL returns the node address.
func (e *Endpoint) URL() string { return e.url }

// Schema returns the type schema the endpoint was opened with.
func (e *Endpoint) Schema() TypeSchema { return e.schema }

// Client returns the underlying chain client.
func (e *Endpoint) Client() Client { return e.client }

// Close releases the connection. It is safe to call more than once.
func (e *Endpoint) Close() {
	e.once.Do(func() {
		if e.client != nil {
			e.client.Close()
		}
	})
}

// Connector establishes endpoints within a bounded time.
type Connector struct {
	Dial    Dialer
	Timeout time.Duration
	Log     log.Logger
	Metrics *metrics.Metrics
}

// NewConnector creates a connector using the substrate RPC client.
func NewConnector(logger log.Logger, m *metrics.Metrics, timeout time.Duration) *Connector {
	return &Connector{
		Dial:    DialSubstrate,
		Timeout: timeout,
		Log:     logger,
		Metrics: m,
	}
}

type dialResult struct {
	client Client
	err    error
}

// Connect opens an endpoint to url. It fails with core.ErrConnectionTimeout if
// no connection is usable within the connector timeout and with
// core.ErrConnectionError if the transport rejects the connection.
func (c *Connector) Connect(ctx context.Context, url string, schema TypeSchema) (*Endpoint, error) {
	timeout := c.Timeout
	if timeout <= 0 {
		timeout = DefaultConnectTimeout
	}
	dial := c.Dial
	if dial == nil {
		dial = DialSubstrate
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	start := time.Now()
	done := make(chan dialResult, 1)
	go func() {
		client, err := dial(ctx, url, schema)
		done <- dialResult{client: client, err: err}
	}()

	select {
	case res := <-done:
		if res.err != nil {
			if errors.Is(res.err, context.DeadlineExceeded) {
				return nil, fmt.Errorf("%w: %s after %s", core.ErrConnectionTimeout, url, timeout)
			}
			return nil, fmt.Errorf("%w: %s: %v", core.ErrConnectionError, url, res.err)
		}
		c.Metrics.Connected(time.Since(start))
		if c.Log != nil {
			c.Log.Debug("Connected to relay chain", "url", url, "elapsed", time.Since(start))
		}
		return NewEndpoint(url, schema, res.client), nil

	case <-ctx.Done():
		// A dial that completes late must still release its socket.
		go func() {
			if res := <-done; res.client != nil {
				res.client.Close()
			}
		}()
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, fmt.Errorf("%w: %s after %s", core.ErrConnectionTimeout, url, timeout)
		}
		return nil, fmt.Errorf("%w: %s: %v", core.ErrConnectionError, url, ctx.Err())
	}
}
