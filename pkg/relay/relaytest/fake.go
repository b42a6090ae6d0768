// Package relaytest provides an in-memory relay.Client for tests.
package relaytest

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/atomic"

	"github.com/luxfi/paractl/pkg/keys"
	"github.com/luxfi/paractl/pkg/relay"
)

// Submission records one SubmitAndWatch call.
type Submission struct {
	Call   relay.Call
	Signer keys.Account
	Nonce  uint64
}

// Client is a scriptable relay.Client. The zero value is not usable; call New.
type Client struct {
	mu sync.Mutex

	nonces      map[string]uint64
	submissions []Submission
	heads       map[relay.ParaID][]byte
	headers     map[string]relay.Header

	// RegisteredAfter maps a para id to the query number (1-based) from which
	// it appears in Parachains. Negative means never.
	RegisteredAfter map[relay.ParaID]int
	// Statuses is the status sequence delivered for each submission.
	Statuses []relay.Status
	// SubmitErr, when set, is returned by SubmitAndWatch.
	SubmitErr error
	// QueryErr, when set, is returned by Parachains.
	QueryErr error
	// Best is returned by BestHeader.
	Best relay.Header

	Queries      atomic.Int32
	Unsubscribes atomic.Int32
	Closed       atomic.Bool
}

// New returns a fake whose submissions are included then finalized.
func New() *Client {
	return &Client{
		nonces:          map[string]uint64{},
		heads:           map[relay.ParaID][]byte{},
		headers:         map[string]relay.Header{},
		RegisteredAfter: map[relay.ParaID]int{},
		Statuses: []relay.Status{
			{Kind: relay.StatusReady},
			{Kind: relay.StatusInBlock, BlockHash: "0x01"},
			{Kind: relay.StatusFinalized, BlockHash: "0x01"},
		},
	}
}

// Endpoint wraps the fake in an endpoint.
func (c *Client) Endpoint() *relay.Endpoint {
	return relay.NewEndpoint("ws://fake", nil, c)
}

// SetNonce sets the next nonce for an account.
func (c *Client) SetNonce(accountID []byte, nonce uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.nonces[string(accountID)] = nonce
}

// SetHead stores raw head data for a parachain, decoded as header.
func (c *Client) SetHead(id relay.ParaID, raw []byte, header relay.Header) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.heads[id] = raw
	c.headers[string(raw)] = header
}

// Submissions returns the submissions received so far.
func (c *Client) Submissions() []Submission {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]Submission(nil), c.submissions...)
}

func (c *Client) AccountNonce(ctx context.Context, accountID []byte) (uint64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.nonces[string(accountID)], nil
}

func (c *Client) SubmitAndWatch(ctx context.Context, call relay.Call, signer keys.Account, opts relay.SubmitOptions) (relay.Subscription, error) {
	if c.SubmitErr != nil {
		return nil, c.SubmitErr
	}

	c.mu.Lock()
	c.submissions = append(c.submissions, Submission{Call: call, Signer: signer, Nonce: opts.Nonce})
	c.mu.Unlock()

	sub := &subscription{
		statuses: make(chan relay.Status, len(c.Statuses)),
		errs:     make(chan error, 1),
		onClose:  func() { c.Unsubscribes.Inc() },
	}
	for _, st := range c.Statuses {
		sub.statuses <- st
	}
	close(sub.statuses)
	return sub, nil
}

func (c *Client) Parachains(ctx context.Context) ([]relay.ParaID, error) {
	n := int(c.Queries.Inc())
	if c.QueryErr != nil {
		return nil, c.QueryErr
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	var ids []relay.ParaID
	for id, after := range c.RegisteredAfter {
		if after >= 0 && n >= after {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

func (c *Client) Head(ctx context.Context, id relay.ParaID) ([]byte, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	raw, ok := c.heads[id]
	return raw, ok, nil
}

func (c *Client) DecodeHeader(raw []byte) (relay.Header, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	h, ok := c.headers[string(raw)]
	if !ok {
		return relay.Header{}, errors.New("unknown head data")
	}
	return h, nil
}

func (c *Client) BestHeader(ctx context.Context) (relay.Header, error) {
	return c.Best, nil
}

func (c *Client) Close() {
	c.Closed.Store(true)
}

type subscription struct {
	statuses chan relay.Status
	errs     chan error
	once     sync.Once
	onClose  func()
}

func (s *subscription) Statuses() <-chan relay.Status { return s.statuses }

func (s *subscription) Err() <-chan error { return s.errs }

func (s *subscription) Unsubscribe() {
	s.once.Do(s.onClose)
}
