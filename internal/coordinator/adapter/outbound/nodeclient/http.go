// Package nodeclient talks to storage node daemons over HTTP. It is the
// engine's view of the per-node byte capability: put, get and delete by
// key, with a timeout on every call and a circuit breaker per node so a
// flapping node fails over fast instead of being hammered.
package nodeclient

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/chunkvault/chunkvault/internal/coordinator/domain"
	"github.com/chunkvault/chunkvault/internal/coordinator/port"
	"github.com/chunkvault/chunkvault/pkg/resilience"
)

// Client implements port.BlobStore against node daemon HTTP endpoints.
type Client struct {
	http        *http.Client
	callTimeout time.Duration

	mu       sync.Mutex
	breakers map[string]*resilience.CircuitBreaker
}

var _ port.BlobStore = (*Client)(nil)

// New creates a client whose calls are bounded by callTimeout each.
func New(callTimeout time.Duration) *Client {
	if callTimeout <= 0 {
		callTimeout = 5 * time.Second
	}
	return &Client{
		http: &http.Client{
			Transport: &http.Transport{
				MaxIdleConnsPerHost: 8,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		callTimeout: callTimeout,
		breakers:    make(map[string]*resilience.CircuitBreaker),
	}
}

func (c *Client) breaker(node *domain.Node) *resilience.CircuitBreaker {
	c.mu.Lock()
	defer c.mu.Unlock()

	cb, ok := c.breakers[node.ID]
	if !ok {
		cb = resilience.NewCircuitBreaker(resilience.BreakerConfig{Name: node.ID})
		c.breakers[node.ID] = cb
	}
	return cb
}

func (c *Client) chunkURL(node *domain.Node, key string) string {
	return fmt.Sprintf("http://%s/v1/chunks/%s", node.Addr(), key)
}

// Put stores data under key on the node.
func (c *Client) Put(ctx context.Context, node *domain.Node, key string, data []byte) error {
	return c.breaker(node).Execute(ctx, func(ctx context.Context) error {
		callCtx, cancel := context.WithTimeout(ctx, c.callTimeout)
		defer cancel()

		req, err := http.NewRequestWithContext(callCtx, http.MethodPut, c.chunkURL(node, key), bytes.NewReader(data))
		if err != nil {
			return err
		}
		req.Header.Set("Content-Type", "application/octet-stream")

		resp, err := c.http.Do(req)
		if err != nil {
			return unavailable(node, err)
		}
		defer drain(resp)

		if resp.StatusCode != http.StatusCreated && resp.StatusCode != http.StatusOK {
			return fmt.Errorf("node %s rejected put for %s: status %d", node.ID, key, resp.StatusCode)
		}
		return nil
	})
}

// Get fetches the bytes stored under key. A missing key is
// domain.ErrChunkNotFound; transport trouble is domain.ErrNodeUnavailable.
func (c *Client) Get(ctx context.Context, node *domain.Node, key string) ([]byte, error) {
	var data []byte
	err := c.breaker(node).Execute(ctx, func(ctx context.Context) error {
		callCtx, cancel := context.WithTimeout(ctx, c.callTimeout)
		defer cancel()

		req, err := http.NewRequestWithContext(callCtx, http.MethodGet, c.chunkURL(node, key), nil)
		if err != nil {
			return err
		}

		resp, err := c.http.Do(req)
		if err != nil {
			return unavailable(node, err)
		}
		defer drain(resp)

		switch resp.StatusCode {
		case http.StatusOK:
		case http.StatusNotFound:
			return domain.ErrChunkNotFound
		default:
			return fmt.Errorf("node %s failed get for %s: status %d", node.ID, key, resp.StatusCode)
		}

		data, err = io.ReadAll(resp.Body)
		if err != nil {
			return unavailable(node, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return data, nil
}

// Delete removes the key from the node. Deleting an absent key succeeds.
func (c *Client) Delete(ctx context.Context, node *domain.Node, key string) error {
	return c.breaker(node).Execute(ctx, func(ctx context.Context) error {
		callCtx, cancel := context.WithTimeout(ctx, c.callTimeout)
		defer cancel()

		req, err := http.NewRequestWithContext(callCtx, http.MethodDelete, c.chunkURL(node, key), nil)
		if err != nil {
			return err
		}

		resp, err := c.http.Do(req)
		if err != nil {
			return unavailable(node, err)
		}
		defer drain(resp)

		if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusNoContent && resp.StatusCode != http.StatusNotFound {
			return fmt.Errorf("node %s failed delete for %s: status %d", node.ID, key, resp.StatusCode)
		}
		return nil
	})
}

// unavailable folds timeouts and connection errors into one sentinel;
// failover treats them identically.
func unavailable(node *domain.Node, err error) error {
	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		return fmt.Errorf("%w: %s timed out", domain.ErrNodeUnavailable, node.ID)
	}
	return fmt.Errorf("%w: %s: %v", domain.ErrNodeUnavailable, node.ID, err)
}

func drain(resp *http.Response) {
	_, _ = io.Copy(io.Discard, resp.Body)
	_ = resp.Body.Close()
}
