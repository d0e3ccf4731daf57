package nodeclient

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/chunkvault/chunkvault/internal/coordinator/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeNode is an httptest stand-in for a storage node daemon.
type fakeNode struct {
	mu   sync.Mutex
	data map[string][]byte

	server *httptest.Server
	node   domain.Node
}

func newFakeNode(t *testing.T, id string) *fakeNode {
	t.Helper()
	f := &fakeNode{data: make(map[string][]byte)}

	f.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := strings.TrimPrefix(r.URL.Path, "/v1/chunks/")
		f.mu.Lock()
		defer f.mu.Unlock()

		switch r.Method {
		case http.MethodPut:
			body, _ := io.ReadAll(r.Body)
			f.data[key] = body
			w.WriteHeader(http.StatusCreated)
		case http.MethodGet:
			data, ok := f.data[key]
			if !ok {
				w.WriteHeader(http.StatusNotFound)
				return
			}
			_, _ = w.Write(data)
		case http.MethodDelete:
			delete(f.data, key)
			w.WriteHeader(http.StatusNoContent)
		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		}
	}))
	t.Cleanup(f.server.Close)

	u, err := url.Parse(f.server.URL)
	require.NoError(t, err)
	port, err := strconv.Atoi(u.Port())
	require.NoError(t, err)
	f.node = domain.Node{ID: id, Host: u.Hostname(), Port: port, Status: domain.NodeActive}
	return f
}

func TestClientRoundTrip(t *testing.T) {
	fake := newFakeNode(t, "node-a")
	client := New(time.Second)

	payload := []byte("chunk bytes")
	require.NoError(t, client.Put(context.Background(), &fake.node, "c1/i1", payload))

	got, err := client.Get(context.Background(), &fake.node, "c1/i1")
	require.NoError(t, err)
	assert.Equal(t, payload, got)

	require.NoError(t, client.Delete(context.Background(), &fake.node, "c1/i1"))
	_, err = client.Get(context.Background(), &fake.node, "c1/i1")
	assert.ErrorIs(t, err, domain.ErrChunkNotFound)
}

func TestClientGet_MissingKeyIsNotFound(t *testing.T) {
	fake := newFakeNode(t, "node-a")
	client := New(time.Second)

	_, err := client.Get(context.Background(), &fake.node, "never/stored")
	assert.ErrorIs(t, err, domain.ErrChunkNotFound)
}

func TestClientDelete_AbsentKeySucceeds(t *testing.T) {
	fake := newFakeNode(t, "node-a")
	client := New(time.Second)

	assert.NoError(t, client.Delete(context.Background(), &fake.node, "never/stored"))
}

func TestClient_DeadNodeIsUnavailable(t *testing.T) {
	fake := newFakeNode(t, "node-a")
	fake.server.Close()
	client := New(200 * time.Millisecond)

	err := client.Put(context.Background(), &fake.node, "c1/i1", []byte("x"))
	assert.ErrorIs(t, err, domain.ErrNodeUnavailable)

	_, err = client.Get(context.Background(), &fake.node, "c1/i1")
	assert.ErrorIs(t, err, domain.ErrNodeUnavailable)
}

func TestClient_BreakerOpensPerNode(t *testing.T) {
	dead := newFakeNode(t, "node-dead")
	dead.server.Close()
	live := newFakeNode(t, "node-live")
	client := New(200 * time.Millisecond)

	// Drive the dead node's breaker past its failure threshold.
	for i := 0; i < 4; i++ {
		_ = client.Put(context.Background(), &dead.node, "k", []byte("x"))
	}
	err := client.Put(context.Background(), &dead.node, "k", []byte("x"))
	assert.Error(t, err)

	// The live node's breaker is independent.
	assert.NoError(t, client.Put(context.Background(), &live.node, "k", []byte("x")))
}
