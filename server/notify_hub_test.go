package server

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"horizon-finance/biz/model"

	"github.com/panjf2000/ants/v2"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeConn struct {
	mu        sync.Mutex
	fail      bool
	writes    [][]byte
	tries     int
	closed    bool
	deadlines int
}

func (c *fakeConn) SetWriteDeadline(time.Time) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.deadlines++
	return nil
}

func (c *fakeConn) WriteMessage(_ int, data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.tries++
	if c.fail {
		return errors.New("broken pipe")
	}
	c.writes = append(c.writes, data)
	return nil
}

func (c *fakeConn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	return nil
}

func (c *fakeConn) written() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.writes)
}

func TestHubNotifyOnlyOwner(t *testing.T) {
	hub := NewHub(nil)
	a1, a2, b := &fakeConn{}, &fakeConn{}, &fakeConn{}
	hub.Register("alice", a1)
	hub.Register("alice", a2)
	hub.Register("bob", b)
	assert.Equal(t, 2, hub.Connections("alice"))

	hub.Notify(context.Background(), model.LedgerEvent{
		ExternalID:  "alice",
		Type:        model.TransactionDepositUSD,
		TotalAmount: decimal.NewFromInt(10),
	})

	require.Len(t, a1.writes, 1)
	assert.Len(t, a2.writes, 1)
	assert.Empty(t, b.writes)

	var got struct {
		Type string            `json:"type"`
		Data model.LedgerEvent `json:"data"`
	}
	require.NoError(t, json.Unmarshal(a1.writes[0], &got))
	assert.Equal(t, "ledger_event", got.Type)
	assert.Equal(t, model.TransactionDepositUSD, got.Data.Type)
}

func TestHubDropsBrokenConn(t *testing.T) {
	hub := NewHub(nil)
	bad := &fakeConn{fail: true}
	hub.Register("alice", bad)

	hub.Unicast("alice", []byte(`{}`))

	assert.Equal(t, writeRetries, bad.tries)
	assert.True(t, bad.closed)
	assert.Zero(t, hub.Connections("alice"))
}

func TestHubUnregister(t *testing.T) {
	hub := NewHub(nil)
	c := &fakeConn{}
	hub.Register("alice", c)
	hub.Unregister("alice", c)
	hub.Unregister("nobody", c)

	hub.Unicast("alice", []byte(`{}`))
	assert.Empty(t, c.writes)
}

func TestHubWithPool(t *testing.T) {
	pool, err := ants.NewPool(4)
	require.NoError(t, err)
	defer pool.Release()

	hub := NewHub(pool)
	c := &fakeConn{}
	hub.Register("alice", c)
	for i := 0; i < 5; i++ {
		hub.Unicast("alice", []byte(`{}`))
	}
	assert.Eventually(t, func() bool { return c.written() == 5 }, time.Second, 10*time.Millisecond)
}

// exclusiveConn 在并发写入时记录冲突，模拟 websocket 单写者限制
type exclusiveConn struct {
	inFlight   int32
	overlapped int32
	writes     int32
}

func (c *exclusiveConn) WriteMessage(_ int, _ []byte) error {
	if atomic.AddInt32(&c.inFlight, 1) > 1 {
		atomic.StoreInt32(&c.overlapped, 1)
	}
	time.Sleep(2 * time.Millisecond)
	atomic.AddInt32(&c.inFlight, -1)
	atomic.AddInt32(&c.writes, 1)
	return nil
}

func (c *exclusiveConn) SetWriteDeadline(time.Time) error { return nil }
func (c *exclusiveConn) Close() error                     { return nil }

func TestHubSerializesWritesPerConn(t *testing.T) {
	pool, err := ants.NewPool(8)
	require.NoError(t, err)
	defer pool.Release()

	hub := NewHub(pool)
	c := &exclusiveConn{}
	lc := hub.Register("alice", c)
	event := model.LedgerEvent{ExternalID: "alice", Type: model.TransactionDepositUSD}

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			hub.Notify(context.Background(), event)
		}()
	}
	// 读循环里的 pong 也走同一把锁
	require.NoError(t, lc.send([]byte(`{"type":"pong"}`)))
	wg.Wait()

	assert.Eventually(t, func() bool { return atomic.LoadInt32(&c.writes) == 9 }, 2*time.Second, 5*time.Millisecond)
	assert.Zero(t, atomic.LoadInt32(&c.overlapped))
}

func TestHubSetsWriteDeadline(t *testing.T) {
	hub := NewHub(nil)
	c := &fakeConn{}
	hub.Register("alice", c)
	hub.Unicast("alice", []byte(`{}`))
	assert.Equal(t, 1, c.deadlines)
	assert.Len(t, c.writes, 1)
}
