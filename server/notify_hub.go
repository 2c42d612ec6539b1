// Package server pushes committed ledger events to the owner's websocket connections.
package server

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"horizon-finance/biz/model"
	"horizon-finance/middleware"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/common/hlog"
	"github.com/hertz-contrib/websocket"
	"github.com/panjf2000/ants/v2"
)

const (
	shardNum     = 32
	writeRetries = 3
	writeWait    = 5 * time.Second
)

// Conn 是 *websocket.Conn 中 hub 用到的部分
type Conn interface {
	WriteMessage(messageType int, data []byte) error
	SetWriteDeadline(t time.Time) error
	Close() error
}

// lockedConn 串行化同一连接上的写，websocket 只允许一个并发写者
type lockedConn struct {
	mu   sync.Mutex
	conn Conn
}

func (l *lockedConn) send(msg []byte) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	_ = l.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return l.conn.WriteMessage(websocket.TextMessage, msg)
}

type userShard struct {
	mu   sync.RWMutex
	subs map[string]map[Conn]*lockedConn
}

// Hub 按用户分片管理连接，一个用户可以同时打开多个页面
type Hub struct {
	shards   [shardNum]*userShard
	pool     *ants.Pool
	upgrader websocket.HertzUpgrader
}

func NewHub(pool *ants.Pool) *Hub {
	h := &Hub{
		pool: pool,
		upgrader: websocket.HertzUpgrader{
			CheckOrigin: func(ctx *app.RequestContext) bool {
				return true // 允许所有跨域 WebSocket 连接
			},
		},
	}
	for i := range h.shards {
		h.shards[i] = &userShard{subs: make(map[string]map[Conn]*lockedConn)}
	}
	return h
}

func (h *Hub) shard(userID string) *userShard {
	return h.shards[fnv32(userID)%shardNum]
}

func fnv32(key string) uint32 {
	var hash uint32 = 2166136261
	for i := 0; i < len(key); i++ {
		hash ^= uint32(key[i])
		hash *= 16777619
	}
	return hash
}

// Register 订阅用户事件，返回的 lockedConn 用于该连接上的所有写操作
func (h *Hub) Register(userID string, c Conn) *lockedConn {
	s := h.shard(userID)
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.subs[userID] == nil {
		s.subs[userID] = make(map[Conn]*lockedConn)
	}
	if lc, ok := s.subs[userID][c]; ok {
		return lc
	}
	lc := &lockedConn{conn: c}
	s.subs[userID][c] = lc
	return lc
}

func (h *Hub) Unregister(userID string, c Conn) {
	s := h.shard(userID)
	s.mu.Lock()
	defer s.mu.Unlock()
	conns, ok := s.subs[userID]
	if !ok {
		return
	}
	delete(conns, c)
	if len(conns) == 0 {
		delete(s.subs, userID)
	}
}

// Connections 返回用户当前连接数
func (h *Hub) Connections(userID string) int {
	s := h.shard(userID)
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.subs[userID])
}

type envelope struct {
	Type string      `json:"type"`
	Data interface{} `json:"data,omitempty"`
}

// Notify 将账本事件单播给事件所属用户
func (h *Hub) Notify(ctx context.Context, event model.LedgerEvent) {
	msg, err := json.Marshal(envelope{Type: "ledger_event", Data: event})
	if err != nil {
		hlog.CtxErrorf(ctx, "marshal ws event failed: %v", err)
		return
	}
	h.Unicast(event.ExternalID, msg)
}

// Unicast 单播消息到指定用户的所有连接，多次写失败的连接会被移除
func (h *Hub) Unicast(userID string, msg []byte) {
	s := h.shard(userID)
	s.mu.RLock()
	conns := make([]*lockedConn, 0, len(s.subs[userID]))
	for _, lc := range s.subs[userID] {
		conns = append(conns, lc)
	}
	s.mu.RUnlock()

	for _, c := range conns {
		c := c
		send := func() { h.write(userID, c, msg) }
		if h.pool == nil {
			send()
			continue
		}
		if err := h.pool.Submit(send); err != nil {
			hlog.Warnf("ws pool submit failed, user=%s, err=%v", userID, err)
		}
	}
}

func (h *Hub) write(userID string, lc *lockedConn, msg []byte) {
	for i := 0; i < writeRetries; i++ {
		err := lc.send(msg)
		if err == nil {
			return
		}
		hlog.Warnf("ws write error: %v, retry %d", err, i+1)
	}
	hlog.Warnf("ws conn write failed after retries, removing, user=%s", userID)
	h.Unregister(userID, lc.conn)
	_ = lc.conn.Close()
}

type clientMessage struct {
	Action string `json:"action"`
}

// Handle 升级为 WebSocket 并订阅当前用户的账本事件，需挂在 UserIdentity 之后
func (h *Hub) Handle(ctx context.Context, c *app.RequestContext) {
	userID := middleware.UserID(c)
	err := h.upgrader.Upgrade(c, func(conn *websocket.Conn) {
		lc := h.Register(userID, conn)
		hlog.CtxInfof(ctx, "ws connected, user=%s, remote=%v", userID, conn.RemoteAddr())
		defer func() {
			h.Unregister(userID, conn)
			_ = conn.Close()
			hlog.CtxInfof(ctx, "ws closed, user=%s", userID)
		}()

		ack, _ := json.Marshal(envelope{Type: "subscription_ack"})
		if err := lc.send(ack); err != nil {
			return
		}
		for {
			_, raw, err := conn.ReadMessage()
			if err != nil {
				return
			}
			var m clientMessage
			if json.Unmarshal(raw, &m) == nil && m.Action == "ping" {
				pong, _ := json.Marshal(envelope{Type: "pong"})
				if err := lc.send(pong); err != nil {
					return
				}
			}
		}
	})
	if err != nil {
		hlog.CtxWarnf(ctx, "ws upgrade error: %v", err)
	}
}
