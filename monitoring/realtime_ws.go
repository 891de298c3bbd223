// Package monitoring 提供预测服务的实时监控功能
package monitoring

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// PredictionEvent 单次预测事件
type PredictionEvent struct {
	Title      string    `json:"title,omitempty"`
	Category   string    `json:"category"`
	Confidence float64   `json:"confidence"`
	Cached     bool      `json:"cached"`
	Timestamp  time.Time `json:"timestamp"`
}

// Monitor WebSocket预测事件中心
type Monitor struct {
	clients    map[*client]bool
	broadcast  chan []byte
	register   chan *client
	unregister chan *client
	done       chan struct{}
	mu         sync.Mutex
	upgrader   websocket.Upgrader
}

// client WebSocket客户端
type client struct {
	conn *websocket.Conn
	send chan []byte
}

// NewMonitor 创建监控中心
func NewMonitor() *Monitor {
	return &Monitor{
		clients:    make(map[*client]bool),
		broadcast:  make(chan []byte, 256),
		register:   make(chan *client),
		unregister: make(chan *client),
		done:       make(chan struct{}),
		upgrader: websocket.Upgrader{
			CheckOrigin:     func(r *http.Request) bool { return true },
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
	}
}

// Run 运行事件分发循环，ctx取消时关闭所有连接
func (m *Monitor) Run(ctx context.Context) {
	defer zap.L().Info("prediction monitor stopped")

	for {
		select {
		case c := <-m.register:
			m.mu.Lock()
			m.clients[c] = true
			total := len(m.clients)
			m.mu.Unlock()
			zap.L().Info("monitor client connected", zap.Int("total", total))

		case c := <-m.unregister:
			m.mu.Lock()
			if _, ok := m.clients[c]; ok {
				delete(m.clients, c)
				close(c.send)
			}
			total := len(m.clients)
			m.mu.Unlock()
			zap.L().Info("monitor client disconnected", zap.Int("total", total))

		case message := <-m.broadcast:
			m.mu.Lock()
			for c := range m.clients {
				select {
				case c.send <- message:
				default:
					// 慢客户端直接断开，避免阻塞预测路径
					close(c.send)
					delete(m.clients, c)
				}
			}
			m.mu.Unlock()

		case <-ctx.Done():
			// 先关闭done，避免新连接和读取泵卡在注册通道上
			close(m.done)
			m.mu.Lock()
			for c := range m.clients {
				close(c.send)
				delete(m.clients, c)
			}
			m.mu.Unlock()
			return
		}
	}
}

// ServeWS 升级连接并接入事件流
func (m *Monitor) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := m.upgrader.Upgrade(w, r, nil)
	if err != nil {
		zap.L().Warn("websocket upgrade failed", zap.Error(err))
		return
	}

	c := &client{
		conn: conn,
		send: make(chan []byte, 256),
	}
	select {
	case m.register <- c:
	case <-m.done:
		conn.Close()
		return
	}

	go c.writePump()
	go c.readPump(m)
}

// ClientCount 当前连接的客户端数
func (m *Monitor) ClientCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.clients)
}

// PublishPrediction 广播预测事件，队列满时丢弃而不阻塞
func (m *Monitor) PublishPrediction(event PredictionEvent) {
	payload, err := json.Marshal(event)
	if err != nil {
		zap.L().Warn("marshal prediction event", zap.Error(err))
		return
	}
	select {
	case m.broadcast <- payload:
	default:
		zap.L().Warn("monitor broadcast queue full, dropping event")
	}
}

// writePump 写入泵
func (c *client) writePump() {
	ticker := time.NewTicker(30 * time.Second)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(30 * time.Second))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(30 * time.Second))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// readPump 读取泵，事件流是单向的，客户端消息只用于保活
func (c *client) readPump(m *Monitor) {
	defer func() {
		select {
		case m.unregister <- c:
		case <-m.done:
		}
		c.conn.Close()
	}()

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				zap.L().Debug("websocket read error", zap.Error(err))
			}
			break
		}
	}
}
