// Package feed broadcasts reconstructed order-book and trade events
// from a replay session to WebSocket subscribers. It is adapted from
// the teacher's pkg/websocket/server.go hub, trimmed to the two
// channels a single-symbol replay produces ("orderbook" and "trades")
// and rid of the teacher's multi-symbol channel namespacing.
//
// This package only ever writes to its connected clients — it has no
// path for receiving a live market feed, so it does not touch the
// "no live network reception" Non-goal; what it replaces is the
// original replay driver's stdout print loop.
package feed

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"github.com/luxfi/log"

	"github.com/luxfi/chronos/pkg/lx"
)

// Channel names clients can subscribe to.
const (
	ChannelOrderBook = "orderbook"
	ChannelTrades    = "trades"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// Message is the outer envelope for every frame sent to a client.
type Message struct {
	Type      string      `json:"type"`
	Channel   string      `json:"channel,omitempty"`
	Data      interface{} `json:"data,omitempty"`
	Timestamp int64       `json:"timestamp"`
	Sequence  uint64      `json:"sequence,omitempty"`
}

// OrderBookUpdate carries a depth snapshot for the replayed symbol.
type OrderBookUpdate struct {
	Symbol string          `json:"symbol"`
	Bids   []lx.DepthLevel `json:"bids"`
	Asks   []lx.DepthLevel `json:"asks"`
}

// TradeUpdate carries one fill from an lx.FillReport.
type TradeUpdate struct {
	Symbol        string `json:"symbol"`
	AggressorID   uint64 `json:"aggressorId"`
	RestingID     uint64 `json:"restingId"`
	Price         uint64 `json:"price"`
	Qty           uint32 `json:"qty"`
	AggressorSide string `json:"aggressorSide"`
}

// Server is a WebSocket broadcast hub for one replay session's output.
// It never reads book or matching state itself — callers push updates
// in via BroadcastOrderBook/BroadcastTrade as the replay progresses.
type Server struct {
	logger log.Logger
	symbol string

	clientsMu sync.RWMutex
	clients   map[*client]bool

	register   chan *client
	unregister chan *client
	broadcast  chan Message

	messagesOut uint64
	clientCount int32

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

type client struct {
	id       string
	conn     *websocket.Conn
	channels map[string]bool
	send     chan []byte
	mu       sync.RWMutex
}

// NewServer constructs a feed server for symbol.
func NewServer(logger log.Logger, symbol string) *Server {
	ctx, cancel := context.WithCancel(context.Background())
	return &Server{
		logger:     logger,
		symbol:     symbol,
		clients:    make(map[*client]bool),
		register:   make(chan *client, 100),
		unregister: make(chan *client, 100),
		broadcast:  make(chan Message, 1000),
		ctx:        ctx,
		cancel:     cancel,
	}
}

// Start launches the hub goroutine and the HTTP server, blocking until
// the server stops or fails. Call it from its own goroutine.
func (s *Server) Start(addr string) error {
	s.wg.Add(1)
	go s.runHub()

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.handleWebSocket)
	mux.HandleFunc("/health", s.handleHealth)

	httpServer := &http.Server{
		Addr:         addr,
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		<-s.ctx.Done()
		httpServer.Shutdown(context.Background())
	}()

	s.logger.Info("feed server starting", "addr", addr, "symbol", s.symbol)

	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("feed: server error: %w", err)
	}
	return nil
}

// Stop shuts down the hub and waits for it to exit.
func (s *Server) Stop() {
	s.logger.Info("stopping feed server")
	s.cancel()
	s.wg.Wait()
}

func (s *Server) runHub() {
	defer s.wg.Done()

	for {
		select {
		case <-s.ctx.Done():
			s.clientsMu.Lock()
			for c := range s.clients {
				close(c.send)
			}
			s.clientsMu.Unlock()
			return

		case c := <-s.register:
			s.clientsMu.Lock()
			s.clients[c] = true
			atomic.AddInt32(&s.clientCount, 1)
			s.clientsMu.Unlock()

		case c := <-s.unregister:
			s.clientsMu.Lock()
			if _, ok := s.clients[c]; ok {
				delete(s.clients, c)
				close(c.send)
				atomic.AddInt32(&s.clientCount, -1)
			}
			s.clientsMu.Unlock()

		case msg := <-s.broadcast:
			s.deliver(msg)
		}
	}
}

func (s *Server) deliver(msg Message) {
	data, err := json.Marshal(msg)
	if err != nil {
		s.logger.Error("failed to marshal broadcast message", "error", err)
		return
	}

	s.clientsMu.RLock()
	defer s.clientsMu.RUnlock()

	for c := range s.clients {
		c.mu.RLock()
		subscribed := c.channels[msg.Channel]
		c.mu.RUnlock()
		if !subscribed {
			continue
		}
		select {
		case c.send <- data:
			atomic.AddUint64(&s.messagesOut, 1)
		default:
			s.unregister <- c
		}
	}
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Error("websocket upgrade failed", "error", err)
		return
	}

	c := &client{
		id:   generateClientID(),
		conn: conn,
		// Subscribed to both channels by default: a replay feed has no
		// per-client filtering concerns the way a multi-symbol venue
		// feed would.
		channels: map[string]bool{ChannelOrderBook: true, ChannelTrades: true},
		send:     make(chan []byte, 256),
	}

	s.register <- c
	go s.writePump(c)
	go s.readPump(c)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"status":   "healthy",
		"clients":  atomic.LoadInt32(&s.clientCount),
		"messages": atomic.LoadUint64(&s.messagesOut),
	})
}

func (s *Server) readPump(c *client) {
	defer func() {
		s.unregister <- c
		c.conn.Close()
	}()

	c.conn.SetReadLimit(512 * 1024)
	c.conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		return nil
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			break
		}
	}
}

func (s *Server) writePump(c *client) {
	ticker := time.NewTicker(54 * time.Second)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			c.conn.WriteMessage(websocket.TextMessage, message)

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// BroadcastOrderBook publishes a depth snapshot on the orderbook
// channel.
func (s *Server) BroadcastOrderBook(bids, asks []lx.DepthLevel) {
	update := OrderBookUpdate{Symbol: s.symbol, Bids: bids, Asks: asks}
	s.broadcast <- Message{
		Type:      "orderbook",
		Channel:   ChannelOrderBook,
		Data:      update,
		Timestamp: time.Now().UnixNano(),
		Sequence:  atomic.AddUint64(&s.messagesOut, 1),
	}
}

// BroadcastTrade publishes one lx.Trade on the trades channel.
func (s *Server) BroadcastTrade(t lx.Trade) {
	update := TradeUpdate{
		Symbol:        s.symbol,
		AggressorID:   t.AggressorID,
		RestingID:     t.RestingID,
		Price:         t.Price,
		Qty:           t.Qty,
		AggressorSide: t.AggressorSide.String(),
	}
	s.broadcast <- Message{
		Type:      "trade",
		Channel:   ChannelTrades,
		Data:      update,
		Timestamp: time.Now().UnixNano(),
	}
}

// GetStats returns running hub counters.
func (s *Server) GetStats() map[string]int64 {
	return map[string]int64{
		"clients":  int64(atomic.LoadInt32(&s.clientCount)),
		"messages": int64(atomic.LoadUint64(&s.messagesOut)),
	}
}

func generateClientID() string {
	return fmt.Sprintf("client-%d-%d", time.Now().Unix(), time.Now().Nanosecond())
}
