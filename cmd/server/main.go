package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"github.com/nats-io/nats.go"

	"rppg/stream"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Hub 管理所有已连接的 websocket 客户端
type Hub struct {
	mu    sync.Mutex
	conns map[*websocket.Conn]bool
}

func newHub() *Hub {
	return &Hub{conns: make(map[*websocket.Conn]bool)}
}

func (h *Hub) add(c *websocket.Conn) {
	h.mu.Lock()
	h.conns[c] = true
	h.mu.Unlock()
}

func (h *Hub) remove(c *websocket.Conn) {
	h.mu.Lock()
	delete(h.conns, c)
	h.mu.Unlock()
}

func (h *Hub) snapshot() []*websocket.Conn {
	h.mu.Lock()
	clients := make([]*websocket.Conn, 0, len(h.conns))
	for c := range h.conns {
		clients = append(clients, c)
	}
	h.mu.Unlock()
	return clients
}

func (h *Hub) broadcast(messageType int, b []byte) {
	for _, c := range h.snapshot() {
		_ = c.SetWriteDeadline(time.Now().Add(200 * time.Millisecond))
		if err := c.WriteMessage(messageType, b); err != nil {
			_ = c.Close()
			h.remove(c)
		}
	}
}

func main() {
	var (
		natsURL = flag.String("nats", "nats://127.0.0.1:4222", "NATS url")
		addr    = flag.String("addr", ":8080", "http address")
	)
	flag.Parse()

	nc, err := stream.Connect(*natsURL)
	if err != nil {
		log.Fatal(err)
	}
	defer nc.Drain()

	hub := newHub()

	var totalMessages int64

	// 滤波波形 (二进制透传)
	nc.Subscribe(stream.SubjectFiltered, func(msg *nats.Msg) {
		atomic.AddInt64(&totalMessages, 1)
		hub.broadcast(websocket.BinaryMessage, msg.Data)
	})

	// 实时估计 / 报告 (JSON)
	nc.Subscribe(stream.SubjectMetrics, func(msg *nats.Msg) {
		hub.broadcast(websocket.TextMessage, msg.Data)
	})

	http.Handle("/", http.FileServer(http.Dir("./web")))

	http.HandleFunc("/metrics", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, "messages %d\n", atomic.LoadInt64(&totalMessages))
	})

	http.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		hub.add(conn)
		defer func() {
			hub.remove(conn)
			conn.Close()
		}()

		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				break
			}
		}
	})

	server := &http.Server{Addr: *addr}

	go func() {
		log.Println("server running on", *addr)
		server.ListenAndServe()
	}()

	ch := make(chan os.Signal, 1)
	signal.Notify(ch, os.Interrupt)
	<-ch

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	server.Shutdown(ctx)
	log.Println("server stopped")
}
