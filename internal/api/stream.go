package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"trainboard/internal/feeds"
)

type client struct {
	send chan []byte
}

// SSEHub pushes each published snapshot to connected display clients. The
// scheduler signals publishes over the broadcast channel; clients that fall
// behind skip frames instead of blocking the hub.
type SSEHub struct {
	cache     *feeds.SnapshotCache
	clients   map[*client]struct{}
	mu        sync.RWMutex
	broadcast chan struct{}
}

func NewSSEHub(cache *feeds.SnapshotCache, broadcast chan struct{}) *SSEHub {
	return &SSEHub{
		cache:     cache,
		clients:   make(map[*client]struct{}),
		broadcast: broadcast,
	}
}

func (h *SSEHub) Run() {
	for range h.broadcast {
		data, err := json.Marshal(h.cache.Current())
		if err != nil {
			continue
		}

		h.mu.RLock()
		for c := range h.clients {
			select {
			case c.send <- data:
			default:
				// Skip if blocked
			}
		}
		h.mu.RUnlock()
	}
}

func (h *SSEHub) HandleStream(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("Access-Control-Allow-Origin", "*")

	c := &client{send: make(chan []byte, 10)}

	h.register(c)
	defer h.unregister(c)

	// Initial send so a fresh client draws immediately
	if data, err := json.Marshal(h.cache.Current()); err == nil {
		fmt.Fprintf(w, "data: %s\n\n", data)
		flusher.Flush()
	}

	// KeepAlive ticker to prevent timeout
	ticker := time.NewTicker(15 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case data := <-c.send:
			fmt.Fprintf(w, "data: %s\n\n", data)
			flusher.Flush()
		case <-ticker.C:
			fmt.Fprintf(w, ": keepalive\n\n")
			flusher.Flush()
		}
	}
}

func (h *SSEHub) register(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[c] = struct{}{}
}

func (h *SSEHub) unregister(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.clients, c)
	close(c.send)
}
