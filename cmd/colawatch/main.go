// colawatch polls a COLA file's willfull signal and per-level population
// and streams each sample to connected clients over a websocket, so a
// dashboard can watch a structure approach the point where an operator
// should call Rebuild.
//
// Run the tool:
//
// ```bash
// ./bin/colawatch --addr=:8089 --l0-size=4096 --max-level=7 --max-key-size=256 index.cola
// ```
package main

import (
	"fmt"
	"log"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/spf13/pflag"

	"github.com/coladb/colakv"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Sample is one poll's worth of observed state, sent to every connected
// client as JSON.
type Sample struct {
	Willfull bool   `json:"willfull"`
	Levels   []int  `json:"levels"`
	MaxKey   string `json:"maxKey"`
	Time     string `json:"time"`
}

type hub struct {
	mu      sync.Mutex
	clients map[*websocket.Conn]struct{}
}

func newHub() *hub { return &hub{clients: make(map[*websocket.Conn]struct{})} }

func (h *hub) add(c *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[c] = struct{}{}
}

func (h *hub) remove(c *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.clients, c)
	_ = c.Close()
}

func (h *hub) broadcast(s Sample) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		if err := c.WriteJSON(s); err != nil {
			delete(h.clients, c)
			_ = c.Close()
		}
	}
}

func main() {
	addr := pflag.String("addr", ":8089", "address to listen on")
	interval := pflag.Duration("interval", time.Second, "poll interval")
	l0Size := pflag.Int("l0-size", 4096, "byte size of level 0")
	maxLevel := pflag.Int("max-level", 7, "number of levels")
	maxKeySize := pflag.Int("max-key-size", 256, "maximum key length in bytes")
	pflag.Parse()

	if pflag.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "Usage: colawatch [flags] <cola-file>")
		pflag.PrintDefaults()
		os.Exit(1)
	}
	path := pflag.Arg(0)

	opts := colakv.DefaultOptions()
	opts.L0Size = *l0Size
	opts.MaxLevel = *maxLevel
	opts.MaxKeySize = *maxKeySize
	opts.CreateIfMissing = false

	c, err := colakv.Open(path, opts)
	if err != nil {
		log.Fatalf("opening %s: %v", path, err)
	}
	defer c.Close()

	h := newHub()

	http.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Printf("upgrade: %v", err)
			return
		}
		h.add(conn)
		defer h.remove(conn)
		// Drain (and discard) client frames until the connection closes.
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
					log.Printf("unexpected close: %v", err)
				}
				return
			}
		}
	})

	go func() {
		ticker := time.NewTicker(*interval)
		defer ticker.Stop()
		for range ticker.C {
			h.broadcast(Sample{
				Willfull: c.Willfull(),
				Levels:   c.LevelCounts(),
				MaxKey:   string(c.MaxKey()),
				Time:     time.Now().Format(time.RFC3339),
			})
		}
	}()

	log.Printf("colawatch listening on %s, watching %s", *addr, path)
	log.Fatal(http.ListenAndServe(*addr, nil))
}
