package feed

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/gorilla/websocket"
)

// HandlerConfig configures NewHandler.
type HandlerConfig struct {
	Logger *log.Logger
}

type graphSummary struct {
	Actor  string   `json:"actor"`
	Layer  int      `json:"layer"`
	Graph  string   `json:"graph"`
	States []string `json:"states"`
}

// NewHandler builds the preview HTTP surface: /health, /graph (baked-graph
// summary), and /ws (snapshot subscription).
func NewHandler(hub *Hub, cfg HandlerConfig) http.Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = log.Default()
	}

	upgrader := websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool { return true },
	}

	mux := http.NewServeMux()

	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		w.Write([]byte("ok"))
	})

	mux.HandleFunc("/graph", func(w http.ResponseWriter, r *http.Request) {
		hub.mu.Lock()
		summaries := make([]graphSummary, 0, len(hub.actors))
		for _, a := range hub.actors {
			for layer := 0; layer < a.inst.NumLayers(); layer++ {
				g := a.inst.Layer(layer).Graph()
				summaries = append(summaries, graphSummary{
					Actor:  a.id,
					Layer:  layer,
					Graph:  g.Name(),
					States: g.StateNames(),
				})
			}
		}
		hub.mu.Unlock()

		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(summaries); err != nil {
			logger.Printf("feed: encode graph summary: %v", err)
		}
	})

	mux.HandleFunc("/state", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(hub.Snapshot()); err != nil {
			logger.Printf("feed: encode state snapshot: %v", err)
		}
	})

	mux.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			logger.Printf("feed: websocket upgrade: %v", err)
			return
		}
		id := hub.Subscribe(conn)
		logger.Printf("feed: %s connected from %s", id, r.RemoteAddr)

		// Reads are only consumed to detect close.
		go func() {
			defer hub.Unsubscribe(id)
			for {
				if _, _, err := conn.ReadMessage(); err != nil {
					return
				}
			}
		}()
	})

	return mux
}
