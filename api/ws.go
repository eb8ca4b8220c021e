package api

import (
	"net/http"
	"sync"

	"github.com/gorilla/websocket"

	"forksim_go/simulation"
	"forksim_go/utils"
)

// upgrader is used to upgrade HTTP connections to WebSocket connections.
var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

/**
 * StateFeed pushes a full simulation snapshot to every connected websocket
 * client after each mutation. Clients get the current snapshot immediately on
 * connect, so a UI never has to poll.
 */
type StateFeed struct {
	clients      map[*websocket.Conn]bool
	clientsMutex sync.RWMutex
}

// NewStateFeed creates an empty feed.
func NewStateFeed() *StateFeed {
	return &StateFeed{clients: make(map[*websocket.Conn]bool)}
}

// Publish sends the snapshot to all connected clients. Write failures drop
// the client.
func (f *StateFeed) Publish(snapshot simulation.Snapshot) {
	f.clientsMutex.Lock()
	defer f.clientsMutex.Unlock()

	for client := range f.clients {
		if err := client.WriteJSON(snapshot); err != nil {
			utils.LogError("[WS] Error writing snapshot to %s: %v", client.RemoteAddr().String(), err)
			client.Close()
			delete(f.clients, client)
		}
	}
}

// ClientCount reports the number of connected clients.
func (f *StateFeed) ClientCount() int {
	f.clientsMutex.RLock()
	defer f.clientsMutex.RUnlock()
	return len(f.clients)
}

// StateFeedHandler upgrades the connection and subscribes it to state pushes.
func (s *Server) StateFeedHandler(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		utils.LogError("[WS] Failed to upgrade connection for %s: %v", r.RemoteAddr, err)
		return
	}

	// Initial snapshot before the connection joins the feed: once registered,
	// Publish may write to it concurrently, and a connection allows only one
	// writer at a time.
	if err := conn.WriteJSON(s.Sim.Snapshot()); err != nil {
		utils.LogError("[WS] Error writing initial snapshot to %s: %v", r.RemoteAddr, err)
		conn.Close()
		return
	}

	s.Feed.clientsMutex.Lock()
	s.Feed.clients[conn] = true
	s.Feed.clientsMutex.Unlock()

	utils.LogInfo("[WS] Connection established with %s", r.RemoteAddr)

	// Reads are drained only to detect disconnect; the feed is push-only.
	go func() {
		defer func() {
			s.Feed.clientsMutex.Lock()
			delete(s.Feed.clients, conn)
			s.Feed.clientsMutex.Unlock()
			conn.Close()
			utils.LogInfo("[WS] Connection closed with %s", r.RemoteAddr)
		}()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
					utils.LogError("[WS] Error reading from %s: %v", r.RemoteAddr, err)
				}
				return
			}
		}
	}()
}
