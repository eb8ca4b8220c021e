package api

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"forksim_go/simulation"
	"forksim_go/storage"
)

// Server represents the HTTP server for the simulation node
type Server struct {
	Router  *mux.Router
	Sim     *simulation.State
	Archive *storage.Archive // nil when no data directory is configured
	Feed    *StateFeed
	Port    int
}

// NewServer creates a new server instance. The archive may be nil.
func NewServer(sim *simulation.State, archive *storage.Archive, port int) *Server {
	return &Server{
		Router:  mux.NewRouter(),
		Sim:     sim,
		Archive: archive,
		Feed:    NewStateFeed(),
		Port:    port,
	}
}

// SetupRoutes configures the API routes
func (s *Server) SetupRoutes() {
	// Observation endpoints
	s.Router.HandleFunc("/api/state", s.StateHandler).Methods("GET")
	s.Router.HandleFunc("/ws/state", s.StateFeedHandler).Methods("GET")

	// Mining endpoints
	s.Router.HandleFunc("/api/mine/honest", s.MineHonestHandler).Methods("POST")
	s.Router.HandleFunc("/api/mine/attack", s.MineAttackHandler).Methods("POST")

	// Consensus endpoints
	s.Router.HandleFunc("/api/broadcast", s.BroadcastHandler).Methods("POST")
	s.Router.HandleFunc("/api/defense", s.DefenseModeHandler).Methods("POST")

	// Attacker preparation endpoints
	s.Router.HandleFunc("/api/wallets/split", s.SplitIdentityHandler).Methods("POST")
	s.Router.HandleFunc("/api/crack", s.CrackKeyHandler).Methods("POST")
	s.Router.HandleFunc("/api/hashpower", s.HashPowerHandler).Methods("POST")

	// Lifecycle endpoints
	s.Router.HandleFunc("/api/reset", s.ResetHandler).Methods("POST")

	if s.Archive != nil {
		s.Router.HandleFunc("/api/broadcasts", s.BroadcastHistoryHandler).Methods("GET")
	}
}

// HTTPServer returns a configured http.Server so the caller can manage
// shutdown itself.
func (s *Server) HTTPServer() *http.Server {
	return &http.Server{
		Handler:      s.Router,
		Addr:         fmt.Sprintf(":%d", s.Port),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}
}
