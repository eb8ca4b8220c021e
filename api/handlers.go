package api

import (
	"encoding/json"
	"net/http"
	"time"

	"forksim_go/consensus"
	"forksim_go/storage"
	"forksim_go/utils"
)

// respondJSON writes a JSON response with the given status code
func respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		utils.LogError("Error encoding response: %v", err)
	}
}

// respondError writes a JSON error body
func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

// publishState pushes the current snapshot to every websocket subscriber.
// Called after every mutation.
func (s *Server) publishState() {
	s.Feed.Publish(s.Sim.Snapshot())
}

// StateHandler returns the full simulation snapshot.
func (s *Server) StateHandler(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, s.Sim.Snapshot())
}

// MineHonestHandler mines one block on the canonical chain. The miner name is
// optional; the honest miners rotate when it is empty.
func (s *Server) MineHonestHandler(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Miner string `json:"miner"`
	}
	if r.Body != nil {
		// An empty body is fine: it means default rotation.
		_ = json.NewDecoder(r.Body).Decode(&req)
		defer r.Body.Close()
	}

	block := s.Sim.MineCanonicalBlock(req.Miner)
	s.publishState()
	respondJSON(w, http.StatusOK, block)
}

// MineAttackHandler mines one block on the attacker's candidate chain.
func (s *Server) MineAttackHandler(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Miner string `json:"miner"`
	}
	if r.Body != nil {
		_ = json.NewDecoder(r.Body).Decode(&req)
		defer r.Body.Close()
	}

	block, err := s.Sim.MineCandidateBlock(req.Miner)
	if err != nil {
		respondError(w, http.StatusConflict, err.Error())
		return
	}
	s.publishState()
	respondJSON(w, http.StatusOK, block)
}

// BroadcastHandler submits the candidate chain to the network and returns the
// consensus decision.
func (s *Server) BroadcastHandler(w http.ResponseWriter, r *http.Request) {
	before := s.Sim.Snapshot()
	result := s.Sim.Broadcast()

	if s.Archive != nil {
		candidateHeight := 0
		if before.CandidateChain != nil {
			candidateHeight = len(before.CandidateChain.Blocks)
		}
		record := storage.BroadcastRecord{
			Accepted:        result.Accepted,
			Reason:          result.Reason,
			DefenseMode:     string(before.DefenseMode),
			CanonicalHeight: len(before.CanonicalChain.Blocks),
			CandidateHeight: candidateHeight,
			Slashed:         result.Slashed,
			Timestamp:       time.Now().UTC(),
		}
		if err := s.Archive.RecordBroadcast(record); err != nil {
			utils.LogError("Failed to archive broadcast: %v", err)
		}
	}

	s.publishState()
	respondJSON(w, http.StatusOK, result)
}

// DefenseModeHandler switches the network's fork acceptance rule.
func (s *Server) DefenseModeHandler(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Mode string `json:"mode"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	defer r.Body.Close()

	mode, err := consensus.ParseMode(req.Mode)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	s.Sim.SetDefenseMode(mode)
	s.publishState()
	respondJSON(w, http.StatusOK, map[string]string{"mode": string(mode)})
}

// SplitIdentityHandler splits a wallet into Sybil identities.
func (s *Server) SplitIdentityHandler(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Wallet string `json:"wallet"`
		Parts  int    `json:"parts"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	defer r.Body.Close()

	names, err := s.Sim.SplitIdentity(req.Wallet, req.Parts)
	if err != nil {
		respondError(w, http.StatusConflict, err.Error())
		return
	}
	s.publishState()
	respondJSON(w, http.StatusOK, map[string][]string{"identities": names})
}

// CrackKeyHandler compromises a wallet's key.
func (s *Server) CrackKeyHandler(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Wallet string `json:"wallet"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	defer r.Body.Close()

	if err := s.Sim.CompromiseKey(req.Wallet); err != nil {
		respondError(w, http.StatusConflict, err.Error())
		return
	}
	s.publishState()
	respondJSON(w, http.StatusOK, map[string]string{"wallet": req.Wallet, "status": "compromised"})
}

// HashPowerHandler grants the attacker majority hash power.
func (s *Server) HashPowerHandler(w http.ResponseWriter, r *http.Request) {
	s.Sim.AcquireHashPower()
	s.publishState()
	respondJSON(w, http.StatusOK, s.Sim.Snapshot().HashPower)
}

// ResetHandler returns the simulation to its initial state.
func (s *Server) ResetHandler(w http.ResponseWriter, r *http.Request) {
	s.Sim.Reset()
	s.publishState()
	respondJSON(w, http.StatusOK, map[string]string{"status": "reset"})
}

// BroadcastHistoryHandler returns every archived broadcast decision.
func (s *Server) BroadcastHistoryHandler(w http.ResponseWriter, r *http.Request) {
	records, err := s.Archive.Broadcasts()
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	respondJSON(w, http.StatusOK, records)
}
