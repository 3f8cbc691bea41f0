package api

import (
	"log"
	"net/http"
	"sync"

	"battlesim/internal/data"
	"battlesim/internal/live"
	"battlesim/internal/tactics"
)

// Server owns one battle per player and exposes the HTTP boundary around the
// tactics core. Store and hub are optional; a nil store skips match history
// and a nil hub skips the spectator feed.
type Server struct {
	store *data.Store
	hub   *live.Hub

	// ArchetypesPath, when set, overrides unit stat presets for every new
	// battle from a JSON data file.
	ArchetypesPath string

	mu      sync.Mutex
	battles map[string]*tactics.Battle
}

func NewServer(store *data.Store, hub *live.Hub) *Server {
	return &Server{
		store:   store,
		hub:     hub,
		battles: make(map[string]*tactics.Battle),
	}
}

// battleFor returns the player's battle, creating a fresh pre-match one on
// first access.
func (s *Server) battleFor(userID string) *tactics.Battle {
	s.mu.Lock()
	defer s.mu.Unlock()

	if b, ok := s.battles[userID]; ok {
		return b
	}

	b := tactics.NewBattle()
	if s.ArchetypesPath != "" {
		if err := b.LoadArchetypes(s.ArchetypesPath); err != nil {
			log.Printf("Warning: could not load archetypes from %s: %v", s.ArchetypesPath, err)
		}
	}
	if s.hub != nil {
		hub := s.hub
		b.OnEvent = func(ev tactics.Event) { hub.Broadcast(userID, ev) }
	}
	s.battles[userID] = b
	return b
}

// Routes registers every battle endpoint on the mux.
func (s *Server) Routes(mux *http.ServeMux) {
	mux.HandleFunc("/api/state", s.StateHandler)
	mux.HandleFunc("/api/start-battle", s.StartHandler)
	mux.HandleFunc("/api/reset-game", s.ResetHandler)
	mux.HandleFunc("/api/create-unit", s.CreateUnitHandler)
	mux.HandleFunc("/api/unit", s.UnitHandler)
	mux.HandleFunc("/api/move-unit", s.MoveHandler)
	mux.HandleFunc("/api/movement-range", s.MovementRangeHandler)
	mux.HandleFunc("/api/valid-targets", s.ValidTargetsHandler)
	mux.HandleFunc("/api/unit-types", s.UnitTypesHandler)
	mux.HandleFunc("/api/attack", s.AttackHandler)
	mux.HandleFunc("/api/attack-preview", s.PreviewHandler)
	mux.HandleFunc("/api/end-turn", s.EndTurnHandler)
	if s.store != nil {
		mux.HandleFunc("/api/history", s.HistoryHandler)
		mux.HandleFunc("/api/leaderboard", s.LeaderboardHandler)
	}
}

// userID resolves the player identity from the query string, falling back to
// the session cookie, then to a shared guest battle.
func userID(r *http.Request) string {
	if q := r.URL.Query().Get("userID"); q != "" {
		return q
	}
	if c, err := r.Cookie("user_id"); err == nil && c.Value != "" {
		return c.Value
	}
	return "guest"
}
