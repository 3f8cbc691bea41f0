package api

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"

	"battlesim/internal/tactics"
)

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

// coreStatus maps a core error to an HTTP status code.
func coreStatus(err error) int {
	switch {
	case errors.Is(err, tactics.ErrUnitNotFound):
		return http.StatusNotFound
	case errors.Is(err, tactics.ErrInvalidAttack), errors.Is(err, tactics.ErrInvalidMove):
		return http.StatusBadRequest
	default:
		return http.StatusBadRequest
	}
}

// StateHandler returns the full battle snapshot.
func (s *Server) StateHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, s.battleFor(userID(r)).State())
}

// StartHandler resets the battle and seeds the opening roster.
func (s *Server) StartHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	b := s.battleFor(userID(r))
	if err := b.StartMatch(); err != nil {
		http.Error(w, "failed to start battle", http.StatusInternalServerError)
		return
	}
	writeJSON(w, map[string]any{"status": "success", "game_state": b.State()})
}

// ResetHandler returns the battle to the pre-match state.
func (s *Server) ResetHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	s.battleFor(userID(r)).Reset()
	writeJSON(w, map[string]any{"status": "success"})
}

// CreateUnitHandler adds a unit to the roster.
func (s *Server) CreateUnitHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req struct {
		Name string `json:"name"`
		X    int    `json:"x"`
		Y    int    `json:"y"`
		Team string `json:"team"`
		Type string `json:"type"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad json", http.StatusBadRequest)
		return
	}
	team, err := tactics.ParseTeam(req.Team)
	if err != nil {
		http.Error(w, "unknown team", http.StatusBadRequest)
		return
	}

	unit, err := s.battleFor(userID(r)).AddUnit(req.Name, req.X, req.Y, team, tactics.Archetype(req.Type))
	if err != nil {
		http.Error(w, "invalid unit position", http.StatusBadRequest)
		return
	}
	writeJSON(w, map[string]any{"status": "success", "unit": unit})
}

// UnitHandler looks up a single unit by id.
func (s *Server) UnitHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	id, err := strconv.Atoi(r.URL.Query().Get("id"))
	if err != nil {
		http.Error(w, "invalid unit id", http.StatusBadRequest)
		return
	}
	unit, ok := s.battleFor(userID(r)).Unit(id)
	if !ok {
		http.Error(w, "unit not found", http.StatusNotFound)
		return
	}
	writeJSON(w, map[string]any{"status": "success", "unit": unit})
}

// MoveHandler relocates a unit within its movement range.
func (s *Server) MoveHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req struct {
		UnitID int `json:"unit_id"`
		X      int `json:"x"`
		Y      int `json:"y"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad json", http.StatusBadRequest)
		return
	}

	if err := s.battleFor(userID(r)).MoveUnit(req.UnitID, req.X, req.Y); err != nil {
		http.Error(w, err.Error(), coreStatus(err))
		return
	}
	writeJSON(w, map[string]any{"status": "success"})
}

// MovementRangeHandler returns the tiles a unit can move to this turn, with
// the unit's own tile and occupied tiles already filtered out.
func (s *Server) MovementRangeHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req struct {
		UnitID int `json:"unit_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad json", http.StatusBadRequest)
		return
	}

	b := s.battleFor(userID(r))
	tiles, err := b.ReachableFor(req.UnitID)
	if err != nil {
		http.Error(w, err.Error(), coreStatus(err))
		return
	}
	unit, _ := b.Unit(req.UnitID)
	writeJSON(w, map[string]any{
		"status":          "success",
		"reachable_tiles": tiles,
		"unit_position":   unit.Pos(),
	})
}

// ValidTargetsHandler lists the enemies a unit can attack from where it
// stands.
func (s *Server) ValidTargetsHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req struct {
		UnitID int `json:"unit_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad json", http.StatusBadRequest)
		return
	}

	targets, err := s.battleFor(userID(r)).TargetsFor(req.UnitID)
	if err != nil {
		http.Error(w, err.Error(), coreStatus(err))
		return
	}
	writeJSON(w, map[string]any{"status": "success", "targets": targets})
}

// UnitTypesHandler lists the available archetype names.
func (s *Server) UnitTypesHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, map[string]any{"status": "success", "types": tactics.Archetypes()})
}

// AttackHandler resolves an attack and records the result when the match
// ends and a store is configured.
func (s *Server) AttackHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req struct {
		AttackerID int `json:"attacker_id"`
		TargetID   int `json:"target_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad json", http.StatusBadRequest)
		return
	}

	uid := userID(r)
	b := s.battleFor(uid)
	result, err := b.AttackUnit(req.AttackerID, req.TargetID)
	if err != nil {
		http.Error(w, err.Error(), coreStatus(err))
		return
	}

	if winner, over := b.Winner(); over && s.store != nil {
		if err := s.store.RecordMatch(uid, winner.String(), b.TurnCount()); err != nil {
			log.Println("record match:", err)
		}
		if winner == tactics.TeamAttacking {
			if err := s.store.RecordWin(uid); err != nil {
				log.Println("record win:", err)
			}
		}
	}

	writeJSON(w, map[string]any{
		"status":    "success",
		"damage":    result.Damage,
		"target_hp": result.DefenderHP,
		"critical":  result.Critical,
		"result":    result,
	})
}

// PreviewHandler estimates hit and crit chance for an attack without
// resolving it.
func (s *Server) PreviewHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req struct {
		AttackerID int `json:"attacker_id"`
		TargetID   int `json:"target_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad json", http.StatusBadRequest)
		return
	}

	b := s.battleFor(userID(r))
	attacker, ok := b.Unit(req.AttackerID)
	if !ok {
		http.Error(w, "unit not found", http.StatusNotFound)
		return
	}
	target, ok := b.Unit(req.TargetID)
	if !ok {
		http.Error(w, "unit not found", http.StatusNotFound)
		return
	}

	distance := manhattan(attacker.Pos(), target.Pos())
	writeJSON(w, map[string]any{
		"status":      "success",
		"distance":    distance,
		"hit_chance":  tactics.HitChance(&attacker, distance),
		"crit_chance": tactics.CritChanceFor(&attacker),
	})
}

// EndTurnHandler hands control to the other team.
func (s *Server) EndTurnHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	b := s.battleFor(userID(r))
	b.EndTurn()
	writeJSON(w, map[string]any{
		"status":       "success",
		"current_turn": b.CurrentTurn().String(),
		"turn_count":   b.TurnCount(),
	})
}

// HistoryHandler returns the player's recent match results.
func (s *Server) HistoryHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	matches, err := s.store.RecentMatches(userID(r), 20)
	if err != nil {
		log.Println("match history:", err)
		http.Error(w, "failed to load history", http.StatusInternalServerError)
		return
	}
	writeJSON(w, map[string]any{"status": "success", "matches": matches})
}

// LeaderboardHandler returns the top players by recorded wins.
func (s *Server) LeaderboardHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	entries, err := s.store.Leaderboard(10)
	if err != nil {
		log.Println("leaderboard:", err)
		http.Error(w, "failed to load leaderboard", http.StatusInternalServerError)
		return
	}
	writeJSON(w, map[string]any{"status": "success", "leaderboard": entries})
}

func manhattan(a, b tactics.Position) int {
	dx := a.X - b.X
	if dx < 0 {
		dx = -dx
	}
	dy := a.Y - b.Y
	if dy < 0 {
		dy = -dy
	}
	return dx + dy
}
