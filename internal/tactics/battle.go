package tactics

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"
)

// Event is one entry in a battle's outbound feed (spawns, moves, attacks,
// turn changes). Consumers receive it via the OnEvent callback.
type Event struct {
	Type    string         `json:"type"`
	Payload map[string]any `json:"payload,omitempty"`
}

// Battle is the aggregate owning one match: grid, roster and turn state.
// Every mutating operation takes the battle's single lock, so a move or an
// attack is atomic from the caller's perspective.
type Battle struct {
	mu sync.RWMutex

	grid    *Grid
	gen     TerrainFunc
	units   []*Unit
	presets map[Archetype]StatBlock

	currentTurn Team
	turnCount   int
	started     bool
	winner      Team
	over        bool
	nextUnitID  int

	// Resolver performs the damage math. Tests swap its Roll to pin
	// critical hits.
	Resolver *Resolver

	// OnEvent, when set, receives the battle feed. Called with the lock
	// held; consumers must not call back into the battle.
	OnEvent func(Event)
}

// NewBattle creates a battle on the default 15x10 coordinate-formula grid.
func NewBattle() *Battle {
	return NewBattleWith(DefaultGridWidth, DefaultGridHeight, nil)
}

// NewBattleWith creates a battle with an explicit grid size and terrain
// generator. A nil gen uses the deterministic coordinate formula.
func NewBattleWith(width, height int, gen TerrainFunc) *Battle {
	presets := make(map[Archetype]StatBlock, len(archetypePresets))
	for k, v := range archetypePresets {
		presets[k] = v
	}
	return &Battle{
		grid:        NewGrid(width, height, gen),
		gen:         gen,
		presets:     presets,
		currentTurn: TeamAttacking,
		turnCount:   1,
		winner:      TeamNone,
		nextUnitID:  1,
		Resolver:    NewResolver(nil),
	}
}

// LoadArchetypes overrides the built-in stat presets from a JSON file of the
// shape {"archetypes": {"warrior": {...}}}. Unknown names become new
// archetypes; missing ones keep their defaults.
func (b *Battle) LoadArchetypes(path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	var data struct {
		Archetypes map[Archetype]StatBlock `json:"archetypes"`
	}
	if err := json.Unmarshal(raw, &data); err != nil {
		return fmt.Errorf("parse archetypes %s: %w", path, err)
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	for k, v := range data.Archetypes {
		b.presets[k] = v
	}
	return nil
}

func (b *Battle) emit(ev Event) {
	if b.OnEvent != nil {
		b.OnEvent(ev)
	}
}

// AddUnit creates a unit on the roster with the next sequential id and the
// archetype's stat seed. Unknown archetypes get the generic default block.
func (b *Battle) AddUnit(name string, x, y int, team Team, archetype Archetype) (Unit, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.addUnitLocked(name, x, y, team, archetype)
}

func (b *Battle) addUnitLocked(name string, x, y int, team Team, archetype Archetype) (Unit, error) {
	if !b.grid.IsValidPosition(x, y) {
		return Unit{}, fmt.Errorf("position (%d, %d) outside grid", x, y)
	}
	stats, ok := b.presets[archetype]
	if !ok {
		stats = defaultStats
	}
	u := newUnit(b.nextUnitID, name, x, y, team, archetype, stats)
	b.nextUnitID++
	b.units = append(b.units, u)

	b.emit(Event{Type: "spawn", Payload: map[string]any{
		"id": u.ID, "name": u.Name, "x": u.X, "y": u.Y,
		"team": u.Team.String(), "type": string(u.Archetype), "hp": u.HP,
	}})
	return *u, nil
}

func (b *Battle) unitByID(id int) *Unit {
	for _, u := range b.units {
		if u.ID == id {
			return u
		}
	}
	return nil
}

// Unit returns a snapshot of the unit with the given id.
func (b *Battle) Unit(id int) (Unit, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	u := b.unitByID(id)
	if u == nil {
		return Unit{}, false
	}
	return *u, true
}

// Units returns a snapshot of the roster in id order.
func (b *Battle) Units() []Unit {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := make([]Unit, 0, len(b.units))
	for _, u := range b.units {
		out = append(out, *u)
	}
	return out
}

// ReachableFor computes the tiles the unit can move to this turn: the
// cost-bounded reachable set minus the unit's own tile and tiles occupied by
// other units, in row-major order.
func (b *Battle) ReachableFor(id int) ([]Position, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	unit := b.unitByID(id)
	if unit == nil {
		return nil, ErrUnitNotFound
	}
	return b.reachableLocked(unit), nil
}

func (b *Battle) reachableLocked(unit *Unit) []Position {
	reachable := ReachableTiles(b.grid, unit.Pos(), unit.Movement)
	delete(reachable, unit.Pos())
	for _, other := range b.units {
		if other.ID != unit.ID {
			delete(reachable, other.Pos())
		}
	}

	tiles := make([]Position, 0, len(reachable))
	for pos := range reachable {
		tiles = append(tiles, pos)
	}
	SortPositions(tiles)
	return tiles
}

// TargetsFor returns the enemy units the given unit could attack from its
// current tile.
func (b *Battle) TargetsFor(id int) ([]Unit, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	unit := b.unitByID(id)
	if unit == nil {
		return nil, ErrUnitNotFound
	}

	var enemies []*Unit
	for _, u := range b.units {
		if u.Team != unit.Team {
			enemies = append(enemies, u)
		}
	}

	targets := make([]Unit, 0)
	for _, e := range ValidTargets(b.grid, unit, enemies) {
		targets = append(targets, *e)
	}
	return targets, nil
}

// MoveUnit relocates a unit to (x, y) if that tile is within its reachable
// set and unoccupied, and marks it as having moved.
func (b *Battle) MoveUnit(id, x, y int) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	unit := b.unitByID(id)
	if unit == nil {
		return ErrUnitNotFound
	}

	dest := Position{X: x, Y: y}
	legal := false
	for _, tile := range b.reachableLocked(unit) {
		if tile == dest {
			legal = true
			break
		}
	}
	if !legal {
		return ErrInvalidMove
	}

	from := unit.Pos()
	unit.X, unit.Y = x, y
	unit.HasMoved = true

	b.emit(Event{Type: "move", Payload: map[string]any{
		"id": unit.ID, "from": from, "to": dest,
	}})
	return nil
}

// AttackUnit resolves an attack between two roster units. A defeated
// defender is removed from the roster before the call returns, and the
// victory condition is re-evaluated.
func (b *Battle) AttackUnit(attackerID, targetID int) (AttackResult, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	attacker := b.unitByID(attackerID)
	target := b.unitByID(targetID)
	if attacker == nil || target == nil {
		return AttackResult{}, ErrUnitNotFound
	}

	result, err := b.Resolver.ResolveAttack(attacker, target, b.grid)
	if err != nil {
		return AttackResult{}, err
	}

	b.emit(Event{Type: "attack", Payload: map[string]any{
		"attacker": attacker.ID, "defender": target.ID,
		"damage": result.Damage, "critical": result.Critical,
		"defender_hp": result.DefenderHP,
	}})

	if !result.DefenderAlive {
		b.removeUnitLocked(target.ID)
		b.emit(Event{Type: "defeat", Payload: map[string]any{
			"id": target.ID, "name": target.Name,
		}})
	}

	if winner, over := MatchWinner(b.units); over {
		b.winner = winner
		b.over = true
		b.emit(Event{Type: "match_over", Payload: map[string]any{
			"winner": winner.String(),
		}})
	}
	return result, nil
}

func (b *Battle) removeUnitLocked(id int) {
	kept := b.units[:0]
	for _, u := range b.units {
		if u.ID != id {
			kept = append(kept, u)
		}
	}
	b.units = kept
}

// EndTurn hands control to the other team. The turn counter increments each
// time control returns to the attacking side, and the incoming team's units
// get fresh per-turn flags.
func (b *Battle) EndTurn() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.currentTurn = b.currentTurn.Opponent()
	if b.currentTurn == TeamAttacking {
		b.turnCount++
	}
	for _, u := range b.units {
		if u.Team == b.currentTurn {
			u.ResetTurn()
		}
	}

	b.emit(Event{Type: "turn", Payload: map[string]any{
		"current": b.currentTurn.String(), "count": b.turnCount,
	}})
}

// StartMatch resets the battle and seeds the fixed opening roster: two
// attacking units on the west side, two defending units on the east.
func (b *Battle) StartMatch() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.resetLocked()
	seed := []struct {
		name      string
		x, y      int
		team      Team
		archetype Archetype
	}{
		{"Hero", 2, 3, TeamAttacking, Warrior},
		{"Archer", 3, 4, TeamAttacking, Archer},
		{"Orc", 12, 3, TeamDefending, Warrior},
		{"Goblin", 11, 5, TeamDefending, Archer},
	}
	for _, s := range seed {
		if _, err := b.addUnitLocked(s.name, s.x, s.y, s.team, s.archetype); err != nil {
			return err
		}
	}
	b.started = true
	return nil
}

// Reset discards the roster, regenerates the grid and returns to the
// pre-match state.
func (b *Battle) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.resetLocked()
	b.emit(Event{Type: "reset"})
}

func (b *Battle) resetLocked() {
	b.grid = NewGrid(b.grid.Width, b.grid.Height, b.gen)
	b.units = nil
	b.currentTurn = TeamAttacking
	b.turnCount = 1
	b.started = false
	b.winner = TeamNone
	b.over = false
	b.nextUnitID = 1
}

// CurrentTurn returns the team whose turn it is.
func (b *Battle) CurrentTurn() Team {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.currentTurn
}

// TurnCount returns the current round number, starting at 1.
func (b *Battle) TurnCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.turnCount
}

// Winner returns the winning team once the match is over. A draw reports
// TeamNone with over true.
func (b *Battle) Winner() (Team, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.winner, b.over
}

// Grid exposes the battlefield for read-only queries. The grid is immutable
// for the lifetime of a match.
func (b *Battle) Grid() *Grid {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.grid
}

// Snapshot is the externally visible battle state.
type Snapshot struct {
	CurrentTurn Team      `json:"currentTurn"`
	TurnCount   int       `json:"turnCount"`
	Units       []Unit    `json:"units"`
	Grid        GridState `json:"grid"`
	GameStarted bool      `json:"gameStarted"`
	GameOver    bool      `json:"gameOver"`
	Winner      string    `json:"winner,omitempty"`
}

// GridState is the serializable view of the battlefield.
type GridState struct {
	Width  int        `json:"width"`
	Height int        `json:"height"`
	Tiles  [][]string `json:"tiles"`
}

// State captures the full battle for the boundary layer.
func (b *Battle) State() Snapshot {
	b.mu.RLock()
	defer b.mu.RUnlock()

	units := make([]Unit, 0, len(b.units))
	for _, u := range b.units {
		units = append(units, *u)
	}

	snap := Snapshot{
		CurrentTurn: b.currentTurn,
		TurnCount:   b.turnCount,
		Units:       units,
		Grid: GridState{
			Width:  b.grid.Width,
			Height: b.grid.Height,
			Tiles:  b.grid.TileNames(),
		},
		GameStarted: b.started,
		GameOver:    b.over,
	}
	if b.over {
		snap.Winner = b.winner.String()
	}
	return snap
}
