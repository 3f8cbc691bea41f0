package tactics

import "fmt"

// Team identifies one of the two sides of a match.
type Team int

const (
	TeamAttacking Team = 0
	TeamDefending Team = 1

	// TeamNone is reported when a finished match has no winner.
	TeamNone Team = -1
)

func (t Team) String() string {
	switch t {
	case TeamAttacking:
		return "attacking"
	case TeamDefending:
		return "defending"
	default:
		return "none"
	}
}

// Opponent returns the other side.
func (t Team) Opponent() Team {
	if t == TeamAttacking {
		return TeamDefending
	}
	return TeamAttacking
}

// ParseTeam converts the wire representation back to a Team.
func ParseTeam(s string) (Team, error) {
	switch s {
	case "attacking":
		return TeamAttacking, nil
	case "defending":
		return TeamDefending, nil
	}
	return TeamNone, fmt.Errorf("unknown team %q", s)
}

func (t Team) MarshalJSON() ([]byte, error) {
	return []byte(`"` + t.String() + `"`), nil
}

func (t *Team) UnmarshalJSON(data []byte) error {
	s := string(data)
	if len(s) >= 2 && s[0] == '"' {
		s = s[1 : len(s)-1]
	}
	parsed, err := ParseTeam(s)
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// Archetype names a stat preset applied once at unit creation.
type Archetype string

const (
	Warrior Archetype = "warrior"
	Archer  Archetype = "archer"
	Mage    Archetype = "mage"
	Knight  Archetype = "knight"
)

// StatBlock is the construction-time stat seed for an archetype.
type StatBlock struct {
	MaxHP    int `json:"max_hp"`
	Attack   int `json:"attack"`
	Defense  int `json:"defense"`
	Movement int `json:"movement"`
}

var defaultStats = StatBlock{MaxHP: 20, Attack: 5, Defense: 3, Movement: 4}

var archetypePresets = map[Archetype]StatBlock{
	Warrior: {MaxHP: 25, Attack: 8, Defense: 6, Movement: 4},
	Archer:  {MaxHP: 16, Attack: 6, Defense: 3, Movement: 5},
	Mage:    {MaxHP: 14, Attack: 9, Defense: 2, Movement: 4},
	Knight:  {MaxHP: 30, Attack: 7, Defense: 8, Movement: 3},
}

// Archetypes lists the named presets.
func Archetypes() []Archetype {
	return []Archetype{Warrior, Archer, Mage, Knight}
}

// Unit is the mutable combat state of one roster member.
type Unit struct {
	ID        int       `json:"id"`
	Name      string    `json:"name"`
	X         int       `json:"x"`
	Y         int       `json:"y"`
	HP        int       `json:"hp"`
	MaxHP     int       `json:"maxHp"`
	Attack    int       `json:"attack"`
	Defense   int       `json:"defense"`
	Movement  int       `json:"movement"`
	Team      Team      `json:"team"`
	Archetype Archetype `json:"type"`
	HasMoved  bool      `json:"hasMoved"`
	HasActed  bool      `json:"hasActed"`
}

func newUnit(id int, name string, x, y int, team Team, archetype Archetype, stats StatBlock) *Unit {
	return &Unit{
		ID:        id,
		Name:      name,
		X:         x,
		Y:         y,
		HP:        stats.MaxHP,
		MaxHP:     stats.MaxHP,
		Attack:    stats.Attack,
		Defense:   stats.Defense,
		Movement:  stats.Movement,
		Team:      team,
		Archetype: archetype,
	}
}

// Pos returns the unit's current tile.
func (u *Unit) Pos() Position { return Position{X: u.X, Y: u.Y} }

// IsAlive reports whether the unit is still in fighting shape.
func (u *Unit) IsAlive() bool { return u.HP > 0 }

// CanAttack reports whether u may attack target: different team and
// Manhattan distance at most 1.
func (u *Unit) CanAttack(target *Unit) bool {
	if u.Team == target.Team {
		return false
	}
	return abs(u.X-target.X)+abs(u.Y-target.Y) <= 1
}

// TakeDamage subtracts the unit's defense from the incoming amount and
// applies the remainder, flooring HP at 0. Returns the damage actually
// applied.
func (u *Unit) TakeDamage(incoming int) int {
	applied := incoming - u.Defense
	if applied < 0 {
		applied = 0
	}
	u.HP -= applied
	if u.HP < 0 {
		u.HP = 0
	}
	return applied
}

// ResetTurn clears the per-turn action flags.
func (u *Unit) ResetTurn() {
	u.HasMoved = false
	u.HasActed = false
}
