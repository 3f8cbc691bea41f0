package tactics

import (
	"math/rand"
)

// CritChance is the flat probability that an attack's damage is doubled.
const CritChance = 0.05

// AttackResult reports the outcome of one resolved attack.
type AttackResult struct {
	Success       bool   `json:"success"`
	Attacker      string `json:"attacker"`
	Defender      string `json:"defender"`
	Damage        int    `json:"damage"`
	DefenderHP    int    `json:"defender_hp"`
	DefenderAlive bool   `json:"defender_alive"`
	Critical      bool   `json:"critical"`
}

// Resolver computes and applies combat outcomes. Roll supplies the critical
// hit roll in [0, 1); tests replace it to force or suppress criticals.
type Resolver struct {
	Roll func() float64
}

// NewResolver returns a resolver using the provided rng for crit rolls, or
// the shared global source when rng is nil.
func NewResolver(rng *rand.Rand) *Resolver {
	roll := rand.Float64
	if rng != nil {
		roll = rng.Float64
	}
	return &Resolver{Roll: roll}
}

// CalculateDamage computes the damage an attack would deal before it is
// handed to the defender: attack power minus defense plus the defender's
// terrain bonus, doubled on a critical roll.
func (r *Resolver) CalculateDamage(attacker, defender *Unit, g *Grid) int {
	totalDefense := defender.Defense + g.DefenseBonus(defender.X, defender.Y)
	damage := attacker.Attack - totalDefense
	if damage < 0 {
		damage = 0
	}
	if r.Roll() < CritChance {
		damage *= 2
	}
	return damage
}

// ResolveAttack validates the attack, applies damage to the defender and
// marks the attacker as having acted. The defender's own defense is
// subtracted a second time inside TakeDamage; that matches the behavior the
// rest of the system is balanced around.
//
// The critical flag is inferred after the fact: the computed damage exceeded
// the attacker's base attack, which only a doubled roll can produce.
func (r *Resolver) ResolveAttack(attacker, defender *Unit, g *Grid) (AttackResult, error) {
	if !attacker.CanAttack(defender) {
		return AttackResult{}, ErrInvalidAttack
	}

	damage := r.CalculateDamage(attacker, defender, g)
	applied := defender.TakeDamage(damage)
	attacker.HasActed = true

	return AttackResult{
		Success:       true,
		Attacker:      attacker.Name,
		Defender:      defender.Name,
		Damage:        applied,
		DefenderHP:    defender.HP,
		DefenderAlive: defender.IsAlive(),
		Critical:      damage > attacker.Attack,
	}, nil
}

// MatchWinner evaluates the victory condition over the live roster. over is
// true once either side has no living units; a simultaneous wipe is a draw,
// reported as TeamNone.
func MatchWinner(units []*Unit) (winner Team, over bool) {
	attacking, defending := 0, 0
	for _, u := range units {
		if !u.IsAlive() {
			continue
		}
		if u.Team == TeamAttacking {
			attacking++
		} else {
			defending++
		}
	}
	switch {
	case attacking == 0 && defending == 0:
		return TeamNone, true
	case attacking == 0:
		return TeamDefending, true
	case defending == 0:
		return TeamAttacking, true
	}
	return TeamNone, false
}

// HitChance estimates the probability of an attack landing at the given
// Manhattan distance: 85% base, -10% per tile beyond the first, with archers
// and mages partially offsetting the range penalty. Clamped to [0.10, 1.0].
func HitChance(attacker *Unit, distance int) float64 {
	chance := 0.85
	if distance > 1 {
		chance -= 0.1 * float64(distance-1)
		switch attacker.Archetype {
		case Archer:
			chance += 0.1
		case Mage:
			chance += 0.15
		}
	}
	if chance < 0.1 {
		chance = 0.1
	}
	if chance > 1.0 {
		chance = 1.0
	}
	return chance
}

// CritChanceFor returns the per-unit critical chance: the flat base plus a
// warrior bonus, capped at 25%.
func CritChanceFor(attacker *Unit) float64 {
	chance := CritChance
	if attacker.Archetype == Warrior {
		chance += 0.05
	}
	if chance > 0.25 {
		chance = 0.25
	}
	return chance
}

// ValidTargets returns the enemies standing within the unit's melee reach.
func ValidTargets(g *Grid, unit *Unit, enemies []*Unit) []*Unit {
	inRange := make(map[Position]bool)
	for _, tile := range TilesInRange(g, unit.Pos(), 1) {
		inRange[tile] = true
	}

	var targets []*Unit
	for _, enemy := range enemies {
		if inRange[enemy.Pos()] {
			targets = append(targets, enemy)
		}
	}
	return targets
}
