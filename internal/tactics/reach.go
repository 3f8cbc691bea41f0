package tactics

import "sort"

// ReachableTiles returns every tile whose cheapest path from origin costs at
// most budget, origin included at cost 0. Entering a tile costs that tile's
// movement cost. A tile already queued is revisited whenever a cheaper path
// to it is found, so the result reflects minimum cost over all paths rather
// than the cost of the first path discovered.
func ReachableTiles(g *Grid, origin Position, budget int) map[Position]bool {
	reachable := make(map[Position]bool)
	if !g.IsValidPosition(origin.X, origin.Y) {
		return reachable
	}

	cost := map[Position]int{origin: 0}
	queue := []Position{origin}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for _, nb := range g.Neighbors(cur.X, cur.Y) {
			next := cost[cur] + g.MovementCost(nb.X, nb.Y)
			if next > budget {
				continue
			}
			if best, seen := cost[nb]; !seen || next < best {
				cost[nb] = next
				queue = append(queue, nb)
			}
		}
	}

	for pos := range cost {
		reachable[pos] = true
	}
	return reachable
}

// TilesInRange returns the in-bounds tiles whose Manhattan distance from
// origin is between 1 and attackRange inclusive. Origin itself is excluded.
func TilesInRange(g *Grid, origin Position, attackRange int) []Position {
	var out []Position
	for dx := -attackRange; dx <= attackRange; dx++ {
		for dy := -attackRange; dy <= attackRange; dy++ {
			if abs(dx)+abs(dy) > attackRange || (dx == 0 && dy == 0) {
				continue
			}
			nx, ny := origin.X+dx, origin.Y+dy
			if g.IsValidPosition(nx, ny) {
				out = append(out, Position{X: nx, Y: ny})
			}
		}
	}
	return out
}

// SortPositions orders tiles row-major so boundary responses are stable.
func SortPositions(tiles []Position) {
	sort.Slice(tiles, func(i, j int) bool {
		if tiles[i].Y != tiles[j].Y {
			return tiles[i].Y < tiles[j].Y
		}
		return tiles[i].X < tiles[j].X
	})
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
