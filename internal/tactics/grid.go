package tactics

import "math/rand"

const (
	DefaultGridWidth  = 15
	DefaultGridHeight = 10
)

// Position is an integer grid cell.
type Position struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// TerrainFunc assigns a terrain kind to a cell at construction time. Keeping
// generation behind this seam lets tests supply a fixed layout.
type TerrainFunc func(x, y int) TerrainKind

// CoordinateTerrain is the default generator: terrain derived purely from
// cell coordinates, so two grids of the same size are identical.
func CoordinateTerrain(x, y int) TerrainKind {
	switch {
	case (x+y)%7 == 0:
		return Forest
	case (x*y)%13 == 0:
		return Mountain
	case x%4 == 0 && y%3 == 0:
		return Water
	default:
		return Grass
	}
}

// RandomTerrain draws each cell independently: 60% grass, 20% forest,
// 10% mountain, 8% water, 2% road.
func RandomTerrain(rng *rand.Rand) TerrainFunc {
	return func(x, y int) TerrainKind {
		roll := rng.Float64()
		switch {
		case roll < 0.60:
			return Grass
		case roll < 0.80:
			return Forest
		case roll < 0.90:
			return Mountain
		case roll < 0.98:
			return Water
		default:
			return Road
		}
	}
}

// FlatTerrain fills the whole grid with a single kind.
func FlatTerrain(kind TerrainKind) TerrainFunc {
	return func(x, y int) TerrainKind { return kind }
}

// Grid is the bounded battlefield. Terrain is assigned once at construction
// and never changes mid-battle.
type Grid struct {
	Width  int
	Height int
	tiles  [][]TerrainKind
}

// NewGrid builds a width x height grid using gen for terrain assignment.
// A nil gen falls back to CoordinateTerrain.
func NewGrid(width, height int, gen TerrainFunc) *Grid {
	if gen == nil {
		gen = CoordinateTerrain
	}
	tiles := make([][]TerrainKind, height)
	for y := 0; y < height; y++ {
		row := make([]TerrainKind, width)
		for x := 0; x < width; x++ {
			row[x] = gen(x, y)
		}
		tiles[y] = row
	}
	return &Grid{Width: width, Height: height, tiles: tiles}
}

// IsValidPosition reports whether (x, y) is inside the grid.
func (g *Grid) IsValidPosition(x, y int) bool {
	return x >= 0 && x < g.Width && y >= 0 && y < g.Height
}

// TerrainAt returns the terrain kind at (x, y); ok is false out of bounds.
func (g *Grid) TerrainAt(x, y int) (TerrainKind, bool) {
	if !g.IsValidPosition(x, y) {
		return "", false
	}
	return g.tiles[y][x], true
}

// MovementCost returns the cost of entering (x, y), or OutOfBoundsCost for
// positions outside the grid.
func (g *Grid) MovementCost(x, y int) int {
	kind, ok := g.TerrainAt(x, y)
	if !ok {
		return OutOfBoundsCost
	}
	return kind.Lookup().MovementCost
}

// DefenseBonus returns the terrain defense bonus at (x, y), 0 out of bounds.
func (g *Grid) DefenseBonus(x, y int) int {
	kind, ok := g.TerrainAt(x, y)
	if !ok {
		return 0
	}
	return kind.Lookup().DefenseBonus
}

// Neighbors returns the in-bounds axis-aligned neighbors of (x, y) in fixed
// west, east, north, south order.
func (g *Grid) Neighbors(x, y int) []Position {
	dirs := [4][2]int{{-1, 0}, {1, 0}, {0, -1}, {0, 1}}
	out := make([]Position, 0, 4)
	for _, d := range dirs {
		nx, ny := x+d[0], y+d[1]
		if g.IsValidPosition(nx, ny) {
			out = append(out, Position{X: nx, Y: ny})
		}
	}
	return out
}

// TileNames returns the terrain display names row by row, for the boundary
// layer's serialization.
func (g *Grid) TileNames() [][]string {
	rows := make([][]string, g.Height)
	for y := 0; y < g.Height; y++ {
		row := make([]string, g.Width)
		for x := 0; x < g.Width; x++ {
			row[x] = g.tiles[y][x].String()
		}
		rows[y] = row
	}
	return rows
}
