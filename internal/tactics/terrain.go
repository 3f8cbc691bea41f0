package tactics

// TerrainKind identifies one of the fixed terrain categories on the map.
type TerrainKind string

const (
	Grass    TerrainKind = "grass"
	Forest   TerrainKind = "forest"
	Mountain TerrainKind = "mountain"
	Water    TerrainKind = "water"
	Road     TerrainKind = "road"
)

// OutOfBoundsCost is the movement cost reported for positions outside the
// grid. It encodes "impassable", not an error.
const OutOfBoundsCost = 999

// Terrain holds the static attributes of a terrain kind.
type Terrain struct {
	Name         string `json:"name"`
	MovementCost int    `json:"movement_cost"`
	DefenseBonus int    `json:"defense_bonus"`
	Color        string `json:"color"`
}

var terrainCatalog = map[TerrainKind]Terrain{
	Grass:    {Name: "Grass", MovementCost: 1, DefenseBonus: 0, Color: "#27ae60"},
	Forest:   {Name: "Forest", MovementCost: 2, DefenseBonus: 1, Color: "#145a32"},
	Mountain: {Name: "Mountain", MovementCost: 3, DefenseBonus: 2, Color: "#566573"},
	Water:    {Name: "Water", MovementCost: 2, DefenseBonus: 0, Color: "#3498db"},
	Road:     {Name: "Road", MovementCost: 1, DefenseBonus: 0, Color: "#d5dbdb"},
}

// Lookup returns the attributes for a terrain kind.
func (k TerrainKind) Lookup() Terrain { return terrainCatalog[k] }

func (k TerrainKind) String() string { return terrainCatalog[k].Name }
