package domain

import (
	"fmt"
	"math"
	"math/rand/v2"
)

type RoomName string

// Unified 3x3 office map. Every room shares these extents; the spawn
// rectangle is the center room minus a margin.
const (
	WorldWidth  = 4800.0
	WorldHeight = 3600.0

	SpawnXMin = 1700.0
	SpawnXMax = 3100.0
	SpawnYMin = 1300.0
	SpawnYMax = 2300.0

	ProximityRange = 200.0
)

// Clamp forces a point back inside world bounds.
func Clamp(x, y float64) (float64, float64) {
	return math.Min(math.Max(x, 0), WorldWidth), math.Min(math.Max(y, 0), WorldHeight)
}

// SpawnPoint picks a uniform random point inside the spawn rectangle.
func SpawnPoint() (float64, float64) {
	x := SpawnXMin + rand.Float64()*(SpawnXMax-SpawnXMin)
	y := SpawnYMin + rand.Float64()*(SpawnYMax-SpawnYMin)
	return x, y
}

// RandomColor returns an avatar color with a random hue, matching the
// hsl(H, 70%, 60%) palette clients expect.
func RandomColor() string {
	return fmt.Sprintf("hsl(%d, 70%%, 60%%)", rand.IntN(360))
}

func Distance(x1, y1, x2, y2 float64) float64 {
	return math.Hypot(x1-x2, y1-y2)
}
