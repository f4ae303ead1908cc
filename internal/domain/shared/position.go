package shared

import (
	"fmt"
	"math"
)

// Position is a point on the square sea map
type Position struct {
	X float64
	Y float64
}

// NewPosition creates a position
func NewPosition(x, y float64) Position {
	return Position{X: x, Y: y}
}

// DistanceTo calculates the Euclidean distance to another position
func (p Position) DistanceTo(other Position) float64 {
	dx := other.X - p.X
	dy := other.Y - p.Y
	return math.Sqrt(dx*dx + dy*dy)
}

// Within reports whether the position lies on a map of the given side length
func (p Position) Within(side float64) bool {
	return p.X >= 0 && p.Y >= 0 && p.X <= side && p.Y <= side
}

func (p Position) String() string {
	return fmt.Sprintf("(%.2f, %.2f)", p.X, p.Y)
}
