package shared

// Point represents a labelled coordinate parsed from a tabular document.
type Point struct {
	X     int
	Y     int
	Glyph rune
}

// NewPoint initializes a point, taking the first rune of the provided glyph text. An empty
// glyph yields a zero rune.
func NewPoint(x int, y int, glyph string) Point {
	var r rune
	for _, c := range glyph {
		r = c
		break
	}

	return Point{X: x, Y: y, Glyph: r}
}
