package grid

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/dnldd/datavis/shared"
)

const (
	// DefaultBlank is the glyph used for cells without a point.
	DefaultBlank = ' '
)

var (
	// ErrEmptyInput is returned when a grid is requested for zero points.
	ErrEmptyInput = errors.New("no points to display")
)

// Grid represents a dense character grid reconstructed from sparse points. Row zero holds the
// highest y coordinate.
type Grid struct {
	cells  [][]rune
	width  int
	height int
	maxY   int
}

// Build reconstructs a character grid from the provided points.
//
// The grid spans (max y + 1) rows and (max x + 1) columns filled with the blank glyph, a zero
// blank falls back to DefaultBlank. Points sharing a coordinate resolve in input order, the last
// one wins. A point with a zero glyph still sizes the grid but leaves its cell blank.
func Build(points []shared.Point, blank rune) (*Grid, error) {
	if len(points) == 0 {
		return nil, ErrEmptyInput
	}

	if blank == 0 {
		blank = DefaultBlank
	}

	var maxX, maxY int
	for idx := range points {
		pt := points[idx]
		if pt.X < 0 || pt.Y < 0 {
			return nil, fmt.Errorf("point %d has negative coordinates (%d, %d)", idx, pt.X, pt.Y)
		}

		maxX = max(maxX, pt.X)
		maxY = max(maxY, pt.Y)
	}

	width := maxX + 1
	height := maxY + 1
	cells := make([][]rune, height)
	for row := range cells {
		cells[row] = slices.Repeat([]rune{blank}, width)
	}

	for idx := range points {
		pt := points[idx]
		glyph := pt.Glyph
		if glyph == 0 {
			glyph = blank
		}
		cells[maxY-pt.Y][pt.X] = glyph
	}

	return &Grid{
		cells:  cells,
		width:  width,
		height: height,
		maxY:   maxY,
	}, nil
}

// SortStable orders points by row from top to bottom then by column, keeping the input order of
// points that share a coordinate. Build does not need sorted input, the grid command passes
// points in document order.
func SortStable(points []shared.Point) {
	slices.SortStableFunc(points, func(a, b shared.Point) int {
		switch {
		case a.Y != b.Y:
			return b.Y - a.Y
		default:
			return a.X - b.X
		}
	})
}

// Width returns the number of grid columns.
func (g *Grid) Width() int {
	return g.width
}

// Height returns the number of grid rows.
func (g *Grid) Height() int {
	return g.height
}

// At returns the glyph at the provided cartesian coordinate.
func (g *Grid) At(x int, y int) (rune, bool) {
	if x < 0 || y < 0 || x >= g.width || y >= g.height {
		return 0, false
	}

	return g.cells[g.maxY-y][x], true
}

// Rows returns the grid rows from top to bottom, each in column order.
func (g *Grid) Rows() []string {
	rows := make([]string, g.height)
	for idx := range g.cells {
		rows[idx] = string(g.cells[idx])
	}

	return rows
}

// String renders the grid as newline separated rows.
func (g *Grid) String() string {
	return strings.Join(g.Rows(), "\n")
}
