// Package geo implements the island's discretized coordinate system: location
// token parsing, continuous-plane conversion, travel time, segment-vs-cell
// intersection, and the super-square neighborhood.
package geo

import (
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/islandseek/engine/internal/errors"
)

const (
	gridMin = 1
	gridMax = 10

	// Crossing the full map diagonal takes six hours of real time.
	fullDiagonalTravel = 6 * time.Hour
)

// maxDiagonal is the continuous-plane distance between the two extreme
// sub-cell centers, (0.25,0.25) and (9.75,9.75).
var maxDiagonal = math.Hypot(9.75-0.25, 9.75-0.25)

// Cell is one of the 100 main squares, addressed by 1-based column and row.
type Cell struct {
	Column int
	Row    int
}

// String renders a cell as its main-square token, e.g. "e6".
func (c Cell) String() string {
	return fmt.Sprintf("%c%d", 'a'+c.Column-1, c.Row)
}

// InBounds reports whether the cell lies on the 10x10 grid.
func (c Cell) InBounds() bool {
	return c.Column >= gridMin && c.Column <= gridMax && c.Row >= gridMin && c.Row <= gridMax
}

// Location is a parsed location token: a main square plus one of its four
// quadrants, with the continuous-plane coordinate of the quadrant center.
type Location struct {
	Token    string
	Quadrant int
	Cell     Cell
	X        float64
	Y        float64
}

// MainSquare returns the coarse grid token without the quadrant digit.
func (l Location) MainSquare() string {
	return l.Cell.String()
}

// quadrant center offsets within a main square, indexed by quadrant digit
var quadrantOffsets = map[int][2]float64{
	1: {-0.75, -0.75},
	2: {-0.25, -0.75},
	3: {-0.25, -0.25},
	4: {-0.75, -0.25},
}

// Parse validates a 3-4 character location token <quadrant><column><row> and
// converts it to plane coordinates. Malformed tokens yield CodeInvalidLocation.
func Parse(token string) (Location, error) {
	if len(token) < 3 || len(token) > 4 {
		return Location{}, errors.InvalidLocationf("'%s' is not a location", token)
	}

	quadrant := int(token[0] - '0')
	if quadrant < 1 || quadrant > 4 {
		return Location{}, errors.InvalidLocationf("'%s' is not a location", token)
	}

	column := int(token[1]-'a') + 1
	if column < gridMin || column > gridMax {
		return Location{}, errors.InvalidLocationf("'%s' is not a location", token)
	}

	row, err := strconv.Atoi(token[2:])
	if err != nil || row < gridMin || row > gridMax {
		return Location{}, errors.InvalidLocationf("'%s' is not a location", token)
	}

	off := quadrantOffsets[quadrant]
	return Location{
		Token:    token,
		Quadrant: quadrant,
		Cell:     Cell{Column: column, Row: row},
		X:        float64(column) + off[0],
		Y:        float64(row) + off[1],
	}, nil
}

// Format renders a quadrant plus cell back into its token form.
func Format(quadrant int, cell Cell) string {
	return fmt.Sprintf("%d%c%d", quadrant, 'a'+cell.Column-1, cell.Row)
}

// ParseMainSquare parses a 2-3 character main-square token, e.g. "e6" or "j10".
func ParseMainSquare(token string) (Cell, error) {
	if len(token) < 2 || len(token) > 3 {
		return Cell{}, errors.InvalidLocationf("'%s' is not a main square", token)
	}
	column := int(token[0]-'a') + 1
	row, err := strconv.Atoi(token[1:])
	if err != nil {
		return Cell{}, errors.InvalidLocationf("'%s' is not a main square", token)
	}
	c := Cell{Column: column, Row: row}
	if !c.InBounds() {
		return Cell{}, errors.InvalidLocationf("'%s' is not a main square", token)
	}
	return c, nil
}

// Distance is the Euclidean plane distance between two locations.
func Distance(a, b Location) float64 {
	return math.Hypot(b.X-a.X, b.Y-a.Y)
}

// TravelTime maps the distance between two locations onto the fixed six-hour
// full-diagonal reference. Symmetric, zero iff a == b.
func TravelTime(a, b Location) time.Duration {
	frac := Distance(a, b) / maxDiagonal
	return time.Duration(frac * float64(fullDiagonalTravel))
}

// SegmentIntersectsCell reports whether the straight path a->b crosses the
// interior of the given main square. The square's four corners are tested for
// lying strictly on the same side of the segment's supporting line; a
// bounding-box check on the square's center rejects hits beyond the segment's
// extent and degenerate parallel cases.
func SegmentIntersectsCell(a, b Location, cell Cell) bool {
	if !cell.InBounds() {
		return false
	}

	x3, y3 := float64(cell.Column), float64(cell.Row)
	corners := [4][2]float64{
		{x3 - 1, y3 - 1},
		{x3, y3 - 1},
		{x3 - 1, y3},
		{x3, y3},
	}

	allPos, allNeg := true, true
	for _, corner := range corners {
		side := (b.Y-a.Y)*(corner[0]-a.X) - (b.X-a.X)*(corner[1]-a.Y)
		if side <= 0 {
			allPos = false
		}
		if side >= 0 {
			allNeg = false
		}
	}
	if allPos || allNeg {
		return false
	}

	// Clamp to the segment's main-square extent using the cell center.
	x1, y1 := float64(a.Cell.Column), float64(a.Cell.Row)
	x2, y2 := float64(b.Cell.Column), float64(b.Cell.Row)

	var xLow, xHigh float64
	if a.X < b.X {
		xLow, xHigh = x1-1, x2
	} else {
		xLow, xHigh = x2-1, x1
	}
	var yLow, yHigh float64
	if a.Y > b.Y {
		yLow, yHigh = y1, y2-1
	} else {
		yLow, yHigh = y2, y1-1
	}

	cx, cy := x3-0.5, y3-0.5
	if cx < xLow || cx > xHigh || cy > yLow || cy < yHigh {
		return false
	}
	return true
}

// SuperSquare returns the 3x3 Chebyshev neighborhood of a cell clipped to the
// grid, the cell itself included. Used for passive tracking detection.
func SuperSquare(center Cell) map[Cell]struct{} {
	zones := make(map[Cell]struct{}, 9)
	for dx := -1; dx <= 1; dx++ {
		for dy := -1; dy <= 1; dy++ {
			c := Cell{Column: center.Column + dx, Row: center.Row + dy}
			if c.InBounds() {
				zones[c] = struct{}{}
			}
		}
	}
	return zones
}
