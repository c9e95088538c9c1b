// Package hexgrid provides axial hex coordinate math: distance,
// neighbor enumeration, rings, ranges, and hex lines.
// Pure functions over value types, no state.
package hexgrid

// Coord is a position on the hex grid in axial coordinates.
// The third cube coordinate s is derived: s = -q - r.
type Coord struct {
	Q int `json:"q" yaml:"q"`
	R int `json:"r" yaml:"r"`
}

// S returns the implicit third cube coordinate.
func (c Coord) S() int {
	return -c.Q - c.R
}

// Add returns the coordinate offset by d.
func (c Coord) Add(d Coord) Coord {
	return Coord{Q: c.Q + d.Q, R: c.R + d.R}
}

// Directions defines the six neighbor offsets in axial coordinates,
// starting east and proceeding counterclockwise.
var Directions = [6]Coord{
	{Q: 1, R: 0},
	{Q: 1, R: -1},
	{Q: 0, R: -1},
	{Q: -1, R: 0},
	{Q: -1, R: 1},
	{Q: 0, R: 1},
}

// Neighbors returns the six adjacent coordinates.
func (c Coord) Neighbors() [6]Coord {
	var result [6]Coord
	for i, dir := range Directions {
		result[i] = c.Add(dir)
	}
	return result
}

// Distance returns the hex distance between two coordinates: the
// maximum absolute difference across the three cube axes.
func Distance(a, b Coord) int {
	dq := abs(a.Q - b.Q)
	dr := abs(a.R - b.R)
	ds := abs(a.S() - b.S())
	max := dq
	if dr > max {
		max = dr
	}
	if ds > max {
		max = ds
	}
	return max
}

// Less orders coordinates by (q, r). Candidate scans and action
// application iterate in this order so that runs are reproducible.
func Less(a, b Coord) bool {
	if a.Q != b.Q {
		return a.Q < b.Q
	}
	return a.R < b.R
}

// Ring returns the coordinates at exactly radius r from center.
// Ring(c, 0) is just the center. Results follow a fixed walk order.
func Ring(center Coord, radius int) []Coord {
	if radius <= 0 {
		return []Coord{center}
	}
	result := make([]Coord, 0, 6*radius)
	// Start r steps out in the southwest direction, then walk each edge.
	cur := center
	for i := 0; i < radius; i++ {
		cur = cur.Add(Directions[4])
	}
	for side := 0; side < 6; side++ {
		for step := 0; step < radius; step++ {
			result = append(result, cur)
			cur = cur.Add(Directions[side])
		}
	}
	return result
}

// Range returns every coordinate within radius of center, in
// ascending (q, r) order.
func Range(center Coord, radius int) []Coord {
	if radius < 0 {
		return nil
	}
	result := make([]Coord, 0, 1+3*radius*(radius+1))
	for q := -radius; q <= radius; q++ {
		lo := -radius
		if -q-radius > lo {
			lo = -q - radius
		}
		hi := radius
		if -q+radius < hi {
			hi = -q + radius
		}
		for r := lo; r <= hi; r++ {
			result = append(result, Coord{Q: center.Q + q, R: center.R + r})
		}
	}
	return result
}

// Line returns the hexes on the straight line from a to b inclusive,
// via cube-space interpolation rounded to the nearest hex.
func Line(a, b Coord) []Coord {
	n := Distance(a, b)
	if n == 0 {
		return []Coord{a}
	}
	result := make([]Coord, 0, n+1)
	ax, ay, az := float64(a.Q), float64(-a.Q-a.R), float64(a.R)
	bx, by, bz := float64(b.Q), float64(-b.Q-b.R), float64(b.R)
	for i := 0; i <= n; i++ {
		t := float64(i) / float64(n)
		result = append(result, cubeRound(
			ax+(bx-ax)*t,
			ay+(by-ay)*t,
			az+(bz-az)*t,
		))
	}
	return result
}

// cubeRound snaps fractional cube coordinates to the nearest hex,
// fixing up the axis with the largest rounding error so x+y+z == 0.
func cubeRound(x, y, z float64) Coord {
	rx, ry, rz := round(x), round(y), round(z)
	dx, dy, dz := absf(float64(rx)-x), absf(float64(ry)-y), absf(float64(rz)-z)
	switch {
	case dx > dy && dx > dz:
		rx = -ry - rz
	case dy > dz:
		ry = -rx - rz
	default:
		rz = -rx - ry
	}
	return Coord{Q: rx, R: rz}
}

func round(f float64) int {
	if f < 0 {
		return int(f - 0.5)
	}
	return int(f + 0.5)
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}

func absf(x float64) float64 {
	if x < 0 {
		return -x
	}
	return x
}
