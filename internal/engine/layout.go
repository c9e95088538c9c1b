package engine

import (
	"github.com/Vi1i/rust-harmony/internal/hexgrid"
	"github.com/Vi1i/rust-harmony/internal/rules"
	"github.com/Vi1i/rust-harmony/internal/world"
)

// layout is the concrete interior expansion of a structure: which
// absolute cells are room floor, corridor, entrance, and connection
// markers. All coordinates are absolute (origin applied).
type layout struct {
	rooms       []roomPlacement
	corridor    []hexgrid.Coord
	entrances   []hexgrid.Coord
	connections []world.Connection
}

type roomPlacement struct {
	purpose string
	cells   []hexgrid.Coord
}

// floorCells returns every interior cell stamped walkable, ascending.
func (l *layout) floorCells() []hexgrid.Coord {
	seen := make(map[hexgrid.Coord]bool)
	var out []hexgrid.Coord
	add := func(c hexgrid.Coord) {
		if !seen[c] {
			seen[c] = true
			out = append(out, c)
		}
	}
	for _, r := range l.rooms {
		for _, c := range r.cells {
			add(c)
		}
	}
	for _, c := range l.corridor {
		add(c)
	}
	for _, c := range l.entrances {
		add(c)
	}
	sortCoords(out)
	return out
}

// expandLayout turns a structure's interior layout and connection
// points into concrete cells. The required-connection graph is checked
// first, before any geometry: an inconsistent graph fails fast.
func expandLayout(def *rules.StructureDef, origin hexgrid.Coord, footprint map[hexgrid.Coord]bool) (*layout, *actionError) {
	out := &layout{}

	il := def.InteriorLayout
	if il != nil {
		if err := checkConnectionGraph(il.Rooms); err != nil {
			return nil, err
		}

		// Room geometry: pack each room's requested area into unassigned
		// footprint cells in ascending order. Purposes stay attached for
		// adjacency semantics; exact shape is not contractual.
		free := make([]hexgrid.Coord, 0, len(footprint))
		for c := range footprint {
			free = append(free, c)
		}
		sortCoords(free)
		used := make(map[hexgrid.Coord]bool)

		for _, room := range il.Rooms {
			want := room.Width * room.Height
			if want <= 0 {
				want = 1
			}
			var cells []hexgrid.Coord
			for _, c := range free {
				if len(cells) == want {
					break
				}
				if !used[c] {
					used[c] = true
					cells = append(cells, c)
				}
			}
			if len(cells) < want {
				return nil, validationErr("room %q needs %d cells, footprint has %d free",
					room.Purpose, want, len(cells))
			}
			out.rooms = append(out.rooms, roomPlacement{purpose: room.Purpose, cells: cells})
		}

		// Corridors connect their declared endpoints at the declared
		// width, clipped to the footprint.
		for _, cor := range il.Corridors {
			start := origin.Add(cor.Start)
			end := origin.Add(cor.End)
			if !footprint[start] || !footprint[end] {
				return nil, validationErr("corridor endpoint outside footprint")
			}
			width := cor.Width
			if width < 1 {
				width = 1
			}
			for _, c := range hexgrid.Line(start, end) {
				for _, w := range hexgrid.Range(c, (width-1)/2) {
					if footprint[w] {
						out.corridor = append(out.corridor, w)
					}
				}
			}
		}

		// Entrances mark boundary cells as access points.
		for _, e := range il.Entrances {
			c := origin.Add(e)
			if !footprint[c] {
				return nil, validationErr("entrance %v outside footprint", e)
			}
			if !onBoundary(c, footprint) {
				return nil, validationErr("entrance %v not on footprint boundary", e)
			}
			out.entrances = append(out.entrances, c)
		}
	}

	// Connection points. Required connections outside the final
	// footprint fail the placement; optional ones are dropped.
	for _, cp := range def.Connections {
		c := origin.Add(cp.Position)
		if !footprint[c] {
			if cp.Required {
				return nil, validationErr("required %s connection at %v outside footprint", cp.Type, cp.Position)
			}
			continue
		}
		out.connections = append(out.connections, world.Connection{Coord: c, Kind: cp.Type})
	}

	return out, nil
}

// checkConnectionGraph verifies every room's required connections name
// purposes that exist in the room list. Connectivity is over purposes,
// not geometry.
func checkConnectionGraph(rooms []rules.Room) *actionError {
	purposes := make(map[string]bool, len(rooms))
	for _, r := range rooms {
		purposes[r.Purpose] = true
	}
	for _, r := range rooms {
		for _, need := range r.RequiredConnections {
			if !purposes[need] {
				return validationErr("room %q requires connection to absent purpose %q", r.Purpose, need)
			}
		}
	}
	return nil
}

// onBoundary reports whether a footprint cell has a neighbor outside
// the footprint.
func onBoundary(c hexgrid.Coord, footprint map[hexgrid.Coord]bool) bool {
	for _, n := range c.Neighbors() {
		if !footprint[n] {
			return true
		}
	}
	return false
}
