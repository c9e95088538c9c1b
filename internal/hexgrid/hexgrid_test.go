package hexgrid

import "testing"

func TestDistance(t *testing.T) {
	cases := []struct {
		a, b Coord
		want int
	}{
		{Coord{0, 0}, Coord{0, 0}, 0},
		{Coord{0, 0}, Coord{1, 0}, 1},
		{Coord{0, 0}, Coord{1, -1}, 1},
		{Coord{0, 0}, Coord{1, 1}, 2},
		{Coord{0, 0}, Coord{3, -1}, 3},
		{Coord{-2, 1}, Coord{2, -1}, 4},
	}
	for _, c := range cases {
		if got := Distance(c.a, c.b); got != c.want {
			t.Errorf("Distance(%v, %v) = %d, want %d", c.a, c.b, got, c.want)
		}
		if got := Distance(c.b, c.a); got != c.want {
			t.Errorf("Distance(%v, %v) = %d, want %d (not symmetric)", c.b, c.a, got, c.want)
		}
	}
}

func TestNeighborsAreDistanceOne(t *testing.T) {
	center := Coord{Q: 3, R: -2}
	seen := make(map[Coord]bool)
	for _, n := range center.Neighbors() {
		if Distance(center, n) != 1 {
			t.Errorf("neighbor %v at distance %d", n, Distance(center, n))
		}
		if seen[n] {
			t.Errorf("duplicate neighbor %v", n)
		}
		seen[n] = true
	}
	if len(seen) != 6 {
		t.Errorf("expected 6 distinct neighbors, got %d", len(seen))
	}
}

func TestRing(t *testing.T) {
	center := Coord{Q: 0, R: 0}
	for radius := 1; radius <= 4; radius++ {
		ring := Ring(center, radius)
		if len(ring) != 6*radius {
			t.Fatalf("Ring radius %d: got %d hexes, want %d", radius, len(ring), 6*radius)
		}
		for _, c := range ring {
			if Distance(center, c) != radius {
				t.Errorf("Ring radius %d contains %v at distance %d", radius, c, Distance(center, c))
			}
		}
	}
	if got := Ring(center, 0); len(got) != 1 || got[0] != center {
		t.Errorf("Ring radius 0 = %v, want just center", got)
	}
}

func TestRangeCountAndOrder(t *testing.T) {
	center := Coord{Q: 2, R: 2}
	for radius := 0; radius <= 3; radius++ {
		cells := Range(center, radius)
		want := 1 + 3*radius*(radius+1)
		if len(cells) != want {
			t.Fatalf("Range radius %d: got %d hexes, want %d", radius, len(cells), want)
		}
		for i := 1; i < len(cells); i++ {
			if !Less(cells[i-1], cells[i]) {
				t.Fatalf("Range not in ascending order at %d: %v then %v", i, cells[i-1], cells[i])
			}
		}
		for _, c := range cells {
			if Distance(center, c) > radius {
				t.Errorf("Range radius %d contains %v at distance %d", radius, c, Distance(center, c))
			}
		}
	}
}

func TestLine(t *testing.T) {
	a := Coord{Q: 0, R: 0}
	b := Coord{Q: 4, R: -2}
	line := Line(a, b)
	if line[0] != a || line[len(line)-1] != b {
		t.Fatalf("line endpoints %v..%v, want %v..%v", line[0], line[len(line)-1], a, b)
	}
	if len(line) != Distance(a, b)+1 {
		t.Fatalf("line length %d, want %d", len(line), Distance(a, b)+1)
	}
	for i := 1; i < len(line); i++ {
		if Distance(line[i-1], line[i]) != 1 {
			t.Errorf("line step %v -> %v is not adjacent", line[i-1], line[i])
		}
	}
}
