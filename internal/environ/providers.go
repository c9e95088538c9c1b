// Package environ supplies the environmental readings condition
// evaluation needs: wind exposure, slope, and view distance. Readings
// are pure functions of the map and the seed, so two passes over the
// same world observe the same environment.
package environ

import (
	"math"

	opensimplex "github.com/ojrac/opensimplex-go"

	"github.com/Vi1i/rust-harmony/internal/hexgrid"
	"github.com/Vi1i/rust-harmony/internal/world"
)

const (
	// Wind field noise frequency, in cells.
	windScale = 0.08

	// Horizontal span of one hex step, in the same unit as one
	// elevation level. Sets how steep a one-level drop reads.
	stepSpan = 2.0

	// View distance from flat ground, in hexes.
	baseView = 3
)

// Providers reads wind, slope, and view from a map. Values depend only
// on the map contents and the seed.
type Providers struct {
	m     *world.Map
	noise opensimplex.Noise
}

func New(m *world.Map, seed int64) *Providers {
	return &Providers{
		m:     m,
		noise: opensimplex.NewNormalized(seed),
	}
}

// WindAt returns wind exposure in [0, 1]. Exposure follows a smooth
// noise field, amplified on high ground and damped below sea level.
func (p *Providers) WindAt(c hexgrid.Coord) float64 {
	w := p.noise.Eval2(float64(c.Q)*windScale, float64(c.R)*windScale)
	cell := p.m.Cell(c)
	if cell == nil {
		return w
	}
	switch {
	case cell.Elevation >= world.SnowMinElevation:
		w = w*0.4 + 0.6
	case cell.Elevation <= world.WaterMaxElevation:
		w *= 0.5
	}
	if w < 0 {
		w = 0
	}
	if w > 1 {
		w = 1
	}
	return w
}

// SlopeBetween returns the grade between two cells in degrees. Missing
// cells read as flat.
func (p *Providers) SlopeBetween(a, b hexgrid.Coord) float64 {
	ca, cb := p.m.Cell(a), p.m.Cell(b)
	if ca == nil || cb == nil {
		return 0
	}
	run := float64(hexgrid.Distance(a, b)) * stepSpan
	if run == 0 {
		return 0
	}
	rise := math.Abs(float64(ca.Elevation - cb.Elevation))
	return math.Atan2(rise, run) * 180 / math.Pi
}

// VisibleRange returns how far a viewer at the cell can see, in hexes.
// Height buys reach; standing in water costs it.
func (p *Providers) VisibleRange(c hexgrid.Coord) int {
	cell := p.m.Cell(c)
	if cell == nil {
		return 0
	}
	view := baseView
	if cell.Elevation > 0 {
		view += cell.Elevation / 2
	}
	if cell.Terrain == world.TerrainWater {
		view -= cell.WaterDepth
	}
	if view < 1 {
		view = 1
	}
	return view
}
