// Package api serves generated maps over HTTP. All endpoints are GET
// and read-only; generation happens before the server starts.
package api

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/Vi1i/rust-harmony/internal/engine"
	"github.com/Vi1i/rust-harmony/internal/hexgrid"
	"github.com/Vi1i/rust-harmony/internal/world"
)

// Server serves one generated map and its generation report.
type Server struct {
	Map    *world.Map
	Report *engine.Report
	Seed   int64
	Port   int
}

// Start begins serving the HTTP API in a goroutine.
func (s *Server) Start() {
	mux := s.routes()
	addr := fmt.Sprintf(":%d", s.Port)
	slog.Info("HTTP API starting", "addr", addr)

	go func() {
		if err := http.ListenAndServe(addr, mux); err != nil {
			slog.Error("HTTP server error", "error", err)
		}
	}()
}

func (s *Server) routes() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok\n"))
	})
	mux.HandleFunc("/api/v1/status", s.handleStatus)
	mux.HandleFunc("/api/v1/map", s.handleMapRoutes)
	mux.HandleFunc("/api/v1/map/", s.handleMapRoutes)
	mux.HandleFunc("/api/v1/structures", s.handleStructures)
	mux.HandleFunc("/api/v1/diagnostics", s.handleDiagnostics)
	return mux
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	counts := world.TerrainCounts(s.Map)
	byName := make(map[string]int, len(counts))
	for t, n := range counts {
		byName[world.TerrainName(t)] = n
	}

	writeJSON(w, map[string]any{
		"seed":           s.Seed,
		"radius":         s.Map.Radius,
		"cells":          s.Map.CellCount(),
		"structures":     len(s.Map.Structures),
		"water_features": len(s.Map.WaterFeatures),
		"terrain":        byName,
		"diagnostics":    len(s.Report.Diagnostics),
	})
}

// handleMapRoutes dispatches between the bulk map (GET /api/v1/map)
// and cell detail (GET /api/v1/map/:q/:r).
func (s *Server) handleMapRoutes(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/api/v1/map")
	if path == "" || path == "/" {
		s.handleBulkMap(w, r)
		return
	}
	s.handleCellDetail(w, r, path)
}

// handleBulkMap returns every cell for the hex map renderer.
func (s *Server) handleBulkMap(w http.ResponseWriter, r *http.Request) {
	type hexEntry struct {
		Q          int    `json:"q"`
		R          int    `json:"r"`
		Terrain    string `json:"terrain"`
		Elevation  int    `json:"elevation"`
		WaterDepth int    `json:"water_depth,omitempty"`
		Occupied   bool   `json:"occupied,omitempty"`
	}

	hexes := make([]hexEntry, 0, s.Map.CellCount())
	for _, cell := range s.Map.CellsWithin(hexgrid.Coord{}, s.Map.Radius) {
		hexes = append(hexes, hexEntry{
			Q:          cell.Coord.Q,
			R:          cell.Coord.R,
			Terrain:    world.TerrainName(cell.Terrain),
			Elevation:  cell.Elevation,
			WaterDepth: cell.WaterDepth,
			Occupied:   cell.Occupant != nil,
		})
	}

	writeJSON(w, map[string]any{
		"radius": s.Map.Radius,
		"hexes":  hexes,
	})
}

// handleCellDetail returns one cell with its occupant and deposits.
func (s *Server) handleCellDetail(w http.ResponseWriter, r *http.Request, path string) {
	parts := strings.Split(strings.Trim(path, "/"), "/")
	if len(parts) != 2 {
		http.Error(w, "expected /api/v1/map/:q/:r", http.StatusBadRequest)
		return
	}
	q, err1 := strconv.Atoi(parts[0])
	rr, err2 := strconv.Atoi(parts[1])
	if err1 != nil || err2 != nil {
		http.Error(w, "coordinates must be integers", http.StatusBadRequest)
		return
	}

	c := hexgrid.Coord{Q: q, R: rr}
	cell := s.Map.Cell(c)
	if cell == nil {
		http.Error(w, "no such cell", http.StatusNotFound)
		return
	}

	detail := map[string]any{
		"q":         cell.Coord.Q,
		"r":         cell.Coord.R,
		"terrain":   world.TerrainName(cell.Terrain),
		"elevation": cell.Elevation,
	}
	if cell.WaterDepth > 0 {
		detail["water_depth"] = cell.WaterDepth
	}
	if cell.Occupant != nil {
		if st := s.Map.Structure(*cell.Occupant); st != nil {
			detail["structure"] = map[string]any{
				"id":   st.ID,
				"name": st.Name,
				"type": st.Type,
			}
		}
	}
	if deposits := s.Map.Deposits[c]; len(deposits) > 0 {
		detail["deposits"] = deposits
	}

	writeJSON(w, detail)
}

func (s *Server) handleStructures(w http.ResponseWriter, r *http.Request) {
	type structureEntry struct {
		ID        string          `json:"id"`
		Name      string          `json:"name"`
		Type      string          `json:"type"`
		Origin    hexgrid.Coord   `json:"origin"`
		CellCount int             `json:"cell_count"`
		Entrances []hexgrid.Coord `json:"entrances,omitempty"`
		Tags      []string        `json:"tags,omitempty"`
	}

	// Optional ?type= and ?tag= filters.
	wantType := r.URL.Query().Get("type")
	wantTag := r.URL.Query().Get("tag")

	entries := make([]structureEntry, 0, len(s.Map.Structures))
	for _, st := range s.Map.Structures {
		if wantType != "" && st.Type != wantType {
			continue
		}
		if wantTag != "" && !st.HasTag(wantTag) {
			continue
		}
		entries = append(entries, structureEntry{
			ID:        st.ID.String(),
			Name:      st.Name,
			Type:      st.Type,
			Origin:    st.Origin,
			CellCount: len(st.Cells),
			Entrances: st.Entrances,
			Tags:      st.Tags,
		})
	}
	writeJSON(w, map[string]any{"structures": entries})
}

func (s *Server) handleDiagnostics(w http.ResponseWriter, r *http.Request) {
	// Optional ?code= filter.
	wantCode := r.URL.Query().Get("code")

	diags := s.Report.Diagnostics
	if wantCode != "" {
		var filtered []engine.Diagnostic
		for _, d := range diags {
			if d.Code == wantCode {
				filtered = append(filtered, d)
			}
		}
		diags = filtered
	}
	writeJSON(w, map[string]any{
		"rules_run":         s.Report.RulesRun,
		"structures_placed": s.Report.StructuresPlaced,
		"mutated_cells":     len(s.Report.Mutated),
		"diagnostics":       diags,
	})
}

func writeJSON(w http.ResponseWriter, data any) {
	w.Header().Set("Content-Type", "application/json")
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.Encode(data)
}
