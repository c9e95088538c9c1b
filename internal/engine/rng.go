package engine

import (
	"encoding/binary"
	"hash/fnv"
	"math/rand"

	"github.com/Vi1i/rust-harmony/internal/hexgrid"
)

// Streams derives independent, reproducible random sub-streams keyed
// by (rule name, action index, target cell). Because derivation is
// keyed rather than call-ordered, parallel evaluation cannot perturb
// output versus sequential evaluation. Stream may be called
// concurrently; each returned generator belongs to its caller alone.
type Streams struct {
	seed int64
}

// NewStreams creates a stream factory for a pass seed.
func NewStreams(seed int64) *Streams {
	return &Streams{seed: seed}
}

// Stream returns the generator for one (rule, action, cell) key. Two
// calls with the same key return generators producing identical
// sequences.
func (s *Streams) Stream(rule string, actionIdx int, c hexgrid.Coord) *rand.Rand {
	h := fnv.New64a()
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], uint64(s.seed))
	h.Write(buf[:])
	h.Write([]byte(rule))
	binary.LittleEndian.PutUint64(buf[:], uint64(actionIdx))
	h.Write(buf[:])
	binary.LittleEndian.PutUint64(buf[:], uint64(int64(c.Q)))
	h.Write(buf[:])
	binary.LittleEndian.PutUint64(buf[:], uint64(int64(c.R)))
	h.Write(buf[:])
	return rand.New(rand.NewSource(int64(h.Sum64())))
}
