package pose

import (
	"fmt"
	"time"
)

// Sequence is an ordered, immutable snapshot of a full frame window taken at
// the moment the window filled. It is consumed immediately by the transformer
// and not retained.
type Sequence struct {
	Name   string
	Source string

	// Frames holds copies of the window contents in arrival order, each
	// tagged with the sequence name.
	Frames []Frame

	// Geometry holds per-frame derived angles and distances, index-aligned
	// with Frames. Nil unless geometry enrichment was requested.
	Geometry []*FrameGeometry

	// IncludesGeometry reports whether Geometry was computed.
	IncludesGeometry bool
}

// Assembler turns a full frame window into a Sequence, optionally enriching
// every frame with derived geometry. The geometry derivation is delegated to
// the configured GeometryFunc; if any single frame's derivation fails the
// whole sequence fails, never a partial one.
type Assembler struct {
	geometry GeometryFunc
}

// NewAssembler creates an assembler. A nil geometry function falls back to
// DeriveGeometry.
func NewAssembler(geometry GeometryFunc) *Assembler {
	if geometry == nil {
		geometry = DeriveGeometry
	}
	return &Assembler{geometry: geometry}
}

// Assemble snapshots the given frames into a named Sequence, preserving
// arrival order exactly. The frames themselves are copied so later window
// evictions cannot mutate the sequence.
func (a *Assembler) Assemble(frames []*Frame, source string, includeGeometry bool) (*Sequence, error) {
	if len(frames) == 0 {
		return nil, fmt.Errorf("cannot assemble an empty sequence")
	}

	seq := &Sequence{
		Name:             fmt.Sprintf("sequence-%d", time.Now().UnixNano()),
		Source:           source,
		Frames:           make([]Frame, len(frames)),
		IncludesGeometry: includeGeometry,
	}

	for i, f := range frames {
		seq.Frames[i] = *f
		seq.Frames[i].SequenceID = seq.Name
	}

	if includeGeometry {
		seq.Geometry = make([]*FrameGeometry, len(frames))
		for i := range seq.Frames {
			geom, err := a.geometry(&seq.Frames[i])
			if err != nil {
				return nil, fmt.Errorf("derive geometry for frame %d of %s: %w", i, seq.Name, err)
			}
			seq.Geometry[i] = geom
		}
	}

	return seq, nil
}
