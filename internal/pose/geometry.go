package pose

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
)

// angleJoints maps a named body angle to the [a, vertex, c] joint triple that
// defines it.
var angleJoints = map[string][3]string{
	"left_elbow":     {"left_shoulder", "left_elbow", "left_wrist"},
	"right_elbow":    {"right_shoulder", "right_elbow", "right_wrist"},
	"left_shoulder":  {"left_elbow", "left_shoulder", "left_hip"},
	"right_shoulder": {"right_elbow", "right_shoulder", "right_hip"},
	"left_hip":       {"left_shoulder", "left_hip", "left_knee"},
	"right_hip":      {"right_shoulder", "right_hip", "right_knee"},
	"left_knee":      {"left_hip", "left_knee", "left_ankle"},
	"right_knee":     {"right_hip", "right_knee", "right_ankle"},
}

// distanceJoints maps a named body distance to its joint pair.
var distanceJoints = map[string][2]string{
	"left_wrist_to_left_hip":      {"left_wrist", "left_hip"},
	"right_wrist_to_right_hip":    {"right_wrist", "right_hip"},
	"left_wrist_to_left_ankle":    {"left_wrist", "left_ankle"},
	"right_wrist_to_right_ankle":  {"right_wrist", "right_ankle"},
	"left_shoulder_to_left_hip":   {"left_shoulder", "left_hip"},
	"right_shoulder_to_right_hip": {"right_shoulder", "right_hip"},
	"nose_to_left_hip":            {"nose", "left_hip"},
	"nose_to_right_hip":           {"nose", "right_hip"},
}

// AngleNames returns the named angles derived during geometry enrichment.
func AngleNames() []string {
	names := make([]string, 0, len(angleJoints))
	for name := range angleJoints {
		names = append(names, name)
	}
	return names
}

// DistanceNames returns the named distances derived during geometry
// enrichment.
func DistanceNames() []string {
	names := make([]string, 0, len(distanceJoints))
	for name := range distanceJoints {
		names = append(names, name)
	}
	return names
}

// Angle is one derived body angle in degrees.
type Angle struct {
	Name    string  `json:"name"`
	Degrees float64 `json:"degrees"`
}

// Distance is one derived joint-to-joint distance. Normalized divides the raw
// distance by the frame's reference body width when available.
type Distance struct {
	Name       string  `json:"name"`
	Value      float64 `json:"value"`
	Normalized float64 `json:"normalized"`
}

// FrameGeometry holds the derived angle and distance features for one frame.
type FrameGeometry struct {
	Angles    map[string]Angle    `json:"angles"`
	Distances map[string]Distance `json:"distances"`
}

// GeometryFunc derives per-frame geometry. The assembler invokes it once per
// frame when geometry enrichment is requested.
type GeometryFunc func(*Frame) (*FrameGeometry, error)

// DeriveGeometry computes the named body angles and distances for a frame.
// It fails if any referenced joint is missing from the frame, so a sequence
// is never enriched partially.
func DeriveGeometry(f *Frame) (*FrameGeometry, error) {
	geom := &FrameGeometry{
		Angles:    make(map[string]Angle, len(angleJoints)),
		Distances: make(map[string]Distance, len(distanceJoints)),
	}

	for name, triple := range angleJoints {
		a, ok := f.joint(triple[0])
		if !ok {
			return nil, fmt.Errorf("angle %s: joint %s missing", name, triple[0])
		}
		vertex, ok := f.joint(triple[1])
		if !ok {
			return nil, fmt.Errorf("angle %s: joint %s missing", name, triple[1])
		}
		c, ok := f.joint(triple[2])
		if !ok {
			return nil, fmt.Errorf("angle %s: joint %s missing", name, triple[2])
		}
		deg, err := angleDegrees(a, vertex, c)
		if err != nil {
			return nil, fmt.Errorf("angle %s: %w", name, err)
		}
		geom.Angles[name] = Angle{Name: name, Degrees: deg}
	}

	for name, pair := range distanceJoints {
		a, ok := f.joint(pair[0])
		if !ok {
			return nil, fmt.Errorf("distance %s: joint %s missing", name, pair[0])
		}
		b, ok := f.joint(pair[1])
		if !ok {
			return nil, fmt.Errorf("distance %s: joint %s missing", name, pair[1])
		}
		d := Distance{Name: name, Value: jointDistance(a, b)}
		if a.Normalized && b.Normalized {
			d.Normalized = normalizedDistance(a, b)
		}
		geom.Distances[name] = d
	}

	return geom, nil
}

// angleDegrees computes the angle at the vertex joint formed by the segments
// vertex->a and vertex->c.
func angleDegrees(a, vertex, c JointPosition) (float64, error) {
	u := []float64{a.X - vertex.X, a.Y - vertex.Y, a.Z - vertex.Z}
	v := []float64{c.X - vertex.X, c.Y - vertex.Y, c.Z - vertex.Z}

	nu := floats.Norm(u, 2)
	nv := floats.Norm(v, 2)
	if nu == 0 || nv == 0 {
		return 0, fmt.Errorf("degenerate segment at vertex %s", vertex.Joint)
	}

	cos := floats.Dot(u, v) / (nu * nv)
	// clamp against floating point drift before acos
	if cos > 1 {
		cos = 1
	} else if cos < -1 {
		cos = -1
	}
	return math.Acos(cos) * 180 / math.Pi, nil
}

func jointDistance(a, b JointPosition) float64 {
	d := []float64{a.X - b.X, a.Y - b.Y, a.Z - b.Z}
	return floats.Norm(d, 2)
}

func normalizedDistance(a, b JointPosition) float64 {
	d := []float64{a.XNorm - b.XNorm, a.YNorm - b.YNorm, a.ZNorm - b.ZNorm}
	return floats.Norm(d, 2)
}
