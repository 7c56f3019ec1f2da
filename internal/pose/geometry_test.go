package pose

import (
	"math"
	"strings"
	"testing"
)

func jointsFrom(positions map[string][3]float64) []JointPosition {
	joints := make([]JointPosition, 0, len(positions))
	for name, p := range positions {
		joints = append(joints, JointPosition{Joint: name, X: p[0], Y: p[1], Z: p[2]})
	}
	return joints
}

// fullBodyFrame lays out all joints referenced by the geometry tables with
// distinct positions so no segment is degenerate.
func fullBodyFrame() *Frame {
	positions := make(map[string][3]float64, len(JointNames))
	for i, name := range JointNames {
		fi := float64(i)
		positions[name] = [3]float64{fi * 0.05, fi * fi * 0.01, fi * 0.002}
	}
	return &Frame{Source: "web", Joints: jointsFrom(positions)}
}

func TestAngleDegrees_StraightLine(t *testing.T) {
	a := JointPosition{Joint: "left_shoulder", X: 0, Y: 0}
	vertex := JointPosition{Joint: "left_elbow", X: 1, Y: 0}
	c := JointPosition{Joint: "left_wrist", X: 2, Y: 0}

	deg, err := angleDegrees(a, vertex, c)
	if err != nil {
		t.Fatalf("angleDegrees: %v", err)
	}
	if math.Abs(deg-180) > 1e-9 {
		t.Errorf("straight segments: got %f degrees, want 180", deg)
	}
}

func TestAngleDegrees_RightAngle(t *testing.T) {
	a := JointPosition{Joint: "left_hip", X: 0, Y: 1}
	vertex := JointPosition{Joint: "left_knee", X: 0, Y: 0}
	c := JointPosition{Joint: "left_ankle", X: 1, Y: 0}

	deg, err := angleDegrees(a, vertex, c)
	if err != nil {
		t.Fatalf("angleDegrees: %v", err)
	}
	if math.Abs(deg-90) > 1e-9 {
		t.Errorf("perpendicular segments: got %f degrees, want 90", deg)
	}
}

func TestAngleDegrees_DegenerateSegment(t *testing.T) {
	same := JointPosition{Joint: "left_elbow", X: 1, Y: 1}
	if _, err := angleDegrees(same, same, JointPosition{Joint: "left_wrist", X: 2, Y: 2}); err == nil {
		t.Error("expected error for a zero-length segment")
	}
}

func TestDeriveGeometry_FullBody(t *testing.T) {
	geom, err := DeriveGeometry(fullBodyFrame())
	if err != nil {
		t.Fatalf("DeriveGeometry: %v", err)
	}

	if len(geom.Angles) != len(angleJoints) {
		t.Errorf("expected %d angles, got %d", len(angleJoints), len(geom.Angles))
	}
	if len(geom.Distances) != len(distanceJoints) {
		t.Errorf("expected %d distances, got %d", len(distanceJoints), len(geom.Distances))
	}

	for name, angle := range geom.Angles {
		if angle.Degrees < 0 || angle.Degrees > 180 || math.IsNaN(angle.Degrees) {
			t.Errorf("angle %s out of range: %f", name, angle.Degrees)
		}
	}
	for name, dist := range geom.Distances {
		if dist.Value <= 0 || math.IsNaN(dist.Value) {
			t.Errorf("distance %s not positive: %f", name, dist.Value)
		}
	}
}

func TestDeriveGeometry_MissingJoint(t *testing.T) {
	f := fullBodyFrame()

	// drop left_wrist, referenced by angle and distance derivations
	var joints []JointPosition
	for _, jp := range f.Joints {
		if jp.Joint == "left_wrist" {
			continue
		}
		joints = append(joints, jp)
	}
	f.Joints = joints

	_, err := DeriveGeometry(f)
	if err == nil {
		t.Fatal("expected error for frame missing left_wrist")
	}
	if !strings.Contains(err.Error(), "left_wrist") {
		t.Errorf("error does not name the missing joint: %v", err)
	}
}

func TestDeriveGeometry_NormalizedDistances(t *testing.T) {
	f := fullBodyFrame()
	for i := range f.Joints {
		f.Joints[i].XNorm = f.Joints[i].X * 2
		f.Joints[i].YNorm = f.Joints[i].Y * 2
		f.Joints[i].ZNorm = f.Joints[i].Z * 2
		f.Joints[i].Normalized = true
	}

	geom, err := DeriveGeometry(f)
	if err != nil {
		t.Fatalf("DeriveGeometry: %v", err)
	}
	for name, dist := range geom.Distances {
		if math.Abs(dist.Normalized-dist.Value*2) > 1e-9 {
			t.Errorf("distance %s: normalized %f, want %f", name, dist.Normalized, dist.Value*2)
		}
	}
}
