package pose

import (
	"errors"
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func assembleFullBody(t *testing.T, frames int, geometry bool) *Sequence {
	t.Helper()
	a := NewAssembler(nil)
	list := make([]*Frame, frames)
	for i := range list {
		f := fullBodyFrame()
		f.FrameNumber = i
		list[i] = f
	}
	seq, err := a.Assemble(list, "web", geometry)
	if err != nil {
		t.Fatalf("Assemble: %v", err)
	}
	return seq
}

func TestTransform_Deterministic(t *testing.T) {
	tr := NewFlatColumnTransformer(TransformerConfig{IncludeJoints: true, IncludeAngles: true})
	seq := assembleFullBody(t, 3, true)
	columns := tr.AvailableColumns(seq)

	first, meta, err := tr.Transform(seq, columns)
	if err != nil {
		t.Fatalf("Transform: %v", err)
	}
	if meta.Frames != 3 || meta.Columns != len(columns) {
		t.Errorf("unexpected meta %+v", meta)
	}

	// repeated calls on identical input yield identical vectors
	for i := 0; i < 5; i++ {
		again, _, err := tr.Transform(seq, columns)
		if err != nil {
			t.Fatalf("Transform repeat %d: %v", i, err)
		}
		if diff := cmp.Diff(first, again); diff != "" {
			t.Fatalf("transform not deterministic (-first +again):\n%s", diff)
		}
	}
}

func TestTransform_ExactColumnSet(t *testing.T) {
	tr := NewFlatColumnTransformer(TransformerConfig{IncludeJoints: true})
	seq := assembleFullBody(t, 2, false)

	columns := []string{"frame_000_joint_nose_x", "frame_001_joint_nose_y"}
	fv, _, err := tr.Transform(seq, columns)
	if err != nil {
		t.Fatalf("Transform: %v", err)
	}
	if len(fv) != len(columns) {
		t.Fatalf("vector has %d keys, want %d", len(fv), len(columns))
	}
	for _, col := range columns {
		if _, ok := fv[col]; !ok {
			t.Errorf("missing requested column %s", col)
		}
	}
}

func TestTransform_MissingColumnIsHardFailure(t *testing.T) {
	tr := NewFlatColumnTransformer(TransformerConfig{IncludeJoints: true})
	seq := assembleFullBody(t, 2, false)

	// angle columns cannot be derived without geometry; zero-fill would mask
	// schema drift
	columns := []string{"frame_000_joint_nose_x", "frame_000_angle_left_elbow", "frame_001_angle_left_knee"}
	_, _, err := tr.Transform(seq, columns)

	var schemaErr *SchemaError
	if !errors.As(err, &schemaErr) {
		t.Fatalf("expected SchemaError, got %v", err)
	}
	want := []string{"frame_000_angle_left_elbow", "frame_001_angle_left_knee"}
	if diff := cmp.Diff(want, schemaErr.Missing); diff != "" {
		t.Errorf("missing columns (-want +got):\n%s", diff)
	}
}

func TestTransform_WindowAggregates(t *testing.T) {
	tr := NewFlatColumnTransformer(TransformerConfig{IncludeAngles: true})
	seq := assembleFullBody(t, 4, true)

	name := AngleNames()[0]
	fv, _, err := tr.Transform(seq, []string{"mean_angle_" + name, "std_angle_" + name})
	if err != nil {
		t.Fatalf("Transform: %v", err)
	}

	// identical frames across the window: mean equals the per-frame value,
	// spread is zero
	perFrame, _, err := tr.Transform(seq, []string{frameColumn(0, "angle", name)})
	if err != nil {
		t.Fatalf("Transform: %v", err)
	}
	if math.Abs(fv["mean_angle_"+name]-perFrame[frameColumn(0, "angle", name)]) > 1e-9 {
		t.Errorf("mean %f differs from constant per-frame value %f",
			fv["mean_angle_"+name], perFrame[frameColumn(0, "angle", name)])
	}
	if fv["std_angle_"+name] != 0 {
		t.Errorf("std of a constant series: got %f, want 0", fv["std_angle_"+name])
	}
}

func TestTransform_CapacityOneWindowHasZeroStd(t *testing.T) {
	tr := NewFlatColumnTransformer(TransformerConfig{IncludeAngles: true})
	seq := assembleFullBody(t, 1, true)

	name := AngleNames()[0]
	fv, _, err := tr.Transform(seq, []string{"std_angle_" + name})
	if err != nil {
		t.Fatalf("Transform: %v", err)
	}
	if v := fv["std_angle_"+name]; v != 0 || math.IsNaN(v) {
		t.Errorf("single-sample std: got %f, want 0", v)
	}
}

func TestTransform_NormalizedColumnsRequireNormalization(t *testing.T) {
	tr := NewFlatColumnTransformer(TransformerConfig{IncludeNormalized: true})

	// frame without normalized coordinates
	a := NewAssembler(nil)
	f := fullBodyFrame()
	seq, err := a.Assemble([]*Frame{f}, "web", false)
	if err != nil {
		t.Fatalf("Assemble: %v", err)
	}

	_, _, err = tr.Transform(seq, []string{"frame_000_joint_nose_x_norm"})
	var schemaErr *SchemaError
	if !errors.As(err, &schemaErr) {
		t.Fatalf("expected SchemaError for unnormalized frame, got %v", err)
	}
}

func TestAvailableColumns_SortedAndComplete(t *testing.T) {
	tr := NewFlatColumnTransformer(TransformerConfig{IncludeJoints: true, IncludeAngles: true, IncludeDistances: true})
	seq := assembleFullBody(t, 2, true)

	cols := tr.AvailableColumns(seq)
	if len(cols) == 0 {
		t.Fatal("no available columns")
	}
	for i := 1; i < len(cols); i++ {
		if cols[i-1] >= cols[i] {
			t.Fatalf("columns not sorted at %d: %s >= %s", i, cols[i-1], cols[i])
		}
	}

	// everything advertised must transform cleanly
	if _, _, err := tr.Transform(seq, cols); err != nil {
		t.Fatalf("advertised columns failed to transform: %v", err)
	}
}
