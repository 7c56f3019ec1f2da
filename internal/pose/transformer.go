package pose

import (
	"fmt"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// FeatureVector is a flat mapping from column name to numeric value. Its key
// set is constrained to exactly the column schema of the target model.
type FeatureVector map[string]float64

// TransformMeta describes a completed transformation.
type TransformMeta struct {
	Sequence string
	Source   string
	Frames   int
	Columns  int
}

// SequenceTransformer flattens a sequence into a feature vector matching a
// target model's input column schema.
type SequenceTransformer interface {
	Transform(seq *Sequence, columns []string) (FeatureVector, TransformMeta, error)
}

// TransformerConfig selects which per-frame features the transformer exposes.
// It is chosen once per deployment and must not vary within a session.
type TransformerConfig struct {
	IncludeJoints     bool
	IncludeNormalized bool
	IncludeAngles     bool
	IncludeDistances  bool
}

// DefaultTransformerConfig matches the feature set used for training: raw
// joint coordinates plus angle features with window aggregates.
func DefaultTransformerConfig() TransformerConfig {
	return TransformerConfig{
		IncludeJoints: true,
		IncludeAngles: true,
	}
}

// FlatColumnTransformer flattens a temporal window of per-frame scalar
// features into one row. Column naming is positional
// (frame_000_joint_nose_x, frame_003_angle_left_elbow, ...) plus window
// aggregates (mean_angle_left_elbow, std_angle_left_elbow) so a fixed window
// size always yields a fixed schema.
type FlatColumnTransformer struct {
	cfg TransformerConfig
}

// NewFlatColumnTransformer creates a transformer with the given feature
// selection.
func NewFlatColumnTransformer(cfg TransformerConfig) *FlatColumnTransformer {
	return &FlatColumnTransformer{cfg: cfg}
}

// Transform produces a feature vector whose keys are exactly the requested
// columns. Any requested column the sequence cannot derive is a hard failure:
// schema drift between training and inference must surface, never zero-fill.
// The output is deterministic for identical input.
func (t *FlatColumnTransformer) Transform(seq *Sequence, columns []string) (FeatureVector, TransformMeta, error) {
	meta := TransformMeta{
		Sequence: seq.Name,
		Source:   seq.Source,
		Frames:   len(seq.Frames),
		Columns:  len(columns),
	}

	available := t.derive(seq)

	vector := make(FeatureVector, len(columns))
	var missing []string
	for _, col := range columns {
		v, ok := available[col]
		if !ok {
			missing = append(missing, col)
			continue
		}
		vector[col] = v
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return nil, meta, &SchemaError{Sequence: seq.Name, Missing: missing}
	}

	return vector, meta, nil
}

// derive builds every column this configuration can produce from a sequence.
func (t *FlatColumnTransformer) derive(seq *Sequence) map[string]float64 {
	out := make(map[string]float64)

	angleSeries := make(map[string][]float64)
	distanceSeries := make(map[string][]float64)

	for i := range seq.Frames {
		f := &seq.Frames[i]

		if t.cfg.IncludeJoints {
			for _, jp := range f.Joints {
				out[frameColumn(i, "joint", jp.Joint+"_x")] = jp.X
				out[frameColumn(i, "joint", jp.Joint+"_y")] = jp.Y
				out[frameColumn(i, "joint", jp.Joint+"_z")] = jp.Z
			}
		}
		if t.cfg.IncludeNormalized {
			for _, jp := range f.Joints {
				if !jp.Normalized {
					continue
				}
				out[frameColumn(i, "joint", jp.Joint+"_x_norm")] = jp.XNorm
				out[frameColumn(i, "joint", jp.Joint+"_y_norm")] = jp.YNorm
				out[frameColumn(i, "joint", jp.Joint+"_z_norm")] = jp.ZNorm
			}
		}

		if seq.Geometry == nil || seq.Geometry[i] == nil {
			continue
		}
		geom := seq.Geometry[i]

		if t.cfg.IncludeAngles {
			for name, angle := range geom.Angles {
				out[frameColumn(i, "angle", name)] = angle.Degrees
				angleSeries[name] = append(angleSeries[name], angle.Degrees)
			}
		}
		if t.cfg.IncludeDistances {
			for name, dist := range geom.Distances {
				out[frameColumn(i, "distance", name)] = dist.Value
				distanceSeries[name] = append(distanceSeries[name], dist.Value)
			}
		}
	}

	// Window aggregates over the temporal axis. Only series covering the
	// whole window are aggregated so partial geometry can never leak in.
	for name, series := range angleSeries {
		if len(series) != len(seq.Frames) {
			continue
		}
		mean, std := stat.MeanStdDev(series, nil)
		out["mean_angle_"+name] = mean
		out["std_angle_"+name] = safeStd(std, len(series))
	}
	for name, series := range distanceSeries {
		if len(series) != len(seq.Frames) {
			continue
		}
		mean, std := stat.MeanStdDev(series, nil)
		out["mean_distance_"+name] = mean
		out["std_distance_"+name] = safeStd(std, len(series))
	}

	return out
}

// AvailableColumns returns every column the transformer can derive from a
// sequence, sorted. Useful for authoring model schemas against a
// configuration.
func (t *FlatColumnTransformer) AvailableColumns(seq *Sequence) []string {
	derived := t.derive(seq)
	cols := make([]string, 0, len(derived))
	for col := range derived {
		cols = append(cols, col)
	}
	sort.Strings(cols)
	return cols
}

func frameColumn(frame int, kind, name string) string {
	return fmt.Sprintf("frame_%03d_%s_%s", frame, kind, name)
}

// safeStd maps the NaN stat.MeanStdDev produces for single-sample series to
// zero so a capacity-one window still yields a usable schema.
func safeStd(std float64, n int) float64 {
	if n < 2 {
		return 0
	}
	return std
}
