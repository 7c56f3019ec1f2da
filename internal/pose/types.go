// Package pose implements the real-time windowed classification pipeline:
// landmark normalization, the per-session sliding frame window, sequence
// assembly with optional geometry enrichment, feature-vector transformation,
// and the session orchestrator that drives a classifier and an optional
// actuator on every full window.
package pose

import (
	"encoding/json"
	"math"
)

// JointNames lists the tracked body landmarks in upstream topology order.
// Inbound landmark arrays are indexed positionally against this list.
var JointNames = []string{
	"nose",
	"left_eye_inner", "left_eye", "left_eye_outer",
	"right_eye_inner", "right_eye", "right_eye_outer",
	"left_ear", "right_ear",
	"mouth_left", "mouth_right",
	"left_shoulder", "right_shoulder",
	"left_elbow", "right_elbow",
	"left_wrist", "right_wrist",
	"left_pinky", "right_pinky",
	"left_index", "right_index",
	"left_thumb", "right_thumb",
	"left_hip", "right_hip",
	"left_knee", "right_knee",
	"left_ankle", "right_ankle",
	"left_heel", "right_heel",
	"left_foot_index", "right_foot_index",
}

// Indexes of the hip joints in JointNames, used for reference-width
// normalization.
const (
	leftHipIndex  = 23
	rightHipIndex = 24
)

// Landmark is one raw keypoint coordinate as delivered by the upstream
// pose-estimation collaborator.
type Landmark struct {
	X          float64 `json:"x"`
	Y          float64 `json:"y"`
	Z          float64 `json:"z"`
	Visibility float64 `json:"visibility,omitempty"`
}

// JointPosition is one canonical tracked body landmark. Once produced it is
// never mutated.
type JointPosition struct {
	Joint string  `json:"joint"`
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
	Z     float64 `json:"z"`

	// Coordinates normalized against the reference body width (hip-to-hip
	// distance). Zero and Normalized=false when the reference width could
	// not be measured in this observation.
	XNorm      float64 `json:"x_norm"`
	YNorm      float64 `json:"y_norm"`
	ZNorm      float64 `json:"z_norm"`
	Normalized bool    `json:"normalized"`
}

// ImageDimensions records the pixel size of the source image, when known.
type ImageDimensions struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Frame is one time-step of a session's observation stream.
type Frame struct {
	// SequenceID is empty until the frame is snapshotted into a Sequence.
	SequenceID string `json:"sequence_id,omitempty"`

	// Source tags the origin of the stream, e.g. "web" or "video-file".
	Source string `json:"sequence_source"`

	// FrameNumber is -1 when the origin does not number frames (live web
	// streams).
	FrameNumber int `json:"frame_number"`

	Dims *ImageDimensions `json:"image_dimensions,omitempty"`

	// Joints is empty when no body was detected. Such frames carry no
	// signal and are never enqueued into a FrameWindow.
	Joints []JointPosition `json:"joint_positions"`
}

// Observation is the inbound payload from the transport collaborator. The
// landmarks field holds one landmark list per detected body and may be absent
// or empty.
type Observation struct {
	Landmarks [][]Landmark `json:"landmarks"`
}

// UnmarshalPayload decodes a raw observation payload as delivered by the
// transport collaborator.
func (o *Observation) UnmarshalPayload(data []byte) error {
	return json.Unmarshal(data, o)
}

// FirstBody returns the landmark list for the first detected body, or nil if
// no body was detected.
func (o *Observation) FirstBody() []Landmark {
	if o == nil || len(o.Landmarks) == 0 {
		return nil
	}
	return o.Landmarks[0]
}

// ReferenceWidth returns the hip-to-hip distance for a landmark list, or 0
// when the hips are not present.
func ReferenceWidth(landmarks []Landmark) float64 {
	if len(landmarks) <= rightHipIndex {
		return 0
	}
	l, r := landmarks[leftHipIndex], landmarks[rightHipIndex]
	dx, dy, dz := l.X-r.X, l.Y-r.Y, l.Z-r.Z
	return math.Sqrt(dx*dx + dy*dy + dz*dz)
}

// NormalizeLandmarks converts a raw landmark list into canonical joint
// positions, normalizing coordinates against the reference body width when it
// is measurable. Landmarks beyond the known topology are dropped.
func NormalizeLandmarks(landmarks []Landmark) []JointPosition {
	if len(landmarks) == 0 {
		return nil
	}

	width := ReferenceWidth(landmarks)

	n := len(landmarks)
	if n > len(JointNames) {
		n = len(JointNames)
	}

	joints := make([]JointPosition, 0, n)
	for i := 0; i < n; i++ {
		lm := landmarks[i]
		jp := JointPosition{
			Joint: JointNames[i],
			X:     lm.X,
			Y:     lm.Y,
			Z:     lm.Z,
		}
		if width > 0 {
			jp.XNorm = lm.X / width
			jp.YNorm = lm.Y / width
			jp.ZNorm = lm.Z / width
			jp.Normalized = true
		}
		joints = append(joints, jp)
	}
	return joints
}

// joint returns the position of the named joint in a frame, if present.
func (f *Frame) joint(name string) (JointPosition, bool) {
	for _, jp := range f.Joints {
		if jp.Joint == name {
			return jp, true
		}
	}
	return JointPosition{}, false
}
