package pose

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/strideworks/streampose/internal/monitoring"
)

// Classifier wraps a trained model's prediction function behind a uniform
// call contract. Implementations must be safe for concurrent invocation by
// multiple sessions and keep no per-call mutable state.
type Classifier interface {
	Predict(fv FeatureVector) (string, error)
}

// Actuator sends a command to an external actuator and blocks until it
// acknowledges, fails, or the bounded timeout expires. Implementations are
// shared across sessions and must be safe for concurrent invocation.
type Actuator interface {
	Send(ctx context.Context, command string) (string, error)
}

// SessionState is the lifecycle state of a session's pipeline.
type SessionState string

const (
	// StateUninitialized means no classifier is bound; observations yield
	// ErrNoModel and are never buffered.
	StateUninitialized SessionState = "uninitialized"
	// StateReady means the pipeline is fully bound but has seen no frames.
	StateReady SessionState = "ready"
	// StateAccumulating means the window is not yet full.
	StateAccumulating SessionState = "accumulating"
	// StateClassifying means the window filled and the transform, predict
	// and optional actuation steps are running.
	StateClassifying SessionState = "classifying"
)

// SessionConfig carries the configuration consumed once at session setup.
type SessionConfig struct {
	// FrameWindow is the window capacity; must be positive.
	FrameWindow int

	// Source tags frames produced by this session, e.g. "web" or
	// "video-file". Defaults to "web".
	Source string

	// Transformer flattens full windows into feature vectors. Required.
	Transformer SequenceTransformer

	// Columns is the target model's input column schema.
	Columns []string

	// Classifier may be nil at setup; the session then starts
	// uninitialized and rejects observations until Bind is called.
	Classifier Classifier

	// IncludeGeometry enables per-frame angle/distance enrichment during
	// sequence assembly.
	IncludeGeometry bool

	// Geometry overrides the geometry derivation; nil uses DeriveGeometry.
	Geometry GeometryFunc

	// Actuator, when non-nil, receives ActuationCommand after every
	// successful classification.
	Actuator Actuator

	// ActuationCommand is the command sent to the actuator. Defaults to
	// "a".
	ActuationCommand string
}

// Result is the outward-facing product of one full-window classification.
type Result struct {
	Classification string  `json:"classification"`
	Timestamp      string  `json:"timestamp"`
	ProcessingTime float64 `json:"processing_time_seconds"`
	FrameRate      float64 `json:"frame_rate_capacity_hz"`

	// Actuation carries the actuator's acknowledgment when one is bound
	// and the send succeeded.
	Actuation string `json:"actuation,omitempty"`

	// ActuationErr is set when actuation failed or timed out. The
	// classification itself is still valid.
	ActuationErr error `json:"-"`
}

// Session owns one frame window and drives the full pipeline for one logical
// observation stream. It is driven by a single worker; methods are not safe
// for concurrent use. The injected Classifier and Actuator are shared across
// sessions and must be concurrency safe themselves.
type Session struct {
	ID string

	cfg       SessionConfig
	window    *FrameWindow
	assembler *Assembler
	state     SessionState

	frameCount int
	current    *Result
}

// NewSession creates a session. The classifier may be bound later with Bind;
// until then every observation yields ErrNoModel.
func NewSession(cfg SessionConfig) (*Session, error) {
	if cfg.Transformer == nil {
		return nil, fmt.Errorf("session requires a transformer")
	}
	if cfg.Source == "" {
		cfg.Source = "web"
	}
	if cfg.ActuationCommand == "" {
		cfg.ActuationCommand = "a"
	}

	window, err := NewFrameWindow(cfg.FrameWindow)
	if err != nil {
		return nil, err
	}

	s := &Session{
		ID:        uuid.NewString(),
		cfg:       cfg,
		window:    window,
		assembler: NewAssembler(cfg.Geometry),
		state:     StateUninitialized,
	}
	if cfg.Classifier != nil {
		s.state = StateReady
	}
	return s, nil
}

// Bind attaches a classifier and its input column schema to an uninitialized
// session, moving it to ready.
func (s *Session) Bind(c Classifier, columns []string) {
	s.cfg.Classifier = c
	s.cfg.Columns = columns
	if s.state == StateUninitialized {
		s.state = StateReady
	}
}

// State returns the session's current pipeline state.
func (s *Session) State() SessionState { return s.state }

// Current returns the most recent classification result, or nil.
func (s *Session) Current() *Result { return s.current }

// WindowSize returns the number of frames currently buffered.
func (s *Session) WindowSize() int { return s.window.Size() }

// ProcessObservation runs one inbound observation through the pipeline.
//
// It returns (nil, nil) when the observation was dropped (no landmarks) or
// buffered without filling the window; both are normal backpressure, not
// errors. It returns ErrNoModel when no classifier is bound. All other errors
// are per-window failures (schema mismatch, classification failure); the
// session stays alive and keeps accumulating afterwards.
func (s *Session) ProcessObservation(ctx context.Context, obs *Observation) (*Result, error) {
	if s.state == StateUninitialized {
		return nil, ErrNoModel
	}

	landmarks := obs.FirstBody()
	if len(landmarks) == 0 {
		// Dropped input: expected steady-state condition, no signal.
		return nil, nil
	}

	frame := &Frame{
		Source:      s.cfg.Source,
		FrameNumber: s.nextFrameNumber(),
		Joints:      NormalizeLandmarks(landmarks),
	}

	state := s.window.Push(frame)
	if !state.Full {
		s.state = StateAccumulating
		return nil, nil
	}

	s.state = StateClassifying
	defer func() { s.state = StateAccumulating }()

	return s.classify(ctx, state.Frames)
}

func (s *Session) classify(ctx context.Context, frames []*Frame) (*Result, error) {
	start := time.Now()

	seq, err := s.assembler.Assemble(frames, s.cfg.Source, s.cfg.IncludeGeometry)
	if err != nil {
		return nil, fmt.Errorf("assemble window: %w", err)
	}

	vector, _, err := s.cfg.Transformer.Transform(seq, s.cfg.Columns)
	if err != nil {
		return nil, err
	}

	label, err := s.cfg.Classifier.Predict(vector)
	if err != nil {
		return nil, &ClassificationError{Err: err}
	}
	if label == "" {
		return nil, &ClassificationError{Err: errors.New("classifier returned an empty label")}
	}

	elapsed := time.Since(start).Seconds()
	result := &Result{
		Classification: label,
		Timestamp:      strconv.FormatInt(time.Now().UnixNano(), 10),
		ProcessingTime: elapsed,
	}
	if elapsed > 0 {
		result.FrameRate = 1.0 / elapsed
	}

	// Actuation runs only after a successful classification. A failure here
	// is reported alongside the result, never instead of it.
	if s.cfg.Actuator != nil {
		ack, err := s.cfg.Actuator.Send(ctx, s.cfg.ActuationCommand)
		if err != nil {
			result.ActuationErr = &ActuationError{Err: err}
			monitoring.Logf("session %s: actuation failed for %s: %v", s.ID, seq.Name, err)
		} else {
			result.Actuation = ack
		}
	}

	s.current = result
	return result, nil
}

// nextFrameNumber numbers frames for file-sourced sessions; live web streams
// carry no frame numbers.
func (s *Session) nextFrameNumber() int {
	if s.cfg.Source == "web" {
		return -1
	}
	n := s.frameCount
	s.frameCount++
	return n
}
