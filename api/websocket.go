package api

import (
	"errors"
	"net/http"

	"github.com/gorilla/websocket"

	"github.com/strideworks/streampose/internal/monitoring"
	"github.com/strideworks/streampose/internal/pose"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	CheckOrigin: func(r *http.Request) bool {
		// Keypoint payloads are pushed by browser clients on other origins.
		return true
	},
}

// frameResult is the outward classification event for one full window.
type frameResult struct {
	Classification string  `json:"classification"`
	Timestamp      string  `json:"timestamp"`
	ProcessingTime float64 `json:"processing_time_seconds"`
	FrameRate      float64 `json:"frame_rate_capacity_hz"`
	Actuation      string  `json:"actuation,omitempty"`
	ActuationError string  `json:"actuation_error,omitempty"`
}

// errorEvent is the outward structured error for one observation.
type errorEvent struct {
	Error string `json:"error"`
	Kind  string `json:"kind,omitempty"`
}

// streamHandler owns one pipeline session per websocket connection. The
// connection's read loop is the session's single worker, so observations are
// processed strictly in arrival order; separate connections run fully in
// parallel, sharing only the concurrency-safe model and actuator.
func (s *Server) streamHandler(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		monitoring.Logf("websocket upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	var (
		sess    *pose.Session
		sessGen = -1
	)

	for {
		_, payload, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				monitoring.Logf("websocket read failed: %v", err)
			}
			return
		}

		var obs pose.Observation
		if err := obs.UnmarshalPayload(payload); err != nil {
			s.writeEvent(conn, errorEvent{Error: "malformed observation", Kind: "bad_payload"})
			continue
		}

		m, gen := s.currentModel()
		if m == nil {
			// No classifier bound yet: report, never buffer.
			s.writeEvent(conn, errorEvent{Error: "No model set"})
			continue
		}

		// Rebind when the model was set or replaced since the last
		// observation. The session (and its window) restarts from scratch;
		// frames buffered against the old schema are meaningless.
		if sess == nil || sessGen != gen {
			sess, err = s.newSession(m)
			if err != nil {
				s.writeEvent(conn, errorEvent{Error: err.Error(), Kind: "session_setup"})
				continue
			}
			sessGen = gen
			monitoring.Logf("session %s: bound model %s (window %d)", sess.ID, m.Name(), s.cfg.GetFrameWindow())
		}

		result, err := sess.ProcessObservation(r.Context(), &obs)
		switch {
		case err == nil && result == nil:
			// Backpressure: dropped input or window not yet full.
			// Nothing is emitted.

		case err != nil:
			s.writeEvent(conn, classifyError(err))

		default:
			s.emitResult(conn, sess, result)
		}
	}
}

// classifyError maps pipeline errors onto the outward taxonomy.
func classifyError(err error) errorEvent {
	var schemaErr *pose.SchemaError
	var classErr *pose.ClassificationError

	switch {
	case errors.Is(err, pose.ErrNoModel):
		return errorEvent{Error: "No model set"}
	case errors.As(err, &schemaErr):
		return errorEvent{Error: schemaErr.Error(), Kind: "schema_mismatch"}
	case errors.As(err, &classErr):
		return errorEvent{Error: classErr.Error(), Kind: "classification_failure"}
	default:
		return errorEvent{Error: err.Error(), Kind: "pipeline_failure"}
	}
}

func (s *Server) emitResult(conn *websocket.Conn, sess *pose.Session, result *pose.Result) {
	out := frameResult{
		Classification: result.Classification,
		Timestamp:      result.Timestamp,
		ProcessingTime: result.ProcessingTime,
		FrameRate:      result.FrameRate,
		Actuation:      result.Actuation,
	}
	if result.ActuationErr != nil {
		out.ActuationError = result.ActuationErr.Error()
	}

	if s.store != nil {
		if err := s.store.RecordClassification(sess.ID, "web", result.Classification, result.ProcessingTime, result.Actuation); err != nil {
			monitoring.Logf("session %s: failed to record classification: %v", sess.ID, err)
		}
	}

	s.writeEvent(conn, out)
}

func (s *Server) writeEvent(conn *websocket.Conn, v interface{}) {
	if err := conn.WriteJSON(v); err != nil {
		monitoring.Logf("websocket write failed: %v", err)
	}
}
