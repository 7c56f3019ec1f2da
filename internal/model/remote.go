package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/strideworks/streampose/internal/pose"
)

const defaultRemoteTimeout = 2 * time.Second

// RemoteModel forwards feature vectors to an external model server over
// HTTP. The server owns the actual prediction; this adapter only enforces
// the call contract and a bounded timeout.
type RemoteModel struct {
	name     string
	columns  []string
	endpoint string
	client   *http.Client
}

type remoteRequest struct {
	Features pose.FeatureVector `json:"features"`
}

type remoteResponse struct {
	Label string `json:"label"`
	Error string `json:"error,omitempty"`
}

func newRemoteModel(f modelFile) (*RemoteModel, error) {
	if f.Endpoint == "" {
		return nil, fmt.Errorf("remote model %s declares no endpoint", f.Name)
	}

	timeout := defaultRemoteTimeout
	if f.TimeoutMS > 0 {
		timeout = time.Duration(f.TimeoutMS) * time.Millisecond
	}

	return &RemoteModel{
		name:     f.Name,
		columns:  f.Columns,
		endpoint: f.Endpoint,
		client:   &http.Client{Timeout: timeout},
	}, nil
}

func (m *RemoteModel) Name() string      { return m.name }
func (m *RemoteModel) Columns() []string { return m.columns }

// Predict posts the feature vector to the model server and returns its
// label. Any transport or server error becomes a classification failure for
// the calling window.
func (m *RemoteModel) Predict(fv pose.FeatureVector) (string, error) {
	body, err := json.Marshal(remoteRequest{Features: fv})
	if err != nil {
		return "", fmt.Errorf("encode predict request: %w", err)
	}

	resp, err := m.client.Post(m.endpoint, "application/json", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("model server %s: %w", m.endpoint, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("model server %s returned status %d", m.endpoint, resp.StatusCode)
	}

	var out remoteResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("decode predict response: %w", err)
	}
	if out.Error != "" {
		return "", fmt.Errorf("model server %s: %s", m.endpoint, out.Error)
	}
	if out.Label == "" {
		return "", fmt.Errorf("model server %s returned no label", m.endpoint)
	}
	return out.Label, nil
}
