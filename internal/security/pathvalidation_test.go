package security

import (
	"path/filepath"
	"testing"
)

func TestResolveWithinDirectory(t *testing.T) {
	dir := filepath.Join("data", "trained_models")

	tests := []struct {
		name    string
		input   string
		want    string
		wantErr bool
	}{
		{"plain filename", "model.json", filepath.Join(dir, "model.json"), false},
		{"nested filename", filepath.Join("v2", "model.json"), filepath.Join(dir, "v2", "model.json"), false},
		{"dot segments that stay inside", filepath.Join("v2", "..", "model.json"), filepath.Join(dir, "model.json"), false},
		{"empty", "", "", true},
		{"absolute", string(filepath.Separator) + filepath.Join("etc", "passwd"), "", true},
		{"parent escape", filepath.Join("..", "model.json"), "", true},
		{"deep escape", filepath.Join("v2", "..", "..", "..", "secret.json"), "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ResolveWithinDirectory(tt.input, dir)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("ResolveWithinDirectory(%q, %q) = %q, want error", tt.input, dir, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("ResolveWithinDirectory(%q, %q): %v", tt.input, dir, err)
			}
			if got != tt.want {
				t.Errorf("ResolveWithinDirectory(%q, %q) = %q, want %q", tt.input, dir, got, tt.want)
			}
		})
	}
}
