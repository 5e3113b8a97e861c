// Package run records what a cleaning run read and wrote.
package run

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/KaramelBytes/tidyframe-cli/internal/utils"
)

// ManifestFile is the manifest name inside the output directory.
const ManifestFile = "run.json"

// Shape is a table size.
type Shape struct {
	Rows int `json:"rows"`
	Cols int `json:"cols"`
}

// Manifest describes one run.
type Manifest struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"created_at"`
	Input     string    `json:"input"`
	Strategy  string    `json:"strategy"`
	Before    Shape     `json:"before"`
	After     Shape     `json:"after"`
	// Artifacts maps an artifact name to the path it was written to.
	Artifacts map[string]string `json:"artifacts"`
	Warnings  []string          `json:"warnings,omitempty"`
}

// New returns a manifest with a fresh ID and timestamp.
func New(input, strategy string) *Manifest {
	return &Manifest{
		ID:        uuid.NewString(),
		CreatedAt: time.Now().UTC(),
		Input:     input,
		Strategy:  strategy,
		Artifacts: map[string]string{},
	}
}

// AddArtifact records a written file; empty paths are ignored.
func (m *Manifest) AddArtifact(name, path string) {
	if path == "" {
		return
	}
	m.Artifacts[name] = path
}

// Warn appends a non-fatal problem.
func (m *Manifest) Warn(msg string) {
	m.Warnings = append(m.Warnings, msg)
}

// Save writes the manifest as dir/run.json and returns its path.
func (m *Manifest) Save(dir string) (string, error) {
	if err := utils.EnsureDir(dir); err != nil {
		return "", fmt.Errorf("ensure dir: %w", err)
	}
	b, err := utils.PrettyJSON(m)
	if err != nil {
		return "", err
	}
	p := filepath.Join(dir, ManifestFile)
	if err := utils.SafeWriteFile(p, b); err != nil {
		return "", err
	}
	return p, nil
}

// Load reads dir/run.json.
func Load(dir string) (*Manifest, error) {
	b, err := os.ReadFile(filepath.Join(dir, ManifestFile))
	if err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}
	var m Manifest
	if err := json.Unmarshal(b, &m); err != nil {
		return nil, fmt.Errorf("parse manifest: %w", err)
	}
	if _, err := uuid.Parse(m.ID); err != nil {
		return nil, fmt.Errorf("manifest id: %w", err)
	}
	return &m, nil
}
