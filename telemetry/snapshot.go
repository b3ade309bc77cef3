package telemetry

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// SnapshotVersion is incremented when the format changes.
const SnapshotVersion = 1

// Snapshot is a point-in-time dump of every craft's kinematics and mind.
type Snapshot struct {
	Version  int     `json:"version"`
	Seed     int64   `json:"seed"`
	Scenario string  `json:"scenario,omitempty"`
	Label    string  `json:"label,omitempty"`
	Tick     int32   `json:"tick"`
	Time     float64 `json:"time"`

	Crafts []CraftState `json:"crafts"`
}

// CraftState holds one craft's pose together with its current directive,
// strategy phase and composer shape.
type CraftState struct {
	ID   uint32 `json:"id"`
	Name string `json:"name,omitempty"`

	Position        [3]float64 `json:"position"`
	Velocity        [3]float64 `json:"velocity"`
	AngularVelocity [3]float64 `json:"angular_velocity"`
	Rotation        [4]float64 `json:"rotation"` // w, x, y, z

	Directive string `json:"directive"`
	Strategy  string `json:"strategy"`
	Phase     string `json:"phase,omitempty"`
	Composer  string `json:"composer"`
	Routines  int    `json:"routines"`
	Weapons   int    `json:"weapons"`

	Command [3]float64 `json:"command"`
}

// SaveSnapshot writes a snapshot to disk.
// Returns the filepath where it was saved.
func SaveSnapshot(snapshot *Snapshot, dir string) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("create snapshot dir: %w", err)
	}

	path := filepath.Join(dir, snapshotName(snapshot))

	data, err := json.MarshalIndent(snapshot, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal snapshot: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("write snapshot: %w", err)
	}

	return path, nil
}

func snapshotName(s *Snapshot) string {
	name := fmt.Sprintf("snapshot_%d", s.Tick)
	if s.Label != "" {
		name += "_" + strings.ReplaceAll(strings.TrimSpace(s.Label), " ", "_")
	}
	return name + ".json"
}

// LoadSnapshot reads a snapshot from disk.
func LoadSnapshot(path string) (*Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read snapshot: %w", err)
	}

	var snapshot Snapshot
	if err := json.Unmarshal(data, &snapshot); err != nil {
		return nil, fmt.Errorf("unmarshal snapshot: %w", err)
	}
	if snapshot.Version != SnapshotVersion {
		return nil, fmt.Errorf("snapshot version %d, want %d", snapshot.Version, SnapshotVersion)
	}

	return &snapshot, nil
}
