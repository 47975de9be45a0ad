package model

import "path/filepath"

// BackupPair is one configured source → destination mirroring job.
type BackupPair struct {
	ID          string `json:"id" yaml:"id"`
	Name        string `json:"name,omitempty" yaml:"name,omitempty"`
	Source      string `json:"source" yaml:"source"`
	Destination string `json:"destination" yaml:"destination"`
	Enabled     bool   `json:"enabled" yaml:"enabled"`
	// Priority orders pairs within a pass; lower runs first, ties keep
	// configured order.
	Priority int `json:"priority" yaml:"priority"`
}

// DisplayName returns a short human-readable label for logs and notifications.
func (p BackupPair) DisplayName() string {
	if p.Name != "" {
		return p.Name
	}
	return filepath.Base(p.Source) + " → " + filepath.Base(p.Destination)
}
