package writer

import (
	"fmt"
	"os"
	"time"

	"github.com/vmihailenco/msgpack/v5"
)

const manifestVersion = 1

// Manifest is the compact record of the paths one run generated. It is
// stored msgpack-encoded next to the output.
type Manifest struct {
	Version     int       `msgpack:"version"`
	GeneratedAt time.Time `msgpack:"generated_at"`
	Files       []string  `msgpack:"files"`
}

// Paths returns the tracked paths.
func (m *Manifest) Paths() []string { return m.Files }

// ReadManifest loads and decodes a manifest file.
func ReadManifest(path string) (*Manifest, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var m Manifest
	if err := msgpack.Unmarshal(raw, &m); err != nil {
		return nil, fmt.Errorf("decode manifest %s: %w", path, err)
	}
	if m.Version > manifestVersion {
		return nil, fmt.Errorf("manifest %s has unsupported version %d", path, m.Version)
	}
	return &m, nil
}

// WriteTo encodes and writes the manifest.
func (m *Manifest) WriteTo(path string) error {
	raw, err := msgpack.Marshal(m)
	if err != nil {
		return fmt.Errorf("encode manifest: %w", err)
	}
	if err := os.WriteFile(path, raw, 0o644); err != nil {
		return fmt.Errorf("write manifest %s: %w", path, err)
	}
	return nil
}
