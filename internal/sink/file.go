package sink

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Dir writes each batch artifact as a file under a base directory.
// Create-or-overwrite semantics: re-dispatching the same name replaces the
// artifact.
type Dir struct {
	baseDir string
}

// NewDir creates the output directory if needed and returns a file sink
// rooted there.
func NewDir(baseDir string) (*Dir, error) {
	trimmed := strings.TrimSpace(baseDir)
	if trimmed == "" {
		return nil, fmt.Errorf("output directory is empty")
	}
	if err := os.MkdirAll(trimmed, 0o755); err != nil {
		return nil, fmt.Errorf("create output directory: %w", err)
	}
	return &Dir{baseDir: filepath.Clean(trimmed)}, nil
}

// WriteArtifact writes content (plus a trailing newline) to name inside the
// base directory. Names must be bare file names; anything that would escape
// the directory is rejected.
func (d *Dir) WriteArtifact(name, content string) error {
	if name == "" || name != filepath.Base(name) {
		return fmt.Errorf("invalid artifact name %q", name)
	}

	path := filepath.Join(d.baseDir, name)
	if err := os.WriteFile(path, []byte(content+"\n"), 0o644); err != nil {
		return fmt.Errorf("write artifact %q: %w", name, err)
	}
	return nil
}

// BaseDir returns the directory artifacts are written under.
func (d *Dir) BaseDir() string {
	return d.baseDir
}
