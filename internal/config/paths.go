package config

import (
	"fmt"
	"os"
	"path/filepath"
)

// Paths resolves and owns every file-system location the builder writes.
type Paths struct {
	DataDir string
	MetaDir string
	LogsDir string
}

// NewPaths resolves the configured directories against the working
// directory. Absolute paths are taken as-is.
func NewPaths(cfg PathsConfig) (*Paths, error) {
	wd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("failed to get working directory: %w", err)
	}

	resolve := func(dir string) string {
		if filepath.IsAbs(dir) {
			return dir
		}
		return filepath.Join(wd, dir)
	}

	return &Paths{
		DataDir: resolve(cfg.DataDir),
		MetaDir: resolve(cfg.MetaDir),
		LogsDir: resolve(cfg.LogsDir),
	}, nil
}

// EnsureDirectories creates all output directories if they do not exist.
func (p *Paths) EnsureDirectories() error {
	for _, dir := range []string{p.DataDir, p.MetaDir, p.LogsDir} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}
	return nil
}

// DataPath returns the full path of a file in the data directory.
func (p *Paths) DataPath(name string) string {
	return filepath.Join(p.DataDir, name)
}

// MetaPath returns the full path of a file in the metadata directory.
func (p *Paths) MetaPath(name string) string {
	return filepath.Join(p.MetaDir, name)
}

// LogPath returns the full path of a file in the logs directory.
func (p *Paths) LogPath(name string) string {
	return filepath.Join(p.LogsDir, name)
}
