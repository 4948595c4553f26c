package storage

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
)

// Manager writes report artifacts into one output directory
type Manager struct {
	outputDir string
	written   map[string]bool
	mu        sync.RWMutex
}

// NewManager creates a new storage manager, creating outputDir if needed
func NewManager(outputDir string) (*Manager, error) {
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	return &Manager{
		outputDir: outputDir,
		written:   make(map[string]bool),
	}, nil
}

// Path returns the full path of name inside the output directory
func (m *Manager) Path(name string) string {
	return filepath.Join(m.outputDir, name)
}

// Exists reports whether name is present in the output directory
func (m *Manager) Exists(name string) bool {
	m.mu.RLock()
	known := m.written[name]
	m.mu.RUnlock()
	if known {
		return true
	}

	_, err := os.Stat(m.Path(name))
	return err == nil
}

// Save writes the contents of r to name. The data goes to a temporary file
// in the same directory first and is renamed into place, so readers never
// see a partially written file. An existing file is replaced.
func (m *Manager) Save(r io.Reader, name string) (string, error) {
	if name == "" || strings.ContainsAny(name, `/\`) {
		return "", fmt.Errorf("invalid file name %q", name)
	}
	filename := m.Path(name)

	tempFile := filename + ".tmp"
	out, err := os.Create(tempFile)
	if err != nil {
		return "", fmt.Errorf("failed to create temporary file: %w", err)
	}

	_, err = io.Copy(out, r)
	closeErr := out.Close()

	if err != nil {
		os.Remove(tempFile)
		return "", fmt.Errorf("failed to write %s: %w", name, err)
	}
	if closeErr != nil {
		os.Remove(tempFile)
		return "", fmt.Errorf("failed to close file: %w", closeErr)
	}

	if err := os.Rename(tempFile, filename); err != nil {
		os.Remove(tempFile)
		return "", fmt.Errorf("failed to rename temporary file: %w", err)
	}

	m.mu.Lock()
	m.written[name] = true
	m.mu.Unlock()

	return filename, nil
}

// GetOutputDir returns the output directory path
func (m *Manager) GetOutputDir() string {
	return m.outputDir
}

// Written returns the names saved through this manager, sorted
func (m *Manager) Written() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	names := make([]string, 0, len(m.written))
	for name := range m.written {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
