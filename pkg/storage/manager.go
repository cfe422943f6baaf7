package storage

import (
	"fmt"
	"io"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// Manager handles file storage operations inside one output directory
type Manager struct {
	outputDir string
	trash     Trasher
}

// NewManager creates a new storage manager, creating outputDir if needed.
// A nil trasher falls back to plain removal.
func NewManager(outputDir string, trash Trasher) (*Manager, error) {
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}
	if trash == nil {
		trash = Remover{}
	}
	return &Manager{
		outputDir: outputDir,
		trash:     trash,
	}, nil
}

// Dir returns the output directory path
func (m *Manager) Dir() string {
	return m.outputDir
}

// Path returns the full path of name inside the output directory
func (m *Manager) Path(name string) string {
	return filepath.Join(m.outputDir, name)
}

// Exists reports whether a regular file called name exists
func (m *Manager) Exists(name string) bool {
	info, err := os.Stat(m.Path(name))
	return err == nil && info.Mode().IsRegular()
}

// Write stores data under name, replacing any existing file
func (m *Manager) Write(name string, data []byte) error {
	tmp, err := os.CreateTemp(m.outputDir, "."+name+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temporary file: %w", err)
	}
	tempPath := tmp.Name()

	_, err = tmp.Write(data)
	closeErr := tmp.Close()

	if err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("failed to write %s: %w", name, err)
	}
	if closeErr != nil {
		os.Remove(tempPath)
		return fmt.Errorf("failed to close %s: %w", name, closeErr)
	}

	if err := os.Chmod(tempPath, 0644); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("failed to set permissions on %s: %w", name, err)
	}

	if err := os.Rename(tempPath, m.Path(name)); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("failed to rename temporary file: %w", err)
	}

	return nil
}

// Move renames oldName to newName, replacing newName if it exists
func (m *Manager) Move(oldName, newName string) error {
	if oldName == newName {
		return nil
	}
	if err := os.Rename(m.Path(oldName), m.Path(newName)); err != nil {
		return fmt.Errorf("failed to move %s to %s: %w", oldName, newName, err)
	}
	return nil
}

// Discard hands name to the trasher
func (m *Manager) Discard(name string) error {
	if err := m.trash.Trash(m.Path(name)); err != nil {
		return fmt.Errorf("failed to discard %s: %w", name, err)
	}
	return nil
}

// Checksum hashes the full content of name and returns it as lowercase hex
func (m *Manager) Checksum(name string, algo Algorithm) (string, error) {
	f, err := os.Open(m.Path(name))
	if err != nil {
		return "", fmt.Errorf("failed to open %s: %w", name, err)
	}
	defer f.Close()

	h := algo.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", fmt.Errorf("failed to hash %s: %w", name, err)
	}
	return fmt.Sprintf("%x", h.Sum(nil)), nil
}

// BasenameFromURL derives a local file name from the last path segment of
// rawURL. Query strings and fragments are ignored.
func BasenameFromURL(rawURL string) string {
	p := rawURL
	if u, err := url.Parse(rawURL); err == nil {
		p = u.Path
	}

	name := path.Base(p)
	name = strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', 0:
			return '_'
		}
		return r
	}, name)

	if name == "" || name == "." || name == ".." || name == "/" {
		return "image"
	}
	return name
}

// HashedName returns "<sum><ext>" where ext is the extension of original
func HashedName(original, sum string) string {
	return sum + filepath.Ext(original)
}
