package storage

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/Bios-Marcel/wastebasket/v2"
)

// Trasher disposes of a file, preferably in a recoverable way
type Trasher interface {
	Trash(path string) error
}

// Remover deletes files permanently
type Remover struct{}

func (Remover) Trash(path string) error {
	return os.Remove(path)
}

// SystemTrash moves files into the platform trash: the freedesktop.org
// trash on Linux and BSD, the Finder trash on macOS and the Windows
// recycle bin.
type SystemTrash struct{}

func (SystemTrash) Trash(path string) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}
	if _, err := os.Lstat(abs); err != nil {
		return err
	}
	if err := wastebasket.Trash(abs); err != nil {
		return fmt.Errorf("failed to move %s to trash: %w", abs, err)
	}
	return nil
}

// FallbackTrasher tries Primary first. When Primary fails and the file is
// still in place, it is handed to Secondary and OnFallback is told why.
type FallbackTrasher struct {
	Primary    Trasher
	Secondary  Trasher
	OnFallback func(path string, err error)
}

func (f FallbackTrasher) Trash(path string) error {
	err := f.Primary.Trash(path)
	if err == nil {
		return nil
	}
	if _, statErr := os.Lstat(path); statErr != nil {
		return err
	}
	if f.OnFallback != nil {
		f.OnFallback(path, err)
	}
	return f.Secondary.Trash(path)
}

// DefaultTrasher uses the platform trash and removes the file when no
// trash is available
func DefaultTrasher(onFallback func(path string, err error)) Trasher {
	return FallbackTrasher{
		Primary:    SystemTrash{},
		Secondary:  Remover{},
		OnFallback: onFallback,
	}
}
