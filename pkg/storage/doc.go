// Package storage provides file management for downloaded images.
//
// The Manager type owns one output directory and handles:
//   - Atomic writes using a temporary file and rename
//   - Existence checks used by the no-clobber policy
//   - Moving a file onto another name, replacing any existing file
//   - Content checksums used for hash-derived file names
//   - Discarding files through a Trasher instead of deleting them
//
// The default Trasher moves discarded downloads into the platform trash so
// they can be restored from a file manager, and deletes them when no trash
// is available.
//
// Usage:
//
//	trash := storage.DefaultTrasher(nil)
//	manager, err := storage.NewManager("downloads", trash)
//	if err != nil {
//	    return err
//	}
//	if err := manager.Write("a.jpg", data); err != nil {
//	    return err
//	}
//	sum, err := manager.Checksum("a.jpg", storage.SHA256)
package storage
