// Package storage manages the local output tree of a mirror run.
//
// The Manager type handles:
//   - Creating album directories
//   - Presence checks (a file at the target path means "already mirrored")
//   - Saving downloads with atomic write operations
//
// Save streams a reader into a hidden temporary sibling of the target,
// reading a fixed chunk size at a time, then renames it into place. A
// failed or interrupted transfer never leaves a partial file under the
// final name, so a later run simply downloads it again.
//
// Usage:
//
//	manager, err := storage.NewManager(storage.Options{Root: "out/"})
//	if err != nil {
//	    return err
//	}
//
//	if !manager.Exists(path) {
//	    if _, err := manager.Save(path, body); err != nil {
//	        log.Printf("Failed to save %s: %v", path, err)
//	    }
//	}
package storage
