// Package fileutil provides bounded reads and atomic write helpers for the
// JSON and YAML files the tool touches.
package fileutil

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/cockroachdb/errors"
	"gopkg.in/yaml.v3"
)

// AtomicWriteFile writes data to path via a temp file and rename, so a
// crash mid-write never leaves a truncated target. The temp file lives in
// the target's directory; renaming across filesystems is not atomic. The
// parent directory must already exist.
func AtomicWriteFile(path string, data []byte, perm os.FileMode) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".mcpsel-atomic-*.tmp")
	if err != nil {
		return errors.Wrap(err, "creating temp file")
	}
	name := tmp.Name()

	write := func() error {
		if _, err := tmp.Write(data); err != nil {
			tmp.Close()
			return errors.Wrap(err, "writing temp file")
		}
		// CreateTemp uses 0600; the target gets the caller's mode
		if err := tmp.Chmod(perm); err != nil {
			tmp.Close()
			return errors.Wrap(err, "setting file permissions")
		}
		return errors.Wrap(tmp.Close(), "closing temp file")
	}

	if err := write(); err != nil {
		os.Remove(name)
		return err
	}
	if err := os.Rename(name, path); err != nil {
		os.Remove(name)
		return errors.Wrap(err, "renaming temp file")
	}
	return nil
}

// AtomicWriteJSON writes v as 2-space-indented JSON with a trailing newline,
// 0644, atomically.
func AtomicWriteJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return errors.Wrap(err, "marshaling JSON")
	}
	return AtomicWriteFile(path, append(data, '\n'), 0644)
}

// AtomicWriteYAML writes v as YAML, 0644, atomically.
func AtomicWriteYAML(path string, v any) (err error) {
	// yaml.Marshal panics on unmarshalable types such as channels
	defer func() {
		if r := recover(); r != nil {
			err = errors.Newf("marshaling YAML: %v", r)
		}
	}()

	data, err := yaml.Marshal(v)
	if err != nil {
		return errors.Wrap(err, "marshaling YAML")
	}
	if len(data) == 0 || data[len(data)-1] != '\n' {
		data = append(data, '\n')
	}
	return AtomicWriteFile(path, data, 0644)
}
