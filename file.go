package strata

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
)

// Durable saves replace a file in three steps so that a crash at any point
// leaves either the previous or the new content recoverable: the new bytes
// are written to P~1, the current P is renamed to the backup P~2, and P~1 is
// renamed into place. Reads prefer P and fall back to P~2; P~1 is never read
// because it may be incomplete.
const (
	inProgressSuffix = "~1"
	backupSuffix     = "~2"
)

// WriteFile durably replaces the document at path with the encoding of sec.
func WriteFile(path string, sec *Section, opts ...Option) error {
	data, err := Marshal(sec, opts...)
	if err != nil {
		return err
	}
	return ReplaceFile(path, data)
}

// ReadFile loads the document at path, falling back to the last known-good
// backup when path itself is missing.
func ReadFile(path string, opts ...Option) (*Section, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		data, err = os.ReadFile(path + backupSuffix)
	}
	if err != nil {
		return nil, fmt.Errorf("strata: read %s: %w", path, err)
	}
	return Parse(data, opts...)
}

// ReplaceFile runs the durable replace protocol with raw bytes, for callers
// that produce their own encoding.
func ReplaceFile(path string, data []byte) error {
	tmp := path + inProgressSuffix
	backup := path + backupSuffix

	if err := writeSynced(tmp, data); err != nil {
		return err
	}

	if _, err := os.Stat(path); err == nil {
		// A stale backup from an interrupted earlier save may remain.
		if err := os.Remove(backup); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("strata: remove stale backup %s: %w", backup, err)
		}
		if err := os.Rename(path, backup); err != nil {
			return fmt.Errorf("strata: back up %s: %w", path, err)
		}
	} else if !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("strata: stat %s: %w", path, err)
	}

	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("strata: replace %s: %w", path, err)
	}
	if err := os.Remove(backup); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("strata: remove backup %s: %w", backup, err)
	}
	return nil
}

func writeSynced(path string, data []byte) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return fmt.Errorf("strata: create %s: %w", path, err)
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		os.Remove(path)
		return fmt.Errorf("strata: write %s: %w", path, err)
	}
	if err := f.Sync(); err != nil {
		f.Close()
		os.Remove(path)
		return fmt.Errorf("strata: sync %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		os.Remove(path)
		return fmt.Errorf("strata: close %s: %w", path, err)
	}
	return nil
}
