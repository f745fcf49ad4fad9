// File: filex.go
// Title: File System Utility Functions
// Description: Implements existence checks, read/write helpers, directory
//              creation and backup copies. Errors are wrapped as mCW
//              errors with CodeFileAccess.
// Author: msto63 with Claude Sonnet 4.0
// Version: v0.1.0
// Created: 2026-02-04
// Modified: 2026-02-04
//
// Change History:
// - 2026-02-04 v0.1.0: Initial implementation

package filex

import (
	"io"
	"os"
	"path/filepath"
	"time"

	mcwerror "github.com/msto63/mCW/foundation/core/error"
)

// Exists returns true if the path exists
func Exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// IsFile returns true if the path exists and is a regular file
func IsFile(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}

// IsDir returns true if the path exists and is a directory
func IsDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

// ReadFile reads the entire file
func ReadFile(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, mcwerror.Wrap(err, "reading file failed").
			WithCode(mcwerror.CodeFileAccess).
			WithOperation("filex.ReadFile").
			WithDetail("path", path)
	}
	return data, nil
}

// ReadString reads the entire file as a string
func ReadString(path string) (string, error) {
	data, err := ReadFile(path)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// WriteFile writes data to a file, creating parent directories as needed
func WriteFile(path string, data []byte, perm os.FileMode) error {
	if err := EnsureDir(filepath.Dir(path)); err != nil {
		return err
	}
	if err := os.WriteFile(path, data, perm); err != nil {
		return mcwerror.Wrap(err, "writing file failed").
			WithCode(mcwerror.CodeFileAccess).
			WithOperation("filex.WriteFile").
			WithDetail("path", path)
	}
	return nil
}

// WriteString writes a string to a file, creating parent directories as needed
func WriteString(path, content string, perm os.FileMode) error {
	return WriteFile(path, []byte(content), perm)
}

// EnsureDir creates the directory including parents if it does not exist
func EnsureDir(path string) error {
	if path == "" || path == "." {
		return nil
	}
	if err := os.MkdirAll(path, 0755); err != nil {
		return mcwerror.Wrap(err, "creating directory failed").
			WithCode(mcwerror.CodeFileAccess).
			WithOperation("filex.EnsureDir").
			WithDetail("path", path)
	}
	return nil
}

// Backup copies a file to "<path>.<timestamp>.bak" and returns the backup
// path. Backing up a missing file is a no-op returning "".
func Backup(path string) (string, error) {
	if !IsFile(path) {
		return "", nil
	}

	backupPath := path + "." + time.Now().Format("20060102-150405") + ".bak"

	src, err := os.Open(path)
	if err != nil {
		return "", mcwerror.Wrap(err, "opening file for backup failed").
			WithCode(mcwerror.CodeFileAccess).
			WithOperation("filex.Backup").
			WithDetail("path", path)
	}
	defer src.Close()

	dst, err := os.Create(backupPath)
	if err != nil {
		return "", mcwerror.Wrap(err, "creating backup file failed").
			WithCode(mcwerror.CodeFileAccess).
			WithOperation("filex.Backup").
			WithDetail("path", backupPath)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		return "", mcwerror.Wrap(err, "copying backup content failed").
			WithCode(mcwerror.CodeFileAccess).
			WithOperation("filex.Backup").
			WithDetail("path", backupPath)
	}

	return backupPath, nil
}

// ListFiles returns the names of regular files directly inside dir
func ListFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, mcwerror.Wrap(err, "listing directory failed").
			WithCode(mcwerror.CodeFileAccess).
			WithOperation("filex.ListFiles").
			WithDetail("path", dir)
	}

	var names []string
	for _, entry := range entries {
		if entry.Type().IsRegular() {
			names = append(names, entry.Name())
		}
	}
	return names, nil
}
