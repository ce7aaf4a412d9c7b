// Package fsops places files at their destinations without ever overwriting
// an existing file.
//
// Copy stages content in a hidden temporary file next to the destination and
// renames it into place after an fsync, so readers never observe a partial
// file under the final name. Move renames when possible and falls back to Copy
// plus removal of the source when the rename crosses filesystems.
package fsops

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// renameFunc is swapped in tests to simulate cross-device renames.
var renameFunc = os.Rename

// CrossDeviceError reports a rename that failed because source and
// destination live on different filesystems.
type CrossDeviceError struct {
	Src string
	Dst string
	Err error
}

func (e *CrossDeviceError) Error() string {
	return fmt.Sprintf("rename %s -> %s crosses filesystems: %v", e.Src, e.Dst, e.Err)
}

func (e *CrossDeviceError) Unwrap() error { return e.Err }

// IsCrossDevice reports whether err is a CrossDeviceError.
func IsCrossDevice(err error) bool {
	var e *CrossDeviceError
	return errors.As(err, &e)
}

// Rename wraps os.Rename and marks EXDEV failures as CrossDeviceError.
func Rename(src, dst string) error {
	if err := renameFunc(src, dst); err != nil {
		if isEXDEV(err) {
			return &CrossDeviceError{Src: src, Dst: dst, Err: err}
		}
		return err
	}
	return nil
}

// EnsureDir creates dir and any missing parents.
func EnsureDir(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating directory %s: %w", dir, err)
	}
	return nil
}

// Copy duplicates src at dst, preserving permission bits and modification
// time. It fails with an error matching os.ErrExist when dst already exists.
func Copy(src, dst string) error {
	if err := checkFree(dst); err != nil {
		return err
	}

	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("opening source: %w", err)
	}
	defer in.Close()

	info, err := in.Stat()
	if err != nil {
		return fmt.Errorf("stat source: %w", err)
	}
	if !info.Mode().IsRegular() {
		return fmt.Errorf("copy %s: not a regular file", src)
	}

	dir := filepath.Dir(dst)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(dst)+".tmp-*")
	if err != nil {
		return fmt.Errorf("creating temporary file: %w", err)
	}
	tmpName := tmp.Name()
	committed := false
	defer func() {
		_ = tmp.Close()
		if !committed {
			_ = os.Remove(tmpName)
		}
	}()

	if _, err := io.Copy(tmp, in); err != nil {
		return fmt.Errorf("copying %s: %w", src, err)
	}
	if err := tmp.Chmod(info.Mode().Perm()); err != nil {
		return fmt.Errorf("setting mode: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		return fmt.Errorf("syncing temporary file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing temporary file: %w", err)
	}
	if err := os.Chtimes(tmpName, info.ModTime(), info.ModTime()); err != nil {
		return fmt.Errorf("setting times: %w", err)
	}

	// Recheck right before publishing: the staging above may take a while.
	if err := checkFree(dst); err != nil {
		return err
	}
	if err := Rename(tmpName, dst); err != nil {
		return fmt.Errorf("publishing %s: %w", dst, err)
	}
	committed = true

	syncDir(dir)
	return nil
}

// Move relocates src to dst. It fails with an error matching os.ErrExist when
// dst already exists. Cross-filesystem moves copy then remove the source; if
// the removal fails the copy is kept and the error is returned.
func Move(src, dst string) error {
	if err := checkFree(dst); err != nil {
		return err
	}

	err := Rename(src, dst)
	if err == nil {
		return nil
	}
	if !IsCrossDevice(err) {
		return fmt.Errorf("moving %s: %w", src, err)
	}

	if err := Copy(src, dst); err != nil {
		return err
	}
	if err := os.Remove(src); err != nil {
		return fmt.Errorf("removing source after copy: %w", err)
	}
	return nil
}

func checkFree(dst string) error {
	_, err := os.Lstat(dst)
	switch {
	case err == nil:
		return fmt.Errorf("%s: %w", dst, os.ErrExist)
	case errors.Is(err, os.ErrNotExist):
		return nil
	default:
		return fmt.Errorf("stat destination: %w", err)
	}
}

// syncDir flushes the directory entry after a rename. Failures are ignored:
// not every platform or filesystem supports it.
func syncDir(dir string) {
	d, err := os.Open(dir)
	if err != nil {
		return
	}
	_ = d.Sync()
	_ = d.Close()
}
