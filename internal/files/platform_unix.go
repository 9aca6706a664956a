//go:build !windows

package files

import "os"

func renameAtomic(oldPath, newPath string) error {
	return os.Rename(oldPath, newPath)
}

// Reparse points are a Windows concept; Lstat already covers symlinks here.
func isReparsePoint(string) (bool, error) {
	return false, nil
}
