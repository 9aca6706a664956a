package files

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/oukeidos/pgnct/internal/logger"
)

const tempPattern = "pgnct-*.tmp"

// maxExclusiveAttempts bounds the numbered suffixes tried by AtomicWriteExclusive.
const maxExclusiveAttempts = 10

// AtomicWrite writes data to a temp file in the destination directory and
// renames it over path. On any failure the destination is left untouched.
func AtomicWrite(path string, data []byte, perms os.FileMode) error {
	if err := RejectSymlinkPath(path); err != nil {
		return err
	}
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, tempPattern)
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmp.Name()

	if err := tmp.Chmod(perms); err != nil {
		discard(tmp, tmpPath)
		return fmt.Errorf("failed to set temp file permissions: %w", err)
	}
	if err := writeAndClose(tmp, data); err != nil {
		os.Remove(tmpPath)
		return err
	}
	if err := renameAtomic(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to rename temp file to destination: %w", err)
	}
	syncDirBestEffort(dir)
	return nil
}

// AtomicWriteExclusive behaves like AtomicWrite but never replaces an
// existing file: it tries path, then name_1.ext .. name_9.ext.
// It returns the path that was written.
func AtomicWriteExclusive(path string, data []byte, perms os.FileMode) (string, error) {
	if err := RejectSymlinkPath(path); err != nil {
		return "", err
	}
	dir := filepath.Dir(path)
	ext := filepath.Ext(path)
	base := strings.TrimSuffix(filepath.Base(path), ext)

	var lastErr error
	for i := 0; i < maxExclusiveAttempts; i++ {
		candidate := path
		if i > 0 {
			candidate = filepath.Join(dir, fmt.Sprintf("%s_%d%s", base, i, ext))
		}
		if _, err := os.Lstat(candidate); err == nil {
			lastErr = fmt.Errorf("%s: %w", candidate, os.ErrExist)
			continue
		}
		tmpPath := candidate + ".tmp"
		tmp, err := os.OpenFile(tmpPath, os.O_WRONLY|os.O_CREATE|os.O_EXCL, perms)
		if err != nil {
			if errors.Is(err, os.ErrExist) {
				lastErr = err
				continue
			}
			return "", err
		}
		if err := writeAndClose(tmp, data); err != nil {
			os.Remove(tmpPath)
			return "", err
		}
		if err := renameAtomic(tmpPath, candidate); err != nil {
			os.Remove(tmpPath)
			return "", err
		}
		syncDirBestEffort(dir)
		return candidate, nil
	}
	if lastErr != nil {
		return "", lastErr
	}
	return "", fmt.Errorf("failed to create %s", path)
}

func writeAndClose(f *os.File, data []byte) error {
	if _, err := f.Write(data); err != nil {
		f.Close()
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := f.Sync(); err != nil {
		f.Close()
		return fmt.Errorf("failed to sync temp file: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	return nil
}

func discard(f *os.File, path string) {
	f.Close()
	os.Remove(path)
}

func syncDirBestEffort(dir string) {
	if runtime.GOOS == "windows" {
		logger.Debug("Directory fsync not supported on Windows; skipping", "path", dir)
		return
	}
	f, err := os.Open(dir)
	if err != nil {
		logger.Warn("Directory fsync failed", "path", dir, "error", err)
		return
	}
	defer f.Close()
	if err := f.Sync(); err != nil {
		logger.Warn("Directory fsync failed (safe to ignore on some platforms)", "path", dir, "error", err)
	}
}
