package files

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// SafePath returns a non-existing path by appending _1.._9, then a UUID suffix.
// If the original path does not exist, it is returned unchanged.
func SafePath(path string) (string, bool, error) {
	if path == "" {
		return "", false, fmt.Errorf("path is empty")
	}
	_, err := os.Stat(path)
	if os.IsNotExist(err) {
		return path, false, nil
	}
	if err != nil {
		return "", false, err
	}
	ext := filepath.Ext(path)
	candidate, err := FreePath(strings.TrimSuffix(path, ext), ext)
	if err != nil {
		return "", false, err
	}
	return candidate, true, nil
}

// FreePath returns the first of stem_1.ext .. stem_9.ext that does not exist,
// falling back to stem_<uuid>.ext.
func FreePath(stem, ext string) (string, error) {
	for i := 1; i <= 9; i++ {
		candidate := fmt.Sprintf("%s_%d%s", stem, i, ext)
		if _, err := os.Stat(candidate); os.IsNotExist(err) {
			return candidate, nil
		} else if err != nil {
			return "", err
		}
	}
	return fmt.Sprintf("%s_%s%s", stem, uniqueSuffix(), ext), nil
}

func uniqueSuffix() string {
	if u, err := uuid.NewV7(); err == nil {
		return u.String()
	}
	return uuid.NewString()[:8]
}
