package pgn

import (
	"fmt"
	"os"

	"github.com/oukeidos/pgnct/internal/files"
)

// Load reads a whole PGN file into memory.
func Load(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", path, err)
	}
	return string(data), nil
}

// Save writes doc to path through a temp file and rename, so readers see
// either the previous file or the complete new one.
func Save(path, doc string) error {
	return files.AtomicWrite(path, []byte(doc), 0644)
}
