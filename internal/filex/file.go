// Package filex contains filesystem helpers used by the client.
package filex

import (
	"fmt"
	"net/http"
	"os"
	"path/filepath"
)

// EnsureParentDir creates the directory that will hold path, e.g. the folder
// of the local SQLite database. Paths without a directory part are a no-op.
func EnsureParentDir(path string) error {
	dir := filepath.Dir(path)
	if dir == "." || dir == "" {
		return nil
	}
	if err := os.MkdirAll(dir, 0o770); err != nil {
		return fmt.Errorf("mkdir %s: %w", dir, err)
	}
	return nil
}

// ReadLimited reads a whole file, refusing files larger than max bytes.
// It also sniffs the content type from the first bytes.
func ReadLimited(path string, max int64) ([]byte, string, error) {
	fi, err := os.Stat(path)
	if err != nil {
		return nil, "", err
	}
	if fi.IsDir() {
		return nil, "", fmt.Errorf("%s is a directory", path)
	}
	if fi.Size() > max {
		return nil, "", fmt.Errorf("%s is too large: %d bytes, limit %d", path, fi.Size(), max)
	}

	b, err := os.ReadFile(path)
	if err != nil {
		return nil, "", err
	}
	return b, http.DetectContentType(b), nil
}
