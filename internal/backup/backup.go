// Package backup copies the library database to timestamped snapshot files.
package backup

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Service writes snapshots of the database file into a destination
// directory, named <db-name>_<timestamp><ext>.
type Service struct {
	databasePath string
	destDir      string
}

func NewService(databasePath, destDir string) *Service {
	return &Service{
		databasePath: databasePath,
		destDir:      destDir,
	}
}

// Run copies the database file and returns the snapshot path. The copy goes
// through a temp file renamed into place so a crash mid-copy never leaves a
// half-written snapshot behind.
func (s *Service) Run() (string, error) {
	src, err := os.Open(s.databasePath)
	if err != nil {
		if os.IsNotExist(err) {
			return "", fmt.Errorf("source database not found: %s", s.databasePath)
		}
		return "", fmt.Errorf("failed to open database: %w", err)
	}
	defer src.Close()

	if err := os.MkdirAll(s.destDir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create backup directory: %w", err)
	}

	base := filepath.Base(s.databasePath)
	ext := filepath.Ext(base)
	name := strings.TrimSuffix(base, ext)
	timestamp := time.Now().Format("20060102_150405")
	dest := filepath.Join(s.destDir, fmt.Sprintf("%s_%s%s", name, timestamp, ext))

	tmp, err := os.CreateTemp(s.destDir, base+".tmp-*")
	if err != nil {
		return "", fmt.Errorf("failed to create snapshot file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := io.Copy(tmp, src); err != nil {
		tmp.Close()
		return "", fmt.Errorf("failed to copy database: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("failed to finish snapshot: %w", err)
	}
	if err := os.Rename(tmp.Name(), dest); err != nil {
		return "", fmt.Errorf("failed to place snapshot: %w", err)
	}

	return dest, nil
}
