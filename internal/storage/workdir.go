package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog/log"
)

// WorkDir manages the directory holding intermediate WAV clips produced by
// the conversion stage. Clips are named chunk_<unixmilli>_<seq>.wav so that
// directory listings sort chronologically.
type WorkDir struct {
	dir string
}

// NewWorkDir creates the working directory if it does not exist.
func NewWorkDir(dir string) (*WorkDir, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create work dir: %v", err)
	}
	return &WorkDir{dir: dir}, nil
}

// Path returns the directory path.
func (w *WorkDir) Path() string {
	return w.dir
}

// WriteClip writes one encoded clip and returns its path.
func (w *WorkDir) WriteClip(seq int, data []byte) (string, error) {
	name := fmt.Sprintf("chunk_%d_%d.wav", time.Now().UnixMilli(), seq)
	path := filepath.Join(w.dir, name)
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write clip: %v", err)
	}
	return path, nil
}

// Remove deletes one clip file. Missing files are not an error.
func (w *WorkDir) Remove(path string) error {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// Sweep removes clip files older than maxAge and returns how many were
// deleted.
func (w *WorkDir) Sweep(maxAge time.Duration) int {
	now := time.Now()
	deleted := 0

	entries, err := os.ReadDir(w.dir)
	if err != nil {
		log.Error().Err(err).Str("dir", w.dir).Msg("Failed to read work dir during sweep")
		return 0
	}

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		if now.Sub(info.ModTime()) > maxAge {
			path := filepath.Join(w.dir, entry.Name())
			if err := os.Remove(path); err != nil {
				log.Warn().Err(err).Str("path", path).Msg("Failed to delete old clip")
				continue
			}
			deleted++
		}
	}

	if deleted > 0 {
		log.Info().Int("deleted", deleted).Str("dir", w.dir).Msg("Swept old clips")
	}
	return deleted
}
