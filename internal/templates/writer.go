package templates

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// WriteOutput writes content to relativePath under outDir, creating parent
// directories as needed. Existing files are overwritten so reruns are idempotent.
//
// The output path must stay under outDir (no absolute paths or parent traversal).
// It returns the full path of the written file.
func WriteOutput(outDir, relativePath string, content []byte) (string, error) {
	if outDir == "" {
		return "", errors.New("output directory is required")
	}
	if relativePath == "" {
		return "", errors.New("output path is required")
	}

	cleanRel := filepath.Clean(filepath.FromSlash(relativePath))
	if filepath.IsAbs(cleanRel) || cleanRel == ".." || strings.HasPrefix(cleanRel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("output path must be relative to the output directory: %s", relativePath)
	}

	fullPath := filepath.Join(outDir, cleanRel)
	rel, err := filepath.Rel(outDir, fullPath)
	if err != nil || strings.HasPrefix(rel, "..") {
		return "", fmt.Errorf("output path escapes output directory: %s", relativePath)
	}

	if err = os.MkdirAll(filepath.Dir(fullPath), 0o755); err != nil {
		return "", fmt.Errorf("create output directory: %w", err)
	}

	// #nosec G306 -- generated site files are meant to be world readable.
	if err := os.WriteFile(fullPath, content, 0o644); err != nil {
		return "", fmt.Errorf("write output file: %w", err)
	}
	return fullPath, nil
}
