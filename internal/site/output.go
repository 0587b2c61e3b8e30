package site

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	ferrors "git.home.luguber.info/inful/sitejam/internal/foundation/errors"
	"git.home.luguber.info/inful/sitejam/internal/logfields"
)

func ensureDir(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return ferrors.WrapError(err, ferrors.CategoryFileSystem, "create output directory").
			Fatal().WithContext(logfields.KeyPath, dir).Build()
	}
	return nil
}

// copyFile copies src to dst byte for byte and carries over the permission
// bits. The copy goes through a temporary file in dst's directory so an
// existing read-only output can still be replaced on a rerun.
func copyFile(src, dst string) error {
	if err := copyFileAtomic(src, dst); err != nil {
		return ferrors.WrapError(err, ferrors.CategoryFileSystem, "copy static file").
			Fatal().
			WithContext(logfields.KeySource, src).
			WithContext(logfields.KeyDest, dst).
			Build()
	}
	return nil
}

func copyFileAtomic(src, dst string) error {
	// #nosec G304 -- src is an entry of the configured source tree.
	srcFile, err := os.Open(src)
	if err != nil {
		return err
	}
	defer func() { _ = srcFile.Close() }()

	srcInfo, err := srcFile.Stat()
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(filepath.Dir(dst), "."+filepath.Base(dst)+".*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	cleanup := func() { _ = os.Remove(tmpName) }

	if _, err := io.Copy(tmp, srcFile); err != nil {
		_ = tmp.Close()
		cleanup()
		return fmt.Errorf("copy contents: %w", err)
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return err
	}
	if err := os.Chmod(tmpName, srcInfo.Mode().Perm()); err != nil {
		cleanup()
		return err
	}
	if err := os.Rename(tmpName, dst); err != nil {
		cleanup()
		return err
	}
	return nil
}
