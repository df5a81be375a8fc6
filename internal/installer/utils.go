package installer

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// copyFile copies src to dst, preserving the source permissions unless modeOverride is set.
// Missing parent directories of dst are created and an existing dst is overwritten.
func copyFile(src, dst string, modeOverride os.FileMode) (err error) {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("open source failed: %w", err)
	}
	defer in.Close()

	stat, err := in.Stat()
	if err != nil {
		return fmt.Errorf("stat source failed: %w", err)
	}
	if stat.IsDir() {
		return fmt.Errorf("source %s is a directory", src)
	}

	if err := os.MkdirAll(filepath.Dir(dst), 0755); err != nil {
		return fmt.Errorf("mkdir failed: %w", err)
	}

	out, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("create target failed: %w", err)
	}
	defer func() {
		if cerr := out.Close(); err == nil {
			err = cerr
		}
	}()

	if _, err := io.Copy(out, in); err != nil {
		return fmt.Errorf("copy failed: %w", err)
	}

	mode := stat.Mode().Perm()
	if modeOverride != 0 {
		mode = modeOverride
	}
	return os.Chmod(dst, mode)
}

// isDir reports whether path exists and is a directory.
func isDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

// isFile reports whether path exists and is not a directory.
func isFile(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
